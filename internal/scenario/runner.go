package scenario

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/drosengarten/bulwark/callable"
	"github.com/drosengarten/bulwark/checks"
	"github.com/drosengarten/bulwark/decorators"
	"github.com/drosengarten/bulwark/frame"
)

// Options configures a run.
type Options struct {
	// Registry resolves case check names. Nil means decorators.Default().
	Registry *decorators.Registry
	// Observer receives every check event.
	Observer decorators.Observer
	// RunID identifies the run. Empty means a new random UUID.
	RunID string
}

// The checked function passes its df argument through. Index locators
// need a Tuple, so they get a variant returning (df, rows).
var (
	pipeline = callable.MustNew("pipeline",
		func(df *frame.Frame) *frame.Frame { return df },
		callable.Required(checks.DataParam),
	).WithDoc("Returns df unchanged.")

	pipelineRows = callable.MustNew("pipeline",
		func(df *frame.Frame) (*frame.Frame, int) { return df, df.Len() },
		callable.Required(checks.DataParam),
	).WithDoc("Returns df and its row count.")
)

// Run evaluates every case of s against df. Cases are independent: each
// builds its own wrapper around a fresh pipeline.
func Run(ctx context.Context, s *Scenario, df *frame.Frame, opts Options) *RunResult {
	reg := opts.Registry
	if reg == nil {
		reg = decorators.Default()
	}

	id := opts.RunID
	if id == "" {
		id = uuid.NewString()
	}

	result := &RunResult{
		ID:    id,
		Name:  s.Name,
		Total: len(s.Cases),
	}

	for i, c := range s.Cases {
		expected := strings.ToLower(c.Expect)
		cr := CaseResult{
			Index:    i + 1,
			Check:    c.Check,
			Locator:  locatorString(c.Locate),
			Expected: expected,
		}

		err := runCase(ctx, s, c, df, reg, opts.Observer)
		cr.Actual = classify(err)
		if err != nil {
			cr.Reason = err.Error()
		}

		if cr.Actual == expected {
			cr.Passed = true
			result.Passed++
		} else {
			result.Failed++
		}
		result.Cases = append(result.Cases, cr)
	}

	return result
}

func runCase(ctx context.Context, s *Scenario, c Case, df *frame.Frame, reg *decorators.Registry, obs decorators.Observer) error {
	params := make(map[string]any, len(c.Params)+len(c.Frames))
	for k, v := range c.Params {
		params[k] = v
	}
	for name, src := range c.Frames {
		f, err := src.Frame(ctx, s.dir)
		if err != nil {
			return fmt.Errorf("frame %s: %w", name, err)
		}
		params[name] = f
	}

	opts := []decorators.Option{
		decorators.Args(c.Args...),
		decorators.Params(params),
		decorators.WithObserver(obs),
	}
	if c.Locate != nil {
		opts = append(opts, decorators.Locate(c.Locate))
	}
	if c.Enabled != nil {
		opts = append(opts, decorators.Enabled(*c.Enabled))
	}

	d, err := reg.Build(c.Check, opts...)
	if err != nil {
		return err
	}

	target := pipeline
	if w, ok := d.(*decorators.Wrapper); ok && w.Config().Locator.Kind == decorators.LocateIndex {
		target = pipelineRows
	}
	f, err := d.Wrap(target)
	if err != nil {
		return err
	}
	_, err = f.Call(ctx, df)
	return err
}

// classify maps a case error to an outcome. Only check failures count as
// fail; configuration, binding and shape errors are errors.
func classify(err error) string {
	if err == nil {
		return Pass
	}
	var ce *checks.Error
	if errors.As(err, &ce) {
		return Fail
	}
	return Error
}

func locatorString(v any) string {
	if v == nil {
		return "result"
	}
	return fmt.Sprint(v)
}

// Load reads a scenario file. Files ending in .toml are TOML, anything
// else is YAML.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}

	var s Scenario
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("parse scenario %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	s.dir = filepath.Dir(path)
	return &s, nil
}

// LoadAndRun loads a scenario file and its data, and runs it.
func LoadAndRun(ctx context.Context, path string, opts Options) (*RunResult, error) {
	s, err := Load(path)
	if err != nil {
		return nil, err
	}

	df, err := s.Data.Frame(ctx, s.dir)
	if err != nil {
		return nil, fmt.Errorf("load data for %s: %w", path, err)
	}

	result := Run(ctx, s, df, opts)
	result.File = path

	return result, nil
}
