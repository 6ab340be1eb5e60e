package decorators

import (
	"context"
	"fmt"
	"time"

	"github.com/drosengarten/bulwark/callable"
	"github.com/drosengarten/bulwark/checks"
)

// CustomWrapper checks the return value of the functions it wraps with a
// caller-supplied check. It has no locator.
type CustomWrapper struct {
	entry    *callable.Func
	check    *callable.Func
	cfg      Config
	observer Observer
}

var _ Decorator = (*CustomWrapper)(nil)

// NewCustomCheck builds a CustomWrapper. The check is given with CheckFunc,
// or else as the first Args value; the remaining Args values bind to the
// check's parameters after its first. entry is the check entry point that
// runs the check; nil selects the catalog's custom_check.
func NewCustomCheck(entry *callable.Func, opts ...Option) (*CustomWrapper, error) {
	if entry == nil {
		var ok bool
		if entry, ok = checks.Lookup(checks.CustomCheckName); !ok {
			return nil, fmt.Errorf("%w: no %s entry point", ErrConfig, checks.CustomCheckName)
		}
	}
	bc := newBuildConfig(opts)
	if bc.hasLocator {
		return nil, fmt.Errorf("%w: custom checks always check the return value", ErrConfig)
	}

	check := bc.checkFunc
	positional := bc.positional
	if check == nil {
		if len(positional) == 0 {
			return nil, fmt.Errorf("%w: no check function", ErrConfig)
		}
		f, ok := positional[0].(*callable.Func)
		if !ok || f == nil {
			return nil, fmt.Errorf("%w: check function is %T, want *callable.Func", ErrConfig, positional[0])
		}
		check, positional = f, positional[1:]
	}
	if len(check.Params()) == 0 {
		return nil, fmt.Errorf("%w: %s declares no data parameter", ErrConfig, check.Name())
	}

	params, _, named, err := bindConfig(check, positional, bc.named)
	if err != nil {
		return nil, err
	}
	if named {
		return nil, fmt.Errorf("%w: custom checks always check the return value", ErrConfig)
	}

	return &CustomWrapper{
		entry: entry,
		check: check,
		cfg: Config{
			Enabled: bc.enabled,
			Locator: Locator{Kind: LocateResult},
			Params:  params,
		},
		observer: bc.observer,
	}, nil
}

// Check returns the caller-supplied check.
func (c *CustomWrapper) Check() *callable.Func { return c.check }

// Config returns a copy of the wrapper configuration.
func (c *CustomWrapper) Config() Config { return c.cfg.clone() }

// Wrap returns target with the check attached to its return value.
func (c *CustomWrapper) Wrap(target *callable.Func) (*callable.Func, error) {
	if target == nil {
		return nil, fmt.Errorf("%w: no function to wrap", ErrConfig)
	}
	return target.Intercept(func(ctx context.Context, args callable.Args, next callable.Invoker) (any, error) {
		res, err := next(ctx, args)
		if err != nil {
			return nil, err
		}
		if !c.cfg.Enabled {
			c.emit(target, OutcomeDisabled, nil, 0)
			return res, nil
		}

		params := make(map[string]any, len(c.cfg.Params))
		for k, v := range c.cfg.Params {
			params[k] = v
		}
		start := time.Now()
		_, err = c.entry.CallArgs(ctx, callable.Pos(res, c.check, params))
		if err != nil {
			c.emit(target, OutcomeFailed, err, time.Since(start))
			return nil, err
		}
		c.emit(target, OutcomePassed, nil, time.Since(start))
		return res, nil
	}), nil
}

func (c *CustomWrapper) emit(target *callable.Func, outcome Outcome, err error, d time.Duration) {
	notify(c.observer, Event{
		Check:    c.check.Name(),
		Target:   target.Name(),
		Locator:  c.cfg.Locator,
		Outcome:  outcome,
		Err:      err,
		Duration: d,
	})
}

func notify(o Observer, e Event) {
	if o != nil {
		o(e)
	}
}
