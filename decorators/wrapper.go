package decorators

import (
	"context"
	"fmt"
	"time"

	"github.com/drosengarten/bulwark/callable"
)

// Decorator wraps a function with a check.
type Decorator interface {
	Wrap(target *callable.Func) (*callable.Func, error)
}

// Outcome of one wrapped call as seen by the check.
type Outcome string

const (
	OutcomePassed   Outcome = "passed"
	OutcomeFailed   Outcome = "failed"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeDisabled Outcome = "disabled"
)

// Event describes one wrapped call.
type Event struct {
	Check    string
	Target   string
	Locator  Locator
	Outcome  Outcome
	Err      error
	Duration time.Duration
}

// Observer receives an Event after every wrapped call.
type Observer func(Event)

// Observers fans each event out to every non-nil observer in order.
func Observers(obs ...Observer) Observer {
	return func(e Event) {
		for _, o := range obs {
			if o != nil {
				o(e)
			}
		}
	}
}

// Wrapper checks the value its locator selects on every call of the
// functions it wraps. A Wrapper is immutable once built.
type Wrapper struct {
	check    *callable.Func
	dataName string
	cfg      Config
	observer Observer
}

var _ Decorator = (*Wrapper)(nil)

// NewWrapper builds a Wrapper around check. Positional configuration binds
// to check's parameters after the first, named configuration overlays it,
// and the locator is validated before anything is wrapped.
func NewWrapper(check *callable.Func, opts ...Option) (*Wrapper, error) {
	if check == nil {
		return nil, fmt.Errorf("%w: no check", ErrConfig)
	}
	if len(check.Params()) == 0 {
		return nil, fmt.Errorf("%w: %s declares no data parameter", ErrConfig, check.Name())
	}
	bc := newBuildConfig(opts)
	if bc.checkFunc != nil {
		return nil, fmt.Errorf("%w: %s does not take a check function", ErrConfig, check.Name())
	}

	params, raw, named, err := bindConfig(check, bc.positional, bc.named)
	if err != nil {
		return nil, err
	}
	if bc.hasLocator {
		if named {
			return nil, fmt.Errorf("%w: locator set twice", ErrConfig)
		}
		raw = bc.locator
	}
	loc, err := parseLocator(raw)
	if err != nil {
		return nil, err
	}

	return &Wrapper{
		check:    check,
		dataName: check.Params()[0].Name,
		cfg: Config{
			Enabled: bc.enabled,
			Locator: loc,
			Params:  params,
		},
		observer: bc.observer,
	}, nil
}

// Check returns the wrapped check operation.
func (w *Wrapper) Check() *callable.Func { return w.check }

// Config returns a copy of the wrapper configuration.
func (w *Wrapper) Config() Config { return w.cfg.clone() }

// Wrap returns target with the check attached. A string locator must name
// a parameter of target.
func (w *Wrapper) Wrap(target *callable.Func) (*callable.Func, error) {
	if target == nil {
		return nil, fmt.Errorf("%w: no function to wrap", ErrConfig)
	}
	loc := w.cfg.Locator
	if loc.Kind == LocateArgument && !callable.HasArgument(loc.Name, target) {
		return nil, fmt.Errorf("%w: '%s' is not an arg to function '%s'", ErrUnknownArgument, loc.Name, target.Name())
	}
	return target.Intercept(w.handler(target)), nil
}

func (w *Wrapper) handler(target *callable.Func) callable.Handler {
	loc := w.cfg.Locator
	return func(ctx context.Context, args callable.Args, next callable.Invoker) (any, error) {
		if !w.cfg.Enabled {
			w.emit(target, OutcomeDisabled, nil, 0)
			return next(ctx, args)
		}

		switch loc.Kind {
		case LocateIndex:
			res, err := next(ctx, args)
			if err != nil {
				return nil, err
			}
			tuple, ok := res.(callable.Tuple)
			if !ok {
				return nil, fmt.Errorf("%w: %s returned %T; an index locator needs a function returning multiple values",
					ErrNotTuple, target.Name(), res)
			}
			v, ok := tuple.At(loc.Index)
			if !ok {
				return nil, fmt.Errorf("%w: index %d of %d values returned by %s",
					ErrIndexOutOfRange, loc.Index, len(tuple), target.Name())
			}
			if err := w.run(ctx, target, v); err != nil {
				return nil, err
			}
			return res, nil

		case LocateArgument:
			def := callable.ArgumentDefault(target, loc.Name)
			v, err := callable.ArgumentValue(target, loc.Name, args)
			if err != nil {
				return nil, err
			}
			// An optional argument left at nil carries no data to check.
			if def == callable.Empty || !callable.IsNone(v) {
				if err := w.run(ctx, target, v); err != nil {
					return nil, err
				}
			} else {
				w.emit(target, OutcomeSkipped, nil, 0)
			}
			return next(ctx, args)

		default:
			res, err := next(ctx, args)
			if err != nil {
				return nil, err
			}
			if err := w.run(ctx, target, res); err != nil {
				return nil, err
			}
			return res, nil
		}
	}
}

func (w *Wrapper) run(ctx context.Context, target *callable.Func, v any) error {
	named := make(map[string]any, len(w.cfg.Params)+1)
	for k, p := range w.cfg.Params {
		named[k] = p
	}
	named[w.dataName] = v

	start := time.Now()
	_, err := w.check.CallArgs(ctx, callable.Named(named))
	outcome := OutcomePassed
	if err != nil {
		outcome = OutcomeFailed
	}
	w.emit(target, outcome, err, time.Since(start))
	return err
}

func (w *Wrapper) emit(target *callable.Func, outcome Outcome, err error, d time.Duration) {
	notify(w.observer, Event{
		Check:    w.check.Name(),
		Target:   target.Name(),
		Locator:  w.cfg.Locator,
		Outcome:  outcome,
		Err:      err,
		Duration: d,
	})
}
