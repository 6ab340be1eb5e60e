package decorators

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"

	"github.com/drosengarten/bulwark/callable"
)

// Option configures a wrapper at construction time.
type Option func(*buildConfig)

type buildConfig struct {
	positional []any
	named      map[string]any
	locator    any
	hasLocator bool
	enabled    bool
	checkFunc  *callable.Func
	observer   Observer
}

func newBuildConfig(opts []Option) *buildConfig {
	bc := &buildConfig{enabled: true, named: make(map[string]any)}
	for _, o := range opts {
		o(bc)
	}
	return bc
}

// Args appends positional configuration values. They bind, in order, to
// the check parameters that follow its data parameter.
func Args(values ...any) Option {
	return func(b *buildConfig) { b.positional = append(b.positional, values...) }
}

// Param sets one named configuration value. Named values override
// positional ones.
func Param(name string, v any) Option {
	return func(b *buildConfig) { b.named[name] = v }
}

// Params sets several named configuration values.
func Params(values map[string]any) Option {
	return func(b *buildConfig) {
		for k, v := range values {
			b.named[k] = v
		}
	}
}

// Locate selects the value to check: nil for the return value, an int
// for an element of a returned Tuple, a string for a named argument.
// It is equivalent to setting the check's data parameter by name.
func Locate(v any) Option {
	return func(b *buildConfig) {
		b.locator = v
		b.hasLocator = true
	}
}

// Enabled turns the check on or off. Disabled wrappers call straight
// through to the wrapped function.
func Enabled(on bool) Option {
	return func(b *buildConfig) { b.enabled = on }
}

// CheckFunc supplies the check of a custom wrapper. With it, every Args
// value is configuration.
func CheckFunc(f *callable.Func) Option {
	return func(b *buildConfig) { b.checkFunc = f }
}

// WithObserver reports every check outcome to o.
func WithObserver(o Observer) Option {
	return func(b *buildConfig) { b.observer = o }
}

// LocatorKind says where the checked value comes from.
type LocatorKind int

const (
	// LocateResult checks the value returned by the wrapped function.
	LocateResult LocatorKind = iota
	// LocateIndex checks one element of a returned Tuple.
	LocateIndex
	// LocateArgument checks a named argument before the call.
	LocateArgument
)

func (k LocatorKind) String() string {
	switch k {
	case LocateResult:
		return "result"
	case LocateIndex:
		return "index"
	case LocateArgument:
		return "argument"
	}
	return "unknown"
}

// Locator is a validated locator value.
type Locator struct {
	Kind  LocatorKind
	Index int
	Name  string
}

func (l Locator) String() string {
	switch l.Kind {
	case LocateIndex:
		return fmt.Sprintf("index %d", l.Index)
	case LocateArgument:
		return fmt.Sprintf("argument %q", l.Name)
	}
	return "result"
}

const locatorHelp = "Only allowed types are:\n" +
	" string: name of the argument of the decorated function to check\n" +
	" int:    entry of the tuple returned by the decorated function to check\n" +
	" nil:    check the single value returned by the decorated function"

// parseLocator accepts nil, signed integers and strings.
func parseLocator(v any) (Locator, error) {
	if v == nil {
		return Locator{Kind: LocateResult}, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return Locator{Kind: LocateArgument, Name: rv.String()}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := rv.Int()
		if n < math.MinInt || n > math.MaxInt {
			return Locator{}, fmt.Errorf("%w: locator %d out of range", ErrLocatorType, n)
		}
		return Locator{Kind: LocateIndex, Index: int(n)}, nil
	}
	return Locator{}, fmt.Errorf("%w: locator cannot be of type %T.\n%s", ErrLocatorType, v, locatorHelp)
}

// Config is the state of one wrapper.
type Config struct {
	Enabled bool
	Locator Locator
	// Params are forwarded to the check by name.
	Params map[string]any
}

func (c Config) clone() Config {
	p := make(map[string]any, len(c.Params))
	for k, v := range c.Params {
		p[k] = v
	}
	c.Params = p
	return c
}

// bindConfig binds positional values to the parameters of check after
// its first, overlays named values, and requires every parameter without
// a default. A named value for the first parameter is returned as the
// raw locator.
func bindConfig(check *callable.Func, positional []any, named map[string]any) (params map[string]any, locator any, hasLocator bool, err error) {
	all := check.Params()
	dataName := all[0].Name
	names := all[1:]

	if len(positional) > len(names) {
		return nil, nil, false, fmt.Errorf("%w: %s takes %d configuration values, %d given",
			ErrConfig, check.Name(), len(names), len(positional))
	}

	params = make(map[string]any, len(names))
	for i, v := range positional {
		params[names[i].Name] = v
	}

	var unknown []string
	for k, v := range named {
		if k == dataName {
			locator, hasLocator = v, true
			continue
		}
		if !callable.HasArgument(k, check) {
			unknown = append(unknown, k)
			continue
		}
		params[k] = v
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, nil, false, fmt.Errorf("%w: %s has no parameter(s) %s",
			ErrConfig, check.Name(), strings.Join(unknown, ", "))
	}

	var missing []string
	for _, p := range names {
		if _, ok := params[p.Name]; !ok && !p.HasDefault() {
			missing = append(missing, p.Name)
		}
	}
	if len(missing) > 0 {
		return nil, nil, false, fmt.Errorf("%w: %s requires %s",
			ErrConfig, check.Name(), strings.Join(missing, ", "))
	}
	return params, locator, hasLocator, nil
}
