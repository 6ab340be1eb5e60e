package callable

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

type empty struct{}

func (empty) String() string { return "<empty>" }

// Empty is the default reported for a parameter that has none.
var Empty any = empty{}

// Param is one declared parameter.
type Param struct {
	Name       string
	def        any
	hasDefault bool
}

// Required declares a parameter the caller must supply.
func Required(name string) Param {
	return Param{Name: name}
}

// Optional declares a parameter with a default value.
func Optional(name string, def any) Param {
	return Param{Name: name, def: def, hasDefault: true}
}

// HasDefault reports whether the parameter declares a default.
func (p Param) HasDefault() bool { return p.hasDefault }

// Default returns the declared default, or Empty.
func (p Param) Default() any {
	if !p.hasDefault {
		return Empty
	}
	return p.def
}

func (p Param) String() string {
	if !p.hasDefault {
		return p.Name
	}
	return fmt.Sprintf("%s=%v", p.Name, p.def)
}

// Args are the actual arguments of one call.
type Args struct {
	Positional []any
	Named      map[string]any
}

// Pos builds Args from positional values.
func Pos(values ...any) Args {
	return Args{Positional: values}
}

// Named builds Args from named values.
func Named(values map[string]any) Args {
	return Args{Named: values}
}

// With returns a copy of a with name set to v.
func (a Args) With(name string, v any) Args {
	c := a.Clone()
	if c.Named == nil {
		c.Named = make(map[string]any, 1)
	}
	c.Named[name] = v
	return c
}

// Clone copies the positional slice and the named map.
func (a Args) Clone() Args {
	c := Args{Positional: append([]any(nil), a.Positional...)}
	if a.Named != nil {
		c.Named = make(map[string]any, len(a.Named))
		for k, v := range a.Named {
			c.Named[k] = v
		}
	}
	return c
}

// BindError reports call arguments that do not fit a function's parameters.
type BindError struct {
	Func   string
	Param  string
	Reason string
}

func (e *BindError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s(): argument '%s': %s", e.Func, e.Param, e.Reason)
	}
	return fmt.Sprintf("%s(): %s", e.Func, e.Reason)
}

// Bound maps every declared parameter to its value for one call,
// defaults applied.
type Bound struct {
	names  []string
	values []any
}

// Get returns the bound value of name.
func (b *Bound) Get(name string) (any, bool) {
	for i, n := range b.names {
		if n == name {
			return b.values[i], true
		}
	}
	return nil, false
}

// Names returns the parameter names in declaration order.
func (b *Bound) Names() []string {
	return append([]string(nil), b.names...)
}

// Bind matches args against the declared parameters: positional values
// fill parameters in order, named values fill by name, and unset
// parameters take their defaults.
func (f *Func) Bind(args Args) (*Bound, error) {
	if len(args.Positional) > len(f.params) {
		return nil, &BindError{
			Func:   f.name,
			Reason: fmt.Sprintf("takes %d positional arguments but %d were given", len(f.params), len(args.Positional)),
		}
	}

	b := &Bound{
		names:  make([]string, len(f.params)),
		values: make([]any, len(f.params)),
	}
	set := make([]bool, len(f.params))
	for i, p := range f.params {
		b.names[i] = p.Name
	}
	for i, v := range args.Positional {
		b.values[i] = v
		set[i] = true
	}

	keys := make([]string, 0, len(args.Named))
	for k := range args.Named {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		i, ok := f.index[k]
		if !ok {
			return nil, &BindError{Func: f.name, Param: k, Reason: "unexpected keyword argument"}
		}
		if set[i] {
			return nil, &BindError{Func: f.name, Param: k, Reason: "multiple values for argument"}
		}
		b.values[i] = args.Named[k]
		set[i] = true
	}

	var missing []string
	for i, p := range f.params {
		if set[i] {
			continue
		}
		if !p.hasDefault {
			missing = append(missing, "'"+p.Name+"'")
			continue
		}
		b.values[i] = p.def
	}
	if len(missing) > 0 {
		return nil, &BindError{
			Func:   f.name,
			Reason: "missing required argument(s): " + strings.Join(missing, ", "),
		}
	}
	return b, nil
}

// IsNone reports whether v is nil or a nil pointer, map, slice, func,
// channel or interface.
func IsNone(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func coerce(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, fmt.Errorf("cannot use nil as %s", t)
	}

	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}
	if isNumeric(rv.Kind()) && isNumeric(t.Kind()) {
		if err := fits(rv, t); err != nil {
			return reflect.Value{}, err
		}
		return rv.Convert(t), nil
	}
	if opaque(t) {
		return reflect.Value{}, fmt.Errorf("cannot use %T as %s", v, t)
	}

	ptr := reflect.New(t)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      ptr.Interface(),
		ErrorUnused: true,
	})
	if err != nil {
		return reflect.Value{}, err
	}
	if err := dec.Decode(v); err != nil {
		return reflect.Value{}, fmt.Errorf("cannot use %T as %s: %w", v, t, err)
	}
	return ptr.Elem(), nil
}

// fits reports an error when the numeric value rv cannot be converted to
// t without changing it.
func fits(rv reflect.Value, t reflect.Type) error {
	dst := reflect.New(t).Elem()
	over := false
	switch {
	case isSigned(rv.Kind()):
		n := rv.Int()
		switch {
		case isSigned(t.Kind()):
			over = dst.OverflowInt(n)
		case isUnsigned(t.Kind()):
			over = n < 0 || dst.OverflowUint(uint64(n))
		case t.Kind() == reflect.Float32:
			over = dst.OverflowFloat(float64(n))
		}
	case isUnsigned(rv.Kind()):
		n := rv.Uint()
		switch {
		case isSigned(t.Kind()):
			over = n > math.MaxInt64 || dst.OverflowInt(int64(n))
		case isUnsigned(t.Kind()):
			over = dst.OverflowUint(n)
		case t.Kind() == reflect.Float32:
			over = dst.OverflowFloat(float64(n))
		}
	default:
		f := rv.Float()
		if !isFloat(t.Kind()) {
			if f != math.Trunc(f) || math.IsInf(f, 0) {
				return fmt.Errorf("cannot use non-integral %v as %s", f, t)
			}
		}
		switch {
		case isSigned(t.Kind()):
			over = f < math.MinInt64 || f >= math.MaxInt64 || dst.OverflowInt(int64(f))
		case isUnsigned(t.Kind()):
			over = f < 0 || f >= math.MaxUint64 || dst.OverflowUint(uint64(f))
		default:
			over = !math.IsInf(f, 0) && dst.OverflowFloat(f)
		}
	}
	if over {
		return fmt.Errorf("%v overflows %s", rv.Interface(), t)
	}
	return nil
}

// opaque reports whether t, after dereferencing pointers, is a struct
// with no exported fields. Nothing can be decoded into one.
func opaque(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return false
	}
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).IsExported() {
			return false
		}
	}
	return true
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func isSigned(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUnsigned(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}
