package callable

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

// Tuple is the result of a function that returns more than one value.
type Tuple []any

// At returns element i. Negative indices count from the end.
func (t Tuple) At(i int) (any, bool) {
	if i < 0 {
		i += len(t)
	}
	if i < 0 || i >= len(t) {
		return nil, false
	}
	return t[i], true
}

// Invoker runs a function with call arguments.
type Invoker func(ctx context.Context, args Args) (any, error)

// Handler intercepts a call. next runs the intercepted function.
type Handler func(ctx context.Context, args Args, next Invoker) (any, error)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// Func is a Go function together with its declared parameter list.
// A Func is immutable and safe for concurrent calls.
type Func struct {
	name    string
	doc     string
	pkg     string
	params  []Param
	index   map[string]int
	invoke  Invoker
	wrapped *Func
}

// New declares fn under name with the given parameters. fn must be a
// non-variadic func whose arity, not counting a leading context.Context,
// equals len(params).
func New(name string, fn any, params ...Param) (*Func, error) {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return nil, fmt.Errorf("callable %s: %T is not a function", name, fn)
	}
	t := v.Type()
	if t.IsVariadic() {
		return nil, fmt.Errorf("callable %s: variadic functions are not supported", name)
	}

	offset := 0
	if t.NumIn() > 0 && t.In(0) == contextType {
		offset = 1
	}
	if got := t.NumIn() - offset; got != len(params) {
		return nil, fmt.Errorf("callable %s: function takes %d parameters, %d declared", name, got, len(params))
	}

	index := make(map[string]int, len(params))
	for i, p := range params {
		if p.Name == "" {
			return nil, fmt.Errorf("callable %s: parameter %d has no name", name, i)
		}
		if _, dup := index[p.Name]; dup {
			return nil, fmt.Errorf("callable %s: duplicate parameter %q", name, p.Name)
		}
		index[p.Name] = i
	}

	returnsErr := t.NumOut() > 0 && t.Out(t.NumOut()-1) == errorType

	f := &Func{
		name:   name,
		pkg:    packageOf(v),
		params: append([]Param(nil), params...),
		index:  index,
	}
	f.invoke = func(ctx context.Context, args Args) (any, error) {
		bound, err := f.Bind(args)
		if err != nil {
			return nil, err
		}

		in := make([]reflect.Value, 0, t.NumIn())
		if offset == 1 {
			if ctx == nil {
				ctx = context.Background()
			}
			in = append(in, reflect.ValueOf(ctx))
		}
		for i, p := range f.params {
			rv, err := coerce(bound.values[i], t.In(i+offset))
			if err != nil {
				return nil, &BindError{Func: name, Param: p.Name, Reason: err.Error()}
			}
			in = append(in, rv)
		}

		out := v.Call(in)
		if returnsErr {
			last := out[len(out)-1]
			out = out[:len(out)-1]
			if !last.IsNil() {
				return nil, last.Interface().(error)
			}
		}
		return shapeResult(out), nil
	}
	return f, nil
}

// MustNew is like New but panics on error. Intended for package-level catalogs.
func MustNew(name string, fn any, params ...Param) *Func {
	f, err := New(name, fn, params...)
	if err != nil {
		panic(err)
	}
	return f
}

// Name returns the declared function name.
func (f *Func) Name() string { return f.name }

// Doc returns the documentation string, if any.
func (f *Func) Doc() string { return f.doc }

// Package returns the import path of the package that defined the function.
func (f *Func) Package() string { return f.pkg }

// WithDoc returns a copy of f carrying doc.
func (f *Func) WithDoc(doc string) *Func {
	c := *f
	c.doc = doc
	return &c
}

// Params returns a copy of the declared parameter list.
func (f *Func) Params() []Param {
	return append([]Param(nil), f.params...)
}

// Param looks up a declared parameter by name.
func (f *Func) Param(name string) (Param, bool) {
	i, ok := f.index[name]
	if !ok {
		return Param{}, false
	}
	return f.params[i], true
}

// Unwrap returns the function f intercepts, or nil.
func (f *Func) Unwrap() *Func { return f.wrapped }

// Call invokes f with positional arguments.
func (f *Func) Call(ctx context.Context, args ...any) (any, error) {
	return f.invoke(ctx, Pos(args...))
}

// CallArgs invokes f with positional and named arguments.
func (f *Func) CallArgs(ctx context.Context, args Args) (any, error) {
	return f.invoke(ctx, args)
}

// Intercept returns a Func with the same name, doc, package and parameters
// as f whose calls are routed through h. Interceptors stack.
func (f *Func) Intercept(h Handler) *Func {
	next := f.invoke
	w := &Func{
		name:    f.name,
		doc:     f.doc,
		pkg:     f.pkg,
		params:  f.params,
		index:   f.index,
		wrapped: f,
	}
	w.invoke = func(ctx context.Context, args Args) (any, error) {
		return h(ctx, args, next)
	}
	return w
}

func (f *Func) String() string {
	names := make([]string, len(f.params))
	for i, p := range f.params {
		names[i] = p.String()
	}
	return fmt.Sprintf("%s(%s)", f.name, strings.Join(names, ", "))
}

func shapeResult(out []reflect.Value) any {
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0].Interface()
	}
	t := make(Tuple, len(out))
	for i, o := range out {
		t[i] = o.Interface()
	}
	return t
}

// packageOf derives the import path of the package defining fn from its
// symbol name.
func packageOf(fn reflect.Value) string {
	rf := runtime.FuncForPC(fn.Pointer())
	if rf == nil {
		return ""
	}
	return packageFromSymbol(rf.Name())
}

// packageFromSymbol cuts a symbol at the first dot after its last slash,
// e.g. "example.com/mod/pkg.(*T).m" -> "example.com/mod/pkg". Dots in the
// last path element are escaped as %2e in symbols.
func packageFromSymbol(sym string) string {
	slash := strings.LastIndex(sym, "/")
	if dot := strings.Index(sym[slash+1:], "."); dot >= 0 {
		sym = sym[:slash+1+dot]
	}
	return strings.ReplaceAll(sym, "%2e", ".")
}
