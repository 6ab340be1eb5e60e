package callable

// HasArgument reports whether name is a declared parameter of f.
func HasArgument(name string, f *Func) bool {
	_, ok := f.index[name]
	return ok
}

// ArgumentDefault returns the declared default of name, or Empty when the
// parameter is required or not declared.
func ArgumentDefault(f *Func, name string) any {
	p, ok := f.Param(name)
	if !ok {
		return Empty
	}
	return p.Default()
}

// ArgumentValue binds args against f and returns the value name resolves
// to, defaults applied. Callers validate name with HasArgument first.
func ArgumentValue(f *Func, name string, args Args) (any, error) {
	b, err := f.Bind(args)
	if err != nil {
		return nil, err
	}
	v, _ := b.Get(name)
	return v, nil
}
