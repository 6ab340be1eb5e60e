// Package callable describes Go functions by a declared parameter list so
// they can be called with positional and named arguments, bound against
// their defaults, and intercepted without changing their identity.
//
// Go does not keep parameter names at runtime, so every function is
// declared once with the names (and optional defaults) of its parameters:
//
//	clean, err := callable.New("clean", cleanFn,
//	    callable.Required("df"),
//	    callable.Optional("threshold", 0.5),
//	)
//	out, err := clean.CallArgs(ctx, callable.Pos(df).With("threshold", 0.9))
//
// A leading context.Context parameter is injected from the call and is not
// declared. A trailing error result is returned as the call error; two or
// more remaining results come back as a Tuple.
package callable
