// Package decorators attaches checks to functions so that one data value
// flowing through a function is validated on every call.
//
// A Builder is registered for every operation in the checks package under
// its CamelCase name. Building it yields a Wrapper whose locator picks the
// value to check:
//
//	nil      the single value returned by the function (default)
//	int i    element i of the Tuple returned by the function
//	"name"   the function argument called name, checked before the call
//
// Usage:
//
//	w, err := decorators.Build("HasNoNans", decorators.Param("columns", []string{"price"}))
//	load, err = w.Wrap(load)
//	df, err := load.Call(ctx, "orders.csv")
//
// Wrapped functions keep the name, doc and parameters of the original and
// return its result unchanged. Errors from the check, the function and
// argument binding are returned as is.
package decorators
