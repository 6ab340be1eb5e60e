package decorators

import "errors"

var (
	// ErrLocatorType is returned at construction for a locator that is
	// not nil, an integer or a string.
	ErrLocatorType = errors.New("invalid locator type")

	// ErrUnknownArgument is returned at wrap time when a string locator
	// does not name a parameter of the wrapped function.
	ErrUnknownArgument = errors.New("unknown argument")

	// ErrNotTuple is returned at call time when an integer locator meets
	// a function that did not return a Tuple.
	ErrNotTuple = errors.New("result is not a tuple")

	// ErrIndexOutOfRange is returned at call time when an integer locator
	// is outside the returned Tuple.
	ErrIndexOutOfRange = errors.New("tuple index out of range")

	// ErrConfig is returned at construction for configuration values that
	// do not fit the check's parameters.
	ErrConfig = errors.New("invalid check configuration")

	// ErrUnknownCheck is returned by Build for an unregistered name.
	ErrUnknownCheck = errors.New("unknown check")

	// ErrDuplicateName is returned when two checks derive the same name.
	ErrDuplicateName = errors.New("duplicate check name")
)
