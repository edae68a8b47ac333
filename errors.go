package termsixel

import "errors"

// Errors returned by the encoder. They are wrapped with context as they
// propagate, so compare with errors.Is.
var (
	ErrBadArgument        = errors.New("bad argument detected")
	ErrBadInput           = errors.New("bad input detected")
	ErrBadIntegerOverflow = errors.New("integer overflow")
	ErrNotImplemented     = errors.New("feature not implemented")
)
