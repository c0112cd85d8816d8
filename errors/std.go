package errors

import ge "errors"

func Is(err, target error) bool {
	return ge.Is(err, target)
}

func As(err error, target any) bool {
	return ge.As(err, target)
}

// Unwrap returns the result of calling the Unwrap method on err, if err's
// type contains an Unwrap method returning error.
// Otherwise, Unwrap returns nil.
func Unwrap(err error) error {
	return ge.Unwrap(err)
}

func Join(errs ...error) error {
	return ge.Join(errs...)
}
