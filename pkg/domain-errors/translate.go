package domainerrors

import (
	"errors"

	"moniftar/pkg/platform/sentinel"
)

// IsDomain reports whether err already carries a Code.
func IsDomain(err error) bool {
	var de *Error
	return errors.As(err, &de)
}

// FromStore translates a store-layer error at a service boundary: coded
// errors pass through, sentinel.ErrNotFound becomes CodeNotFound with
// notFound as message, anything else is an internal failure described by op.
func FromStore(err error, notFound, op string) error {
	switch {
	case err == nil:
		return nil
	case IsDomain(err):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return New(CodeNotFound, notFound)
	default:
		return Wrap(err, CodeInternal, op)
	}
}
