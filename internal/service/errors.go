package service

import "errors"

// Service-level error taxonomy. Handlers map these to HTTP statuses; the
// hub emits them as error events. Callers wrap them with context via
// fmt.Errorf("%w: ...") where a message is useful.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidState    = errors.New("invalid state")
	ErrConflict        = errors.New("conflict")
)
