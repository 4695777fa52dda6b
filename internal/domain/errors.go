package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidInput   = errors.New("invalid input")
	// ErrPrecondition is returned when an operation is well-formed but the
	// current state does not allow it, e.g. deleting the last category.
	ErrPrecondition = errors.New("precondition failed")
)
