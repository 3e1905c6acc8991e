package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("admin required")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrSweetNotFound      = errors.New("not found")
	ErrInsufficientStock  = errors.New("not enough stock")
	ErrDuplicateRequest   = errors.New("a request with this idempotency key is already in progress")
)

// Invalid wraps ErrValidation with a message describing the offending input.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
