package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors. These form the taxonomy that crosses the API boundary.
	ErrValidation     = errors.New("validation error")
	ErrConflict       = errors.New("already exists")
	ErrorUnauthorized = errors.New("invalid credentials")
	ErrorInternal     = errors.New("internal error")

	// Token errors. ErrTokenExpired also matches ErrInvalidToken.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = &tokenExpiredError{}
)

type tokenExpiredError struct{}

func (*tokenExpiredError) Error() string { return "token expired" }

func (*tokenExpiredError) Is(target error) bool { return target == ErrInvalidToken }

// ValidationError describes malformed or missing input. The message is safe
// to show to the caller; it never contains the submitted values.
type ValidationError struct {
	Message string
}

// NewValidationError returns a *ValidationError with the given message.
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

func (e *ValidationError) Error() string { return e.Message }

// Unwrap lets callers match any ValidationError with errors.Is(err, ErrValidation).
func (e *ValidationError) Unwrap() error { return ErrValidation }
