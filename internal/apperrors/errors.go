// Package apperrors defines the error taxonomy shared by services,
// middleware and HTTP handlers.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated covers missing, malformed, invalid or expired credentials.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInactiveAccount is returned when a valid credential maps to a disabled account.
	ErrInactiveAccount = errors.New("inactive account")
	// ErrRateLimited is returned when a client exceeds its request budget.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrConflict is returned on duplicate username or email.
	ErrConflict = errors.New("resource conflict")
	// ErrNotFound is returned when a requested resource does not exist.
	ErrNotFound = errors.New("resource not found")
	// ErrUpstream is returned when a backing service (database, cache, OAuth provider) fails.
	ErrUpstream = errors.New("upstream error")
)

// ValidationError reports a malformed or semantically invalid request.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidation builds a ValidationError with a formatted message.
func NewValidation(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
