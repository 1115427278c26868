// Package apperr defines the error taxonomy shared by the ledger, the
// stores and the HTTP layer. Every failure aborts its operation before
// any state change; nothing here is retried automatically.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden means the caller is authenticated but not permitted.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthorized means the caller's token or credentials are no good.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict means a unique name, code or assignment already exists.
	ErrConflict = errors.New("conflict")
)

// ValidationError rejects a request whose content breaks a domain rule
// (inactive task, quota exceeded, malformed field).
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Validation builds a ValidationError from a format string.
func Validation(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// NotFound wraps ErrNotFound with the entity kind for the message.
func NotFound(what string) error {
	return fmt.Errorf("%s: %w", what, ErrNotFound)
}

// Conflict wraps ErrConflict with the offending key for the message.
func Conflict(what string) error {
	return fmt.Errorf("%s: %w", what, ErrConflict)
}
