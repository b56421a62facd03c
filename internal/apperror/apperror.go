// Package apperror defines the error taxonomy shared by the ledger services,
// the storage layer and the outer surfaces (CLI and HTTP).
//
// Recoverable conditions (validation, not found, duplicate) are returned as
// *AppError values so callers can re-prompt. Storage failures wrap the driver
// error and are meant to end the session.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrDuplicate    = errors.New("duplicate")
	ErrStorage      = errors.New("storage error")
	ErrUnauthorized = errors.New("unauthorized")
)

type AppError struct {
	Err     error  // sentinel kind
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Cause   error  // Optional: underlying driver or library error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap exposes both the sentinel kind and the underlying cause, so
// errors.Is(err, ErrStorage) and errors.Is(err, sql.ErrConnDone) both work.
func (e *AppError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// DuplicateName reports a name that collides with another live record in
// the same scope. It is a validation failure: the caller re-prompts.
func DuplicateName(field, name string) *AppError {
	return &AppError{
		Err:     errors.Join(ErrValidation, ErrDuplicate),
		Message: fmt.Sprintf("%q is already in use", name),
		Field:   field,
	}
}

// Duplicate reports a soft collision on a record that already exists,
// e.g. a category or a live snapshot at the same tick.
func Duplicate(resource, id string) *AppError {
	return &AppError{
		Err:     ErrDuplicate,
		Message: fmt.Sprintf("%s already exists: %s", resource, id),
	}
}

// Storage wraps an unrecoverable storage failure.
func Storage(op string, cause error) *AppError {
	return &AppError{
		Err:     ErrStorage,
		Message: "storage: " + op,
		Cause:   cause,
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// IsRecoverable reports whether err is a condition the caller can recover
// from by refreshing its view or re-prompting.
func IsRecoverable(err error) bool {
	if errors.Is(err, ErrStorage) {
		return false
	}
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrDuplicate)
}
