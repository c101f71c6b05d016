// Package apperror defines the error kinds the service layer reports. Every
// kind is a sentinel checked with errors.Is; handlers map kinds to HTTP status.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotReady marks a precondition the caller can fix, such as missing
	// visit history or coordinates. It is raised before any remote call.
	ErrNotReady = errors.New("not ready")

	// ErrUpstream marks a failure of the external place-search provider.
	ErrUpstream = errors.New("upstream error")
)

type AppError struct {
	Err       error  // kind sentinel
	Message   string // human-readable message
	Field     string // optional: field causing the error
	Retryable bool   // the same call may succeed later
	cause     error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap exposes both the kind and the underlying cause to errors.Is/As.
func (e *AppError) Unwrap() []error {
	if e.cause != nil {
		return []error{e.Err, e.cause}
	}
	return []error{e.Err}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// NotReady reports an unmet precondition, e.g. a user with no rated visits.
func NotReady(field, message string) *AppError {
	return &AppError{
		Err:     ErrNotReady,
		Message: message,
		Field:   field,
	}
}

// Upstream wraps a provider failure. retryable distinguishes transient
// failures (timeouts, 5xx, open circuit) from permanent ones.
func Upstream(message string, cause error, retryable bool) *AppError {
	return &AppError{
		Err:       ErrUpstream,
		Message:   message,
		Retryable: retryable,
		cause:     cause,
	}
}

// IsRetryable reports whether err carries a retryable AppError.
func IsRetryable(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Retryable
}
