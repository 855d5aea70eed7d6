// Package errors provides the structured error type shared by the riyu packages.
//
// ContextualError records which component failed, in which operation, and
// optionally an HTTP status and details. It unwraps to its cause so the
// per-package sentinels (audio.ErrPermissionDenied, gemini.ErrRemoteUnavailable, ...)
// stay matchable with errors.Is.
//
// Usage:
//
//	err := errors.New("live", "Start", audio.ErrPermissionDenied)
//	err = err.WithStatusCode(403).WithDetails(map[string]any{"mode": "camera"})
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ContextualError is a structured error carrying where and why a failure occurred.
type ContextualError struct {
	// Component identifies the package that produced the error (e.g. "live", "tools", "api").
	Component string

	// Operation describes what was being done when the error occurred.
	Operation string

	// StatusCode is an optional HTTP status code.
	StatusCode int

	// Details holds optional structured metadata about the error.
	Details map[string]any

	// Cause is the underlying error, if any.
	Cause error
}

// New creates a ContextualError with the given component, operation, and cause.
func New(component, operation string, cause error) *ContextualError {
	return &ContextualError{
		Component: component,
		Operation: operation,
		Cause:     cause,
	}
}

// Wrap is New that passes a nil cause through as a nil error.
func Wrap(component, operation string, cause error) error {
	if cause == nil {
		return nil
	}
	return New(component, operation, cause)
}

// Error returns a human-readable representation of the error.
func (e *ContextualError) Error() string {
	base := fmt.Sprintf("[%s] %s", e.Component, e.Operation)

	if e.StatusCode != 0 {
		base += fmt.Sprintf(" (status %d)", e.StatusCode)
	}

	if e.Cause != nil {
		base += ": " + e.Cause.Error()
	}

	return base
}

// Unwrap returns the underlying cause, enabling use with errors.Is and errors.As.
func (e *ContextualError) Unwrap() error {
	return e.Cause
}

// WithStatusCode sets the status code and returns the receiver for chaining.
func (e *ContextualError) WithStatusCode(code int) *ContextualError {
	e.StatusCode = code
	return e
}

// WithDetails sets the details map and returns the receiver for chaining.
func (e *ContextualError) WithDetails(details map[string]any) *ContextualError {
	e.Details = details
	return e
}

// StatusCode returns the status of the outermost ContextualError in err's chain
// that carries one, or http.StatusInternalServerError.
func StatusCode(err error) int {
	for err != nil {
		var ce *ContextualError
		if !stderrors.As(err, &ce) {
			break
		}
		if ce.StatusCode != 0 {
			return ce.StatusCode
		}
		err = ce.Cause
	}
	return http.StatusInternalServerError
}
