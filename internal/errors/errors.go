package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents an ldspec error code.
type ErrorCode string

const (
	ErrInvalidRequest  ErrorCode = "INVALID_REQUEST"  // 400
	ErrUnknownKey      ErrorCode = "UNKNOWN_KEY"      // 404
	ErrNotFound        ErrorCode = "NOT_FOUND"        // 404
	ErrUpstreamFailure ErrorCode = "UPSTREAM_FAILURE" // 502
	ErrInternal        ErrorCode = "INTERNAL"         // 500
)

// LDError represents a structured error with code, status, and details.
type LDError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any

	// cause is the wrapped upstream error, if any.
	cause error
}

// Error implements the error interface.
func (e *LDError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *LDError) Unwrap() error {
	return e.cause
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *LDError {
	return &LDError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewUnknownKey creates a 404 error for an unknown family, spec or namespace key.
// available lists the keys the caller may retry with.
func NewUnknownKey(kind, key string, available []string) *LDError {
	return &LDError{
		Code:    ErrUnknownKey,
		Status:  404,
		Message: fmt.Sprintf("unknown %s %q", kind, key),
		Details: map[string]any{"kind": kind, "key": key, "available": available},
	}
}

// NewNotFound creates a 404 error for a missing TOC, section or resource.
// available is a sample of valid identifiers within the same document or namespace.
func NewNotFound(msg string, available []string) *LDError {
	details := map[string]any{}
	if available != nil {
		details["available"] = available
	}
	return &LDError{
		Code:    ErrNotFound,
		Status:  404,
		Message: msg,
		Details: details,
	}
}

// NewUpstreamFailure creates a 502 error for fetch or parse failures.
// The cause message is surfaced verbatim.
func NewUpstreamFailure(what string, err error) *LDError {
	msg := what
	if err != nil {
		msg = fmt.Sprintf("%s: %v", what, err)
	}
	return &LDError{
		Code:    ErrUpstreamFailure,
		Status:  502,
		Message: msg,
		cause:   err,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *LDError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &LDError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		cause:   err,
	}
}

// Is checks if an error is (or wraps) an LDError with the given code.
func Is(err error, code ErrorCode) bool {
	var ldErr *LDError
	if stderrors.As(err, &ldErr) {
		return ldErr.Code == code
	}
	return false
}

// As is a convenience wrapper over errors.As for *LDError.
func As(err error) (*LDError, bool) {
	var ldErr *LDError
	ok := stderrors.As(err, &ldErr)
	return ldErr, ok
}
