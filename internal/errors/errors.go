// Package errors provides domain-specific error types for wgfold.
//
// Every failure that crosses a package boundary towards the API or the CLI
// is an *Error carrying one of the codes below, so callers can map it to a
// status code or exit message without inspecting strings.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a category of error that can occur in the application.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a missing interface, peer or config file.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeValidation indicates malformed input (address, port, name, endpoint, subnet expression).
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"

	// ErrCodeConflict indicates that a peer or interface already exists.
	ErrCodeConflict ErrorCode = "CONFLICT"

	// ErrCodeToolMissing indicates that a required external binary is absent.
	ErrCodeToolMissing ErrorCode = "TOOL_MISSING"

	// ErrCodePermission indicates that the underlying operation reported insufficient privilege.
	ErrCodePermission ErrorCode = "PERMISSION_DENIED"

	// ErrCodeRuntime indicates that an external command failed for an unclassified reason.
	ErrCodeRuntime ErrorCode = "RUNTIME_FAILURE"

	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Error represents a domain-specific error with an error code and optional cause.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error for errors.Is and errors.As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a new domain error with the specified code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a new domain error wrapping an existing error.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Sentinels for errors.Is checks; only the code is compared.
var (
	ErrNotFound   = New(ErrCodeNotFound, "not found")
	ErrValidation = New(ErrCodeValidation, "validation failed")
	ErrConflict   = New(ErrCodeConflict, "conflict")
)

// CodeOf returns the code of the first *Error in err's chain, or
// ErrCodeInternal when there is none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}

// Message returns the human-readable message of the first *Error in err's
// chain, falling back to err.Error().
func Message(err error) string {
	var e *Error
	if stderrors.As(err, &e) {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Cause)
		}
		return e.Message
	}
	return err.Error()
}

// NotFoundf creates a not-found error.
func NotFoundf(format string, args ...interface{}) *Error {
	return New(ErrCodeNotFound, fmt.Sprintf(format, args...))
}

// Validationf creates a validation error.
func Validationf(format string, args ...interface{}) *Error {
	return New(ErrCodeValidation, fmt.Sprintf(format, args...))
}

// Conflictf creates a conflict error.
func Conflictf(format string, args ...interface{}) *Error {
	return New(ErrCodeConflict, fmt.Sprintf(format, args...))
}

// NewValidationError creates a validation error wrapping a cause.
func NewValidationError(message string, cause error) *Error {
	return Wrap(ErrCodeValidation, message, cause)
}

// NewToolMissingError creates an error for an absent external binary.
func NewToolMissingError(command string, cause error) *Error {
	return Wrap(ErrCodeToolMissing,
		fmt.Sprintf("command '%s' not found, ensure wireguard-tools is installed", command), cause)
}

// NewPermissionError creates a permission-denied error for an operation.
func NewPermissionError(operation string, cause error) *Error {
	return Wrap(ErrCodePermission, fmt.Sprintf("permission denied: %s", operation), cause)
}

// NewRuntimeError creates an error for an unclassified external command failure.
func NewRuntimeError(message string, cause error) *Error {
	return Wrap(ErrCodeRuntime, message, cause)
}

// NewInternalError creates a new internal error.
func NewInternalError(message string, cause error) *Error {
	return Wrap(ErrCodeInternal, message, cause)
}
