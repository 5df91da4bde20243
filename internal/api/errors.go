package api

import (
	"encoding/json"
	"net/http"

	"github.com/wgfold/wgfold/internal/errors"
	"github.com/wgfold/wgfold/internal/log"
)

// ErrorCode represents standard API error codes.
type ErrorCode string

const (
	// ErrCodeInvalidRequest indicates malformed or invalid request data.
	ErrCodeInvalidRequest ErrorCode = "invalid_request"

	// ErrCodeNotFound indicates the requested interface, peer or file was not found.
	ErrCodeNotFound ErrorCode = "not_found"

	// ErrCodeConflict indicates a resource conflict (e.g., duplicate peer name).
	ErrCodeConflict ErrorCode = "conflict"

	// ErrCodeForbidden indicates the client or the underlying command lacks permission.
	ErrCodeForbidden ErrorCode = "forbidden"

	// ErrCodeToolMissing indicates that wg, wg-quick or systemctl is not installed.
	ErrCodeToolMissing ErrorCode = "tool_missing"

	// ErrCodeRuntimeFailure indicates an external command failed.
	ErrCodeRuntimeFailure ErrorCode = "runtime_failure"

	// ErrCodeInternalError indicates an internal server error.
	ErrCodeInternalError ErrorCode = "internal_error"
)

// APIError represents a structured API error response.
type APIError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ErrorResponse wraps an APIError for JSON responses.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// NewAPIError creates a new APIError with the given code and message.
func NewAPIError(code ErrorCode, message string) APIError {
	return APIError{Code: code, Message: message}
}

// WriteError writes an error response to the HTTP response writer.
func WriteError(w http.ResponseWriter, statusCode int, err APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: err})
}

// WriteInvalidRequest writes a 400 Bad Request error.
func WriteInvalidRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, NewAPIError(ErrCodeInvalidRequest, message))
}

// WriteNotFound writes a 404 Not Found error.
func WriteNotFound(w http.ResponseWriter, resource string) {
	WriteError(w, http.StatusNotFound, NewAPIError(ErrCodeNotFound, resource+" not found"))
}

// WriteForbidden writes a 403 Forbidden error.
func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, NewAPIError(ErrCodeForbidden, message))
}

// WriteInternalError writes a 500 Internal Server Error.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, NewAPIError(ErrCodeInternalError, message))
}

// statusFor maps a domain error code to an HTTP status and API code.
func statusFor(code errors.ErrorCode) (int, ErrorCode) {
	switch code {
	case errors.ErrCodeNotFound:
		return http.StatusNotFound, ErrCodeNotFound
	case errors.ErrCodeValidation:
		return http.StatusBadRequest, ErrCodeInvalidRequest
	case errors.ErrCodeConflict:
		return http.StatusConflict, ErrCodeConflict
	case errors.ErrCodePermission:
		return http.StatusForbidden, ErrCodeForbidden
	case errors.ErrCodeToolMissing:
		return http.StatusInternalServerError, ErrCodeToolMissing
	case errors.ErrCodeRuntime:
		return http.StatusInternalServerError, ErrCodeRuntimeFailure
	default:
		return http.StatusInternalServerError, ErrCodeInternalError
	}
}

// WriteDomainError writes err with the status matching its error code.
func WriteDomainError(w http.ResponseWriter, err error) {
	status, code := statusFor(errors.CodeOf(err))
	if status == http.StatusInternalServerError {
		log.Errorf("[API] %v", err)
	}
	WriteError(w, status, NewAPIError(code, errors.Message(err)))
}
