package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different categories of processing errors
type ErrorType string

const (
	ErrorTypeInvalidImage       ErrorType = "invalid_image"
	ErrorTypeValidation         ErrorType = "validation"
	ErrorTypeAllStylesFailed    ErrorType = "all_styles_failed"
	ErrorTypeRemoteUnauthorized ErrorType = "remote_unauthorized"
	ErrorTypeRemoteTimeout      ErrorType = "remote_timeout"
	ErrorTypeRemoteUnavailable  ErrorType = "remote_unavailable"
	ErrorTypeMalformedResponse  ErrorType = "malformed_response"
	ErrorTypeCancelled          ErrorType = "cancelled"
	ErrorTypeCache              ErrorType = "cache"
	ErrorTypeInternal           ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"status_code"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewInvalidImageError creates an error for malformed or unreadable input.
// Requests with invalid images fail fast, before planning.
func NewInvalidImageError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidImage,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}
}

// NewValidationError creates a new request validation error
func NewValidationError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}
}

// NewAllStylesFailedError signals that every requested style failed in the
// chosen engine
func NewAllStylesFailedError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeAllStylesFailed,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
		Cause:      cause,
	}
}

// NewRemoteUnauthorizedError creates an error for rejected remote credentials
func NewRemoteUnauthorizedError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeRemoteUnauthorized,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
		Cause:      cause,
	}
}

// NewRemoteTimeoutError creates an error for an expired remote call deadline
func NewRemoteTimeoutError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeRemoteTimeout,
		Message:    message,
		StatusCode: http.StatusGatewayTimeout,
		Cause:      cause,
	}
}

// NewRemoteUnavailableError creates an error for transport failures and
// remote server errors
func NewRemoteUnavailableError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeRemoteUnavailable,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// NewMalformedResponseError creates an error for undecodable remote payloads
func NewMalformedResponseError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeMalformedResponse,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// NewCancelledError creates an error for caller-initiated cancellation.
// Cancellation is distinct from failure.
func NewCancelledError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeCancelled,
		Message:    message,
		StatusCode: 499, // client closed request
		Cause:      cause,
	}
}

// NewCacheError creates an error for cache operations. Cache errors are
// logged and treated as misses, never surfaced to the caller.
func NewCacheError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeCache,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// IsType checks if the error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// IsRemoteError reports whether the error is one of the whole-call remote
// failure modes that may trigger a fallback attempt
func IsRemoteError(err error) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	switch appErr.Type {
	case ErrorTypeRemoteUnauthorized, ErrorTypeRemoteTimeout,
		ErrorTypeRemoteUnavailable, ErrorTypeMalformedResponse:
		return true
	}
	return false
}

// GetStatusCode extracts the HTTP status code from an error
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
