package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies application errors
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeExternal   ErrorType = "external"
	ErrorTypeInternal   ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	Retryable  bool                   `json:"retryable"`
	StatusCode int                    `json:"status_code"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// Error constructors

// NewInvalidArgumentError reports malformed or missing required input.
// Never retried, surfaced immediately before any cache mutation.
func NewInvalidArgumentError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       "INVALID_ARGUMENT",
		Message:    message,
		Retryable:  false,
		StatusCode: 400,
	}
}

func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       "RESOURCE_NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		Retryable:  false,
		StatusCode: 404,
	}
}

// NewProviderError reports a failed interaction with an upstream lookup provider.
func NewProviderError(provider, message string) *AppError {
	return &AppError{
		Type:       ErrorTypeExternal,
		Code:       "PROVIDER_COMMUNICATION_FAILURE",
		Message:    fmt.Sprintf("%s: %s", provider, message),
		Retryable:  true,
		StatusCode: 502,
		Details:    map[string]interface{}{"provider": provider},
	}
}

// NewCacheError reports a failed cache backend operation. State after a cache
// error is unknown; callers must not assume completion.
func NewCacheError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "CACHE_BACKEND_FAILURE",
		Message:    message,
		Retryable:  true,
		StatusCode: 500,
	}
}

// NewResponseWriteError reports a failure to write the webhook HTTP response.
// Takes precedence over the error it was triggered by, since an unacknowledged
// webhook may be redelivered by the provider.
func NewResponseWriteError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "RESPONSE_WRITE_FAILURE",
		Message:    message,
		Retryable:  false,
		StatusCode: 500,
	}
}

func NewInternalError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		Retryable:  true,
		StatusCode: 500,
	}
}

// Wrap wraps an error with a message using fmt.Errorf with %w
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsType checks if an error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// GetStatusCode extracts HTTP status code from error
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return 500
}
