package keel

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors returned (wrapped) by module assembly and the application runtime.
var (
	ErrImproperConfiguration = errors.New("improper configuration")
	ErrCyclicModule          = errors.New("cyclic module dependency")
	ErrDependency            = errors.New("dependency resolution failed")
	ErrHook                  = errors.New("lifecycle hook failed")
	ErrNoApplicationContext  = errors.New("no application context")
	ErrAlreadyStarted        = errors.New("application already started")
	ErrNotStarted            = errors.New("application not started")
	ErrCommandNotFound       = errors.New("command not found")
	ErrTemplateNotFound      = errors.New("template not found")
	ErrRouteNotFound         = errors.New("route not found")
	ErrInvalidRouteSpec      = errors.New("invalid route declaration")
)

// HttpError represents an HTTP error with a specific status code and message
type HttpError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
	Internal   error  `json:"-"`
}

// Error implements the error interface
func (e *HttpError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("HTTP %d: %s: %v", e.StatusCode, e.Message, e.Internal)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// Unwrap returns the internal error, if any
func (e *HttpError) Unwrap() error {
	return e.Internal
}

// WithInternal attaches the underlying cause
func (e *HttpError) WithInternal(err error) *HttpError {
	e.Internal = err
	return e
}

// NewHttpError creates a new HttpError with the given status code and message.
// An empty message falls back to the standard status text.
func NewHttpError(statusCode int, message string) *HttpError {
	if message == "" {
		message = http.StatusText(statusCode)
	}
	return &HttpError{
		StatusCode: statusCode,
		Message:    message,
	}
}

// NewHttpErrorWithDetails creates a new HttpError with additional details
func NewHttpErrorWithDetails(statusCode int, message string, details any) *HttpError {
	err := NewHttpError(statusCode, message)
	err.Details = details
	return err
}

// StatusCodeOf returns the HTTP status carried by err, or 500.
func StatusCodeOf(err error) int {
	var httpErr *HttpError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return http.StatusInternalServerError
}

// Common HTTP error constructors for convenience

// ErrBadRequest creates a 400 Bad Request error
func ErrBadRequest(message string) *HttpError {
	return NewHttpError(http.StatusBadRequest, message)
}

// ErrUnauthorized creates a 401 Unauthorized error
func ErrUnauthorized(message string) *HttpError {
	return NewHttpError(http.StatusUnauthorized, message)
}

// ErrForbidden creates a 403 Forbidden error
func ErrForbidden(message string) *HttpError {
	return NewHttpError(http.StatusForbidden, message)
}

// ErrNotFound creates a 404 Not Found error
func ErrNotFound(message string) *HttpError {
	return NewHttpError(http.StatusNotFound, message)
}

// ErrConflict creates a 409 Conflict error
func ErrConflict(message string) *HttpError {
	return NewHttpError(http.StatusConflict, message)
}

// ErrUnprocessableEntity creates a 422 Unprocessable Entity error with validation details
func ErrUnprocessableEntity(message string, details any) *HttpError {
	return NewHttpErrorWithDetails(http.StatusUnprocessableEntity, message, details)
}

// ErrInternalServerError creates a 500 Internal Server Error
func ErrInternalServerError(message string) *HttpError {
	return NewHttpError(http.StatusInternalServerError, message)
}
