package errors

import (
	"fmt"
	"strings"
)

// KeelError defines the base interface for all keel framework errors
type KeelError interface {
	error
	ErrorCode() ErrorCode
	Component() Component
	Context() map[string]interface{}
	Suggestions() []string
	Unwrap() error
}

// ErrorCode represents the type of error that occurred
type ErrorCode int

const (
	UnknownErrorCode ErrorCode = iota
	ConfigurationErrorCode
	ModuleErrorCode
	CyclicDependencyErrorCode
	ProviderErrorCode
	DependencyErrorCode
	HookErrorCode
	RouteErrorCode
	CommandErrorCode
	TemplateErrorCode
	FileSystemErrorCode
	GenerationErrorCode
)

// String returns the string representation of the error code
func (e ErrorCode) String() string {
	switch e {
	case ConfigurationErrorCode:
		return "ConfigurationError"
	case ModuleErrorCode:
		return "ModuleError"
	case CyclicDependencyErrorCode:
		return "CyclicDependencyError"
	case ProviderErrorCode:
		return "ProviderError"
	case DependencyErrorCode:
		return "DependencyError"
	case HookErrorCode:
		return "HookError"
	case RouteErrorCode:
		return "RouteError"
	case CommandErrorCode:
		return "CommandError"
	case TemplateErrorCode:
		return "TemplateError"
	case FileSystemErrorCode:
		return "FileSystemError"
	case GenerationErrorCode:
		return "GenerationError"
	default:
		return "UnknownError"
	}
}

// Component identifies where in the module graph an error occurred
type Component struct {
	Module string // module name
	Kind   string // provider, controller, router, command, hook...
	Name   string // component name within the module
}

// String returns a formatted representation of the component
func (c Component) String() string {
	var parts []string
	if c.Module != "" {
		parts = append(parts, "module "+c.Module)
	}
	if c.Kind != "" {
		if c.Name != "" {
			parts = append(parts, fmt.Sprintf("%s %s", c.Kind, c.Name))
		} else {
			parts = append(parts, c.Kind)
		}
	}
	return strings.Join(parts, ", ")
}

// IsEmpty returns true if the component has no useful information
func (c Component) IsEmpty() bool {
	return c.Module == "" && c.Kind == ""
}

// BaseError provides a common implementation of the KeelError interface
type BaseError struct {
	Code        ErrorCode              // type of error
	Message     string                 // error message
	Comp        Component              // where the error occurred
	Cause       error                  // underlying error cause
	ContextData map[string]interface{} // additional context information
	Hints       []string               // helpful suggestions for fixing the error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	msg := e.Message
	if !e.Comp.IsEmpty() {
		msg = fmt.Sprintf("%s: %s", e.Comp.String(), msg)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// ErrorCode returns the error code
func (e *BaseError) ErrorCode() ErrorCode {
	return e.Code
}

// Component returns the component where the error occurred
func (e *BaseError) Component() Component {
	return e.Comp
}

// Context returns the error context data
func (e *BaseError) Context() map[string]interface{} {
	if e.ContextData == nil {
		return make(map[string]interface{})
	}
	return e.ContextData
}

// Suggestions returns helpful suggestions for fixing the error
func (e *BaseError) Suggestions() []string {
	return e.Hints
}

// Unwrap returns the underlying error cause for error chain inspection
func (e *BaseError) Unwrap() error {
	return e.Cause
}

// WithComponent adds component information to the error
func (e *BaseError) WithComponent(comp Component) *BaseError {
	e.Comp = comp
	return e
}

// InModule sets the module name of the component
func (e *BaseError) InModule(module string) *BaseError {
	e.Comp.Module = module
	return e
}

// WithCause adds an underlying error cause
func (e *BaseError) WithCause(cause error) *BaseError {
	e.Cause = cause
	return e
}

// WithContext adds context data to the error
func (e *BaseError) WithContext(key string, value interface{}) *BaseError {
	if e.ContextData == nil {
		e.ContextData = make(map[string]interface{})
	}
	e.ContextData[key] = value
	return e
}

// WithSuggestion adds a helpful suggestion for fixing the error
func (e *BaseError) WithSuggestion(suggestion string) *BaseError {
	e.Hints = append(e.Hints, suggestion)
	return e
}

// WithSuggestions adds multiple helpful suggestions
func (e *BaseError) WithSuggestions(suggestions ...string) *BaseError {
	e.Hints = append(e.Hints, suggestions...)
	return e
}

// New creates a new BaseError with the specified code and message
func New(code ErrorCode, message string) *BaseError {
	return &BaseError{
		Code:    code,
		Message: message,
		Hints:   make([]string, 0),
	}
}

// Newf creates a new BaseError with formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *BaseError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap creates a new error that wraps another error
func Wrap(code ErrorCode, message string, cause error) *BaseError {
	return &BaseError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Hints:   make([]string, 0),
	}
}

// Wrapf creates a new error that wraps another error with formatted message
func Wrapf(code ErrorCode, cause error, format string, args ...interface{}) *BaseError {
	return Wrap(code, fmt.Sprintf(format, args...), cause)
}

// MultipleErrors represents multiple errors collected together
type MultipleErrors struct {
	Errors []KeelError
}

// Error implements the error interface
func (e *MultipleErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}

	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var messages []string
	for i, err := range e.Errors {
		messages = append(messages, fmt.Sprintf("  %d. %s", i+1, err.Error()))
	}

	return fmt.Sprintf("multiple errors (%d total):\n%s", len(e.Errors), strings.Join(messages, "\n"))
}

// ErrorCode returns the error code (uses the first error's code)
func (e *MultipleErrors) ErrorCode() ErrorCode {
	if len(e.Errors) == 0 {
		return UnknownErrorCode
	}
	return e.Errors[0].ErrorCode()
}

// Unwrap returns all collected errors so errors.Is and errors.As see each of them
func (e *MultipleErrors) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		errs[i] = err
	}
	return errs
}

// Add adds an error to the collection
func (e *MultipleErrors) Add(err KeelError) {
	e.Errors = append(e.Errors, err)
}

// IsEmpty returns true if there are no errors
func (e *MultipleErrors) IsEmpty() bool {
	return len(e.Errors) == 0
}

// Count returns the number of errors
func (e *MultipleErrors) Count() int {
	return len(e.Errors)
}

// HasCode returns true if any error of the specified type exists
func (e *MultipleErrors) HasCode(code ErrorCode) bool {
	for _, err := range e.Errors {
		if err.ErrorCode() == code {
			return true
		}
	}
	return false
}

// ErrOrNil returns nil when the collection is empty
func (e *MultipleErrors) ErrOrNil() error {
	if e.IsEmpty() {
		return nil
	}
	return e
}

// NewMultipleErrors creates a new MultipleErrors collection
func NewMultipleErrors() *MultipleErrors {
	return &MultipleErrors{
		Errors: make([]KeelError, 0),
	}
}

// CodeOf returns the error code of the first KeelError in err's chain
func CodeOf(err error) ErrorCode {
	for err != nil {
		if ke, ok := err.(KeelError); ok {
			return ke.ErrorCode()
		}
		if multi, ok := err.(*MultipleErrors); ok {
			return multi.ErrorCode()
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return UnknownErrorCode
		}
		err = u.Unwrap()
	}
	return UnknownErrorCode
}
