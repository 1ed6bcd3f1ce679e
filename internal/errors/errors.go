package errors

import (
	"fmt"
)

// TSBError is the structured error type for TSBridge.
// It provides rich context for error handling, logging, and user presentation.
type TSBError struct {
	// Code is the unique error code (e.g., "ERR_402_TYPE_PARSE_FAILED").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Data, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Recoverable indicates the caller can convert this into a
	// structured failure response instead of aborting.
	Recoverable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *TSBError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *TSBError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with TSBError.
func (e *TSBError) Is(target error) bool {
	if t, ok := target.(*TSBError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *TSBError) WithDetail(key, value string) *TSBError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *TSBError) WithSuggestion(suggestion string) *TSBError {
	e.Suggestion = suggestion
	return e
}

// New creates a new TSBError with the given code and message.
// Category, severity, and the recoverable flag are derived from the code.
func New(code string, message string, cause error) *TSBError {
	return &TSBError{
		Code:        code,
		Message:     message,
		Category:    categoryFromCode(code),
		Severity:    severityFromCode(code),
		Cause:       cause,
		Recoverable: isRecoverableCode(code),
	}
}

// Wrap creates a TSBError from an existing error.
// The error's message becomes the TSBError message.
func Wrap(code string, err error) *TSBError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *TSBError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// DataError creates a knowledge-base data error.
func DataError(message string, cause error) *TSBError {
	return New(ErrCodeDataCorrupt, message, cause)
}

// SubprocessError creates an interpreter subprocess error.
func SubprocessError(message string, cause error) *TSBError {
	return New(ErrCodeSubprocessFailed, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *TSBError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *TSBError {
	return New(ErrCodeInternal, message, cause)
}

// IsRecoverable checks if an error is recoverable.
// Returns true if the error is a TSBError with the Recoverable flag set.
func IsRecoverable(err error) bool {
	if err == nil {
		return false
	}
	if te, ok := err.(*TSBError); ok {
		return te.Recoverable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
// Fatal errors should abort the current operation.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if te, ok := err.(*TSBError); ok {
		return te.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a TSBError.
// Returns empty string if not a TSBError.
func GetCode(err error) string {
	if te, ok := err.(*TSBError); ok {
		return te.Code
	}
	return ""
}

// GetCategory extracts the category from a TSBError.
// Returns empty string if not a TSBError.
func GetCategory(err error) Category {
	if te, ok := err.(*TSBError); ok {
		return te.Category
	}
	return ""
}
