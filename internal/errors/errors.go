package errors

import (
	"fmt"
)

// RelayError is the structured error type for relayctx. It carries an error
// code, category, and severity for handling, logging, and presentation.
type RelayError struct {
	// Code is the unique error code (e.g., "ERR_102_CONFIG_INVALID").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Retrieval, ...).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *RelayError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *RelayError) Unwrap() error {
	return e.Cause
}

// Is matches by code, enabling errors.Is against sentinel RelayErrors.
func (e *RelayError) Is(target error) bool {
	if t, ok := target.(*RelayError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail. Returns the error for chaining.
func (e *RelayError) WithDetail(key, value string) *RelayError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a RelayError with the given code and message. Category and
// severity are derived from the code.
func New(code string, message string, cause error) *RelayError {
	return &RelayError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates a RelayError from an existing error, reusing its message.
func Wrap(code string, err error) *RelayError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration error.
func ConfigError(message string, cause error) *RelayError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// IOError creates an I/O error.
func IOError(message string, cause error) *RelayError {
	return New(ErrCodeFileNotFound, message, cause)
}

// RetrievalError creates a retriever backend error.
func RetrievalError(message string, cause error) *RelayError {
	return New(ErrCodeRetrievalFailed, message, cause)
}

// ValidationError creates an input validation error.
func ValidationError(message string, cause error) *RelayError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *RelayError {
	return New(ErrCodeInternal, message, cause)
}

// IsConfig reports whether err is a configuration-category RelayError.
func IsConfig(err error) bool {
	if re, ok := err.(*RelayError); ok {
		return re.Category == CategoryConfig
	}
	return false
}

// GetCode extracts the error code, or "" if err is not a RelayError.
func GetCode(err error) string {
	if re, ok := err.(*RelayError); ok {
		return re.Code
	}
	return ""
}
