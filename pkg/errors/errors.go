// Package errors provides structured error types for gmpaudit.
// Errors carry a stable code, a category, key/value context, an optional
// cause, and remediation suggestions for the user.
package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// Category classifies errors for consistent handling and display.
type Category string

const (
	CategoryConfig     Category = "config"     // Configuration loading/parsing errors
	CategoryValidation Category = "validation" // Bad question ids, fields, statuses
	CategoryStorage    Category = "storage"    // Form persistence errors
	CategoryExport     Category = "export"     // Report generation errors
	CategoryPhoto      Category = "photo"      // Photo validation and processing errors
	CategoryCommand    Category = "command"    // Shell command errors
	CategoryNetwork    Category = "network"    // HTTP server errors
	CategoryIO         Category = "io"         // File/IO errors
	CategoryInternal   Category = "internal"   // Internal/unexpected errors
)

// AuditError is a structured error with context and suggestions.
type AuditError struct {
	// Code is a unique identifier for this error type (e.g., "EXPORT_EMPTY_DOCUMENT")
	Code string

	// Category classifies this error for consistent handling
	Category Category

	// Message is the primary error message describing what went wrong
	Message string

	// Context provides additional key-value details about the error
	Context map[string]string

	// Cause is the underlying error that triggered this error
	Cause error

	// Suggestions are actionable remediation steps for the user
	Suggestions []string
}

func (e *AuditError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain inspection.
func (e *AuditError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an AuditError with the same Code.
// This lets callers compare against the package sentinels with errors.Is.
func (e *AuditError) Is(target error) bool {
	if t, ok := target.(*AuditError); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a new AuditError with the given code, category, and message.
func New(code string, category Category, message string) *AuditError {
	return &AuditError{
		Code:     code,
		Category: category,
		Message:  message,
		Context:  make(map[string]string),
	}
}

// Newf creates a new AuditError with a formatted message.
func Newf(code string, category Category, format string, args ...interface{}) *AuditError {
	return New(code, category, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with an AuditError.
func Wrap(err error, code string, category Category, message string) *AuditError {
	return New(code, category, message).WithCause(err)
}

// WithContext adds a context key-value pair and returns the error for chaining.
func (e *AuditError) WithContext(key, value string) *AuditError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// WithCause sets the underlying error and returns the error for chaining.
func (e *AuditError) WithCause(cause error) *AuditError {
	e.Cause = cause
	return e
}

// WithSuggestions appends remediation suggestions.
func (e *AuditError) WithSuggestions(suggestions ...string) *AuditError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// HasContext returns true if the error has context information.
func (e *AuditError) HasContext() bool {
	return len(e.Context) > 0
}

// HasSuggestions returns true if the error has suggestions.
func (e *AuditError) HasSuggestions() bool {
	return len(e.Suggestions) > 0
}

// ContextString returns the context entries as sorted key="value" pairs.
func (e *AuditError) ContextString() string {
	if len(e.Context) == 0 {
		return ""
	}
	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", k, e.Context[k]))
	}
	return strings.Join(parts, ", ")
}

// AsAuditError finds the first AuditError in err's chain.
func AsAuditError(err error) (*AuditError, bool) {
	if err == nil {
		return nil, false
	}
	var ae *AuditError
	if stderrors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// IsCategory checks if err's chain holds an AuditError with the given category.
func IsCategory(err error, category Category) bool {
	if ae, ok := AsAuditError(err); ok {
		return ae.Category == category
	}
	return false
}

// IsCode checks if err's chain holds an AuditError with the given code.
func IsCode(err error, code string) bool {
	if ae, ok := AsAuditError(err); ok {
		return ae.Code == code
	}
	return false
}

// -----------------------------------------------------------------------------
// Category constructors
// -----------------------------------------------------------------------------
// Each constructor attaches the registered suggestions for its code.

// Config creates a configuration error.
func Config(code, message string) *AuditError {
	return AttachSuggestions(New(code, CategoryConfig, message))
}

// ConfigWrap wraps cause as a configuration error.
func ConfigWrap(cause error, code, message string) *AuditError {
	return AttachSuggestions(Wrap(cause, code, CategoryConfig, message))
}

// Validation creates a validation error.
func Validation(code, message string) *AuditError {
	return AttachSuggestions(New(code, CategoryValidation, message))
}

// Validationf creates a validation error with a formatted message.
func Validationf(code, format string, args ...interface{}) *AuditError {
	return Validation(code, fmt.Sprintf(format, args...))
}

// Storage creates a storage error.
func Storage(code, message string) *AuditError {
	return AttachSuggestions(New(code, CategoryStorage, message))
}

// StorageWrap wraps cause as a storage error.
func StorageWrap(cause error, code, message string) *AuditError {
	return AttachSuggestions(Wrap(cause, code, CategoryStorage, message))
}

// Export creates a report export error.
func Export(code, message string) *AuditError {
	return AttachSuggestions(New(code, CategoryExport, message))
}

// ExportWrap wraps cause as a report export error.
func ExportWrap(cause error, code, message string) *AuditError {
	return AttachSuggestions(Wrap(cause, code, CategoryExport, message))
}

// Photo creates a photo error.
func Photo(code, message string) *AuditError {
	return AttachSuggestions(New(code, CategoryPhoto, message))
}

// Photof creates a photo error with a formatted message.
func Photof(code, format string, args ...interface{}) *AuditError {
	return Photo(code, fmt.Sprintf(format, args...))
}

// PhotoWrap wraps cause as a photo error.
func PhotoWrap(cause error, code, message string) *AuditError {
	return AttachSuggestions(Wrap(cause, code, CategoryPhoto, message))
}

// Command creates a shell command error.
func Command(code, message string) *AuditError {
	return AttachSuggestions(New(code, CategoryCommand, message))
}

// Commandf creates a shell command error with a formatted message.
func Commandf(code, format string, args ...interface{}) *AuditError {
	return Command(code, fmt.Sprintf(format, args...))
}

// IOWrap wraps cause as an IO error.
func IOWrap(cause error, code, message string) *AuditError {
	return AttachSuggestions(Wrap(cause, code, CategoryIO, message))
}

// Internal creates an internal error.
func Internal(code, message string) *AuditError {
	return New(code, CategoryInternal, message)
}
