// Package errors provides structured error types for spectrafit.
// Errors carry a stable code, a category, key-value context and remediation hints.
package errors

import (
	"fmt"
	"sort"
	"strings"
)

// Category classifies errors for consistent handling and display.
type Category string

const (
	CategoryConfig   Category = "config"   // Missing or malformed run inputs (dataset, model, labels)
	CategoryData     Category = "data"     // Dataset failed structural or unit validation
	CategoryModel    Category = "model"    // Model or prior evaluation failures
	CategorySampler  Category = "sampler"  // Sampler lifecycle misuse
	CategoryIO       Category = "io"       // File read/write errors
	CategoryInternal Category = "internal" // Invariant violations
)

// FitError is a structured error with context and suggestions.
// It implements the error interface and supports error wrapping.
type FitError struct {
	// Code is a unique identifier for this error type (e.g., "CONFIG_MISSING_MODEL")
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

// Error implements the error interface.
func (e *FitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause so errors.Is and errors.As see through it.
func (e *FitError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a FitError with the same Code.
func (e *FitError) Is(target error) bool {
	if t, ok := target.(*FitError); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a new FitError with the given code, category, and message.
func New(code string, category Category, message string) *FitError {
	return &FitError{
		Code:     code,
		Category: category,
		Message:  message,
		Context:  make(map[string]string),
	}
}

// WithContext adds a context key-value pair and returns the error for chaining.
func (e *FitError) WithContext(key, value string) *FitError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// WithCause wraps an underlying error and returns the error for chaining.
func (e *FitError) WithCause(cause error) *FitError {
	e.Cause = cause
	return e
}

// WithSuggestion adds a remediation suggestion and returns the error for chaining.
func (e *FitError) WithSuggestion(suggestion string) *FitError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// HasContext returns true if the error has context information.
func (e *FitError) HasContext() bool {
	return len(e.Context) > 0
}

// HasSuggestions returns true if the error has suggestions.
func (e *FitError) HasSuggestions() bool {
	return len(e.Suggestions) > 0
}

// ContextString returns the context entries as sorted key="value" pairs.
func (e *FitError) ContextString() string {
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

// Wrap wraps an existing error with a FitError.
func Wrap(err error, code string, category Category, message string) *FitError {
	return New(code, category, message).WithCause(err)
}

// AsFitError attempts to convert an error to a FitError.
// Only the top-level error is inspected; use errors.As for chains.
func AsFitError(err error) (*FitError, bool) {
	if err == nil {
		return nil, false
	}
	if fe, ok := err.(*FitError); ok {
		return fe, true
	}
	return nil, false
}

// IsCategory checks if an error is a FitError with the given category.
func IsCategory(err error, category Category) bool {
	if fe, ok := AsFitError(err); ok {
		return fe.Category == category
	}
	return false
}

// IsCode checks if an error is a FitError with the given code.
func IsCode(err error, code string) bool {
	if fe, ok := AsFitError(err); ok {
		return fe.Code == code
	}
	return false
}

// -----------------------------------------------------------------------------
// Helper Constructors
// -----------------------------------------------------------------------------

// Config creates a configuration error with registry suggestions attached.
// Use for a missing dataset or model, malformed labels or invalid run settings.
func Config(code, message string) *FitError {
	return AttachSuggestions(New(code, CategoryConfig, message))
}

// Configf creates a configuration error with a formatted message.
func Configf(code, format string, args ...interface{}) *FitError {
	return Config(code, fmt.Sprintf(format, args...))
}

// DataFormat creates a data-format error with registry suggestions attached.
// Use when an input table fails structural or unit validation.
func DataFormat(code, message string) *FitError {
	return AttachSuggestions(New(code, CategoryData, message))
}

// DataFormatf creates a data-format error with a formatted message.
func DataFormatf(code, format string, args ...interface{}) *FitError {
	return DataFormat(code, fmt.Sprintf(format, args...))
}

// Samplerf creates a sampler lifecycle error with a formatted message.
func Samplerf(code, format string, args ...interface{}) *FitError {
	return AttachSuggestions(New(code, CategorySampler, fmt.Sprintf(format, args...)))
}

// WrapConfig wraps an error as a configuration error.
func WrapConfig(err error, code, message string) *FitError {
	return AttachSuggestions(Wrap(err, code, CategoryConfig, message))
}

// WrapData wraps an error as a data-format error.
func WrapData(err error, code, message string) *FitError {
	return AttachSuggestions(Wrap(err, code, CategoryData, message))
}

// WrapModel wraps a model or prior evaluation error.
func WrapModel(err error, code, message string) *FitError {
	return Wrap(err, code, CategoryModel, message)
}

// WrapIO wraps an error as an IO error.
func WrapIO(err error, code, message string) *FitError {
	return AttachSuggestions(Wrap(err, code, CategoryIO, message))
}
