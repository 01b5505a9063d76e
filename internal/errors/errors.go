package errors

import (
	stderrors "errors"
	"fmt"
)

// NlpError is the structured error type for nlpfinder.
// It carries enough context for logging, HTTP mapping and CLI hints.
type NlpError struct {
	// Code is the unique error code (e.g., "ERR_207_INDEX_NOT_FOUND").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Network, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Sentinels for errors.Is checks. Matching is by code, so any NlpError
// carrying the same code matches regardless of message.
var (
	ErrIndexNotFound        = New(ErrCodeIndexNotFound, "no index available", nil)
	ErrIndexInProgress      = New(ErrCodeIndexInProgress, "indexing already in progress", nil)
	ErrClearWhileRunning    = New(ErrCodeClearWhileRunning, "cannot clear index while indexing is running", nil)
	ErrInvalidDirectory     = New(ErrCodeInvalidDirectory, "invalid directory", nil)
	ErrServiceUnavailable   = New(ErrCodeServiceUnavailable, "embedding service unavailable", nil)
	ErrModelUnavailable     = New(ErrCodeModelUnavailable, "embedding model unavailable", nil)
	ErrFileTooLarge         = New(ErrCodeFileTooLarge, "file too large", nil)
	ErrFileRead             = New(ErrCodeFileRead, "file could not be read", nil)
	ErrUnsupportedExtension = New(ErrCodeUnsupportedExtension, "unsupported file extension", nil)
	ErrInvalidConfiguration = New(ErrCodeConfigInvalid, "invalid configuration", nil)
	ErrDimensionMismatch    = New(ErrCodeDimensionMismatch, "embedding dimension mismatch", nil)
	ErrFileNotFound         = New(ErrCodeFileNotFound, "file not found", nil)
)

// Error implements the error interface.
func (e *NlpError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *NlpError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with NlpError.
func (e *NlpError) Is(target error) bool {
	if t, ok := target.(*NlpError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *NlpError) WithDetail(key, value string) *NlpError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *NlpError) WithSuggestion(suggestion string) *NlpError {
	e.Suggestion = suggestion
	return e
}

// New creates a new NlpError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *NlpError {
	t := traitsOf(code)
	return &NlpError{
		Code:      code,
		Message:   message,
		Category:  categoryOf(code),
		Severity:  t.severity,
		Cause:     cause,
		Retryable: t.retryable,
	}
}

// Newf is New with a formatted message and no cause.
func Newf(code string, format string, args ...any) *NlpError {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Wrap creates an NlpError from an existing error.
// The error's message becomes the NlpError message.
func Wrap(code string, err error) *NlpError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *NlpError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *NlpError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *NlpError {
	return New(ErrCodeInternal, message, cause)
}

// As returns the first NlpError in err's chain.
func As(err error) (*NlpError, bool) {
	var ne *NlpError
	if stderrors.As(err, &ne) {
		return ne, true
	}
	return nil, false
}

// IsRetryable checks if an error is retryable.
// Returns true if the chain holds an NlpError with Retryable set.
func IsRetryable(err error) bool {
	if ne, ok := As(err); ok {
		return ne.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
func IsFatal(err error) bool {
	if ne, ok := As(err); ok {
		return ne.Severity == SeverityFatal
	}
	return false
}

// IsUnavailable reports whether err means the embedding backend cannot serve
// requests right now: unreachable, timed out, or missing its model.
func IsUnavailable(err error) bool {
	switch GetCode(err) {
	case ErrCodeServiceUnavailable, ErrCodeNetworkTimeout, ErrCodeModelUnavailable:
		return true
	}
	return false
}

// GetCode extracts the error code from the first NlpError in the chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	if ne, ok := As(err); ok {
		return ne.Code
	}
	return ""
}

// GetCategory extracts the category from the first NlpError in the chain.
func GetCategory(err error) Category {
	if ne, ok := As(err); ok {
		return ne.Category
	}
	return ""
}
