package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNlpError_Unwrap_PreservesOriginalError(t *testing.T) {
	// Given: an original error
	originalErr := errors.New("original error")

	// When: wrapping with NlpError
	err := New(ErrCodeFileRead, "cannot read notes.txt", originalErr)

	// Then: unwrapping returns original error
	require.NotNil(t, err)
	assert.Equal(t, originalErr, errors.Unwrap(err))
	assert.True(t, errors.Is(err, originalErr))
}

func TestNlpError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		message  string
		expected string
	}{
		{
			name:     "config error",
			code:     ErrCodeConfigInvalid,
			message:  "chunk overlap must be smaller than chunk size",
			expected: "[ERR_102_CONFIG_INVALID] chunk overlap must be smaller than chunk size",
		},
		{
			name:     "index not found",
			code:     ErrCodeIndexNotFound,
			message:  "no index available",
			expected: "[ERR_207_INDEX_NOT_FOUND] no index available",
		},
		{
			name:     "service unavailable",
			code:     ErrCodeServiceUnavailable,
			message:  "connection refused",
			expected: "[ERR_302_SERVICE_UNAVAILABLE] connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, nil)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestNlpError_Is_MatchesSentinelByCode(t *testing.T) {
	// Given: an error with a custom message and a wrapping layer
	err := fmt.Errorf("search: %w", New(ErrCodeIndexNotFound, "index a directory first", nil))

	// Then: it matches the sentinel by code
	assert.True(t, errors.Is(err, ErrIndexNotFound))
	assert.False(t, errors.Is(err, ErrIndexInProgress))
}

func TestNlpError_WithDetail_AddsContext(t *testing.T) {
	err := New(ErrCodeFileTooLarge, "file too large", nil)

	err = err.WithDetail("path", "/data/big.log").WithDetail("size", "12582912")

	assert.Equal(t, "/data/big.log", err.Details["path"])
	assert.Equal(t, "12582912", err.Details["size"])
}

func TestNlpError_WithSuggestion_AddsSuggestion(t *testing.T) {
	err := New(ErrCodeModelUnavailable, "model nomic-embed-text not found", nil).
		WithSuggestion("ollama pull nomic-embed-text")

	assert.Equal(t, "ollama pull nomic-embed-text", err.Suggestion)
}

func TestNlpError_CategoryFromCode(t *testing.T) {
	tests := []struct {
		code         string
		wantCategory Category
	}{
		{ErrCodeConfigInvalid, CategoryConfig},
		{ErrCodeFileRead, CategoryIO},
		{ErrCodeFileWrite, CategoryIO},
		{ErrCodeIndexNotFound, CategoryIO},
		{ErrCodeServiceUnavailable, CategoryNetwork},
		{ErrCodeModelUnavailable, CategoryNetwork},
		{ErrCodeInvalidDirectory, CategoryValidation},
		{ErrCodeIndexInProgress, CategoryValidation},
		{ErrCodeInternal, CategoryInternal},
		{ErrCodeEmbeddingFailed, CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "test message", nil)
			assert.Equal(t, tt.wantCategory, err.Category)
		})
	}
}

func TestNlpError_SeverityAndRetryFromCode(t *testing.T) {
	tests := []struct {
		code          string
		wantSeverity  Severity
		wantRetryable bool
	}{
		{ErrCodeCorruptIndex, SeverityFatal, false},
		{ErrCodeDimensionMismatch, SeverityFatal, false},
		{ErrCodeFileRead, SeverityError, false},
		{ErrCodeNetworkTimeout, SeverityWarning, true},
		{ErrCodeServiceUnavailable, SeverityWarning, true},
		{ErrCodeModelUnavailable, SeverityError, false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "test message", nil)
			assert.Equal(t, tt.wantSeverity, err.Severity)
			assert.Equal(t, tt.wantRetryable, err.Retryable)
		})
	}
}

func TestWrap_CreatesNlpErrorFromError(t *testing.T) {
	originalErr := errors.New("something went wrong")

	err := Wrap(ErrCodeInternal, originalErr)

	require.NotNil(t, err)
	assert.Equal(t, ErrCodeInternal, err.Code)
	assert.Equal(t, "something went wrong", err.Message)
	assert.Equal(t, originalErr, err.Cause)
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestIsRetryable_LooksThroughWrapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"retryable", New(ErrCodeNetworkTimeout, "timeout", nil), true},
		{"non-retryable", New(ErrCodeFileNotFound, "not found", nil), false},
		{"fmt wrapped", fmt.Errorf("embed: %w", New(ErrCodeServiceUnavailable, "down", nil)), true},
		{"standard error", errors.New("standard error"), false},
		{"nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRetryable(tt.err))
		})
	}
}

func TestIsUnavailable_CoversEmbeddingBackendFailures(t *testing.T) {
	assert.True(t, IsUnavailable(New(ErrCodeServiceUnavailable, "", nil)))
	assert.True(t, IsUnavailable(New(ErrCodeNetworkTimeout, "", nil)))
	assert.True(t, IsUnavailable(New(ErrCodeModelUnavailable, "", nil)))
	assert.False(t, IsUnavailable(New(ErrCodeEmbeddingFailed, "", nil)))
	assert.False(t, IsUnavailable(errors.New("plain")))
}

func TestIsFatal_ChecksFatalSeverity(t *testing.T) {
	assert.True(t, IsFatal(New(ErrCodeCorruptIndex, "index corrupt", nil)))
	assert.True(t, IsFatal(fmt.Errorf("add: %w", New(ErrCodeDimensionMismatch, "768 != 384", nil))))
	assert.False(t, IsFatal(New(ErrCodeFileNotFound, "not found", nil)))
	assert.False(t, IsFatal(errors.New("standard error")))
}

func TestNew_UnknownCodeIsInternalError(t *testing.T) {
	err := New("CUSTOM", "odd", nil)

	assert.Equal(t, CategoryInternal, err.Category)
	assert.Equal(t, SeverityError, err.Severity)
	assert.False(t, err.Retryable)
}
