// Package errors is the nlpfinder error taxonomy. Every failure surfaced to
// a user or client carries a stable code of the form ERR_NNN_NAME; the
// hundreds digit names the category (1 config, 2 io, 3 network,
// 4 validation, 5 internal).
package errors

// Category groups codes by where the failure came from.
type Category string

// Categories.
const (
	CategoryConfig     Category = "CONFIG"
	CategoryIO         Category = "IO"
	CategoryNetwork    Category = "NETWORK"
	CategoryValidation Category = "VALIDATION"
	CategoryInternal   Category = "INTERNAL"
)

// Severity says whether the caller can carry on.
type Severity string

// Severities. Fatal aborts the current job; Warning marks a transient
// condition worth retrying.
const (
	SeverityFatal   Severity = "FATAL"
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
)

// Codes.
const (
	ErrCodeConfigInvalid = "ERR_102_CONFIG_INVALID"

	ErrCodeFileRead             = "ERR_201_FILE_READ"
	ErrCodeFileNotFound         = "ERR_202_FILE_NOT_FOUND"
	ErrCodeFileTooLarge         = "ERR_204_FILE_TOO_LARGE"
	ErrCodeUnsupportedExtension = "ERR_205_UNSUPPORTED_EXTENSION"
	ErrCodeCorruptIndex         = "ERR_206_CORRUPT_INDEX"
	ErrCodeIndexNotFound        = "ERR_207_INDEX_NOT_FOUND"
	ErrCodeFileWrite            = "ERR_208_FILE_WRITE"

	ErrCodeNetworkTimeout     = "ERR_301_NETWORK_TIMEOUT"
	ErrCodeServiceUnavailable = "ERR_302_SERVICE_UNAVAILABLE"
	ErrCodeModelUnavailable   = "ERR_303_MODEL_UNAVAILABLE"

	ErrCodeInvalidInput      = "ERR_401_INVALID_INPUT"
	ErrCodeDimensionMismatch = "ERR_402_DIMENSION_MISMATCH"
	ErrCodeQueryEmpty        = "ERR_404_QUERY_EMPTY"
	ErrCodeInvalidDirectory  = "ERR_406_INVALID_DIRECTORY"
	ErrCodeIndexInProgress   = "ERR_407_INDEX_IN_PROGRESS"
	ErrCodeClearWhileRunning = "ERR_408_CLEAR_WHILE_RUNNING"

	ErrCodeInternal        = "ERR_501_INTERNAL"
	ErrCodeEmbeddingFailed = "ERR_502_EMBEDDING_FAILED"
	ErrCodeIndexFailed     = "ERR_505_INDEX_FAILED"
)

// traits are the properties derived from a code.
type traits struct {
	severity  Severity
	retryable bool
}

// special lists the codes whose traits differ from SeverityError, not
// retryable. A missing model is not here: pulling it is a user action.
var special = map[string]traits{
	ErrCodeCorruptIndex:       {severity: SeverityFatal},
	ErrCodeDimensionMismatch:  {severity: SeverityFatal},
	ErrCodeNetworkTimeout:     {severity: SeverityWarning, retryable: true},
	ErrCodeServiceUnavailable: {severity: SeverityWarning, retryable: true},
}

func traitsOf(code string) traits {
	if t, ok := special[code]; ok {
		return t
	}
	return traits{severity: SeverityError}
}

var categoryByDigit = map[byte]Category{
	'1': CategoryConfig,
	'2': CategoryIO,
	'3': CategoryNetwork,
	'4': CategoryValidation,
}

// categoryOf reads the hundreds digit after "ERR_".
func categoryOf(code string) Category {
	if len(code) > 4 {
		if c, ok := categoryByDigit[code[4]]; ok {
			return c
		}
	}
	return CategoryInternal
}
