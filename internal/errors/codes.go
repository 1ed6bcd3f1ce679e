// Package errors provides structured error handling for TSBridge.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Knowledge-base data errors (file, format)
//   - 3XX: Subprocess errors (interpreter spawn, timeout)
//   - 4XX: Validation and parse errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryData indicates knowledge-base data loading errors.
	CategoryData Category = "DATA"
	// CategorySubprocess indicates interpreter subprocess errors.
	CategorySubprocess Category = "SUBPROCESS"
	// CategoryValidation indicates input validation and parse errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
	// SeverityInfo indicates informational only.
	SeverityInfo Severity = "INFO"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound   = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid    = "ERR_102_CONFIG_INVALID"
	ErrCodeConfigPermission = "ERR_103_CONFIG_PERMISSION"

	// Knowledge-base data errors (200-299)
	ErrCodeDataNotFound = "ERR_201_DATA_NOT_FOUND"
	ErrCodeDataCorrupt  = "ERR_202_DATA_CORRUPT"
	ErrCodeDataReload   = "ERR_203_DATA_RELOAD_FAILED"
	ErrCodeIndexFailed  = "ERR_204_SEARCH_INDEX_FAILED"

	// Subprocess errors (300-399)
	ErrCodeInterpreterMissing = "ERR_301_INTERPRETER_MISSING"
	ErrCodeSubprocessTimeout  = "ERR_302_SUBPROCESS_TIMEOUT"
	ErrCodeSubprocessFailed   = "ERR_303_SUBPROCESS_FAILED"

	// Validation errors (400-499)
	ErrCodeInvalidInput    = "ERR_401_INVALID_INPUT"
	ErrCodeTypeParseFailed = "ERR_402_TYPE_PARSE_FAILED"
	ErrCodeEmptyInput      = "ERR_403_EMPTY_INPUT"
	ErrCodeInputTooLong    = "ERR_404_INPUT_TOO_LONG"
	ErrCodeUnknownLanguage = "ERR_405_UNKNOWN_LANGUAGE"

	// Internal errors (500-599)
	ErrCodeInternal       = "ERR_501_INTERNAL"
	ErrCodeMappingFailed  = "ERR_502_MAPPING_FAILED"
	ErrCodeAnalysisFailed = "ERR_503_ANALYSIS_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "101" from "ERR_101_CONFIG_NOT_FOUND")
	numStr := code[4:7]
	if len(numStr) < 1 {
		return CategoryInternal
	}

	switch numStr[0] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryData
	case '3':
		return CategorySubprocess
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	// A corrupt knowledge base cannot serve any mapping request.
	if code == ErrCodeDataCorrupt {
		return SeverityFatal
	}

	// Parse failures are the normal "soft failure" path for the analyzer.
	if isRecoverableCode(code) {
		return SeverityWarning
	}

	return SeverityError
}

// isRecoverableCode checks if an error code represents a recoverable error
// that the caller converts into a structured failure response.
func isRecoverableCode(code string) bool {
	switch code {
	case ErrCodeTypeParseFailed, ErrCodeEmptyInput, ErrCodeSubprocessTimeout:
		return true
	default:
		return false
	}
}
