// Package errors provides structured error handling for chatsift.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: File I/O errors
//   - 3XX: Parse and schema errors (fatal for the whole stream)
//   - 4XX: Validation errors (per-entry failures route through the skip path)
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file I/O errors.
	CategoryIO Category = "IO"
	// CategoryParse indicates JSON syntax and schema errors.
	CategoryParse Category = "PARSE"
	// CategoryValidation indicates record and query validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates the whole operation must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates the operation failed but the process continues.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
	// SeverityInfo indicates informational only.
	SeverityInfo Severity = "INFO"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// File I/O errors (200-299)
	ErrCodeFileNotFound   = "ERR_201_FILE_NOT_FOUND"
	ErrCodeFilePermission = "ERR_202_FILE_PERMISSION"
	ErrCodeFileRead       = "ERR_203_FILE_READ"

	// Parse and schema errors (300-399)
	ErrCodeJSONSyntax        = "ERR_301_JSON_SYNTAX"
	ErrCodeSchemaUnsupported = "ERR_302_SCHEMA_UNSUPPORTED"

	// Validation errors (400-499)
	ErrCodeEntryInvalid  = "ERR_401_ENTRY_INVALID"
	ErrCodeQueryInvalid  = "ERR_402_QUERY_INVALID"
	ErrCodeExportInvalid = "ERR_403_EXPORT_INVALID"
	ErrCodeNotFound      = "ERR_404_NOT_FOUND"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// categoryFromCode extracts the category from an error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryParse
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on the error code. File-level
// and stream-level failures are fatal; everything else fails the operation
// without aborting the process.
func severityFromCode(code string) Severity {
	switch categoryFromCode(code) {
	case CategoryIO, CategoryParse:
		return SeverityFatal
	default:
		return SeverityError
	}
}
