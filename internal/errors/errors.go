package errors

import (
	"fmt"
)

// SiftError is the structured error type for chatsift.
// It provides rich context for error handling, logging, and user presentation.
type SiftError struct {
	// Code is the unique error code (e.g., "ERR_201_FILE_NOT_FOUND").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Parse, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *SiftError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *SiftError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with SiftError.
func (e *SiftError) Is(target error) bool {
	if t, ok := target.(*SiftError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *SiftError) WithDetail(key, value string) *SiftError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *SiftError) WithSuggestion(suggestion string) *SiftError {
	e.Suggestion = suggestion
	return e
}

// New creates a new SiftError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *SiftError {
	return &SiftError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates a SiftError from an existing error.
// The error's message becomes the SiftError message.
func Wrap(code string, err error) *SiftError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// Sentinel targets for errors.Is checks. Never mutate these; use the
// constructors below for concrete instances.
var (
	ErrFileNotFound      = New(ErrCodeFileNotFound, "file not found", nil)
	ErrFilePermission    = New(ErrCodeFilePermission, "permission denied", nil)
	ErrJSONSyntax        = New(ErrCodeJSONSyntax, "invalid JSON", nil)
	ErrSchemaUnsupported = New(ErrCodeSchemaUnsupported, "unsupported schema", nil)
	ErrEntryInvalid      = New(ErrCodeEntryInvalid, "invalid entry", nil)
	ErrQueryInvalid      = New(ErrCodeQueryInvalid, "invalid query", nil)
)

// FileNotFound creates the error for a missing archive file.
func FileNotFound(path string) *SiftError {
	return New(ErrCodeFileNotFound, fmt.Sprintf("file not found: %s", path), nil).
		WithDetail("path", path).
		WithSuggestion("check the file path, or export the archive again")
}

// FilePermission creates the error for an unreadable archive file.
func FilePermission(path string, cause error) *SiftError {
	return New(ErrCodeFilePermission, fmt.Sprintf("permission denied: %s", path), cause).
		WithDetail("path", path)
}

// FileRead creates the error for a mid-read I/O failure.
func FileRead(path string, cause error) *SiftError {
	return New(ErrCodeFileRead, fmt.Sprintf("read failed: %s", path), cause).
		WithDetail("path", path)
}

// ParseFailed creates the fatal error for syntactically invalid JSON.
func ParseFailed(path string, cause error) *SiftError {
	return New(ErrCodeJSONSyntax, fmt.Sprintf("invalid JSON in %s", path), cause).
		WithDetail("path", path).
		WithSuggestion("the export file appears corrupted; re-export it")
}

// SchemaUnsupported creates the fatal error for an unrecognized export schema.
func SchemaUnsupported(path, reason string) *SiftError {
	return New(ErrCodeSchemaUnsupported, fmt.Sprintf("unsupported schema in %s: %s", path, reason), nil).
		WithDetail("path", path).
		WithSuggestion("expected an OpenAI-style or Claude-style conversation export")
}

// EntryInvalid creates the per-record error routed through the skip path.
func EntryInvalid(id string, cause error) *SiftError {
	return New(ErrCodeEntryInvalid, fmt.Sprintf("invalid entry %s", id), cause).
		WithDetail("id", id)
}

// QueryInvalid creates the error for a query violating its field constraints.
func QueryInvalid(cause error) *SiftError {
	return Wrap(ErrCodeQueryInvalid, cause)
}

// NotFound creates the error for a lookup that matched nothing. kind names
// what was looked up ("conversation", "message").
func NotFound(kind, id string) *SiftError {
	return New(ErrCodeNotFound, fmt.Sprintf("no %s matches %q", kind, id), nil).
		WithDetail("id", id)
}

// IsFatal checks if an error has fatal severity.
// Fatal errors abort the whole stream or operation.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if se, ok := err.(*SiftError); ok {
		return se.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a SiftError.
// Returns empty string if not a SiftError.
func GetCode(err error) string {
	if se, ok := err.(*SiftError); ok {
		return se.Code
	}
	return ""
}

// GetCategory extracts the category from a SiftError.
// Returns empty string if not a SiftError.
func GetCategory(err error) Category {
	if se, ok := err.(*SiftError); ok {
		return se.Category
	}
	return ""
}
