package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Giveaway error code.
type ErrorCode string

const (
	ErrInvalidRequest    ErrorCode = "INVALID_REQUEST"    // 400
	ErrInvalidJSON       ErrorCode = "INVALID_JSON"       // 400
	ErrFileNotFound      ErrorCode = "FILE_NOT_FOUND"     // 404
	ErrNotFound          ErrorCode = "NOT_FOUND"          // 404
	ErrSchemaViolation   ErrorCode = "SCHEMA_VIOLATION"   // 422
	ErrDanglingReference ErrorCode = "DANGLING_REFERENCE" // 422
	ErrInternal          ErrorCode = "INTERNAL"           // 500
)

// GiveawayError represents a structured error with code, status, and details.
type GiveawayError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any

	cause error
}

// Error implements the error interface.
func (e *GiveawayError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *GiveawayError) Unwrap() error {
	return e.cause
}

// NewInvalidRequest creates a 400 error for invalid command parameters.
func NewInvalidRequest(msg string) *GiveawayError {
	return &GiveawayError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewInvalidJSON creates a 400 error for a file that does not parse or has the wrong top-level shape.
func NewInvalidJSON(file string, cause error) *GiveawayError {
	msg := fmt.Sprintf("%s: invalid JSON", file)
	if cause != nil {
		msg = fmt.Sprintf("%s: invalid JSON: %v", file, cause)
	}
	return &GiveawayError{
		Code:    ErrInvalidJSON,
		Status:  400,
		Message: msg,
		Details: map[string]any{"file": file},
		cause:   cause,
	}
}

// NewFileNotFound creates a 404 error for a required input file that does not exist.
func NewFileNotFound(path string) *GiveawayError {
	return &GiveawayError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewNotFound creates a 404 error for a missing record (archive lookups).
func NewNotFound(identifier string) *GiveawayError {
	return &GiveawayError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("pick not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewSchemaViolation creates a 422 error naming the offending file, index and field.
// Pass index < 0 when the violation is not tied to a list element.
func NewSchemaViolation(file string, index int, field, reason string) *GiveawayError {
	details := map[string]any{"file": file}
	where := file
	if index >= 0 {
		where = fmt.Sprintf("%s[%d]", file, index)
		details["index"] = index
	}
	if field != "" {
		details["field"] = field
	}
	return &GiveawayError{
		Code:    ErrSchemaViolation,
		Status:  422,
		Message: fmt.Sprintf("%s: %s", where, reason),
		Details: details,
	}
}

// NewDanglingReference creates a 422 error for a pick pointing at an id absent from its list.
func NewDanglingReference(file, field, id, list string) *GiveawayError {
	return &GiveawayError{
		Code:    ErrDanglingReference,
		Status:  422,
		Message: fmt.Sprintf("%s: %s %q not found in %s", file, field, id, list),
		Details: map[string]any{"file": file, "field": field, "id": id, "list": list},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
// The message stays generic; the cause is kept in Details for logging.
func NewInternal(err error) *GiveawayError {
	details := map[string]any{}
	if err != nil {
		details["internal_error"] = err.Error()
	}
	return &GiveawayError{
		Code:    ErrInternal,
		Status:  500,
		Message: "an internal error occurred",
		Details: details,
		cause:   err,
	}
}

// Is checks if an error (or anything it wraps) is a GiveawayError with the given code.
func Is(err error, code ErrorCode) bool {
	var gErr *GiveawayError
	if stderrors.As(err, &gErr) {
		return gErr.Code == code
	}
	return false
}

// As extracts the GiveawayError from err, if any.
func As(err error) (*GiveawayError, bool) {
	var gErr *GiveawayError
	if stderrors.As(err, &gErr) {
		return gErr, true
	}
	return nil, false
}
