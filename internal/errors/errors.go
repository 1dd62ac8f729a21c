package errors

import "fmt"

// ErrorCode represents a keepsake error code.
type ErrorCode string

const (
	ErrValidation ErrorCode = "VALIDATION" // 400
	ErrNotFound   ErrorCode = "NOT_FOUND"  // 404
	ErrSealed     ErrorCode = "SEALED"     // 423
	ErrInternal   ErrorCode = "INTERNAL"   // 500
)

// KeepsakeError represents a structured error with code, status, and details.
type KeepsakeError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *KeepsakeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewValidation creates a 400 error for malformed input.
func NewValidation(msg string) *KeepsakeError {
	return &KeepsakeError{
		Code:    ErrValidation,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a record that is absent or destroyed.
func NewNotFound(id string) *KeepsakeError {
	return &KeepsakeError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("record not found: %s", id),
		Details: map[string]any{"id": id},
	}
}

// NewFileNotFound creates a 404 error for a missing import file.
func NewFileNotFound(path string) *KeepsakeError {
	return &KeepsakeError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewSealed creates a 423 error for a mutation attempted on a sealed record.
// sealUntil is the Unix timestamp at which the record unseals.
func NewSealed(id string, sealUntil int64) *KeepsakeError {
	return &KeepsakeError{
		Code:    ErrSealed,
		Status:  423,
		Message: fmt.Sprintf("record is sealed: %s", id),
		Details: map[string]any{"id": id, "seal_until": sealUntil},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *KeepsakeError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &KeepsakeError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a KeepsakeError with the given code.
func Is(err error, code ErrorCode) bool {
	if kErr, ok := err.(*KeepsakeError); ok {
		return kErr.Code == code
	}
	return false
}
