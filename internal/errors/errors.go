package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Crackr error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrFileNotFound   ErrorCode = "FILE_NOT_FOUND"  // 404
	ErrConflict       ErrorCode = "CONFLICT"        // 409
	ErrValidation     ErrorCode = "VALIDATION"      // 422
	ErrInternal       ErrorCode = "INTERNAL"        // 500
	ErrPersistence    ErrorCode = "PERSISTENCE"     // 503
)

// CrackrError represents a structured error with code, status, and details.
type CrackrError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any

	cause error
}

// Error implements the error interface.
func (e *CrackrError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *CrackrError) Unwrap() error {
	return e.cause
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *CrackrError {
	return &CrackrError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for an unknown card, task or goal.
func NewNotFound(kind, identifier string) *CrackrError {
	return &CrackrError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, identifier),
		Details: map[string]any{"kind": kind, "identifier": identifier},
	}
}

// NewFileNotFound creates a 404 error for a missing import file.
func NewFileNotFound(path string) *CrackrError {
	return &CrackrError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewConflict creates a 409 error for general conflicts.
func NewConflict(msg string) *CrackrError {
	return &CrackrError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewValidation creates a 422 error for malformed card, task or goal data.
// fields lists the offending field names.
func NewValidation(msg string, fields ...string) *CrackrError {
	e := &CrackrError{
		Code:    ErrValidation,
		Status:  422,
		Message: msg,
	}
	if len(fields) > 0 {
		e.Details = map[string]any{"fields": fields}
	}
	return e
}

// NewPersistence creates a 503 error for a failed write to the backing store.
// The in-memory state that triggered the write is kept; the next successful
// save carries it.
func NewPersistence(key string, err error) *CrackrError {
	msg := "failed to persist " + key
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &CrackrError{
		Code:    ErrPersistence,
		Status:  503,
		Message: msg,
		Details: map[string]any{"key": key},
		cause:   err,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *CrackrError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &CrackrError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		cause:   err,
	}
}

// Is checks if err (or anything it wraps) is a CrackrError with the given code.
func Is(err error, code ErrorCode) bool {
	var cErr *CrackrError
	if stderrors.As(err, &cErr) {
		return cErr.Code == code
	}
	return false
}

// As returns the CrackrError in err's chain, if any.
func As(err error) (*CrackrError, bool) {
	var cErr *CrackrError
	ok := stderrors.As(err, &cErr)
	return cErr, ok
}
