package rollcall

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes
const (
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodePrecondition = "PRECONDITION_FAILED"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeStorage      = "STORAGE_ERROR"
)

// ErrNotFound is returned by backends when the requested item does not exist
var ErrNotFound = errors.New("not found")

// RecordError is returned by the meeting and attendance stores
type RecordError struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Op      string   `json:"op,omitempty"`
	Fields  []string `json:"fields,omitempty"`
	Err     error    `json:"-"`
}

// Error implements the error interface
func (e *RecordError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if e.Op != "" {
		fmt.Fprintf(&b, " (op: %s)", e.Op)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying cause
func (e *RecordError) Unwrap() error {
	return e.Err
}

// NewValidationError reports missing or malformed caller input
func NewValidationError(op, message string, fields ...string) *RecordError {
	return &RecordError{
		Code:    ErrCodeValidation,
		Message: message,
		Op:      op,
		Fields:  fields,
	}
}

// NewPreconditionError reports that the store is not in a state to serve the call
func NewPreconditionError(op, message string) *RecordError {
	return &RecordError{
		Code:    ErrCodePrecondition,
		Message: message,
		Op:      op,
	}
}

// NewNotFoundError reports a missing target
func NewNotFoundError(op, message string) *RecordError {
	return &RecordError{
		Code:    ErrCodeNotFound,
		Message: message,
		Op:      op,
		Err:     ErrNotFound,
	}
}

// NewStorageError wraps a backend failure
func NewStorageError(op string, err error) *RecordError {
	return &RecordError{
		Code:    ErrCodeStorage,
		Message: "storage failure",
		Op:      op,
		Err:     err,
	}
}

func hasCode(err error, code string) bool {
	var re *RecordError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return hasCode(err, ErrCodeValidation)
}

// IsPreconditionError checks if an error is a precondition error
func IsPreconditionError(err error) bool {
	return hasCode(err, ErrCodePrecondition)
}

// IsNotFoundError checks if an error is a not-found error
func IsNotFoundError(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

// IsStorageError checks if an error is a storage error
func IsStorageError(err error) bool {
	return hasCode(err, ErrCodeStorage)
}
