package services

import (
	"fmt"
)

// Error codes surfaced to callers.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeConstraintViolation = "CONSTRAINT_VIOLATION"
	CodeNotFound            = "NOT_FOUND"
	CodeSchemaMismatch      = "SCHEMA_MISMATCH"
	CodeStoreUnavailable    = "STORE_UNAVAILABLE"
	CodeIngestionInProgress = "INGESTION_IN_PROGRESS"
)

// Error is a job-store failure with a stable code and a message fit for the user.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code, so errors.Is(err, ErrNotFound) works
// regardless of the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrValidation          = &Error{Code: CodeValidation, Message: "invalid job record"}
	ErrConstraintViolation = &Error{Code: CodeConstraintViolation, Message: "identifier already in use"}
	ErrNotFound            = &Error{Code: CodeNotFound, Message: "job record not found"}
	ErrSchemaMismatch      = &Error{Code: CodeSchemaMismatch, Message: "spreadsheet does not match the job record schema"}
	ErrStoreUnavailable    = &Error{Code: CodeStoreUnavailable, Message: "job store unavailable"}
	ErrIngestionInProgress = &Error{Code: CodeIngestionInProgress, Message: "another reload is already running"}
)

func newError(code string, err error, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

func validationError(format string, args ...interface{}) *Error {
	return newError(CodeValidation, nil, format, args...)
}

func unavailable(err error, op string) *Error {
	return newError(CodeStoreUnavailable, err, "job store unavailable during %s", op)
}
