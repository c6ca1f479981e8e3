package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError means the input is malformed or breaks a rule of the domain.
// Code is set for named domain errors (e.g. OPPORTUNITY_IN_PAST), Fields for per-field errors.
type ValidationError struct {
	Err    error
	Code   string
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

// NewCodedValidationError creates a named ValidationError. Meant for package-level sentinels.
func NewCodedValidationError(code, msg string) *ValidationError {
	return &ValidationError{Err: errors.New(msg), Code: code}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// NotFoundError means a referenced entity does not exist.
type NotFoundError struct {
	Code    string
	Message string
}

func NewNotFoundError(code, msg string) *NotFoundError {
	return &NotFoundError{Code: code, Message: msg}
}

func (err NotFoundError) Error() string { return err.Message }

// ConflictError means a uniqueness or state invariant would be violated.
type ConflictError struct {
	Code    string
	Message string
}

func NewConflictError(code, msg string) *ConflictError {
	return &ConflictError{Code: code, Message: msg}
}

func (err ConflictError) Error() string { return err.Message }

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

func IsConflict(err error) bool {
	_, ok := errors.Cause(err).(*ConflictError)
	return ok
}

func IsValidation(err error) bool {
	_, ok := errors.Cause(err).(*ValidationError)
	return ok
}

// ErrorCode returns the named code carried by err, if any.
func ErrorCode(err error) string {
	switch e := errors.Cause(err).(type) {
	case *NotFoundError:
		return e.Code
	case *ConflictError:
		return e.Code
	case *ValidationError:
		return e.Code
	}
	return ""
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
