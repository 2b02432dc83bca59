package domain

import (
	"errors"
	"strings"
)

var (
	// ErrValidation marks input that is malformed or fails schema checks.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a missing stored object.
	ErrNotFound = errors.New("not found")
	// ErrUnsupportedFormat marks a file type the service cannot ingest.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrEmptyFile marks a stored object with no content.
	ErrEmptyFile = errors.New("empty file")
	// ErrStorage marks a failed object storage call.
	ErrStorage = errors.New("storage failure")
)

// ValidationError carries one message per failed constraint.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError builds a ValidationError from one or more messages.
func NewValidationError(msgs ...string) *ValidationError {
	return &ValidationError{Messages: msgs}
}

// Error is a classified failure with a caller-facing message. Kind is one of
// the sentinel errors above; Err is the underlying cause, if any.
type Error struct {
	Kind    error
	Message string
	Err     error
}

// NewError classifies cause under kind with a caller-facing message.
func NewError(kind error, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error { return []error{e.Kind, e.Err} }
