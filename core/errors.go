package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// MissingReference is returned when an operation references a Team, Slot, Member or User
// that does not exist.
type MissingReference struct {
	Entity string
}

func NewMissingReference(entity string) error {
	return &MissingReference{Entity: entity}
}

func (err MissingReference) Error() string {
	return err.Entity + " not found"
}

func IsMissingReference(err error) bool {
	_, ok := errors.Cause(err).(*MissingReference)
	return ok
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
