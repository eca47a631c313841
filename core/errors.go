package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error kinds reported by domain operations. Match them with errors.Is.
var (
	ErrMissingField = errors.New("missing field")
	ErrInvalidValue = errors.New("invalid value")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not found")
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError reports input that was rejected before anything was applied.
// Kind is one of ErrMissingField, ErrInvalidValue or ErrConflict.
type ValidationError struct {
	Kind   error
	Err    error
	Fields []FieldError
}

func NewValidationError(kind error, msg string, flds ...FieldError) error {
	return &ValidationError{Kind: kind, Err: errors.New(msg), Fields: flds}
}

func MissingField(field, msg string) error {
	return NewValidationError(ErrMissingField, msg, FieldError{Field: field, Error: msg})
}

func InvalidValue(field, msg string) error {
	return NewValidationError(ErrInvalidValue, msg, FieldError{Field: field, Error: msg})
}

func Conflict(field, msg string) error {
	return NewValidationError(ErrConflict, msg, FieldError{Field: field, Error: msg})
}

func (err *ValidationError) Error() string {
	if err.Err == nil {
		if err.Kind != nil {
			return err.Kind.Error()
		}
		return ""
	}
	return err.Err.Error()
}

func (err *ValidationError) Unwrap() error { return err.Kind }

// NotFoundError reports a referenced id that does not resolve.
type NotFoundError struct {
	Resource string
	ID       string
}

func NewNotFoundError(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

func (err *NotFoundError) Error() string {
	return err.Resource + " not found"
}

func (err *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// PersistenceError reports a document that could not be written.
type PersistenceError struct {
	Path string
	Err  error
}

func (err *PersistenceError) Error() string {
	return fmt.Sprintf("persisting %s: %v", err.Path, err.Err)
}

func (err *PersistenceError) Unwrap() error { return err.Err }
