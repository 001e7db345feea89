package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("not found")
	ErrDuplicateName       = errors.New("duplicate name")
	ErrDuplicateIdentifier = errors.New("duplicate identifier")
	ErrForbidden           = errors.New("forbidden")
	ErrProtectedCategory   = errors.New("system categories cannot be deleted")
	ErrHasDependents       = errors.New("category has items")
	ErrInvalidStatus       = errors.New("invalid status")
)

// ValidationError names the offending field. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func newValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
