package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation    = errors.New("validation failed")
	ErrInvalidField  = fmt.Errorf("%w: invalid field to update", ErrValidation)
	ErrEmailTaken    = fmt.Errorf("%w: email already registered", ErrValidation)
	ErrInvalidID     = errors.New("invalid id")
	ErrTaskNotFound  = errors.New("task not found")
	ErrUserNotFound  = errors.New("user not found")
	ErrPhotoNotFound = errors.New("photo not found")

	// ErrInvalidCredentials never says which of email or password was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("please authenticate")
	ErrTooManyAttempts    = errors.New("too many login attempts")

	ErrPersistence       = errors.New("persistence failure")
	ErrCascadeIncomplete = errors.New("account tasks could not be removed")
)

// ValidationError describes a single rejected field value.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
