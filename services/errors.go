package services

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
)

// InputError carries a message meant for the client. It matches ErrInvalidInput.
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }

func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

// Invalid returns an *InputError with a formatted message
func Invalid(format string, args ...interface{}) error {
	return &InputError{Message: fmt.Sprintf(format, args...)}
}

// kindError is a sentinel with a client-facing message attached
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Is(target error) bool { return target == e.kind }

// notFound returns ErrNotFound with the entity name, e.g. "Course not found"
func notFound(entity string) error {
	return &kindError{kind: ErrNotFound, msg: entity + " not found"}
}

func forbidden(msg string) error {
	return &kindError{kind: ErrForbidden, msg: msg}
}

func conflict(msg string) error {
	return &kindError{kind: ErrConflict, msg: msg}
}
