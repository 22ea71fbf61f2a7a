package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors. The first three are matched by MappingError through errors.Is.
var (
	ErrMissingField        = errors.New("missing field")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidConversion   = errors.New("invalid currency conversion")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrTransactionExists   = errors.New("transaction already exists")
)

// ValidationError is returned when a domain value fails structural validation
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// MappingErrorKind identifies which requirement of a raw record was not met
type MappingErrorKind int

const (
	MappingErrorMissingField MappingErrorKind = iota + 1
	MappingErrorInvalidAmount
	MappingErrorInvalidConversion
)

func (k MappingErrorKind) String() string {
	switch k {
	case MappingErrorMissingField:
		return "missing field"
	case MappingErrorInvalidAmount:
		return "invalid amount"
	case MappingErrorInvalidConversion:
		return "invalid conversion"
	default:
		return "unknown mapping error"
	}
}

// MappingError describes the first unmet requirement found while mapping a record.
// Err holds the underlying cause, usually a *ValidationError, and may be nil.
type MappingError struct {
	Kind  MappingErrorKind
	Field string
	Err   error
}

// NewMissingFieldError creates a MappingError of kind MissingField
func NewMissingFieldError(field string) *MappingError {
	return &MappingError{Kind: MappingErrorMissingField, Field: field}
}

func (e *MappingError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Field)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MappingError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel corresponding to the error kind
func (e *MappingError) Is(target error) bool {
	switch target {
	case ErrMissingField:
		return e.Kind == MappingErrorMissingField
	case ErrInvalidAmount:
		return e.Kind == MappingErrorInvalidAmount
	case ErrInvalidConversion:
		return e.Kind == MappingErrorInvalidConversion
	}
	return false
}
