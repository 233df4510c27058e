// Package domain defines the schema object kinds and the error types shared by
// the catalog packages.
package domain

import (
	"errors"
	"fmt"
)

// NotFoundError indicates that a name did not resolve. It is the expected,
// recoverable outcome of a lookup; Message is suitable for showing to users.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ContractViolationError indicates caller misuse, such as resolving an empty
// path. It is never reported as NotFound.
type ContractViolationError struct {
	Message string
}

func (e *ContractViolationError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError indicates a conflict (e.g., duplicate name in a catalog).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrContractViolation creates a ContractViolationError with a formatted message.
func ErrContractViolation(format string, args ...interface{}) *ContractViolationError {
	return &ContractViolationError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrConflict creates a ConflictError with a formatted message.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsContractViolation reports whether err is, or wraps, a ContractViolationError.
func IsContractViolation(err error) bool {
	var cv *ContractViolationError
	return errors.As(err, &cv)
}
