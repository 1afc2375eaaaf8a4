// Package errors classifies the failures argolocal reports to the user.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a structured error classification.
type ErrorCode string

const (
	// ErrCodeMissingPrerequisite indicates a required external tool or daemon is unavailable.
	ErrCodeMissingPrerequisite ErrorCode = "MISSING_PREREQUISITE"
	// ErrCodePrecondition indicates an operation was refused before any mutating call.
	ErrCodePrecondition ErrorCode = "PRECONDITION"
	// ErrCodeTimeout indicates a readiness wait exceeded its bound.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeInvalidArgument indicates malformed user input.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeInternal indicates a failing external call during remediation.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// StructuredError carries a code for exit status decisions, a human-readable
// message and the underlying cause.
type StructuredError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause for errors.Is and errors.As support.
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// New creates a new StructuredError with the given code and message.
func New(code ErrorCode, message string) *StructuredError {
	return &StructuredError{Code: code, Message: message}
}

// Wrap wraps an existing error with a code and message.
func Wrap(code ErrorCode, message string, cause error) *StructuredError {
	return &StructuredError{Code: code, Message: message, Cause: cause}
}

// MissingPrerequisites builds the error reported when tools are absent.
func MissingPrerequisites(missing []string) *StructuredError {
	return New(ErrCodeMissingPrerequisite,
		fmt.Sprintf("missing prerequisites: %s", strings.Join(missing, ", ")))
}

// Precondition builds a precondition failure.
func Precondition(format string, args ...any) *StructuredError {
	return New(ErrCodePrecondition, fmt.Sprintf(format, args...))
}

// CodeOf returns the code of the outermost StructuredError in err's chain,
// or the empty code when there is none.
func CodeOf(err error) ErrorCode {
	var se *StructuredError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}
