// Package domain defines the core domain models for Yedis.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain error with a structured error code.
// Codes have the form "YD-<AREA>-<NNNN>".
type DomainError struct {
	Code    string // Error code (e.g., "YD-CMD-4001")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithDetailsf is WithDetails with a format string.
func (e *DomainError) WithDetailsf(format string, args ...any) *DomainError {
	return e.WithDetails(fmt.Sprintf(format, args...))
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Wrap wraps an error with this domain error as the cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return e.WithCause(cause)
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Command Errors (CMD)
// Returned while translating a command into a request. The connection stays
// usable.
// ============================================================================

var (
	// ErrInvalidCommand indicates a malformed command: an empty key, an unknown
	// option or a bad range bound.
	ErrInvalidCommand = NewDomainError("YD-CMD-4000", "invalid command")

	// ErrInvalidArgument indicates an argument that does not parse or is out
	// of bounds.
	ErrInvalidArgument = NewDomainError("YD-CMD-4001", "invalid argument")

	// ErrWrongArity indicates the argument count does not match the command.
	ErrWrongArity = NewDomainError("YD-CMD-4002", "wrong number of arguments")

	// ErrUnknownCommand indicates the command name is not recognised.
	ErrUnknownCommand = NewDomainError("YD-CMD-4040", "unknown command")

	// ErrNotSupported indicates a recognised command or form that is not
	// implemented.
	ErrNotSupported = NewDomainError("YD-CMD-5010", "not yet supported")
)

// ============================================================================
// Data Errors (DATA)
// ============================================================================

var (
	// ErrWrongType indicates an operation against a key holding another type.
	ErrWrongType = NewDomainError("YD-DATA-4090", "operation against a key holding the wrong kind of value")

	// ErrNotInteger indicates a stored value that is not an integer.
	ErrNotInteger = NewDomainError("YD-DATA-4001", "value is not an integer or out of range")

	// ErrNotFloat indicates a stored score that is not a valid float.
	ErrNotFloat = NewDomainError("YD-DATA-4002", "value is not a valid float")

	// ErrOverflow indicates an increment that would overflow.
	ErrOverflow = NewDomainError("YD-DATA-4003", "increment or decrement would overflow")

	// ErrValueTooLarge indicates a value that would exceed the size limit.
	ErrValueTooLarge = NewDomainError("YD-DATA-4130", "string exceeds maximum allowed size")
)

// ============================================================================
// Authentication Errors (AUTH)
// ============================================================================

var (
	// ErrAuthRequired indicates the connection has not authenticated.
	ErrAuthRequired = NewDomainError("YD-AUTH-4010", "authentication required")

	// ErrInvalidPassword indicates AUTH was given a wrong password.
	ErrInvalidPassword = NewDomainError("YD-AUTH-4011", "invalid password")

	// ErrAuthNotConfigured indicates AUTH was sent but no password is set.
	ErrAuthNotConfigured = NewDomainError("YD-AUTH-4012", "client sent AUTH, but no password is set")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("YD-SYS-5000", "internal server error")

	// ErrStorageError indicates a storage layer error.
	ErrStorageError = NewDomainError("YD-SYS-5001", "storage error")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = NewDomainError("YD-SYS-4290", "too many requests")

	// ErrForbidden indicates the client address is not allowed.
	ErrForbidden = NewDomainError("YD-SYS-4030", "forbidden")
)
