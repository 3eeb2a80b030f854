// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown and general errors
//   - Validation errors (100-199): Malformed signals, intents, orders and positions
//   - Data/Persistence errors (200-299): Ledger unavailable, missing rows, failed queries
//   - Risk errors (300-399): Risk evaluation failures (never a normal rejection)
//   - Gateway errors (400-499): Exchange gateway failures
//   - Execution errors (500-599): Order submission and position close failures
//   - Reconciliation errors (600-699): Fills that could not be matched against the ledger
//   - Config errors (700-799): Configuration and schema version errors
//
// Usage:
//
//	// Create a new error
//	err := errors.New(errors.ErrCodeInvalidQuantity, "quantity must be positive")
//
//	// Create a formatted error
//	err := errors.Newf(errors.ErrCodePositionNotFound, "position %s not found", id)
//
//	// Wrap an existing error
//	err := errors.Wrap(errors.ErrCodePersistence, "failed to insert trade", originalErr)
//
//	// Check error code
//	if errors.HasCode(err, errors.ErrCodePositionNotFound) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around the standard errors.Is function.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around the standard errors.As function.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from an error if it's an *Error type.
// Returns ErrCodeUnknown if the error is not an *Error type.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// hasCodeInRange walks the whole chain, not only the outermost *Error.
func hasCodeInRange(err error, low, high ErrorCode) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}

		if e.Code >= low && e.Code <= high {
			return true
		}

		err = e.Cause
	}

	return false
}

// IsValidation reports whether err carries a validation error code (100-199).
func IsValidation(err error) bool {
	return hasCodeInRange(err, 100, 199)
}

// IsPersistence reports whether err carries a persistence error code (200-299).
// A missing position is not a persistence failure.
func IsPersistence(err error) bool {
	if HasCode(err, ErrCodePositionNotFound) || HasCode(err, ErrCodeTradeNotFound) {
		return false
	}

	return hasCodeInRange(err, 200, 299)
}

// IsReconciliation reports whether err carries a reconciliation error code (600-699).
func IsReconciliation(err error) bool {
	return hasCodeInRange(err, 600, 699)
}
