package errors

import (
	"errors"
	"fmt"
)

// GatewayErrorKind classifies failures reported by an exchange gateway.
type GatewayErrorKind string

const (
	GatewayRateLimited       GatewayErrorKind = "RATE_LIMITED"
	GatewayAuthFailed        GatewayErrorKind = "AUTH_FAILED"
	GatewayInsufficientFunds GatewayErrorKind = "INSUFFICIENT_FUNDS"
	GatewayNetworkTimeout    GatewayErrorKind = "NETWORK_TIMEOUT"
	GatewayUnsupported       GatewayErrorKind = "UNSUPPORTED"
	GatewayOrderNotFound     GatewayErrorKind = "ORDER_NOT_FOUND"
	GatewayRejected          GatewayErrorKind = "REJECTED"
)

// GatewayError is returned by every exchange gateway call that fails.
type GatewayError struct {
	Kind    GatewayErrorKind
	Message string
	Cause   error
}

// NewGatewayError creates a GatewayError of the given kind.
func NewGatewayError(kind GatewayErrorKind, message string, cause error) *GatewayError {
	return &GatewayError{
		Kind:    kind,
		Message: message,
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *GatewayError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("gateway %s: %s: %v", e.Kind, e.Message, e.Cause)
	}

	return fmt.Sprintf("gateway %s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *GatewayError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether the call may be repeated.
// Only rate limiting and network timeouts are transient.
func (e *GatewayError) Retryable() bool {
	return e.Kind == GatewayRateLimited || e.Kind == GatewayNetworkTimeout
}

// Critical reports whether the failure needs operator attention.
func (e *GatewayError) Critical() bool {
	return e.Kind == GatewayAuthFailed || e.Kind == GatewayInsufficientFunds || e.Kind == GatewayUnsupported
}

// AsGatewayError extracts a *GatewayError from err's chain.
func AsGatewayError(err error) (*GatewayError, bool) {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr, true
	}

	return nil, false
}

// IsGatewayKind reports whether err carries a GatewayError of the given kind.
func IsGatewayKind(err error, kind GatewayErrorKind) bool {
	gwErr, ok := AsGatewayError(err)

	return ok && gwErr.Kind == kind
}

// ExecutionErrorKind classifies a submission that ended in FAILED.
type ExecutionErrorKind string

const (
	ExecutionOrderRejected     ExecutionErrorKind = "ORDER_REJECTED"
	ExecutionTimeout           ExecutionErrorKind = "TIMEOUT"
	ExecutionInsufficientFunds ExecutionErrorKind = "INSUFFICIENT_FUNDS"
)

// ExecutionError is returned when an order could not be placed after the retry budget.
type ExecutionError struct {
	Kind     ExecutionErrorKind
	Symbol   string
	Attempts int
	Cause    error
}

// NewExecutionError derives the execution kind from the last gateway failure.
func NewExecutionError(symbol string, attempts int, cause error) *ExecutionError {
	kind := ExecutionOrderRejected

	if gwErr, ok := AsGatewayError(cause); ok {
		switch gwErr.Kind {
		case GatewayNetworkTimeout:
			kind = ExecutionTimeout
		case GatewayInsufficientFunds:
			kind = ExecutionInsufficientFunds
		case GatewayRateLimited, GatewayAuthFailed, GatewayUnsupported, GatewayOrderNotFound, GatewayRejected:
			kind = ExecutionOrderRejected
		}
	}

	return &ExecutionError{
		Kind:     kind,
		Symbol:   symbol,
		Attempts: attempts,
		Cause:    cause,
	}
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution %s for %s after %d attempt(s): %v", e.Kind, e.Symbol, e.Attempts, e.Cause)
}

// Unwrap returns the underlying error cause.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// AsExecutionError extracts an *ExecutionError from err's chain.
func AsExecutionError(err error) (*ExecutionError, bool) {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr, true
	}

	return nil, false
}
