package errors

import (
	"errors"
	"fmt"
)

var (
	// Order errors
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderNotConfirmed  = errors.New("order must be confirmed before processing payment")
	ErrOrderNotEditable   = errors.New("order cannot be modified after a payment exists")
	ErrInvalidOrderStatus = errors.New("invalid order status")

	// Payment errors
	ErrPaymentNotFound        = errors.New("payment not found")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrPaymentAlreadySettled  = errors.New("order already has a successful payment")
	ErrPaymentInProgress      = errors.New("another payment attempt is in progress for this order")
	ErrRefundNotAllowed       = errors.New("only successful payments can be refunded")
	ErrInvalidRefundAmount    = errors.New("refund amount out of bounds")

	// Gateway errors
	ErrUnsupportedGateway = errors.New("payment gateway is not supported")
	ErrInvalidGateway     = errors.New("gateway does not satisfy the contract")
	ErrInvalidPaymentData = errors.New("invalid payment data")
	ErrPaymentDeclined    = errors.New("payment declined by gateway")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrGatewayTimeout     = errors.New("gateway request timeout")

	// Lock errors
	ErrLockAcquisitionFailed = errors.New("failed to acquire lock")
	ErrLockNotHeld           = errors.New("lock not held")

	// Auth errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrInvalidInput     = errors.New("invalid input")
)

// DomainError wraps errors with additional context
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// PaymentProcessingError is raised when an in-flight settlement attempt fails.
// It carries the underlying cause and, when available, the structured payload
// the gateway returned, so callers can audit the failure.
type PaymentProcessingError struct {
	Message string
	Payload map[string]any
	Err     error
}

func (e *PaymentProcessingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payment processing failed: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("payment processing failed: %s", e.Message)
}

func (e *PaymentProcessingError) Unwrap() error {
	return e.Err
}

// NewPaymentProcessingError creates a new payment processing error.
// An empty message falls back to a generic one.
func NewPaymentProcessingError(message string, payload map[string]any, err error) *PaymentProcessingError {
	if message == "" {
		message = "Payment processing failed"
	}
	return &PaymentProcessingError{
		Message: message,
		Payload: payload,
		Err:     err,
	}
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
