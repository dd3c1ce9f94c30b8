package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError(t *testing.T) {
	err := NewDomainError("unsupported_gateway", "payment gateway [bitcoin] is not supported", ErrUnsupportedGateway)

	assert.Contains(t, err.Error(), "bitcoin")
	assert.True(t, stderrors.Is(err, ErrUnsupportedGateway))

	bare := NewDomainError("code", "just a message", nil)
	assert.Equal(t, "just a message", bare.Error())
}

func TestPaymentProcessingError(t *testing.T) {
	t.Run("carries cause and payload", func(t *testing.T) {
		payload := map[string]any{"status": "declined"}
		err := NewPaymentProcessingError("Payment declined by bank", payload, ErrPaymentDeclined)

		assert.True(t, stderrors.Is(err, ErrPaymentDeclined))
		assert.Contains(t, err.Error(), "Payment declined by bank")
		assert.Equal(t, payload, err.Payload)
	})

	t.Run("empty message falls back to generic", func(t *testing.T) {
		err := NewPaymentProcessingError("", nil, nil)
		assert.Equal(t, "Payment processing failed", err.Message)
	})
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("customer_name", "cannot be empty")
	assert.Contains(t, err.Error(), "customer_name")
	assert.Contains(t, err.Error(), "cannot be empty")
}
