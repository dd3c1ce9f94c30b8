package payment

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/nourhamdy/ordermgmt/internal/domain/errors"
)

func TestNewPayment(t *testing.T) {
	orderID := uuid.New()

	t.Run("creates pending payment with defaults", func(t *testing.T) {
		p, err := NewPayment(orderID, Amount{ValueCents: 11500}, "card", "credit_card")
		require.NoError(t, err)

		assert.Equal(t, StatusPending, p.Status)
		assert.Equal(t, orderID, p.OrderID)
		assert.Equal(t, int64(11500), p.Amount.ValueCents)
		assert.Equal(t, "USD", p.Amount.Currency)
		assert.True(t, len(p.PaymentNumber) > 4)
		assert.Equal(t, "PAY-", p.PaymentNumber[:4])
		assert.Nil(t, p.ProcessedAt)
		assert.Nil(t, p.GatewayReference)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		tests := []struct {
			name    string
			orderID uuid.UUID
			amount  Amount
			method  string
			gateway string
		}{
			{"zero amount", orderID, Amount{ValueCents: 0}, "card", "credit_card"},
			{"negative amount", orderID, Amount{ValueCents: -100}, "card", "credit_card"},
			{"bad currency", orderID, Amount{ValueCents: 100, Currency: "DOLLARS"}, "card", "credit_card"},
			{"nil order id", uuid.Nil, Amount{ValueCents: 100}, "card", "credit_card"},
			{"empty method", orderID, Amount{ValueCents: 100}, "", "credit_card"},
			{"empty gateway", orderID, Amount{ValueCents: 100}, "card", ""},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := NewPayment(tt.orderID, tt.amount, tt.method, tt.gateway)
				var ve *domainErrors.ValidationError
				assert.ErrorAs(t, err, &ve)
			})
		}
	})
}

func TestPaymentTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{"pending to successful", StatusPending, StatusSuccessful, true},
		{"pending to failed", StatusPending, StatusFailed, true},
		{"pending to refunded", StatusPending, StatusRefunded, false},
		{"successful to refunded", StatusSuccessful, StatusRefunded, true},
		{"successful to failed", StatusSuccessful, StatusFailed, false},
		{"successful to pending", StatusSuccessful, StatusPending, false},
		{"failed to successful", StatusFailed, StatusSuccessful, false},
		{"failed to refunded", StatusFailed, StatusRefunded, false},
		{"refunded to successful", StatusRefunded, StatusSuccessful, false},
		{"refunded to pending", StatusRefunded, StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Payment{Status: tt.from}
			assert.Equal(t, tt.allowed, p.CanTransitionTo(tt.to))

			err := p.TransitionTo(tt.to)
			if tt.allowed {
				assert.NoError(t, err)
				assert.Equal(t, tt.to, p.Status)
			} else {
				assert.ErrorIs(t, err, domainErrors.ErrInvalidStateTransition)
				assert.Equal(t, tt.from, p.Status)
			}
		})
	}
}

func TestProcessedAtSetOnceOnLeavingPending(t *testing.T) {
	p, err := NewPayment(uuid.New(), Amount{ValueCents: 5000}, "card", "credit_card")
	require.NoError(t, err)
	require.Nil(t, p.ProcessedAt)

	require.NoError(t, p.MarkSuccessful("CC-ABC123", map[string]any{"status": "approved"}))
	require.NotNil(t, p.ProcessedAt)
	firstProcessed := *p.ProcessedAt

	// Refunding must not move processed_at.
	require.NoError(t, p.MarkRefunded(map[string]any{"refund_id": "REF-1"}))
	assert.Equal(t, firstProcessed, *p.ProcessedAt)
}

func TestMarkFailedSetsProcessedAt(t *testing.T) {
	p, err := NewPayment(uuid.New(), Amount{ValueCents: 5000}, "card", "credit_card")
	require.NoError(t, err)

	require.NoError(t, p.MarkFailed(map[string]any{"status": "declined"}))
	assert.Equal(t, StatusFailed, p.Status)
	assert.NotNil(t, p.ProcessedAt)
	assert.Equal(t, "declined", p.GatewayResponse["status"])
}

func TestMarkSuccessfulRecordsReference(t *testing.T) {
	p, err := NewPayment(uuid.New(), Amount{ValueCents: 5000}, "card", "credit_card")
	require.NoError(t, err)

	require.NoError(t, p.MarkSuccessful("CC-XYZ", map[string]any{"auth_code": "AB12"}))
	require.NotNil(t, p.GatewayReference)
	assert.Equal(t, "CC-XYZ", *p.GatewayReference)
	assert.True(t, p.IsSettled())
	assert.True(t, p.IsTerminal())
}

func TestMarkRefundedMergesAdditively(t *testing.T) {
	p, err := NewPayment(uuid.New(), Amount{ValueCents: 5000}, "card", "credit_card")
	require.NoError(t, err)
	require.NoError(t, p.MarkSuccessful("CC-XYZ", map[string]any{
		"status":    "approved",
		"auth_code": "AB12",
	}))

	refund := map[string]any{"refund_id": "REF-9", "amount": 50.0}
	require.NoError(t, p.MarkRefunded(refund))

	// Original keys survive, refund payload lands under "refund".
	assert.Equal(t, "approved", p.GatewayResponse["status"])
	assert.Equal(t, "AB12", p.GatewayResponse["auth_code"])
	assert.Equal(t, refund, p.GatewayResponse["refund"])
	assert.Equal(t, StatusRefunded, p.Status)
}

func TestMarkRefundedOnNilResponse(t *testing.T) {
	p := &Payment{Status: StatusSuccessful}
	require.NoError(t, p.MarkRefunded(map[string]any{"refund_id": "REF-1"}))
	assert.Equal(t, map[string]any{"refund_id": "REF-1"}, p.GatewayResponse["refund"])
}

func TestAmountString(t *testing.T) {
	assert.Equal(t, "115.00 USD", Amount{ValueCents: 11500, Currency: "USD"}.String())
	assert.Equal(t, "0.05 EUR", Amount{ValueCents: 5, Currency: "EUR"}.String())
}
