package testutil

import (
	"time"

	"github.com/google/uuid"
	"github.com/nourhamdy/ordermgmt/internal/domain/order"
	"github.com/nourhamdy/ordermgmt/internal/domain/payment"
)

// NewTestOrder builds a pending order for userID with a single line item
// priced at totalCents.
func NewTestOrder(userID string, totalCents int64) *order.Order {
	now := time.Now()
	id := uuid.New()
	return &order.Order{
		ID:           id,
		UserID:       userID,
		OrderNumber:  order.NewOrderNumber(),
		CustomerName: "Test Customer",
		Items: []order.Item{
			{
				ID:          uuid.New(),
				OrderID:     id,
				ProductName: "Test Product",
				Quantity:    1,
				PriceCents:  totalCents,
			},
		},
		SubtotalCents: totalCents,
		TotalCents:    totalCents,
		Status:        order.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// NewConfirmedOrder builds an order ready for payment.
func NewConfirmedOrder(userID string, totalCents int64) *order.Order {
	o := NewTestOrder(userID, totalCents)
	o.Status = order.StatusConfirmed
	return o
}

// NewTestPayment builds a pending ledger entry against an order.
func NewTestPayment(orderID uuid.UUID, amountCents int64, gatewayName string) *payment.Payment {
	now := time.Now()
	return &payment.Payment{
		ID:            uuid.New(),
		OrderID:       orderID,
		PaymentNumber: payment.NewPaymentNumber(),
		Amount:        payment.Amount{ValueCents: amountCents, Currency: payment.DefaultCurrency},
		PaymentMethod: "card",
		GatewayName:   gatewayName,
		Status:        payment.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// NewSettledPayment builds a successful ledger entry with a gateway reference.
func NewSettledPayment(orderID uuid.UUID, amountCents int64, gatewayName string) *payment.Payment {
	p := NewTestPayment(orderID, amountCents, gatewayName)
	ref := "CC-TESTREFERENCE"
	processedAt := time.Now()
	p.Status = payment.StatusSuccessful
	p.GatewayReference = &ref
	p.ProcessedAt = &processedAt
	p.GatewayResponse = map[string]any{"status": "approved"}
	return p
}

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 {
	return &v
}
