package payment

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for payment persistence
type Repository interface {
	// Create creates a new payment
	Create(ctx context.Context, payment *Payment) error

	// GetByID retrieves a payment by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// Update updates an existing payment
	Update(ctx context.Context, payment *Payment) error

	// List lists payments with filters
	List(ctx context.Context, filter ListFilter) ([]*Payment, error)

	// HasSettled reports whether the order already has a successful payment
	HasSettled(ctx context.Context, orderID uuid.UUID) (bool, error)
}

// ListFilter defines filters for listing payments
type ListFilter struct {
	OrderID *uuid.UUID
	UserID  *string
	Status  *Status
	Limit   int
	Offset  int
}
