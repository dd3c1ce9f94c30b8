package order

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for order persistence
type Repository interface {
	// Create creates a new order with its items
	Create(ctx context.Context, order *Order) error

	// GetByID retrieves an order (with items) by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// Update updates an existing order and replaces its items
	Update(ctx context.Context, order *Order) error

	// Delete removes an order and its items
	Delete(ctx context.Context, id uuid.UUID) error

	// List lists orders with filters
	List(ctx context.Context, filter ListFilter) ([]*Order, error)
}

// ListFilter defines filters for listing orders
type ListFilter struct {
	UserID *string
	Status *Status
	Limit  int
	Offset int
}
