package order

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nourhamdy/ordermgmt/internal/domain/errors"
)

// Status represents the order status in the state machine
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Item is a line item on an order. Prices are in cents.
type Item struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductName string
	Quantity    int
	PriceCents  int64
}

// LineTotal returns quantity * unit price in cents.
func (i Item) LineTotal() int64 {
	return int64(i.Quantity) * i.PriceCents
}

// Order represents a customer order. The total fixes the amount of any
// payment attempt made against it.
type Order struct {
	ID              uuid.UUID
	UserID          string
	OrderNumber     string
	CustomerName    string
	CustomerEmail   string
	CustomerAddress string
	CustomerPhone   string
	Items           []Item
	SubtotalCents   int64
	TaxCents        int64
	ShippingCents   int64
	TotalCents      int64
	Status          Status
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewOrder creates a pending order and computes its totals from the items.
func NewOrder(userID, customerName, customerEmail, customerAddress, customerPhone string, items []Item, taxCents, shippingCents int64, notes string) (*Order, error) {
	if userID == "" {
		return nil, errors.NewValidationError("user_id", "cannot be empty")
	}
	if customerName == "" {
		return nil, errors.NewValidationError("customer_name", "cannot be empty")
	}
	if len(items) == 0 {
		return nil, errors.NewValidationError("items", "at least one item is required")
	}
	if taxCents < 0 {
		return nil, errors.NewValidationError("tax", "cannot be negative")
	}
	if shippingCents < 0 {
		return nil, errors.NewValidationError("shipping", "cannot be negative")
	}

	id := uuid.New()
	var subtotal int64
	for idx := range items {
		it := &items[idx]
		if it.ProductName == "" {
			return nil, errors.NewValidationError("items.product_name", "cannot be empty")
		}
		if it.Quantity <= 0 {
			return nil, errors.NewValidationError("items.quantity", "must be at least 1")
		}
		if it.PriceCents < 0 {
			return nil, errors.NewValidationError("items.price", "cannot be negative")
		}
		if it.ID == uuid.Nil {
			it.ID = uuid.New()
		}
		it.OrderID = id
		subtotal += it.LineTotal()
	}

	now := time.Now()
	return &Order{
		ID:              id,
		UserID:          userID,
		OrderNumber:     NewOrderNumber(),
		CustomerName:    customerName,
		CustomerEmail:   customerEmail,
		CustomerAddress: customerAddress,
		CustomerPhone:   customerPhone,
		Items:           items,
		SubtotalCents:   subtotal,
		TaxCents:        taxCents,
		ShippingCents:   shippingCents,
		TotalCents:      subtotal + taxCents + shippingCents,
		Status:          StatusPending,
		Notes:           notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// NewOrderNumber generates a unique human-readable order reference.
func NewOrderNumber() string {
	return "ORD-" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:14])
}

// CanTransitionTo checks if the order can transition to the given status
func (o *Order) CanTransitionTo(newStatus Status) bool {
	transitions := map[Status][]Status{
		StatusPending: {
			StatusConfirmed,
			StatusCancelled,
		},
		StatusConfirmed: {
			StatusCancelled,
		},
		StatusCancelled: {}, // Terminal state
	}

	allowed, exists := transitions[o.Status]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == newStatus {
			return true
		}
	}
	return false
}

// TransitionTo transitions the order to a new status
func (o *Order) TransitionTo(newStatus Status) error {
	if !o.CanTransitionTo(newStatus) {
		return errors.NewDomainError(
			"invalid_transition",
			"cannot transition order from "+string(o.Status)+" to "+string(newStatus),
			errors.ErrInvalidStateTransition,
		)
	}
	o.Status = newStatus
	o.UpdatedAt = time.Now()
	return nil
}

// Confirm marks the order as confirmed
func (o *Order) Confirm() error {
	return o.TransitionTo(StatusConfirmed)
}

// Cancel marks the order as cancelled
func (o *Order) Cancel() error {
	return o.TransitionTo(StatusCancelled)
}

// IsConfirmed reports whether the order is ready for payment processing.
func (o *Order) IsConfirmed() bool {
	return o.Status == StatusConfirmed
}

// IsOwnedBy reports whether the order belongs to the given user.
func (o *Order) IsOwnedBy(userID string) bool {
	return o.UserID == userID
}
