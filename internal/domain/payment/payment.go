package payment

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nourhamdy/ordermgmt/internal/domain/errors"
)

// Status represents the payment status in the state machine
type Status string

const (
	StatusPending    Status = "pending"
	StatusSuccessful Status = "successful"
	StatusFailed     Status = "failed"
	StatusRefunded   Status = "refunded"
)

// DefaultCurrency is applied when the caller does not specify one.
const DefaultCurrency = "USD"

// Amount represents a monetary amount in the smallest currency unit (e.g. cents).
type Amount struct {
	ValueCents int64
	Currency   string
}

// String returns a human-readable representation of the amount.
func (a Amount) String() string {
	whole := a.ValueCents / 100
	frac := a.ValueCents % 100
	if frac < 0 {
		frac = -frac
	}
	return fmt.Sprintf("%d.%02d %s", whole, frac, a.Currency)
}

// Validate checks that the amount is valid.
func (a Amount) Validate() error {
	return validateAmount(a)
}

// Payment is the durable ledger record of one payment attempt against an order.
// OrderID, PaymentNumber, Amount, PaymentMethod and GatewayName are fixed at
// creation time; only status, gateway reference/response and processed_at
// change over the lifecycle.
type Payment struct {
	ID               uuid.UUID
	OrderID          uuid.UUID
	PaymentNumber    string
	Amount           Amount
	PaymentMethod    string
	GatewayName      string
	GatewayReference *string
	Status           Status
	GatewayResponse  map[string]any
	ProcessedAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewPayment creates a new pending ledger entry for an order.
func NewPayment(orderID uuid.UUID, amount Amount, paymentMethod, gatewayName string) (*Payment, error) {
	if amount.Currency == "" {
		amount.Currency = DefaultCurrency
	}
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if orderID == uuid.Nil {
		return nil, errors.NewValidationError("order_id", "cannot be empty")
	}
	if paymentMethod == "" {
		return nil, errors.NewValidationError("payment_method", "cannot be empty")
	}
	if gatewayName == "" {
		return nil, errors.NewValidationError("gateway_name", "cannot be empty")
	}

	now := time.Now()
	return &Payment{
		ID:            uuid.New(),
		OrderID:       orderID,
		PaymentNumber: NewPaymentNumber(),
		Amount:        amount,
		PaymentMethod: paymentMethod,
		GatewayName:   gatewayName,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// NewPaymentNumber generates a unique human-readable payment reference.
func NewPaymentNumber() string {
	return "PAY-" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:14])
}

// CanTransitionTo checks if the payment can transition to the given status
func (p *Payment) CanTransitionTo(newStatus Status) bool {
	transitions := map[Status][]Status{
		StatusPending: {
			StatusSuccessful,
			StatusFailed,
		},
		StatusSuccessful: {
			StatusRefunded,
		},
		StatusFailed:   {}, // Terminal state
		StatusRefunded: {}, // Terminal state
	}

	allowedTransitions, exists := transitions[p.Status]
	if !exists {
		return false
	}

	for _, allowed := range allowedTransitions {
		if allowed == newStatus {
			return true
		}
	}
	return false
}

// TransitionTo transitions the payment to a new status
func (p *Payment) TransitionTo(newStatus Status) error {
	if !p.CanTransitionTo(newStatus) {
		return errors.NewDomainError(
			"invalid_transition",
			"cannot transition from "+string(p.Status)+" to "+string(newStatus),
			errors.ErrInvalidStateTransition,
		)
	}

	// processed_at is set exactly once, on the first exit from pending.
	if p.Status == StatusPending {
		now := time.Now()
		p.ProcessedAt = &now
	}

	p.Status = newStatus
	p.UpdatedAt = time.Now()
	return nil
}

// MarkSuccessful transitions the payment to successful and records the
// gateway's transaction reference and raw response.
func (p *Payment) MarkSuccessful(gatewayReference string, response map[string]any) error {
	if err := p.TransitionTo(StatusSuccessful); err != nil {
		return err
	}
	p.GatewayReference = &gatewayReference
	p.GatewayResponse = response
	return nil
}

// MarkFailed transitions the payment to failed, recording the gateway response.
func (p *Payment) MarkFailed(response map[string]any) error {
	if err := p.TransitionTo(StatusFailed); err != nil {
		return err
	}
	p.GatewayResponse = response
	return nil
}

// MarkRefunded transitions a successful payment to refunded. The refund
// payload is merged additively under a "refund" key; pre-existing gateway
// response keys are preserved.
func (p *Payment) MarkRefunded(refund map[string]any) error {
	if err := p.TransitionTo(StatusRefunded); err != nil {
		return err
	}

	merged := make(map[string]any, len(p.GatewayResponse)+1)
	for k, v := range p.GatewayResponse {
		merged[k] = v
	}
	merged["refund"] = refund
	p.GatewayResponse = merged
	return nil
}

// IsTerminal checks if the payment is in a terminal state
func (p *Payment) IsTerminal() bool {
	return p.Status == StatusSuccessful ||
		p.Status == StatusFailed ||
		p.Status == StatusRefunded
}

// IsSettled reports whether the payment represents money actually captured.
func (p *Payment) IsSettled() bool {
	return p.Status == StatusSuccessful
}

func validateAmount(amount Amount) error {
	if amount.ValueCents <= 0 {
		return errors.NewValidationError("amount", "must be greater than 0")
	}
	if len(amount.Currency) != 3 {
		return errors.NewValidationError("currency", "must be a 3-letter ISO code")
	}
	return nil
}
