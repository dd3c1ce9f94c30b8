// Package gateway defines the payment gateway contract and the simulated
// implementations that stand in for real processor integrations.
package gateway

import (
	"context"
	"math/rand"

	"github.com/nourhamdy/ordermgmt/internal/domain/payment"
)

// Outcome is the result of a settlement attempt. A declined charge is a
// normal outcome with Success=false, not an error; errors are reserved for
// malformed input and transport/internal faults.
type Outcome struct {
	Success         bool
	TransactionID   string
	Message         string
	GatewayResponse map[string]any
}

// RefundOutcome is the result of a refund attempt.
type RefundOutcome struct {
	Success             bool
	RefundID            string
	TransactionID       string
	AmountRefundedCents int64
	Message             string
	GatewayResponse     map[string]any
}

// Gateway is the contract every payment gateway implementation satisfies.
type Gateway interface {
	// Name returns the stable machine key, e.g. "credit_card".
	Name() string
	// DisplayName returns the human label.
	DisplayName() string
	// ProcessPayment attempts to settle the amount. Method-specific fields
	// (card number, token, ...) travel in data.
	ProcessPayment(ctx context.Context, amount payment.Amount, data map[string]any) (*Outcome, error)
	// Refund reverses a prior settlement, partially when amount is given and
	// less than the original, fully otherwise.
	Refund(ctx context.Context, transactionRef string, amount *payment.Amount) (*RefundOutcome, error)
	// SupportedCurrencies returns the ISO codes the gateway can settle in.
	SupportedCurrencies() []string
	// ValidateCredentials reports whether the gateway has the minimum
	// configuration to be offered to callers. No network calls.
	ValidateCredentials() bool
}

// Decider decides whether a simulated charge is approved. Production wiring
// uses a pseudo-random rate; tests inject a deterministic one.
type Decider func() bool

// RateDecider approves with the given probability.
func RateDecider(rate float64) Decider {
	return func() bool { return rand.Float64() < rate }
}

// Always returns a decider with a fixed answer.
func Always(approve bool) Decider {
	return func() bool { return approve }
}

func stringField(data map[string]any, key string) string {
	if v, ok := data[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
