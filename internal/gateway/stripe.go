package gateway

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	domainErrors "github.com/nourhamdy/ordermgmt/internal/domain/errors"
	"github.com/nourhamdy/ordermgmt/internal/domain/payment"
)

// StripeConfig holds the Stripe API keys.
type StripeConfig struct {
	APIKey      string
	SecretKey   string
	Environment string
}

// Stripe is a simulated Stripe gateway with a 98% approval rate. It accepts
// either a tokenized payment method or a raw card number.
type Stripe struct {
	cfg StripeConfig
	sim sim
}

// NewStripe creates the Stripe gateway.
func NewStripe(cfg StripeConfig, opts ...Option) *Stripe {
	return &Stripe{cfg: cfg, sim: newSim(0.98, opts...)}
}

func (g *Stripe) Name() string        { return "stripe" }
func (g *Stripe) DisplayName() string { return "Stripe" }

func (g *Stripe) SupportedCurrencies() []string {
	return []string{"USD", "EUR", "GBP", "JPY", "CAD", "AUD", "CHF"}
}

func (g *Stripe) ValidateCredentials() bool {
	return g.cfg.APIKey != ""
}

// ProcessPayment simulates a Stripe charge.
func (g *Stripe) ProcessPayment(ctx context.Context, amount payment.Amount, data map[string]any) (*Outcome, error) {
	token := stringField(data, "stripe_token")
	cardNumber := stringField(data, "card_number")
	if token == "" && cardNumber == "" {
		return nil, domainErrors.NewDomainError("missing_token", "stripe token or card number is required", domainErrors.ErrInvalidPaymentData)
	}

	if err := waitLatency(ctx, g.sim.latency); err != nil {
		return nil, err
	}

	if !g.sim.decide() {
		return &Outcome{
			Success: false,
			Message: "Stripe payment failed",
			GatewayResponse: map[string]any{
				"status": "failed",
				"reason": "Card declined",
			},
		}, nil
	}

	txID := "STRIPE-" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:12])
	method := stringField(data, "payment_method")
	if method == "" {
		method = "card"
	}
	return &Outcome{
		Success:       true,
		TransactionID: txID,
		Message:       "Stripe payment processed successfully",
		GatewayResponse: map[string]any{
			"status":           "succeeded",
			"stripe_charge_id": txID,
			"payment_method":   method,
			"transaction_time": time.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}

// Refund simulates a Stripe refund, which always succeeds.
func (g *Stripe) Refund(ctx context.Context, transactionRef string, amount *payment.Amount) (*RefundOutcome, error) {
	if transactionRef == "" {
		return nil, domainErrors.NewDomainError("invalid_refund", "transaction reference is required", domainErrors.ErrInvalidPaymentData)
	}

	if err := waitLatency(ctx, g.sim.latency); err != nil {
		return nil, err
	}

	var cents int64
	if amount != nil {
		cents = amount.ValueCents
	}
	return &RefundOutcome{
		Success:             true,
		RefundID:            "STRREF-" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:12]),
		TransactionID:       transactionRef,
		AmountRefundedCents: cents,
		Message:             "Stripe refund processed successfully",
		GatewayResponse: map[string]any{
			"status": "refunded",
		},
	}, nil
}
