package gateway

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	domainErrors "github.com/nourhamdy/ordermgmt/internal/domain/errors"
	"github.com/nourhamdy/ordermgmt/internal/domain/payment"
)

// CreditCardConfig holds the processor credentials for the card gateway.
type CreditCardConfig struct {
	APIKey      string
	APISecret   string
	Environment string
}

// CreditCard is a simulated card-network gateway with a 90% approval rate.
type CreditCard struct {
	cfg CreditCardConfig
	sim sim
}

// NewCreditCard creates the credit card gateway.
func NewCreditCard(cfg CreditCardConfig, opts ...Option) *CreditCard {
	return &CreditCard{cfg: cfg, sim: newSim(0.90, opts...)}
}

func (g *CreditCard) Name() string        { return "credit_card" }
func (g *CreditCard) DisplayName() string { return "Credit Card" }

func (g *CreditCard) SupportedCurrencies() []string {
	return []string{"USD", "EUR", "GBP", "CAD", "AUD"}
}

func (g *CreditCard) ValidateCredentials() bool {
	return g.cfg.APIKey != "" && g.cfg.APISecret != ""
}

// ProcessPayment simulates a card settlement. Missing card details are a
// caller error, distinct from a declined charge.
func (g *CreditCard) ProcessPayment(ctx context.Context, amount payment.Amount, data map[string]any) (*Outcome, error) {
	cardNumber := stringField(data, "card_number")
	expiry := stringField(data, "expiry_date")
	cvv := stringField(data, "cvv")

	if cardNumber == "" || expiry == "" || cvv == "" {
		return nil, domainErrors.NewDomainError("invalid_card", "invalid card details", domainErrors.ErrInvalidPaymentData)
	}

	if err := waitLatency(ctx, g.sim.latency); err != nil {
		return nil, err
	}

	if !g.sim.decide() {
		return &Outcome{
			Success: false,
			Message: "Payment declined by bank",
			GatewayResponse: map[string]any{
				"status": "declined",
				"reason": "Insufficient funds",
			},
		}, nil
	}

	txID := "CC-" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:12])
	return &Outcome{
		Success:       true,
		TransactionID: txID,
		Message:       "Payment processed successfully",
		GatewayResponse: map[string]any{
			"status":           "approved",
			"auth_code":        authCode(),
			"transaction_time": time.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}

// Refund simulates a card refund, which always succeeds.
func (g *CreditCard) Refund(ctx context.Context, transactionRef string, amount *payment.Amount) (*RefundOutcome, error) {
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
		RefundID:            "REF-" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:12]),
		TransactionID:       transactionRef,
		AmountRefundedCents: cents,
		Message:             "Refund processed successfully",
		GatewayResponse: map[string]any{
			"status": "refunded",
		},
	}, nil
}

func authCode() string {
	buf := make([]byte, 6)
	rand.Read(buf)
	return strings.ToUpper(hex.EncodeToString(buf))
}

func waitLatency(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
