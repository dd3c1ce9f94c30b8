package gateway

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	domainErrors "github.com/nourhamdy/ordermgmt/internal/domain/errors"
	"github.com/nourhamdy/ordermgmt/internal/domain/payment"
)

// PayPalConfig holds the PayPal application credentials.
type PayPalConfig struct {
	ClientID     string
	ClientSecret string
	Environment  string
}

// PayPal is a simulated wallet-style gateway with a 95% approval rate.
type PayPal struct {
	cfg PayPalConfig
	sim sim
}

// NewPayPal creates the PayPal gateway.
func NewPayPal(cfg PayPalConfig, opts ...Option) *PayPal {
	return &PayPal{cfg: cfg, sim: newSim(0.95, opts...)}
}

func (g *PayPal) Name() string        { return "paypal" }
func (g *PayPal) DisplayName() string { return "PayPal" }

func (g *PayPal) SupportedCurrencies() []string {
	return []string{"USD", "EUR", "GBP", "JPY", "CAD", "AUD"}
}

func (g *PayPal) ValidateCredentials() bool {
	return g.cfg.ClientID != "" && g.cfg.ClientSecret != ""
}

// ProcessPayment simulates a wallet settlement authorized by a token.
func (g *PayPal) ProcessPayment(ctx context.Context, amount payment.Amount, data map[string]any) (*Outcome, error) {
	token := stringField(data, "paypal_token")
	if token == "" {
		return nil, domainErrors.NewDomainError("missing_token", "paypal token is required", domainErrors.ErrInvalidPaymentData)
	}

	if err := waitLatency(ctx, g.sim.latency); err != nil {
		return nil, err
	}

	if !g.sim.decide() {
		return &Outcome{
			Success: false,
			Message: "PayPal payment failed",
			GatewayResponse: map[string]any{
				"status": "FAILED",
				"reason": "Payment authorization failed",
			},
		}, nil
	}

	txID := "PP-" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:12])
	payerEmail := stringField(data, "payer_email")
	if payerEmail == "" {
		payerEmail = "customer@example.com"
	}
	return &Outcome{
		Success:       true,
		TransactionID: txID,
		Message:       "PayPal payment processed successfully",
		GatewayResponse: map[string]any{
			"status":           "COMPLETED",
			"paypal_order_id":  txID,
			"payer_email":      payerEmail,
			"transaction_time": time.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}

// Refund simulates a PayPal refund, which always succeeds.
func (g *PayPal) Refund(ctx context.Context, transactionRef string, amount *payment.Amount) (*RefundOutcome, error) {
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
		RefundID:            "PPREF-" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:12]),
		TransactionID:       transactionRef,
		AmountRefundedCents: cents,
		Message:             "PayPal refund processed successfully",
		GatewayResponse: map[string]any{
			"status": "REFUNDED",
		},
	}, nil
}
