package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	domainErrors "github.com/nourhamdy/ordermgmt/internal/domain/errors"
	"github.com/nourhamdy/ordermgmt/internal/domain/order"
	"github.com/nourhamdy/ordermgmt/internal/domain/payment"
	"github.com/nourhamdy/ordermgmt/internal/gateway"
	"github.com/nourhamdy/ordermgmt/internal/infrastructure/observability"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("ordermgmt/service")

// PaymentService orchestrates the settlement workflow: order-state checks,
// ledger writes, gateway invocation and refunds, all inside one transaction
// per attempt.
type PaymentService struct {
	orderRepo      order.Repository
	paymentRepo    payment.Repository
	txManager      TransactionManager
	registry       *gateway.Registry
	locks          LockFactory
	gatewayTimeout time.Duration
	metrics        *observability.Metrics
}

// NewPaymentService creates a new PaymentService. metrics may be nil.
func NewPaymentService(
	orderRepo order.Repository,
	paymentRepo payment.Repository,
	txManager TransactionManager,
	registry *gateway.Registry,
	locks LockFactory,
	gatewayTimeout time.Duration,
	metrics *observability.Metrics,
) *PaymentService {
	if gatewayTimeout <= 0 {
		gatewayTimeout = 30 * time.Second
	}
	return &PaymentService{
		orderRepo:      orderRepo,
		paymentRepo:    paymentRepo,
		txManager:      txManager,
		registry:       registry,
		locks:          locks,
		gatewayTimeout: gatewayTimeout,
		metrics:        metrics,
	}
}

// ProcessOrderPaymentRequest holds the validated input for a settlement attempt.
type ProcessOrderPaymentRequest struct {
	OrderID       uuid.UUID
	GatewayName   string
	PaymentMethod string
	PaymentData   map[string]any
}

// ProcessOrderPayment settles the order total through the named gateway and
// returns the resulting ledger entry. The entry is created pending before the
// gateway is invoked and finalized in the same transaction; a declined or
// errored attempt still commits a failed entry, and the typed error returned
// alongside it carries the cause.
func (s *PaymentService) ProcessOrderPayment(ctx context.Context, callerID string, req ProcessOrderPaymentRequest) (*payment.Payment, error) {
	o, err := s.orderRepo.GetByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if !o.IsOwnedBy(callerID) {
		return nil, domainErrors.ErrForbidden
	}
	if !o.IsConfirmed() {
		return nil, domainErrors.ErrOrderNotConfirmed
	}

	// Serialize attempts per order so two callers cannot both settle it.
	lock := s.locks.NewLock("order-payment:" + o.ID.String())
	acquired, err := lock.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire order lock: %w", err)
	}
	if !acquired {
		return nil, domainErrors.ErrPaymentInProgress
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			log.Warn().Err(err).Str("order_id", o.ID.String()).Msg("failed to release order payment lock")
		}
	}()

	settled, err := s.paymentRepo.HasSettled(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	if settled {
		return nil, domainErrors.ErrPaymentAlreadySettled
	}

	p, err := payment.NewPayment(
		o.ID,
		payment.Amount{ValueCents: o.TotalCents, Currency: payment.DefaultCurrency},
		req.PaymentMethod,
		req.GatewayName,
	)
	if err != nil {
		return nil, err
	}

	// The transaction commits on every gateway outcome, including failures:
	// a declined attempt must leave a failed row, never no row. procErr
	// carries the settlement failure past the commit.
	var procErr error
	txErr := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.paymentRepo.Create(txCtx, p); err != nil {
			return err
		}

		gw, breaker, err := s.registry.Resolve(req.GatewayName)
		if err != nil {
			procErr = s.recordFailure(txCtx, p, map[string]any{"error": err.Error()}, err)
			return nil
		}

		gwCtx, cancel := context.WithTimeout(txCtx, s.gatewayTimeout)
		defer cancel()

		gwCtx, span := tracer.Start(gwCtx, "gateway.process_payment", trace.WithAttributes(
			attribute.String("gateway", req.GatewayName),
			attribute.String("order_id", o.ID.String()),
		))
		outcome, callErr := breaker.Execute(func() (*gateway.Outcome, error) {
			return gw.ProcessPayment(gwCtx, p.Amount, req.PaymentData)
		})
		span.End()
		if callErr != nil {
			if stderrors.Is(callErr, context.DeadlineExceeded) {
				callErr = fmt.Errorf("%w: %v", domainErrors.ErrGatewayTimeout, callErr)
			}
			procErr = s.recordFailure(txCtx, p, map[string]any{
				"error":     callErr.Error(),
				"exception": fmt.Sprintf("%T", callErr),
			}, callErr)
			return nil
		}

		if !outcome.Success {
			if err := p.MarkFailed(outcome.GatewayResponse); err != nil {
				return err
			}
			if err := s.paymentRepo.Update(txCtx, p); err != nil {
				return err
			}
			procErr = domainErrors.NewPaymentProcessingError(outcome.Message, outcome.GatewayResponse, domainErrors.ErrPaymentDeclined)
			return nil
		}

		if err := p.MarkSuccessful(outcome.TransactionID, outcome.GatewayResponse); err != nil {
			return err
		}
		return s.paymentRepo.Update(txCtx, p)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.observe(p)

	if procErr != nil {
		// The failed entry persists for audit even though the call errors.
		return p, procErr
	}
	return p, nil
}

// recordFailure finalizes the ledger entry as failed (only while still
// pending, never overwriting a terminal state) and returns the typed error to
// surface. Persistence problems are logged, not allowed to mask the cause.
func (s *PaymentService) recordFailure(ctx context.Context, p *payment.Payment, payload map[string]any, cause error) error {
	if p.Status == payment.StatusPending {
		if err := p.MarkFailed(payload); err != nil {
			log.Error().Err(err).Str("payment_id", p.ID.String()).Msg("failed to mark payment failed")
		} else if err := s.paymentRepo.Update(ctx, p); err != nil {
			log.Error().Err(err).Str("payment_id", p.ID.String()).Msg("failed to persist failed payment")
		}
	}
	return domainErrors.NewPaymentProcessingError(cause.Error(), payload, cause)
}

// RefundRequest holds the validated input for a refund.
type RefundRequest struct {
	PaymentID uuid.UUID
	// AmountCents is the partial refund amount; nil refunds the full amount.
	AmountCents *int64
}

// RefundPayment reverses a successful settlement. A refund the gateway
// declines is returned as a failed outcome with the ledger entry untouched;
// an error talking to the gateway is returned as an error.
func (s *PaymentService) RefundPayment(ctx context.Context, callerID string, req RefundRequest) (*payment.Payment, *gateway.RefundOutcome, error) {
	p, err := s.paymentRepo.GetByID(ctx, req.PaymentID)
	if err != nil {
		return nil, nil, err
	}

	o, err := s.orderRepo.GetByID(ctx, p.OrderID)
	if err != nil {
		return nil, nil, err
	}
	if !o.IsOwnedBy(callerID) {
		return nil, nil, domainErrors.ErrForbidden
	}

	if p.Status != payment.StatusSuccessful {
		return nil, nil, domainErrors.ErrRefundNotAllowed
	}

	amountCents := p.Amount.ValueCents
	if req.AmountCents != nil {
		if *req.AmountCents <= 0 || *req.AmountCents > p.Amount.ValueCents {
			return nil, nil, domainErrors.ErrInvalidRefundAmount
		}
		amountCents = *req.AmountCents
	}

	gw, _, err := s.registry.Resolve(p.GatewayName)
	if err != nil {
		return nil, nil, err
	}
	if p.GatewayReference == nil {
		return nil, nil, domainErrors.NewDomainError("missing_reference", "payment has no gateway reference", nil)
	}

	gwCtx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	gwCtx, span := tracer.Start(gwCtx, "gateway.refund", trace.WithAttributes(
		attribute.String("gateway", p.GatewayName),
		attribute.String("payment_id", p.ID.String()),
	))
	refundAmount := payment.Amount{ValueCents: amountCents, Currency: p.Amount.Currency}
	outcome, err := gw.Refund(gwCtx, *p.GatewayReference, &refundAmount)
	span.End()
	if err != nil {
		return nil, nil, fmt.Errorf("gateway refund: %w", err)
	}

	if !outcome.Success {
		// The attempt failed but the settlement stands.
		s.countRefund(p.GatewayName, "declined")
		return p, outcome, nil
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := p.MarkRefunded(refundPayload(outcome)); err != nil {
			return err
		}
		return s.paymentRepo.Update(txCtx, p)
	})
	if err != nil {
		return nil, nil, err
	}

	s.observe(p)
	s.countRefund(p.GatewayName, "refunded")
	return p, outcome, nil
}

// GetPayment returns a ledger entry, enforcing order ownership.
func (s *PaymentService) GetPayment(ctx context.Context, callerID string, id uuid.UUID) (*payment.Payment, error) {
	p, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	o, err := s.orderRepo.GetByID(ctx, p.OrderID)
	if err != nil {
		return nil, err
	}
	if !o.IsOwnedBy(callerID) {
		return nil, domainErrors.ErrForbidden
	}
	return p, nil
}

// ListPayments lists the caller's ledger entries with optional filters.
func (s *PaymentService) ListPayments(ctx context.Context, callerID string, filter payment.ListFilter) ([]*payment.Payment, error) {
	filter.UserID = &callerID
	return s.paymentRepo.List(ctx, filter)
}

// AvailableGateways lists the gateways callers may pay through.
func (s *PaymentService) AvailableGateways() []gateway.Info {
	return s.registry.ListAvailable()
}

func refundPayload(outcome *gateway.RefundOutcome) map[string]any {
	return map[string]any{
		"success":               outcome.Success,
		"refund_id":             outcome.RefundID,
		"transaction_id":        outcome.TransactionID,
		"amount_refunded_cents": outcome.AmountRefundedCents,
		"message":               outcome.Message,
		"gateway_response":      outcome.GatewayResponse,
	}
}

func (s *PaymentService) countRefund(gatewayName, result string) {
	if s.metrics == nil {
		return
	}
	s.metrics.RefundsTotal.WithLabelValues(gatewayName, result).Inc()
}

func (s *PaymentService) observe(p *payment.Payment) {
	if s.metrics == nil {
		return
	}
	s.metrics.PaymentsTotal.WithLabelValues(p.GatewayName, string(p.Status)).Inc()
	if p.ProcessedAt != nil {
		s.metrics.PaymentDuration.WithLabelValues(p.GatewayName, string(p.Status)).
			Observe(p.ProcessedAt.Sub(p.CreatedAt).Seconds())
	}
}
