package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/nourhamdy/ordermgmt/internal/domain/errors"
	"github.com/nourhamdy/ordermgmt/internal/domain/payment"
	"github.com/nourhamdy/ordermgmt/internal/gateway"
	"github.com/nourhamdy/ordermgmt/internal/service"
	"github.com/nourhamdy/ordermgmt/internal/testutil"
)

type paymentServiceFixture struct {
	svc         *service.PaymentService
	orderRepo   *testutil.MockOrderRepository
	paymentRepo *testutil.MockPaymentRepository
	locks       *testutil.MockLockFactory
}

func newPaymentServiceFixture(t *testing.T, decide gateway.Decider) *paymentServiceFixture {
	t.Helper()

	registry, err := gateway.NewRegistry(
		gateway.NewCreditCard(
			gateway.CreditCardConfig{APIKey: "k", APISecret: "s"},
			gateway.WithDecider(decide),
			gateway.WithLatency(0),
		),
		gateway.NewPayPal(
			gateway.PayPalConfig{ClientID: "c", ClientSecret: "s"},
			gateway.WithDecider(decide),
			gateway.WithLatency(0),
		),
	)
	require.NoError(t, err)

	orderRepo := testutil.NewMockOrderRepository()
	paymentRepo := testutil.NewMockPaymentRepository()
	locks := testutil.NewMockLockFactory()

	svc := service.NewPaymentService(
		orderRepo,
		paymentRepo,
		&testutil.MockTransactionManager{},
		registry,
		locks,
		5*time.Second,
		nil,
	)
	return &paymentServiceFixture{
		svc:         svc,
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		locks:       locks,
	}
}

func cardData() map[string]any {
	return map[string]any{
		"card_number": "4111111111111111",
		"expiry_date": "12/27",
		"cvv":         "123",
	}
}

func TestProcessOrderPayment_Success(t *testing.T) {
	f := newPaymentServiceFixture(t, gateway.Always(true))
	o := testutil.NewConfirmedOrder("user-1", 11500)
	require.NoError(t, f.orderRepo.Create(context.Background(), o))

	p, err := f.svc.ProcessOrderPayment(context.Background(), "user-1", service.ProcessOrderPaymentRequest{
		OrderID:       o.ID,
		GatewayName:   "credit_card",
		PaymentMethod: "card",
		PaymentData:   cardData(),
	})
	require.NoError(t, err)

	assert.Equal(t, payment.StatusSuccessful, p.Status)
	assert.Equal(t, int64(11500), p.Amount.ValueCents)
	assert.Equal(t, "USD", p.Amount.Currency)
	require.NotNil(t, p.GatewayReference)
	assert.Equal(t, "CC-", (*p.GatewayReference)[:3])
	assert.NotNil(t, p.ProcessedAt)

	// Exactly one ledger entry, persisted as successful.
	assert.Equal(t, 1, f.paymentRepo.PaymentCount(o.ID))
	stored, err := f.paymentRepo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusSuccessful, stored.Status)

	// Lock was taken per order and released.
	require.Len(t, f.locks.Keys, 1)
	assert.Equal(t, "order-payment:"+o.ID.String(), f.locks.Keys[0])
	assert.Equal(t, 1, f.locks.Lock.Released)
}

func TestProcessOrderPayment_DeclineCommitsFailedEntry(t *testing.T) {
	f := newPaymentServiceFixture(t, gateway.Always(false))
	o := testutil.NewConfirmedOrder("user-1", 11500)
	require.NoError(t, f.orderRepo.Create(context.Background(), o))

	p, err := f.svc.ProcessOrderPayment(context.Background(), "user-1", service.ProcessOrderPaymentRequest{
		OrderID:       o.ID,
		GatewayName:   "credit_card",
		PaymentMethod: "card",
		PaymentData:   cardData(),
	})

	var procErr *domainErrors.PaymentProcessingError
	require.ErrorAs(t, err, &procErr)
	assert.ErrorIs(t, err, domainErrors.ErrPaymentDeclined)
	assert.Equal(t, "Payment declined by bank", procErr.Message)

	// The failed attempt is returned and persisted, never rolled back.
	require.NotNil(t, p)
	assert.Equal(t, payment.StatusFailed, p.Status)
	assert.NotNil(t, p.ProcessedAt)
	assert.Nil(t, p.GatewayReference)

	stored, getErr := f.paymentRepo.GetByID(context.Background(), p.ID)
	require.NoError(t, getErr)
	assert.Equal(t, payment.StatusFailed, stored.Status)
	assert.Equal(t, "declined", stored.GatewayResponse["status"])
}

func TestProcessOrderPayment_InvalidDataCommitsFailedEntry(t *testing.T) {
	f := newPaymentServiceFixture(t, gateway.Always(true))
	o := testutil.NewConfirmedOrder("user-1", 11500)
	require.NoError(t, f.orderRepo.Create(context.Background(), o))

	p, err := f.svc.ProcessOrderPayment(context.Background(), "user-1", service.ProcessOrderPaymentRequest{
		OrderID:       o.ID,
		GatewayName:   "credit_card",
		PaymentMethod: "card",
		PaymentData:   map[string]any{"card_number": "4111111111111111"},
	})

	var procErr *domainErrors.PaymentProcessingError
	require.ErrorAs(t, err, &procErr)
	assert.ErrorIs(t, err, domainErrors.ErrInvalidPaymentData)

	require.NotNil(t, p)
	assert.Equal(t, payment.StatusFailed, p.Status)
	assert.Equal(t, 1, f.paymentRepo.PaymentCount(o.ID))
}

func TestProcessOrderPayment_UnsupportedGatewayCommitsFailedEntry(t *testing.T) {
	f := newPaymentServiceFixture(t, gateway.Always(true))
	o := testutil.NewConfirmedOrder("user-1", 11500)
	require.NoError(t, f.orderRepo.Create(context.Background(), o))

	p, err := f.svc.ProcessOrderPayment(context.Background(), "user-1", service.ProcessOrderPaymentRequest{
		OrderID:       o.ID,
		GatewayName:   "bitcoin",
		PaymentMethod: "crypto",
		PaymentData:   map[string]any{},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domainErrors.ErrUnsupportedGateway)

	require.NotNil(t, p)
	assert.Equal(t, payment.StatusFailed, p.Status)
	assert.Equal(t, 1, f.paymentRepo.PaymentCount(o.ID))
}

func TestProcessOrderPayment_OrderStateChecks(t *testing.T) {
	t.Run("pending order leaves no ledger entry", func(t *testing.T) {
		f := newPaymentServiceFixture(t, gateway.Always(true))
		o := testutil.NewTestOrder("user-1", 11500)
		require.NoError(t, f.orderRepo.Create(context.Background(), o))

		p, err := f.svc.ProcessOrderPayment(context.Background(), "user-1", service.ProcessOrderPaymentRequest{
			OrderID:       o.ID,
			GatewayName:   "credit_card",
			PaymentMethod: "card",
			PaymentData:   cardData(),
		})
		assert.ErrorIs(t, err, domainErrors.ErrOrderNotConfirmed)
		assert.Nil(t, p)
		assert.Equal(t, 0, f.paymentRepo.PaymentCount(o.ID))
	})

	t.Run("order not found", func(t *testing.T) {
		f := newPaymentServiceFixture(t, gateway.Always(true))
		_, err := f.svc.ProcessOrderPayment(context.Background(), "user-1", service.ProcessOrderPaymentRequest{
			OrderID:     uuid.New(),
			GatewayName: "credit_card",
		})
		assert.ErrorIs(t, err, domainErrors.ErrOrderNotFound)
	})

	t.Run("foreign order is forbidden", func(t *testing.T) {
		f := newPaymentServiceFixture(t, gateway.Always(true))
		o := testutil.NewConfirmedOrder("user-1", 11500)
		require.NoError(t, f.orderRepo.Create(context.Background(), o))

		_, err := f.svc.ProcessOrderPayment(context.Background(), "user-2", service.ProcessOrderPaymentRequest{
			OrderID:     o.ID,
			GatewayName: "credit_card",
		})
		assert.ErrorIs(t, err, domainErrors.ErrForbidden)
	})
}

func TestProcessOrderPayment_Serialization(t *testing.T) {
	t.Run("lock contention", func(t *testing.T) {
		f := newPaymentServiceFixture(t, gateway.Always(true))
		f.locks.Lock.AcquireResult = false

		o := testutil.NewConfirmedOrder("user-1", 11500)
		require.NoError(t, f.orderRepo.Create(context.Background(), o))

		_, err := f.svc.ProcessOrderPayment(context.Background(), "user-1", service.ProcessOrderPaymentRequest{
			OrderID:       o.ID,
			GatewayName:   "credit_card",
			PaymentMethod: "card",
			PaymentData:   cardData(),
		})
		assert.ErrorIs(t, err, domainErrors.ErrPaymentInProgress)
		assert.Equal(t, 0, f.paymentRepo.PaymentCount(o.ID))
	})

	t.Run("already settled", func(t *testing.T) {
		f := newPaymentServiceFixture(t, gateway.Always(true))
		o := testutil.NewConfirmedOrder("user-1", 11500)
		require.NoError(t, f.orderRepo.Create(context.Background(), o))
		require.NoError(t, f.paymentRepo.Create(context.Background(), testutil.NewSettledPayment(o.ID, 11500, "credit_card")))

		_, err := f.svc.ProcessOrderPayment(context.Background(), "user-1", service.ProcessOrderPaymentRequest{
			OrderID:       o.ID,
			GatewayName:   "credit_card",
			PaymentMethod: "card",
			PaymentData:   cardData(),
		})
		assert.ErrorIs(t, err, domainErrors.ErrPaymentAlreadySettled)
		assert.Equal(t, 1, f.paymentRepo.PaymentCount(o.ID))
	})

	t.Run("lock acquire error", func(t *testing.T) {
		f := newPaymentServiceFixture(t, gateway.Always(true))
		f.locks.Lock.AcquireErr = errors.New("redis down")

		o := testutil.NewConfirmedOrder("user-1", 11500)
		require.NoError(t, f.orderRepo.Create(context.Background(), o))

		_, err := f.svc.ProcessOrderPayment(context.Background(), "user-1", service.ProcessOrderPaymentRequest{
			OrderID:       o.ID,
			GatewayName:   "credit_card",
			PaymentMethod: "card",
			PaymentData:   cardData(),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis down")
	})
}

func TestRefundPayment_Full(t *testing.T) {
	f := newPaymentServiceFixture(t, gateway.Always(true))
	o := testutil.NewConfirmedOrder("user-1", 11500)
	require.NoError(t, f.orderRepo.Create(context.Background(), o))
	settled := testutil.NewSettledPayment(o.ID, 11500, "credit_card")
	require.NoError(t, f.paymentRepo.Create(context.Background(), settled))

	p, outcome, err := f.svc.RefundPayment(context.Background(), "user-1", service.RefundRequest{PaymentID: settled.ID})
	require.NoError(t, err)

	assert.True(t, outcome.Success)
	assert.Equal(t, int64(11500), outcome.AmountRefundedCents)
	assert.Equal(t, payment.StatusRefunded, p.Status)

	// Refund payload merged under "refund"; original response keys intact.
	assert.Equal(t, "approved", p.GatewayResponse["status"])
	refund, ok := p.GatewayResponse["refund"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, int64(11500), refund["amount_refunded_cents"])

	stored, err := f.paymentRepo.GetByID(context.Background(), settled.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusRefunded, stored.Status)
}

func TestRefundPayment_Partial(t *testing.T) {
	f := newPaymentServiceFixture(t, gateway.Always(true))
	o := testutil.NewConfirmedOrder("user-1", 11500)
	require.NoError(t, f.orderRepo.Create(context.Background(), o))
	settled := testutil.NewSettledPayment(o.ID, 11500, "credit_card")
	require.NoError(t, f.paymentRepo.Create(context.Background(), settled))

	p, outcome, err := f.svc.RefundPayment(context.Background(), "user-1", service.RefundRequest{
		PaymentID:   settled.ID,
		AmountCents: testutil.Int64Ptr(5000),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(5000), outcome.AmountRefundedCents)
	assert.Equal(t, payment.StatusRefunded, p.Status)
}

func TestRefundPayment_Guards(t *testing.T) {
	f := newPaymentServiceFixture(t, gateway.Always(true))
	o := testutil.NewConfirmedOrder("user-1", 11500)
	require.NoError(t, f.orderRepo.Create(context.Background(), o))

	t.Run("only successful payments", func(t *testing.T) {
		pending := testutil.NewTestPayment(o.ID, 11500, "credit_card")
		require.NoError(t, f.paymentRepo.Create(context.Background(), pending))

		_, _, err := f.svc.RefundPayment(context.Background(), "user-1", service.RefundRequest{PaymentID: pending.ID})
		assert.ErrorIs(t, err, domainErrors.ErrRefundNotAllowed)
	})

	t.Run("amount bounds", func(t *testing.T) {
		settled := testutil.NewSettledPayment(o.ID, 11500, "credit_card")
		require.NoError(t, f.paymentRepo.Create(context.Background(), settled))

		for _, cents := range []int64{0, -100, 11501} {
			_, _, err := f.svc.RefundPayment(context.Background(), "user-1", service.RefundRequest{
				PaymentID:   settled.ID,
				AmountCents: testutil.Int64Ptr(cents),
			})
			assert.ErrorIs(t, err, domainErrors.ErrInvalidRefundAmount)
		}
	})

	t.Run("foreign payment is forbidden", func(t *testing.T) {
		settled := testutil.NewSettledPayment(o.ID, 11500, "credit_card")
		require.NoError(t, f.paymentRepo.Create(context.Background(), settled))

		_, _, err := f.svc.RefundPayment(context.Background(), "user-2", service.RefundRequest{PaymentID: settled.ID})
		assert.ErrorIs(t, err, domainErrors.ErrForbidden)
	})

	t.Run("payment not found", func(t *testing.T) {
		_, _, err := f.svc.RefundPayment(context.Background(), "user-1", service.RefundRequest{PaymentID: uuid.New()})
		assert.ErrorIs(t, err, domainErrors.ErrPaymentNotFound)
	})
}

func TestGetPayment(t *testing.T) {
	f := newPaymentServiceFixture(t, gateway.Always(true))
	o := testutil.NewConfirmedOrder("user-1", 11500)
	require.NoError(t, f.orderRepo.Create(context.Background(), o))
	settled := testutil.NewSettledPayment(o.ID, 11500, "credit_card")
	require.NoError(t, f.paymentRepo.Create(context.Background(), settled))

	p, err := f.svc.GetPayment(context.Background(), "user-1", settled.ID)
	require.NoError(t, err)
	assert.Equal(t, settled.ID, p.ID)

	_, err = f.svc.GetPayment(context.Background(), "user-2", settled.ID)
	assert.ErrorIs(t, err, domainErrors.ErrForbidden)
}

func TestListPayments_ScopedToCaller(t *testing.T) {
	f := newPaymentServiceFixture(t, gateway.Always(true))

	mine := testutil.NewConfirmedOrder("user-1", 1000)
	theirs := testutil.NewConfirmedOrder("user-2", 2000)
	f.paymentRepo.SetOrderOwner(mine.ID, "user-1")
	f.paymentRepo.SetOrderOwner(theirs.ID, "user-2")
	require.NoError(t, f.paymentRepo.Create(context.Background(), testutil.NewSettledPayment(mine.ID, 1000, "credit_card")))
	require.NoError(t, f.paymentRepo.Create(context.Background(), testutil.NewSettledPayment(theirs.ID, 2000, "paypal")))

	payments, err := f.svc.ListPayments(context.Background(), "user-1", payment.ListFilter{})
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, mine.ID, payments[0].OrderID)
}

func TestAvailableGateways(t *testing.T) {
	f := newPaymentServiceFixture(t, gateway.Always(true))
	infos := f.svc.AvailableGateways()
	require.Len(t, infos, 2)
	assert.Equal(t, "credit_card", infos[0].Name)
	assert.Equal(t, "paypal", infos[1].Name)
}
