package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/nourhamdy/ordermgmt/internal/domain/errors"
	"github.com/nourhamdy/ordermgmt/internal/domain/order"
	"github.com/nourhamdy/ordermgmt/internal/service"
	"github.com/nourhamdy/ordermgmt/internal/testutil"
)

type orderServiceFixture struct {
	svc         *service.OrderService
	orderRepo   *testutil.MockOrderRepository
	paymentRepo *testutil.MockPaymentRepository
}

func newOrderServiceFixture(t *testing.T) *orderServiceFixture {
	t.Helper()
	orderRepo := testutil.NewMockOrderRepository()
	paymentRepo := testutil.NewMockPaymentRepository()
	svc := service.NewOrderService(orderRepo, paymentRepo, &testutil.MockTransactionManager{}, nil)
	return &orderServiceFixture{svc: svc, orderRepo: orderRepo, paymentRepo: paymentRepo}
}

func createReq() service.CreateOrderRequest {
	return service.CreateOrderRequest{
		CustomerName:  "Jane Doe",
		CustomerEmail: "jane@example.com",
		Items: []service.OrderItemInput{
			{ProductName: "Widget", Quantity: 2, PriceCents: 2500},
			{ProductName: "Gadget", Quantity: 1, PriceCents: 5000},
		},
		TaxCents:      800,
		ShippingCents: 700,
	}
}

func TestCreateOrder(t *testing.T) {
	f := newOrderServiceFixture(t)

	o, err := f.svc.CreateOrder(context.Background(), "user-1", createReq())
	require.NoError(t, err)

	assert.Equal(t, "user-1", o.UserID)
	assert.Equal(t, order.StatusPending, o.Status)
	assert.Equal(t, int64(10000), o.SubtotalCents)
	assert.Equal(t, int64(11500), o.TotalCents)

	stored, err := f.orderRepo.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.OrderNumber, stored.OrderNumber)
}

func TestCreateOrder_Invalid(t *testing.T) {
	f := newOrderServiceFixture(t)

	req := createReq()
	req.Items = nil
	_, err := f.svc.CreateOrder(context.Background(), "user-1", req)

	var ve *domainErrors.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestGetOrder_Ownership(t *testing.T) {
	f := newOrderServiceFixture(t)
	o, err := f.svc.CreateOrder(context.Background(), "user-1", createReq())
	require.NoError(t, err)

	got, err := f.svc.GetOrder(context.Background(), "user-1", o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)

	_, err = f.svc.GetOrder(context.Background(), "user-2", o.ID)
	assert.ErrorIs(t, err, domainErrors.ErrForbidden)

	_, err = f.svc.GetOrder(context.Background(), "user-1", uuid.New())
	assert.ErrorIs(t, err, domainErrors.ErrOrderNotFound)
}

func TestUpdateOrder(t *testing.T) {
	t.Run("recomputes totals", func(t *testing.T) {
		f := newOrderServiceFixture(t)
		o, err := f.svc.CreateOrder(context.Background(), "user-1", createReq())
		require.NoError(t, err)

		updated, err := f.svc.UpdateOrder(context.Background(), "user-1", o.ID, service.UpdateOrderRequest{
			CustomerName: "Jane Doe",
			Items: []service.OrderItemInput{
				{ProductName: "Widget", Quantity: 1, PriceCents: 2500},
			},
			TaxCents:      200,
			ShippingCents: 300,
		})
		require.NoError(t, err)

		assert.Equal(t, int64(2500), updated.SubtotalCents)
		assert.Equal(t, int64(3000), updated.TotalCents)
		assert.Equal(t, o.ID, updated.ID)
		assert.Equal(t, o.OrderNumber, updated.OrderNumber)
		require.Len(t, updated.Items, 1)
		assert.Equal(t, o.ID, updated.Items[0].OrderID)
	})

	t.Run("refuses non-pending order", func(t *testing.T) {
		f := newOrderServiceFixture(t)
		o, err := f.svc.CreateOrder(context.Background(), "user-1", createReq())
		require.NoError(t, err)
		_, err = f.svc.ConfirmOrder(context.Background(), "user-1", o.ID)
		require.NoError(t, err)

		_, err = f.svc.UpdateOrder(context.Background(), "user-1", o.ID, service.UpdateOrderRequest{
			CustomerName: "Jane",
			Items:        []service.OrderItemInput{{ProductName: "X", Quantity: 1, PriceCents: 100}},
		})
		assert.ErrorIs(t, err, domainErrors.ErrInvalidOrderStatus)
	})

	t.Run("refuses order with ledger entries", func(t *testing.T) {
		f := newOrderServiceFixture(t)
		o, err := f.svc.CreateOrder(context.Background(), "user-1", createReq())
		require.NoError(t, err)
		require.NoError(t, f.paymentRepo.Create(context.Background(), testutil.NewTestPayment(o.ID, o.TotalCents, "credit_card")))

		_, err = f.svc.UpdateOrder(context.Background(), "user-1", o.ID, service.UpdateOrderRequest{
			CustomerName: "Jane",
			Items:        []service.OrderItemInput{{ProductName: "X", Quantity: 1, PriceCents: 100}},
		})
		assert.ErrorIs(t, err, domainErrors.ErrOrderNotEditable)
	})
}

func TestDeleteOrder(t *testing.T) {
	t.Run("deletes order without payments", func(t *testing.T) {
		f := newOrderServiceFixture(t)
		o, err := f.svc.CreateOrder(context.Background(), "user-1", createReq())
		require.NoError(t, err)

		require.NoError(t, f.svc.DeleteOrder(context.Background(), "user-1", o.ID))

		_, err = f.orderRepo.GetByID(context.Background(), o.ID)
		assert.ErrorIs(t, err, domainErrors.ErrOrderNotFound)
	})

	t.Run("refuses order with ledger entries", func(t *testing.T) {
		f := newOrderServiceFixture(t)
		o, err := f.svc.CreateOrder(context.Background(), "user-1", createReq())
		require.NoError(t, err)
		require.NoError(t, f.paymentRepo.Create(context.Background(), testutil.NewTestPayment(o.ID, o.TotalCents, "credit_card")))

		err = f.svc.DeleteOrder(context.Background(), "user-1", o.ID)
		assert.ErrorIs(t, err, domainErrors.ErrOrderNotEditable)
	})
}

func TestConfirmOrder(t *testing.T) {
	f := newOrderServiceFixture(t)
	o, err := f.svc.CreateOrder(context.Background(), "user-1", createReq())
	require.NoError(t, err)

	confirmed, err := f.svc.ConfirmOrder(context.Background(), "user-1", o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusConfirmed, confirmed.Status)

	// Confirming twice is an invalid transition.
	_, err = f.svc.ConfirmOrder(context.Background(), "user-1", o.ID)
	assert.ErrorIs(t, err, domainErrors.ErrInvalidStateTransition)
}

func TestCancelOrder(t *testing.T) {
	t.Run("cancels confirmed order without settlement", func(t *testing.T) {
		f := newOrderServiceFixture(t)
		o, err := f.svc.CreateOrder(context.Background(), "user-1", createReq())
		require.NoError(t, err)
		_, err = f.svc.ConfirmOrder(context.Background(), "user-1", o.ID)
		require.NoError(t, err)

		cancelled, err := f.svc.CancelOrder(context.Background(), "user-1", o.ID)
		require.NoError(t, err)
		assert.Equal(t, order.StatusCancelled, cancelled.Status)
	})

	t.Run("refuses settled order", func(t *testing.T) {
		f := newOrderServiceFixture(t)
		o, err := f.svc.CreateOrder(context.Background(), "user-1", createReq())
		require.NoError(t, err)
		_, err = f.svc.ConfirmOrder(context.Background(), "user-1", o.ID)
		require.NoError(t, err)
		require.NoError(t, f.paymentRepo.Create(context.Background(), testutil.NewSettledPayment(o.ID, o.TotalCents, "credit_card")))

		_, err = f.svc.CancelOrder(context.Background(), "user-1", o.ID)
		assert.ErrorIs(t, err, domainErrors.ErrOrderNotEditable)
	})
}

func TestListOrders_ScopedToCaller(t *testing.T) {
	f := newOrderServiceFixture(t)
	_, err := f.svc.CreateOrder(context.Background(), "user-1", createReq())
	require.NoError(t, err)
	_, err = f.svc.CreateOrder(context.Background(), "user-2", createReq())
	require.NoError(t, err)

	orders, err := f.svc.ListOrders(context.Background(), "user-1", order.ListFilter{})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "user-1", orders[0].UserID)
}
