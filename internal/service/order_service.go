package service

import (
	"context"

	"github.com/google/uuid"
	domainErrors "github.com/nourhamdy/ordermgmt/internal/domain/errors"
	"github.com/nourhamdy/ordermgmt/internal/domain/order"
	"github.com/nourhamdy/ordermgmt/internal/domain/payment"
	"github.com/nourhamdy/ordermgmt/internal/infrastructure/observability"
)

// OrderService handles order CRUD and status transitions. Orders become
// immutable once any payment attempt has been recorded against them.
type OrderService struct {
	orderRepo   order.Repository
	paymentRepo payment.Repository
	txManager   TransactionManager
	metrics     *observability.Metrics
}

// NewOrderService creates a new OrderService. metrics may be nil.
func NewOrderService(orderRepo order.Repository, paymentRepo payment.Repository, txManager TransactionManager, metrics *observability.Metrics) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		txManager:   txManager,
		metrics:     metrics,
	}
}

func (s *OrderService) countTransition(status order.Status) {
	if s.metrics == nil {
		return
	}
	s.metrics.OrdersTotal.WithLabelValues(string(status)).Inc()
}

// OrderItemInput is one line item in a create/update request.
type OrderItemInput struct {
	ProductName string
	Quantity    int
	PriceCents  int64
}

// CreateOrderRequest holds the validated input for creating an order.
type CreateOrderRequest struct {
	CustomerName    string
	CustomerEmail   string
	CustomerAddress string
	CustomerPhone   string
	Items           []OrderItemInput
	TaxCents        int64
	ShippingCents   int64
	Notes           string
}

// CreateOrder creates a pending order owned by the caller.
func (s *OrderService) CreateOrder(ctx context.Context, callerID string, req CreateOrderRequest) (*order.Order, error) {
	items := make([]order.Item, 0, len(req.Items))
	for _, in := range req.Items {
		items = append(items, order.Item{
			ProductName: in.ProductName,
			Quantity:    in.Quantity,
			PriceCents:  in.PriceCents,
		})
	}

	o, err := order.NewOrder(
		callerID,
		req.CustomerName, req.CustomerEmail, req.CustomerAddress, req.CustomerPhone,
		items, req.TaxCents, req.ShippingCents, req.Notes,
	)
	if err != nil {
		return nil, err
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.orderRepo.Create(txCtx, o)
	})
	if err != nil {
		return nil, err
	}
	s.countTransition(o.Status)
	return o, nil
}

// GetOrder returns an order owned by the caller.
func (s *OrderService) GetOrder(ctx context.Context, callerID string, id uuid.UUID) (*order.Order, error) {
	o, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.IsOwnedBy(callerID) {
		return nil, domainErrors.ErrForbidden
	}
	return o, nil
}

// ListOrders lists the caller's orders with optional filters.
func (s *OrderService) ListOrders(ctx context.Context, callerID string, filter order.ListFilter) ([]*order.Order, error) {
	filter.UserID = &callerID
	return s.orderRepo.List(ctx, filter)
}

// UpdateOrderRequest holds the fields an order update may change.
type UpdateOrderRequest struct {
	CustomerName    string
	CustomerEmail   string
	CustomerAddress string
	CustomerPhone   string
	Items           []OrderItemInput
	TaxCents        int64
	ShippingCents   int64
	Notes           string
}

// UpdateOrder replaces the details and items of a pending order. An order
// with any ledger entry is immutable.
func (s *OrderService) UpdateOrder(ctx context.Context, callerID string, id uuid.UUID, req UpdateOrderRequest) (*order.Order, error) {
	o, err := s.GetOrder(ctx, callerID, id)
	if err != nil {
		return nil, err
	}
	if o.Status != order.StatusPending {
		return nil, domainErrors.NewDomainError("not_pending", "only pending orders can be updated", domainErrors.ErrInvalidOrderStatus)
	}
	if err := s.requireNoPayments(ctx, o.ID); err != nil {
		return nil, err
	}

	items := make([]order.Item, 0, len(req.Items))
	for _, in := range req.Items {
		items = append(items, order.Item{
			ProductName: in.ProductName,
			Quantity:    in.Quantity,
			PriceCents:  in.PriceCents,
		})
	}

	// Rebuild through the constructor to revalidate and recompute totals,
	// then graft the result onto the stored identity.
	rebuilt, err := order.NewOrder(
		o.UserID,
		req.CustomerName, req.CustomerEmail, req.CustomerAddress, req.CustomerPhone,
		items, req.TaxCents, req.ShippingCents, req.Notes,
	)
	if err != nil {
		return nil, err
	}

	o.CustomerName = rebuilt.CustomerName
	o.CustomerEmail = rebuilt.CustomerEmail
	o.CustomerAddress = rebuilt.CustomerAddress
	o.CustomerPhone = rebuilt.CustomerPhone
	o.Notes = rebuilt.Notes
	o.SubtotalCents = rebuilt.SubtotalCents
	o.TaxCents = rebuilt.TaxCents
	o.ShippingCents = rebuilt.ShippingCents
	o.TotalCents = rebuilt.TotalCents
	o.Items = make([]order.Item, len(rebuilt.Items))
	for i, it := range rebuilt.Items {
		it.OrderID = o.ID
		o.Items[i] = it
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.orderRepo.Update(txCtx, o)
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

// DeleteOrder removes an order that has no ledger entries.
func (s *OrderService) DeleteOrder(ctx context.Context, callerID string, id uuid.UUID) error {
	o, err := s.GetOrder(ctx, callerID, id)
	if err != nil {
		return err
	}
	if err := s.requireNoPayments(ctx, o.ID); err != nil {
		return err
	}

	return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.orderRepo.Delete(txCtx, o.ID)
	})
}

// ConfirmOrder marks a pending order as confirmed, making it payable.
func (s *OrderService) ConfirmOrder(ctx context.Context, callerID string, id uuid.UUID) (*order.Order, error) {
	o, err := s.GetOrder(ctx, callerID, id)
	if err != nil {
		return nil, err
	}
	if err := o.Confirm(); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Update(ctx, o); err != nil {
		return nil, err
	}
	s.countTransition(o.Status)
	return o, nil
}

// CancelOrder cancels an order unless money has already been captured for it.
func (s *OrderService) CancelOrder(ctx context.Context, callerID string, id uuid.UUID) (*order.Order, error) {
	o, err := s.GetOrder(ctx, callerID, id)
	if err != nil {
		return nil, err
	}

	settled, err := s.paymentRepo.HasSettled(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	if settled {
		return nil, domainErrors.ErrOrderNotEditable
	}

	if err := o.Cancel(); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Update(ctx, o); err != nil {
		return nil, err
	}
	s.countTransition(o.Status)
	return o, nil
}

func (s *OrderService) requireNoPayments(ctx context.Context, orderID uuid.UUID) error {
	existing, err := s.paymentRepo.List(ctx, payment.ListFilter{OrderID: &orderID, Limit: 1})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return domainErrors.ErrOrderNotEditable
	}
	return nil
}
