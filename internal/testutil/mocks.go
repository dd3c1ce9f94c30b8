package testutil

import (
	"context"
	"sync"

	"github.com/google/uuid"
	domainErrors "github.com/nourhamdy/ordermgmt/internal/domain/errors"
	"github.com/nourhamdy/ordermgmt/internal/domain/order"
	"github.com/nourhamdy/ordermgmt/internal/domain/payment"
	"github.com/nourhamdy/ordermgmt/internal/service"
)

// --- Order Repository Mock ---

// MockOrderRepository is an in-memory implementation of order.Repository.
// Any of the Func fields override the default behavior.
type MockOrderRepository struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*order.Order

	CreateFunc  func(ctx context.Context, o *order.Order) error
	GetByIDFunc func(ctx context.Context, id uuid.UUID) (*order.Order, error)
	UpdateFunc  func(ctx context.Context, o *order.Order) error
	DeleteFunc  func(ctx context.Context, id uuid.UUID) error
	ListFunc    func(ctx context.Context, filter order.ListFilter) ([]*order.Order, error)
}

func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{orders: make(map[uuid.UUID]*order.Order)}
}

func (m *MockOrderRepository) Create(ctx context.Context, o *order.Order) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, o)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = o
	return nil
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, domainErrors.ErrOrderNotFound
	}
	return o, nil
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, o)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[o.ID]; !ok {
		return domainErrors.ErrOrderNotFound
	}
	m.orders[o.ID] = o
	return nil
}

func (m *MockOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[id]; !ok {
		return domainErrors.ErrOrderNotFound
	}
	delete(m.orders, id)
	return nil
}

func (m *MockOrderRepository) List(ctx context.Context, filter order.ListFilter) ([]*order.Order, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*order.Order
	for _, o := range m.orders {
		if filter.UserID != nil && o.UserID != *filter.UserID {
			continue
		}
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

// --- Payment Repository Mock ---

// MockPaymentRepository is an in-memory implementation of payment.Repository.
type MockPaymentRepository struct {
	mu       sync.Mutex
	payments map[uuid.UUID]*payment.Payment
	// owners maps order id to user id so the UserID filter can be honored
	// without a real join.
	owners map[uuid.UUID]string

	CreateFunc     func(ctx context.Context, p *payment.Payment) error
	GetByIDFunc    func(ctx context.Context, id uuid.UUID) (*payment.Payment, error)
	UpdateFunc     func(ctx context.Context, p *payment.Payment) error
	ListFunc       func(ctx context.Context, filter payment.ListFilter) ([]*payment.Payment, error)
	HasSettledFunc func(ctx context.Context, orderID uuid.UUID) (bool, error)
}

func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		payments: make(map[uuid.UUID]*payment.Payment),
		owners:   make(map[uuid.UUID]string),
	}
}

// SetOrderOwner associates an order with a user for List's UserID filter.
func (m *MockPaymentRepository) SetOrderOwner(orderID uuid.UUID, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.owners[orderID] = userID
}

func (m *MockPaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.payments[p.ID] = &cp
	return nil
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, domainErrors.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPaymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.payments[p.ID]; !ok {
		return domainErrors.ErrPaymentNotFound
	}
	cp := *p
	m.payments[p.ID] = &cp
	return nil
}

func (m *MockPaymentRepository) List(ctx context.Context, filter payment.ListFilter) ([]*payment.Payment, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*payment.Payment
	for _, p := range m.payments {
		if filter.OrderID != nil && p.OrderID != *filter.OrderID {
			continue
		}
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		if filter.UserID != nil && m.owners[p.OrderID] != *filter.UserID {
			continue
		}
		cp := *p
		out = append(out, &cp)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func (m *MockPaymentRepository) HasSettled(ctx context.Context, orderID uuid.UUID) (bool, error) {
	if m.HasSettledFunc != nil {
		return m.HasSettledFunc(ctx, orderID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.OrderID == orderID && p.Status == payment.StatusSuccessful {
			return true, nil
		}
	}
	return false, nil
}

// PaymentCount returns the number of stored ledger entries for an order.
func (m *MockPaymentRepository) PaymentCount(orderID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.payments {
		if p.OrderID == orderID {
			n++
		}
	}
	return n
}

// --- Transaction Manager Mock ---

// MockTransactionManager runs the closure directly, without a database.
type MockTransactionManager struct {
	WithTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.WithTransactionFunc != nil {
		return m.WithTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

// --- Lock Mocks ---

// MockLock is a controllable lock for tests.
type MockLock struct {
	AcquireResult bool
	AcquireErr    error
	ReleaseErr    error
	Acquired      int
	Released      int
}

func (l *MockLock) Acquire(ctx context.Context) (bool, error) {
	l.Acquired++
	return l.AcquireResult, l.AcquireErr
}

func (l *MockLock) Release(ctx context.Context) error {
	l.Released++
	return l.ReleaseErr
}

// MockLockFactory hands out a fixed lock, recording requested keys.
type MockLockFactory struct {
	Lock *MockLock
	Keys []string
}

func NewMockLockFactory() *MockLockFactory {
	return &MockLockFactory{Lock: &MockLock{AcquireResult: true}}
}

func (f *MockLockFactory) NewLock(key string) service.Lock {
	f.Keys = append(f.Keys, key)
	return f.Lock
}
