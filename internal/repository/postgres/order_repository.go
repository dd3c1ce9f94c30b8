package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	domainerrors "github.com/nourhamdy/ordermgmt/internal/domain/errors"
	"github.com/nourhamdy/ordermgmt/internal/domain/order"
)

// OrderRepository implements order.Repository using PostgreSQL
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create inserts an order and its line items.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	conn := ConnFromCtx(ctx, r.pool)

	query := `
		INSERT INTO orders (
			id, user_id, order_number, customer_name, customer_email,
			customer_address, customer_phone, subtotal, tax, shipping, total,
			status, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := conn.Exec(ctx, query,
		o.ID,
		o.UserID,
		o.OrderNumber,
		o.CustomerName,
		o.CustomerEmail,
		o.CustomerAddress,
		o.CustomerPhone,
		centsToNumericString(o.SubtotalCents),
		centsToNumericString(o.TaxCents),
		centsToNumericString(o.ShippingCents),
		centsToNumericString(o.TotalCents),
		string(o.Status),
		o.Notes,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	return r.insertItems(ctx, conn, o.ID, o.Items)
}

// GetByID retrieves an order with its items.
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	conn := ConnFromCtx(ctx, r.pool)

	query := `
		SELECT id, user_id, order_number, customer_name, customer_email,
		       customer_address, customer_phone, subtotal::text, tax::text,
		       shipping::text, total::text, status, notes, created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	o, err := scanOrder(conn.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainerrors.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	items, err := r.loadItems(ctx, conn, id)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

// Update persists the mutable fields of an order and replaces its items.
func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	conn := ConnFromCtx(ctx, r.pool)

	query := `
		UPDATE orders
		SET customer_name = $2,
		    customer_email = $3,
		    customer_address = $4,
		    customer_phone = $5,
		    subtotal = $6,
		    tax = $7,
		    shipping = $8,
		    total = $9,
		    status = $10,
		    notes = $11,
		    updated_at = $12
		WHERE id = $1
	`

	tag, err := conn.Exec(ctx, query,
		o.ID,
		o.CustomerName,
		o.CustomerEmail,
		o.CustomerAddress,
		o.CustomerPhone,
		centsToNumericString(o.SubtotalCents),
		centsToNumericString(o.TaxCents),
		centsToNumericString(o.ShippingCents),
		centsToNumericString(o.TotalCents),
		string(o.Status),
		o.Notes,
		o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainerrors.ErrOrderNotFound
	}

	if _, err := conn.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, o.ID); err != nil {
		return fmt.Errorf("failed to replace order items: %w", err)
	}
	return r.insertItems(ctx, conn, o.ID, o.Items)
}

// Delete removes an order; items go with it via ON DELETE CASCADE.
func (r *OrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	conn := ConnFromCtx(ctx, r.pool)

	tag, err := conn.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainerrors.ErrOrderNotFound
	}
	return nil
}

// List retrieves orders matching the filter, newest first.
func (r *OrderRepository) List(ctx context.Context, filter order.ListFilter) ([]*order.Order, error) {
	conn := ConnFromCtx(ctx, r.pool)

	query := `
		SELECT id, user_id, order_number, customer_name, customer_email,
		       customer_address, customer_phone, subtotal::text, tax::text,
		       shipping::text, total::text, status, notes, created_at, updated_at
		FROM orders
	`
	var args []any
	var conditions []string

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []*order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}

	for _, o := range orders {
		items, err := r.loadItems(ctx, conn, o.ID)
		if err != nil {
			return nil, err
		}
		o.Items = items
	}
	return orders, nil
}

func (r *OrderRepository) insertItems(ctx context.Context, conn DBTX, orderID uuid.UUID, items []order.Item) error {
	query := `
		INSERT INTO order_items (id, order_id, product_name, quantity, price)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, it := range items {
		_, err := conn.Exec(ctx, query,
			it.ID,
			orderID,
			it.ProductName,
			it.Quantity,
			centsToNumericString(it.PriceCents),
		)
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}
	return nil
}

func (r *OrderRepository) loadItems(ctx context.Context, conn DBTX, orderID uuid.UUID) ([]order.Item, error) {
	query := `
		SELECT id, order_id, product_name, quantity, price::text
		FROM order_items
		WHERE order_id = $1
		ORDER BY product_name
	`

	rows, err := conn.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	var items []order.Item
	for rows.Next() {
		var (
			it       order.Item
			priceStr string
		)
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductName, &it.Quantity, &priceStr); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		cents, err := numericStringToCents(priceStr)
		if err != nil {
			return nil, fmt.Errorf("invalid price in order item row: %w", err)
		}
		it.PriceCents = cents
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate order items: %w", err)
	}
	return items, nil
}

func scanOrder(row pgx.Row) (*order.Order, error) {
	var (
		o           order.Order
		subtotalStr string
		taxStr      string
		shippingStr string
		totalStr    string
		status      string
	)

	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.OrderNumber,
		&o.CustomerName,
		&o.CustomerEmail,
		&o.CustomerAddress,
		&o.CustomerPhone,
		&subtotalStr,
		&taxStr,
		&shippingStr,
		&totalStr,
		&status,
		&o.Notes,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	for _, conv := range []struct {
		src string
		dst *int64
	}{
		{subtotalStr, &o.SubtotalCents},
		{taxStr, &o.TaxCents},
		{shippingStr, &o.ShippingCents},
		{totalStr, &o.TotalCents},
	} {
		cents, err := numericStringToCents(conv.src)
		if err != nil {
			return nil, fmt.Errorf("invalid amount in order row: %w", err)
		}
		*conv.dst = cents
	}
	o.Status = order.Status(status)
	return &o, nil
}
