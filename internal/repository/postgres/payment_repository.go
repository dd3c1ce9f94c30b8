package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	domainerrors "github.com/nourhamdy/ordermgmt/internal/domain/errors"
	"github.com/nourhamdy/ordermgmt/internal/domain/payment"
)

// PaymentRepository implements payment.Repository using PostgreSQL
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// Create inserts a new payment row.
func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	conn := ConnFromCtx(ctx, r.pool)

	responseJSON, err := marshalResponse(p.GatewayResponse)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO payments (
			id, order_id, payment_number, amount, currency, payment_method,
			gateway_name, gateway_reference, status, gateway_response,
			processed_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err = conn.Exec(ctx, query,
		p.ID,
		p.OrderID,
		p.PaymentNumber,
		centsToNumericString(p.Amount.ValueCents),
		p.Amount.Currency,
		p.PaymentMethod,
		p.GatewayName,
		p.GatewayReference,
		string(p.Status),
		responseJSON,
		p.ProcessedAt,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// GetByID retrieves a payment by ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	conn := ConnFromCtx(ctx, r.pool)

	query := `
		SELECT id, order_id, payment_number, amount::text, currency, payment_method,
		       gateway_name, gateway_reference, status, gateway_response,
		       processed_at, created_at, updated_at
		FROM payments
		WHERE id = $1
	`

	p, err := scanPayment(conn.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainerrors.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return p, nil
}

// Update persists the mutable fields of a payment.
func (r *PaymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	conn := ConnFromCtx(ctx, r.pool)

	responseJSON, err := marshalResponse(p.GatewayResponse)
	if err != nil {
		return err
	}

	query := `
		UPDATE payments
		SET status = $2,
		    gateway_reference = $3,
		    gateway_response = $4,
		    processed_at = $5,
		    updated_at = $6
		WHERE id = $1
	`

	tag, err := conn.Exec(ctx, query,
		p.ID,
		string(p.Status),
		p.GatewayReference,
		responseJSON,
		p.ProcessedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainerrors.ErrPaymentNotFound
	}
	return nil
}

// List retrieves payments matching the filter, newest first. The UserID
// filter joins through orders since payments do not carry the owner.
func (r *PaymentRepository) List(ctx context.Context, filter payment.ListFilter) ([]*payment.Payment, error) {
	conn := ConnFromCtx(ctx, r.pool)

	query := `
		SELECT p.id, p.order_id, p.payment_number, p.amount::text, p.currency,
		       p.payment_method, p.gateway_name, p.gateway_reference, p.status,
		       p.gateway_response, p.processed_at, p.created_at, p.updated_at
		FROM payments p
	`
	var args []any
	var conditions []string

	if filter.UserID != nil {
		query += ` JOIN orders o ON o.id = p.order_id`
		args = append(args, *filter.UserID)
		conditions = append(conditions, fmt.Sprintf("o.user_id = $%d", len(args)))
	}
	if filter.OrderID != nil {
		args = append(args, *filter.OrderID)
		conditions = append(conditions, fmt.Sprintf("p.order_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", len(args)))
	}

	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}

	query += " ORDER BY p.created_at DESC"

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
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*payment.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}
	return payments, nil
}

// HasSettled reports whether the order already has a successful payment.
func (r *PaymentRepository) HasSettled(ctx context.Context, orderID uuid.UUID) (bool, error) {
	conn := ConnFromCtx(ctx, r.pool)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM payments
			WHERE order_id = $1 AND status = 'successful'
		)
	`

	var settled bool
	if err := conn.QueryRow(ctx, query, orderID).Scan(&settled); err != nil {
		return false, fmt.Errorf("failed to check settled payments: %w", err)
	}
	return settled, nil
}

func scanPayment(row pgx.Row) (*payment.Payment, error) {
	var (
		p            payment.Payment
		amountStr    string
		status       string
		responseJSON []byte
	)

	err := row.Scan(
		&p.ID,
		&p.OrderID,
		&p.PaymentNumber,
		&amountStr,
		&p.Amount.Currency,
		&p.PaymentMethod,
		&p.GatewayName,
		&p.GatewayReference,
		&status,
		&responseJSON,
		&p.ProcessedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	cents, err := numericStringToCents(amountStr)
	if err != nil {
		return nil, fmt.Errorf("invalid amount in payment row: %w", err)
	}
	p.Amount.ValueCents = cents
	p.Status = payment.Status(status)

	if len(responseJSON) > 0 {
		if err := json.Unmarshal(responseJSON, &p.GatewayResponse); err != nil {
			return nil, fmt.Errorf("invalid gateway response in payment row: %w", err)
		}
	}

	return &p, nil
}

func marshalResponse(response map[string]any) ([]byte, error) {
	if response == nil {
		return nil, nil
	}
	data, err := json.Marshal(response)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal gateway response: %w", err)
	}
	return data, nil
}
