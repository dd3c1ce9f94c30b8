package controller

import (
	"math"
	"time"

	"github.com/nourhamdy/ordermgmt/internal/domain/order"
	"github.com/nourhamdy/ordermgmt/internal/domain/payment"
	"github.com/nourhamdy/ordermgmt/internal/gateway"
)

// --- Request DTOs ---
// These DTOs handle HTTP/JSON concerns (float64 for money, string for IDs,
// validation tags). Controllers convert these to service layer DTOs before
// calling business logic.

// OrderItemInput is one line item in an order request.
type OrderItemInput struct {
	ProductName string  `json:"product_name" validate:"required"`
	Quantity    int     `json:"quantity" validate:"required,gt=0"`
	Price       float64 `json:"price" validate:"gte=0"`
}

// CreateOrderRequest holds the input for creating an order.
type CreateOrderRequest struct {
	CustomerName    string           `json:"customer_name" validate:"required"`
	CustomerEmail   string           `json:"customer_email" validate:"omitempty,email"`
	CustomerAddress string           `json:"customer_address"`
	CustomerPhone   string           `json:"customer_phone"`
	Items           []OrderItemInput `json:"items" validate:"required,min=1,dive"`
	Tax             float64          `json:"tax" validate:"gte=0"`
	Shipping        float64          `json:"shipping" validate:"gte=0"`
	Notes           string           `json:"notes"`
}

// UpdateOrderRequest holds the input for updating a pending order.
type UpdateOrderRequest struct {
	CustomerName    string           `json:"customer_name" validate:"required"`
	CustomerEmail   string           `json:"customer_email" validate:"omitempty,email"`
	CustomerAddress string           `json:"customer_address"`
	CustomerPhone   string           `json:"customer_phone"`
	Items           []OrderItemInput `json:"items" validate:"required,min=1,dive"`
	Tax             float64          `json:"tax" validate:"gte=0"`
	Shipping        float64          `json:"shipping" validate:"gte=0"`
	Notes           string           `json:"notes"`
}

// ProcessPaymentRequest holds the input for settling an order.
type ProcessPaymentRequest struct {
	GatewayName   string         `json:"gateway_name" validate:"required"`
	PaymentMethod string         `json:"payment_method" validate:"required"`
	PaymentData   map[string]any `json:"payment_data"`
}

// RefundPaymentRequest holds the input for refunding a payment. A nil amount
// refunds the full settled amount.
type RefundPaymentRequest struct {
	Amount *float64 `json:"amount,omitempty" validate:"omitempty,gt=0"`
}

// --- Response DTOs ---

// OrderItemResponse represents a line item in API responses.
type OrderItemResponse struct {
	ID          string  `json:"id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	LineTotal   float64 `json:"line_total"`
}

// OrderResponse represents an order in API responses.
type OrderResponse struct {
	ID              string              `json:"id"`
	OrderNumber     string              `json:"order_number"`
	CustomerName    string              `json:"customer_name"`
	CustomerEmail   string              `json:"customer_email,omitempty"`
	CustomerAddress string              `json:"customer_address,omitempty"`
	CustomerPhone   string              `json:"customer_phone,omitempty"`
	Items           []OrderItemResponse `json:"items"`
	Subtotal        float64             `json:"subtotal"`
	Tax             float64             `json:"tax"`
	Shipping        float64             `json:"shipping"`
	Total           float64             `json:"total"`
	Status          string              `json:"status"`
	Notes           string              `json:"notes,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// PaymentResponse represents a ledger entry in API responses.
type PaymentResponse struct {
	ID               string         `json:"id"`
	OrderID          string         `json:"order_id"`
	PaymentNumber    string         `json:"payment_number"`
	Amount           float64        `json:"amount"`
	Currency         string         `json:"currency"`
	PaymentMethod    string         `json:"payment_method"`
	GatewayName      string         `json:"gateway_name"`
	GatewayReference *string        `json:"gateway_reference,omitempty"`
	Status           string         `json:"status"`
	GatewayResponse  map[string]any `json:"gateway_response,omitempty"`
	ProcessedAt      *time.Time     `json:"processed_at,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// RefundResponse pairs the ledger entry with the gateway's refund outcome.
type RefundResponse struct {
	Payment        *PaymentResponse `json:"payment"`
	Success        bool             `json:"success"`
	RefundID       string           `json:"refund_id,omitempty"`
	AmountRefunded float64          `json:"amount_refunded"`
	Message        string           `json:"message,omitempty"`
}

// PaymentFailedResponse carries the failed ledger entry alongside the error.
type PaymentFailedResponse struct {
	Error   string           `json:"error"`
	Code    string           `json:"code"`
	Payment *PaymentResponse `json:"payment,omitempty"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// --- Conversion helpers ---

// FromOrder converts a domain order to API response.
func FromOrder(o *order.Order) *OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemResponse{
			ID:          it.ID.String(),
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Price:       centsToFloat(it.PriceCents),
			LineTotal:   centsToFloat(it.LineTotal()),
		})
	}
	return &OrderResponse{
		ID:              o.ID.String(),
		OrderNumber:     o.OrderNumber,
		CustomerName:    o.CustomerName,
		CustomerEmail:   o.CustomerEmail,
		CustomerAddress: o.CustomerAddress,
		CustomerPhone:   o.CustomerPhone,
		Items:           items,
		Subtotal:        centsToFloat(o.SubtotalCents),
		Tax:             centsToFloat(o.TaxCents),
		Shipping:        centsToFloat(o.ShippingCents),
		Total:           centsToFloat(o.TotalCents),
		Status:          string(o.Status),
		Notes:           o.Notes,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

// FromPayment converts a domain payment to API response.
func FromPayment(p *payment.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:               p.ID.String(),
		OrderID:          p.OrderID.String(),
		PaymentNumber:    p.PaymentNumber,
		Amount:           centsToFloat(p.Amount.ValueCents),
		Currency:         p.Amount.Currency,
		PaymentMethod:    p.PaymentMethod,
		GatewayName:      p.GatewayName,
		GatewayReference: p.GatewayReference,
		Status:           string(p.Status),
		GatewayResponse:  p.GatewayResponse,
		ProcessedAt:      p.ProcessedAt,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

// FromRefund converts a domain payment plus refund outcome to API response.
func FromRefund(p *payment.Payment, outcome *gateway.RefundOutcome) *RefundResponse {
	return &RefundResponse{
		Payment:        FromPayment(p),
		Success:        outcome.Success,
		RefundID:       outcome.RefundID,
		AmountRefunded: centsToFloat(outcome.AmountRefundedCents),
		Message:        outcome.Message,
	}
}

// floatToCents converts a float dollar amount to cents.
func floatToCents(f float64) int64 {
	return int64(math.Round(f * 100))
}

// centsToFloat converts cents to a float dollar amount.
func centsToFloat(cents int64) float64 {
	return float64(cents) / 100.0
}
