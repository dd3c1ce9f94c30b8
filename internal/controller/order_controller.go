package controller

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	domainErrors "github.com/nourhamdy/ordermgmt/internal/domain/errors"
	"github.com/nourhamdy/ordermgmt/internal/domain/order"
	"github.com/nourhamdy/ordermgmt/internal/middleware"
	"github.com/nourhamdy/ordermgmt/internal/service"
)

// OrderController handles order-related HTTP requests.
type OrderController struct {
	orderService *service.OrderService
}

// NewOrderController creates a new OrderController.
func NewOrderController(orderService *service.OrderService) *OrderController {
	return &OrderController{orderService: orderService}
}

// CreateOrder handles POST /api/v1/orders
func (h *OrderController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, domainErrors.ErrUnauthorized)
		return
	}

	var req CreateOrderRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	o, err := h.orderService.CreateOrder(r.Context(), callerID, service.CreateOrderRequest{
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerAddress: req.CustomerAddress,
		CustomerPhone:   req.CustomerPhone,
		Items:           toItemInputs(req.Items),
		TaxCents:        floatToCents(req.Tax),
		ShippingCents:   floatToCents(req.Shipping),
		Notes:           req.Notes,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, FromOrder(o))
}

// GetOrder handles GET /api/v1/orders/{id}
func (h *OrderController) GetOrder(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, domainErrors.ErrUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid order id", Code: "invalid_id"})
		return
	}

	o, err := h.orderService.GetOrder(r.Context(), callerID, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromOrder(o))
}

// ListOrders handles GET /api/v1/orders
func (h *OrderController) ListOrders(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, domainErrors.ErrUnauthorized)
		return
	}

	filter := order.ListFilter{}
	if s := r.URL.Query().Get("status"); s != "" {
		status := order.Status(s)
		filter.Status = &status
	}
	filter.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	filter.Offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))

	orders, err := h.orderService.ListOrders(r.Context(), callerID, filter)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]*OrderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, FromOrder(o))
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpdateOrder handles PUT /api/v1/orders/{id}
func (h *OrderController) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, domainErrors.ErrUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid order id", Code: "invalid_id"})
		return
	}

	var req UpdateOrderRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	o, err := h.orderService.UpdateOrder(r.Context(), callerID, id, service.UpdateOrderRequest{
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerAddress: req.CustomerAddress,
		CustomerPhone:   req.CustomerPhone,
		Items:           toItemInputs(req.Items),
		TaxCents:        floatToCents(req.Tax),
		ShippingCents:   floatToCents(req.Shipping),
		Notes:           req.Notes,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromOrder(o))
}

// DeleteOrder handles DELETE /api/v1/orders/{id}
func (h *OrderController) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, domainErrors.ErrUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid order id", Code: "invalid_id"})
		return
	}

	if err := h.orderService.DeleteOrder(r.Context(), callerID, id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ConfirmOrder handles POST /api/v1/orders/{id}/confirm
func (h *OrderController) ConfirmOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orderService.ConfirmOrder)
}

// CancelOrder handles POST /api/v1/orders/{id}/cancel
func (h *OrderController) CancelOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orderService.CancelOrder)
}

func (h *OrderController) transition(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, callerID string, id uuid.UUID) (*order.Order, error),
) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, domainErrors.ErrUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid order id", Code: "invalid_id"})
		return
	}

	o, err := fn(r.Context(), callerID, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromOrder(o))
}

func toItemInputs(items []OrderItemInput) []service.OrderItemInput {
	out := make([]service.OrderItemInput, 0, len(items))
	for _, it := range items {
		out = append(out, service.OrderItemInput{
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			PriceCents:  floatToCents(it.Price),
		})
	}
	return out
}
