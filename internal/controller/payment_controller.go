package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	domainErrors "github.com/nourhamdy/ordermgmt/internal/domain/errors"
	"github.com/nourhamdy/ordermgmt/internal/domain/payment"
	"github.com/nourhamdy/ordermgmt/internal/middleware"
	"github.com/nourhamdy/ordermgmt/internal/service"
)

// PaymentController handles payment-related HTTP requests.
type PaymentController struct {
	paymentService *service.PaymentService
}

// NewPaymentController creates a new PaymentController.
func NewPaymentController(paymentService *service.PaymentService) *PaymentController {
	return &PaymentController{paymentService: paymentService}
}

// ProcessPayment handles POST /api/v1/orders/{id}/payments
func (h *PaymentController) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, domainErrors.ErrUnauthorized)
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid order id", Code: "invalid_id"})
		return
	}

	var req ProcessPaymentRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	p, err := h.paymentService.ProcessOrderPayment(r.Context(), callerID, service.ProcessOrderPaymentRequest{
		OrderID:       orderID,
		GatewayName:   req.GatewayName,
		PaymentMethod: req.PaymentMethod,
		PaymentData:   req.PaymentData,
	})
	if err != nil {
		// A failed settlement still produced a ledger entry; return it with
		// the failure so callers can reconcile.
		var procErr *domainErrors.PaymentProcessingError
		if errors.As(err, &procErr) && p != nil {
			writeJSON(w, http.StatusUnprocessableEntity, PaymentFailedResponse{
				Error:   procErr.Message,
				Code:    "payment_failed",
				Payment: FromPayment(p),
			})
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, FromPayment(p))
}

// GetPayment handles GET /api/v1/payments/{id}
func (h *PaymentController) GetPayment(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, domainErrors.ErrUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid payment id", Code: "invalid_id"})
		return
	}

	p, err := h.paymentService.GetPayment(r.Context(), callerID, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromPayment(p))
}

// ListPayments handles GET /api/v1/payments
func (h *PaymentController) ListPayments(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, domainErrors.ErrUnauthorized)
		return
	}

	filter := payment.ListFilter{}
	if s := r.URL.Query().Get("status"); s != "" {
		status := payment.Status(s)
		filter.Status = &status
	}
	if s := r.URL.Query().Get("order_id"); s != "" {
		id, err := uuid.Parse(s)
		if err == nil {
			filter.OrderID = &id
		}
	}
	filter.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	filter.Offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))

	payments, err := h.paymentService.ListPayments(r.Context(), callerID, filter)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]*PaymentResponse, 0, len(payments))
	for _, p := range payments {
		resp = append(resp, FromPayment(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// RefundPayment handles POST /api/v1/payments/{id}/refund
func (h *PaymentController) RefundPayment(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, domainErrors.ErrUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid payment id", Code: "invalid_id"})
		return
	}

	var req RefundPaymentRequest
	if r.ContentLength > 0 {
		if err := decodeAndValidate(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}

	var amountCents *int64
	if req.Amount != nil {
		cents := floatToCents(*req.Amount)
		amountCents = &cents
	}

	p, outcome, err := h.paymentService.RefundPayment(r.Context(), callerID, service.RefundRequest{
		PaymentID:   id,
		AmountCents: amountCents,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromRefund(p, outcome))
}

// ListGateways handles GET /api/v1/gateways
func (h *PaymentController) ListGateways(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.paymentService.AvailableGateways())
}
