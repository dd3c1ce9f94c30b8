package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	domainErrors "github.com/nourhamdy/ordermgmt/internal/domain/errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

var validate = validator.New()

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{domainErrors.ErrOrderNotFound, http.StatusNotFound, "not_found"},
	{domainErrors.ErrPaymentNotFound, http.StatusNotFound, "not_found"},
	{domainErrors.ErrOrderNotConfirmed, http.StatusUnprocessableEntity, "order_not_confirmed"},
	{domainErrors.ErrOrderNotEditable, http.StatusConflict, "order_not_editable"},
	{domainErrors.ErrInvalidOrderStatus, http.StatusUnprocessableEntity, "invalid_order_status"},
	{domainErrors.ErrInvalidStateTransition, http.StatusConflict, "invalid_state_transition"},
	{domainErrors.ErrPaymentAlreadySettled, http.StatusConflict, "already_settled"},
	{domainErrors.ErrPaymentInProgress, http.StatusConflict, "payment_in_progress"},
	{domainErrors.ErrRefundNotAllowed, http.StatusUnprocessableEntity, "refund_not_allowed"},
	{domainErrors.ErrInvalidRefundAmount, http.StatusBadRequest, "invalid_refund_amount"},
	{domainErrors.ErrUnsupportedGateway, http.StatusBadRequest, "unsupported_gateway"},
	{domainErrors.ErrInvalidPaymentData, http.StatusBadRequest, "invalid_payment_data"},
	{domainErrors.ErrGatewayTimeout, http.StatusGatewayTimeout, "gateway_timeout"},
	{domainErrors.ErrGatewayUnavailable, http.StatusServiceUnavailable, "gateway_unavailable"},
	{domainErrors.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{domainErrors.ErrForbidden, http.StatusForbidden, "forbidden"},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: err.Error()}

	var validationErr *domainErrors.ValidationError
	if errors.As(err, &validationErr) {
		resp.Code = "validation_error"
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			resp.Code = m.code
			writeJSON(w, m.status, resp)
			return
		}
	}

	var procErr *domainErrors.PaymentProcessingError
	if errors.As(err, &procErr) {
		resp.Code = "payment_failed"
		resp.Error = procErr.Message
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}

	var domainErr *domainErrors.DomainError
	if errors.As(err, &domainErr) {
		resp.Code = domainErr.Code
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}

	log.Error().Err(err).Msg("unhandled error in handler")
	resp.Code = "internal_error"
	resp.Error = "internal server error"
	writeJSON(w, http.StatusInternalServerError, resp)
}

func decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domainErrors.NewValidationError("body", "invalid JSON: "+err.Error())
	}
	if err := validate.Struct(dst); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok && len(ve) > 0 {
			return domainErrors.NewValidationError(ve[0].Field(), ve[0].Tag()+" validation failed")
		}
		return domainErrors.NewValidationError("body", err.Error())
	}
	return nil
}
