package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/paygrid/payment-engine/internal/contracts"
	"github.com/paygrid/payment-engine/internal/domain"
)

func writeSuccess(w http.ResponseWriter, code int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(contracts.SuccessResponse{Status: "ok", Message: message, Data: data})
}

func writeError(w http.ResponseWriter, code int, errCode, message, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(contracts.ErrorResponse{
		Status: "error",
		Error:  contracts.ErrorPayload{Code: errCode, Message: message, RequestID: requestID},
	})
}

// mapDomainError translates sentinel errors into HTTP status codes and
// stable machine-readable codes. Every failure kind from the engine keeps
// its specific identity so callers can render precise feedback.
func mapDomainError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden, "unauthorized"
	case errors.Is(err, domain.ErrEnginePaused):
		return http.StatusServiceUnavailable, "engine_paused"
	case errors.Is(err, domain.ErrAlreadyPaused):
		return http.StatusConflict, "already_paused"
	case errors.Is(err, domain.ErrNotPaused):
		return http.StatusConflict, "not_paused"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrAlreadyFinalized):
		return http.StatusConflict, "already_finalized"
	case errors.Is(err, domain.ErrIdempotencyConflict):
		return http.StatusConflict, "idempotency_conflict"
	case errors.Is(err, domain.ErrInsufficientValue):
		return http.StatusUnprocessableEntity, "insufficient_value"
	case errors.Is(err, domain.ErrInvalidAmount):
		return http.StatusBadRequest, "invalid_amount"
	case errors.Is(err, domain.ErrZeroAmount):
		return http.StatusBadRequest, "zero_amount"
	case errors.Is(err, domain.ErrInvalidSplitRequest):
		return http.StatusBadRequest, "invalid_split_request"
	case errors.Is(err, domain.ErrInvalidFeeConfig):
		return http.StatusBadRequest, "invalid_fee_config"
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
