package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/paygrid/payment-engine/internal/application"
	"github.com/paygrid/payment-engine/internal/contracts"
	"github.com/paygrid/payment-engine/internal/domain"
)

type Handler struct {
	service *application.Service
}

func NewHandler(service *application.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) processPayment(w http.ResponseWriter, r *http.Request) {
	var req contracts.ProcessPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid json body", requestIDFromContext(r.Context()))
		return
	}
	actor := actorFromContext(r.Context())
	payment, err := h.service.ProcessPayment(r.Context(), actor, application.PaymentInput{
		Payee:    req.Payee,
		Token:    req.Token,
		Amount:   req.Amount,
		Metadata: req.Metadata,
	})
	if err != nil {
		code, c := mapDomainError(err)
		writeError(w, code, c, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "payment processed", toPaymentResponse(payment))
}

func (h *Handler) getPayment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "payment id must be an integer", requestIDFromContext(r.Context()))
		return
	}
	payment, err := h.service.GetPayment(r.Context(), id)
	if err != nil {
		code, c := mapDomainError(err)
		writeError(w, code, c, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "payment", toPaymentResponse(payment))
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	filter := domain.PaymentFilter{
		Account: strings.TrimSpace(r.URL.Query().Get("account")),
		Status:  domain.PaymentStatus(strings.TrimSpace(r.URL.Query().Get("status"))),
		Limit:   queryInt(r, "limit"),
		Offset:  queryInt(r, "offset"),
	}
	payments, err := h.service.ListPayments(r.Context(), filter)
	if err != nil {
		code, c := mapDomainError(err)
		writeError(w, code, c, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	out := make([]contracts.PaymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, toPaymentResponse(p))
	}
	writeSuccess(w, http.StatusOK, "payments", out)
}

func (h *Handler) createEscrow(w http.ResponseWriter, r *http.Request) {
	var req contracts.CreateEscrowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid json body", requestIDFromContext(r.Context()))
		return
	}
	actor := actorFromContext(r.Context())
	var releaseTime time.Time
	if req.ReleaseTime > 0 {
		releaseTime = time.Unix(req.ReleaseTime, 0).UTC()
	}
	escrow, err := h.service.CreateEscrow(r.Context(), actor, application.EscrowInput{
		Payee:         req.Payee,
		Token:         req.Token,
		Amount:        req.Amount,
		SuppliedValue: req.SuppliedValue,
		ReleaseTime:   releaseTime,
		Metadata:      req.Metadata,
	})
	if err != nil {
		code, c := mapDomainError(err)
		writeError(w, code, c, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusCreated, "escrow created", toEscrowResponse(escrow))
}

func (h *Handler) releaseEscrow(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	result, err := h.service.ReleaseEscrow(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		code, c := mapDomainError(err)
		writeError(w, code, c, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "escrow released", contracts.ReleaseEscrowResponse{
		Escrow:  toEscrowResponse(result.Escrow),
		Payment: toPaymentResponse(result.Payment),
	})
}

func (h *Handler) refundEscrow(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	escrow, err := h.service.RefundEscrow(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		code, c := mapDomainError(err)
		writeError(w, code, c, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "escrow refunded", toEscrowResponse(escrow))
}

func (h *Handler) getEscrow(w http.ResponseWriter, r *http.Request) {
	escrow, err := h.service.GetEscrow(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		code, c := mapDomainError(err)
		writeError(w, code, c, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "escrow", toEscrowResponse(escrow))
}

func (h *Handler) listEscrows(w http.ResponseWriter, r *http.Request) {
	filter := domain.EscrowFilter{
		Payer:  strings.TrimSpace(r.URL.Query().Get("payer")),
		Payee:  strings.TrimSpace(r.URL.Query().Get("payee")),
		State:  domain.EscrowState(strings.TrimSpace(r.URL.Query().Get("state"))),
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	}
	escrows, err := h.service.ListEscrows(r.Context(), filter)
	if err != nil {
		code, c := mapDomainError(err)
		writeError(w, code, c, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	out := make([]contracts.EscrowResponse, 0, len(escrows))
	for _, e := range escrows {
		out = append(out, toEscrowResponse(e))
	}
	writeSuccess(w, http.StatusOK, "escrows", out)
}

func (h *Handler) processSplit(w http.ResponseWriter, r *http.Request) {
	var req contracts.ProcessSplitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid json body", requestIDFromContext(r.Context()))
		return
	}
	actor := actorFromContext(r.Context())
	result, err := h.service.ProcessSplit(r.Context(), actor, application.SplitInput{
		Recipients: req.Recipients,
		Amounts:    req.Amounts,
		Token:      req.Token,
		Metadata:   req.Metadata,
	})
	if err != nil {
		code, c := mapDomainError(err)
		writeError(w, code, c, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	payments := make([]contracts.PaymentResponse, 0, len(result.Payments))
	for _, p := range result.Payments {
		payments = append(payments, toPaymentResponse(p))
	}
	writeSuccess(w, http.StatusOK, "split processed", contracts.SplitResponse{
		SplitID:    result.SplitID,
		GrossTotal: result.GrossTotal,
		FeeTotal:   result.FeeTotal,
		Payments:   payments,
	})
}

func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStats(r.Context(), chi.URLParam(r, "account"))
	if err != nil {
		code, c := mapDomainError(err)
		writeError(w, code, c, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "stats", contracts.StatsResponse{
		Account:       stats.Account,
		TotalSent:     stats.TotalSent,
		TotalReceived: stats.TotalReceived,
		PaymentCount:  stats.PaymentCount,
	})
}

func (h *Handler) pause(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	if err := h.service.Pause(r.Context(), actor); err != nil {
		code, c := mapDomainError(err)
		writeError(w, code, c, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "engine paused", contracts.PauseStateResponse{Paused: true})
}

func (h *Handler) unpause(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	if err := h.service.Unpause(r.Context(), actor); err != nil {
		code, c := mapDomainError(err)
		writeError(w, code, c, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "engine unpaused", contracts.PauseStateResponse{Paused: false})
}

func (h *Handler) grantRole(w http.ResponseWriter, r *http.Request) {
	var req contracts.GrantRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid json body", requestIDFromContext(r.Context()))
		return
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "unknown role", requestIDFromContext(r.Context()))
		return
	}
	actor := actorFromContext(r.Context())
	if err := h.service.GrantRole(r.Context(), actor, req.Account, role); err != nil {
		code, c := mapDomainError(err)
		writeError(w, code, c, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "role granted", nil)
}

func (h *Handler) revokeRole(w http.ResponseWriter, r *http.Request) {
	var req contracts.RevokeRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid json body", requestIDFromContext(r.Context()))
		return
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "unknown role", requestIDFromContext(r.Context()))
		return
	}
	actor := actorFromContext(r.Context())
	if err := h.service.RevokeRole(r.Context(), actor, req.Account, role); err != nil {
		code, c := mapDomainError(err)
		writeError(w, code, c, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "role revoked", nil)
}

func (h *Handler) setFeeConfig(w http.ResponseWriter, r *http.Request) {
	var req contracts.SetFeeConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid json body", requestIDFromContext(r.Context()))
		return
	}
	actor := actorFromContext(r.Context())
	cfg := domain.FeeConfig{BasisPoints: req.BasisPoints, Collector: req.Collector}
	if err := h.service.SetFeeConfig(r.Context(), actor, cfg); err != nil {
		code, c := mapDomainError(err)
		writeError(w, code, c, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "fee config updated", contracts.FeeConfigResponse{
		BasisPoints: cfg.BasisPoints,
		Collector:   cfg.Collector,
	})
}

func (h *Handler) getFeeConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.service.GetFeeConfig(r.Context())
	if err != nil {
		code, c := mapDomainError(err)
		writeError(w, code, c, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "fee config", contracts.FeeConfigResponse{
		BasisPoints: cfg.BasisPoints,
		Collector:   cfg.Collector,
	})
}

func toPaymentResponse(p domain.Payment) contracts.PaymentResponse {
	return contracts.PaymentResponse{
		PaymentID:   p.ID,
		Payer:       p.Payer,
		Payee:       p.Payee,
		Token:       p.Token,
		GrossAmount: p.GrossAmount,
		FeeAmount:   p.FeeAmount,
		NetAmount:   p.NetAmount,
		Metadata:    p.Metadata,
		Status:      string(p.Status),
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toEscrowResponse(e domain.EscrowPayment) contracts.EscrowResponse {
	return contracts.EscrowResponse{
		EscrowID:       e.EscrowID,
		Payer:          e.Payer,
		Payee:          e.Payee,
		Token:          e.Token,
		Amount:         e.Amount,
		ReleaseTime:    e.ReleaseTime.UTC().Format(time.RFC3339),
		State:          string(e.State),
		FeeBasisPoints: e.FeeBasisPoints,
		Metadata:       e.Metadata,
		CreatedAt:      e.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      e.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func queryInt(r *http.Request, name string) int {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return v
}
