package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func NewRouter(handler *Handler, jwtSecret string) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { writeSuccess(w, http.StatusOK, "ok", nil) })
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) { writeSuccess(w, http.StatusOK, "ready", nil) })
	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(jwtSecret))

			r.Post("/payments", handler.processPayment)
			r.Get("/payments", handler.listPayments)
			r.Get("/payments/{id}", handler.getPayment)

			r.Post("/escrows", handler.createEscrow)
			r.Get("/escrows", handler.listEscrows)
			r.Get("/escrows/{id}", handler.getEscrow)
			r.Post("/escrows/{id}/release", handler.releaseEscrow)
			r.Post("/escrows/{id}/refund", handler.refundEscrow)

			r.Post("/splits", handler.processSplit)

			r.Get("/accounts/{account}/stats", handler.getStats)
			r.Get("/fee-config", handler.getFeeConfig)

			r.Route("/admin", func(r chi.Router) {
				r.Post("/pause", handler.pause)
				r.Post("/unpause", handler.unpause)
				r.Post("/roles/grant", handler.grantRole)
				r.Post("/roles/revoke", handler.revokeRole)
				r.Put("/fee-config", handler.setFeeConfig)
			})
		})
	})
	return r
}
