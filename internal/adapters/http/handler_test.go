package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	eventadapter "github.com/paygrid/payment-engine/internal/adapters/events"
	"github.com/paygrid/payment-engine/internal/adapters/memory"
	"github.com/paygrid/payment-engine/internal/application"
	"github.com/paygrid/payment-engine/internal/contracts"
	"github.com/paygrid/payment-engine/internal/domain"
)

func newTestRouter(t *testing.T, jwtSecret string) http.Handler {
	t.Helper()
	repos := memory.NewRepositories()
	svc := application.NewService(application.Dependencies{
		Roles:        repos.Roles,
		Payments:     repos.Payments,
		Stats:        repos.Stats,
		Escrows:      repos.Escrows,
		FeeConfig:    repos.FeeConfig,
		Idempotency:  repos.Idempotency,
		Outbox:       repos.Outbox,
		DomainEvents: eventadapter.NewMemoryDomainPublisher(),
		Analytics:    eventadapter.NewMemoryAnalyticsPublisher(),
		DLQ:          eventadapter.NewLoggingDLQPublisher(),
	})
	ctx := context.Background()
	if _, err := repos.Roles.Grant(ctx, "root", domain.RoleAdmin); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	if err := repos.FeeConfig.Set(ctx, domain.FeeConfig{BasisPoints: 25, Collector: "treasury"}); err != nil {
		t.Fatalf("seed fee config: %v", err)
	}
	return NewRouter(NewHandler(svc), jwtSecret)
}

func doJSON(t *testing.T, router http.Handler, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var envelope struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	var out T
	if err := json.Unmarshal(envelope.Data, &out); err != nil {
		t.Fatalf("decode data: %v (%s)", err, envelope.Data)
	}
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope contracts.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v (%s)", err, rec.Body.String())
	}
	return envelope.Error.Code
}

func TestAuthRequired(t *testing.T) {
	router := newTestRouter(t, "")
	rec := doJSON(t, router, http.MethodPost, "/v1/payments", "", contracts.ProcessPaymentRequest{Payee: "bob", Amount: 1})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing bearer: got %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz must stay open: got %d", rec.Code)
	}
}

func TestProcessPaymentEndpoint(t *testing.T) {
	router := newTestRouter(t, "")
	rec := doJSON(t, router, http.MethodPost, "/v1/payments", "alice", contracts.ProcessPaymentRequest{Payee: "bob", Amount: 1_000_000})
	if rec.Code != http.StatusOK {
		t.Fatalf("process payment: got %d (%s)", rec.Code, rec.Body.String())
	}
	payment := decodeData[contracts.PaymentResponse](t, rec)
	if payment.FeeAmount != 2_500 || payment.NetAmount != 997_500 {
		t.Fatalf("payment response: %+v", payment)
	}

	rec = doJSON(t, router, http.MethodGet, "/v1/accounts/bob/stats", "alice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats: got %d", rec.Code)
	}
	stats := decodeData[contracts.StatsResponse](t, rec)
	if stats.TotalReceived != 997_500 || stats.PaymentCount != 1 {
		t.Fatalf("stats response: %+v", stats)
	}

	rec = doJSON(t, router, http.MethodGet, "/v1/payments/99", "alice", nil)
	if rec.Code != http.StatusNotFound || errorCode(t, rec) != "not_found" {
		t.Fatalf("missing payment: got %d %s", rec.Code, rec.Body.String())
	}
}

func TestEscrowEndpoints(t *testing.T) {
	router := newTestRouter(t, "")
	rec := doJSON(t, router, http.MethodPost, "/v1/escrows", "alice", contracts.CreateEscrowRequest{
		Payee: "bob", Amount: 10_000, SuppliedValue: 10_000, ReleaseTime: time.Now().Add(time.Hour).Unix(),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create escrow: got %d (%s)", rec.Code, rec.Body.String())
	}
	escrow := decodeData[contracts.EscrowResponse](t, rec)
	if escrow.State != string(domain.EscrowStateActive) {
		t.Fatalf("created state: %s", escrow.State)
	}

	rec = doJSON(t, router, http.MethodPost, "/v1/escrows/"+escrow.EscrowID+"/release", "mallory", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("third-party release: got %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodPost, "/v1/escrows/"+escrow.EscrowID+"/release", "bob", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("payee release: got %d (%s)", rec.Code, rec.Body.String())
	}
	release := decodeData[contracts.ReleaseEscrowResponse](t, rec)
	if release.Payment.FeeAmount != 25 || release.Payment.NetAmount != 9_975 {
		t.Fatalf("release payment: %+v", release.Payment)
	}
	rec = doJSON(t, router, http.MethodPost, "/v1/escrows/"+escrow.EscrowID+"/refund", "root", nil)
	if rec.Code != http.StatusConflict || errorCode(t, rec) != "already_finalized" {
		t.Fatalf("refund after release: got %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, "/v1/escrows", "alice", contracts.CreateEscrowRequest{
		Payee: "bob", Amount: 100, SuppliedValue: 99,
	})
	if rec.Code != http.StatusUnprocessableEntity || errorCode(t, rec) != "insufficient_value" {
		t.Fatalf("value mismatch: got %d %s", rec.Code, rec.Body.String())
	}
}

func TestSplitEndpoint(t *testing.T) {
	router := newTestRouter(t, "")
	rec := doJSON(t, router, http.MethodPost, "/v1/splits", "alice", contracts.ProcessSplitRequest{
		Recipients: []string{"bob", "carol", "dave"},
		Amounts:    []int64{300, 300, 400},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("split: got %d (%s)", rec.Code, rec.Body.String())
	}
	split := decodeData[contracts.SplitResponse](t, rec)
	if split.GrossTotal != 1000 || split.FeeTotal != 3 || len(split.Payments) != 3 {
		t.Fatalf("split response: %+v", split)
	}
}

func TestAdminEndpoints(t *testing.T) {
	router := newTestRouter(t, "")

	rec := doJSON(t, router, http.MethodPost, "/v1/admin/pause", "mallory", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("unprivileged pause: got %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodPost, "/v1/admin/pause", "root", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin pause: got %d (%s)", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, router, http.MethodPost, "/v1/payments", "alice", contracts.ProcessPaymentRequest{Payee: "bob", Amount: 1})
	if rec.Code != http.StatusServiceUnavailable || errorCode(t, rec) != "engine_paused" {
		t.Fatalf("payment while paused: got %d %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, router, http.MethodPost, "/v1/admin/unpause", "root", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unpause: got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/v1/admin/roles/grant", "root", contracts.GrantRoleRequest{Account: "ops", Role: "superuser"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown role: got %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodPost, "/v1/admin/roles/grant", "root", contracts.GrantRoleRequest{Account: "ops", Role: "operator"})
	if rec.Code != http.StatusOK {
		t.Fatalf("grant operator: got %d (%s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPut, "/v1/admin/fee-config", "ops", contracts.SetFeeConfigRequest{BasisPoints: 100, Collector: "treasury"})
	if rec.Code != http.StatusOK {
		t.Fatalf("operator fee update: got %d (%s)", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, router, http.MethodGet, "/v1/fee-config", "alice", nil)
	cfg := decodeData[contracts.FeeConfigResponse](t, rec)
	if cfg.BasisPoints != 100 {
		t.Fatalf("fee config readback: %+v", cfg)
	}
}

func TestJWTAuth(t *testing.T) {
	const secret = "test-signing-secret"
	router := newTestRouter(t, secret)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	rec := doJSON(t, router, http.MethodPost, "/v1/payments", token, contracts.ProcessPaymentRequest{Payee: "bob", Amount: 100})
	if rec.Code != http.StatusOK {
		t.Fatalf("jwt payment: got %d (%s)", rec.Code, rec.Body.String())
	}
	payment := decodeData[contracts.PaymentResponse](t, rec)
	if payment.Payer != "alice" {
		t.Fatalf("subject claim must become the payer: %+v", payment)
	}

	rec = doJSON(t, router, http.MethodPost, "/v1/payments", "not-a-jwt", contracts.ProcessPaymentRequest{Payee: "bob", Amount: 100})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("opaque token with secret configured: got %d", rec.Code)
	}
}
