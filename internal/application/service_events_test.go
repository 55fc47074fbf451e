package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/paygrid/payment-engine/internal/domain"
)

func TestOutboxSequenceOrdering(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.svc.GrantRole(ctx, asRoot(""), "ops", domain.RolePauser); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if _, err := h.svc.ProcessPayment(ctx, Actor{Account: "alice"}, PaymentInput{Payee: "bob", Amount: 100}); err != nil {
		t.Fatalf("payment: %v", err)
	}
	if _, err := h.svc.CreateEscrow(ctx, Actor{Account: "alice"}, EscrowInput{Payee: "bob", Amount: 50, SuppliedValue: 50, ReleaseTime: h.now.Add(time.Hour)}); err != nil {
		t.Fatalf("escrow: %v", err)
	}

	events := h.pendingEvents(t)
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	wantTypes := []string{domain.EventRoleGranted, domain.EventPaymentRecorded, domain.EventEscrowCreated}
	for i, e := range events {
		if e.Sequence != uint64(i)+1 {
			t.Fatalf("sequence at position %d: got %d", i, e.Sequence)
		}
		if e.EventType != wantTypes[i] {
			t.Fatalf("event order: got %s at %d, want %s", e.EventType, i, wantTypes[i])
		}
		if e.EventID == "" || e.SchemaVersion != "v1" {
			t.Fatalf("envelope incomplete: %+v", e)
		}
	}
}

func TestFlushOutboxPublishesInOrder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if err := h.svc.Pause(ctx, asRoot("")); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := h.svc.Unpause(ctx, asRoot("")); err != nil {
		t.Fatalf("unpause: %v", err)
	}
	if _, err := h.svc.ProcessPayment(ctx, Actor{Account: "alice"}, PaymentInput{Payee: "bob", Amount: 100}); err != nil {
		t.Fatalf("payment: %v", err)
	}

	if err := h.svc.FlushOutbox(ctx); err != nil {
		t.Fatalf("FlushOutbox: %v", err)
	}
	published := h.domainPub.events
	if len(published) != 3 {
		t.Fatalf("expected 3 published events, got %d", len(published))
	}
	var last uint64
	for _, e := range published {
		if e.Sequence <= last {
			t.Fatalf("publish order violated: %d after %d", e.Sequence, last)
		}
		last = e.Sequence
	}
	// Only the value-moving event fans out to analytics.
	if len(h.analytics.events) != 1 || h.analytics.events[0].EventType != domain.EventPaymentRecorded {
		t.Fatalf("analytics copy: %+v", h.analytics.events)
	}
	if remaining := h.pendingEvents(t); len(remaining) != 0 {
		t.Fatalf("flushed events still pending: %d", len(remaining))
	}
	// Flushing an empty outbox is a no-op.
	if err := h.svc.FlushOutbox(ctx); err != nil {
		t.Fatalf("second flush: %v", err)
	}
	if len(h.domainPub.events) != 3 {
		t.Fatalf("second flush republished: %d", len(h.domainPub.events))
	}
}

func TestFlushOutboxDeadLettersOnFailure(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if _, err := h.svc.ProcessPayment(ctx, Actor{Account: "alice"}, PaymentInput{Payee: "bob", Amount: 100}); err != nil {
		t.Fatalf("payment: %v", err)
	}

	h.domainPub.err = errors.New("broker unavailable")
	if err := h.svc.FlushOutbox(ctx); err == nil {
		t.Fatal("flush must surface the publish failure")
	}
	if len(h.dlq.records) != 1 {
		t.Fatalf("expected 1 dead-lettered record, got %d", len(h.dlq.records))
	}
	if remaining := h.pendingEvents(t); len(remaining) != 1 {
		t.Fatalf("failed record must stay pending: %d", len(remaining))
	}

	// Recovery: the next flush delivers the same record.
	h.domainPub.err = nil
	if err := h.svc.FlushOutbox(ctx); err != nil {
		t.Fatalf("flush after recovery: %v", err)
	}
	if len(h.domainPub.events) != 1 || h.domainPub.events[0].EventType != domain.EventPaymentRecorded {
		t.Fatalf("recovered publish: %+v", h.domainPub.events)
	}
}

func TestSetFeeConfigGuard(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if err := h.svc.SetFeeConfig(ctx, Actor{Account: "mallory"}, domain.FeeConfig{BasisPoints: 10, Collector: "treasury"}); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("unprivileged fee change: got %v", err)
	}
	if err := h.svc.SetFeeConfig(ctx, asRoot(""), domain.FeeConfig{BasisPoints: 501, Collector: "treasury"}); !errors.Is(err, domain.ErrInvalidFeeConfig) {
		t.Fatalf("over-ceiling fee: got %v", err)
	}
	if err := h.svc.GrantRole(ctx, asRoot(""), "runner", domain.RoleOperator); err != nil {
		t.Fatalf("grant operator: %v", err)
	}
	if err := h.svc.SetFeeConfig(ctx, Actor{Account: "runner"}, domain.FeeConfig{BasisPoints: 100, Collector: "treasury"}); err != nil {
		t.Fatalf("operator fee change: %v", err)
	}
	cfg, err := h.svc.GetFeeConfig(ctx)
	if err != nil || cfg.BasisPoints != 100 {
		t.Fatalf("fee config after update: %+v err=%v", cfg, err)
	}
}
