package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/paygrid/payment-engine/internal/domain"
)

func TestPauseRequiresPauserOrAdmin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if err := h.svc.Pause(ctx, Actor{Account: "mallory"}); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("unprivileged pause: got %v", err)
	}
	if err := h.svc.GrantRole(ctx, asRoot(""), "ops", domain.RolePauser); err != nil {
		t.Fatalf("grant pauser: %v", err)
	}
	if err := h.svc.Pause(ctx, Actor{Account: "ops"}); err != nil {
		t.Fatalf("pauser pause: %v", err)
	}
	if !h.svc.Paused() {
		t.Fatal("engine not paused")
	}
	// Operator alone cannot unpause.
	if err := h.svc.GrantRole(ctx, asRoot(""), "runner", domain.RoleOperator); err != nil {
		t.Fatalf("grant operator: %v", err)
	}
	if err := h.svc.Unpause(ctx, Actor{Account: "runner"}); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("operator unpause: got %v", err)
	}
	if err := h.svc.Unpause(ctx, asRoot("")); err != nil {
		t.Fatalf("admin unpause: %v", err)
	}
}

func TestPauseBlocksValueMovement(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	escrow, err := h.svc.CreateEscrow(ctx, Actor{Account: "alice"}, EscrowInput{
		Payee: "bob", Amount: 500, SuppliedValue: 500, ReleaseTime: h.now.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateEscrow: %v", err)
	}
	if err := h.svc.Pause(ctx, asRoot("")); err != nil {
		t.Fatalf("pause: %v", err)
	}

	if _, err := h.svc.ProcessPayment(ctx, Actor{Account: "alice"}, PaymentInput{Payee: "bob", Amount: 100}); !errors.Is(err, domain.ErrEnginePaused) {
		t.Fatalf("payment while paused: got %v", err)
	}
	if _, err := h.svc.CreateEscrow(ctx, Actor{Account: "alice"}, EscrowInput{Payee: "bob", Amount: 100, SuppliedValue: 100, ReleaseTime: h.now.Add(time.Hour)}); !errors.Is(err, domain.ErrEnginePaused) {
		t.Fatalf("escrow create while paused: got %v", err)
	}
	if _, err := h.svc.ReleaseEscrow(ctx, Actor{Account: "bob"}, escrow.EscrowID); !errors.Is(err, domain.ErrEnginePaused) {
		t.Fatalf("escrow release while paused: got %v", err)
	}
	if _, err := h.svc.RefundEscrow(ctx, asRoot(""), escrow.EscrowID); !errors.Is(err, domain.ErrEnginePaused) {
		t.Fatalf("escrow refund while paused: got %v", err)
	}
	if _, err := h.svc.ProcessSplit(ctx, Actor{Account: "alice"}, SplitInput{Recipients: []string{"bob"}, Amounts: []int64{100}}); !errors.Is(err, domain.ErrEnginePaused) {
		t.Fatalf("split while paused: got %v", err)
	}

	// Reads stay available while paused.
	if _, err := h.svc.GetEscrow(ctx, escrow.EscrowID); err != nil {
		t.Fatalf("read while paused: %v", err)
	}

	if err := h.svc.Unpause(ctx, asRoot("")); err != nil {
		t.Fatalf("unpause: %v", err)
	}
	if _, err := h.svc.ProcessPayment(ctx, Actor{Account: "alice"}, PaymentInput{Payee: "bob", Amount: 100}); err != nil {
		t.Fatalf("payment after unpause: %v", err)
	}
}

func TestPauseSerializedWithValueMovement(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = h.svc.ProcessPayment(ctx, Actor{Account: "alice"}, PaymentInput{Payee: "bob", Amount: 1_000})
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := h.svc.Pause(ctx, asRoot("")); err != nil {
			t.Errorf("pause: %v", err)
		}
	}()
	wg.Wait()

	// Once the pause event is sequenced, no payment may appear behind it.
	paused := false
	for _, env := range h.pendingEvents(t) {
		switch env.EventType {
		case domain.EventEnginePaused:
			paused = true
		case domain.EventPaymentRecorded:
			if paused {
				t.Fatalf("payment sequenced after pause at %d", env.Sequence)
			}
		}
	}
	if !paused {
		t.Fatal("paused event missing")
	}
}

func TestPauseStateTransitions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if err := h.svc.Unpause(ctx, asRoot("")); !errors.Is(err, domain.ErrNotPaused) {
		t.Fatalf("unpause while running: got %v", err)
	}
	if err := h.svc.Pause(ctx, asRoot("")); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := h.svc.Pause(ctx, asRoot("")); !errors.Is(err, domain.ErrAlreadyPaused) {
		t.Fatalf("double pause: got %v", err)
	}
	events := h.pendingEvents(t)
	if countEvents(events, domain.EventEnginePaused) != 1 {
		t.Fatalf("expected exactly one paused event, got %d", countEvents(events, domain.EventEnginePaused))
	}
}
