package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/paygrid/payment-engine/internal/domain"
)

type recordingUnitOfWork struct {
	calls int
	fail  error
}

func (u *recordingUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	u.calls++
	if u.fail != nil {
		return u.fail
	}
	return fn(ctx)
}

func TestMutationsBracketedByUnitOfWork(t *testing.T) {
	h := newHarness(t)
	uow := &recordingUnitOfWork{}
	h.svc.uow = uow
	ctx := context.Background()

	if _, err := h.svc.ProcessPayment(ctx, Actor{Account: "alice"}, PaymentInput{Payee: "bob", Amount: 1_000}); err != nil {
		t.Fatalf("payment: %v", err)
	}
	escrow, err := h.svc.CreateEscrow(ctx, Actor{Account: "alice"}, EscrowInput{
		Payee: "bob", Amount: 500, SuppliedValue: 500, ReleaseTime: h.now.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("create escrow: %v", err)
	}
	if _, err := h.svc.ReleaseEscrow(ctx, Actor{Account: "bob"}, escrow.EscrowID); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := h.svc.ProcessSplit(ctx, Actor{Account: "alice"}, SplitInput{
		Recipients: []string{"bob", "carol"}, Amounts: []int64{300, 700},
	}); err != nil {
		t.Fatalf("split: %v", err)
	}
	if err := h.svc.GrantRole(ctx, asRoot(""), "ops", domain.RolePauser); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if err := h.svc.SetFeeConfig(ctx, asRoot(""), domain.FeeConfig{BasisPoints: 30, Collector: "treasury"}); err != nil {
		t.Fatalf("set fee config: %v", err)
	}
	if uow.calls != 6 {
		t.Fatalf("expected 6 bracketed mutations, got %d", uow.calls)
	}
}

func TestUnitOfWorkFailureLeavesNoTrace(t *testing.T) {
	h := newHarness(t)
	boom := errors.New("tx aborted")
	h.svc.uow = &recordingUnitOfWork{fail: boom}
	ctx := context.Background()

	if _, err := h.svc.ProcessPayment(ctx, Actor{Account: "alice"}, PaymentInput{Payee: "bob", Amount: 1_000}); !errors.Is(err, boom) {
		t.Fatalf("payment: got %v", err)
	}
	rows, _ := h.svc.ListPayments(ctx, domain.PaymentFilter{})
	if len(rows) != 0 {
		t.Fatalf("aborted payment left %d ledger rows", len(rows))
	}
	stats, _ := h.svc.GetStats(ctx, "alice")
	if stats.TotalSent != 0 || stats.PaymentCount != 0 {
		t.Fatalf("aborted payment counted in stats: %+v", stats)
	}
	if len(h.pendingEvents(t)) != 0 {
		t.Fatal("aborted payment enqueued events")
	}
}
