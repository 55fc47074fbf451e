package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/paygrid/payment-engine/internal/domain"
)

func TestIdempotencyReserveUsesCallerClock(t *testing.T) {
	repo := NewRepositories().Idempotency
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := repo.Reserve(ctx, "k", "h1", now, now.Add(time.Hour)); err != nil {
		t.Fatalf("first reserve: %v", err)
	}
	if err := repo.Reserve(ctx, "k", "h2", now.Add(30*time.Minute), now.Add(2*time.Hour)); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("live reservation: got %v", err)
	}
	// Expiry must be judged by the same clock Get uses, not wall time.
	later := now.Add(2 * time.Hour)
	if err := repo.Reserve(ctx, "k", "h2", later, later.Add(time.Hour)); err != nil {
		t.Fatalf("reserve after expiry: %v", err)
	}
	rec, err := repo.Get(ctx, "k", later)
	if err != nil || rec == nil || rec.RequestHash != "h2" {
		t.Fatalf("takeover not applied: rec=%+v err=%v", rec, err)
	}
}
