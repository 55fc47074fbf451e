package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/paygrid/payment-engine/internal/adapters/memory"
	"github.com/paygrid/payment-engine/internal/contracts"
	"github.com/paygrid/payment-engine/internal/domain"
)

// The event adapters cannot be imported here without a cycle, so the tests
// carry their own capturing publishers.

type captureDomainPublisher struct {
	mu     sync.Mutex
	events []contracts.EventEnvelope
	err    error
}

func (p *captureDomainPublisher) PublishDomain(_ context.Context, event contracts.EventEnvelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

type captureAnalyticsPublisher struct {
	mu     sync.Mutex
	events []contracts.EventEnvelope
}

func (p *captureAnalyticsPublisher) PublishAnalytics(_ context.Context, event contracts.EventEnvelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

type captureDLQPublisher struct {
	mu      sync.Mutex
	records []contracts.DLQRecord
}

func (p *captureDLQPublisher) PublishDLQ(_ context.Context, record contracts.DLQRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records = append(p.records, record)
	return nil
}

type harness struct {
	svc       *Service
	repos     *memory.Repositories
	domainPub *captureDomainPublisher
	analytics *captureAnalyticsPublisher
	dlq       *captureDLQPublisher
	now       time.Time
}

// newHarness wires the engine against in-memory adapters with a controllable
// clock, a genesis admin "root", and a 25 bps fee paid to "treasury".
func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		repos:     memory.NewRepositories(),
		domainPub: &captureDomainPublisher{},
		analytics: &captureAnalyticsPublisher{},
		dlq:       &captureDLQPublisher{},
		now:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	h.svc = NewService(Dependencies{
		Roles:        h.repos.Roles,
		Payments:     h.repos.Payments,
		Stats:        h.repos.Stats,
		Escrows:      h.repos.Escrows,
		FeeConfig:    h.repos.FeeConfig,
		Idempotency:  h.repos.Idempotency,
		Outbox:       h.repos.Outbox,
		DomainEvents: h.domainPub,
		Analytics:    h.analytics,
		DLQ:          h.dlq,
	})
	h.svc.nowFn = func() time.Time { return h.now }
	ctx := context.Background()
	if _, err := h.repos.Roles.Grant(ctx, "root", domain.RoleAdmin); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	if err := h.repos.FeeConfig.Set(ctx, domain.FeeConfig{BasisPoints: 25, Collector: "treasury"}); err != nil {
		t.Fatalf("seed fee config: %v", err)
	}
	return h
}

func (h *harness) advance(d time.Duration) {
	h.now = h.now.Add(d)
}

func (h *harness) pendingEvents(t *testing.T) []contracts.EventEnvelope {
	t.Helper()
	pending, err := h.repos.Outbox.ListPending(context.Background(), 1000)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	out := make([]contracts.EventEnvelope, 0, len(pending))
	for _, rec := range pending {
		out = append(out, rec.Envelope)
	}
	return out
}

func countEvents(events []contracts.EventEnvelope, eventType string) int {
	n := 0
	for _, e := range events {
		if e.EventType == eventType {
			n++
		}
	}
	return n
}

func asRoot(key string) Actor {
	return Actor{Account: "root", RequestID: "req_root", IdempotencyKey: key}
}
