package application

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paygrid/payment-engine/internal/contracts"
	"github.com/paygrid/payment-engine/internal/domain"
	"github.com/paygrid/payment-engine/internal/ports"
)

// FlushOutbox drains pending outbox records to the primary event stream in
// sequence order. Value-moving events additionally fan out to the analytics
// stream best-effort; a primary publish failure dead-letters the record and
// halts the batch so ordering is preserved for the next attempt.
func (s *Service) FlushOutbox(ctx context.Context) error {
	if s.outbox == nil {
		return nil
	}
	pending, err := s.outbox.ListPending(ctx, s.cfg.OutboxFlushBatchSize)
	if err != nil {
		return err
	}
	for _, rec := range pending {
		if s.domainEvents != nil {
			if err := s.domainEvents.PublishDomain(ctx, rec.Envelope); err != nil {
				if s.dlq != nil {
					now := s.nowFn()
					_ = s.dlq.PublishDLQ(ctx, contracts.DLQRecord{
						OriginalEvent: rec.Envelope,
						ErrorSummary:  err.Error(),
						RetryCount:    1,
						FirstSeenAt:   now,
						LastErrorAt:   now,
						SourceTopic:   rec.Envelope.EventType,
						DLQTopic:      "payment-engine.dlq",
						TraceID:       rec.Envelope.TraceID,
					})
				}
				return err
			}
		}
		if rec.EventClass == domain.EventClassDomain && s.analytics != nil {
			_ = s.analytics.PublishAnalytics(ctx, rec.Envelope)
		}
		if err := s.outbox.MarkSent(ctx, rec.RecordID, s.nowFn()); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) enqueueEvent(ctx context.Context, eventType, traceID string, data any, partitionKey string, now time.Time) error {
	if s.outbox == nil {
		return nil
	}
	if !domain.IsEmittedEvent(eventType) {
		return domain.ErrInvalidInput
	}
	b, err := json.Marshal(data)
	if err != nil {
		return domain.ErrInvalidInput
	}
	if strings.TrimSpace(traceID) == "" {
		traceID = uuid.NewString()
	}
	env := contracts.EventEnvelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventClass:    domain.EventClass(eventType),
		OccurredAt:    now,
		PartitionKey:  partitionKey,
		SourceService: s.cfg.ServiceName,
		TraceID:       traceID,
		SchemaVersion: "v1",
		Data:          b,
	}
	return s.outbox.Enqueue(ctx, ports.OutboxRecord{
		RecordID:   uuid.NewString(),
		EventClass: env.EventClass,
		Envelope:   env,
		CreatedAt:  now,
	})
}

func (s *Service) enqueuePaymentRecorded(ctx context.Context, p domain.Payment, traceID string, now time.Time) error {
	return s.enqueueEvent(ctx, domain.EventPaymentRecorded, traceID, contracts.PaymentRecordedPayload{
		PaymentID:   p.ID,
		Payer:       p.Payer,
		Payee:       p.Payee,
		Token:       p.Token,
		GrossAmount: p.GrossAmount,
		FeeAmount:   p.FeeAmount,
		NetAmount:   p.NetAmount,
		Metadata:    p.Metadata,
		Status:      string(p.Status),
		RecordedAt:  p.CreatedAt.UTC().Format(time.RFC3339),
	}, strconv.FormatInt(p.ID, 10), now)
}

func (s *Service) enqueueEscrowCreated(ctx context.Context, e domain.EscrowPayment, traceID string, now time.Time) error {
	return s.enqueueEvent(ctx, domain.EventEscrowCreated, traceID, contracts.EscrowCreatedPayload{
		EscrowID:       e.EscrowID,
		Payer:          e.Payer,
		Payee:          e.Payee,
		Token:          e.Token,
		Amount:         e.Amount,
		ReleaseTime:    e.ReleaseTime.UTC().Format(time.RFC3339),
		FeeBasisPoints: e.FeeBasisPoints,
		CreatedAt:      e.CreatedAt.UTC().Format(time.RFC3339),
	}, e.EscrowID, now)
}

func (s *Service) enqueueEscrowReleased(ctx context.Context, e domain.EscrowPayment, p domain.Payment, releasedBy string, adminOverride bool, traceID string, now time.Time) error {
	return s.enqueueEvent(ctx, domain.EventEscrowReleased, traceID, contracts.EscrowReleasedPayload{
		EscrowID:      e.EscrowID,
		PaymentID:     p.ID,
		ReleasedBy:    releasedBy,
		AdminOverride: adminOverride,
		FeeAmount:     p.FeeAmount,
		NetAmount:     p.NetAmount,
		ReleasedAt:    now.UTC().Format(time.RFC3339),
	}, e.EscrowID, now)
}

func (s *Service) enqueueEscrowRefunded(ctx context.Context, e domain.EscrowPayment, refundedBy, traceID string, now time.Time) error {
	return s.enqueueEvent(ctx, domain.EventEscrowRefunded, traceID, contracts.EscrowRefundedPayload{
		EscrowID:   e.EscrowID,
		RefundedBy: refundedBy,
		Amount:     e.Amount,
		RefundedAt: now.UTC().Format(time.RFC3339),
	}, e.EscrowID, now)
}

func (s *Service) enqueueSplitProcessed(ctx context.Context, r SplitResult, payer, token, traceID string, now time.Time) error {
	ids := make([]int64, 0, len(r.Payments))
	for _, p := range r.Payments {
		ids = append(ids, p.ID)
	}
	return s.enqueueEvent(ctx, domain.EventSplitProcessed, traceID, contracts.SplitProcessedPayload{
		SplitID:        r.SplitID,
		Payer:          payer,
		Token:          token,
		GrossTotal:     r.GrossTotal,
		FeeTotal:       r.FeeTotal,
		RecipientCount: len(r.Payments),
		PaymentIDs:     ids,
		ProcessedAt:    now.UTC().Format(time.RFC3339),
	}, r.SplitID, now)
}
