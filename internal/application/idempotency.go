package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"

	"github.com/paygrid/payment-engine/internal/domain"
)

// The engine does not deduplicate by content: retried calls without a key are
// fresh calls. When the caller supplies an Idempotency-Key, the original
// response is replayed on retry, and reusing a key with a different request
// body fails with ErrIdempotencyConflict.

// scopedKey namespaces the idempotency key by the calling account. The same
// key presented by a different principal is a different record, so nobody is
// ever served a response cached for someone else.
func (a Actor) scopedKey() string {
	if strings.TrimSpace(a.IdempotencyKey) == "" {
		return ""
	}
	return a.Account + ":" + a.IdempotencyKey
}

func replayIdempotent[T any](ctx context.Context, s *Service, key, requestHash string) (T, bool, error) {
	var zero T
	if s.idempotency == nil || strings.TrimSpace(key) == "" {
		return zero, false, nil
	}
	rec, err := s.idempotency.Get(ctx, key, s.nowFn())
	if err != nil || rec == nil {
		return zero, false, err
	}
	if rec.RequestHash != requestHash {
		return zero, false, domain.ErrIdempotencyConflict
	}
	if len(rec.ResponseBody) == 0 {
		return zero, false, nil
	}
	var out T
	if err := json.Unmarshal(rec.ResponseBody, &out); err != nil {
		return zero, false, nil
	}
	return out, true, nil
}

func (s *Service) reserveIdempotency(ctx context.Context, key, requestHash string) error {
	if s.idempotency == nil || strings.TrimSpace(key) == "" {
		return nil
	}
	now := s.nowFn()
	err := s.idempotency.Reserve(ctx, key, requestHash, now, now.Add(s.cfg.IdempotencyTTL))
	if errors.Is(err, domain.ErrConflict) {
		return domain.ErrIdempotencyConflict
	}
	return err
}

func (s *Service) completeIdempotencyJSON(ctx context.Context, key string, code int, payload any) error {
	if s.idempotency == nil || strings.TrimSpace(key) == "" {
		return nil
	}
	b, _ := json.Marshal(payload)
	return s.idempotency.Complete(ctx, key, code, b, s.nowFn())
}

func hashJSON(v any) string {
	b, _ := json.Marshal(v)
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}
