package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/paygrid/payment-engine/internal/domain"
	"github.com/paygrid/payment-engine/internal/ports"
	"github.com/redis/go-redis/v9"
)

// Connect initializes a Redis client from URL or host:port input.
func Connect(_ context.Context, redisURL string) (*redis.Client, error) {
	if strings.HasPrefix(redisURL, "redis://") {
		opt, parseErr := redis.ParseURL(redisURL)
		if parseErr != nil {
			return nil, fmt.Errorf("parse redis url: %w", parseErr)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

// RedisIdempotencyStore keeps reservation and replay state in Redis hashes
// with the record TTL applied at the key level. Reservation uses SETNX-style
// semantics via HSetNX on the request hash so concurrent retries race safely.
type RedisIdempotencyStore struct {
	client *redis.Client
}

func NewRedisIdempotencyStore(client *redis.Client) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client}
}

func idempotencyKey(key string) string {
	return "payments:idempotency:" + key
}

func (s *RedisIdempotencyStore) Get(ctx context.Context, key string, _ time.Time) (*ports.IdempotencyRecord, error) {
	data, err := s.client.HGetAll(ctx, idempotencyKey(key)).Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	rec := ports.IdempotencyRecord{Key: key, RequestHash: data["request_hash"]}
	if raw, ok := data["response_code"]; ok && raw != "" {
		if code, convErr := strconv.Atoi(raw); convErr == nil {
			rec.ResponseCode = code
		}
	}
	if raw, ok := data["response_body"]; ok {
		rec.ResponseBody = []byte(raw)
	}
	if raw, ok := data["expires_at"]; ok && raw != "" {
		if unix, convErr := strconv.ParseInt(raw, 10, 64); convErr == nil {
			rec.ExpiresAt = time.Unix(unix, 0).UTC()
		}
	}
	return &rec, nil
}

// Reserve ignores the caller clock; the key-level TTL already removes
// expired reservations server-side.
func (s *RedisIdempotencyStore) Reserve(ctx context.Context, key, requestHash string, _, expiresAt time.Time) error {
	rkey := idempotencyKey(key)
	set, err := s.client.HSetNX(ctx, rkey, "request_hash", requestHash).Result()
	if err != nil {
		return err
	}
	if !set {
		return domain.ErrConflict
	}
	pipe := s.client.Pipeline()
	pipe.HSet(ctx, rkey, "expires_at", expiresAt.Unix())
	pipe.ExpireAt(ctx, rkey, expiresAt)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisIdempotencyStore) Complete(ctx context.Context, key string, responseCode int, responseBody []byte, _ time.Time) error {
	rkey := idempotencyKey(key)
	exists, err := s.client.Exists(ctx, rkey).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return domain.ErrNotFound
	}
	err = s.client.HSet(ctx, rkey,
		"response_code", responseCode,
		"response_body", string(responseBody),
	).Err()
	if errors.Is(err, redis.Nil) {
		return domain.ErrNotFound
	}
	return err
}
