package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sweetshop/sweetshop-api/internal/core/domain"
)

const (
	// DefaultIdempotencyTTL is how long a completed purchase can be replayed.
	DefaultIdempotencyTTL = 24 * time.Hour

	// pendingTTL bounds how long a crashed request can hold a key.
	pendingTTL    = 30 * time.Second
	pendingMarker = "pending"
)

// PurchaseReplayStore makes keyed purchases apply at most once.
// Key format: idem:purchase:<sweet_id>:<idempotency_key>
type PurchaseReplayStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPurchaseReplayStore wraps client. A non-positive ttl falls back to
// DefaultIdempotencyTTL.
func NewPurchaseReplayStore(client *redis.Client, ttl time.Duration) *PurchaseReplayStore {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &PurchaseReplayStore{client: client, ttl: ttl}
}

// Claim reserves the key with a short-lived pending marker. It returns the
// stored sweet if the key already completed and domain.ErrDuplicateRequest if
// another request still holds it.
func (s *PurchaseReplayStore) Claim(ctx context.Context, sweetID int64, key string) (*domain.Sweet, error) {
	k := purchaseKey(sweetID, key)

	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.client.SetNX(ctx, k, pendingMarker, pendingTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("idempotency claim: %w", err)
		}
		if ok {
			return nil, nil
		}

		raw, err := s.client.Get(ctx, k).Result()
		if errors.Is(err, redis.Nil) {
			// Expired between SETNX and GET; try to claim again.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("idempotency lookup: %w", err)
		}
		return decodeResult(raw)
	}
	return nil, domain.ErrDuplicateRequest
}

// Complete stores the purchase result so retries replay it.
func (s *PurchaseReplayStore) Complete(ctx context.Context, sweetID int64, key string, result *domain.Sweet) error {
	b, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("idempotency encode: %w", err)
	}
	return s.client.Set(ctx, purchaseKey(sweetID, key), b, s.ttl).Err()
}

// Release drops a claim after a failed purchase so the caller may retry.
func (s *PurchaseReplayStore) Release(ctx context.Context, sweetID int64, key string) error {
	return s.client.Del(ctx, purchaseKey(sweetID, key)).Err()
}

func purchaseKey(sweetID int64, key string) string {
	return fmt.Sprintf("idem:purchase:%d:%s", sweetID, key)
}

func decodeResult(raw string) (*domain.Sweet, error) {
	if raw == pendingMarker {
		return nil, domain.ErrDuplicateRequest
	}
	var sweet domain.Sweet
	if err := json.Unmarshal([]byte(raw), &sweet); err != nil {
		return nil, fmt.Errorf("idempotency decode: %w", err)
	}
	return &sweet, nil
}
