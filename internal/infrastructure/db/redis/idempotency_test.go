package redis

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweetshop/sweetshop-api/internal/core/domain"
)

func TestPurchaseKey(t *testing.T) {
	if got := purchaseKey(42, "abc-123"); got != "idem:purchase:42:abc-123" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestDecodeResult_Pending(t *testing.T) {
	if _, err := decodeResult(pendingMarker); !errors.Is(err, domain.ErrDuplicateRequest) {
		t.Fatalf("expected ErrDuplicateRequest, got %v", err)
	}
}

func TestDecodeResult_StoredSweet(t *testing.T) {
	stored := domain.Sweet{
		ID:        7,
		Name:      "Gulab Jamun",
		Category:  "Indian",
		Price:     150,
		Quantity:  95,
		CreatedAt: time.Unix(1700000000, 0).UTC(),
		UpdatedAt: time.Unix(1700000100, 0).UTC(),
	}
	b, err := json.Marshal(stored)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := decodeResult(string(b))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != stored.ID || got.Name != stored.Name || got.Price != stored.Price || got.Quantity != stored.Quantity {
		t.Fatalf("round trip mismatch: got %+v want %+v", *got, stored)
	}
	if !got.UpdatedAt.Equal(stored.UpdatedAt) {
		t.Fatalf("updatedAt mismatch: got %s want %s", got.UpdatedAt, stored.UpdatedAt)
	}
}

func TestDecodeResult_Garbage(t *testing.T) {
	if _, err := decodeResult("{not json"); err == nil {
		t.Fatalf("expected a decode error")
	}
}

func TestNewPurchaseReplayStore_DefaultTTL(t *testing.T) {
	if s := NewPurchaseReplayStore(nil, 0); s.ttl != DefaultIdempotencyTTL {
		t.Fatalf("expected default ttl, got %s", s.ttl)
	}
}
