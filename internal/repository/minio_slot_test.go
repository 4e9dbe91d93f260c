package repository

import (
	"context"
	"errors"
	"testing"
)

func TestMinioSlotRetriesBucketInitAfterFailure(t *testing.T) {
	slot, err := NewMinioSlot("127.0.0.1:1", "access", "secret", "catalog", false)
	if err != nil {
		t.Fatalf("create minio slot: %v", err)
	}
	calls := 0
	slot.ensure = func(ctx context.Context) error {
		calls++
		return ctx.Err()
	}

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := slot.Get(cancelled, "products"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancelled init, got %v", err)
	}
	if err := slot.lazyInit(context.Background()); err != nil {
		t.Fatalf("a later operation must retry bucket init, got %v", err)
	}
	if err := slot.lazyInit(context.Background()); err != nil {
		t.Fatalf("init after success: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected one failed and one successful attempt, got %d calls", calls)
	}
}

func TestMinioSlotPingFailsUntilBucketReady(t *testing.T) {
	slot, err := NewMinioSlot("127.0.0.1:1", "access", "secret", "catalog", false)
	if err != nil {
		t.Fatalf("create minio slot: %v", err)
	}
	down := errors.New("minio unavailable")
	slot.ensure = func(context.Context) error { return down }
	if err := slot.Ping(context.Background()); !errors.Is(err, down) {
		t.Fatalf("expected readiness to report init failure, got %v", err)
	}
}
