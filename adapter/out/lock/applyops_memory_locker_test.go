package lock

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLockerAcquireRelease(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLocker()

	ok, err := l.Acquire(ctx, "ingest:u1", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first acquire = (%v, %v), want (true, nil)", ok, err)
	}

	ok, err = l.Acquire(ctx, "ingest:u1", time.Minute)
	if err != nil || ok {
		t.Fatalf("second acquire = (%v, %v), want (false, nil)", ok, err)
	}

	// Different key is independent.
	ok, _ = l.Acquire(ctx, "ingest:u2", time.Minute)
	if !ok {
		t.Error("acquire on a different key should succeed")
	}

	if err := l.Release(ctx, "ingest:u1"); err != nil {
		t.Fatalf("release: %v", err)
	}
	ok, _ = l.Acquire(ctx, "ingest:u1", time.Minute)
	if !ok {
		t.Error("acquire after release should succeed")
	}
}

func TestMemoryLockerExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	l := NewMemoryLocker()
	l.clock = func() time.Time { return now }

	ok, _ := l.Acquire(ctx, "ingest:u1", 5*time.Minute)
	if !ok {
		t.Fatal("first acquire should succeed")
	}

	now = now.Add(4 * time.Minute)
	if ok, _ := l.Acquire(ctx, "ingest:u1", 5*time.Minute); ok {
		t.Error("acquire before expiry should fail")
	}

	now = now.Add(2 * time.Minute)
	if ok, _ := l.Acquire(ctx, "ingest:u1", 5*time.Minute); !ok {
		t.Error("acquire after ttl should succeed")
	}
}
