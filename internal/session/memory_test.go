package session

import (
	"context"
	"testing"
)

// These tests exercise the Store contract against MemoryStore, which mirrors
// the Redis implementation's per-entry semantics.

func TestMemoryStore_UpsertOverwrites(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Upsert(ctx, "u1", "d1", "t0"); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := s.Upsert(ctx, "u1", "d1", "t1"); err != nil {
		t.Fatalf("Upsert overwrite: %v", err)
	}
	got, err := s.Get(ctx, "u1", "d1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "t1" {
		t.Errorf("Get = %q, want %q (older token must be superseded)", got, "t1")
	}
}

func TestMemoryStore_GetAbsent(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Get(context.Background(), "u1", "d1"); err != ErrNotFound {
		t.Errorf("Get absent: want ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_DeleteIdempotent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_ = s.Upsert(ctx, "u1", "d1", "t0")

	if err := s.Delete(ctx, "u1", "d1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "u1", "d1"); err != nil {
		t.Fatalf("Delete twice: %v", err)
	}
	if _, err := s.Get(ctx, "u1", "d1"); err != ErrNotFound {
		t.Errorf("Get after delete: want ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_DeviceIsolation(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_ = s.Upsert(ctx, "u1", "a", "token-a")
	_ = s.Upsert(ctx, "u1", "b", "token-b")

	if err := s.Delete(ctx, "u1", "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, err := s.Get(ctx, "u1", "b")
	if err != nil || got != "token-b" {
		t.Errorf("device b entry should survive: got %q, %v", got, err)
	}
}

func TestMemoryStore_DeleteAll(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_ = s.Upsert(ctx, "u1", "a", "token-a")
	_ = s.Upsert(ctx, "u1", "b", "token-b")
	_ = s.Upsert(ctx, "u2", "a", "other")

	if err := s.DeleteAll(ctx, "u1"); err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
	if err := s.DeleteAll(ctx, "u1"); err != nil {
		t.Fatalf("DeleteAll twice: %v", err)
	}
	if _, err := s.Get(ctx, "u1", "a"); err != ErrNotFound {
		t.Errorf("u1/a should be gone, got %v", err)
	}
	if _, err := s.Get(ctx, "u1", "b"); err != ErrNotFound {
		t.Errorf("u1/b should be gone, got %v", err)
	}
	if got, err := s.Get(ctx, "u2", "a"); err != nil || got != "other" {
		t.Errorf("u2 must be untouched: got %q, %v", got, err)
	}
}

func TestMemoryStore_Rotate(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_ = s.Upsert(ctx, "u1", "d1", "t0")

	if err := s.Rotate(ctx, "u1", "d1", "t0", "t1"); err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	got, _ := s.Get(ctx, "u1", "d1")
	if got != "t1" {
		t.Errorf("after rotate: got %q, want %q", got, "t1")
	}

	// Replaying the rotated-out token must fail fast.
	if err := s.Rotate(ctx, "u1", "d1", "t0", "t2"); err != ErrTokenMismatch {
		t.Errorf("Rotate replay: want ErrTokenMismatch, got %v", err)
	}
	// Rotating a missing entry reports absence, not mismatch.
	if err := s.Rotate(ctx, "u1", "other", "t0", "t2"); err != ErrNotFound {
		t.Errorf("Rotate absent: want ErrNotFound, got %v", err)
	}
}
