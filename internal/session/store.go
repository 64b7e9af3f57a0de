// Package session tracks the currently valid refresh token per (user, device)
// pair. The store is shared by every service instance; validity of a refresh
// token is decided by textual equality with the stored entry.
package session

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no entry exists for the (user, device) pair.
	ErrNotFound = errors.New("session not found")
	// ErrTokenMismatch is returned by Rotate when the stored token differs from
	// the presented one (replay of a rotated-out token, or cross-device reuse).
	ErrTokenMismatch = errors.New("refresh token mismatch")
)

// Store is the per-user device→refresh-token map. All operations are atomic at
// the granularity of a single (userID, deviceID) entry. Implementations must
// surface store unavailability as an error, never as an absent entry.
type Store interface {
	// Upsert sets or overwrites the entry unconditionally (last writer wins).
	Upsert(ctx context.Context, userID, deviceID, token string) error
	// Get returns the current token for the pair, or ErrNotFound.
	Get(ctx context.Context, userID, deviceID string) (string, error)
	// Delete removes one entry. Idempotent: no-op when absent.
	Delete(ctx context.Context, userID, deviceID string) error
	// DeleteAll removes every entry for the user. Idempotent.
	DeleteAll(ctx context.Context, userID string) error
	// Rotate atomically replaces the entry with next, but only when the stored
	// value equals presented. Returns ErrNotFound when no entry exists and
	// ErrTokenMismatch when the stored value differs, so a losing concurrent
	// refresh fails fast instead of silently winning an overwrite race.
	Rotate(ctx context.Context, userID, deviceID, presented, next string) error
}
