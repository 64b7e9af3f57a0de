package audit

import (
	"context"
	"errors"
	"sync"
	"testing"

	"identity-service/internal/audit/domain"
)

type memAuditRepo struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
	fail    bool
}

func (r *memAuditRepo) GetByID(ctx context.Context, id string) (*domain.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.entries {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}

func (r *memAuditRepo) ListByUser(ctx context.Context, userID string, limit, offset int32) ([]*domain.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.AuditLog
	for _, a := range r.entries {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memAuditRepo) Create(ctx context.Context, a *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("boom")
	}
	r.entries = append(r.entries, a)
	return nil
}

func TestLogger_LogEvent(t *testing.T) {
	repo := &memAuditRepo{}
	logger := NewLogger(repo, func(ctx context.Context) string { return "10.0.0.1" })
	logger.LogEvent(context.Background(), "user-1", domain.ActionLoginSuccess, "")

	if len(repo.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(repo.entries))
	}
	e := repo.entries[0]
	if e.ID == "" || e.UserID != "user-1" || e.Action != domain.ActionLoginSuccess || e.IP != "10.0.0.1" {
		t.Fatalf("entry = %+v", e)
	}
	if e.CreatedAt.IsZero() {
		t.Fatal("CreatedAt not set")
	}
}

func TestLogger_NilExtractorAndFailures(t *testing.T) {
	repo := &memAuditRepo{}
	logger := NewLogger(repo, nil)
	logger.LogEvent(context.Background(), "user-1", domain.ActionLogout, "")
	if repo.entries[0].IP != "unknown" {
		t.Fatalf("IP = %q, want unknown", repo.entries[0].IP)
	}

	// Repository failure must not panic or propagate.
	failing := NewLogger(&memAuditRepo{fail: true}, nil)
	failing.LogEvent(context.Background(), "user-1", domain.ActionLoginFailure, "bad password")

	// Nil repo is a no-op.
	NewLogger(nil, nil).LogEvent(context.Background(), "user-1", domain.ActionLoginFailure, "")
}
