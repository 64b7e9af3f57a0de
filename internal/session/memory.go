package session

import (
	"context"
	"sync"
)

// MemoryStore implements Store with an in-process map. It mirrors RedisStore's
// per-entry atomicity via a single mutex. Suitable for tests and single-node
// development only; it cannot serve a horizontally scaled deployment.
type MemoryStore struct {
	mu sync.Mutex
	m  map[string]map[string]string // userID → deviceID → token
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: make(map[string]map[string]string)}
}

func (s *MemoryStore) Upsert(ctx context.Context, userID, deviceID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	devices, ok := s.m[userID]
	if !ok {
		devices = make(map[string]string)
		s.m[userID] = devices
	}
	devices[deviceID] = token
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, userID, deviceID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.m[userID][deviceID]
	if !ok {
		return "", ErrNotFound
	}
	return token, nil
}

func (s *MemoryStore) Delete(ctx context.Context, userID, deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m[userID], deviceID)
	return nil
}

func (s *MemoryStore) DeleteAll(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, userID)
	return nil
}

func (s *MemoryStore) Rotate(ctx context.Context, userID, deviceID, presented, next string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.m[userID][deviceID]
	if !ok {
		return ErrNotFound
	}
	if current != presented {
		return ErrTokenMismatch
	}
	s.m[userID][deviceID] = next
	return nil
}
