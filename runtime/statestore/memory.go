package statestore

import (
	"context"
	"sync"
	"time"
)

// MemoryKV is an in-memory KV. It is safe for concurrent use and suitable
// for tests and single-process runs.
type MemoryKV struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryOption configures a MemoryKV.
type MemoryOption func(*MemoryKV)

// WithMemoryTTL expires entries ttl after they are written. Zero keeps them forever.
func WithMemoryTTL(ttl time.Duration) MemoryOption {
	return func(s *MemoryKV) { s.ttl = ttl }
}

// NewMemoryKV creates an empty in-memory store.
func NewMemoryKV(opts ...MemoryOption) *MemoryKV {
	s := &MemoryKV{entries: make(map[string]memoryEntry), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get implements KV. A copy of the stored value is returned.
func (s *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok || s.expired(e) {
		return nil, ErrNotFound
	}
	return append([]byte(nil), e.value...), nil
}

// Set implements KV.
func (s *MemoryKV) Set(_ context.Context, key string, value []byte) error {
	if key == "" {
		return ErrInvalidKey
	}
	e := memoryEntry{value: append([]byte(nil), value...)}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}
	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
	return nil
}

// Delete implements KV. Deleting a missing key is not an error.
func (s *MemoryKV) Delete(_ context.Context, key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryKV) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)
}
