package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements an in-memory Store with TTL support.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
	now     func() time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryStore) {
		m.now = now
	}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{
		entries: make(map[string]Entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get retrieves a value from the store. Expired entries are dropped lazily.
func (m *MemoryStore) Get(ctx context.Context, key, group string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	full := groupKey(group, key)

	m.mu.RLock()
	entry, ok := m.entries[full]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	if entry.Expired(m.now()) {
		m.mu.Lock()
		if current, ok := m.entries[full]; ok && current.Expired(m.now()) {
			delete(m.entries, full)
		}
		m.mu.Unlock()
		return nil, false, nil
	}

	return append([]byte(nil), entry.Value...), true, nil
}

// Set stores a value. A ttl <= 0 never expires.
func (m *MemoryStore) Set(ctx context.Context, key string, value []byte, group string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entry := Entry{Key: key, Value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.ExpiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[groupKey(group, key)] = entry
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
