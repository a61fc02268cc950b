package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/thewpsquad/fieldkit/internal/atomicfile"
)

// fileIndex represents the persistent cache state.
type fileIndex struct {
	Version int              `json:"version"`
	Entries map[string]Entry `json:"entries"` // Key is "{group}:{key}"
}

// FileStore persists entries to a single JSON file.
// Writes are buffered in memory until Flush.
type FileStore struct {
	Path string

	mu    sync.RWMutex
	index fileIndex
	dirty bool
	now   func() time.Time
}

// NewFileStore opens (or starts) the store at path.
// A missing or corrupted file yields an empty store.
func NewFileStore(path string, opts ...FileOption) (*FileStore, error) {
	f := &FileStore{
		Path:  path,
		index: fileIndex{Version: 1, Entries: make(map[string]Entry)},
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	if err := f.load(); err != nil {
		return nil, err
	}
	return f, nil
}

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithFileClock replaces time.Now, mainly for tests.
func WithFileClock(now func() time.Time) FileOption {
	return func(f *FileStore) {
		f.now = now
	}
}

func (f *FileStore) load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.Path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}

	var idx fileIndex
	if err := json.Unmarshal(data, &idx); err != nil || idx.Entries == nil {
		// Treat corruption as an empty cache to self-heal.
		return nil
	}

	now := f.now()
	for k, e := range idx.Entries {
		if e.Expired(now) {
			delete(idx.Entries, k)
		}
	}
	f.index = idx
	return nil
}

// Get retrieves a fresh entry.
func (f *FileStore) Get(ctx context.Context, key, group string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	entry, ok := f.index.Entries[groupKey(group, key)]
	if !ok || entry.Expired(f.now()) {
		return nil, false, nil
	}
	return append([]byte(nil), entry.Value...), true, nil
}

// Set buffers an entry; call Flush to persist it.
func (f *FileStore) Set(ctx context.Context, key string, value []byte, group string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !json.Valid(value) {
		return fmt.Errorf("cache value for %s is not valid JSON", key)
	}

	entry := Entry{Key: key, Value: append(json.RawMessage(nil), value...)}
	if ttl > 0 {
		entry.ExpiresAt = f.now().Add(ttl)
	}

	f.mu.Lock()
	f.index.Entries[groupKey(group, key)] = entry
	f.dirty = true
	f.mu.Unlock()
	return nil
}

// Flush writes the store to disk if it changed since the last flush.
// The write lock is held until the file is replaced, so an entry set
// concurrently is either in this write or left dirty for the next one.
func (f *FileStore) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.dirty {
		return nil
	}
	data, err := json.MarshalIndent(f.index, "", "  ")
	if err != nil {
		return err
	}
	if err := atomicfile.WriteFile(f.Path, data, 0644); err != nil {
		return err
	}
	f.dirty = false
	return nil
}

// Close flushes pending entries.
func (f *FileStore) Close() error {
	return f.Flush()
}
