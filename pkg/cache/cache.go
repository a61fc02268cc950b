package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// TTL is the lifetime of every entry written by a processor.
const TTL = 3600 * time.Second

// DefaultGroup namespaces the entries written by field processors.
const DefaultGroup = "fieldkit_custom_fields"

// Store defines the contract for all cache backends.
type Store interface {
	// Get returns the stored bytes and true on a hit. A miss is not an error.
	Get(ctx context.Context, key, group string) ([]byte, bool, error)

	// Set stores value under (group, key) for ttl. Last write wins.
	Set(ctx context.Context, key string, value []byte, group string, ttl time.Duration) error
}

// Key composes "{scope}_{purpose}_{id}".
func Key(scope, purpose string, id int64) string {
	return scope + "_" + purpose + "_" + strconv.FormatInt(id, 10)
}

// Entry is the stored form of a cached value.
type Entry struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// Expired reports whether the entry is no longer valid at now.
func (e Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

// Remember is a read-through helper: it decodes a hit, or calls compute,
// stores its JSON encoding with ttl and returns the decoded copy, so hits
// and misses yield values of the same dynamic types.
//
// Store failures are returned together with the computed value so callers
// can log them and carry on.
func Remember[T any](ctx context.Context, s Store, key, group string, ttl time.Duration, compute func() (T, error)) (T, bool, error) {
	var zero T

	raw, ok, getErr := s.Get(ctx, key, group)
	if getErr == nil && ok {
		var v T
		if err := decode(raw, &v); err == nil {
			return v, true, nil
		}
	}

	v, err := compute()
	if err != nil {
		return zero, false, err
	}

	raw, err = json.Marshal(v)
	if err != nil {
		return v, false, fmt.Errorf("failed to encode cache entry %s: %w", key, err)
	}

	var out T
	if err := decode(raw, &out); err != nil {
		return v, false, fmt.Errorf("failed to decode cache entry %s: %w", key, err)
	}

	if err := s.Set(ctx, key, raw, group, ttl); err != nil {
		return out, false, fmt.Errorf("failed to store cache entry %s: %w", key, err)
	}
	if getErr != nil {
		return out, false, fmt.Errorf("failed to read cache entry %s: %w", key, getErr)
	}
	return out, false, nil
}

func decode(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}

func groupKey(group, key string) string {
	if group == "" {
		return key
	}
	return group + ":" + key
}

// NopStore never stores anything.
type NopStore struct{}

func (NopStore) Get(ctx context.Context, key, group string) ([]byte, bool, error) {
	return nil, false, nil
}

func (NopStore) Set(ctx context.Context, key string, value []byte, group string, ttl time.Duration) error {
	return nil
}

var (
	_ Store = NopStore{}
	_ Store = (*MemoryStore)(nil)
	_ Store = (*RedisStore)(nil)
	_ Store = (*FileStore)(nil)
)
