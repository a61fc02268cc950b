package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestKey(t *testing.T) {
	assert.Equal(t, "native_fields_42", Key("native", "fields", 42))
	assert.Equal(t, "structured_values_7", Key("structured", "values", 7))
}

func TestMemoryStore_TTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(WithClock(clock.Now))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte(`"v"`), DefaultGroup, TTL))

	clock.Advance(3599 * time.Second)
	got, ok, err := store.Get(ctx, "k", DefaultGroup)
	require.NoError(t, err)
	assert.True(t, ok, "entry must still be valid at T+3599s")
	assert.Equal(t, []byte(`"v"`), got)

	clock.Advance(2 * time.Second)
	_, ok, err = store.Get(ctx, "k", DefaultGroup)
	require.NoError(t, err)
	assert.False(t, ok, "entry must be expired at T+3601s")
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_Groups(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("1"), "a", TTL))
	require.NoError(t, store.Set(ctx, "k", []byte("2"), "b", TTL))

	a, ok, _ := store.Get(ctx, "k", "a")
	require.True(t, ok)
	b, ok, _ := store.Get(ctx, "k", "b")
	require.True(t, ok)
	assert.Equal(t, "1", string(a))
	assert.Equal(t, "2", string(b))

	_, ok, _ = store.Get(ctx, "k", "c")
	assert.False(t, ok)
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, store.Set(ctx, "k", []byte("1"), "", TTL))
	_, _, err := store.Get(ctx, "k", "")
	assert.Error(t, err)
}

func TestRemember(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(WithClock(clock.Now))
	ctx := context.Background()

	calls := 0
	compute := func() (map[string]any, error) {
		calls++
		return map[string]any{"count": 3, "name": "hero"}, nil
	}

	miss, hit, err := Remember(ctx, store, "native_fields_1", DefaultGroup, TTL, compute)
	require.NoError(t, err)
	assert.False(t, hit)

	cached, hit, err := Remember(ctx, store, "native_fields_1", DefaultGroup, TTL, compute)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, calls)
	assert.Equal(t, miss, cached, "hits and misses must decode to the same types")

	clock.Advance(TTL + time.Second)
	_, hit, err = Remember(ctx, store, "native_fields_1", DefaultGroup, TTL, compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, calls, "expired entry must be recomputed")
}

func TestRemember_CorruptEntryIsRecomputed(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "k", []byte("{not json"), "", TTL))

	got, hit, err := Remember(ctx, store, "k", "", TTL, func() (string, error) { return "fresh", nil })
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "fresh", got)
}

func TestNopStore(t *testing.T) {
	ctx := context.Background()
	calls := 0
	for i := 0; i < 2; i++ {
		_, _, err := Remember(ctx, NopStore{}, "k", "", TTL, func() (int, error) {
			calls++
			return 1, nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, calls)
}
