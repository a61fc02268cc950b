package fields

import (
	"context"
	"maps"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/thewpsquad/fieldkit/pkg/core"
)

// FormattedMemo keeps the formatted field map of one processor.
//
// The map is kept only once it is non-empty: an empty result is computed
// again on the next call.
type FormattedMemo struct {
	mu     sync.Mutex
	value  core.FormattedFieldMap
	flight singleflight.Group
}

// Load returns the memoized map or computes it. Concurrent first callers
// share one computation.
func (m *FormattedMemo) Load(ctx context.Context, compute func(context.Context) core.FormattedFieldMap) core.FormattedFieldMap {
	m.mu.Lock()
	if len(m.value) > 0 {
		v := m.value.Clone()
		m.mu.Unlock()
		return v
	}
	m.mu.Unlock()

	v, _, _ := m.flight.Do("formatted", func() (any, error) {
		m.mu.Lock()
		if len(m.value) > 0 {
			defer m.mu.Unlock()
			return m.value, nil
		}
		m.mu.Unlock()

		computed := compute(ctx)
		if len(computed) > 0 {
			m.mu.Lock()
			m.value = computed
			m.mu.Unlock()
		}
		return computed, nil
	})

	formatted, _ := v.(core.FormattedFieldMap)
	if formatted == nil {
		return core.FormattedFieldMap{}
	}
	return formatted.Clone()
}

// EntityMemo keeps shaped field maps per entity.
type EntityMemo struct {
	mu     sync.RWMutex
	values map[core.EntityID]map[string]any
}

// Load returns a copy of the memoized fields of id.
func (m *EntityMemo) Load(id core.EntityID) (map[string]any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[id]
	if !ok {
		return nil, false
	}
	return maps.Clone(v), true
}

// Store memoizes fields for id.
func (m *EntityMemo) Store(id core.EntityID, fields map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = make(map[core.EntityID]map[string]any)
	}
	m.values[id] = maps.Clone(fields)
}

// Len returns the number of memoized entities.
func (m *EntityMemo) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}
