// Package fieldstest provides in-memory backends for tests.
package fieldstest

import (
	"context"
	"sort"
	"sync"

	"github.com/thewpsquad/fieldkit/pkg/core"
)

// Entity is one stored entity.
type Entity struct {
	PostType string
	Meta     map[string][]any
}

// Store is an in-memory core.ContentStore that counts calls.
type Store struct {
	mu       sync.Mutex
	entities map[core.EntityID]Entity
	calls    map[string]int

	// Err, when set, is returned by every operation.
	Err error
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		entities: make(map[core.EntityID]Entity),
		calls:    make(map[string]int),
	}
}

// Put adds or replaces an entity.
func (s *Store) Put(id core.EntityID, postType string, meta map[string][]any) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities[id] = Entity{PostType: postType, Meta: meta}
	return s
}

// Calls returns how often op was invoked.
func (s *Store) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *Store) track(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[op]++
	return s.Err
}

func (s *Store) Values(ctx context.Context, id core.EntityID) (map[string][]any, error) {
	if err := s.track("values"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]any)
	for k, v := range s.entities[id].Meta {
		out[k] = append([]any(nil), v...)
	}
	return out, nil
}

func (s *Store) Value(ctx context.Context, id core.EntityID, key string) (any, bool, error) {
	if err := s.track("value"); err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	vals := s.entities[id].Meta[key]
	if len(vals) == 0 {
		return nil, false, nil
	}
	return vals[0], true, nil
}

func (s *Store) Exists(ctx context.Context, id core.EntityID, key string) (bool, error) {
	if err := s.track("exists"); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entities[id].Meta[key]) > 0, nil
}

func (s *Store) Discover(ctx context.Context, postType string, limit int) ([]string, error) {
	if err := s.track("discover"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]struct{})
	for _, e := range s.entities {
		if e.PostType != postType {
			continue
		}
		for k := range e.Meta {
			seen[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	return keys, nil
}

func (s *Store) PostType(ctx context.Context, id core.EntityID) (string, error) {
	if err := s.track("post_type"); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entities[id].PostType, nil
}

// System is an in-memory core.StructuredSystem.
type System struct {
	Installed bool
	Groups    map[string][]core.FieldGroup
	Defs      map[string][]core.FieldDefinition

	// FieldsErr makes Fields fail for the listed group keys.
	FieldsErr map[string]error
}

func (s *System) Available() bool { return s != nil && s.Installed }

func (s *System) FieldGroups(ctx context.Context, postType string) ([]core.FieldGroup, error) {
	return s.Groups[postType], nil
}

func (s *System) Fields(ctx context.Context, groupKey string) ([]core.FieldDefinition, error) {
	if err := s.FieldsErr[groupKey]; err != nil {
		return nil, err
	}
	return s.Defs[groupKey], nil
}

var (
	_ core.ContentStore     = (*Store)(nil)
	_ core.StructuredSystem = (*System)(nil)
)
