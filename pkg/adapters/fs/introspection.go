package fs

import (
	"sort"
	"time"

	"github.com/aretw0/introspection"
)

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	Path          string         `json:"path"`
	SystemDir     string         `json:"system_dir"`
	Pattern       string         `json:"pattern"`
	IndexSize     int            `json:"index_size"`
	Entities      int            `json:"entities"`
	PostTypes     map[string]int `json:"post_types"`
	Loaded        bool           `json:"loaded"`
	Parsers       []string       `json:"parsers"`
	WatcherActive bool           `json:"watcher_active"`
	LastReconcile *time.Time     `json:"last_reconcile,omitempty"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	parsers := make([]string, 0, len(r.parsers))
	for ext := range r.parsers {
		parsers = append(parsers, ext)
	}
	sort.Strings(parsers)

	postTypes := make(map[string]int)
	for _, e := range r.entities {
		postTypes[e.postType]++
	}

	return RepositoryState{
		Path:          r.Path,
		SystemDir:     r.config.SystemDir,
		Pattern:       r.config.Pattern,
		IndexSize:     r.index.size(),
		Entities:      len(r.entities),
		PostTypes:     postTypes,
		Loaded:        r.loaded,
		Parsers:       parsers,
		WatcherActive: r.watcherActive,
		LastReconcile: r.lastReconcile,
	}
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "vault"
}

var _ introspection.Introspectable = (*Repository)(nil)
var _ introspection.Component = (*Repository)(nil)

func (r *Repository) setWatcherActive(active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watcherActive = active
}

func (r *Repository) recordReconcile() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.lastReconcile = &now
}
