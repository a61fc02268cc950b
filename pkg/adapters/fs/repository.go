// Package fs serves entity metadata from a directory of documents.
//
// Every Markdown (frontmatter), JSON or YAML file describes one entity; JSON
// arrays and CSV files describe one entity per element or row. The "id"
// field holds the entity id and "post_type" its post type. All other fields
// are metadata.
package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/thewpsquad/fieldkit/pkg/core"
)

// Defaults applied by NewRepository.
const (
	DefaultSystemDir = ".fieldkit"
	DefaultPattern   = "**/*.{md,json,yaml,yml,csv}"
	DefaultPostType  = "post"
)

// Reserved field names.
const (
	IDField       = "id"
	PostTypeField = "post_type"
)

// Config holds the configuration for the filesystem repository.
type Config struct {
	Path            string
	SystemDir       string // e.g. ".fieldkit"
	Pattern         string // doublestar glob relative to Path
	DefaultPostType string
	Logger          *slog.Logger
	ErrorHandler    func(error)
}

type entity struct {
	postType string
	meta     map[string]any
	source   string
}

// Repository implements core.ContentStore over a vault directory.
// Files are read on first use and again on Reload.
type Repository struct {
	Path    string
	config  Config
	parsers map[string]Parser
	index   *vaultIndex

	mu            sync.RWMutex
	entities      map[core.EntityID]entity
	loaded        bool
	watcherActive bool
	lastReconcile *time.Time
}

// NewRepository creates a new filesystem-backed repository.
func NewRepository(config Config) *Repository {
	if config.SystemDir == "" {
		config.SystemDir = DefaultSystemDir
	}
	if config.Pattern == "" {
		config.Pattern = DefaultPattern
	}
	if config.DefaultPostType == "" {
		config.DefaultPostType = DefaultPostType
	}
	return &Repository{
		Path:     config.Path,
		config:   config,
		parsers:  DefaultParsers(),
		index:    newVaultIndex(config.Path, config.SystemDir),
		entities: make(map[core.EntityID]entity),
	}
}

// Initialize checks that the vault directory exists.
func (r *Repository) Initialize(ctx context.Context) error {
	info, err := os.Stat(r.Path)
	if os.IsNotExist(err) {
		return fmt.Errorf("vault path does not exist: %s", r.Path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat vault: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("vault path is not a directory: %s", r.Path)
	}
	if !doublestar.ValidatePattern(r.config.Pattern) {
		return fmt.Errorf("invalid pattern %q", r.config.Pattern)
	}
	return nil
}

// Reload scans the vault again.
//
// Strategy:
//  1. Load the index (per-file entities keyed by relative path) from disk.
//  2. Glob the vault, skipping the system directory and .git.
//  3. For each file reuse the indexed records when mtime and size match, parse it otherwise.
//  4. Drop deleted files from the index and flush it.
func (r *Repository) Reload(ctx context.Context) error {
	if err := r.index.load(); err != nil {
		r.logWarn("index unreadable, rebuilding", "error", err)
	}

	matches, err := doublestar.Glob(os.DirFS(r.Path), r.config.Pattern, doublestar.WithFilesOnly())
	if err != nil {
		return fmt.Errorf("failed to scan vault: %w", err)
	}
	sort.Strings(matches)

	entities := make(map[core.EntityID]entity)
	seen := make(map[string]bool)

	for _, relPath := range matches {
		if err := ctx.Err(); err != nil {
			return err
		}
		if r.skip(relPath) {
			continue
		}

		info, err := fs.Stat(os.DirFS(r.Path), relPath)
		if err != nil {
			continue
		}
		seen[relPath] = true

		records, hit := r.index.lookup(relPath, info)
		if !hit {
			records, err = r.parseFile(relPath)
			if err != nil {
				r.report(fmt.Errorf("failed to parse %s: %w", relPath, err))
				continue
			}
			r.index.remember(relPath, info, records)
		}

		for _, rec := range records {
			id := core.EntityID(rec.ID)
			if prev, dup := entities[id]; dup {
				r.logWarn("duplicate entity id", "entity_id", id, "first", prev.source, "second", relPath)
			}
			entities[id] = entity{postType: rec.PostType, meta: rec.Meta, source: relPath}
		}
	}

	r.index.retain(seen)
	if err := r.index.flush(); err != nil {
		r.logWarn("failed to save index", "error", err)
	}

	r.mu.Lock()
	r.entities = entities
	r.loaded = true
	r.mu.Unlock()

	if r.config.Logger != nil {
		r.config.Logger.Debug("vault loaded", "path", r.Path, "files", len(seen), "entities", len(entities))
	}
	return nil
}

func (r *Repository) skip(relPath string) bool {
	first, _, _ := strings.Cut(relPath, "/")
	return first == r.config.SystemDir || first == ".git"
}

func (r *Repository) parseFile(relPath string) ([]record, error) {
	parser, ok := r.parsers[strings.ToLower(path.Ext(relPath))]
	if !ok {
		return nil, fmt.Errorf("unsupported extension")
	}

	f, err := os.Open(filepath.Join(r.Path, filepath.FromSlash(relPath)))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	docs, err := parser.Parse(f)
	if err != nil {
		return nil, err
	}

	records := make([]record, 0, len(docs))
	for i, doc := range docs {
		rec, ok := r.toRecord(doc)
		if !ok {
			if r.config.Logger != nil {
				r.config.Logger.Debug("document without valid id skipped", "path", relPath, "index", i)
			}
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (r *Repository) toRecord(doc Document) (record, bool) {
	id, ok := parseID(doc.Metadata[IDField])
	if !ok {
		return record{}, false
	}

	postType := r.config.DefaultPostType
	if pt, ok := doc.Metadata[PostTypeField].(string); ok && pt != "" {
		postType = pt
	}

	meta := make(map[string]any, len(doc.Metadata))
	for k, v := range doc.Metadata {
		if k == IDField || k == PostTypeField {
			continue
		}
		meta[k] = v
	}
	return record{ID: id, PostType: postType, Meta: meta}, true
}

func parseID(v any) (int64, bool) {
	var id int64
	switch x := v.(type) {
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return 0, false
		}
		id = n
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return 0, false
		}
		id = n
	default:
		return 0, false
	}
	return id, id > 0
}

func (r *Repository) snapshot(ctx context.Context) (map[core.EntityID]entity, error) {
	r.mu.RLock()
	loaded := r.loaded
	entities := r.entities
	r.mu.RUnlock()
	if loaded {
		return entities, nil
	}

	if err := r.Reload(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entities, nil
}

// Values returns every metadata key of id. Vault fields hold a single value each.
func (r *Repository) Values(ctx context.Context, id core.EntityID) (map[string][]any, error) {
	entities, err := r.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	e, ok := entities[id]
	if !ok {
		return map[string][]any{}, nil
	}
	out := make(map[string][]any, len(e.meta))
	for k, v := range e.meta {
		out[k] = []any{v}
	}
	return out, nil
}

// Value returns the value of key on id.
func (r *Repository) Value(ctx context.Context, id core.EntityID, key string) (any, bool, error) {
	entities, err := r.snapshot(ctx)
	if err != nil {
		return nil, false, err
	}
	v, ok := entities[id].meta[key]
	return v, ok, nil
}

// Exists reports whether id has key.
func (r *Repository) Exists(ctx context.Context, id core.EntityID, key string) (bool, error) {
	_, ok, err := r.Value(ctx, id, key)
	return ok, err
}

// Discover returns the sorted distinct keys used by entities of postType, at most limit.
func (r *Repository) Discover(ctx context.Context, postType string, limit int) ([]string, error) {
	entities, err := r.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for _, e := range entities {
		if e.postType != postType {
			continue
		}
		for k := range e.meta {
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

// PostType returns the post type of id, or "" when unknown.
func (r *Repository) PostType(ctx context.Context, id core.EntityID) (string, error) {
	entities, err := r.snapshot(ctx)
	if err != nil {
		return "", err
	}
	return entities[id].postType, nil
}

func (r *Repository) report(err error) {
	if r.config.ErrorHandler != nil {
		r.config.ErrorHandler(err)
		return
	}
	r.logWarn("vault error", "error", err)
}

func (r *Repository) logWarn(msg string, args ...any) {
	if r.config.Logger != nil {
		r.config.Logger.Warn(msg, args...)
	}
}

var _ core.ContentStore = (*Repository)(nil)
