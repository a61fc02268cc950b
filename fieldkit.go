package fieldkit

import (
	"context"
	"log/slog"

	"github.com/thewpsquad/fieldkit/internal/platform"
	"github.com/thewpsquad/fieldkit/pkg/cache"
	"github.com/thewpsquad/fieldkit/pkg/core"
	"github.com/thewpsquad/fieldkit/pkg/fields/structured"
	"github.com/thewpsquad/fieldkit/pkg/metrics"
	"github.com/thewpsquad/fieldkit/pkg/typed"
)

// --- Types ---

// Registry is the entry point for field retrieval and definitions.
type Registry = core.Registry

// FieldTypeKey selects a backend.
type FieldTypeKey = core.FieldTypeKey

// EntityID identifies a content item.
type EntityID = core.EntityID

// Schema is a consumer-facing configuration fragment.
type Schema = core.Schema

// Field types served by New.
const (
	Native     = core.FieldTypeNative
	Structured = core.FieldTypeStructured
)

// EntityModel is a public alias for the typed entity model.
type EntityModel[T any] = typed.EntityModel[T]

// TypedRepository is a public alias for the typed repository.
type TypedRepository[T any] = typed.Repository[T]

// --- Configuration ---

// Option defines a functional option for configuring the registry.
type Option = platform.Option

// WithLogger sets the logger for the registry and its stores.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithStore injects a backing store.
func WithStore(store core.ContentStore) Option {
	return platform.WithStore(store)
}

// WithAdapter selects the store opened from the uri ("fs" or "sql").
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithDriver sets the database/sql driver of the "sql" adapter.
func WithDriver(driver string) Option {
	return platform.WithDriver(driver)
}

// WithTablePrefix sets the table prefix of the "sql" adapter.
func WithTablePrefix(prefix string) Option {
	return platform.WithTablePrefix(prefix)
}

// WithSystemDir sets the hidden directory of a vault.
func WithSystemDir(name string) Option {
	return platform.WithSystemDir(name)
}

// WithDefaultPostType sets the post type of vault documents that declare none.
func WithDefaultPostType(postType string) Option {
	return platform.WithDefaultPostType(postType)
}

// WithStructuredSystem enables the structured field type.
func WithStructuredSystem(system core.StructuredSystem) Option {
	return platform.WithStructuredSystem(system)
}

// WithCache sets the persistent cache.
func WithCache(c cache.Store) Option {
	return platform.WithCache(c)
}

// WithRules replaces the default filter rules.
func WithRules(rules core.FilterRuleSet) Option {
	return platform.WithRules(rules)
}

// WithHooks registers the filter extension points.
func WithHooks(hooks core.Hooks) Option {
	return platform.WithHooks(hooks)
}

// WithPostTypes sets the served post types.
func WithPostTypes(postTypes ...string) Option {
	return platform.WithPostTypes(postTypes...)
}

// WithFetchLimit caps the number of discovered keys per post type.
func WithFetchLimit(limit int) Option {
	return platform.WithFetchLimit(limit)
}

// WithMetrics sets the Prometheus collectors.
func WithMetrics(m *metrics.Collector) Option {
	return platform.WithMetrics(m)
}

// WithAttachmentBaseURL sets the URL prefix of rendered image fields.
func WithAttachmentBaseURL(url string) Option {
	return platform.WithAttachmentBaseURL(url)
}

// WithTransformer overrides the value transformer of a structured field type.
func WithTransformer(fieldType string, t structured.Transformer) Option {
	return platform.WithTransformer(fieldType, t)
}

// WithWatcherErrorHandler registers a callback for vault watcher errors.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// --- Factory ---

// New builds a registry over the store addressed by uri.
func New(ctx context.Context, uri string, opts ...Option) (*Registry, error) {
	return platform.New(ctx, uri, opts...)
}

// Open opens a backing store explicitly.
func Open(ctx context.Context, uri string, opts ...Option) (core.ContentStore, error) {
	return platform.Open(ctx, uri, opts...)
}

// --- Typed Factories ---

// NewTypedRepository creates a type-safe reader of one field type.
func NewTypedRepository[T any](registry *Registry, fieldType FieldTypeKey) *typed.Repository[T] {
	return typed.NewRepository[T](registry, fieldType)
}
