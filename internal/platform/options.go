package platform

import (
	"log/slog"

	"github.com/thewpsquad/fieldkit/pkg/cache"
	"github.com/thewpsquad/fieldkit/pkg/core"
	"github.com/thewpsquad/fieldkit/pkg/fields/structured"
	"github.com/thewpsquad/fieldkit/pkg/metrics"
)

// options holds the internal configuration of a registry.
type options struct {
	store        core.ContentStore
	system       core.StructuredSystem
	cache        cache.Store
	rules        *core.FilterRuleSet
	hooks        core.Hooks
	postTypes    []string
	fetchLimit   int
	logger       *slog.Logger
	metrics      *metrics.Collector
	adapter      string
	config       map[string]any
	transformers map[string]structured.Transformer
}

// Option defines a functional option for configuring the registry.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		adapter:      "fs",
		config:       make(map[string]any),
		transformers: make(map[string]structured.Transformer),
	}
}

// WithLogger sets the logger used by the registry, processors and stores.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStore injects a backing store. The uri passed to New is then ignored.
func WithStore(store core.ContentStore) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithAdapter selects the backing store opened from the uri: "fs" (default) or "sql".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithStructuredSystem sets the structured field system. Without it the
// structured field type is not eligible.
func WithStructuredSystem(system core.StructuredSystem) Option {
	return func(o *options) {
		o.system = system
	}
}

// WithCache sets the persistent cache. Defaults to no caching.
func WithCache(c cache.Store) Option {
	return func(o *options) {
		o.cache = c
	}
}

// WithRules replaces the default filter rules.
func WithRules(rules core.FilterRuleSet) Option {
	return func(o *options) {
		o.rules = &rules
	}
}

// WithHooks registers the filter extension points. They run once, when the registry is built.
func WithHooks(hooks core.Hooks) Option {
	return func(o *options) {
		o.hooks = hooks
	}
}

// WithPostTypes sets the served post types. Defaults to post and page.
func WithPostTypes(postTypes ...string) Option {
	return func(o *options) {
		o.postTypes = postTypes
	}
}

// WithFetchLimit caps the number of keys discovered per post type.
func WithFetchLimit(limit int) Option {
	return func(o *options) {
		o.fetchLimit = limit
	}
}

// WithMetrics sets the Prometheus collectors.
func WithMetrics(m *metrics.Collector) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithAttachmentBaseURL sets the URL prefix of attachment files rendered by image fields.
func WithAttachmentBaseURL(url string) Option {
	return func(o *options) {
		o.config["attachment_base_url"] = url
	}
}

// WithTransformer overrides the value transformer of a structured field type.
func WithTransformer(fieldType string, t structured.Transformer) Option {
	return func(o *options) {
		o.transformers[fieldType] = t
	}
}

// WithSystemDir sets the hidden directory of a vault (e.g. ".fieldkit").
func WithSystemDir(name string) Option {
	return func(o *options) {
		o.config["system_dir"] = name
	}
}

// WithDefaultPostType sets the post type of vault documents that declare none.
func WithDefaultPostType(postType string) Option {
	return func(o *options) {
		o.config["default_post_type"] = postType
	}
}

// WithDriver sets the database/sql driver of the "sql" adapter.
func WithDriver(driver string) Option {
	return func(o *options) {
		o.config["driver"] = driver
	}
}

// WithTablePrefix sets the table prefix of the "sql" adapter.
func WithTablePrefix(prefix string) Option {
	return func(o *options) {
		o.config["table_prefix"] = prefix
	}
}

// WithWatcherErrorHandler registers a callback for errors of the vault watcher.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.config["watcher_error_handler"] = fn
	}
}
