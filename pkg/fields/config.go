package fields

import (
	"context"
	"log/slog"
	"slices"

	"github.com/thewpsquad/fieldkit/pkg/cache"
	"github.com/thewpsquad/fieldkit/pkg/core"
	"github.com/thewpsquad/fieldkit/pkg/metrics"
)

// DefaultPostTypes are served when no post types are configured.
var DefaultPostTypes = []string{"post", "page"}

// Config holds the collaborators of a processor.
type Config struct {
	Store      core.ContentStore
	Cache      cache.Store
	Rules      core.FilterRuleSet
	PostTypes  []string
	FetchLimit int
	Logger     *slog.Logger
	Metrics    *metrics.Collector
}

// WithDefaults fills unset fields.
func (c Config) WithDefaults() Config {
	if c.Cache == nil {
		c.Cache = cache.NopStore{}
	}
	if len(c.PostTypes) == 0 {
		c.PostTypes = DefaultPostTypes
	}
	c.PostTypes = slices.Clone(c.PostTypes)
	if c.FetchLimit <= 0 {
		c.FetchLimit = core.DefaultFetchLimit
	}
	if c.Rules.Blacklist == nil && c.Rules.ExcludedPrefixes == nil && c.Rules.ExcludedSuffixes == nil {
		c.Rules = core.DefaultFilterRuleSet()
	}
	return c
}

// Supports reports whether postType is served.
func (c Config) Supports(postType string) bool {
	return postType != "" && slices.Contains(c.PostTypes, postType)
}

// ResolvePostType returns the post type of id when it is supported.
// Store errors are logged and treated as unsupported.
func (c Config) ResolvePostType(ctx context.Context, fieldType string, id core.EntityID) (string, bool) {
	if !id.Valid() || c.Store == nil {
		return "", false
	}
	postType, err := c.Store.PostType(ctx, id)
	if err != nil {
		c.BackendError(fieldType, "post_type", err, "entity_id", id)
		return "", false
	}
	if !c.Supports(postType) {
		if c.Logger != nil {
			c.Logger.Debug("unsupported post type", "field_type", fieldType, "entity_id", id, "post_type", postType)
		}
		return "", false
	}
	return postType, true
}

// BackendError logs and counts a backing store failure that is degraded to an empty result.
func (c Config) BackendError(fieldType, operation string, err error, args ...any) {
	c.Metrics.BackendError(fieldType, operation)
	if c.Logger != nil {
		attrs := append([]any{"field_type", fieldType, "operation", operation, "error", err}, args...)
		c.Logger.Warn("backing store failed", attrs...)
	}
}

// Filter returns the entries of values whose key passes the rule set.
func (c Config) Filter(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		if c.Rules.ShouldInclude(k) {
			out[k] = v
		}
	}
	return out
}
