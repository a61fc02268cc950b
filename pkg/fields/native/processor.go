// Package native serves custom fields stored as plain key/value metadata.
package native

import (
	"context"
	"sort"

	"github.com/thewpsquad/fieldkit/pkg/cache"
	"github.com/thewpsquad/fieldkit/pkg/core"
	"github.com/thewpsquad/fieldkit/pkg/fields"
)

const scope = string(core.FieldTypeNative)

// Processor implements core.Processor over a core.ContentStore.
type Processor struct {
	cfg fields.Config

	formatted fields.FormattedMemo
	entities  fields.EntityMemo
}

// NewProcessor creates a native processor.
func NewProcessor(cfg fields.Config) *Processor {
	return &Processor{cfg: cfg.WithDefaults()}
}

// IsEligible is true whenever a metadata store is configured.
func (p *Processor) IsEligible() bool {
	return p.cfg.Store != nil
}

// PostTypes returns the served post types.
func (p *Processor) PostTypes() []string {
	return append([]string(nil), p.cfg.PostTypes...)
}

// ShouldInclude applies the filter rules to key.
func (p *Processor) ShouldInclude(key string) bool {
	return p.cfg.Rules.ShouldInclude(key)
}

// FormattedFields discovers keys per post type and labels the ones that pass the filter.
func (p *Processor) FormattedFields(ctx context.Context) core.FormattedFieldMap {
	if !p.IsEligible() {
		return core.FormattedFieldMap{}
	}
	return p.formatted.Load(ctx, p.discover)
}

func (p *Processor) discover(ctx context.Context) core.FormattedFieldMap {
	out := make(core.FormattedFieldMap)
	for _, postType := range p.cfg.PostTypes {
		p.cfg.Metrics.Discovery(scope)
		keys, err := p.cfg.Store.Discover(ctx, postType, p.cfg.FetchLimit)
		if err != nil {
			p.cfg.BackendError(scope, "discover", err, "post_type", postType)
			continue
		}

		labels := make(map[string]string)
		for _, key := range keys {
			if p.ShouldInclude(key) {
				labels[key] = core.Humanize(key)
			}
		}
		if len(labels) > 0 {
			out[postType] = labels
		}
	}
	if p.cfg.Logger != nil {
		p.cfg.Logger.Debug("fields discovered", "field_type", scope, "post_types", len(out))
	}
	return out
}

// FieldTypes reports every discovered key under the "text" category.
func (p *Processor) FieldTypes(ctx context.Context) map[string][]string {
	seen := make(map[string]struct{})
	for _, labels := range p.FormattedFields(ctx) {
		for key := range labels {
			seen[key] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return map[string][]string{}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return map[string][]string{"text": keys}
}

// Fields returns the filtered first value of every metadata key of id.
func (p *Processor) Fields(ctx context.Context, id core.EntityID) map[string]any {
	if !p.IsEligible() {
		return map[string]any{}
	}
	if _, ok := p.cfg.ResolvePostType(ctx, scope, id); !ok {
		return map[string]any{}
	}
	if v, ok := p.entities.Load(id); ok {
		return v
	}

	values, hit, err := cache.Remember(ctx, p.cfg.Cache, cache.Key(scope, "fields", int64(id)), cache.DefaultGroup, cache.TTL,
		func() (map[string]any, error) {
			all, err := p.cfg.Store.Values(ctx, id)
			if err != nil {
				return nil, err
			}
			out := make(map[string]any, len(all))
			for key, vals := range all {
				if len(vals) > 0 {
					out[key] = vals[0]
				}
			}
			return out, nil
		})
	p.cfg.Metrics.CacheLookup(scope, hit)
	if err != nil {
		p.cfg.BackendError(scope, "values", err, "entity_id", id)
		if values == nil {
			return map[string]any{}
		}
	}

	shaped := p.cfg.Filter(values)
	p.entities.Store(id, shaped)
	return shaped
}

// HasField reports whether id stores a value for key.
func (p *Processor) HasField(ctx context.Context, id core.EntityID, key string) bool {
	if !p.IsEligible() || key == "" {
		return false
	}
	if _, ok := p.cfg.ResolvePostType(ctx, scope, id); !ok {
		return false
	}
	ok, err := p.cfg.Store.Exists(ctx, id, key)
	if err != nil {
		p.cfg.BackendError(scope, "exists", err, "entity_id", id, "key", key)
		return false
	}
	return ok
}

// FieldValue returns the first stored value of key, or def.
func (p *Processor) FieldValue(ctx context.Context, id core.EntityID, key string, def any) any {
	if !p.IsEligible() || key == "" {
		return def
	}
	if _, ok := p.cfg.ResolvePostType(ctx, scope, id); !ok {
		return def
	}
	v, ok, err := p.cfg.Store.Value(ctx, id, key)
	if err != nil {
		p.cfg.BackendError(scope, "value", err, "entity_id", id, "key", key)
		return def
	}
	if !ok {
		return def
	}
	return v
}

var _ core.Processor = (*Processor)(nil)
