// Package structured serves fields declared by a structured field system:
// field groups attached to post types, each holding typed field definitions.
package structured

import (
	"context"
	"sort"
	"sync"

	"github.com/thewpsquad/fieldkit/pkg/cache"
	"github.com/thewpsquad/fieldkit/pkg/core"
	"github.com/thewpsquad/fieldkit/pkg/fields"
)

const scope = string(core.FieldTypeStructured)

// Option configures a Processor.
type Option func(*Processor)

// WithTransformer sets the transformer for a field type. A nil transformer removes it.
func WithTransformer(fieldType string, t Transformer) Option {
	return func(p *Processor) {
		if t == nil {
			delete(p.transformers, fieldType)
			return
		}
		p.transformers[fieldType] = t
	}
}

// WithAttachmentBaseURL sets the URL prefix of attachment files rendered by image fields.
// It only configures the built-in ImageTransformer; a custom or removed image
// transformer is left untouched whatever the option order.
func WithAttachmentBaseURL(url string) Option {
	return func(p *Processor) {
		if img, ok := p.transformers["image"].(ImageTransformer); ok {
			img.BaseURL = url
			p.transformers["image"] = img
		}
	}
}

// Processor implements core.Processor over a core.StructuredSystem.
type Processor struct {
	cfg          fields.Config
	system       core.StructuredSystem
	transformers map[string]Transformer

	formatted fields.FormattedMemo
	entities  fields.EntityMemo

	mu          sync.Mutex
	definitions map[string][]core.FieldDefinition
}

// NewProcessor creates a structured processor. system may be nil.
func NewProcessor(cfg fields.Config, system core.StructuredSystem, opts ...Option) *Processor {
	p := &Processor{
		cfg:         cfg.WithDefaults(),
		system:      system,
		definitions: make(map[string][]core.FieldDefinition),
	}
	p.transformers = DefaultTransformers(p.cfg.Store, "")
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IsEligible reports whether the structured system is installed and a metadata store is set.
func (p *Processor) IsEligible() bool {
	return p.system != nil && p.system.Available() && p.cfg.Store != nil
}

// PostTypes returns the served post types.
func (p *Processor) PostTypes() []string {
	return append([]string(nil), p.cfg.PostTypes...)
}

// ShouldInclude applies the filter rules to key.
func (p *Processor) ShouldInclude(key string) bool {
	return p.cfg.Rules.ShouldInclude(key)
}

// fieldDefinitions returns the included definitions of postType, deduplicated by
// name and capped by the fetch limit. Only a complete, non-empty list is kept;
// empty or partial lists are fetched again on the next call.
func (p *Processor) fieldDefinitions(ctx context.Context, postType string) []core.FieldDefinition {
	p.mu.Lock()
	defs, ok := p.definitions[postType]
	p.mu.Unlock()
	if ok {
		return defs
	}

	p.cfg.Metrics.Discovery(scope)
	groups, err := p.system.FieldGroups(ctx, postType)
	if err != nil {
		p.cfg.BackendError(scope, "field_groups", err, "post_type", postType)
		return nil
	}

	complete := true
	seen := make(map[string]struct{})
	for _, group := range groups {
		if !group.IsActive() {
			continue
		}
		list, err := p.system.Fields(ctx, group.Key)
		if err != nil {
			p.cfg.BackendError(scope, "fields", err, "group", group.Key)
			complete = false
			continue
		}
		for _, def := range list {
			if _, dup := seen[def.Name]; dup || !p.ShouldInclude(def.Name) {
				continue
			}
			seen[def.Name] = struct{}{}
			defs = append(defs, def)
			if len(defs) >= p.cfg.FetchLimit {
				break
			}
		}
		if len(defs) >= p.cfg.FetchLimit {
			break
		}
	}

	if complete && len(defs) > 0 {
		p.mu.Lock()
		p.definitions[postType] = defs
		p.mu.Unlock()
	}
	return defs
}

// FormattedFields lists the structured fields of every post type with their labels.
func (p *Processor) FormattedFields(ctx context.Context) core.FormattedFieldMap {
	if !p.IsEligible() {
		return core.FormattedFieldMap{}
	}
	return p.formatted.Load(ctx, func(ctx context.Context) core.FormattedFieldMap {
		out := make(core.FormattedFieldMap)
		for _, postType := range p.cfg.PostTypes {
			labels := make(map[string]string)
			for _, def := range p.fieldDefinitions(ctx, postType) {
				labels[def.Name] = label(def)
			}
			if len(labels) > 0 {
				out[postType] = labels
			}
		}
		return out
	})
}

func label(def core.FieldDefinition) string {
	if def.Label != "" {
		return def.Label
	}
	return core.Humanize(def.Name)
}

// FieldTypes groups field names by their declared type.
func (p *Processor) FieldTypes(ctx context.Context) map[string][]string {
	out := make(map[string][]string)
	if !p.IsEligible() {
		return out
	}
	seen := make(map[string]struct{})
	for _, postType := range p.cfg.PostTypes {
		for _, def := range p.fieldDefinitions(ctx, postType) {
			if _, dup := seen[def.Name]; dup || def.Type == "" {
				continue
			}
			seen[def.Name] = struct{}{}
			out[def.Type] = append(out[def.Type], def.Name)
		}
	}
	for _, names := range out {
		sort.Strings(names)
	}
	return out
}

// Fields reads the structured fields of id and shapes their values.
func (p *Processor) Fields(ctx context.Context, id core.EntityID) map[string]any {
	if !p.IsEligible() {
		return map[string]any{}
	}
	postType, ok := p.cfg.ResolvePostType(ctx, scope, id)
	if !ok {
		return map[string]any{}
	}
	if v, ok := p.entities.Load(id); ok {
		return v
	}

	defs := p.fieldDefinitions(ctx, postType)
	raw, hit, err := cache.Remember(ctx, p.cfg.Cache, cache.Key(scope, "fields", int64(id)), cache.DefaultGroup, cache.TTL,
		func() (map[string]any, error) {
			out := make(map[string]any, len(defs))
			for _, def := range defs {
				v, ok, err := p.cfg.Store.Value(ctx, id, def.Name)
				if err != nil {
					return nil, err
				}
				if ok {
					out[def.Name] = v
				}
			}
			return out, nil
		})
	p.cfg.Metrics.CacheLookup(scope, hit)
	if err != nil {
		p.cfg.BackendError(scope, "values", err, "entity_id", id)
		if raw == nil {
			return map[string]any{}
		}
	}

	shaped := p.cfg.Filter(raw)
	for _, def := range defs {
		v, ok := shaped[def.Name]
		if !ok {
			continue
		}
		shaped[def.Name] = p.transform(ctx, def, v)
	}

	p.entities.Store(id, shaped)
	return shaped
}

func (p *Processor) transform(ctx context.Context, def core.FieldDefinition, value any) any {
	t, ok := p.transformers[def.Type]
	if !ok {
		return value
	}
	return t.Transform(ctx, def, value)
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

// FieldValue returns the raw stored value of key, or def.
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
