package core

import (
	"context"
	"log/slog"
	"sort"
	"sync"
)

// ProcessorFactory constructs the Processor of one field type.
type ProcessorFactory func() Processor

// DefinitionFactory constructs the Definition of one field type.
type DefinitionFactory func() Definition

type fieldsKey struct {
	fieldType FieldTypeKey
	id        EntityID
}

// Registry maps field types to their Processor and Definition, builds them
// lazily and memoizes results until Reset.
//
// A Registry is built once at startup and handed to consumers by reference.
type Registry struct {
	mu sync.Mutex

	collections map[FieldTypeKey]ProcessorFactory
	definitions map[FieldTypeKey]DefinitionFactory

	processors map[FieldTypeKey]Processor
	shapers    map[FieldTypeKey]Definition

	fields  map[fieldsKey]map[string]any
	schemas map[FieldTypeKey]Schema

	logger *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	r := &Registry{
		collections: make(map[FieldTypeKey]ProcessorFactory),
		definitions: make(map[FieldTypeKey]DefinitionFactory),
		logger:      logger,
	}
	r.resetLocked()
	return r
}

// Register binds a field type to its constructors. Registering a key again
// replaces the constructors and drops instances built from the old ones.
func (r *Registry) Register(fieldType FieldTypeKey, p ProcessorFactory, d DefinitionFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p != nil {
		r.collections[fieldType] = p
		delete(r.processors, fieldType)
	}
	if d != nil {
		r.definitions[fieldType] = d
		delete(r.shapers, fieldType)
	}
	delete(r.schemas, fieldType)
	for k := range r.fields {
		if k.fieldType == fieldType {
			delete(r.fields, k)
		}
	}
}

// FieldTypes returns the registered field types in order.
func (r *Registry) FieldTypes() []FieldTypeKey {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]FieldTypeKey, 0, len(r.collections))
	for k := range r.collections {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Reset drops every instance and memoized result. Factories stay registered.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetLocked()
}

func (r *Registry) resetLocked() {
	r.processors = make(map[FieldTypeKey]Processor)
	r.shapers = make(map[FieldTypeKey]Definition)
	r.fields = make(map[fieldsKey]map[string]any)
	r.schemas = make(map[FieldTypeKey]Schema)
}

// Get resolves the strategy instance of fieldType for kind: a Processor for
// Collections, a Definition for Definitions.
func (r *Registry) Get(fieldType FieldTypeKey, kind StorageKind) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch kind {
	case Collections:
		return r.processorLocked(fieldType)
	case Definitions:
		return r.definitionLocked(fieldType)
	default:
		return nil, &ConfigurationError{FieldType: fieldType, Kind: kind, Reason: "unknown storage kind"}
	}
}

// Processor resolves the Processor of fieldType.
func (r *Registry) Processor(fieldType FieldTypeKey) (Processor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.processorLocked(fieldType)
}

// Definition resolves the Definition of fieldType.
func (r *Registry) Definition(fieldType FieldTypeKey) (Definition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.definitionLocked(fieldType)
}

func (r *Registry) processorLocked(fieldType FieldTypeKey) (Processor, error) {
	if p, ok := r.processors[fieldType]; ok {
		return p, nil
	}
	factory, ok := r.collections[fieldType]
	if !ok {
		return nil, &ConfigurationError{FieldType: fieldType, Kind: Collections, Reason: "field type not registered"}
	}
	p := factory()
	r.processors[fieldType] = p
	if r.logger != nil {
		r.logger.Debug("processor created", "field_type", fieldType)
	}
	return p, nil
}

func (r *Registry) definitionLocked(fieldType FieldTypeKey) (Definition, error) {
	if d, ok := r.shapers[fieldType]; ok {
		return d, nil
	}
	factory, ok := r.definitions[fieldType]
	if !ok {
		return nil, &ConfigurationError{FieldType: fieldType, Kind: Definitions, Reason: "field type not registered"}
	}
	d := factory()
	r.shapers[fieldType] = d
	if r.logger != nil {
		r.logger.Debug("definition created", "field_type", fieldType)
	}
	return d, nil
}

// Fields returns the field map of an entity through the fieldType processor.
// Callers own the returned map; the memoized copy is never handed out.
// The only error is a *ConfigurationError for an unregistered field type.
func (r *Registry) Fields(ctx context.Context, fieldType FieldTypeKey, id EntityID) (map[string]any, error) {
	p, err := r.Processor(fieldType)
	if err != nil {
		return nil, err
	}

	key := fieldsKey{fieldType: fieldType, id: id}
	r.mu.Lock()
	if cached, ok := r.fields[key]; ok {
		r.mu.Unlock()
		return cloneFields(cached), nil
	}
	r.mu.Unlock()

	fields := p.Fields(ctx, id)
	if fields == nil {
		fields = map[string]any{}
	}

	r.mu.Lock()
	r.fields[key] = cloneFields(fields)
	r.mu.Unlock()
	return fields, nil
}

func cloneFields(fields map[string]any) map[string]any {
	return deepCopy(fields).(map[string]any)
}

// fieldSets is what an eligible backend contributes on top of the common fields.
type fieldSets struct {
	defaults   Schema
	associated Schema
}

// Definitions returns the merged configuration schema of fieldType.
// Callers own the returned schema; the memoized copy is never handed out.
func (r *Registry) Definitions(ctx context.Context, fieldType FieldTypeKey) (Schema, error) {
	p, err := r.Processor(fieldType)
	if err != nil {
		return nil, err
	}
	d, err := r.Definition(fieldType)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if cached, ok := r.schemas[fieldType]; ok {
		r.mu.Unlock()
		return RecursiveMerge(cached), nil
	}
	r.mu.Unlock()

	sets := r.eligibleFieldSets(ctx, p, d).OrElse(func() fieldSets {
		return fieldSets{defaults: d.NotEligibleFields(), associated: Schema{}}
	})
	result := RecursiveMerge(d.CommonFields(), sets.defaults, sets.associated)

	r.mu.Lock()
	r.schemas[fieldType] = RecursiveMerge(result)
	r.mu.Unlock()
	return result, nil
}

func (r *Registry) eligibleFieldSets(ctx context.Context, p Processor, d Definition) Eligible[fieldSets] {
	if !p.IsEligible() {
		return NotEligible[fieldSets]()
	}

	formatted := p.FormattedFields(ctx)
	defaults := Schema{}
	for _, postType := range p.PostTypes() {
		options, ok := formatted[postType]
		if !ok {
			continue
		}
		defaults = RecursiveMerge(defaults, d.DefaultFields(postType, options))
	}

	if len(defaults) == 0 {
		empty := d.EmptyFields()
		return Some(fieldSets{defaults: empty, associated: empty})
	}
	return Some(fieldSets{defaults: defaults, associated: d.AssociatedFields(p.FieldTypes(ctx))})
}
