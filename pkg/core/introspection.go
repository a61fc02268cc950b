package core

import (
	"github.com/aretw0/introspection"
)

// RegistryState exposes internal state for observability.
type RegistryState struct {
	FieldTypes       []FieldTypeKey `json:"field_types"`
	Processors       int            `json:"processors"`
	Definitions      int            `json:"definitions"`
	MemoizedEntities int            `json:"memoized_entities"`
	MemoizedSchemas  int            `json:"memoized_schemas"`
}

// State implements introspection.Introspectable.
func (r *Registry) State() any {
	types := r.FieldTypes()

	r.mu.Lock()
	defer r.mu.Unlock()

	return RegistryState{
		FieldTypes:       types,
		Processors:       len(r.processors),
		Definitions:      len(r.shapers),
		MemoizedEntities: len(r.fields),
		MemoizedSchemas:  len(r.schemas),
	}
}

// ComponentType implements introspection.Component.
func (r *Registry) ComponentType() string {
	return "registry"
}

var _ introspection.Introspectable = (*Registry)(nil)
var _ introspection.Component = (*Registry)(nil)
