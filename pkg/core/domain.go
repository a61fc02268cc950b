// Package core holds the domain of fieldkit: entities, their custom fields,
// the collaborator contracts of the backing stores and the Registry facade
// that resolves a field type to its Processor and Definition.
package core

import "sort"

// FieldTypeKey selects which (Processor, Definition) pair serves a request.
type FieldTypeKey string

const (
	// FieldTypeNative is served by the native key/value metadata store.
	FieldTypeNative FieldTypeKey = "native"
	// FieldTypeStructured is served by the optional structured-field system.
	FieldTypeStructured FieldTypeKey = "structured"
)

// StorageKind selects which half of the registry to resolve.
type StorageKind string

const (
	// Collections resolves Processors.
	Collections StorageKind = "collections"
	// Definitions resolves Definitions.
	Definitions StorageKind = "definitions"
)

// EntityID identifies a content item. Values <= 0 never own fields.
type EntityID int64

// Valid reports whether the id can own fields.
func (id EntityID) Valid() bool { return id > 0 }

// FieldRecord is a single field value scoped to one entity.
type FieldRecord struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// Records flattens a field map into records ordered by key.
func Records(fields map[string]any) []FieldRecord {
	records := make([]FieldRecord, 0, len(fields))
	for k, v := range fields {
		records = append(records, FieldRecord{Key: k, Value: v})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Key < records[j].Key })
	return records
}

// FormattedFieldMap maps post type -> field key -> display label.
type FormattedFieldMap map[string]map[string]string

// Clone returns a deep copy so callers cannot mutate a memoized map.
func (m FormattedFieldMap) Clone() FormattedFieldMap {
	out := make(FormattedFieldMap, len(m))
	for pt, fields := range m {
		inner := make(map[string]string, len(fields))
		for k, v := range fields {
			inner[k] = v
		}
		out[pt] = inner
	}
	return out
}

// Schema is a consumer-facing configuration fragment produced by a Definition.
type Schema map[string]any

// FieldGroup is a group of structured field definitions attached to post types.
type FieldGroup struct {
	Key       string   `yaml:"key" json:"key"`
	Title     string   `yaml:"title" json:"title"`
	PostTypes []string `yaml:"post_types" json:"post_types"`
	Active    *bool    `yaml:"active,omitempty" json:"active,omitempty"`
}

// IsActive reports whether the group is enabled. Groups are active unless disabled explicitly.
func (g FieldGroup) IsActive() bool { return g.Active == nil || *g.Active }

// FieldDefinition describes one structured field.
type FieldDefinition struct {
	Key   string `yaml:"key" json:"key"`
	Name  string `yaml:"name" json:"name"`
	Label string `yaml:"label" json:"label"`
	Type  string `yaml:"type" json:"type"`
}
