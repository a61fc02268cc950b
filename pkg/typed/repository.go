// Package typed decodes entity field maps into Go structs.
package typed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/thewpsquad/fieldkit/pkg/core"
)

// EntityModel is a typed view of the fields of one entity.
type EntityModel[T any] struct {
	ID        core.EntityID
	FieldType core.FieldTypeKey
	Data      T
}

// Decode converts a field map into T through its JSON representation,
// so struct fields are matched by their json tags.
func Decode[T any](fields map[string]any) (T, error) {
	var out T
	data, err := json.Marshal(fields)
	if err != nil {
		return out, fmt.Errorf("failed to marshal fields: %w", err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("failed to decode fields into %T: %w", out, err)
	}
	return out, nil
}

// Repository reads typed entities of one field type from a registry.
type Repository[T any] struct {
	registry  *core.Registry
	fieldType core.FieldTypeKey
}

// NewRepository creates a type-safe reader over registry.
func NewRepository[T any](registry *core.Registry, fieldType core.FieldTypeKey) *Repository[T] {
	return &Repository[T]{registry: registry, fieldType: fieldType}
}

// Get retrieves the fields of id and decodes them.
func (r *Repository[T]) Get(ctx context.Context, id core.EntityID) (*EntityModel[T], error) {
	fields, err := r.registry.Fields(ctx, r.fieldType, id)
	if err != nil {
		return nil, err
	}
	data, err := Decode[T](fields)
	if err != nil {
		return nil, fmt.Errorf("entity %d: %w", id, err)
	}
	return &EntityModel[T]{ID: id, FieldType: r.fieldType, Data: data}, nil
}
