package core

import "context"

// MetadataStore reads native key/value metadata attached to entities.
// It mirrors get(entity, key, single) of the host: Values is the
// "all keys, every value" form, Value the single-value form.
type MetadataStore interface {
	// Values returns every metadata key of the entity with all stored values.
	Values(ctx context.Context, id EntityID) (map[string][]any, error)

	// Value returns the first stored value for key.
	Value(ctx context.Context, id EntityID, key string) (any, bool, error)

	// Exists reports whether the entity has at least one value for key.
	Exists(ctx context.Context, id EntityID, key string) (bool, error)
}

// FieldDiscoverer supplies the candidate key universe for a post type.
type FieldDiscoverer interface {
	// Discover returns at most limit distinct metadata keys used by entities of postType.
	Discover(ctx context.Context, postType string, limit int) ([]string, error)
}

// PostTypeResolver maps an entity to its post type. Unknown entities resolve to "".
type PostTypeResolver interface {
	PostType(ctx context.Context, id EntityID) (string, error)
}

// ContentStore is the full native backing store.
type ContentStore interface {
	MetadataStore
	FieldDiscoverer
	PostTypeResolver
}

// StructuredSystem is the optional third-party structured-field system.
// Its presence is detected at runtime through Available.
type StructuredSystem interface {
	// Available reports whether the system is installed and active.
	Available() bool

	// FieldGroups returns the groups attached to postType.
	FieldGroups(ctx context.Context, postType string) ([]FieldGroup, error)

	// Fields returns the field definitions of a group.
	Fields(ctx context.Context, groupKey string) ([]FieldDefinition, error)
}

// Processor discovers, filters, fetches and shapes fields for one backend.
type Processor interface {
	// IsEligible reports whether the backend's runtime dependency is present.
	IsEligible() bool

	// PostTypes returns the post types this processor serves.
	PostTypes() []string

	// FormattedFields returns selectable field keys with labels, per post type.
	FormattedFields(ctx context.Context) FormattedFieldMap

	// FieldTypes groups the known field keys by category (e.g. "image").
	FieldTypes(ctx context.Context) map[string][]string

	// Fields returns the shaped field values of an entity.
	Fields(ctx context.Context, id EntityID) map[string]any

	HasField(ctx context.Context, id EntityID, key string) bool
	FieldValue(ctx context.Context, id EntityID, key string, def any) any

	// ShouldInclude applies the FilterRuleSet to a single key.
	ShouldInclude(key string) bool
}

// Definition shapes a processor's raw field data into consumer schema.
type Definition interface {
	// CommonFields is always part of the result.
	CommonFields() Schema

	// DefaultFields turns the key/label pairs of one post type into selectable options.
	DefaultFields(postType string, fields map[string]string) Schema

	// EmptyFields is used when the backend is eligible but has no data.
	EmptyFields() Schema

	// NotEligibleFields prompts the consumer to install or activate the backend.
	NotEligibleFields() Schema

	// AssociatedFields are secondary fields depending on the primary selection.
	AssociatedFields(fieldTypes map[string][]string) Schema
}
