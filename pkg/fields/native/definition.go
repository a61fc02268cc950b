package native

import (
	"sort"

	"github.com/thewpsquad/fieldkit/pkg/core"
)

// Definition shapes native fields into builder settings.
type Definition struct{}

// NewDefinition creates the native definition.
func NewDefinition() *Definition { return &Definition{} }

// CommonFields are the text wrappers shown for every native field.
func (d *Definition) CommonFields() core.Schema {
	return core.Schema{
		"field_type": map[string]any{
			"label":       "Field Type",
			"type":        "select",
			"default":     string(core.FieldTypeNative),
			"toggle_slug": "main_content",
		},
		"before_text": map[string]any{
			"label":       "Before Text",
			"type":        "text",
			"toggle_slug": "main_content",
		},
		"after_text": map[string]any{
			"label":       "After Text",
			"type":        "text",
			"toggle_slug": "main_content",
		},
		"fallback_text": map[string]any{
			"label":       "Fallback Text",
			"type":        "text",
			"description": "Shown when the selected field is empty.",
			"toggle_slug": "main_content",
		},
	}
}

// DefaultFields builds one field selector per post type.
func (d *Definition) DefaultFields(postType string, labels map[string]string) core.Schema {
	if len(labels) == 0 {
		return core.Schema{}
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	options := make(map[string]any, len(labels))
	for _, k := range keys {
		options[k] = labels[k]
	}

	return core.Schema{
		"post_types": []any{postType},
		"field_name_" + postType: map[string]any{
			"label":       "Field Name",
			"type":        "select",
			"options":     options,
			"default":     keys[0],
			"show_if":     map[string]any{"field_type": string(core.FieldTypeNative), "post_type": postType},
			"toggle_slug": "main_content",
		},
	}
}

// EmptyFields tells the user no custom field was found.
func (d *Definition) EmptyFields() core.Schema {
	return core.Schema{
		"field_notice": map[string]any{
			"type":        "warning",
			"message":     "No custom fields were found. Add a custom field to a post to select it here.",
			"show_if":     map[string]any{"field_type": string(core.FieldTypeNative)},
			"toggle_slug": "main_content",
		},
	}
}

// NotEligibleFields is shown when no metadata store is configured.
func (d *Definition) NotEligibleFields() core.Schema {
	return core.Schema{
		"field_notice": map[string]any{
			"type":        "warning",
			"message":     "Custom fields are not available: no metadata store is configured.",
			"show_if":     map[string]any{"field_type": string(core.FieldTypeNative)},
			"toggle_slug": "main_content",
		},
	}
}

// AssociatedFields is empty: native fields carry no type information.
func (d *Definition) AssociatedFields(fieldTypes map[string][]string) core.Schema {
	return core.Schema{}
}

var _ core.Definition = (*Definition)(nil)
