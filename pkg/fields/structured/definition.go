package structured

import (
	"sort"

	"github.com/thewpsquad/fieldkit/pkg/core"
)

// Definition shapes structured fields into builder settings.
type Definition struct{}

// NewDefinition creates the structured definition.
func NewDefinition() *Definition { return &Definition{} }

func (d *Definition) CommonFields() core.Schema {
	return core.Schema{
		"field_type": map[string]any{
			"label":       "Field Type",
			"type":        "select",
			"default":     string(core.FieldTypeStructured),
			"toggle_slug": "main_content",
		},
		"show_label": map[string]any{
			"label":       "Show Label",
			"type":        "yes_no_button",
			"default":     "off",
			"toggle_slug": "main_content",
		},
		"fallback_text": map[string]any{
			"label":       "Fallback Text",
			"type":        "text",
			"toggle_slug": "main_content",
		},
	}
}

// DefaultFields builds the field selector of postType.
func (d *Definition) DefaultFields(postType string, labels map[string]string) core.Schema {
	if len(labels) == 0 {
		return core.Schema{}
	}
	names := make([]string, 0, len(labels))
	for k := range labels {
		names = append(names, k)
	}
	sort.Strings(names)

	options := make(map[string]any, len(labels))
	for _, n := range names {
		options[n] = labels[n]
	}
	return core.Schema{
		"post_types": []any{postType},
		"structured_field_" + postType: map[string]any{
			"label":       "Field",
			"type":        "select",
			"options":     options,
			"default":     names[0],
			"show_if":     map[string]any{"field_type": string(core.FieldTypeStructured), "post_type": postType},
			"toggle_slug": "main_content",
		},
	}
}

func (d *Definition) EmptyFields() core.Schema {
	return core.Schema{
		"structured_notice": map[string]any{
			"type":        "warning",
			"message":     "No field groups are assigned to the supported post types.",
			"show_if":     map[string]any{"field_type": string(core.FieldTypeStructured)},
			"toggle_slug": "main_content",
		},
	}
}

func (d *Definition) NotEligibleFields() core.Schema {
	return core.Schema{
		"structured_notice": map[string]any{
			"type":        "warning",
			"message":     "The structured field system is not installed or not active.",
			"show_if":     map[string]any{"field_type": string(core.FieldTypeStructured)},
			"toggle_slug": "main_content",
		},
	}
}

// AssociatedFields adds an image size selector shown for image fields.
func (d *Definition) AssociatedFields(fieldTypes map[string][]string) core.Schema {
	images := fieldTypes["image"]
	if len(images) == 0 {
		return core.Schema{}
	}
	names := make([]any, 0, len(images))
	for _, n := range images {
		names = append(names, n)
	}
	return core.Schema{
		"image_size": map[string]any{
			"label": "Image Size",
			"type":  "select",
			"options": map[string]any{
				"thumbnail": "Thumbnail",
				"medium":    "Medium",
				"large":     "Large",
				"full":      "Full",
			},
			"default":     "full",
			"show_if":     map[string]any{"field_type": string(core.FieldTypeStructured), "field_name": names},
			"toggle_slug": "main_content",
		},
	}
}

var _ core.Definition = (*Definition)(nil)
