package structured

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/thewpsquad/fieldkit/pkg/core"
)

// Attachment metadata keys read by ImageTransformer.
const (
	AttachedFileKey = "_wp_attached_file"
	AttachedAltKey  = "_wp_attachment_image_alt"
)

// Transformer shapes the stored value of one field type for display.
type Transformer interface {
	Transform(ctx context.Context, def core.FieldDefinition, value any) any
}

// TransformerFunc adapts a function to Transformer.
type TransformerFunc func(ctx context.Context, def core.FieldDefinition, value any) any

func (f TransformerFunc) Transform(ctx context.Context, def core.FieldDefinition, value any) any {
	return f(ctx, def, value)
}

// ImageTransformer renders an attachment reference as an <img> tag.
// The value is either an attachment entity id or an absolute URL.
type ImageTransformer struct {
	Store   core.MetadataStore
	BaseURL string
}

func (t ImageTransformer) Transform(ctx context.Context, def core.FieldDefinition, value any) any {
	if s, ok := value.(string); ok && isURL(s) {
		return imgTag(s, "")
	}

	id, ok := entityID(value)
	if !ok || t.Store == nil {
		return value
	}

	file, ok, err := t.Store.Value(ctx, id, AttachedFileKey)
	if err != nil || !ok {
		return ""
	}
	src := fmt.Sprint(file)
	if !isURL(src) && t.BaseURL != "" {
		src = strings.TrimRight(t.BaseURL, "/") + "/" + strings.TrimLeft(src, "/")
	}

	alt := ""
	if v, ok, err := t.Store.Value(ctx, id, AttachedAltKey); err == nil && ok {
		alt = fmt.Sprint(v)
	}
	return imgTag(src, alt)
}

func imgTag(src, alt string) string {
	return `<img src="` + html.EscapeString(src) + `" alt="` + html.EscapeString(alt) + `">`
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func entityID(v any) (core.EntityID, bool) {
	var n int64
	switch x := v.(type) {
	case int:
		n = int64(x)
	case int64:
		n = x
	case float64:
		n = int64(x)
	case json.Number:
		i, err := x.Int64()
		if err != nil {
			return 0, false
		}
		n = i
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return 0, false
		}
		n = i
	default:
		return 0, false
	}
	id := core.EntityID(n)
	return id, id.Valid()
}

// BoolTransformer renders a true/false field as "Yes" or "No".
var BoolTransformer = TransformerFunc(func(ctx context.Context, def core.FieldDefinition, value any) any {
	if truthy(value) {
		return "Yes"
	}
	return "No"
})

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case json.Number:
		f, err := x.Float64()
		return err == nil && f != 0
	case float64:
		return x != 0
	case int:
		return x != 0
	case int64:
		return x != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "", "0", "false", "no", "off":
			return false
		}
		return true
	}
	return true
}

// ListTransformer joins multi-value fields with ", ". Scalars are kept.
var ListTransformer = TransformerFunc(func(ctx context.Context, def core.FieldDefinition, value any) any {
	list, ok := value.([]any)
	if !ok {
		return value
	}
	parts := make([]string, 0, len(list))
	for _, item := range list {
		if s := fmt.Sprint(item); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
})

// DefaultTransformers returns the transformer table keyed by field type.
func DefaultTransformers(store core.MetadataStore, baseURL string) map[string]Transformer {
	return map[string]Transformer{
		"image":      ImageTransformer{Store: store, BaseURL: baseURL},
		"true_false": BoolTransformer,
		"checkbox":   ListTransformer,
		"select":     ListTransformer,
	}
}
