package structured_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/thewpsquad/fieldkit/pkg/core"
	"github.com/thewpsquad/fieldkit/pkg/fields/fieldstest"
	"github.com/thewpsquad/fieldkit/pkg/fields/structured"
)

func TestImageTransformer(t *testing.T) {
	ctx := context.Background()
	store := fieldstest.NewStore().Put(5, "attachment", map[string][]any{
		structured.AttachedFileKey: {"a.png"},
	})
	tr := structured.ImageTransformer{Store: store, BaseURL: "https://x.test/up"}
	def := core.FieldDefinition{Name: "img", Type: "image"}

	assert.Equal(t, `<img src="https://x.test/up/a.png" alt="">`, tr.Transform(ctx, def, json.Number("5")))
	assert.Equal(t, `<img src="https://x.test/up/a.png" alt="">`, tr.Transform(ctx, def, 5))
	assert.Equal(t, `<img src="https://other.test/b.png" alt="">`, tr.Transform(ctx, def, "https://other.test/b.png"))
	assert.Equal(t, "", tr.Transform(ctx, def, "99"), "missing attachment")
	assert.Equal(t, "not-an-id", tr.Transform(ctx, def, "not-an-id"))
}

func TestBoolTransformer(t *testing.T) {
	ctx := context.Background()
	def := core.FieldDefinition{Type: "true_false"}

	for _, v := range []any{true, "1", json.Number("1"), 1, "yes"} {
		assert.Equal(t, "Yes", structured.BoolTransformer.Transform(ctx, def, v), "%v", v)
	}
	for _, v := range []any{false, "0", "", json.Number("0"), nil, "false"} {
		assert.Equal(t, "No", structured.BoolTransformer.Transform(ctx, def, v), "%v", v)
	}
}

func TestListTransformer(t *testing.T) {
	ctx := context.Background()
	def := core.FieldDefinition{Type: "select"}

	assert.Equal(t, "a, b", structured.ListTransformer.Transform(ctx, def, []any{"a", "", "b"}))
	assert.Equal(t, "single", structured.ListTransformer.Transform(ctx, def, "single"))
}
