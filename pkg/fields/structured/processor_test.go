package structured_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thewpsquad/fieldkit/pkg/cache"
	"github.com/thewpsquad/fieldkit/pkg/core"
	"github.com/thewpsquad/fieldkit/pkg/fields"
	"github.com/thewpsquad/fieldkit/pkg/fields/fieldstest"
	"github.com/thewpsquad/fieldkit/pkg/fields/structured"
)

func fixture() (*fieldstest.Store, *fieldstest.System) {
	inactive := false
	store := fieldstest.NewStore().
		Put(10, "post", map[string][]any{
			"hero":       {"15"},
			"featured":   {"1"},
			"colors":     {[]any{"red", "blue"}},
			"subtitle":   {"Hello"},
			"_edit_lock": {"1:1"},
		}).
		Put(15, "attachment", map[string][]any{
			structured.AttachedFileKey: {"2024/05/hero.jpg"},
			structured.AttachedAltKey:  {`Sunset "over" sea`},
		}).
		Put(11, "product", map[string][]any{"hero": {"15"}})

	system := &fieldstest.System{
		Installed: true,
		Groups: map[string][]core.FieldGroup{
			"post": {
				{Key: "group_post", Title: "Post"},
				{Key: "group_old", Title: "Old", Active: &inactive},
			},
			"page": {{Key: "group_post", Title: "Post"}},
		},
		Defs: map[string][]core.FieldDefinition{
			"group_post": {
				{Key: "field_1", Name: "hero", Label: "Hero Image", Type: "image"},
				{Key: "field_2", Name: "featured", Type: "true_false"},
				{Key: "field_3", Name: "colors", Type: "checkbox"},
				{Key: "field_4", Name: "subtitle", Type: "text"},
				{Key: "field_5", Name: "hero", Type: "image"},
			},
			"group_old": {
				{Key: "field_9", Name: "legacy", Type: "text"},
			},
		},
	}
	return store, system
}

func newProcessor(store core.ContentStore, system core.StructuredSystem, opts ...structured.Option) *structured.Processor {
	return structured.NewProcessor(fields.Config{Store: store, Cache: cache.NewMemoryStore()}, system, opts...)
}

func TestEligibility(t *testing.T) {
	store, system := fixture()

	assert.True(t, newProcessor(store, system).IsEligible())
	assert.False(t, newProcessor(store, nil).IsEligible())
	assert.False(t, newProcessor(nil, system).IsEligible())
	assert.False(t, newProcessor(store, &fieldstest.System{}).IsEligible())

	p := newProcessor(store, nil)
	assert.Empty(t, p.FormattedFields(context.Background()))
	assert.Empty(t, p.Fields(context.Background(), 10))
	assert.Empty(t, p.FieldTypes(context.Background()))
}

func TestFormattedFields(t *testing.T) {
	store, system := fixture()
	p := newProcessor(store, system)

	want := map[string]string{
		"hero":     "Hero Image",
		"featured": "Featured",
		"colors":   "Colors",
		"subtitle": "Subtitle",
	}
	got := p.FormattedFields(context.Background())
	if diff := cmp.Diff(core.FormattedFieldMap{"post": want, "page": want}, got); diff != "" {
		t.Errorf("FormattedFields mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, map[string][]string{
		"image":      {"hero"},
		"true_false": {"featured"},
		"checkbox":   {"colors"},
		"text":       {"subtitle"},
	}, p.FieldTypes(context.Background()))
}

func TestFields(t *testing.T) {
	ctx := context.Background()

	t.Run("Transforms By Field Type", func(t *testing.T) {
		store, system := fixture()
		p := newProcessor(store, system, structured.WithAttachmentBaseURL("https://cdn.example.com/uploads/"))

		got := p.Fields(ctx, 10)
		assert.Equal(t, map[string]any{
			"hero":     `<img src="https://cdn.example.com/uploads/2024/05/hero.jpg" alt="Sunset &#34;over&#34; sea">`,
			"featured": "Yes",
			"colors":   "red, blue",
			"subtitle": "Hello",
		}, got)
	})

	t.Run("Custom Transformer", func(t *testing.T) {
		store, system := fixture()
		upper := structured.TransformerFunc(func(ctx context.Context, def core.FieldDefinition, v any) any {
			return "[" + def.Name + "]"
		})
		p := newProcessor(store, system,
			structured.WithTransformer("text", upper),
			structured.WithTransformer("image", nil),
		)

		got := p.Fields(ctx, 10)
		assert.Equal(t, "[subtitle]", got["subtitle"])
		assert.Equal(t, "15", got["hero"])
	})

	t.Run("Guards", func(t *testing.T) {
		store, system := fixture()
		p := newProcessor(store, system)

		assert.Empty(t, p.Fields(ctx, 0))
		assert.Empty(t, p.Fields(ctx, 11))
		assert.False(t, p.HasField(ctx, 11, "hero"))
		assert.Equal(t, "none", p.FieldValue(ctx, -1, "hero", "none"))
	})

	t.Run("Cached Across Instances", func(t *testing.T) {
		store, system := fixture()
		cfg := fields.Config{Store: store, Cache: cache.NewMemoryStore()}

		noImages := structured.WithTransformer("image", nil)

		a := structured.NewProcessor(cfg, system, noImages).Fields(ctx, 10)
		calls := store.Calls("value")
		b := structured.NewProcessor(cfg, system, noImages).Fields(ctx, 10)

		assert.Equal(t, a, b)
		assert.Equal(t, calls, store.Calls("value"), "values come from the cache on the second instance")
	})

	t.Run("Single Field Access", func(t *testing.T) {
		store, system := fixture()
		p := newProcessor(store, system)

		assert.True(t, p.HasField(ctx, 10, "subtitle"))
		assert.Equal(t, "Hello", p.FieldValue(ctx, 10, "subtitle", nil))
		assert.Equal(t, "x", p.FieldValue(ctx, 10, "missing", "x"))
	})
}

func TestFetchLimit(t *testing.T) {
	store, system := fixture()
	p := structured.NewProcessor(fields.Config{Store: store, FetchLimit: 2}, system)

	assert.Len(t, p.FormattedFields(context.Background())["post"], 2)
}

func TestFormattedFields_EmptyDiscoveryRecomputed(t *testing.T) {
	ctx := context.Background()
	store, _ := fixture()
	system := &fieldstest.System{Installed: true}
	p := newProcessor(store, system)

	assert.Empty(t, p.FormattedFields(ctx))

	system.Groups = map[string][]core.FieldGroup{"post": {{Key: "g", Title: "G"}}}
	system.Defs = map[string][]core.FieldDefinition{"g": {{Key: "field_s", Name: "subtitle", Type: "text"}}}

	assert.Equal(t, core.FormattedFieldMap{"post": {"subtitle": "Subtitle"}}, p.FormattedFields(ctx))
}

func TestFieldTypes_PartialGroupFetchRetried(t *testing.T) {
	ctx := context.Background()
	store, system := fixture()
	system.Groups["post"] = append(system.Groups["post"], core.FieldGroup{Key: "group_extra", Title: "Extra"})
	system.Defs["group_extra"] = []core.FieldDefinition{{Key: "field_x", Name: "gallery", Type: "gallery"}}
	system.FieldsErr = map[string]error{"group_extra": errors.New("boom")}
	p := newProcessor(store, system, structured.WithTransformer("image", nil))

	assert.NotContains(t, p.FieldTypes(ctx), "gallery")

	system.FieldsErr = nil
	assert.Equal(t, []string{"gallery"}, p.FieldTypes(ctx)["gallery"])
}

func TestWithAttachmentBaseURL_KeepsCustomImageTransformer(t *testing.T) {
	ctx := context.Background()
	store, system := fixture()
	custom := structured.TransformerFunc(func(ctx context.Context, def core.FieldDefinition, value any) any {
		return "custom"
	})

	p := newProcessor(store, system,
		structured.WithTransformer("image", custom),
		structured.WithAttachmentBaseURL("https://cdn.example.com"),
	)
	assert.Equal(t, "custom", p.Fields(ctx, 10)["hero"])

	p = newProcessor(store, system, structured.WithAttachmentBaseURL("https://cdn.example.com"))
	assert.Equal(t, `<img src="https://cdn.example.com/2024/05/hero.jpg" alt="Sunset &#34;over&#34; sea">`, p.Fields(ctx, 10)["hero"])
}

func TestRegistryDefinitions(t *testing.T) {
	ctx := context.Background()

	build := func(system core.StructuredSystem) *core.Registry {
		store, _ := fixture()
		r := core.NewRegistry(nil)
		r.Register(core.FieldTypeStructured,
			func() core.Processor { return newProcessor(store, system) },
			func() core.Definition { return structured.NewDefinition() },
		)
		return r
	}

	t.Run("Not Eligible", func(t *testing.T) {
		got, err := build(nil).Definitions(ctx, core.FieldTypeStructured)
		require.NoError(t, err)

		d := structured.NewDefinition()
		want := core.RecursiveMerge(d.CommonFields(), d.NotEligibleFields())
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("schema mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Eligible With Images", func(t *testing.T) {
		_, system := fixture()
		got, err := build(system).Definitions(ctx, core.FieldTypeStructured)
		require.NoError(t, err)

		assert.Contains(t, got, "structured_field_post")
		assert.Contains(t, got, "structured_field_page")
		assert.Contains(t, got, "image_size")
		assert.NotContains(t, got, "structured_notice")
	})

	t.Run("Eligible Without Groups", func(t *testing.T) {
		got, err := build(&fieldstest.System{Installed: true}).Definitions(ctx, core.FieldTypeStructured)
		require.NoError(t, err)

		assert.Contains(t, got, "structured_notice")
		assert.NotContains(t, got, "image_size")
	})
}
