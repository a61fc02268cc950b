package schema_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thewpsquad/fieldkit/pkg/adapters/schema"
	"github.com/thewpsquad/fieldkit/pkg/core"
)

const sample = `
groups:
  - key: group_post
    title: Post Details
    post_types: [post, page]
    fields:
      - {key: field_hero, name: hero, label: Hero Image, type: image}
      - {key: field_featured, name: featured, type: true_false}
  - key: group_old
    title: Old
    active: false
    post_types: [post]
    fields:
      - {key: field_legacy, name: legacy, type: text}
`

func TestParse(t *testing.T) {
	ctx := context.Background()
	s, err := schema.Parse(strings.NewReader(sample))
	require.NoError(t, err)
	require.True(t, s.Available())

	groups, err := s.FieldGroups(ctx, "post")
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "group_post", groups[0].Key)
	assert.True(t, groups[0].IsActive())
	assert.False(t, groups[1].IsActive())

	pageGroups, _ := s.FieldGroups(ctx, "page")
	assert.Len(t, pageGroups, 1)

	defs, err := s.Fields(ctx, "group_post")
	require.NoError(t, err)
	assert.Equal(t, []core.FieldDefinition{
		{Key: "field_hero", Name: "hero", Label: "Hero Image", Type: "image"},
		{Key: "field_featured", Name: "featured", Type: "true_false"},
	}, defs)

	unknown, err := s.Fields(ctx, "nope")
	require.NoError(t, err)
	assert.Empty(t, unknown)

	state := s.State().(schema.SystemState)
	assert.Equal(t, 2, state.Groups)
	assert.Equal(t, 3, state.Fields)
}

func TestParseInvalid(t *testing.T) {
	cases := map[string]string{
		"missing group key": "groups:\n  - title: x\n",
		"duplicate group":   "groups:\n  - key: a\n  - key: a\n",
		"missing name":      "groups:\n  - key: a\n    fields:\n      - {type: text}\n",
		"unknown field":     "groups:\n  - key: a\n    location: post\n",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := schema.Parse(strings.NewReader(input))
			assert.ErrorIs(t, err, schema.ErrInvalid)
		})
	}
}

func TestOpen(t *testing.T) {
	t.Run("Missing File Is Unavailable", func(t *testing.T) {
		s, err := schema.Open(filepath.Join(t.TempDir(), "fields.yaml"))
		require.NoError(t, err)
		assert.False(t, s.Available())
	})

	t.Run("Reads File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "fields.yaml")
		require.NoError(t, os.WriteFile(path, []byte(sample), 0644))

		s, err := schema.Open(path)
		require.NoError(t, err)
		assert.True(t, s.Available())
		assert.Equal(t, path, s.State().(schema.SystemState).Path)
	})

	t.Run("Empty File Is Available Without Groups", func(t *testing.T) {
		s, err := schema.Parse(strings.NewReader(""))
		require.NoError(t, err)
		assert.True(t, s.Available())
	})
}
