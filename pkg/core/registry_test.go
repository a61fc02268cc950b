package core_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thewpsquad/fieldkit/pkg/core"
)

// stubProcessor implements core.Processor in memory.
type stubProcessor struct {
	eligible   bool
	postTypes  []string
	formatted  core.FormattedFieldMap
	fieldTypes map[string][]string
	values     map[core.EntityID]map[string]any
	fieldCalls int
}

func (s *stubProcessor) IsEligible() bool    { return s.eligible }
func (s *stubProcessor) PostTypes() []string { return s.postTypes }
func (s *stubProcessor) FormattedFields(ctx context.Context) core.FormattedFieldMap {
	return s.formatted
}
func (s *stubProcessor) FieldTypes(ctx context.Context) map[string][]string { return s.fieldTypes }
func (s *stubProcessor) Fields(ctx context.Context, id core.EntityID) map[string]any {
	s.fieldCalls++
	if !id.Valid() {
		return map[string]any{}
	}
	return s.values[id]
}
func (s *stubProcessor) HasField(ctx context.Context, id core.EntityID, key string) bool {
	_, ok := s.values[id][key]
	return ok
}
func (s *stubProcessor) FieldValue(ctx context.Context, id core.EntityID, key string, def any) any {
	if v, ok := s.values[id][key]; ok {
		return v
	}
	return def
}
func (s *stubProcessor) ShouldInclude(key string) bool { return key != "" }

// stubDefinition returns fixed fragments.
type stubDefinition struct {
	common, empty, notEligible, associated core.Schema
	seenTypes                              map[string][]string
}

func (d *stubDefinition) CommonFields() core.Schema { return d.common }
func (d *stubDefinition) DefaultFields(postType string, fields map[string]string) core.Schema {
	options := map[string]any{}
	for k, v := range fields {
		options[k] = v
	}
	return core.Schema{
		"post_types":        []any{postType},
		"field_" + postType: map[string]any{"options": options},
	}
}
func (d *stubDefinition) EmptyFields() core.Schema       { return d.empty }
func (d *stubDefinition) NotEligibleFields() core.Schema { return d.notEligible }
func (d *stubDefinition) AssociatedFields(types map[string][]string) core.Schema {
	d.seenTypes = types
	return d.associated
}

func newRegistry(p *stubProcessor, d *stubDefinition) (*core.Registry, *int) {
	built := 0
	r := core.NewRegistry(nil)
	r.Register("stub",
		func() core.Processor { built++; return p },
		func() core.Definition { return d },
	)
	return r, &built
}

func TestRegistry_Get_Unknown(t *testing.T) {
	r, _ := newRegistry(&stubProcessor{}, &stubDefinition{})

	tests := []struct {
		name      string
		fieldType core.FieldTypeKey
		kind      core.StorageKind
	}{
		{"unknown field type for collections", "missing", core.Collections},
		{"unknown field type for definitions", "missing", core.Definitions},
		{"unknown storage kind", "stub", core.StorageKind("options")},
		{"empty storage kind", "stub", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Get(tt.fieldType, tt.kind)
			assert.Nil(t, got)
			require.Error(t, err)
			assert.True(t, errors.Is(err, core.ErrConfiguration))

			var cfgErr *core.ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.fieldType, cfgErr.FieldType)
		})
	}
}

func TestRegistry_Get_Singleton(t *testing.T) {
	p := &stubProcessor{}
	r, built := newRegistry(p, &stubDefinition{})

	first, err := r.Get("stub", core.Collections)
	require.NoError(t, err)
	second, err := r.Get("stub", core.Collections)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, *built)

	def, err := r.Get("stub", core.Definitions)
	require.NoError(t, err)
	_, ok := def.(core.Definition)
	assert.True(t, ok)

	r.Reset()
	_, err = r.Processor("stub")
	require.NoError(t, err)
	assert.Equal(t, 2, *built, "reset must rebuild the processor")
}

func TestRegistry_Fields(t *testing.T) {
	p := &stubProcessor{
		values: map[core.EntityID]map[string]any{42: {"subtitle": "Hello"}},
	}
	r, _ := newRegistry(p, &stubDefinition{})
	ctx := context.Background()

	got, err := r.Fields(ctx, "stub", 42)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"subtitle": "Hello"}, got)

	_, err = r.Fields(ctx, "stub", 42)
	require.NoError(t, err)
	assert.Equal(t, 1, p.fieldCalls, "second call must be served from the memo")

	empty, err := r.Fields(ctx, "stub", 0)
	require.NoError(t, err)
	assert.Empty(t, empty)

	missing, err := r.Fields(ctx, "stub", 7)
	require.NoError(t, err)
	assert.NotNil(t, missing)
	assert.Empty(t, missing)

	_, err = r.Fields(ctx, "nope", 42)
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

func TestRegistry_MemoIsolatedFromCallers(t *testing.T) {
	ctx := context.Background()
	p := &stubProcessor{
		eligible:  true,
		postTypes: []string{"post"},
		formatted: core.FormattedFieldMap{"post": {"subtitle": "Subtitle"}},
		values:    map[core.EntityID]map[string]any{42: {"subtitle": "Hello", "tags": []any{"a"}}},
	}
	d := &stubDefinition{common: core.Schema{"a": map[string]any{"label": "A"}}, associated: core.Schema{}}
	r, _ := newRegistry(p, d)

	first, err := r.Fields(ctx, "stub", 42)
	require.NoError(t, err)
	first["subtitle"] = "mutated"
	first["tags"].([]any)[0] = "mutated"

	second, err := r.Fields(ctx, "stub", 42)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"subtitle": "Hello", "tags": []any{"a"}}, second)

	s1, err := r.Definitions(ctx, "stub")
	require.NoError(t, err)
	s1["a"].(map[string]any)["label"] = "mutated"
	delete(s1, "a")

	s2, err := r.Definitions(ctx, "stub")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"label": "A"}, s2["a"])
}

func TestRegistry_Definitions_NotEligible(t *testing.T) {
	p := &stubProcessor{eligible: false, postTypes: []string{"post"}}
	d := &stubDefinition{
		common:      core.Schema{"label": "Common", "toggles": []any{"main"}},
		notEligible: core.Schema{"notice": "install", "toggles": []any{"notice"}},
		associated:  core.Schema{"never": true},
	}
	r, _ := newRegistry(p, d)

	got, err := r.Definitions(context.Background(), "stub")
	require.NoError(t, err)

	want := core.RecursiveMerge(d.common, d.notEligible)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Definitions() mismatch (-want +got):\n%s", diff)
	}
	assert.Nil(t, d.seenTypes, "associated fields must not be computed")
}

func TestRegistry_Definitions_Eligible(t *testing.T) {
	p := &stubProcessor{
		eligible:  true,
		postTypes: []string{"post", "page", "product"},
		formatted: core.FormattedFieldMap{
			"post":     {"subtitle": "Subtitle"},
			"page":     {"hero": "Hero"},
			"unlisted": {"ignored": "Ignored"},
		},
		fieldTypes: map[string][]string{"image": {"hero"}},
	}
	d := &stubDefinition{
		common:     core.Schema{"label": "Common"},
		associated: core.Schema{"image_size": map[string]any{"show_if": []any{"hero"}}},
	}
	r, _ := newRegistry(p, d)

	got, err := r.Definitions(context.Background(), "stub")
	require.NoError(t, err)

	want := core.Schema{
		"label":      "Common",
		"post_types": []any{"post", "page"},
		"field_post": map[string]any{"options": map[string]any{"subtitle": "Subtitle"}},
		"field_page": map[string]any{"options": map[string]any{"hero": "Hero"}},
		"image_size": map[string]any{"show_if": []any{"hero"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Definitions() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, p.fieldTypes, d.seenTypes)
}

func TestRegistry_Definitions_EligibleButEmpty(t *testing.T) {
	p := &stubProcessor{eligible: true, postTypes: []string{"post"}, formatted: core.FormattedFieldMap{}}
	d := &stubDefinition{
		common:     core.Schema{"label": "Common"},
		empty:      core.Schema{"notice": map[string]any{"type": "warning"}},
		associated: core.Schema{"never": true},
	}
	r, _ := newRegistry(p, d)

	got, err := r.Definitions(context.Background(), "stub")
	require.NoError(t, err)

	want := core.Schema{"label": "Common", "notice": map[string]any{"type": "warning"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Definitions() mismatch (-want +got):\n%s", diff)
	}
	assert.Nil(t, d.seenTypes)
}

func TestRegistry_Definitions_Memoized(t *testing.T) {
	p := &stubProcessor{eligible: false}
	d := &stubDefinition{common: core.Schema{"v": 1}}
	r, _ := newRegistry(p, d)
	ctx := context.Background()

	first, err := r.Definitions(ctx, "stub")
	require.NoError(t, err)

	d.common = core.Schema{"v": 2}
	second, err := r.Definitions(ctx, "stub")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	r.Reset()
	third, err := r.Definitions(ctx, "stub")
	require.NoError(t, err)
	assert.Equal(t, 2, third["v"])
}

func TestRegistry_State(t *testing.T) {
	r, _ := newRegistry(&stubProcessor{}, &stubDefinition{})
	_, err := r.Fields(context.Background(), "stub", 1)
	require.NoError(t, err)

	state, ok := r.State().(core.RegistryState)
	require.True(t, ok)
	assert.Equal(t, []core.FieldTypeKey{"stub"}, state.FieldTypes)
	assert.Equal(t, 1, state.Processors)
	assert.Equal(t, 1, state.MemoizedEntities)
	assert.Equal(t, "registry", r.ComponentType())
}
