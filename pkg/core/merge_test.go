package core_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/thewpsquad/fieldkit/pkg/core"
)

func TestRecursiveMerge(t *testing.T) {
	tests := []struct {
		name      string
		fragments []core.Schema
		want      core.Schema
	}{
		{
			name: "Later Scalar Wins",
			fragments: []core.Schema{
				{"a": 1},
				{"a": 2, "b": 3},
				{"b": 4},
			},
			want: core.Schema{"a": 2, "b": 4},
		},
		{
			name: "Slices Concatenate",
			fragments: []core.Schema{
				{"list": []any{"x"}},
				{"list": []any{"y", "z"}},
			},
			want: core.Schema{"list": []any{"x", "y", "z"}},
		},
		{
			name: "Nested Maps Merge Depth First",
			fragments: []core.Schema{
				{"field": map[string]any{"label": "A", "options": []any{"one"}}},
				{"field": map[string]any{"default": "one", "options": []any{"two"}}},
			},
			want: core.Schema{"field": map[string]any{
				"label":   "A",
				"default": "one",
				"options": []any{"one", "two"},
			}},
		},
		{
			name: "Map Replaced By Scalar",
			fragments: []core.Schema{
				{"k": map[string]any{"x": 1}},
				{"k": "flat"},
			},
			want: core.Schema{"k": "flat"},
		},
		{
			name:      "No Fragments",
			fragments: nil,
			want:      core.Schema{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := core.RecursiveMerge(tt.fragments...)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("RecursiveMerge() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRecursiveMerge_DoesNotMutateInputs(t *testing.T) {
	common := core.Schema{"field": map[string]any{"options": []any{"one"}}}
	extra := core.Schema{"field": map[string]any{"options": []any{"two"}}}

	_ = core.RecursiveMerge(common, extra)

	want := core.Schema{"field": map[string]any{"options": []any{"one"}}}
	if diff := cmp.Diff(want, common); diff != "" {
		t.Errorf("input mutated (-want +got):\n%s", diff)
	}
}
