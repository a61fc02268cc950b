// Package schema loads structured field groups from a YAML file.
//
//	groups:
//	  - key: group_post
//	    title: Post Details
//	    post_types: [post, page]
//	    fields:
//	      - {key: field_hero, name: hero, label: Hero Image, type: image}
package schema

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/aretw0/introspection"
	"gopkg.in/yaml.v3"

	"github.com/thewpsquad/fieldkit/pkg/core"
)

// ErrInvalid is returned for schema files that cannot be served.
var ErrInvalid = errors.New("invalid field schema")

type group struct {
	core.FieldGroup `yaml:",inline"`
	Fields          []core.FieldDefinition `yaml:"fields"`
}

type document struct {
	Groups []group `yaml:"groups"`
}

// System implements core.StructuredSystem from a parsed schema file.
// The zero value is a system that is not installed.
type System struct {
	Path      string
	installed bool
	groups    []group
}

// Open reads the schema at path. A missing file yields a system that
// reports itself unavailable.
func Open(path string) (*System, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return &System{Path: path}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open schema: %w", err)
	}
	defer f.Close()

	s, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.Path = path
	return s, nil
}

// Parse decodes and validates a schema document.
func Parse(r io.Reader) (*System, error) {
	var doc document
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	seen := make(map[string]bool)
	for i, g := range doc.Groups {
		if g.Key == "" {
			return nil, fmt.Errorf("%w: group %d has no key", ErrInvalid, i)
		}
		if seen[g.Key] {
			return nil, fmt.Errorf("%w: duplicate group %q", ErrInvalid, g.Key)
		}
		seen[g.Key] = true
		for j, f := range g.Fields {
			if f.Name == "" {
				return nil, fmt.Errorf("%w: field %d of group %q has no name", ErrInvalid, j, g.Key)
			}
		}
	}
	return &System{installed: true, groups: doc.Groups}, nil
}

// Available reports whether a schema file was loaded.
func (s *System) Available() bool {
	return s != nil && s.installed
}

// FieldGroups returns the groups located on postType, in file order.
func (s *System) FieldGroups(ctx context.Context, postType string) ([]core.FieldGroup, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []core.FieldGroup
	for _, g := range s.groups {
		if slices.Contains(g.PostTypes, postType) {
			out = append(out, g.FieldGroup)
		}
	}
	return out, nil
}

// Fields returns the field definitions of the group with groupKey.
func (s *System) Fields(ctx context.Context, groupKey string) ([]core.FieldDefinition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, g := range s.groups {
		if g.Key == groupKey {
			return slices.Clone(g.Fields), nil
		}
	}
	return nil, nil
}

// SystemState exposes the loaded schema for observability.
type SystemState struct {
	Path      string `json:"path"`
	Available bool   `json:"available"`
	Groups    int    `json:"groups"`
	Fields    int    `json:"fields"`
}

// State implements introspection.Introspectable.
func (s *System) State() any {
	st := SystemState{Path: s.Path, Available: s.Available(), Groups: len(s.groups)}
	for _, g := range s.groups {
		st.Fields += len(g.Fields)
	}
	return st
}

// ComponentType implements introspection.Component.
func (s *System) ComponentType() string {
	return "field_schema"
}

var (
	_ core.StructuredSystem        = (*System)(nil)
	_ introspection.Introspectable = (*System)(nil)
	_ introspection.Component      = (*System)(nil)
)
