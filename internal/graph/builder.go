package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/agentic-research/seedling/api"
)

// ErrNestingCycle is returned when an embedded schema contains itself,
// directly or through other embedded schemas.
var ErrNestingCycle = errors.New("embedded schema nests itself")

// Builder computes per-schema dependency lists.
type Builder struct {
	src      Source
	defaults *Defaults
}

func NewBuilder(src Source, defaults *Defaults) *Builder {
	return &Builder{src: src, defaults: defaults}
}

// DependenciesOf returns the schemas (or pending defaults) that must have an
// instance before s can be created. Content and Embedded schemas contribute
// primary and metadata fields, Multimedia schemas only metadata. Nested
// fields contribute their embedded schema's dependencies, never the embedded
// schema itself.
//
// A Content or Multimedia schema that turns out to have no dependencies
// becomes the default for its category if that default is still unset.
func (b *Builder) DependenciesOf(ctx context.Context, s api.Schema) (*DependencyList, error) {
	deps := NewDependencyList()
	if err := b.collect(ctx, s, deps, []string{s.ID}); err != nil {
		return nil, err
	}
	return deps, nil
}

func (b *Builder) collect(ctx context.Context, s api.Schema, deps *DependencyList, stack []string) error {
	var tabs [][]api.Field
	var c Category
	switch s.Purpose {
	case api.PurposeContent, api.PurposeEmbedded:
		fields, err := b.src.ReadFields(ctx, s.ID)
		if err != nil {
			return fmt.Errorf("read fields of %s: %w", s.ID, err)
		}
		tabs, c = [][]api.Field{fields.Primary, fields.Metadata}, CategoryContent
	case api.PurposeMultimedia:
		fields, err := b.src.ReadFields(ctx, s.ID)
		if err != nil {
			return fmt.Errorf("read fields of %s: %w", s.ID, err)
		}
		tabs, c = [][]api.Field{fields.Metadata}, CategoryMedia
	default:
		return nil
	}

	for _, tab := range tabs {
		for _, f := range tab {
			if err := b.addField(ctx, f, deps, stack); err != nil {
				return err
			}
		}
	}

	// Embedded schemas are never instantiated, so they cannot serve as a
	// link target even when their scan comes up empty.
	if deps.Len() == 0 && s.Purpose.Instantiable() {
		b.defaults.adopt(ctx, c, s.ID, "no dependencies")
	}
	return nil
}

func (b *Builder) addField(ctx context.Context, f api.Field, deps *DependencyList, stack []string) error {
	if !f.Mandatory() {
		return nil
	}
	if tok, ok := b.defaults.TargetOf(f); ok {
		deps.Add(tok)
		return nil
	}
	n, ok := f.(api.Nested)
	if !ok {
		return nil
	}
	emb, next, err := EnterNested(ctx, b.src, n, stack)
	if err != nil {
		return err
	}
	return b.collect(ctx, emb, deps, next)
}

// EnterNested reads the embedded schema of n and extends the nesting stack,
// failing on a cycle.
func EnterNested(ctx context.Context, src Source, n api.Nested, stack []string) (api.Schema, []string, error) {
	for _, id := range stack {
		if id == n.EmbeddedSchemaID {
			path := append(append([]string(nil), stack...), n.EmbeddedSchemaID)
			return api.Schema{}, nil, fmt.Errorf("%w: %s", ErrNestingCycle, strings.Join(path, " -> "))
		}
	}
	emb, err := src.ReadSchema(ctx, n.EmbeddedSchemaID)
	if err != nil {
		return api.Schema{}, nil, fmt.Errorf("read embedded schema %s of field %s: %w", n.EmbeddedSchemaID, n.Name, err)
	}
	next := append(append(make([]string, 0, len(stack)+1), stack...), emb.ID)
	return emb, next, nil
}
