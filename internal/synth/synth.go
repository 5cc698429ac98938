// Package synth builds placeholder payloads that satisfy a schema's
// mandatory fields.
package synth

import (
	"context"
	"errors"
	"fmt"

	"github.com/agentic-research/seedling/api"
	"github.com/agentic-research/seedling/internal/graph"
)

// Placeholder values written for mandatory fields.
const (
	PlaceholderText   = "xxxxxxxx"
	PlaceholderNumber = "00000000"
	PlaceholderDate   = "2014-08-29T00:36:04"
	PlaceholderURL    = "https://www.google.ca/"
)

// Container element names for the two field tabs.
const (
	ContentTag  = "Content"
	MetadataTag = "Metadata"
)

// ErrOrderingViolation means a link points at a schema whose instance has
// not been created yet. It indicates a scheduling defect.
var ErrOrderingViolation = errors.New("link target has no instance yet")

// OrderingError reports the field and target behind an ErrOrderingViolation.
type OrderingError struct {
	Field  string
	Target graph.Token
}

func (e *OrderingError) Error() string {
	return fmt.Sprintf("field %s: target %s: %v", e.Field, e.Target, ErrOrderingViolation)
}

func (e *OrderingError) Unwrap() error { return ErrOrderingViolation }

// Source is the repository access the synthesizer needs.
type Source interface {
	graph.Source
	ReadInstanceTitle(ctx context.Context, instanceID string) (string, error)
}

// Instances resolves a schema to the instance created for it.
type Instances interface {
	Lookup(schemaID string) (string, bool)
}

// Synthesizer turns field definitions into payload nodes.
type Synthesizer struct {
	src       Source
	defaults  *graph.Defaults
	instances Instances
}

func New(src Source, defaults *graph.Defaults, instances Instances) *Synthesizer {
	return &Synthesizer{src: src, defaults: defaults, instances: instances}
}

// Content synthesizes the primary tab. It always returns a container,
// empty when there are no fields.
func (s *Synthesizer) Content(ctx context.Context, ns string, fields []api.Field) (*Node, error) {
	return s.All(ctx, ns, fields, ContentTag)
}

// Metadata synthesizes the metadata tab. It returns nil when there are no
// fields at all.
func (s *Synthesizer) Metadata(ctx context.Context, ns string, fields []api.Field) (*Node, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	return s.All(ctx, ns, fields, MetadataTag)
}

// All synthesizes fields under a container named tag.
func (s *Synthesizer) All(ctx context.Context, ns string, fields []api.Field, tag string) (*Node, error) {
	root := &Node{Namespace: ns, Name: tag}
	for _, f := range fields {
		child, err := s.field(ctx, ns, f, nil)
		if err != nil {
			return nil, err
		}
		root.Children = append(root.Children, child)
	}
	return root, nil
}

// Synthesize produces the element for a single field.
func (s *Synthesizer) Synthesize(ctx context.Context, ns string, f api.Field) (*Node, error) {
	return s.field(ctx, ns, f, nil)
}

func (s *Synthesizer) field(ctx context.Context, ns string, f api.Field, stack []string) (*Node, error) {
	n := &Node{Namespace: ns, Name: f.FieldName()}
	if !f.Mandatory() {
		return n, nil
	}

	switch v := f.(type) {
	case api.PlainText:
		n.Text = PlaceholderText
	case api.Numeric:
		n.Text = PlaceholderNumber
	case api.Date:
		n.Text = PlaceholderDate
	case api.ExternalLink:
		n.Attrs = xlinkAttrs(PlaceholderURL)
	case api.InstanceLink, api.MediaLink:
		if err := s.link(ctx, n, f); err != nil {
			return nil, err
		}
	case api.Nested:
		emb, next, err := graph.EnterNested(ctx, s.src, v, stack)
		if err != nil {
			return nil, err
		}
		fields, err := s.src.ReadFields(ctx, emb.ID)
		if err != nil {
			return nil, fmt.Errorf("read fields of %s: %w", emb.ID, err)
		}
		for _, ef := range fields.Primary {
			child, err := s.field(ctx, ns, ef, next)
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, child)
		}
	}
	return n, nil
}

func (s *Synthesizer) link(ctx context.Context, n *Node, f api.Field) error {
	target, _ := s.defaults.TargetOf(f)
	if target.Kind != graph.Concrete {
		return &OrderingError{Field: f.FieldName(), Target: target}
	}
	instanceID, ok := s.instances.Lookup(target.SchemaID)
	if !ok {
		return &OrderingError{Field: f.FieldName(), Target: target}
	}
	title, err := s.src.ReadInstanceTitle(ctx, instanceID)
	if err != nil {
		return fmt.Errorf("read title of %s: %w", instanceID, err)
	}
	n.Attrs = append(xlinkAttrs(instanceID), Attr{Name: "xlink:title", Value: title})
	return nil
}

func xlinkAttrs(href string) []Attr {
	return []Attr{
		{Name: "xmlns:xlink", Value: XLinkNamespace},
		{Name: "xlink:type", Value: "simple"},
		{Name: "xlink:href", Value: href},
	}
}
