package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/agentic-research/seedling/api"
	"github.com/rs/zerolog"
)

// ErrNoDefaultTarget means no link-free Content or Multimedia schema exists,
// so unconstrained links can never be satisfied.
var ErrNoDefaultTarget = errors.New("no content or multimedia schema without links; cannot choose a default link target")

// Category is the link category a default target serves.
type Category uint8

const (
	CategoryContent Category = iota
	CategoryMedia
)

func (c Category) String() string {
	if c == CategoryMedia {
		return "media"
	}
	return "content"
}

// Pending returns the sentinel token for the category.
func (c Category) Pending() Token {
	if c == CategoryMedia {
		return PendingMediaDefault
	}
	return PendingContentDefault
}

// categoryOf maps an instantiable purpose to the link category it can serve.
func categoryOf(p api.Purpose) (Category, bool) {
	switch p {
	case api.PurposeContent:
		return CategoryContent, true
	case api.PurposeMultimedia:
		return CategoryMedia, true
	default:
		return 0, false
	}
}

// Defaults holds the two default target slots. Each slot is written at most once.
type Defaults struct {
	slots [2]string
}

// Get returns the schema chosen for c, if any.
func (d *Defaults) Get(c Category) (string, bool) {
	id := d.slots[c]
	return id, id != ""
}

// IsSet reports whether c already has a default.
func (d *Defaults) IsSet(c Category) bool {
	return d.slots[c] != ""
}

// adopt sets c to id if it is still unset. It reports whether the slot changed.
func (d *Defaults) adopt(ctx context.Context, c Category, id string, reason string) bool {
	if d.IsSet(c) {
		return false
	}
	d.slots[c] = id
	zerolog.Ctx(ctx).Debug().
		Str("category", c.String()).
		Str("schema", id).
		Str("reason", reason).
		Msg("default link target adopted")
	return true
}

// TargetOf returns the dependency a mandatory link field contributes: its
// first allowed target, else the category default, else the pending sentinel.
// ok is false for fields that are not links.
func (d *Defaults) TargetOf(f api.Field) (Token, bool) {
	var targets []string
	var c Category
	switch v := f.(type) {
	case api.InstanceLink:
		targets, c = v.AllowedTargets, CategoryContent
	case api.MediaLink:
		targets, c = v.AllowedTargets, CategoryMedia
	default:
		return Token{}, false
	}
	if len(targets) > 0 {
		return SchemaToken(targets[0]), true
	}
	if id, ok := d.Get(c); ok {
		return SchemaToken(id), true
	}
	return c.Pending(), true
}

// Source is the read side of the repository the graph code needs.
type Source interface {
	ReadFields(ctx context.Context, schemaID string) (api.Fields, error)
	ReadSchema(ctx context.Context, schemaID string) (api.Schema, error)
}

// Resolver picks the default link targets.
type Resolver struct {
	src      Source
	defaults *Defaults
}

func NewResolver(src Source, defaults *Defaults) *Resolver {
	return &Resolver{src: src, defaults: defaults}
}

// TrySetDefaults scans candidates in order and, for each unset slot, adopts
// the first schema of the matching purpose that has no mandatory link
// anywhere in its field tree. It fails with ErrNoDefaultTarget when both
// slots are still unset afterwards.
func (r *Resolver) TrySetDefaults(ctx context.Context, schemas []api.Schema) error {
	for _, s := range schemas {
		if r.defaults.IsSet(CategoryContent) && r.defaults.IsSet(CategoryMedia) {
			break
		}
		c, ok := categoryOf(s.Purpose)
		if !ok || r.defaults.IsSet(c) {
			continue
		}
		linked, err := ContainsLink(ctx, r.src, s)
		if err != nil {
			return err
		}
		if !linked {
			r.defaults.adopt(ctx, c, s.ID, "pre-scan")
		}
	}

	if !r.defaults.IsSet(CategoryContent) && !r.defaults.IsSet(CategoryMedia) {
		return ErrNoDefaultTarget
	}
	return nil
}

// CheckAndAdopt runs after s has been resolved. If the slot for s's purpose
// is still unset, s becomes the default. Whenever s is (now) the default of
// its category, the sentinel it satisfies is returned; this also covers a
// default adopted during dependency extraction after other schemas had
// already recorded the sentinel.
func (r *Resolver) CheckAndAdopt(ctx context.Context, s api.Schema) (Token, bool) {
	c, ok := categoryOf(s.Purpose)
	if !ok {
		return Token{}, false
	}
	r.defaults.adopt(ctx, c, s.ID, "first resolved")
	if id, _ := r.defaults.Get(c); id != s.ID {
		return Token{}, false
	}
	return c.Pending(), true
}

// ContainsLink reports whether s has a mandatory instance or media link,
// directly or through any mandatory nested structure.
func ContainsLink(ctx context.Context, src Source, s api.Schema) (bool, error) {
	return containsLink(ctx, src, s, []string{s.ID})
}

func containsLink(ctx context.Context, src Source, s api.Schema, stack []string) (bool, error) {
	fields, err := src.ReadFields(ctx, s.ID)
	if err != nil {
		return false, fmt.Errorf("read fields of %s: %w", s.ID, err)
	}
	for _, tab := range [][]api.Field{fields.Primary, fields.Metadata} {
		for _, f := range tab {
			if !f.Mandatory() {
				continue
			}
			switch v := f.(type) {
			case api.InstanceLink, api.MediaLink:
				return true, nil
			case api.Nested:
				emb, next, err := EnterNested(ctx, src, v, stack)
				if err != nil {
					return false, err
				}
				linked, err := containsLink(ctx, src, emb, next)
				if err != nil || linked {
					return linked, err
				}
			}
		}
	}
	return false, nil
}
