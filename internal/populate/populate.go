// Package populate drives a run: it orders the schemas of a scope by their
// link dependencies and creates one placeholder instance per schema.
package populate

import (
	"context"
	"fmt"

	"github.com/RoaringBitmap/roaring"
	"github.com/rs/zerolog"

	"github.com/agentic-research/seedling/api"
	"github.com/agentic-research/seedling/internal/asset"
	"github.com/agentic-research/seedling/internal/graph"
	"github.com/agentic-research/seedling/internal/registry"
	"github.com/agentic-research/seedling/internal/repository"
	"github.com/agentic-research/seedling/internal/synth"
)

const DefaultPrefix = "NewInstance"

// Assets supplies the binary attached to multimedia instances.
type Assets interface {
	Placeholder() (asset.Asset, error)
}

type Options struct {
	// Prefix starts every instance title. Empty means DefaultPrefix.
	Prefix string
	// Assets may be nil when the scope has no multimedia schemas.
	Assets Assets
}

// Result is what a run produced.
type Result struct {
	// Order lists schema ids in the order their instances were created.
	Order    []string
	Registry *registry.Registry
	// Dependencies holds the dependency list computed for every candidate.
	Dependencies map[string][]string
	Passes       int
}

// Populator creates instances in a repository.
type Populator struct {
	repo repository.Service
	opts Options
}

func New(repo repository.Service, opts Options) *Populator {
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	return &Populator{repo: repo, opts: opts}
}

// Resolve creates an instance in folder for every Content and Multimedia
// schema in scope, each after the instances it links to. Instances created
// before an error stay in the repository.
func (p *Populator) Resolve(ctx context.Context, scope, folder string) (*Result, error) {
	s := p.newSession(folder)
	return s.run(ctx, scope)
}

// Plan runs the same resolution against an in-memory copy of scope and
// leaves the repository untouched.
func Plan(ctx context.Context, repo repository.Service, scope string, opts Options) (*Result, error) {
	snap, err := repository.Snapshot(ctx, repo, scope)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", scope, err)
	}
	return New(snap, opts).Resolve(ctx, scope, "")
}

// session is the per-call state: default slots, resolved set, registry and
// the naming counter. Nothing survives between runs.
type session struct {
	src      *cachedSource
	opts     Options
	folder   string
	defaults *graph.Defaults
	resolver *graph.Resolver
	builder  *graph.Builder
	synth    *synth.Synthesizer
	resolved *resolvedSet
	registry *registry.Registry
	count    int
}

func (p *Populator) newSession(folder string) *session {
	src := newCachedSource(p.repo)
	defaults := &graph.Defaults{}
	reg := registry.New()
	return &session{
		src:      src,
		opts:     p.opts,
		folder:   folder,
		defaults: defaults,
		resolver: graph.NewResolver(src, defaults),
		builder:  graph.NewBuilder(src, defaults),
		synth:    synth.New(src, defaults, reg),
		resolved: newResolvedSet(),
		registry: reg,
		count:    1,
	}
}

type pending struct {
	schema api.Schema
	deps   *roaring.Bitmap
}

func (s *session) run(ctx context.Context, scope string) (*Result, error) {
	log := zerolog.Ctx(ctx)

	all, err := s.src.ListSchemas(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("list schemas in %s: %w", scope, err)
	}
	var candidates []api.Schema
	for _, sc := range all {
		if sc.Purpose.Instantiable() {
			candidates = append(candidates, sc)
		}
	}
	log.Debug().Str("scope", scope).Int("schemas", len(all)).Int("candidates", len(candidates)).Msg("schemas listed")

	if err := s.resolver.TrySetDefaults(ctx, candidates); err != nil {
		return nil, err
	}

	res := &Result{Registry: s.registry, Dependencies: make(map[string][]string, len(candidates))}
	remaining := make([]pending, 0, len(candidates))
	for _, sc := range candidates {
		deps, err := s.builder.DependenciesOf(ctx, sc)
		if err != nil {
			return nil, fmt.Errorf("dependencies of %s: %w", sc.ID, err)
		}
		res.Dependencies[sc.ID] = deps.Strings()
		remaining = append(remaining, pending{schema: sc, deps: s.resolved.bitmap(deps)})
	}

	maxPasses := len(candidates)
	for len(remaining) > 0 {
		if res.Passes >= maxPasses {
			return nil, unresolved(remaining, res.Passes)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		before := len(remaining)
		// Reverse scan so removal does not disturb the indices still to visit.
		for i := len(remaining) - 1; i >= 0; i-- {
			cur := remaining[i]
			if !s.resolved.ContainsAll(cur.deps) {
				continue
			}
			res.Order = append(res.Order, cur.schema.ID)
			s.resolved.Add(graph.SchemaToken(cur.schema.ID))

			instanceID, err := s.create(ctx, cur.schema)
			if err != nil {
				return nil, err
			}
			if tok, ok := s.resolver.CheckAndAdopt(ctx, cur.schema); ok {
				s.resolved.Add(tok)
			}
			if err := s.registry.Record(cur.schema.ID, instanceID); err != nil {
				return nil, err
			}
			remaining = append(remaining[:i], remaining[i+1:]...)
		}
		res.Passes++

		log.Debug().
			Int("pass", res.Passes).
			Int("resolved", before-len(remaining)).
			Int("remaining", len(remaining)).
			Msg("resolution pass complete")

		if len(remaining) == before {
			return nil, unresolved(remaining, res.Passes)
		}
	}
	return res, nil
}

func unresolved(remaining []pending, passes int) error {
	ids := make([]string, len(remaining))
	for i, r := range remaining {
		ids[i] = r.schema.ID
	}
	return &UnresolvedError{Remaining: ids, Passes: passes}
}

// create synthesizes the payload for sc and creates its instance.
func (s *session) create(ctx context.Context, sc api.Schema) (string, error) {
	req := repository.CreateRequest{
		Schema: sc,
		Folder: s.folder,
		Title:  fmt.Sprintf("%s_%s_%d", s.opts.Prefix, sc.Title, s.count),
	}

	fields, err := s.src.ReadFields(ctx, sc.ID)
	if err != nil {
		return "", fmt.Errorf("read fields of %s: %w", sc.ID, err)
	}
	metadata, err := s.synth.Metadata(ctx, sc.Namespace, fields.Metadata)
	if err != nil {
		return "", fmt.Errorf("synthesize metadata of %s: %w", sc.ID, err)
	}
	req.Metadata = metadata.XML()

	switch sc.Purpose {
	case api.PurposeContent:
		content, err := s.synth.Content(ctx, sc.Namespace, fields.Primary)
		if err != nil {
			return "", fmt.Errorf("synthesize content of %s: %w", sc.ID, err)
		}
		req.Kind = repository.KindContent
		req.Content = content.XML()
		return s.submit(ctx, req)

	case api.PurposeMultimedia:
		if s.opts.Assets == nil {
			return "", fmt.Errorf("schema %s: %w", sc.ID, asset.ErrAssetUnresolved)
		}
		a, err := s.opts.Assets.Placeholder()
		if err != nil {
			return "", fmt.Errorf("schema %s: %w", sc.ID, err)
		}
		rc, err := a.Open()
		if err != nil {
			return "", err
		}
		defer func() { _ = rc.Close() }()

		req.Kind = repository.KindMultimedia
		req.Binary = &repository.Binary{
			Filename:       a.Filename,
			MultimediaType: a.MultimediaType,
			Content:        rc,
		}
		return s.submit(ctx, req)

	default:
		return "", &UnsupportedPurposeError{SchemaID: sc.ID, Purpose: sc.Purpose}
	}
}

func (s *session) submit(ctx context.Context, req repository.CreateRequest) (string, error) {
	id, err := s.src.CreateInstance(ctx, req)
	if err != nil {
		return "", fmt.Errorf("create instance of %s: %w", req.Schema.ID, err)
	}
	s.count++
	zerolog.Ctx(ctx).Info().
		Str("schema", req.Schema.ID).
		Str("instance", id).
		Str("title", req.Title).
		Msg("instance created")
	return id, nil
}
