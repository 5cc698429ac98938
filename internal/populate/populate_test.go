package populate

import (
	"bytes"
	"context"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/seedling/api"
	"github.com/agentic-research/seedling/internal/asset"
	"github.com/agentic-research/seedling/internal/graph"
	"github.com/agentic-research/seedling/internal/repository"
	"github.com/agentic-research/seedling/internal/synth"
)

const ns = "uuid:test"

func mandatory(name string) api.Base { return api.Base{Name: name, MinOccurs: 1} }

func text(name string) api.Field { return api.PlainText{Base: mandatory(name)} }

func link(name string, targets ...string) api.Field {
	return api.InstanceLink{Base: mandatory(name), AllowedTargets: targets}
}

func mediaLink(name string, targets ...string) api.Field {
	return api.MediaLink{Base: mandatory(name), AllowedTargets: targets}
}

func nested(name, embedded string) api.Field {
	return api.Nested{Base: mandatory(name), EmbeddedSchemaID: embedded}
}

type fixture struct {
	store *repository.MemoryStore
}

func newFixture() *fixture {
	return &fixture{store: repository.NewMemoryStore()}
}

func (f *fixture) content(id string, primary ...api.Field) *fixture {
	f.store.AddSchema(api.Schema{ID: id, Title: id, Purpose: api.PurposeContent, Namespace: ns, Scope: "schemas"},
		api.Fields{Primary: primary})
	return f
}

func (f *fixture) media(id string, metadata ...api.Field) *fixture {
	f.store.AddSchema(api.Schema{ID: id, Title: id, Purpose: api.PurposeMultimedia, Namespace: ns, Scope: "schemas"},
		api.Fields{Metadata: metadata})
	return f
}

func (f *fixture) embedded(id string, primary ...api.Field) *fixture {
	f.store.AddSchema(api.Schema{ID: id, Title: id, Purpose: api.PurposeEmbedded, Namespace: ns, Scope: "schemas"},
		api.Fields{Primary: primary})
	return f
}

func testAssets(t *testing.T) *asset.Provider {
	t.Helper()
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "dummy.jpg", []byte("JPEG"), 0o644))
	return asset.NewProvider(fs, "dummy.jpg")
}

func indexOf(order []string, id string) int {
	for i, v := range order {
		if v == id {
			return i
		}
	}
	return -1
}

func TestResolve_ChainResolvesWithinOnePass(t *testing.T) {
	f := newFixture().
		content("A", link("toB", "B")).
		content("B", link("toC", "C")).
		content("C", text("title"))

	res, err := New(f.store, Options{}).Resolve(context.Background(), "schemas", "out")
	require.NoError(t, err)

	// Reverse scan reaches C first, and B and A become resolvable in the same pass.
	assert.Equal(t, []string{"C", "B", "A"}, res.Order)
	assert.Equal(t, 1, res.Passes)
	assert.Equal(t, []string{"B"}, res.Dependencies["A"])
	assert.Equal(t, 3, res.Registry.Len())
}

func TestResolve_ChainNeedsOnePassPerLevel(t *testing.T) {
	f := newFixture().
		content("C", text("title")).
		content("B", link("toC", "C")).
		content("A", link("toB", "B"))

	res, err := New(f.store, Options{}).Resolve(context.Background(), "", "out")
	require.NoError(t, err)

	assert.Equal(t, []string{"C", "B", "A"}, res.Order)
	assert.Equal(t, 3, res.Passes)
}

func TestResolve_EveryDependencyComesFirst(t *testing.T) {
	f := newFixture().
		content("Article", link("author", "Person"), mediaLink("image", "Image"), nested("body", "Section")).
		embedded("Section", link("related", "Page")).
		content("Page", text("heading")).
		content("Person", link("employer", "Company")).
		content("Company", text("name")).
		media("Image", text("alt"))

	res, err := New(f.store, Options{Assets: testAssets(t)}).Resolve(context.Background(), "schemas", "out")
	require.NoError(t, err)

	require.Len(t, res.Order, 5, "embedded schemas are never instantiated")
	assert.NotContains(t, res.Order, "Section")
	assert.LessOrEqual(t, res.Passes, 5)

	for id, deps := range res.Dependencies {
		for _, dep := range deps {
			assert.Less(t, indexOf(res.Order, dep), indexOf(res.Order, id), "%s must come after %s", id, dep)
		}
	}
	assert.Equal(t, []string{"Person", "Image", "Page"}, res.Dependencies["Article"])

	seen := map[string]int{}
	for _, id := range res.Order {
		seen[id]++
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "%s emitted more than once", id)
	}
}

func TestResolve_FirstAllowedTargetIsTheDependency(t *testing.T) {
	f := newFixture().
		content("A", link("ref", "C", "B")).
		content("B", text("x")).
		content("C", text("y"))

	res, err := New(f.store, Options{}).Resolve(context.Background(), "", "out")
	require.NoError(t, err)
	assert.Equal(t, []string{"C"}, res.Dependencies["A"])

	instA, _ := res.Registry.Lookup("A")
	instC, _ := res.Registry.Lookup("C")
	inst, ok := f.store.Instance(instA)
	require.True(t, ok)
	assert.Contains(t, inst.Content, `xlink:href="`+instC+`"`)
}

func TestResolve_PendingDefaultResolvesAfterAdoption(t *testing.T) {
	// No link-free Content schema exists, so the content default is only
	// known once B resolves.
	f := newFixture().
		content("A", link("anything")).
		content("B", mediaLink("picture")).
		media("M")

	res, err := New(f.store, Options{Assets: testAssets(t)}).Resolve(context.Background(), "", "out")
	require.NoError(t, err)

	assert.Equal(t, []string{graph.PendingContentDefault.String()}, res.Dependencies["A"])
	assert.Equal(t, []string{"M"}, res.Dependencies["B"])
	assert.Equal(t, []string{"M", "B", "A"}, res.Order)

	instA, _ := res.Registry.Lookup("A")
	instB, _ := res.Registry.Lookup("B")
	a, _ := f.store.Instance(instA)
	b, _ := f.store.Instance(instB)
	assert.Contains(t, a.Content, `xlink:href="`+instB+`"`)
	assert.Contains(t, a.Content, `xlink:title="`+b.Title+`"`)
}

func TestResolve_PrePassDefaultsResolveFirst(t *testing.T) {
	f := newFixture().
		content("X", link("any"), mediaLink("pic")).
		content("A", text("title")).
		media("B", text("alt")).
		content("Y", link("x", "X"))

	p := New(f.store, Options{Assets: testAssets(t)})
	s := p.newSession("out")
	res, err := s.run(context.Background(), "")
	require.NoError(t, err)

	content, _ := s.defaults.Get(graph.CategoryContent)
	media, _ := s.defaults.Get(graph.CategoryMedia)
	assert.Equal(t, "A", content)
	assert.Equal(t, "B", media)
	assert.ElementsMatch(t, []string{"A", "B"}, res.Order[:2])
	assert.Equal(t, []string{"A", "B"}, res.Dependencies["X"])
	assert.Equal(t, "Y", res.Order[len(res.Order)-1])
}

func TestResolve_CycleFails(t *testing.T) {
	f := newFixture().
		content("X", link("y", "Y")).
		content("Y", link("x", "X")).
		content("Free", text("t"))

	_, err := New(f.store, Options{}).Resolve(context.Background(), "", "out")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnresolvableGraph)

	var ue *UnresolvedError
	require.ErrorAs(t, err, &ue)
	assert.ElementsMatch(t, []string{"X", "Y"}, ue.Remaining)

	// Instances created before the failure are kept.
	require.Len(t, f.store.Instances(), 1)
	assert.Equal(t, "Free", f.store.Instances()[0].SchemaID)
}

func TestResolve_MissingTargetFails(t *testing.T) {
	f := newFixture().
		content("A", link("ref", "Elsewhere")).
		content("B", text("t"))

	_, err := New(f.store, Options{}).Resolve(context.Background(), "", "out")
	var ue *UnresolvedError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, []string{"A"}, ue.Remaining)
}

func TestResolve_NoDefaultIsConfigError(t *testing.T) {
	f := newFixture().
		content("X", link("y", "Y")).
		content("Y", link("x", "X"))

	_, err := New(f.store, Options{}).Resolve(context.Background(), "", "out")
	assert.ErrorIs(t, err, graph.ErrNoDefaultTarget)
	assert.Empty(t, f.store.Instances())
}

func TestResolve_EmbeddedNeverBecomesDefault(t *testing.T) {
	f := newFixture().
		media("M").
		content("A", nested("block", "E"), link("any")).
		content("B", link("a", "A")).
		embedded("E", text("caption"))

	p := New(f.store, Options{Assets: testAssets(t)})
	s := p.newSession("out")
	_, err := s.run(context.Background(), "")

	// A waits for a content default that never arrives.
	var ue *UnresolvedError
	require.ErrorAs(t, err, &ue)
	assert.ElementsMatch(t, []string{"A", "B"}, ue.Remaining)
	assert.False(t, s.defaults.IsSet(graph.CategoryContent))
}

func TestResolve_InstancesAndTitles(t *testing.T) {
	f := newFixture().
		content("Page", text("heading"), api.Numeric{Base: api.Base{Name: "rank"}}).
		media("Image", text("alt"))

	res, err := New(f.store, Options{Prefix: "Seed", Assets: testAssets(t)}).Resolve(context.Background(), "", "generated")
	require.NoError(t, err)
	require.Equal(t, []string{"Image", "Page"}, res.Order)

	insts := f.store.Instances()
	require.Len(t, insts, 2)

	img := insts[0]
	assert.Equal(t, "Seed_Image_1", img.Title)
	assert.Equal(t, repository.KindMultimedia, img.Kind)
	assert.Equal(t, "generated", img.Folder)
	assert.Equal(t, asset.DefaultFilename, img.BinaryFilename)
	assert.Equal(t, asset.DefaultMultimediaType, img.MultimediaType)
	assert.Equal(t, int64(4), img.BinarySize)
	assert.Empty(t, img.Content)
	assert.Equal(t, `<Metadata xmlns="uuid:test"><alt>xxxxxxxx</alt></Metadata>`, img.Metadata)

	page := insts[1]
	assert.Equal(t, "Seed_Page_2", page.Title)
	assert.Equal(t, repository.KindContent, page.Kind)
	assert.Equal(t, `<Content xmlns="uuid:test"><heading>xxxxxxxx</heading><rank /></Content>`, page.Content)
	assert.Empty(t, page.Metadata)
}

func TestResolve_MultimediaWithoutAsset(t *testing.T) {
	f := newFixture().
		content("Page", text("heading")).
		media("Image")

	_, err := New(f.store, Options{}).Resolve(context.Background(), "", "out")
	assert.ErrorIs(t, err, asset.ErrAssetUnresolved)
}

func TestResolve_NestingCycle(t *testing.T) {
	f := newFixture().
		content("A", nested("loop", "E")).
		embedded("E", nested("again", "E"))

	_, err := New(f.store, Options{}).Resolve(context.Background(), "", "out")
	assert.ErrorIs(t, err, graph.ErrNestingCycle)
}

func TestResolve_ScopeFilter(t *testing.T) {
	f := newFixture().content("In", text("t"))
	f.store.AddSchema(api.Schema{ID: "Out", Title: "Out", Purpose: api.PurposeContent, Namespace: ns, Scope: "other"},
		api.Fields{Primary: []api.Field{text("t")}})

	res, err := New(f.store, Options{}).Resolve(context.Background(), "schemas", "out")
	require.NoError(t, err)
	assert.Equal(t, []string{"In"}, res.Order)
}

func TestResolve_SessionsAreIndependent(t *testing.T) {
	f := newFixture().
		content("A", link("b", "B")).
		content("B", text("t"))
	p := New(f.store, Options{})

	first, err := p.Resolve(context.Background(), "", "out")
	require.NoError(t, err)
	second, err := p.Resolve(context.Background(), "", "out")
	require.NoError(t, err)

	assert.Equal(t, first.Order, second.Order)
	insts := f.store.Instances()
	require.Len(t, insts, 4)
	assert.Equal(t, "NewInstance_B_1", insts[2].Title, "naming counter restarts per run")
}

func TestResolve_Cancelled(t *testing.T) {
	f := newFixture().content("A", text("t"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(f.store, Options{}).Resolve(ctx, "", "out")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolve_Logs(t *testing.T) {
	f := newFixture().content("A", text("t"))
	var buf bytes.Buffer
	ctx := zerolog.New(&buf).Level(zerolog.DebugLevel).WithContext(context.Background())

	_, err := New(f.store, Options{}).Resolve(ctx, "", "out")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"message":"instance created"`)
	assert.Contains(t, buf.String(), `"message":"resolution pass complete"`)
	assert.Contains(t, buf.String(), `"message":"default link target adopted"`)
}

func TestCreate_UnsupportedPurpose(t *testing.T) {
	f := newFixture()
	odd := api.Schema{ID: "odd", Title: "odd", Purpose: api.Purpose("Bundle"), Namespace: ns}
	f.store.AddSchema(odd, api.Fields{})
	s := New(f.store, Options{}).newSession("out")
	_, err := s.create(context.Background(), odd)

	assert.ErrorIs(t, err, ErrUnsupportedPurpose)
	var ue *UnsupportedPurposeError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "odd", ue.SchemaID)
}

func TestCreate_UnregisteredTargetIsOrderingViolation(t *testing.T) {
	f := newFixture().
		content("A", link("b", "B")).
		content("B", text("t"))
	s := New(f.store, Options{}).newSession("out")
	a, err := f.store.ReadSchema(context.Background(), "A")
	require.NoError(t, err)

	_, err = s.create(context.Background(), a)
	assert.ErrorIs(t, err, synth.ErrOrderingViolation)
	assert.Empty(t, f.store.Instances())
}

func TestPlan_LeavesRepositoryUntouched(t *testing.T) {
	f := newFixture().
		content("A", link("b", "B"), nested("body", "E")).
		content("B", text("t")).
		embedded("E", text("caption"))

	res, err := Plan(context.Background(), f.store, "schemas", Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, res.Order)
	assert.Empty(t, f.store.Instances())
}
