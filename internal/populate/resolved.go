package populate

import (
	"github.com/RoaringBitmap/roaring"

	"github.com/agentic-research/seedling/internal/graph"
)

// Reserved ids for the two pending-default sentinels. Schema ids are
// interned from firstSchemaID upwards.
const (
	sentinelContent uint32 = iota
	sentinelMedia
	firstSchemaID
)

// resolvedSet tracks which tokens have a created instance. Tokens are
// interned to dense uint32 ids so dependency checks are bitmap operations.
type resolvedSet struct {
	ids  map[string]uint32
	next uint32
	bits *roaring.Bitmap
}

func newResolvedSet() *resolvedSet {
	return &resolvedSet{
		ids:  make(map[string]uint32),
		next: firstSchemaID,
		bits: roaring.New(),
	}
}

func (r *resolvedSet) intern(t graph.Token) uint32 {
	switch t.Kind {
	case graph.PendingContent:
		return sentinelContent
	case graph.PendingMedia:
		return sentinelMedia
	}
	if id, ok := r.ids[t.SchemaID]; ok {
		return id
	}
	id := r.next
	r.next++
	r.ids[t.SchemaID] = id
	return id
}

// bitmap interns every token of l into a dependency bitmap.
func (r *resolvedSet) bitmap(l *graph.DependencyList) *roaring.Bitmap {
	bm := roaring.New()
	for _, t := range l.Tokens() {
		bm.Add(r.intern(t))
	}
	return bm
}

func (r *resolvedSet) Add(t graph.Token) {
	r.bits.Add(r.intern(t))
}

func (r *resolvedSet) Contains(t graph.Token) bool {
	return r.bits.Contains(r.intern(t))
}

// ContainsAll reports whether every dependency in deps is resolved.
func (r *resolvedSet) ContainsAll(deps *roaring.Bitmap) bool {
	return deps.AndCardinality(r.bits) == deps.GetCardinality()
}

func (r *resolvedSet) Len() int {
	return int(r.bits.GetCardinality())
}
