package ingest

import (
	"fmt"

	"github.com/ohler55/ojg/jp"
)

// Walker runs a selector against a decoded document.
type Walker interface {
	Query(root any, selector string) ([]Match, error)
}

// Match is a single selected value.
type Match interface {
	// Values returns the match as an object. Non-object matches come back
	// under the "value" key.
	Values() map[string]any
	// Context is the raw matched value.
	Context() any
}

// PathWalker implements Walker with JSONPath over generic Go values
// (map[string]any, []any and scalars), as produced by ojg and yaml.v3.
type PathWalker struct {
	cache map[string]jp.Expr
}

func NewPathWalker() *PathWalker {
	return &PathWalker{cache: make(map[string]jp.Expr)}
}

func (w *PathWalker) Query(root any, selector string) ([]Match, error) {
	x, ok := w.cache[selector]
	if !ok {
		var err error
		x, err = jp.ParseString(selector)
		if err != nil {
			return nil, fmt.Errorf("invalid jsonpath %q: %w", selector, err)
		}
		w.cache[selector] = x
	}

	results := x.Get(root)
	matches := make([]Match, len(results))
	for i, r := range results {
		matches[i] = pathMatch{value: r}
	}
	return matches, nil
}

type pathMatch struct {
	value any
}

func (m pathMatch) Values() map[string]any {
	if obj, ok := m.value.(map[string]any); ok {
		return obj
	}
	return map[string]any{"value": m.value}
}

func (m pathMatch) Context() any {
	return m.value
}
