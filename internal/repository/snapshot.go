package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/agentic-research/seedling/api"
)

// Snapshot copies the schemas of scope, plus every embedded schema they
// reach, into a fresh MemoryStore. Instances are not copied; the result is
// a sandbox for dry runs.
func Snapshot(ctx context.Context, src Service, scope string) (*MemoryStore, error) {
	schemas, err := src.ListSchemas(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("list schemas: %w", err)
	}

	dst := NewMemoryStore()
	pending := make([]string, 0, len(schemas))
	seen := make(map[string]bool, len(schemas))
	for _, sc := range schemas {
		pending = append(pending, sc.ID)
		seen[sc.ID] = true
	}

	for len(pending) > 0 {
		id := pending[0]
		pending = pending[1:]

		sc, err := src.ReadSchema(ctx, id)
		if err != nil {
			return nil, err
		}
		fields, err := src.ReadFields(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := dst.PutSchema(ctx, sc, fields); err != nil {
			return nil, err
		}

		for _, tab := range [][]api.Field{fields.Primary, fields.Metadata} {
			for _, f := range tab {
				n, ok := f.(api.Nested)
				if !ok || seen[n.EmbeddedSchemaID] {
					continue
				}
				seen[n.EmbeddedSchemaID] = true
				if _, err := src.ReadSchema(ctx, n.EmbeddedSchemaID); errors.Is(err, ErrNotFound) {
					// missing embedded schemas stay missing; the run reports them
					continue
				}
				pending = append(pending, n.EmbeddedSchemaID)
			}
		}
	}
	return dst, nil
}
