package populate

import (
	"context"

	"github.com/agentic-research/seedling/api"
	"github.com/agentic-research/seedling/internal/repository"
)

// cachedSource memoizes schema and field reads for one run. Schemas are
// immutable while a run is in progress, and the pre-pass, the graph builder
// and the synthesizer all walk the same definitions.
type cachedSource struct {
	repository.Service
	schemas map[string]api.Schema
	fields  map[string]api.Fields
}

func newCachedSource(svc repository.Service) *cachedSource {
	return &cachedSource{
		Service: svc,
		schemas: make(map[string]api.Schema),
		fields:  make(map[string]api.Fields),
	}
}

func (c *cachedSource) ReadSchema(ctx context.Context, schemaID string) (api.Schema, error) {
	if s, ok := c.schemas[schemaID]; ok {
		return s, nil
	}
	s, err := c.Service.ReadSchema(ctx, schemaID)
	if err != nil {
		return api.Schema{}, err
	}
	c.schemas[schemaID] = s
	return s, nil
}

func (c *cachedSource) ReadFields(ctx context.Context, schemaID string) (api.Fields, error) {
	if f, ok := c.fields[schemaID]; ok {
		return f, nil
	}
	f, err := c.Service.ReadFields(ctx, schemaID)
	if err != nil {
		return api.Fields{}, err
	}
	c.fields[schemaID] = f
	return f, nil
}
