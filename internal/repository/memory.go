package repository

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/agentic-research/seedling/api"
)

// MemoryStore is an in-memory Service. Schemas list in insertion order.
type MemoryStore struct {
	mu        sync.RWMutex
	schemas   map[string]api.Schema
	fields    map[string]api.Fields
	order     []string
	instances map[string]*Instance
	created   []string
	nextID    int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		schemas:   make(map[string]api.Schema),
		fields:    make(map[string]api.Fields),
		instances: make(map[string]*Instance),
	}
}

// PutSchema adds or replaces a schema. Replacing keeps the original position.
func (s *MemoryStore) PutSchema(_ context.Context, sc api.Schema, fields api.Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.schemas[sc.ID]; !ok {
		s.order = append(s.order, sc.ID)
	}
	s.schemas[sc.ID] = sc
	s.fields[sc.ID] = fields
	return nil
}

// AddSchema is PutSchema without a context, for fixtures.
func (s *MemoryStore) AddSchema(sc api.Schema, fields api.Fields) {
	_ = s.PutSchema(context.Background(), sc, fields)
}

func (s *MemoryStore) ListSchemas(ctx context.Context, scope string) ([]api.Schema, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []api.Schema
	for _, id := range s.order {
		sc := s.schemas[id]
		if InScope(sc.Scope, scope) {
			out = append(out, sc)
		}
	}
	return out, nil
}

func (s *MemoryStore) ReadFields(ctx context.Context, schemaID string) (api.Fields, error) {
	if err := ctx.Err(); err != nil {
		return api.Fields{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.fields[schemaID]
	if !ok {
		return api.Fields{}, fmt.Errorf("schema %s: %w", schemaID, ErrNotFound)
	}
	return f, nil
}

func (s *MemoryStore) ReadSchema(ctx context.Context, schemaID string) (api.Schema, error) {
	if err := ctx.Err(); err != nil {
		return api.Schema{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.schemas[schemaID]
	if !ok {
		return api.Schema{}, fmt.Errorf("schema %s: %w", schemaID, ErrNotFound)
	}
	return sc, nil
}

func (s *MemoryStore) CreateInstance(ctx context.Context, req CreateRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	inst := &Instance{
		SchemaID: req.Schema.ID,
		Folder:   req.Folder,
		Title:    req.Title,
		Kind:     req.Kind,
		Content:  req.Content,
		Metadata: req.Metadata,
	}
	if req.Binary != nil {
		n, err := io.Copy(io.Discard, req.Binary.Content)
		if err != nil {
			return "", fmt.Errorf("read binary for %s: %w", req.Title, err)
		}
		inst.BinaryFilename = req.Binary.Filename
		inst.MultimediaType = req.Binary.MultimediaType
		inst.BinarySize = n
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	inst.ID = fmt.Sprintf("mem:%d", s.nextID)
	s.instances[inst.ID] = inst
	s.created = append(s.created, inst.ID)
	return inst.ID, nil
}

func (s *MemoryStore) ReadInstanceTitle(ctx context.Context, instanceID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	inst, ok := s.instances[instanceID]
	if !ok {
		return "", fmt.Errorf("instance %s: %w", instanceID, ErrNotFound)
	}
	return inst.Title, nil
}

// Instance returns a copy of a created instance.
func (s *MemoryStore) Instance(id string) (Instance, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inst, ok := s.instances[id]
	if !ok {
		return Instance{}, false
	}
	return *inst, true
}

// Instances returns every created instance in creation order.
func (s *MemoryStore) Instances() []Instance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Instance, 0, len(s.created))
	for _, id := range s.created {
		out = append(out, *s.instances[id])
	}
	return out
}

var (
	_ Service = (*MemoryStore)(nil)
	_ Writer  = (*MemoryStore)(nil)
)
