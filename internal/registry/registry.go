// Package registry records which instance was created for each schema
// during one populate run.
package registry

import (
	"errors"
	"fmt"
)

var ErrDuplicate = errors.New("schema already has an instance")

// Entry is one schema -> instance mapping.
type Entry struct {
	SchemaID   string
	InstanceID string
}

// Registry is an append-only schema -> instance map.
type Registry struct {
	byID    map[string]string
	entries []Entry
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{byID: make(map[string]string)}
}

// Record stores the instance created for schemaID. Each schema can be
// recorded once.
func (r *Registry) Record(schemaID, instanceID string) error {
	if prev, ok := r.byID[schemaID]; ok {
		return fmt.Errorf("%w: %s -> %s", ErrDuplicate, schemaID, prev)
	}
	r.byID[schemaID] = instanceID
	r.entries = append(r.entries, Entry{SchemaID: schemaID, InstanceID: instanceID})
	return nil
}

// Lookup returns the instance created for schemaID.
func (r *Registry) Lookup(schemaID string) (string, bool) {
	id, ok := r.byID[schemaID]
	return id, ok
}

func (r *Registry) Len() int {
	return len(r.entries)
}

// Entries returns a copy of all mappings in recording order.
func (r *Registry) Entries() []Entry {
	return append([]Entry(nil), r.entries...)
}
