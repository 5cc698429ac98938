package repository

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/agentic-research/seedling/api"
)

var ErrNotFound = errors.New("item not found")

// InstanceKind mirrors the purpose-specific shape of a created instance.
type InstanceKind string

const (
	KindContent    InstanceKind = "content"
	KindMultimedia InstanceKind = "multimedia"
)

// Binary is the attachment carried by a multimedia instance.
type Binary struct {
	Filename       string
	MultimediaType string
	Content        io.Reader
}

// CreateRequest describes a new instance. Content is empty for multimedia
// instances; Metadata is empty when the schema has no metadata fields.
type CreateRequest struct {
	Schema   api.Schema
	Folder   string
	Title    string
	Kind     InstanceKind
	Content  string
	Metadata string
	Binary   *Binary
}

// Instance is a created item as stored by the repository.
type Instance struct {
	ID             string
	SchemaID       string
	Folder         string
	Title          string
	Kind           InstanceKind
	Content        string
	Metadata       string
	BinaryFilename string
	MultimediaType string
	BinarySize     int64
}

// Service is the repository boundary the populator talks to.
// This allows swapping the backend (Memory -> SQLite -> remote).
type Service interface {
	ListSchemas(ctx context.Context, scope string) ([]api.Schema, error)
	ReadFields(ctx context.Context, schemaID string) (api.Fields, error)
	ReadSchema(ctx context.Context, schemaID string) (api.Schema, error)
	CreateInstance(ctx context.Context, req CreateRequest) (string, error)
	ReadInstanceTitle(ctx context.Context, instanceID string) (string, error)
}

// Writer accepts schema definitions, used by catalog import.
type Writer interface {
	PutSchema(ctx context.Context, s api.Schema, fields api.Fields) error
}

// InScope reports whether a schema scope lies inside scope, recursively.
// The empty scope matches everything.
func InScope(schemaScope, scope string) bool {
	scope = strings.Trim(scope, "/")
	schemaScope = strings.Trim(schemaScope, "/")
	if scope == "" || schemaScope == scope {
		return true
	}
	return strings.HasPrefix(schemaScope, scope+"/")
}
