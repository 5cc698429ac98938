package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/agentic-research/seedling/api"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Service on a single SQLite file.
// Field tabs are stored as JSON arrays of api.FieldSpec.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS schemas (
	id TEXT PRIMARY KEY,
	seq INTEGER NOT NULL,
	title TEXT NOT NULL,
	purpose TEXT NOT NULL,
	namespace TEXT NOT NULL,
	scope TEXT NOT NULL,
	fields JSON NOT NULL,
	metadata_fields JSON NOT NULL
);
CREATE TABLE IF NOT EXISTS instances (
	id TEXT PRIMARY KEY,
	schema_id TEXT NOT NULL,
	folder TEXT NOT NULL,
	title TEXT NOT NULL,
	kind TEXT NOT NULL,
	content TEXT NOT NULL,
	metadata TEXT NOT NULL,
	binary_name TEXT,
	multimedia_type TEXT,
	binary_data BLOB,
	created INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_instances_folder ON instances(folder, created);
`

// OpenSQLiteStore opens (creating if needed) the repository database.
func OpenSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// PutSchema inserts or replaces a schema definition. A replaced schema
// keeps its original listing position.
func (s *SQLiteStore) PutSchema(ctx context.Context, sc api.Schema, fields api.Fields) error {
	primary, err := json.Marshal(api.Specs(fields.Primary))
	if err != nil {
		return fmt.Errorf("encode fields for %s: %w", sc.ID, err)
	}
	metadata, err := json.Marshal(api.Specs(fields.Metadata))
	if err != nil {
		return fmt.Errorf("encode metadata fields for %s: %w", sc.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO schemas (id, seq, title, purpose, namespace, scope, fields, metadata_fields)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM schemas), ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			purpose = excluded.purpose,
			namespace = excluded.namespace,
			scope = excluded.scope,
			fields = excluded.fields,
			metadata_fields = excluded.metadata_fields
	`, sc.ID, sc.Title, string(sc.Purpose), sc.Namespace, sc.Scope, string(primary), string(metadata))
	if err != nil {
		return fmt.Errorf("put schema %s: %w", sc.ID, err)
	}
	return nil
}

func (s *SQLiteStore) ListSchemas(ctx context.Context, scope string) ([]api.Schema, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, title, purpose, namespace, scope FROM schemas ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query schemas: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []api.Schema
	for rows.Next() {
		var sc api.Schema
		var purpose string
		if err := rows.Scan(&sc.ID, &sc.Title, &purpose, &sc.Namespace, &sc.Scope); err != nil {
			return nil, fmt.Errorf("scan schema: %w", err)
		}
		sc.Purpose = api.Purpose(purpose)
		if InScope(sc.Scope, scope) {
			out = append(out, sc)
		}
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ReadSchema(ctx context.Context, schemaID string) (api.Schema, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc := api.Schema{ID: schemaID}
	var purpose string
	err := s.db.QueryRowContext(ctx, `SELECT title, purpose, namespace, scope FROM schemas WHERE id = ?`, schemaID).
		Scan(&sc.Title, &purpose, &sc.Namespace, &sc.Scope)
	if errors.Is(err, sql.ErrNoRows) {
		return api.Schema{}, fmt.Errorf("schema %s: %w", schemaID, ErrNotFound)
	}
	if err != nil {
		return api.Schema{}, fmt.Errorf("read schema %s: %w", schemaID, err)
	}
	sc.Purpose = api.Purpose(purpose)
	return sc, nil
}

func (s *SQLiteStore) ReadFields(ctx context.Context, schemaID string) (api.Fields, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rawPrimary, rawMetadata string
	err := s.db.QueryRowContext(ctx, `SELECT fields, metadata_fields FROM schemas WHERE id = ?`, schemaID).
		Scan(&rawPrimary, &rawMetadata)
	if errors.Is(err, sql.ErrNoRows) {
		return api.Fields{}, fmt.Errorf("schema %s: %w", schemaID, ErrNotFound)
	}
	if err != nil {
		return api.Fields{}, fmt.Errorf("read fields %s: %w", schemaID, err)
	}

	var primary, metadata []api.FieldSpec
	if err := json.Unmarshal([]byte(rawPrimary), &primary); err != nil {
		return api.Fields{}, fmt.Errorf("parse fields %s: %w", schemaID, err)
	}
	if err := json.Unmarshal([]byte(rawMetadata), &metadata); err != nil {
		return api.Fields{}, fmt.Errorf("parse metadata fields %s: %w", schemaID, err)
	}
	return api.Fields{Primary: api.FromSpecs(primary), Metadata: api.FromSpecs(metadata)}, nil
}

func (s *SQLiteStore) CreateInstance(ctx context.Context, req CreateRequest) (string, error) {
	var name, mmType *string
	var blob []byte
	if req.Binary != nil {
		data, err := io.ReadAll(req.Binary.Content)
		if err != nil {
			return "", fmt.Errorf("read binary for %s: %w", req.Title, err)
		}
		blob = data
		name = &req.Binary.Filename
		mmType = &req.Binary.MultimediaType
	}

	id := "inst:" + uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO instances (id, schema_id, folder, title, kind, content, metadata, binary_name, multimedia_type, binary_data, created)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, req.Schema.ID, req.Folder, req.Title, string(req.Kind), req.Content, req.Metadata, name, mmType, blob, time.Now().UnixNano())
	if err != nil {
		return "", fmt.Errorf("insert instance %s: %w", req.Title, err)
	}
	return id, nil
}

func (s *SQLiteStore) ReadInstanceTitle(ctx context.Context, instanceID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var title string
	err := s.db.QueryRowContext(ctx, `SELECT title FROM instances WHERE id = ?`, instanceID).Scan(&title)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("instance %s: %w", instanceID, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("read instance %s: %w", instanceID, err)
	}
	return title, nil
}

// ListInstances returns instances in a folder in creation order.
// An empty folder lists every instance.
func (s *SQLiteStore) ListInstances(ctx context.Context, folder string) ([]Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, schema_id, folder, title, kind, content, metadata,
		       COALESCE(binary_name, ''), COALESCE(multimedia_type, ''), COALESCE(LENGTH(binary_data), 0)
		FROM instances
		WHERE ? = '' OR folder = ?
		ORDER BY created, rowid
	`, folder, folder)
	if err != nil {
		return nil, fmt.Errorf("query instances: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Instance
	for rows.Next() {
		var inst Instance
		var kind string
		if err := rows.Scan(&inst.ID, &inst.SchemaID, &inst.Folder, &inst.Title, &kind,
			&inst.Content, &inst.Metadata, &inst.BinaryFilename, &inst.MultimediaType, &inst.BinarySize); err != nil {
			return nil, fmt.Errorf("scan instance: %w", err)
		}
		inst.Kind = InstanceKind(kind)
		out = append(out, inst)
	}
	return out, rows.Err()
}

// Interface compliance
var (
	_ Service = (*SQLiteStore)(nil)
	_ Writer  = (*SQLiteStore)(nil)
)
