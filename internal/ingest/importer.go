package ingest

import (
	"context"
	"fmt"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/rs/zerolog"

	"github.com/agentic-research/seedling/internal/repository"
)

// Importer writes catalog files into a repository.
type Importer struct {
	FS       billy.Filesystem
	Store    repository.Writer
	Selector string
}

func NewImporter(fs billy.Filesystem, store repository.Writer) *Importer {
	return &Importer{FS: fs, Store: store, Selector: DefaultSelector}
}

// Import loads every schema of the catalog at path and returns how many
// were written. The whole catalog is decoded before anything is written.
func (im *Importer) Import(ctx context.Context, path string) (int, error) {
	format, err := FormatOf(path)
	if err != nil {
		return 0, err
	}
	data, err := util.ReadFile(im.FS, path)
	if err != nil {
		return 0, fmt.Errorf("read catalog %s: %w", path, err)
	}
	entries, err := Decode(data, format, im.Selector)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}

	for i, e := range entries {
		if err := im.Store.PutSchema(ctx, e.Schema, e.Fields); err != nil {
			return i, fmt.Errorf("store schema %s: %w", e.Schema.ID, err)
		}
	}
	zerolog.Ctx(ctx).Info().Str("catalog", path).Int("schemas", len(entries)).Msg("catalog imported")
	return len(entries), nil
}
