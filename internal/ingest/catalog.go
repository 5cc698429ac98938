// Package ingest loads schema catalogs (JSON or YAML) into a repository.
package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ohler55/ojg/oj"
	"gopkg.in/yaml.v3"

	"github.com/agentic-research/seedling/api"
)

// DefaultSelector picks the schema entries of a catalog document.
const DefaultSelector = "$.schemas[*]"

var ErrInvalidCatalog = errors.New("invalid schema catalog")

// Format is a catalog encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf derives the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: unsupported file type %q", ErrInvalidCatalog, filepath.Ext(path))
	}
}

// Entry is one schema read from a catalog.
type Entry struct {
	Schema api.Schema
	Fields api.Fields
}

// Decode parses data and returns the entries found by selector.
func Decode(data []byte, format Format, selector string) ([]Entry, error) {
	root, err := parse(data, format)
	if err != nil {
		return nil, err
	}
	if selector == "" {
		selector = DefaultSelector
	}
	matches, err := NewPathWalker().Query(root, selector)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(matches))
	seen := make(map[string]int, len(matches))
	for i, m := range matches {
		e, err := decodeEntry(m.Values())
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrInvalidCatalog, i, err)
		}
		if prev, dup := seen[e.Schema.ID]; dup {
			return nil, fmt.Errorf("%w: entry %d: id %q already used by entry %d", ErrInvalidCatalog, i, e.Schema.ID, prev)
		}
		seen[e.Schema.ID] = i
		entries = append(entries, e)
	}
	return entries, nil
}

func parse(data []byte, format Format) (any, error) {
	switch format {
	case FormatJSON:
		root, err := oj.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%w: parse json: %v", ErrInvalidCatalog, err)
		}
		return root, nil
	case FormatYAML:
		var root any
		if err := yaml.Unmarshal(data, &root); err != nil {
			return nil, fmt.Errorf("%w: parse yaml: %v", ErrInvalidCatalog, err)
		}
		return root, nil
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrInvalidCatalog, format)
	}
}

func decodeEntry(v map[string]any) (Entry, error) {
	var e Entry
	var err error
	if e.Schema.ID, err = requiredString(v, "id"); err != nil {
		return Entry{}, err
	}
	purpose, err := requiredString(v, "purpose")
	if err != nil {
		return Entry{}, fmt.Errorf("schema %s: %w", e.Schema.ID, err)
	}
	e.Schema.Purpose = api.Purpose(purpose)
	e.Schema.Title = optionalString(v, "title", e.Schema.ID)
	e.Schema.Namespace = optionalString(v, "namespace", "")
	e.Schema.Scope = optionalString(v, "scope", "")

	if e.Fields.Primary, err = decodeFields(v["fields"]); err != nil {
		return Entry{}, fmt.Errorf("schema %s: fields: %w", e.Schema.ID, err)
	}
	if e.Fields.Metadata, err = decodeFields(v["metadata"]); err != nil {
		return Entry{}, fmt.Errorf("schema %s: metadata: %w", e.Schema.ID, err)
	}
	return e, nil
}

func decodeFields(v any) ([]api.Field, error) {
	if v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a list, got %T", v)
	}
	out := make([]api.Field, 0, len(list))
	for i, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("field %d: expected an object, got %T", i, item)
		}
		spec, err := decodeSpec(obj)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}
		out = append(out, spec.Field())
	}
	return out, nil
}

func decodeSpec(obj map[string]any) (api.FieldSpec, error) {
	var s api.FieldSpec
	var err error
	if s.Name, err = requiredString(obj, "name"); err != nil {
		return s, err
	}
	if s.Kind, err = requiredString(obj, "kind"); err != nil {
		return s, fmt.Errorf("%s: %w", s.Name, err)
	}
	if s.MinOccurs, err = optionalInt(obj, "min_occurs"); err != nil {
		return s, fmt.Errorf("%s: %w", s.Name, err)
	}
	if s.AllowedTargets, err = optionalStrings(obj, "allowed_targets"); err != nil {
		return s, fmt.Errorf("%s: %w", s.Name, err)
	}
	s.Embedded = optionalString(obj, "embedded", "")
	if s.Kind == api.KindEmbedded && s.Embedded == "" {
		return s, fmt.Errorf("%s: embedded field without schema id", s.Name)
	}
	return s, nil
}

func requiredString(obj map[string]any, key string) (string, error) {
	s, ok := obj[key].(string)
	if !ok || s == "" {
		return "", fmt.Errorf("missing %q", key)
	}
	return s, nil
}

func optionalString(obj map[string]any, key, def string) string {
	if s, ok := obj[key].(string); ok && s != "" {
		return s
	}
	return def
}

func optionalInt(obj map[string]any, key string) (int, error) {
	switch n := obj[key].(type) {
	case nil:
		return 0, nil
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("%q must be a whole number", key)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("%q must be a number, got %T", key, n)
	}
}

func optionalStrings(obj map[string]any, key string) ([]string, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%q must be a list", key)
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%q must contain strings, got %T", key, item)
		}
		out = append(out, s)
	}
	return out, nil
}
