// Package linter checks the schemas of a scope for problems that would
// stop a populate run, without creating anything.
package linter

import (
	"context"
	"errors"
	"fmt"

	"github.com/agentic-research/seedling/api"
	"github.com/agentic-research/seedling/internal/graph"
	"github.com/agentic-research/seedling/internal/repository"
)

type Severity uint8

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

type Diagnostic struct {
	Severity Severity
	// SchemaID is empty for findings about the scope as a whole.
	SchemaID string
	// Field is the slash separated path through nested fields, empty for
	// schema-level findings.
	Field   string
	Message string
}

func (d Diagnostic) String() string {
	if d.SchemaID == "" {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	if d.Field == "" {
		return fmt.Sprintf("%s: %s: %s", d.Severity, d.SchemaID, d.Message)
	}
	return fmt.Sprintf("%s: %s: field %s: %s", d.Severity, d.SchemaID, d.Field, d.Message)
}

// HasErrors reports whether any diagnostic is an error.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Lint checks every Content and Multimedia schema in scope.
//
// Errors: a mandatory link whose first allowed target is missing, outside
// the scope or not instantiable; a mandatory nested field whose embedded
// schema is missing or nests itself; a scope with no link-free schema to
// act as default target. Warnings: unknown field kinds.
func Lint(ctx context.Context, src repository.Service, scope string) ([]Diagnostic, error) {
	schemas, err := src.ListSchemas(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("list schemas: %w", err)
	}

	l := &linter{src: src, inScope: make(map[string]bool)}
	var candidates []api.Schema
	for _, s := range schemas {
		if s.Purpose.Instantiable() {
			candidates = append(candidates, s)
			l.inScope[s.ID] = true
		}
	}

	for _, s := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fields, err := src.ReadFields(ctx, s.ID)
		if err != nil {
			return nil, fmt.Errorf("read fields of %s: %w", s.ID, err)
		}
		l.fields(ctx, s.ID, "", fields, []string{s.ID})
	}

	l.defaults(ctx, candidates)
	return l.diags, nil
}

type linter struct {
	src     repository.Service
	inScope map[string]bool
	diags   []Diagnostic
}

func (l *linter) report(sev Severity, schemaID, field, format string, args ...any) {
	l.diags = append(l.diags, Diagnostic{
		Severity: sev,
		SchemaID: schemaID,
		Field:    field,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (l *linter) fields(ctx context.Context, schemaID, prefix string, fields api.Fields, stack []string) {
	for _, tab := range [][]api.Field{fields.Primary, fields.Metadata} {
		for _, f := range tab {
			path := f.FieldName()
			if prefix != "" {
				path = prefix + "/" + path
			}
			if u, ok := f.(api.Unknown); ok {
				l.report(SeverityWarning, schemaID, path, "unknown field kind %q is left empty", u.Kind)
				continue
			}
			if !f.Mandatory() {
				continue
			}
			switch v := f.(type) {
			case api.InstanceLink:
				if id, ok := v.FirstTarget(); ok {
					l.target(ctx, schemaID, path, id)
				}
			case api.MediaLink:
				if id, ok := v.FirstTarget(); ok {
					l.target(ctx, schemaID, path, id)
				}
			case api.Nested:
				l.nested(ctx, schemaID, path, v, stack)
			}
		}
	}
}

func (l *linter) target(ctx context.Context, schemaID, path, targetID string) {
	t, err := l.src.ReadSchema(ctx, targetID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		l.report(SeverityError, schemaID, path, "link target %s does not exist", targetID)
	case err != nil:
		l.report(SeverityError, schemaID, path, "link target %s: %v", targetID, err)
	case !t.Purpose.Instantiable():
		l.report(SeverityError, schemaID, path, "link target %s is %s and never gets an instance", targetID, t.Purpose)
	case !l.inScope[targetID]:
		l.report(SeverityError, schemaID, path, "link target %s (scope %q) is outside the populated scope", targetID, t.Scope)
	}
}

func (l *linter) nested(ctx context.Context, schemaID, path string, n api.Nested, stack []string) {
	emb, next, err := graph.EnterNested(ctx, l.src, n, stack)
	if err != nil {
		if errors.Is(err, graph.ErrNestingCycle) {
			l.report(SeverityError, schemaID, path, "%v", err)
		} else {
			l.report(SeverityError, schemaID, path, "embedded schema %s is unreadable", n.EmbeddedSchemaID)
		}
		return
	}
	fields, err := l.src.ReadFields(ctx, emb.ID)
	if err != nil {
		l.report(SeverityError, schemaID, path, "fields of embedded schema %s are unreadable", emb.ID)
		return
	}
	l.fields(ctx, schemaID, path, fields, next)
}

// defaults reports a scope where neither slot could be chosen up front.
// Nesting problems are already reported per field, so schemas whose scan
// fails are skipped here.
func (l *linter) defaults(ctx context.Context, candidates []api.Schema) {
	if len(candidates) == 0 {
		return
	}
	for _, s := range candidates {
		linked, err := graph.ContainsLink(ctx, l.src, s)
		if err == nil && !linked {
			return
		}
	}
	l.report(SeverityError, "", "", "%v", graph.ErrNoDefaultTarget)
}
