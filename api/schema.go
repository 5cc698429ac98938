package api

import "fmt"

// Purpose classifies a schema.
type Purpose string

const (
	// PurposeContent schemas are directly instantiable and carry primary and metadata fields.
	PurposeContent Purpose = "Content"
	// PurposeMultimedia schemas are directly instantiable, metadata plus a binary.
	PurposeMultimedia Purpose = "Multimedia"
	// PurposeEmbedded schemas are only used from inside another schema's nested field.
	PurposeEmbedded Purpose = "Embedded"
)

// Instantiable reports whether instances are created directly for this purpose.
func (p Purpose) Instantiable() bool {
	return p == PurposeContent || p == PurposeMultimedia
}

// Schema is an immutable structural definition owned by the repository.
type Schema struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Purpose   Purpose `json:"purpose"`
	Namespace string  `json:"namespace"`
	// Scope is the slash separated container path the schema lives in.
	Scope string `json:"scope,omitempty"`
}

// Fields is the pair of field tabs returned for a schema.
type Fields struct {
	Primary  []Field
	Metadata []Field
}

// Field is a closed set of field definitions. Only the types in this
// package implement it; consumers dispatch with a type switch.
type Field interface {
	FieldName() string
	Mandatory() bool
	isField()
}

// Base carries the attributes every field kind shares.
type Base struct {
	Name      string
	MinOccurs int
}

// FieldName returns the element name used for the field.
func (b Base) FieldName() string { return b.Name }

// Mandatory reports whether the field must be populated (MinOccurs > 0).
func (b Base) Mandatory() bool { return b.MinOccurs > 0 }

// PlainText is a single line text field.
type PlainText struct{ Base }

// Numeric is a number field.
type Numeric struct{ Base }

// Date is a date/time field.
type Date struct{ Base }

// ExternalLink is a URL field.
type ExternalLink struct{ Base }

// InstanceLink references another content instance.
// An empty AllowedTargets list means any content schema is acceptable.
type InstanceLink struct {
	Base
	AllowedTargets []string
}

// MediaLink references a multimedia instance.
// An empty AllowedTargets list means any multimedia schema is acceptable.
type MediaLink struct {
	Base
	AllowedTargets []string
}

// Nested embeds the fields of an Embedded schema.
type Nested struct {
	Base
	EmbeddedSchemaID string
}

// Unknown is a field kind with no mapping; it never carries a value.
type Unknown struct {
	Base
	Kind string
}

func (PlainText) isField()    {}
func (Numeric) isField()      {}
func (Date) isField()         {}
func (ExternalLink) isField() {}
func (InstanceLink) isField() {}
func (MediaLink) isField()    {}
func (Nested) isField()       {}
func (Unknown) isField()      {}

// FirstTarget returns the first allowed target schema, if any.
func (l InstanceLink) FirstTarget() (string, bool) { return first(l.AllowedTargets) }

// FirstTarget returns the first allowed target schema, if any.
func (l MediaLink) FirstTarget() (string, bool) { return first(l.AllowedTargets) }

func first(ids []string) (string, bool) {
	if len(ids) == 0 {
		return "", false
	}
	return ids[0], true
}

// Field kind names used by catalogs and storage.
const (
	KindText         = "text"
	KindNumber       = "number"
	KindDate         = "date"
	KindExternalLink = "external_link"
	KindInstanceLink = "component_link"
	KindMediaLink    = "multimedia_link"
	KindEmbedded     = "embedded"
)

// FieldSpec is the serialized form of a Field.
type FieldSpec struct {
	Name           string   `json:"name" yaml:"name"`
	Kind           string   `json:"kind" yaml:"kind"`
	MinOccurs      int      `json:"min_occurs" yaml:"min_occurs"`
	AllowedTargets []string `json:"allowed_targets,omitempty" yaml:"allowed_targets,omitempty"`
	Embedded       string   `json:"embedded,omitempty" yaml:"embedded,omitempty"`
}

// Field converts the spec into its typed variant. Unrecognized kinds
// become Unknown rather than failing.
func (s FieldSpec) Field() Field {
	b := Base{Name: s.Name, MinOccurs: s.MinOccurs}
	switch s.Kind {
	case KindText:
		return PlainText{b}
	case KindNumber:
		return Numeric{b}
	case KindDate:
		return Date{b}
	case KindExternalLink:
		return ExternalLink{b}
	case KindInstanceLink:
		return InstanceLink{Base: b, AllowedTargets: s.AllowedTargets}
	case KindMediaLink:
		return MediaLink{Base: b, AllowedTargets: s.AllowedTargets}
	case KindEmbedded:
		return Nested{Base: b, EmbeddedSchemaID: s.Embedded}
	default:
		return Unknown{Base: b, Kind: s.Kind}
	}
}

// SpecOf returns the serialized form of f.
func SpecOf(f Field) FieldSpec {
	switch v := f.(type) {
	case PlainText:
		return FieldSpec{Name: v.Name, Kind: KindText, MinOccurs: v.MinOccurs}
	case Numeric:
		return FieldSpec{Name: v.Name, Kind: KindNumber, MinOccurs: v.MinOccurs}
	case Date:
		return FieldSpec{Name: v.Name, Kind: KindDate, MinOccurs: v.MinOccurs}
	case ExternalLink:
		return FieldSpec{Name: v.Name, Kind: KindExternalLink, MinOccurs: v.MinOccurs}
	case InstanceLink:
		return FieldSpec{Name: v.Name, Kind: KindInstanceLink, MinOccurs: v.MinOccurs, AllowedTargets: v.AllowedTargets}
	case MediaLink:
		return FieldSpec{Name: v.Name, Kind: KindMediaLink, MinOccurs: v.MinOccurs, AllowedTargets: v.AllowedTargets}
	case Nested:
		return FieldSpec{Name: v.Name, Kind: KindEmbedded, MinOccurs: v.MinOccurs, Embedded: v.EmbeddedSchemaID}
	case Unknown:
		return FieldSpec{Name: v.Name, Kind: v.Kind, MinOccurs: v.MinOccurs}
	default:
		panic(fmt.Sprintf("api: unhandled field type %T", f))
	}
}

// Specs converts a field list to its serialized form.
func Specs(fields []Field) []FieldSpec {
	out := make([]FieldSpec, len(fields))
	for i, f := range fields {
		out[i] = SpecOf(f)
	}
	return out
}

// FromSpecs converts serialized fields back to typed variants.
func FromSpecs(specs []FieldSpec) []Field {
	out := make([]Field, len(specs))
	for i, s := range specs {
		out[i] = s.Field()
	}
	return out
}
