// Package bundle models the content-entity side of a component: a bundle's
// typed field schema, its rendering configuration, and the provenance flag
// that records whether a field was derived from a component manifest or
// added by hand.
package bundle

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/zeebo/blake3"
)

// FieldType identifies a field storage type in the record schema.
type FieldType string

const (
	FieldText            FieldType = "text"
	FieldTextLong        FieldType = "text_long"
	FieldString          FieldType = "string"
	FieldStringLong      FieldType = "string_long"
	FieldInteger         FieldType = "integer"
	FieldDecimal         FieldType = "decimal"
	FieldFloat           FieldType = "float"
	FieldBoolean         FieldType = "boolean"
	FieldEmail           FieldType = "email"
	FieldLink            FieldType = "link"
	FieldDatetime        FieldType = "datetime"
	FieldEntityReference FieldType = "entity_reference"
	FieldImage           FieldType = "image"
	FieldFile            FieldType = "file"
	FieldListString      FieldType = "list_string"
	FieldListInteger     FieldType = "list_integer"
	FieldMap             FieldType = "map"
	// FieldSlot marks a field backing a named content region rather than a
	// scalar value. Slot fields and value fields are disjoint: the mapper
	// and diff engine never convert one into the other.
	FieldSlot FieldType = "slot"
)

// Provenance records where a field definition came from. Only fields owned
// by a manifest are candidates for automatic removal during forward sync.
type Provenance string

const (
	ProvenanceManifest Provenance = "manifest"
	ProvenanceManual   Provenance = "manual"
)

// FieldSettings carries the type-specific constraints of a field.
type FieldSettings struct {
	// AllowedValues restricts list fields to an enumerated value set.
	AllowedValues []string `json:"allowed_values,omitempty" yaml:"allowed_values,omitempty"`
	MaxLength     int      `json:"max_length,omitempty" yaml:"max_length,omitempty"`
	Min           *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max           *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	// Format is a semantic hint (email, uri, date-time) used when mapping
	// to manifest property formats.
	Format       string `json:"format,omitempty" yaml:"format,omitempty"`
	DefaultValue any    `json:"default_value,omitempty" yaml:"default_value,omitempty"`
}

// FieldDefinition describes one field of a bundle.
type FieldDefinition struct {
	Name        string        `json:"name" yaml:"name"`
	Type        FieldType     `json:"type" yaml:"type"`
	Label       string        `json:"label" yaml:"label"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool          `json:"required" yaml:"required"`
	Multiple    bool          `json:"multiple" yaml:"multiple"`
	Provenance  Provenance    `json:"provenance" yaml:"provenance"`
	Settings    FieldSettings `json:"settings" yaml:"settings"`
}

// IsSlot reports whether the field backs a named content region.
func (f FieldDefinition) IsSlot() bool {
	return f.Type == FieldSlot
}

// RenderingConfiguration mirrors a manifest's rendering capabilities on the
// bundle side.
type RenderingConfiguration struct {
	ServerSide  bool   `json:"server_side" yaml:"server_side"`
	ClientSide  bool   `json:"client_side" yaml:"client_side"`
	DefaultMode string `json:"default_mode" yaml:"default_mode"`
}

// Schema is a bundle's complete field schema: the ordered field list plus
// rendering configuration and bundle-level provenance.
type Schema struct {
	BundleID  string                 `json:"bundle_id" yaml:"bundle_id"`
	Label     string                 `json:"label" yaml:"label"`
	Fields    []FieldDefinition      `json:"fields" yaml:"fields"`
	Rendering RenderingConfiguration `json:"rendering" yaml:"rendering"`
	Origin    Provenance             `json:"origin" yaml:"origin"`
}

// Field returns the definition for name, if present.
func (s *Schema) Field(name string) (FieldDefinition, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDefinition{}, false
}

// ValueFields returns the non-slot fields in schema order.
func (s *Schema) ValueFields() []FieldDefinition {
	out := make([]FieldDefinition, 0, len(s.Fields))
	for _, f := range s.Fields {
		if !f.IsSlot() {
			out = append(out, f)
		}
	}
	return out
}

// SlotFields returns the slot fields in schema order.
func (s *Schema) SlotFields() []FieldDefinition {
	out := make([]FieldDefinition, 0, len(s.Fields))
	for _, f := range s.Fields {
		if f.IsSlot() {
			out = append(out, f)
		}
	}
	return out
}

// Clone returns a deep copy safe for mutation.
func (s *Schema) Clone() *Schema {
	clone := &Schema{
		BundleID:  s.BundleID,
		Label:     s.Label,
		Rendering: s.Rendering,
		Origin:    s.Origin,
	}
	if len(s.Fields) > 0 {
		clone.Fields = make([]FieldDefinition, len(s.Fields))
		for i, f := range s.Fields {
			fc := f
			if len(f.Settings.AllowedValues) > 0 {
				fc.Settings.AllowedValues = append([]string(nil), f.Settings.AllowedValues...)
			}
			fc.Settings.Min = cloneFloatPtr(f.Settings.Min)
			fc.Settings.Max = cloneFloatPtr(f.Settings.Max)
			clone.Fields[i] = fc
		}
	}
	return clone
}

// Hash returns a BLAKE3 digest over a canonical rendering of the schema.
// Field order does not affect the digest, so a reordering without content
// change is not treated as a schema change.
func (s *Schema) Hash() string {
	names := make([]string, 0, len(s.Fields))
	byName := make(map[string]FieldDefinition, len(s.Fields))
	for _, f := range s.Fields {
		names = append(names, f.Name)
		byName[f.Name] = f
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "bundle:%s|label:%s|render:%v/%v/%s|origin:%s\n",
		s.BundleID, s.Label,
		s.Rendering.ServerSide, s.Rendering.ClientSide, s.Rendering.DefaultMode,
		s.Origin)
	for _, name := range names {
		f := byName[name]
		fmt.Fprintf(&b, "field:%s|%s|%s|%s|%v|%v|%s|%s\n",
			f.Name, f.Type, f.Label, f.Description, f.Required, f.Multiple, f.Provenance,
			canonicalSettings(f.Settings))
	}

	sum := blake3.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func canonicalSettings(s FieldSettings) string {
	var b strings.Builder
	if len(s.AllowedValues) > 0 {
		values := append([]string(nil), s.AllowedValues...)
		sort.Strings(values)
		fmt.Fprintf(&b, "enum=%s;", strings.Join(values, ","))
	}
	if s.MaxLength > 0 {
		fmt.Fprintf(&b, "maxlen=%d;", s.MaxLength)
	}
	if s.Min != nil {
		fmt.Fprintf(&b, "min=%g;", *s.Min)
	}
	if s.Max != nil {
		fmt.Fprintf(&b, "max=%g;", *s.Max)
	}
	if s.Format != "" {
		fmt.Fprintf(&b, "format=%s;", s.Format)
	}
	if s.DefaultValue != nil {
		fmt.Fprintf(&b, "default=%v;", s.DefaultValue)
	}
	return b.String()
}

func cloneFloatPtr(in *float64) *float64 {
	if in == nil {
		return nil
	}
	v := *in
	return &v
}
