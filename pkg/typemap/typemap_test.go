package typemap

import (
	"errors"
	"testing"

	"github.com/uiforge/compsync/pkg/bundle"
	"github.com/uiforge/compsync/pkg/manifest"
)

// Every value field type must map to a property tag without error.
func TestFieldTypeToPropertyTypeTotal(t *testing.T) {
	valueTypes := []bundle.FieldType{
		bundle.FieldText, bundle.FieldTextLong, bundle.FieldString, bundle.FieldStringLong,
		bundle.FieldInteger, bundle.FieldDecimal, bundle.FieldFloat, bundle.FieldBoolean,
		bundle.FieldEmail, bundle.FieldLink, bundle.FieldDatetime, bundle.FieldEntityReference,
		bundle.FieldImage, bundle.FieldFile, bundle.FieldListString, bundle.FieldListInteger,
		bundle.FieldMap,
	}
	for _, ft := range valueTypes {
		tag, err := FieldTypeToPropertyType(ft)
		if err != nil {
			t.Errorf("FieldTypeToPropertyType(%s) returned error: %v", ft, err)
		}
		if !manifest.ValidPropertyType(tag) {
			t.Errorf("FieldTypeToPropertyType(%s) = %q, not a valid tag", ft, tag)
		}
	}
}

func TestFieldTypeToPropertyTypeFallback(t *testing.T) {
	tag, err := FieldTypeToPropertyType(bundle.FieldType("hologram"))
	if tag != manifest.TypeString {
		t.Errorf("fallback tag = %q, want string", tag)
	}
	var mapErr *TypeMappingError
	if !errors.As(err, &mapErr) {
		t.Fatalf("expected TypeMappingError, got %v", err)
	}
	if mapErr.Input != "hologram" {
		t.Errorf("error input = %q", mapErr.Input)
	}
}

// Slot fields have no property representation.
func TestFieldTypeToPropertyTypeSlot(t *testing.T) {
	if _, err := FieldTypeToPropertyType(bundle.FieldSlot); err == nil {
		t.Error("slot field type should not map to a property tag")
	}
}

func TestPropertyTypeToFieldType(t *testing.T) {
	tests := []struct {
		name  string
		tag   manifest.PropertyType
		hints Hints
		want  bundle.FieldType
	}{
		{"plain string", manifest.TypeString, Hints{}, bundle.FieldString},
		{"email format", manifest.TypeString, Hints{Format: "email"}, bundle.FieldEmail},
		{"uri format", manifest.TypeString, Hints{Format: "uri"}, bundle.FieldLink},
		{"datetime format", manifest.TypeString, Hints{Format: "date-time"}, bundle.FieldDatetime},
		{"long string", manifest.TypeString, Hints{MaxLength: 4000}, bundle.FieldTextLong},
		{"short string keeps default", manifest.TypeString, Hints{MaxLength: 80}, bundle.FieldString},
		{"plain number", manifest.TypeNumber, Hints{}, bundle.FieldFloat},
		{"integer number", manifest.TypeNumber, Hints{Format: "integer"}, bundle.FieldInteger},
		{"decimal number", manifest.TypeNumber, Hints{Format: "decimal"}, bundle.FieldDecimal},
		{"boolean", manifest.TypeBoolean, Hints{}, bundle.FieldBoolean},
		{"object", manifest.TypeObject, Hints{}, bundle.FieldMap},
		{"array", manifest.TypeArray, Hints{}, bundle.FieldListString},
		{"storage hint wins", manifest.TypeString, Hints{Storage: bundle.FieldText}, bundle.FieldText},
		{"storage hint for wrong tag ignored", manifest.TypeNumber, Hints{Storage: bundle.FieldText}, bundle.FieldFloat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PropertyTypeToFieldType(tt.tag, tt.hints)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestPropertyTypeToFieldTypeFallback(t *testing.T) {
	got, err := PropertyTypeToFieldType(manifest.PropertyType("tuple"), Hints{})
	if got != bundle.FieldString {
		t.Errorf("fallback = %s, want string field", got)
	}
	if err == nil {
		t.Error("expected TypeMappingError for unknown tag")
	}
}

// The forward map of each reverse result must land back on the same tag, so
// repeated syncs cannot oscillate between types.
func TestMappingRoundTripStable(t *testing.T) {
	for tag := range propertyToField {
		ft, err := PropertyTypeToFieldType(tag, Hints{})
		if err != nil {
			t.Fatalf("reverse mapping of %s failed: %v", tag, err)
		}
		back, err := FieldTypeToPropertyType(ft)
		if err != nil {
			t.Fatalf("forward mapping of %s failed: %v", ft, err)
		}
		if back != tag {
			t.Errorf("tag %s maps to field %s which maps back to %s", tag, ft, back)
		}
	}
}

func TestExtractConstraints(t *testing.T) {
	min, max := 1.0, 10.0
	f := bundle.FieldDefinition{
		Name:     "cs_level",
		Type:     bundle.FieldInteger,
		Label:    "Level",
		Required: true,
		Settings: bundle.FieldSettings{Min: &min, Max: &max, DefaultValue: 3},
	}

	schema := ExtractConstraints(f)
	if schema.Type != manifest.TypeNumber {
		t.Errorf("type = %s, want number", schema.Type)
	}
	if schema.Format != "integer" {
		t.Errorf("format = %q, want integer marker", schema.Format)
	}
	if !schema.Required || schema.Title != "Level" {
		t.Errorf("required/title not carried: %+v", schema)
	}
	if schema.Minimum == nil || *schema.Minimum != 1.0 {
		t.Errorf("minimum not carried: %+v", schema.Minimum)
	}
}

func TestExtractConstraintsSemanticFormat(t *testing.T) {
	schema := ExtractConstraints(bundle.FieldDefinition{Name: "cs_mail", Type: bundle.FieldEmail, Label: "Mail"})
	if schema.Format != "email" {
		t.Errorf("format = %q, want email", schema.Format)
	}
}

func TestApplyConstraintsStripsStorageMarkers(t *testing.T) {
	settings := ApplyConstraints(manifest.PropertySchema{Type: manifest.TypeNumber, Format: "integer"})
	if settings.Format != "" {
		t.Errorf("integer marker leaked into settings: %q", settings.Format)
	}

	settings = ApplyConstraints(manifest.PropertySchema{Type: manifest.TypeString, Format: "email"})
	if settings.Format != "email" {
		t.Errorf("semantic format dropped: %q", settings.Format)
	}
}

// An enumerated string keeps scalar string storage; the value set lives in
// the field settings, so the field still maps back to the string tag.
func TestEnumStringKeepsScalarStorage(t *testing.T) {
	prop := manifest.PropertySchema{Type: manifest.TypeString, Enum: []string{"plain", "fancy"}}

	ft, err := PropertyTypeToFieldType(prop.Type, Hints{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ft != bundle.FieldString {
		t.Fatalf("enum string stored as %s, want %s", ft, bundle.FieldString)
	}

	f := bundle.FieldDefinition{Name: "cs_style", Type: ft, Label: "Style", Settings: ApplyConstraints(prop)}
	back := ExtractConstraints(f)
	if back.Type != manifest.TypeString {
		t.Errorf("regenerated prop type = %s, want string", back.Type)
	}
	if len(back.Enum) != 2 || back.Enum[0] != "plain" {
		t.Errorf("enum values lost on the way back: %+v", back.Enum)
	}
}

func TestConstraintsRoundTrip(t *testing.T) {
	original := bundle.FieldSettings{
		AllowedValues: []string{"a", "b"},
		MaxLength:     120,
	}
	f := bundle.FieldDefinition{Name: "cs_kind", Type: bundle.FieldListString, Label: "Kind", Settings: original}

	back := ApplyConstraints(ExtractConstraints(f))
	if len(back.AllowedValues) != 2 || back.AllowedValues[0] != "a" {
		t.Errorf("allowed values lost: %+v", back.AllowedValues)
	}
	if back.MaxLength != 120 {
		t.Errorf("max length lost: %d", back.MaxLength)
	}
}
