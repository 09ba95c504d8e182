// Package typemap translates between manifest property types and bundle
// field storage types. All functions are pure and total: an unknown type on
// either side maps to the declared fallback and is reported through a
// TypeMappingError the caller may log and ignore.
package typemap

import (
	"fmt"

	"github.com/uiforge/compsync/pkg/bundle"
	"github.com/uiforge/compsync/pkg/manifest"
)

// TypeMappingError reports an unmapped type. The accompanying return value
// is always the declared fallback, so callers can treat the error as a
// warning.
type TypeMappingError struct {
	Input    string
	Fallback string
}

func (e *TypeMappingError) Error() string {
	return fmt.Sprintf("no mapping for type %q, falling back to %q", e.Input, e.Fallback)
}

// fieldToProperty is the forward table: many field types collapse onto one
// property tag.
var fieldToProperty = map[bundle.FieldType]manifest.PropertyType{
	bundle.FieldText:            manifest.TypeString,
	bundle.FieldTextLong:        manifest.TypeString,
	bundle.FieldString:          manifest.TypeString,
	bundle.FieldStringLong:      manifest.TypeString,
	bundle.FieldEmail:           manifest.TypeString,
	bundle.FieldDatetime:        manifest.TypeString,
	bundle.FieldInteger:         manifest.TypeNumber,
	bundle.FieldDecimal:         manifest.TypeNumber,
	bundle.FieldFloat:           manifest.TypeNumber,
	bundle.FieldBoolean:         manifest.TypeBoolean,
	bundle.FieldLink:            manifest.TypeObject,
	bundle.FieldEntityReference: manifest.TypeObject,
	bundle.FieldImage:           manifest.TypeObject,
	bundle.FieldFile:            manifest.TypeObject,
	bundle.FieldMap:             manifest.TypeObject,
	bundle.FieldListString:      manifest.TypeArray,
	bundle.FieldListInteger:     manifest.TypeArray,
}

// propertyToField declares the explicit reverse defaults for each tag.
var propertyToField = map[manifest.PropertyType]bundle.FieldType{
	manifest.TypeString:  bundle.FieldString,
	manifest.TypeNumber:  bundle.FieldFloat,
	manifest.TypeBoolean: bundle.FieldBoolean,
	manifest.TypeObject:  bundle.FieldMap,
	manifest.TypeArray:   bundle.FieldListString,
}

// semantic formats attached to specific string field types.
var fieldFormats = map[bundle.FieldType]string{
	bundle.FieldEmail:    "email",
	bundle.FieldLink:     "uri",
	bundle.FieldDatetime: "date-time",
}

// FieldTypeToPropertyType maps a field storage type to its property tag.
// Slot fields have no property representation; asking for one returns the
// string fallback plus a TypeMappingError.
func FieldTypeToPropertyType(ft bundle.FieldType) (manifest.PropertyType, error) {
	if tag, ok := fieldToProperty[ft]; ok {
		return tag, nil
	}
	return manifest.TypeString, &TypeMappingError{Input: string(ft), Fallback: string(manifest.TypeString)}
}

// Hints refine the reverse mapping beyond the bare property tag.
type Hints struct {
	// Format is the manifest's semantic format hint (email, uri, date-time,
	// integer, decimal).
	Format string
	// MaxLength distinguishes short string storage from long text.
	MaxLength int
	// Storage, when set to a type valid for the tag, pins the exact field
	// type. The manifest generator records it in manifest metadata so a
	// regenerated bundle keeps its original storage types.
	Storage bundle.FieldType
}

// PropertyTypeToFieldType maps a property tag (plus hints) to a field
// storage type. Unknown tags fall back to the string field type with a
// TypeMappingError.
func PropertyTypeToFieldType(tag manifest.PropertyType, hints Hints) (bundle.FieldType, error) {
	fallback, ok := propertyToField[tag]
	if !ok {
		return bundle.FieldString, &TypeMappingError{Input: string(tag), Fallback: string(bundle.FieldString)}
	}

	// A storage hint wins when it maps back onto the same tag.
	if hints.Storage != "" {
		if mapped, known := fieldToProperty[hints.Storage]; known && mapped == tag {
			return hints.Storage, nil
		}
	}

	switch tag {
	case manifest.TypeString:
		switch hints.Format {
		case "email":
			return bundle.FieldEmail, nil
		case "uri":
			return bundle.FieldLink, nil
		case "date-time":
			return bundle.FieldDatetime, nil
		}
		// An enum does not change storage: the value set travels in the
		// field settings, and string storage maps back to the string tag.
		if hints.MaxLength > 255 {
			return bundle.FieldTextLong, nil
		}
	case manifest.TypeNumber:
		switch hints.Format {
		case "integer":
			return bundle.FieldInteger, nil
		case "decimal":
			return bundle.FieldDecimal, nil
		}
	}

	return fallback, nil
}

// ExtractConstraints builds the property schema constraints for one field
// definition: enum from allowed values, bounds from min/max settings, format
// from the field's semantic subtype.
func ExtractConstraints(f bundle.FieldDefinition) manifest.PropertySchema {
	tag, _ := FieldTypeToPropertyType(f.Type)
	schema := manifest.PropertySchema{
		Type:     tag,
		Title:    f.Label,
		Required: f.Required,
		Default:  f.Settings.DefaultValue,
	}
	if f.Multiple && tag != manifest.TypeArray {
		schema.Type = manifest.TypeArray
	}

	if len(f.Settings.AllowedValues) > 0 {
		schema.Enum = append([]string(nil), f.Settings.AllowedValues...)
	}
	if f.Settings.MaxLength > 0 {
		schema.MaxLength = f.Settings.MaxLength
	}
	schema.Minimum = f.Settings.Min
	schema.Maximum = f.Settings.Max

	switch f.Type {
	case bundle.FieldInteger:
		schema.Format = "integer"
	case bundle.FieldDecimal:
		schema.Format = "decimal"
	default:
		if format, ok := fieldFormats[f.Type]; ok {
			schema.Format = format
		} else if f.Settings.Format != "" {
			schema.Format = f.Settings.Format
		}
	}

	return schema
}

// ApplyConstraints is the inverse of ExtractConstraints: it derives field
// settings from a property schema.
func ApplyConstraints(p manifest.PropertySchema) bundle.FieldSettings {
	settings := bundle.FieldSettings{
		DefaultValue: p.Default,
		MaxLength:    p.MaxLength,
		Min:          p.Minimum,
		Max:          p.Maximum,
	}
	if len(p.Enum) > 0 {
		settings.AllowedValues = append([]string(nil), p.Enum...)
	}
	// Integer and decimal formats are storage-type markers, not semantic
	// formats worth keeping on the field.
	switch p.Format {
	case "", "integer", "decimal":
	default:
		settings.Format = p.Format
	}
	return settings
}
