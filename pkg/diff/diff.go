// Package diff compares a component manifest against a bundle's current
// field schema and produces the ordered changeset a forward sync applies.
package diff

import (
	"fmt"
	"sort"

	"github.com/uiforge/compsync/pkg/bundle"
	"github.com/uiforge/compsync/pkg/logger"
	"github.com/uiforge/compsync/pkg/manifest"
	"github.com/uiforge/compsync/pkg/typemap"
)

// FieldChange is one add or update entry in a changeset.
type FieldChange struct {
	// ManifestName is the prop or slot the change originates from.
	ManifestName string `json:"manifest_name"`
	// Definition is the desired field state.
	Definition bundle.FieldDefinition `json:"definition"`
	// Reason explains an update (empty for adds).
	Reason string `json:"reason,omitempty"`
}

// Changeset is the ordered outcome of diffing a manifest against a bundle
// schema. Adds and updates follow manifest order (props before slots);
// removals are sorted by field name. Identical inputs always produce an
// identical changeset.
type Changeset struct {
	BundleID       string        `json:"bundle_id"`
	FieldsToAdd    []FieldChange `json:"fields_to_add,omitempty"`
	FieldsToUpdate []FieldChange `json:"fields_to_update,omitempty"`
	FieldsToRemove []string      `json:"fields_to_remove,omitempty"`
}

// Empty reports whether the changeset requires no work.
func (c *Changeset) Empty() bool {
	return len(c.FieldsToAdd) == 0 && len(c.FieldsToUpdate) == 0 && len(c.FieldsToRemove) == 0
}

// storageHints reads the fieldTypes block the manifest generator records in
// manifest metadata, pinning exact storage types across round trips.
func storageHints(m *manifest.ComponentManifest) map[string]bundle.FieldType {
	hints := make(map[string]bundle.FieldType)
	raw, ok := m.Metadata["fieldTypes"]
	if !ok {
		return hints
	}
	asMap, ok := raw.(map[string]any)
	if !ok {
		return hints
	}
	for name, v := range asMap {
		if s, ok := v.(string); ok {
			hints[name] = bundle.FieldType(s)
		}
	}
	return hints
}

// DesiredFields derives the field definitions a manifest implies, props
// first then slots, both in manifest order. All derived fields carry
// manifest provenance.
func DesiredFields(m *manifest.ComponentManifest) ([]bundle.FieldDefinition, error) {
	hints := storageHints(m)
	fields := make([]bundle.FieldDefinition, 0, len(m.Props)+len(m.Slots))
	seen := make(map[string]string)

	for _, entry := range m.Props {
		name := FieldName(entry.Name)
		if prior, dup := seen[name]; dup {
			return nil, fmt.Errorf("manifest %s: props %s and %s derive the same field name %s", m.ID, prior, entry.Name, name)
		}
		seen[name] = entry.Name

		fieldType, err := typemap.PropertyTypeToFieldType(entry.Schema.Type, typemap.Hints{
			Format:    entry.Schema.Format,
			MaxLength: entry.Schema.MaxLength,
			Storage:   hints[entry.Name],
		})
		if err != nil {
			logger.Warn("Type mapping fallback", logger.String("manifest", m.ID),
				logger.String("prop", entry.Name), logger.Err(err))
		}

		label := entry.Schema.Title
		if label == "" {
			label = Humanize(entry.Name)
		}

		fields = append(fields, bundle.FieldDefinition{
			Name:       name,
			Type:       fieldType,
			Label:      label,
			Required:   entry.Schema.Required,
			Multiple:   entry.Schema.Type == manifest.TypeArray,
			Provenance: bundle.ProvenanceManifest,
			Settings:   typemap.ApplyConstraints(entry.Schema),
		})
	}

	for _, entry := range m.Slots {
		name := FieldName(entry.Name)
		if prior, dup := seen[name]; dup {
			return nil, fmt.Errorf("manifest %s: entries %s and %s derive the same field name %s", m.ID, prior, entry.Name, name)
		}
		seen[name] = entry.Name

		label := entry.Schema.Title
		if label == "" {
			label = Humanize(entry.Name)
		}

		fields = append(fields, bundle.FieldDefinition{
			Name:        name,
			Type:        bundle.FieldSlot,
			Label:       label,
			Description: entry.Schema.Description,
			Required:    entry.Schema.Required,
			Provenance:  bundle.ProvenanceManifest,
		})
	}

	return fields, nil
}

// DesiredSchema builds the bundle schema a manifest fully implies.
func DesiredSchema(m *manifest.ComponentManifest) (*bundle.Schema, error) {
	fields, err := DesiredFields(m)
	if err != nil {
		return nil, err
	}
	return &bundle.Schema{
		BundleID: m.ID,
		Label:    m.Name,
		Fields:   fields,
		Rendering: bundle.RenderingConfiguration{
			ServerSide:  m.Rendering.ServerSide,
			ClientSide:  m.Rendering.ClientSide,
			DefaultMode: m.Rendering.DefaultMode,
		},
		Origin: bundle.ProvenanceManifest,
	}, nil
}

// Diff compares a manifest's implied fields against the bundle's current
// schema. Manually created fields are never removal candidates; only fields
// carrying manifest provenance may be dropped when their manifest entry
// disappears.
func Diff(m *manifest.ComponentManifest, schema *bundle.Schema) (*Changeset, error) {
	desired, err := DesiredFields(m)
	if err != nil {
		return nil, err
	}

	cs := &Changeset{BundleID: schema.BundleID}

	current := make(map[string]bundle.FieldDefinition, len(schema.Fields))
	for _, f := range schema.Fields {
		current[f.Name] = f
	}

	desiredNames := make(map[string]bool, len(desired))
	for _, want := range desired {
		desiredNames[want.Name] = true
		have, exists := current[want.Name]
		if !exists {
			manifestName, _ := ManifestName(want.Name)
			cs.FieldsToAdd = append(cs.FieldsToAdd, FieldChange{ManifestName: manifestName, Definition: want})
			continue
		}
		if reason := fieldMismatch(want, have); reason != "" {
			manifestName, _ := ManifestName(want.Name)
			cs.FieldsToUpdate = append(cs.FieldsToUpdate, FieldChange{
				ManifestName: manifestName,
				Definition:   want,
				Reason:       reason,
			})
		}
	}

	for _, f := range schema.Fields {
		if f.Provenance != bundle.ProvenanceManifest {
			continue
		}
		if !desiredNames[f.Name] {
			cs.FieldsToRemove = append(cs.FieldsToRemove, f.Name)
		}
	}
	sort.Strings(cs.FieldsToRemove)

	return cs, nil
}

// fieldMismatch reports the first difference between the desired and the
// current definition, or "" when they agree.
func fieldMismatch(want, have bundle.FieldDefinition) string {
	if want.Type != have.Type {
		return fmt.Sprintf("type %s != %s", have.Type, want.Type)
	}
	if want.Required != have.Required {
		return fmt.Sprintf("required %v != %v", have.Required, want.Required)
	}
	if want.Multiple != have.Multiple {
		return fmt.Sprintf("multiple %v != %v", have.Multiple, want.Multiple)
	}
	if want.Label != have.Label {
		return fmt.Sprintf("label %q != %q", have.Label, want.Label)
	}
	if want.Description != have.Description {
		return "description changed"
	}
	if s := settingsMismatch(want.Settings, have.Settings); s != "" {
		return s
	}
	return ""
}

func settingsMismatch(want, have bundle.FieldSettings) string {
	if len(want.AllowedValues) != len(have.AllowedValues) {
		return "allowed values changed"
	}
	wantValues := append([]string(nil), want.AllowedValues...)
	haveValues := append([]string(nil), have.AllowedValues...)
	sort.Strings(wantValues)
	sort.Strings(haveValues)
	for i := range wantValues {
		if wantValues[i] != haveValues[i] {
			return "allowed values changed"
		}
	}
	if want.MaxLength != have.MaxLength {
		return fmt.Sprintf("max length %d != %d", have.MaxLength, want.MaxLength)
	}
	if !floatPtrEqual(want.Min, have.Min) {
		return "minimum changed"
	}
	if !floatPtrEqual(want.Max, have.Max) {
		return "maximum changed"
	}
	if want.Format != have.Format {
		return fmt.Sprintf("format %q != %q", have.Format, want.Format)
	}
	if fmt.Sprintf("%v", want.DefaultValue) != fmt.Sprintf("%v", have.DefaultValue) {
		return "default value changed"
	}
	return ""
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// NeedsSync is a cheap hash comparison used to skip full diffing. It
// compares the schema the manifest implies against the manifest-owned
// portion of the bundle's current schema.
func NeedsSync(m *manifest.ComponentManifest, schema *bundle.Schema) bool {
	desired, err := DesiredSchema(m)
	if err != nil {
		return true
	}

	owned := &bundle.Schema{
		BundleID:  schema.BundleID,
		Label:     schema.Label,
		Rendering: schema.Rendering,
		Origin:    bundle.ProvenanceManifest,
	}
	for _, f := range schema.Fields {
		if f.Provenance == bundle.ProvenanceManifest {
			owned.Fields = append(owned.Fields, f)
		}
	}
	// Align the envelope fields that forward sync does not manage.
	// Rendering is only set at bundle creation, so drift there cannot be
	// converged by a field sync and must not keep NeedsSync pinned true.
	desired.BundleID = owned.BundleID
	desired.Label = owned.Label
	desired.Origin = owned.Origin
	desired.Rendering = owned.Rendering

	return desired.Hash() != owned.Hash()
}
