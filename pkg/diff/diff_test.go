package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uiforge/compsync/pkg/bundle"
	"github.com/uiforge/compsync/pkg/manifest"
	"github.com/uiforge/compsync/pkg/typemap"
)

func heroManifest() *manifest.ComponentManifest {
	return &manifest.ComponentManifest{
		ID:   "hero",
		Name: "Hero",
		Props: manifest.Properties{
			{Name: "title", Schema: manifest.PropertySchema{Type: manifest.TypeString, Required: true}},
			{Name: "count", Schema: manifest.PropertySchema{Type: manifest.TypeNumber}},
		},
		Slots: manifest.Slots{
			{Name: "footer", Schema: manifest.SlotSchema{Description: "Footer region"}},
		},
		Rendering: manifest.RenderingCapabilities{ServerSide: true, ClientSide: true},
	}
}

func TestDesiredFieldsOrderAndProvenance(t *testing.T) {
	fields, err := DesiredFields(heroManifest())
	require.NoError(t, err)
	require.Len(t, fields, 3)

	assert.Equal(t, "cs_title", fields[0].Name)
	assert.Equal(t, bundle.FieldString, fields[0].Type)
	assert.True(t, fields[0].Required)
	assert.Equal(t, "Title", fields[0].Label)

	assert.Equal(t, "cs_count", fields[1].Name)
	assert.Equal(t, bundle.FieldFloat, fields[1].Type)

	assert.Equal(t, "cs_footer", fields[2].Name)
	assert.Equal(t, bundle.FieldSlot, fields[2].Type)
	assert.Equal(t, "Footer region", fields[2].Description)

	for _, f := range fields {
		assert.Equal(t, bundle.ProvenanceManifest, f.Provenance, "field %s", f.Name)
	}
}

func TestDesiredFieldsHints(t *testing.T) {
	m := &manifest.ComponentManifest{
		ID:   "contact",
		Name: "Contact",
		Props: manifest.Properties{
			{Name: "email", Schema: manifest.PropertySchema{Type: manifest.TypeString, Format: "email"}},
			{Name: "website", Schema: manifest.PropertySchema{Type: manifest.TypeString, Format: "uri"}},
			{Name: "body", Schema: manifest.PropertySchema{Type: manifest.TypeString, MaxLength: 4000}},
			{Name: "level", Schema: manifest.PropertySchema{Type: manifest.TypeNumber, Format: "integer"}},
		},
		Rendering: manifest.RenderingCapabilities{ServerSide: true},
	}

	fields, err := DesiredFields(m)
	require.NoError(t, err)

	byName := make(map[string]bundle.FieldDefinition)
	for _, f := range fields {
		byName[f.Name] = f
	}
	assert.Equal(t, bundle.FieldEmail, byName["cs_email"].Type)
	assert.Equal(t, bundle.FieldLink, byName["cs_website"].Type)
	assert.Equal(t, bundle.FieldTextLong, byName["cs_body"].Type)
	assert.Equal(t, bundle.FieldInteger, byName["cs_level"].Type)
}

// An enumerated string prop must keep scalar string storage so the
// regenerated manifest declares it a string again, not an array.
func TestDesiredFieldsEnumStringStaysString(t *testing.T) {
	m := &manifest.ComponentManifest{
		ID:   "hero",
		Name: "Hero",
		Props: manifest.Properties{
			{Name: "style", Schema: manifest.PropertySchema{Type: manifest.TypeString, Enum: []string{"plain", "fancy"}}},
		},
		Rendering: manifest.RenderingCapabilities{ServerSide: true},
	}

	fields, err := DesiredFields(m)
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, bundle.FieldString, fields[0].Type)
	assert.Equal(t, []string{"plain", "fancy"}, fields[0].Settings.AllowedValues)

	back := typemap.ExtractConstraints(fields[0])
	assert.Equal(t, manifest.TypeString, back.Type)
	assert.Equal(t, []string{"plain", "fancy"}, back.Enum)
}

func TestDesiredFieldsStorageHintPinsType(t *testing.T) {
	m := &manifest.ComponentManifest{
		ID:   "hero",
		Name: "Hero",
		Props: manifest.Properties{
			{Name: "subtitle", Schema: manifest.PropertySchema{Type: manifest.TypeString}},
		},
		Rendering: manifest.RenderingCapabilities{ServerSide: true},
		Metadata: map[string]any{
			"fieldTypes": map[string]any{"subtitle": "text"},
		},
	}

	fields, err := DesiredFields(m)
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, bundle.FieldText, fields[0].Type,
		"storage hint should pin the exact field type")
}

func TestDesiredFieldsCollision(t *testing.T) {
	m := &manifest.ComponentManifest{
		ID:   "hero",
		Name: "Hero",
		Props: manifest.Properties{
			{Name: "heroImage", Schema: manifest.PropertySchema{Type: manifest.TypeString}},
		},
		Slots: manifest.Slots{
			{Name: "heroImage", Schema: manifest.SlotSchema{}},
		},
		Rendering: manifest.RenderingCapabilities{ServerSide: true},
	}

	_, err := DesiredFields(m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "same field name")
}

func TestDiffAddsMissingFields(t *testing.T) {
	schema := &bundle.Schema{BundleID: "hero", Label: "Hero"}

	cs, err := Diff(heroManifest(), schema)
	require.NoError(t, err)

	require.Len(t, cs.FieldsToAdd, 3)
	assert.Empty(t, cs.FieldsToUpdate)
	assert.Empty(t, cs.FieldsToRemove)
	assert.Equal(t, "title", cs.FieldsToAdd[0].ManifestName)
	assert.Equal(t, "cs_title", cs.FieldsToAdd[0].Definition.Name)
}

func TestDiffUpdatesChangedField(t *testing.T) {
	m := heroManifest()
	schema := &bundle.Schema{
		BundleID: "hero",
		Label:    "Hero",
		Fields: []bundle.FieldDefinition{
			{Name: "cs_title", Type: bundle.FieldString, Label: "Title", Required: false, Provenance: bundle.ProvenanceManifest},
			{Name: "cs_count", Type: bundle.FieldFloat, Label: "Count", Provenance: bundle.ProvenanceManifest},
			{Name: "cs_footer", Type: bundle.FieldSlot, Label: "Footer", Description: "Footer region", Provenance: bundle.ProvenanceManifest},
		},
	}

	cs, err := Diff(m, schema)
	require.NoError(t, err)

	assert.Empty(t, cs.FieldsToAdd)
	require.Len(t, cs.FieldsToUpdate, 1)
	assert.Equal(t, "cs_title", cs.FieldsToUpdate[0].Definition.Name)
	assert.Contains(t, cs.FieldsToUpdate[0].Reason, "required")
}

func TestDiffRemovesOnlyManifestOwnedFields(t *testing.T) {
	m := heroManifest()
	schema := &bundle.Schema{
		BundleID: "hero",
		Label:    "Hero",
		Fields: []bundle.FieldDefinition{
			// Stale derived field whose manifest entry is gone.
			{Name: "cs_subtitle", Type: bundle.FieldString, Label: "Subtitle", Provenance: bundle.ProvenanceManifest},
			// Hand-created field must survive.
			{Name: "editor_notes", Type: bundle.FieldTextLong, Label: "Notes", Provenance: bundle.ProvenanceManual},
		},
	}

	cs, err := Diff(m, schema)
	require.NoError(t, err)

	assert.Equal(t, []string{"cs_subtitle"}, cs.FieldsToRemove)
}

func TestDiffDeterministic(t *testing.T) {
	m := heroManifest()
	schema := &bundle.Schema{BundleID: "hero", Label: "Hero"}

	first, err := Diff(m, schema)
	require.NoError(t, err)
	second, err := Diff(m, schema)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestNeedsSync(t *testing.T) {
	m := heroManifest()
	schema := &bundle.Schema{BundleID: "hero", Label: "Hero"}

	assert.True(t, NeedsSync(m, schema), "empty schema needs sync")

	desired, err := DesiredFields(m)
	require.NoError(t, err)
	schema.Fields = desired
	assert.False(t, NeedsSync(m, schema), "converged schema must not need sync")

	// A manual field does not trip change detection.
	schema.Fields = append(schema.Fields, bundle.FieldDefinition{
		Name: "editor_notes", Type: bundle.FieldTextLong, Provenance: bundle.ProvenanceManual,
	})
	assert.False(t, NeedsSync(m, schema))

	// Dropping a prop does.
	m.Props = m.Props[:1]
	assert.True(t, NeedsSync(m, schema))
}
