package generate

import (
	"fmt"

	"github.com/uiforge/compsync/pkg/bundle"
	"github.com/uiforge/compsync/pkg/diff"
	"github.com/uiforge/compsync/pkg/manifest"
	"github.com/uiforge/compsync/pkg/typemap"
)

// ManifestGenerator rebuilds a component manifest from a bundle's field
// schema: titles from labels, props from value fields through the type
// mapper, slots from slot fields, rendering flags from the bundle's
// rendering configuration.
type ManifestGenerator struct{}

// NewManifestGenerator returns the reverse-direction manifest generator.
func NewManifestGenerator() *ManifestGenerator {
	return &ManifestGenerator{}
}

func (g *ManifestGenerator) Name() string { return "manifest" }

// IsApplicable always holds: every bundle can be described by a manifest.
func (g *ManifestGenerator) IsApplicable(_ *bundle.Schema) bool { return true }

// Build derives the in-memory manifest without serializing it. Exposed for
// forward sync's round-trip validation.
func (g *ManifestGenerator) Build(schema *bundle.Schema) (*manifest.ComponentManifest, error) {
	m := &manifest.ComponentManifest{
		ID:   schema.BundleID,
		Name: schema.Label,
		Rendering: manifest.RenderingCapabilities{
			ServerSide:  schema.Rendering.ServerSide,
			ClientSide:  schema.Rendering.ClientSide,
			DefaultMode: schema.Rendering.DefaultMode,
		},
	}
	if m.Name == "" {
		m.Name = diff.Humanize(schema.BundleID)
	}

	fieldTypes := make(map[string]any)

	for _, f := range schema.Fields {
		name, ok := diff.ManifestName(f.Name)
		if !ok {
			// Manually created field without a derived name; expose it
			// under its own name so the manifest stays complete.
			name = f.Name
		}

		if f.IsSlot() {
			m.Slots = append(m.Slots, manifest.SlotEntry{
				Name: name,
				Schema: manifest.SlotSchema{
					Title:       f.Label,
					Required:    f.Required,
					Description: f.Description,
				},
			})
			continue
		}

		m.Props = append(m.Props, manifest.PropertyEntry{
			Name:   name,
			Schema: typemap.ExtractConstraints(f),
		})
		fieldTypes[name] = string(f.Type)
	}

	if len(fieldTypes) > 0 {
		m.Metadata = map[string]any{"fieldTypes": fieldTypes}
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("regenerated manifest for bundle %s is invalid: %w", schema.BundleID, err)
	}
	return m, nil
}

func (g *ManifestGenerator) Generate(schema *bundle.Schema, _ Options) ([]Artifact, error) {
	m, err := g.Build(schema)
	if err != nil {
		return nil, err
	}
	content, err := manifest.Serialize(m)
	if err != nil {
		return nil, err
	}
	return []Artifact{{
		Path:    schema.BundleID + manifest.SuffixYAML,
		Content: string(content),
	}}, nil
}
