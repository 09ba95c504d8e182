package generate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uiforge/compsync/pkg/bundle"
	"github.com/uiforge/compsync/pkg/diff"
	"github.com/uiforge/compsync/pkg/manifest"
)

func heroSchema() *bundle.Schema {
	return &bundle.Schema{
		BundleID: "hero_banner",
		Label:    "Hero Banner",
		Fields: []bundle.FieldDefinition{
			{Name: "cs_title", Type: bundle.FieldString, Label: "Title", Required: true, Provenance: bundle.ProvenanceManifest},
			{Name: "cs_count", Type: bundle.FieldInteger, Label: "Count", Provenance: bundle.ProvenanceManifest},
			{Name: "cs_footer", Type: bundle.FieldSlot, Label: "Footer", Provenance: bundle.ProvenanceManifest},
		},
		Rendering: bundle.RenderingConfiguration{ServerSide: true, ClientSide: true, DefaultMode: "server"},
		Origin:    bundle.ProvenanceManifest,
	}
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []string{"component", "library", "manifest", "stylesheet", "template"}, r.Names())

	if _, ok := r.Get("template"); !ok {
		t.Error("template generator missing")
	}
	if _, ok := r.Get("ghost"); ok {
		t.Error("unknown generator resolved")
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(NewTemplateGenerator()))
	assert.Error(t, r.Register(NewTemplateGenerator()))
}

func TestNamingHelpers(t *testing.T) {
	assert.Equal(t, "hero-banner", kebab("hero_banner"))
	assert.Equal(t, "HeroBanner", pascal("hero_banner"))
	assert.Equal(t, "heroBanner", camel("hero_banner"))
	assert.Equal(t, "callToAction", camel("call-to-action"))
}

func TestClassNamesPerStyle(t *testing.T) {
	tests := []struct {
		style   NamingStyle
		root    string
		element string
	}{
		{NamingMinimal, "hero-banner", "hero-banner-title"},
		{NamingBEM, "hero-banner", "hero-banner__title"},
		{NamingFramework, "c-hero-banner", "c-hero-banner__title"},
	}
	for _, tt := range tests {
		t.Run(string(tt.style), func(t *testing.T) {
			assert.Equal(t, tt.root, rootClass(tt.style, "hero_banner"))
			assert.Equal(t, tt.element, elementClass(tt.style, "hero_banner", "cs_title"))
		})
	}
}

func TestManifestGeneratorBuild(t *testing.T) {
	m, err := NewManifestGenerator().Build(heroSchema())
	require.NoError(t, err)

	assert.Equal(t, "hero_banner", m.ID)
	assert.Equal(t, "Hero Banner", m.Name)

	require.Len(t, m.Props, 2)
	assert.Equal(t, "title", m.Props[0].Name)
	assert.Equal(t, manifest.TypeString, m.Props[0].Schema.Type)
	assert.True(t, m.Props[0].Schema.Required)
	assert.Equal(t, "count", m.Props[1].Name)
	assert.Equal(t, manifest.TypeNumber, m.Props[1].Schema.Type)
	assert.Equal(t, "integer", m.Props[1].Schema.Format)

	require.Len(t, m.Slots, 1)
	assert.Equal(t, "footer", m.Slots[0].Name)

	// Storage types recorded so a re-sync keeps exact field types.
	fieldTypes, ok := m.Metadata["fieldTypes"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "string", fieldTypes["title"])
	assert.Equal(t, "integer", fieldTypes["count"])
}

// A manually created field without a derived name is still exposed.
func TestManifestGeneratorForeignField(t *testing.T) {
	schema := heroSchema()
	schema.Fields = append(schema.Fields, bundle.FieldDefinition{
		Name: "editor_notes", Type: bundle.FieldTextLong, Label: "Notes", Provenance: bundle.ProvenanceManual,
	})

	m, err := NewManifestGenerator().Build(schema)
	require.NoError(t, err)
	_, ok := m.Props.Get("editor_notes")
	assert.True(t, ok)
}

func TestManifestGeneratorArtifact(t *testing.T) {
	artifacts, err := NewManifestGenerator().Generate(heroSchema(), DefaultOptions())
	require.NoError(t, err)
	require.Len(t, artifacts, 1)

	assert.Equal(t, "hero_banner.component.yml", artifacts[0].Path)
	assert.Contains(t, artifacts[0].Content, "name: Hero Banner")
	assert.Contains(t, artifacts[0].Content, "title:")
}

func TestTemplateGenerator(t *testing.T) {
	g := NewTemplateGenerator()
	schema := heroSchema()
	require.True(t, g.IsApplicable(schema))

	artifacts, err := g.Generate(schema, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, artifacts, 1)
	assert.Equal(t, "hero_banner.html.twig", artifacts[0].Path)

	content := artifacts[0].Content
	assert.Contains(t, content, `<div class="hero-banner">`)
	assert.Contains(t, content, "{% if title %}")
	assert.Contains(t, content, `<div class="hero-banner__title">{{ title }}</div>`)
	assert.Contains(t, content, "{% block footer %}{{ footer }}{% endblock %}")
	assert.NotContains(t, content, "{#", "debug comments disabled by default")
}

// Hyphenated manifest names must not leak into twig identifiers, where a
// hyphen parses as subtraction. Variables and block names use the
// underscore form; class names keep the hyphen.
func TestTemplateGeneratorHyphenatedNames(t *testing.T) {
	schema := &bundle.Schema{
		BundleID: "hero_banner",
		Label:    "Hero Banner",
		Fields: []bundle.FieldDefinition{
			{Name: diff.FieldName("hero-image"), Type: bundle.FieldImage, Label: "Hero Image", Provenance: bundle.ProvenanceManifest},
			{Name: diff.FieldName("footer-area"), Type: bundle.FieldSlot, Label: "Footer Area", Provenance: bundle.ProvenanceManifest},
		},
		Rendering: bundle.RenderingConfiguration{ServerSide: true, DefaultMode: "server"},
	}

	artifacts, err := NewTemplateGenerator().Generate(schema, DefaultOptions())
	require.NoError(t, err)
	content := artifacts[0].Content

	assert.Contains(t, content, "{% if hero_image %}")
	assert.Contains(t, content, "{{ hero_image }}")
	assert.Contains(t, content, "{% block footer_area %}")
	assert.NotContains(t, content, "{% if hero-image %}")
	assert.NotContains(t, content, "{{ hero-image }}")
	assert.Contains(t, content, `class="hero-banner__hero-image"`)
}

func TestTemplateGeneratorNotApplicableClientOnly(t *testing.T) {
	schema := heroSchema()
	schema.Rendering.ServerSide = false
	assert.False(t, NewTemplateGenerator().IsApplicable(schema))
}

func TestTemplateGeneratorDebugComments(t *testing.T) {
	opts := DefaultOptions()
	opts.IncludeDebugComments = true

	artifacts, err := NewTemplateGenerator().Generate(heroSchema(), opts)
	require.NoError(t, err)
	assert.Contains(t, artifacts[0].Content, "{# Generated server template for hero_banner.")
}

func TestComponentGeneratorJSX(t *testing.T) {
	g := NewComponentGenerator()
	schema := heroSchema()
	require.True(t, g.IsApplicable(schema))

	opts := DefaultOptions()
	opts.IndexFileRequested = true
	artifacts, err := g.Generate(schema, opts)
	require.NoError(t, err)
	require.Len(t, artifacts, 2)

	assert.Equal(t, "HeroBanner.jsx", artifacts[0].Path)
	content := artifacts[0].Content
	assert.Contains(t, content, "export function HeroBanner({ title, count, slots })")
	assert.Contains(t, content, `className="hero-banner"`)
	assert.Contains(t, content, "title != null")
	assert.Contains(t, content, "slots?.footer")
	assert.NotContains(t, content, "interface", "untyped output must not declare an interface")
	assert.NotContains(t, content, "&quot;", "generated code must not be HTML-escaped")

	assert.Equal(t, "index.js", artifacts[1].Path)
	assert.Contains(t, artifacts[1].Content, "export { HeroBanner } from './HeroBanner';")
}

func TestComponentGeneratorTyped(t *testing.T) {
	opts := DefaultOptions()
	opts.TypedOutput = true
	opts.TestFileRequested = true
	opts.StoryFileRequested = true

	artifacts, err := NewComponentGenerator().Generate(heroSchema(), opts)
	require.NoError(t, err)
	require.Len(t, artifacts, 3)

	assert.Equal(t, "HeroBanner.tsx", artifacts[0].Path)
	content := artifacts[0].Content
	assert.Contains(t, content, "export interface HeroBannerProps {")
	assert.Contains(t, content, "title: string;")
	assert.Contains(t, content, "count?: number;")
	assert.Contains(t, content, "slots?: Record<string, React.ReactNode>;")

	assert.Equal(t, "HeroBanner.test.tsx", artifacts[1].Path)
	assert.Contains(t, artifacts[1].Content, "toHaveClass('hero-banner')")

	assert.Equal(t, "HeroBanner.stories.tsx", artifacts[2].Path)
	assert.Contains(t, artifacts[2].Content, "title: 'Components/HeroBanner',")
}

func TestComponentGeneratorDefaults(t *testing.T) {
	schema := heroSchema()
	schema.Fields[1].Settings.DefaultValue = 3

	artifacts, err := NewComponentGenerator().Generate(schema, DefaultOptions())
	require.NoError(t, err)
	assert.Contains(t, artifacts[0].Content, "count = 3")
}

func TestStylesheetGenerator(t *testing.T) {
	artifacts, err := NewStylesheetGenerator().Generate(heroSchema(), DefaultOptions())
	require.NoError(t, err)
	require.Len(t, artifacts, 1)

	assert.Equal(t, "hero-banner.css", artifacts[0].Path)
	content := artifacts[0].Content
	assert.Contains(t, content, ".hero-banner {")
	assert.Contains(t, content, ".hero-banner__title {")
	assert.Contains(t, content, ".hero-banner__footer {")
	assert.NotContains(t, content, "/*", "debug comments disabled by default")
}

func TestLibraryGenerator(t *testing.T) {
	opts := DefaultOptions()
	opts.IndexFileRequested = true

	artifacts, err := NewLibraryGenerator().Generate(heroSchema(), opts)
	require.NoError(t, err)
	require.Len(t, artifacts, 1)

	assert.Equal(t, "hero_banner.libraries.yml", artifacts[0].Path)
	content := artifacts[0].Content
	assert.Contains(t, content, "bundle: hero_banner")
	assert.Contains(t, content, "- hero-banner.css")
	assert.Contains(t, content, "- HeroBanner.jsx")
	assert.Contains(t, content, "- index.js")
	assert.Contains(t, content, "- hero_banner.html.twig")
	assert.NotContains(t, content, "clientOnly")
}

func TestLibraryGeneratorClientOnly(t *testing.T) {
	schema := heroSchema()
	schema.Rendering.ServerSide = false

	artifacts, err := NewLibraryGenerator().Generate(schema, DefaultOptions())
	require.NoError(t, err)
	content := artifacts[0].Content
	assert.Contains(t, content, "clientOnly: true")
	assert.False(t, strings.Contains(content, ".html.twig"), "client-only bundle must not list a template")
}

// Regenerating a manifest from a schema and rebuilding the schema from that
// manifest must not change field storage types.
func TestManifestRoundTripKeepsStorageTypes(t *testing.T) {
	schema := heroSchema()
	schema.Fields = append(schema.Fields, bundle.FieldDefinition{
		Name: "cs_body", Type: bundle.FieldText, Label: "Body", Provenance: bundle.ProvenanceManifest,
	})

	m, err := NewManifestGenerator().Build(schema)
	require.NoError(t, err)

	fieldTypes, ok := m.Metadata["fieldTypes"].(map[string]any)
	require.True(t, ok)
	// "text" maps to the string tag like three other field types; only the
	// recorded storage type disambiguates on the way back.
	assert.Equal(t, "text", fieldTypes["body"])
}
