package generate

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/uiforge/compsync/pkg/bundle"
)

// libraryEntry is the serialized shape of one bundle's asset listing.
type libraryEntry struct {
	Bundle     string   `yaml:"bundle"`
	CSS        []string `yaml:"css,omitempty"`
	JS         []string `yaml:"js,omitempty"`
	Templates  []string `yaml:"templates,omitempty"`
	ClientOnly bool     `yaml:"clientOnly,omitempty"`
}

// LibraryGenerator emits the asset library manifest: which generated files
// a bundle needs for each rendering mode.
type LibraryGenerator struct{}

// NewLibraryGenerator returns the library manifest generator.
func NewLibraryGenerator() *LibraryGenerator {
	return &LibraryGenerator{}
}

func (g *LibraryGenerator) Name() string { return "library" }

// IsApplicable always holds: every bundle gets an asset listing.
func (g *LibraryGenerator) IsApplicable(_ *bundle.Schema) bool { return true }

func (g *LibraryGenerator) Generate(schema *bundle.Schema, opts Options) ([]Artifact, error) {
	componentName := pascal(schema.BundleID)
	ext := "jsx"
	if opts.TypedOutput {
		ext = "tsx"
	}

	entry := libraryEntry{
		Bundle:     schema.BundleID,
		CSS:        []string{kebab(schema.BundleID) + ".css"},
		ClientOnly: schema.Rendering.ClientSide && !schema.Rendering.ServerSide,
	}
	if schema.Rendering.ClientSide {
		entry.JS = append(entry.JS, fmt.Sprintf("%s.%s", componentName, ext))
		if opts.IndexFileRequested {
			indexExt := "js"
			if opts.TypedOutput {
				indexExt = "ts"
			}
			entry.JS = append(entry.JS, "index."+indexExt)
		}
	}
	if schema.Rendering.ServerSide {
		entry.Templates = append(entry.Templates, schema.BundleID+".html.twig")
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(entry); err != nil {
		return nil, fmt.Errorf("failed to serialize library manifest for %s: %w", schema.BundleID, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to serialize library manifest for %s: %w", schema.BundleID, err)
	}

	return []Artifact{{
		Path:    schema.BundleID + ".libraries.yml",
		Content: buf.String(),
	}}, nil
}
