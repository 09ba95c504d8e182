package generate

import (
	"fmt"

	"github.com/aymerick/raymond"

	"github.com/uiforge/compsync/pkg/bundle"
)

const stylesheetTemplate = `{{#if debug}}/* Generated stylesheet for {{{bundleId}}}. Regenerated on sync; do not edit by hand. */
{{/if}}.{{{rootClass}}} {
  display: block;
}

{{#each elements}}.{{{class}}} {
}

{{/each}}`

// StylesheetGenerator emits one rule block for the root element and one per
// field and slot, using the same naming convention as the template
// generator so class names line up across artifacts.
type StylesheetGenerator struct{}

// NewStylesheetGenerator returns the stylesheet generator.
func NewStylesheetGenerator() *StylesheetGenerator {
	return &StylesheetGenerator{}
}

func (g *StylesheetGenerator) Name() string { return "stylesheet" }

// IsApplicable always holds: both rendering modes share the stylesheet.
func (g *StylesheetGenerator) IsApplicable(_ *bundle.Schema) bool { return true }

func (g *StylesheetGenerator) Generate(schema *bundle.Schema, opts Options) ([]Artifact, error) {
	elements := make([]map[string]any, 0, len(schema.Fields))
	for _, f := range schema.Fields {
		elements = append(elements, map[string]any{
			"class": elementClass(opts.NamingStyle, schema.BundleID, f.Name),
		})
	}

	out, err := raymond.Render(stylesheetTemplate, map[string]any{
		"bundleId":  schema.BundleID,
		"rootClass": rootClass(opts.NamingStyle, schema.BundleID),
		"elements":  elements,
		"debug":     opts.IncludeDebugComments,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render stylesheet for %s: %w", schema.BundleID, err)
	}

	return []Artifact{{
		Path:    kebab(schema.BundleID) + ".css",
		Content: out,
	}}, nil
}
