package generate

import (
	"fmt"
	"strings"

	"github.com/uiforge/compsync/pkg/bundle"
	"github.com/uiforge/compsync/pkg/diff"
)

// TemplateGenerator emits the server-side twig template: one
// presence-guarded block per value field and one block region per slot.
// Built with a string builder rather than a template engine because the
// output itself is full of mustache delimiters.
type TemplateGenerator struct{}

// NewTemplateGenerator returns the server template generator.
func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{}
}

func (g *TemplateGenerator) Name() string { return "template" }

func (g *TemplateGenerator) IsApplicable(schema *bundle.Schema) bool {
	return schema.Rendering.ServerSide
}

func (g *TemplateGenerator) Generate(schema *bundle.Schema, opts Options) ([]Artifact, error) {
	var b strings.Builder

	if opts.IncludeDebugComments {
		fmt.Fprintf(&b, "{# Generated server template for %s. Regenerated on sync; do not edit by hand. #}\n", schema.BundleID)
	}

	fmt.Fprintf(&b, "<div class=\"%s\">\n", rootClass(opts.NamingStyle, schema.BundleID))

	for _, f := range schema.ValueFields() {
		varName := templateVar(f)
		class := elementClass(opts.NamingStyle, schema.BundleID, f.Name)
		if opts.IncludeDebugComments {
			fmt.Fprintf(&b, "  {# %s (%s) #}\n", f.Label, f.Type)
		}
		fmt.Fprintf(&b, "  {%% if %s %%}\n", varName)
		fmt.Fprintf(&b, "    <div class=\"%s\">{{ %s }}</div>\n", class, varName)
		b.WriteString("  {% endif %}\n")
	}

	for _, f := range schema.SlotFields() {
		varName := templateVar(f)
		class := elementClass(opts.NamingStyle, schema.BundleID, f.Name)
		if opts.IncludeDebugComments {
			fmt.Fprintf(&b, "  {# slot: %s #}\n", f.Label)
		}
		fmt.Fprintf(&b, "  <div class=\"%s\">\n", class)
		fmt.Fprintf(&b, "    {%% block %s %%}{{ %s }}{%% endblock %%}\n", varName, varName)
		b.WriteString("  </div>\n")
	}

	b.WriteString("</div>\n")

	return []Artifact{{
		Path:    schema.BundleID + ".html.twig",
		Content: b.String(),
	}}, nil
}

// templateVar is the twig variable name for a field: the manifest name when
// the field name decodes, the raw field name otherwise. Hyphens are not
// legal in twig identifiers (they parse as subtraction), so the variable
// uses the underscore form; class names keep the hyphenated name.
func templateVar(f bundle.FieldDefinition) string {
	name := f.Name
	if decoded, ok := diff.ManifestName(f.Name); ok {
		name = decoded
	}
	return strings.ReplaceAll(name, "-", "_")
}
