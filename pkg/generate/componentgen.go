package generate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aymerick/raymond"

	"github.com/uiforge/compsync/pkg/bundle"
	"github.com/uiforge/compsync/pkg/manifest"
	"github.com/uiforge/compsync/pkg/typemap"
)

// Triple-stache interpolation throughout: these templates emit source code,
// and HTML-escaping quotes would corrupt it.
const componentTemplate = `{{#if debug}}// Generated interactive component for {{{bundleId}}}. Regenerated on sync; do not edit by hand.
{{/if}}import React from 'react';

{{#if typed}}export interface {{{componentName}}}Props {
{{#each params}}  {{{name}}}{{#unless required}}?{{/unless}}: {{{tsType}}};
{{/each}}  slots?: Record<string, React.ReactNode>;
}

{{/if}}export function {{{componentName}}}({{{paramBlock}}}{{#if typed}}: {{{componentName}}}Props{{/if}}) {
  return (
    <div className="{{{rootClass}}}">
{{#each params}}      { {{{name}}} != null && <div className="{{{className}}}">{ String({{{name}}}) }</div> }
{{/each}}{{#each slotParams}}      <div className="{{{className}}}">{ slots?.{{{name}}} }</div>
{{/each}}    </div>
  );
}
`

const testTemplate = `import { render } from '@testing-library/react';
import { {{{componentName}}} } from './{{{componentName}}}';

test('renders {{{componentName}}} root element', () => {
  const { container } = render(<{{{componentName}}} />);
  expect(container.firstChild).toHaveClass('{{{rootClass}}}');
});
`

const indexTemplate = `export { {{{componentName}}} } from './{{{componentName}}}';
`

const storyTemplate = `import { {{{componentName}}} } from './{{{componentName}}}';

export default {
  title: 'Components/{{{componentName}}}',
  component: {{{componentName}}},
};

export const Default = {
  args: {
{{#each params}}{{#if sample}}    {{{name}}}: {{{sample}}},
{{/if}}{{/each}}  },
};
`

// ComponentGenerator emits the client-side interactive component: one
// destructured parameter per value field plus a slots parameter, typed when
// requested, with optional smoke test, index re-export and catalog story.
type ComponentGenerator struct{}

// NewComponentGenerator returns the interactive component generator.
func NewComponentGenerator() *ComponentGenerator {
	return &ComponentGenerator{}
}

func (g *ComponentGenerator) Name() string { return "component" }

func (g *ComponentGenerator) IsApplicable(schema *bundle.Schema) bool {
	return schema.Rendering.ClientSide
}

func (g *ComponentGenerator) Generate(schema *bundle.Schema, opts Options) ([]Artifact, error) {
	componentName := pascal(schema.BundleID)
	ext := "jsx"
	indexExt := "js"
	if opts.TypedOutput {
		ext = "tsx"
		indexExt = "ts"
	}

	params := make([]map[string]any, 0, len(schema.Fields))
	slotParams := make([]map[string]any, 0)
	paramNames := make([]string, 0, len(schema.Fields)+1)

	for _, f := range schema.Fields {
		name := camel(templateVar(f))
		if f.IsSlot() {
			slotParams = append(slotParams, map[string]any{
				"name":      name,
				"className": elementClass(opts.NamingStyle, schema.BundleID, f.Name),
			})
			continue
		}

		defaultLiteral := jsLiteral(f.Settings.DefaultValue)
		entry := name
		if defaultLiteral != "" {
			entry = fmt.Sprintf("%s = %s", name, defaultLiteral)
		}
		paramNames = append(paramNames, entry)

		params = append(params, map[string]any{
			"name":      name,
			"required":  f.Required,
			"tsType":    tsType(f),
			"className": elementClass(opts.NamingStyle, schema.BundleID, f.Name),
			"sample":    sampleLiteral(f),
		})
	}
	paramNames = append(paramNames, "slots")

	ctx := map[string]any{
		"bundleId":      schema.BundleID,
		"componentName": componentName,
		"rootClass":     rootClass(opts.NamingStyle, schema.BundleID),
		"params":        params,
		"slotParams":    slotParams,
		"paramBlock":    "{ " + strings.Join(paramNames, ", ") + " }",
		"typed":         opts.TypedOutput,
		"debug":         opts.IncludeDebugComments,
	}

	main, err := raymond.Render(componentTemplate, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to render component for %s: %w", schema.BundleID, err)
	}

	artifacts := []Artifact{{
		Path:    fmt.Sprintf("%s.%s", componentName, ext),
		Content: main,
	}}

	if opts.TestFileRequested {
		out, err := raymond.Render(testTemplate, ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to render smoke test for %s: %w", schema.BundleID, err)
		}
		artifacts = append(artifacts, Artifact{
			Path:    fmt.Sprintf("%s.test.%s", componentName, ext),
			Content: out,
		})
	}

	if opts.IndexFileRequested {
		out, err := raymond.Render(indexTemplate, ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to render index for %s: %w", schema.BundleID, err)
		}
		artifacts = append(artifacts, Artifact{
			Path:    "index." + indexExt,
			Content: out,
		})
	}

	if opts.StoryFileRequested {
		out, err := raymond.Render(storyTemplate, ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to render story for %s: %w", schema.BundleID, err)
		}
		artifacts = append(artifacts, Artifact{
			Path:    fmt.Sprintf("%s.stories.%s", componentName, ext),
			Content: out,
		})
	}

	return artifacts, nil
}

// tsType maps a field to its TypeScript parameter type through the type
// mapper's property tag.
func tsType(f bundle.FieldDefinition) string {
	tag, _ := typemap.FieldTypeToPropertyType(f.Type)
	var base string
	switch tag {
	case manifest.TypeNumber:
		base = "number"
	case manifest.TypeBoolean:
		base = "boolean"
	case manifest.TypeObject:
		base = "Record<string, unknown>"
	case manifest.TypeArray:
		base = "unknown[]"
	default:
		base = "string"
	}
	if f.Multiple && tag != manifest.TypeArray {
		return base + "[]"
	}
	return base
}

// jsLiteral renders a field default as a JavaScript literal, or "" when the
// field has no usable default.
func jsLiteral(v any) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

// sampleLiteral produces a representative story arg for a field.
func sampleLiteral(f bundle.FieldDefinition) string {
	if lit := jsLiteral(f.Settings.DefaultValue); lit != "" {
		return lit
	}
	if len(f.Settings.AllowedValues) > 0 {
		return jsLiteral(f.Settings.AllowedValues[0])
	}
	tag, _ := typemap.FieldTypeToPropertyType(f.Type)
	switch tag {
	case manifest.TypeNumber:
		return "1"
	case manifest.TypeBoolean:
		return "true"
	case manifest.TypeObject, manifest.TypeArray:
		return ""
	default:
		return jsLiteral(f.Label)
	}
}
