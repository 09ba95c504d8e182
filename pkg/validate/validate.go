// Package validate checks manifest documents against the manifest JSON
// schema and verifies generated artifacts without regenerating them.
package validate

import (
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// manifestSchema is the structural contract for component manifest files.
const manifestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name", "rendering"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "description": {"type": "string"},
    "props": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "required": ["type"],
        "properties": {
          "type": {"enum": ["string", "number", "boolean", "object", "array"]},
          "title": {"type": "string"},
          "required": {"type": "boolean"},
          "default": {},
          "enum": {"type": "array", "items": {"type": "string"}},
          "maxLength": {"type": "integer", "minimum": 0},
          "minimum": {"type": "number"},
          "maximum": {"type": "number"},
          "format": {"type": "string"}
        },
        "additionalProperties": false
      }
    },
    "slots": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "properties": {
          "title": {"type": "string"},
          "required": {"type": "boolean"},
          "description": {"type": "string"}
        },
        "additionalProperties": false
      }
    },
    "rendering": {
      "type": "object",
      "properties": {
        "serverSide": {"type": "boolean"},
        "clientSide": {"type": "boolean"},
        "default": {"enum": ["server", "client"]}
      },
      "additionalProperties": false
    },
    "metadata": {"type": "object"}
  },
  "additionalProperties": false
}`

// Issue is one structural problem found in a manifest document.
type Issue struct {
	Path    string `json:"path,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ManifestBytes validates raw YAML manifest content against the manifest
// schema. A nil slice means the document is structurally valid.
func ManifestBytes(content []byte) ([]Issue, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return []Issue{{Message: fmt.Sprintf("not parseable as YAML: %v", err)}}, nil
	}

	schemaLoader := gojsonschema.NewStringLoader(manifestSchema)
	docLoader := gojsonschema.NewGoLoader(doc)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}

	issues := make([]Issue, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		issues = append(issues, Issue{Field: e.Field(), Message: e.Description()})
	}
	return issues, nil
}

// ManifestFile validates one manifest file on disk.
func ManifestFile(path string) ([]Issue, error) {
	content, err := os.ReadFile(path) // #nosec G304 -- path comes from a discovery walk
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	issues, err := ManifestBytes(content)
	if err != nil {
		return nil, err
	}
	for i := range issues {
		issues[i].Path = path
	}
	return issues, nil
}
