// Package manifest models declarative component manifests and their on-disk
// store. A manifest describes one UI component: typed props, named slots,
// and the rendering modes the component supports.
package manifest

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// PropertyType is the manifest-side type tag of a prop.
type PropertyType string

const (
	TypeString  PropertyType = "string"
	TypeNumber  PropertyType = "number"
	TypeBoolean PropertyType = "boolean"
	TypeObject  PropertyType = "object"
	TypeArray   PropertyType = "array"
)

// ValidPropertyType reports whether t is one of the five supported tags.
func ValidPropertyType(t PropertyType) bool {
	switch t {
	case TypeString, TypeNumber, TypeBoolean, TypeObject, TypeArray:
		return true
	}
	return false
}

// PropertySchema describes one typed prop of a component.
type PropertySchema struct {
	Type      PropertyType `yaml:"type" json:"type"`
	Title     string       `yaml:"title,omitempty" json:"title,omitempty"`
	Required  bool         `yaml:"required,omitempty" json:"required,omitempty"`
	Default   any          `yaml:"default,omitempty" json:"default,omitempty"`
	Enum      []string     `yaml:"enum,omitempty" json:"enum,omitempty"`
	MaxLength int          `yaml:"maxLength,omitempty" json:"maxLength,omitempty"`
	Minimum   *float64     `yaml:"minimum,omitempty" json:"minimum,omitempty"`
	Maximum   *float64     `yaml:"maximum,omitempty" json:"maximum,omitempty"`
	// Format is a semantic hint such as email, uri or date-time.
	Format string `yaml:"format,omitempty" json:"format,omitempty"`
}

// SlotSchema describes a named region accepting arbitrary nested content.
type SlotSchema struct {
	Title       string `yaml:"title,omitempty" json:"title,omitempty"`
	Required    bool   `yaml:"required,omitempty" json:"required,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// RenderingCapabilities declares which rendering modes a component supports.
type RenderingCapabilities struct {
	ServerSide  bool   `yaml:"serverSide" json:"serverSide"`
	ClientSide  bool   `yaml:"clientSide" json:"clientSide"`
	DefaultMode string `yaml:"default,omitempty" json:"default,omitempty"`
}

// PropertyEntry pairs a prop name with its schema. Manifests keep props as
// an ordered list so serialization round-trips preserve author ordering.
type PropertyEntry struct {
	Name   string
	Schema PropertySchema
}

// SlotEntry pairs a slot name with its schema.
type SlotEntry struct {
	Name   string
	Schema SlotSchema
}

// Properties is an ordered name -> PropertySchema mapping.
type Properties []PropertyEntry

// Slots is an ordered name -> SlotSchema mapping.
type Slots []SlotEntry

// Get returns the schema for name, if present.
func (p Properties) Get(name string) (PropertySchema, bool) {
	for _, e := range p {
		if e.Name == name {
			return e.Schema, true
		}
	}
	return PropertySchema{}, false
}

// Get returns the schema for name, if present.
func (s Slots) Get(name string) (SlotSchema, bool) {
	for _, e := range s {
		if e.Name == name {
			return e.Schema, true
		}
	}
	return SlotSchema{}, false
}

// ComponentManifest is the parsed form of one component manifest file.
type ComponentManifest struct {
	// ID is the stable machine name, derived from the file name for
	// discovered manifests.
	ID          string                `yaml:"-" json:"id"`
	Name        string                `yaml:"name" json:"name"`
	Description string                `yaml:"description,omitempty" json:"description,omitempty"`
	Props       Properties            `yaml:"props,omitempty" json:"props,omitempty"`
	Slots       Slots                 `yaml:"slots,omitempty" json:"slots,omitempty"`
	Rendering   RenderingCapabilities `yaml:"rendering" json:"rendering"`
	Metadata    map[string]any        `yaml:"metadata,omitempty" json:"metadata,omitempty"`

	// SourcePath is the file the manifest was parsed from, empty for
	// manifests built by the reverse generator.
	SourcePath string `yaml:"-" json:"-"`
}

// MarshalYAML emits props as a mapping in entry order.
func (p Properties) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range p {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: e.Name}
		valNode := &yaml.Node{}
		if err := valNode.Encode(e.Schema); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, keyNode, valNode)
	}
	return node, nil
}

// UnmarshalYAML decodes a props mapping preserving document order.
func (p *Properties) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("props must be a mapping, got %s", nodeKind(value))
	}
	out := make(Properties, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		var schema PropertySchema
		if err := value.Content[i+1].Decode(&schema); err != nil {
			return fmt.Errorf("prop %s: %w", value.Content[i].Value, err)
		}
		out = append(out, PropertyEntry{Name: value.Content[i].Value, Schema: schema})
	}
	*p = out
	return nil
}

// MarshalYAML emits slots as a mapping in entry order.
func (s Slots) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range s {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: e.Name}
		valNode := &yaml.Node{}
		if err := valNode.Encode(e.Schema); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, keyNode, valNode)
	}
	return node, nil
}

// UnmarshalYAML decodes a slots mapping preserving document order.
func (s *Slots) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("slots must be a mapping, got %s", nodeKind(value))
	}
	out := make(Slots, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		var schema SlotSchema
		if err := value.Content[i+1].Decode(&schema); err != nil {
			return fmt.Errorf("slot %s: %w", value.Content[i].Value, err)
		}
		out = append(out, SlotEntry{Name: value.Content[i].Value, Schema: schema})
	}
	*s = out
	return nil
}

func nodeKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}

// Validate checks structural invariants that parsing alone cannot catch.
func (m *ComponentManifest) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("manifest has no id")
	}
	for _, e := range m.Props {
		if !ValidPropertyType(e.Schema.Type) {
			return fmt.Errorf("prop %s: unknown type %q", e.Name, e.Schema.Type)
		}
		if _, dup := m.Slots.Get(e.Name); dup {
			return fmt.Errorf("name %s used as both prop and slot", e.Name)
		}
	}
	if !m.Rendering.ServerSide && !m.Rendering.ClientSide {
		return fmt.Errorf("manifest %s declares no rendering mode", m.ID)
	}
	switch m.Rendering.DefaultMode {
	case "", "server", "client":
	default:
		return fmt.Errorf("manifest %s: unknown default rendering mode %q", m.ID, m.Rendering.DefaultMode)
	}
	return nil
}
