package manifest

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format identifies a manifest serialization format. YAML is canonical;
// TOML manifests are accepted on read and converted to YAML when written
// back.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// Manifest file suffixes recognized during discovery.
const (
	SuffixYAML      = ".component.yml"
	SuffixYAMLLong  = ".component.yaml"
	SuffixTOML      = ".component.toml"
)

// FormatForPath returns the serialization format implied by a file name.
func FormatForPath(path string) (Format, bool) {
	switch {
	case strings.HasSuffix(path, SuffixYAML), strings.HasSuffix(path, SuffixYAMLLong):
		return FormatYAML, true
	case strings.HasSuffix(path, SuffixTOML):
		return FormatTOML, true
	}
	return "", false
}

// IDForPath derives the stable component id from a manifest file name.
func IDForPath(path string) string {
	base := filepath.Base(path)
	for _, suffix := range []string{SuffixYAML, SuffixYAMLLong, SuffixTOML} {
		if strings.HasSuffix(base, suffix) {
			return strings.TrimSuffix(base, suffix)
		}
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ManifestParseError reports a malformed manifest file. Discovery treats it
// as fail-soft: the file is skipped and reported, the scan continues.
type ManifestParseError struct {
	Path string
	Err  error
}

func (e *ManifestParseError) Error() string {
	return fmt.Sprintf("failed to parse manifest %s: %v", e.Path, e.Err)
}

func (e *ManifestParseError) Unwrap() error {
	return e.Err
}

// Parse decodes manifest content in the given format.
func Parse(content []byte, format Format, path string) (*ComponentManifest, error) {
	var m ComponentManifest
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(content, &m); err != nil {
			return nil, &ManifestParseError{Path: path, Err: err}
		}
	case FormatTOML:
		decoded, err := parseTOML(content)
		if err != nil {
			return nil, &ManifestParseError{Path: path, Err: err}
		}
		m = *decoded
	default:
		return nil, &ManifestParseError{Path: path, Err: fmt.Errorf("unknown format %q", format)}
	}

	m.ID = IDForPath(path)
	m.SourcePath = path
	if err := m.Validate(); err != nil {
		return nil, &ManifestParseError{Path: path, Err: err}
	}
	return &m, nil
}

// Serialize renders a manifest in its canonical on-disk form (YAML).
func Serialize(m *ComponentManifest) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("failed to serialize manifest %s: %w", m.ID, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to serialize manifest %s: %w", m.ID, err)
	}
	return buf.Bytes(), nil
}

// TOML mirror types. go-toml decodes into maps, so prop and slot order is
// not preserved for TOML manifests; entries are ordered by name instead.

type tomlProperty struct {
	Type      string   `toml:"type"`
	Title     string   `toml:"title"`
	Required  bool     `toml:"required"`
	Default   any      `toml:"default"`
	Enum      []string `toml:"enum"`
	MaxLength int      `toml:"maxLength"`
	Minimum   *float64 `toml:"minimum"`
	Maximum   *float64 `toml:"maximum"`
	Format    string   `toml:"format"`
}

type tomlSlot struct {
	Title       string `toml:"title"`
	Required    bool   `toml:"required"`
	Description string `toml:"description"`
}

type tomlRendering struct {
	ServerSide  bool   `toml:"serverSide"`
	ClientSide  bool   `toml:"clientSide"`
	DefaultMode string `toml:"default"`
}

type tomlManifest struct {
	Name        string                  `toml:"name"`
	Description string                  `toml:"description"`
	Props       map[string]tomlProperty `toml:"props"`
	Slots       map[string]tomlSlot     `toml:"slots"`
	Rendering   tomlRendering           `toml:"rendering"`
	Metadata    map[string]any          `toml:"metadata"`
}

func parseTOML(content []byte) (*ComponentManifest, error) {
	var raw tomlManifest
	if err := toml.Unmarshal(content, &raw); err != nil {
		return nil, err
	}

	m := &ComponentManifest{
		Name:        raw.Name,
		Description: raw.Description,
		Rendering: RenderingCapabilities{
			ServerSide:  raw.Rendering.ServerSide,
			ClientSide:  raw.Rendering.ClientSide,
			DefaultMode: raw.Rendering.DefaultMode,
		},
		Metadata: raw.Metadata,
	}

	for _, name := range sortedKeys(raw.Props) {
		p := raw.Props[name]
		m.Props = append(m.Props, PropertyEntry{
			Name: name,
			Schema: PropertySchema{
				Type:      PropertyType(p.Type),
				Title:     p.Title,
				Required:  p.Required,
				Default:   p.Default,
				Enum:      p.Enum,
				MaxLength: p.MaxLength,
				Minimum:   p.Minimum,
				Maximum:   p.Maximum,
				Format:    p.Format,
			},
		})
	}

	for _, name := range sortedKeys(raw.Slots) {
		s := raw.Slots[name]
		m.Slots = append(m.Slots, SlotEntry{
			Name: name,
			Schema: SlotSchema{
				Title:       s.Title,
				Required:    s.Required,
				Description: s.Description,
			},
		})
	}

	return m, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
