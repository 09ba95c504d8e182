// Package generate turns a bundle's field schema into the textual artifacts
// that render the component: server template, interactive component,
// stylesheet, asset library manifest and a regenerated component manifest.
//
// Generators are pure: they produce text from (schema, options) and never
// touch the filesystem. Writing is the orchestrator's job, routed through
// safeio.
package generate

import (
	"fmt"
	"sort"

	"github.com/uiforge/compsync/pkg/bundle"
)

// NamingStyle selects the class-name convention shared by the template and
// stylesheet generators.
type NamingStyle string

const (
	// NamingMinimal emits flat kebab-case class names.
	NamingMinimal NamingStyle = "minimal"
	// NamingBEM emits block__element class names.
	NamingBEM NamingStyle = "bem"
	// NamingFramework emits framework-conventional c-prefixed names.
	NamingFramework NamingStyle = "framework"
)

// Options is the enumerated configuration every generator receives.
type Options struct {
	Overwrite             bool        `json:"overwrite"`
	BackupBeforeOverwrite bool        `json:"backup_before_overwrite"`
	NamingStyle           NamingStyle `json:"naming_style"`
	IncludeDebugComments  bool        `json:"include_debug_comments"`
	// TypedOutput switches the interactive component to TypeScript.
	TypedOutput bool `json:"typed_output"`
	// TestFileRequested adds a smoke test beside the component.
	TestFileRequested bool `json:"test_file_requested"`
	// StoryFileRequested adds a catalog/story file beside the component.
	StoryFileRequested bool `json:"story_file_requested"`
	// IndexFileRequested adds an index re-export file.
	IndexFileRequested bool `json:"index_file_requested"`
}

// DefaultOptions returns the options used when the caller specifies none.
func DefaultOptions() Options {
	return Options{
		BackupBeforeOverwrite: true,
		NamingStyle:           NamingBEM,
	}
}

// Artifact is one generated file: a path relative to the component's output
// directory plus its full content.
type Artifact struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Generator produces the artifacts of one output kind.
type Generator interface {
	// Name is the registry discriminator ("template", "component", ...).
	Name() string
	// IsApplicable reports whether the schema wants this output at all
	// (for example, no server template for a client-only component).
	IsApplicable(schema *bundle.Schema) bool
	// Generate builds the artifacts. Pure; no filesystem access.
	Generate(schema *bundle.Schema, opts Options) ([]Artifact, error)
}

// Registry maps discriminator strings to generators. Generators register
// explicitly at startup; there is no implicit discovery.
type Registry struct {
	generators map[string]Generator
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{generators: make(map[string]Generator)}
}

// DefaultRegistry returns a registry with the standard generator set.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(NewManifestGenerator())
	r.MustRegister(NewTemplateGenerator())
	r.MustRegister(NewComponentGenerator())
	r.MustRegister(NewStylesheetGenerator())
	r.MustRegister(NewLibraryGenerator())
	return r
}

// Register adds a generator under its name.
func (r *Registry) Register(g Generator) error {
	if _, exists := r.generators[g.Name()]; exists {
		return fmt.Errorf("generator %q already registered", g.Name())
	}
	r.generators[g.Name()] = g
	return nil
}

// MustRegister panics on a duplicate name. Used for the builtin set.
func (r *Registry) MustRegister(g Generator) {
	if err := r.Register(g); err != nil {
		panic(err)
	}
}

// Get returns the generator for name.
func (r *Registry) Get(name string) (Generator, bool) {
	g, ok := r.generators[name]
	return g, ok
}

// Names returns the registered discriminators, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.generators))
	for name := range r.generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
