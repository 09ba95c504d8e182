package orch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/uiforge/compsync/pkg/bundle"
	"github.com/uiforge/compsync/pkg/diff"
	"github.com/uiforge/compsync/pkg/generate"
	"github.com/uiforge/compsync/pkg/logger"
	"github.com/uiforge/compsync/pkg/manifest"
	"github.com/uiforge/compsync/pkg/safeio"
	"github.com/uiforge/compsync/pkg/typemap"
)

// DefaultGenerators is the reverse-sync generator order when the caller
// configures none. The manifest comes first so a failed template never
// leaves a bundle without its source-of-truth file.
var DefaultGenerators = []string{"manifest", "template", "component", "stylesheet", "library"}

// Config tunes one orchestrator instance.
type Config struct {
	// OutputRoot is the directory under which each bundle gets its own
	// component subdirectory for generated artifacts.
	OutputRoot string
	// Generators is the requested reverse-sync generator order. Empty
	// means DefaultGenerators.
	Generators []string
	// Options is passed to every generator.
	Options generate.Options
	// MaxFileSize caps a single artifact write. Zero means no limit.
	MaxFileSize int64
	// AllowedRoots for the safe writer. Empty defaults to {OutputRoot}.
	AllowedRoots []string
	// DryRun reports what would be written without writing.
	DryRun bool
	// Force skips change detection and regenerates everything.
	Force bool
}

// Orchestrator coordinates forward and reverse sync for bundles. All
// collaborators are injected; there are no global lookups.
type Orchestrator struct {
	store     bundle.SchemaStore
	manifests *manifest.Store
	registry  *generate.Registry
	listeners []Listener
	cfg       Config
	state     State
}

// New builds an orchestrator. A nil registry gets the default generator
// set.
func New(store bundle.SchemaStore, manifests *manifest.Store, registry *generate.Registry, cfg Config) *Orchestrator {
	if registry == nil {
		registry = generate.DefaultRegistry()
	}
	if len(cfg.Generators) == 0 {
		cfg.Generators = DefaultGenerators
	}
	if len(cfg.AllowedRoots) == 0 && cfg.OutputRoot != "" {
		cfg.AllowedRoots = []string{cfg.OutputRoot}
	}
	return &Orchestrator{
		store:     store,
		manifests: manifests,
		registry:  registry,
		cfg:       cfg,
		state:     StateIdle,
	}
}

// AddListener appends a listener; listeners run in registration order.
func (o *Orchestrator) AddListener(l Listener) {
	o.listeners = append(o.listeners, l)
}

// State returns the orchestrator's current run state.
func (o *Orchestrator) State() State {
	return o.state
}

func (o *Orchestrator) transition(s State) {
	logger.Debug("Orchestrator state change",
		logger.String("from", string(o.state)), logger.String("to", string(s)))
	o.state = s
}

func (o *Orchestrator) preSync(ctx *SyncContext) error {
	for _, l := range o.listeners {
		l.PreSync(ctx)
	}
	if ctx.Cancelled() {
		return &SyncCancelledError{BundleID: ctx.BundleID, Reason: ctx.reason}
	}
	return nil
}

func (o *Orchestrator) postSync(ctx *SyncContext, record *SyncRecord) {
	for _, l := range o.listeners {
		l.PostSync(ctx, record)
	}
}

// ForwardSync propagates a manifest into the bundle field schema, creating
// the bundle when absent. No artifacts are written; the manifest generator
// runs only to validate that the resulting schema round-trips.
func (o *Orchestrator) ForwardSync(m *manifest.ComponentManifest) (*SyncRecord, error) {
	ctx := &SyncContext{BundleID: m.ID, Direction: Forward}
	if err := o.preSync(ctx); err != nil {
		return nil, err
	}

	record := newRecord(m.ID, Forward)
	defer o.transition(StateIdle)

	o.transition(StateDiffing)

	created := false
	if !o.store.HasBundle(m.ID) {
		if o.cfg.DryRun {
			record.Message = "would create bundle"
			o.transition(StateReporting)
			record.finish()
			o.postSync(ctx, record)
			return record, nil
		}
		rendering := bundle.RenderingConfiguration{
			ServerSide:  m.Rendering.ServerSide,
			ClientSide:  m.Rendering.ClientSide,
			DefaultMode: m.Rendering.DefaultMode,
		}
		if err := o.store.CreateBundle(m.ID, m.Name, rendering, bundle.ProvenanceManifest); err != nil {
			return nil, fmt.Errorf("failed to create bundle %s: %w", m.ID, err)
		}
		created = true
	}

	schema, err := o.store.GetSchema(m.ID)
	if err != nil {
		return nil, fmt.Errorf("schema introspection failed for %s: %w", m.ID, err)
	}

	if !created && !o.cfg.Force && !diff.NeedsSync(m, schema) {
		record.Message = "schema up to date"
		o.transition(StateReporting)
		record.finish()
		o.postSync(ctx, record)
		return record, nil
	}

	changeset, err := diff.Diff(m, schema)
	if err != nil {
		return nil, err
	}

	o.applyChangeset(changeset, record)
	o.roundTripCheck(m)

	o.transition(StateReporting)
	record.finish()
	o.postSync(ctx, record)
	return record, nil
}

// applyChangeset mutates the schema store per the diff. Each field
// operation is recorded; one failure does not stop the remaining
// operations.
func (o *Orchestrator) applyChangeset(cs *diff.Changeset, record *SyncRecord) {
	if o.cfg.DryRun {
		record.Message = fmt.Sprintf("dry run: %d to add, %d to update, %d to remove",
			len(cs.FieldsToAdd), len(cs.FieldsToUpdate), len(cs.FieldsToRemove))
		return
	}

	for _, change := range cs.FieldsToAdd {
		result := ArtifactResult{Generator: "field-add", Path: change.Definition.Name}
		if err := o.store.AddField(cs.BundleID, change.Definition); err != nil {
			result.Message = err.Error()
		} else {
			result.Success = true
			result.Written = true
		}
		record.add(result)
	}

	for _, change := range cs.FieldsToUpdate {
		result := ArtifactResult{Generator: "field-update", Path: change.Definition.Name, Message: change.Reason}
		if err := o.store.UpdateField(cs.BundleID, change.Definition); err != nil {
			result.Message = err.Error()
		} else {
			result.Success = true
			result.Written = true
		}
		record.add(result)
	}

	for _, name := range cs.FieldsToRemove {
		result := ArtifactResult{Generator: "field-remove", Path: name}
		if err := o.store.RemoveField(cs.BundleID, name); err != nil {
			result.Message = err.Error()
		} else {
			result.Success = true
			result.Written = true
		}
		record.add(result)
	}
}

// roundTripCheck regenerates a manifest from the just-synced schema and
// compares prop types against the source manifest. Mismatches are logged
// as warnings; they never fail the run.
func (o *Orchestrator) roundTripCheck(m *manifest.ComponentManifest) {
	schema, err := o.store.GetSchema(m.ID)
	if err != nil {
		logger.Warn("Round-trip check skipped", logger.String("bundle", m.ID), logger.Err(err))
		return
	}

	regenerated, err := generate.NewManifestGenerator().Build(schema)
	if err != nil {
		logger.Warn("Round-trip check failed to rebuild manifest",
			logger.String("bundle", m.ID), logger.Err(err))
		return
	}

	for _, entry := range m.Props {
		back, ok := regenerated.Props.Get(entry.Name)
		if !ok {
			logger.Warn("Round-trip check: prop missing after sync",
				logger.String("bundle", m.ID), logger.String("prop", entry.Name))
			continue
		}
		if back.Type != entry.Schema.Type {
			logger.Warn("Round-trip check: prop type drifted",
				logger.String("bundle", m.ID), logger.String("prop", entry.Name),
				logger.String("original", string(entry.Schema.Type)),
				logger.String("regenerated", string(back.Type)))
		}
	}
}

// ReverseSync regenerates all requested artifacts from the bundle's
// current field schema. A single generator or write failure is recorded
// and the run continues.
func (o *Orchestrator) ReverseSync(bundleID string) (*SyncRecord, error) {
	return o.reverseSync(bundleID, nil, o.cfg.Options.Overwrite)
}

// reverseSync optionally restricts writing to the given artifact paths
// (used by CheckAndSync to repair only stale artifacts). A nil filter
// writes everything. The overwrite flag is threaded explicitly so
// CheckAndSync can force replacement without mutating shared config.
func (o *Orchestrator) reverseSync(bundleID string, onlyPaths map[string]bool, overwrite bool) (*SyncRecord, error) {
	ctx := &SyncContext{BundleID: bundleID, Direction: Reverse}
	if err := o.preSync(ctx); err != nil {
		return nil, err
	}

	record := newRecord(bundleID, Reverse)
	defer o.transition(StateIdle)

	o.transition(StateDiffing)
	schema, err := o.store.GetSchema(bundleID)
	if err != nil {
		return nil, fmt.Errorf("schema introspection failed for %s: %w", bundleID, err)
	}

	o.transition(StateGenerating)
	type pending struct {
		generator string
		artifact  generate.Artifact
	}
	var queue []pending

	for _, name := range o.cfg.Generators {
		gen, ok := o.registry.Get(name)
		if !ok {
			record.add(ArtifactResult{Generator: name, Message: "no such generator"})
			continue
		}
		if !gen.IsApplicable(schema) {
			logger.Debug("Generator not applicable",
				logger.String("generator", name), logger.String("bundle", bundleID))
			continue
		}
		artifacts, err := gen.Generate(schema, o.cfg.Options)
		if err != nil {
			record.add(ArtifactResult{Generator: name, Message: err.Error()})
			continue
		}
		for _, a := range artifacts {
			queue = append(queue, pending{generator: name, artifact: a})
		}
	}

	o.transition(StateWriting)
	for _, p := range queue {
		path := filepath.Join(o.cfg.OutputRoot, bundleID, p.artifact.Path)
		if onlyPaths != nil && !onlyPaths[path] {
			record.add(ArtifactResult{Generator: p.generator, Path: path, Success: true, Message: "up to date"})
			continue
		}
		record.add(o.writeArtifact(p.generator, path, p.artifact.Content, overwrite))
	}

	o.transition(StateReporting)
	record.finish()
	o.postSync(ctx, record)
	return record, nil
}

// writeArtifact routes one artifact through the safe writer and translates
// writer errors into per-artifact results. Writer-level failures are never
// fatal to the run.
func (o *Orchestrator) writeArtifact(generator, path, content string, overwrite bool) ArtifactResult {
	result := ArtifactResult{Generator: generator, Path: path}

	if o.cfg.DryRun {
		result.Success = true
		result.Message = "dry run"
		return result
	}

	writeResult, err := safeio.WriteFile(path, []byte(content), safeio.WriteOptions{
		Overwrite:    overwrite,
		Backup:       o.cfg.Options.BackupBeforeOverwrite,
		MaxSizeBytes: o.cfg.MaxFileSize,
		AllowedRoots: o.cfg.AllowedRoots,
	})
	if err != nil {
		var existsErr *safeio.FileExistsError
		if errors.As(err, &existsErr) {
			result.Message = "already exists"
			return result
		}
		result.Message = err.Error()
		return result
	}

	result.Success = true
	result.Written = writeResult.Written
	result.BackupPath = writeResult.BackupPath

	if o.manifests != nil {
		o.manifests.Invalidate(path)
	}
	return result
}

// CheckAndSync is the speculative entry point: it compares every expected
// artifact against what is on disk and rewrites only the missing or stale
// ones. When everything matches it makes no writes at all, so it is safe
// to call on every administrative page load.
func (o *Orchestrator) CheckAndSync(bundleID string) (*SyncRecord, error) {
	schema, err := o.store.GetSchema(bundleID)
	if err != nil {
		return nil, fmt.Errorf("schema introspection failed for %s: %w", bundleID, err)
	}

	stale := make(map[string]bool)
	total := 0
	for _, name := range o.cfg.Generators {
		gen, ok := o.registry.Get(name)
		if !ok || !gen.IsApplicable(schema) {
			continue
		}
		artifacts, err := gen.Generate(schema, o.cfg.Options)
		if err != nil {
			// Let reverseSync surface the generation failure properly.
			stale[filepath.Join(o.cfg.OutputRoot, bundleID, name)] = true
			continue
		}
		for _, a := range artifacts {
			total++
			path := filepath.Join(o.cfg.OutputRoot, bundleID, a.Path)
			existing, readErr := os.ReadFile(path) // #nosec G304 -- path is under the configured output root
			if readErr != nil || string(existing) != a.Content {
				stale[path] = true
			}
		}
	}

	if len(stale) == 0 && !o.cfg.Force {
		// Listeners observe no-op runs too, and may still veto them.
		ctx := &SyncContext{BundleID: bundleID, Direction: Reverse}
		if err := o.preSync(ctx); err != nil {
			return nil, err
		}
		record := newRecord(bundleID, Reverse)
		record.Message = fmt.Sprintf("all %d artifacts up to date", total)
		record.finish()
		o.postSync(ctx, record)
		return record, nil
	}

	// Stale artifacts must be replaced regardless of the configured
	// overwrite flag; backups still apply.
	if o.cfg.Force {
		return o.reverseSync(bundleID, nil, true)
	}
	return o.reverseSync(bundleID, stale, true)
}

// ValidateArtifacts reports, without writing anything, whether each
// expected artifact exists on disk and matches what the generators would
// produce today.
func (o *Orchestrator) ValidateArtifacts(bundleID string) ([]ArtifactResult, error) {
	schema, err := o.store.GetSchema(bundleID)
	if err != nil {
		return nil, fmt.Errorf("schema introspection failed for %s: %w", bundleID, err)
	}

	var results []ArtifactResult
	for _, name := range o.cfg.Generators {
		gen, ok := o.registry.Get(name)
		if !ok || !gen.IsApplicable(schema) {
			continue
		}
		artifacts, err := gen.Generate(schema, o.cfg.Options)
		if err != nil {
			results = append(results, ArtifactResult{Generator: name, Message: err.Error()})
			continue
		}
		for _, a := range artifacts {
			path := filepath.Join(o.cfg.OutputRoot, bundleID, a.Path)
			result := ArtifactResult{Generator: name, Path: path}
			existing, readErr := os.ReadFile(path) // #nosec G304 -- path is under the configured output root
			switch {
			case readErr != nil:
				result.Message = "missing"
			case string(existing) != a.Content:
				result.Message = "stale"
			default:
				result.Success = true
				result.Message = "ok"
			}
			results = append(results, result)
		}
	}
	return results, nil
}

// MappingWarnings surfaces type-mapping fallbacks for a schema without
// running a sync. Used by the validate command.
func MappingWarnings(schema *bundle.Schema) []string {
	var warnings []string
	for _, f := range schema.ValueFields() {
		if _, err := typemap.FieldTypeToPropertyType(f.Type); err != nil {
			warnings = append(warnings, fmt.Sprintf("field %s: %v", f.Name, err))
		}
	}
	return warnings
}
