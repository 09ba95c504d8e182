package cmd

import (
	"fmt"

	"github.com/uiforge/compsync/pkg/bundle"
	"github.com/uiforge/compsync/pkg/config"
	"github.com/uiforge/compsync/pkg/generate"
	"github.com/uiforge/compsync/pkg/manifest"
	"github.com/uiforge/compsync/pkg/orch"
	"github.com/uiforge/compsync/pkg/safeio"
)

// pipeline wires the stores and orchestrator configuration every command
// shares.
type pipeline struct {
	cfg       *config.Config
	store     *bundle.FileStore
	manifests *manifest.Store
	orchCfg   orch.Config
}

// newPipeline loads configuration and builds the collaborators.
func newPipeline(force, dryRun bool) (*pipeline, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := bundle.NewFileStore(cfg.Sync.OutputDir)
	if err != nil {
		return nil, err
	}

	allowedRoots := cfg.Sync.AllowedRoots
	if len(allowedRoots) == 0 {
		allowedRoots = []string{cfg.Sync.OutputDir}
	}

	manifests := manifest.NewStore()
	manifests.WriterOptions = safeio.WriteOptions{
		Backup:       cfg.Sync.Backup,
		MaxSizeBytes: cfg.Sync.MaxFileSize,
		AllowedRoots: allowedRoots,
	}

	opts := generate.Options{
		BackupBeforeOverwrite: cfg.Sync.Backup,
		NamingStyle:           generate.NamingStyle(cfg.Generators.NamingStyle),
		IncludeDebugComments:  cfg.Generators.DebugComments,
		TypedOutput:           cfg.Generators.Typed,
		TestFileRequested:     cfg.Generators.WithTests,
		StoryFileRequested:    cfg.Generators.WithStories,
		IndexFileRequested:    cfg.Generators.WithIndex,
	}

	return &pipeline{
		cfg:       cfg,
		store:     store,
		manifests: manifests,
		orchCfg: orch.Config{
			OutputRoot:   cfg.Sync.OutputDir,
			Generators:   cfg.Generators.Enabled,
			Options:      opts,
			MaxFileSize:  cfg.Sync.MaxFileSize,
			AllowedRoots: allowedRoots,
			DryRun:       dryRun,
			Force:        force,
		},
	}, nil
}

// batch builds a batch runner over the pipeline.
func (p *pipeline) batch() *orch.Batch {
	return &orch.Batch{
		Store:     p.store,
		Manifests: p.manifests,
		Config:    p.orchCfg,
		Workers:   p.cfg.Sync.Workers,
	}
}

// orchestrator builds a single-run orchestrator over the pipeline.
func (p *pipeline) orchestrator() *orch.Orchestrator {
	return orch.New(p.store, p.manifests, nil, p.orchCfg)
}
