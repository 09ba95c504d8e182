package orch

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/uiforge/compsync/pkg/bundle"
	"github.com/uiforge/compsync/pkg/logger"
	"github.com/uiforge/compsync/pkg/manifest"
)

// BundleSummary is the per-bundle outcome of a batch run.
type BundleSummary struct {
	BundleID string      `json:"bundle_id"`
	Forward  *SyncRecord `json:"forward,omitempty"`
	Reverse  *SyncRecord `json:"reverse,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// Failed reports whether the bundle's run had any failure.
func (s BundleSummary) Failed() bool {
	if s.Error != "" {
		return true
	}
	if s.Forward != nil && !s.Forward.Success {
		return true
	}
	if s.Reverse != nil && !s.Reverse.Success {
		return true
	}
	return false
}

// BatchResult aggregates a batch run over many bundles.
type BatchResult struct {
	Summaries []BundleSummary `json:"summaries"`
}

// Failed counts bundles with any failure.
func (b *BatchResult) Failed() int {
	n := 0
	for _, s := range b.Summaries {
		if s.Failed() {
			n++
		}
	}
	return n
}

// Batch runs sync over many bundles concurrently. Each bundle gets its own
// orchestrator instance; runs only share the schema store and manifest
// cache, both safe for concurrent use, and each run writes only its own
// component subdirectory.
type Batch struct {
	Store     bundle.SchemaStore
	Manifests *manifest.Store
	Config    Config
	Listeners []Listener
	// Workers caps concurrent bundle runs. Zero or negative means 4.
	Workers int
}

func (b *Batch) orchestratorFor() *Orchestrator {
	o := New(b.Store, b.Manifests, nil, b.Config)
	for _, l := range b.Listeners {
		o.AddListener(l)
	}
	return o
}

// SyncManifests forward-syncs every discovered manifest, then reverse-syncs
// the resulting bundles. A single bundle's failure is recorded in its
// summary and the batch continues.
func (b *Batch) SyncManifests(ctx context.Context, manifests []*manifest.ComponentManifest) *BatchResult {
	workers := b.Workers
	if workers <= 0 {
		workers = 4
	}

	var mu sync.Mutex
	result := &BatchResult{}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, m := range manifests {
		m := m
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return nil
			}
			summary := b.syncOne(m)
			mu.Lock()
			result.Summaries = append(result.Summaries, summary)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(result.Summaries, func(i, j int) bool {
		return result.Summaries[i].BundleID < result.Summaries[j].BundleID
	})
	return result
}

func (b *Batch) syncOne(m *manifest.ComponentManifest) BundleSummary {
	summary := BundleSummary{BundleID: m.ID}
	o := b.orchestratorFor()

	forward, err := o.ForwardSync(m)
	if err != nil {
		logger.Error("Forward sync failed", logger.String("bundle", m.ID), logger.Err(err))
		summary.Error = err.Error()
		return summary
	}
	summary.Forward = forward

	reverse, err := o.CheckAndSync(m.ID)
	if err != nil {
		logger.Error("Reverse sync failed", logger.String("bundle", m.ID), logger.Err(err))
		summary.Error = err.Error()
		return summary
	}
	summary.Reverse = reverse

	return summary
}

// SyncBundles reverse-syncs the given bundle ids (no manifest input, e.g.
// bundles edited directly through schema tooling).
func (b *Batch) SyncBundles(ctx context.Context, bundleIDs []string) *BatchResult {
	workers := b.Workers
	if workers <= 0 {
		workers = 4
	}

	var mu sync.Mutex
	result := &BatchResult{}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, id := range bundleIDs {
		id := id
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return nil
			}
			summary := BundleSummary{BundleID: id}
			record, err := b.orchestratorFor().CheckAndSync(id)
			if err != nil {
				logger.Error("Reverse sync failed", logger.String("bundle", id), logger.Err(err))
				summary.Error = err.Error()
			} else {
				summary.Reverse = record
			}
			mu.Lock()
			result.Summaries = append(result.Summaries, summary)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(result.Summaries, func(i, j int) bool {
		return result.Summaries[i].BundleID < result.Summaries[j].BundleID
	})
	return result
}
