package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/uiforge/compsync/internal/watch"
	"github.com/uiforge/compsync/pkg/logger"
	"github.com/uiforge/compsync/pkg/manifest"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch manifest roots and sync components as their manifests change",
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().StringSlice("manifest-root", nil, "Override configured manifest roots")
	watchCmd.Flags().Duration("debounce", 300*time.Millisecond, "Delay before a changed manifest is synced")
}

func runWatch(cmd *cobra.Command, _ []string) error {
	rootsOverride, _ := cmd.Flags().GetStringSlice("manifest-root")
	debounce, _ := cmd.Flags().GetDuration("debounce")

	p, err := newPipeline(false, false)
	if err != nil {
		return err
	}

	roots := p.cfg.Sync.ManifestRoots
	if len(rootsOverride) > 0 {
		roots = rootsOverride
	}

	handler := func(m *manifest.ComponentManifest) {
		o := p.orchestrator()
		if _, err := o.ForwardSync(m); err != nil {
			logger.Error("Forward sync failed",
				logger.String("component", m.ID), logger.Err(err))
			return
		}
		record, err := o.CheckAndSync(m.ID)
		if err != nil {
			logger.Error("Artifact sync failed",
				logger.String("component", m.ID), logger.Err(err))
			return
		}
		for _, a := range record.Artifacts {
			if a.Written {
				logger.Info("Artifact updated",
					logger.String("generator", a.Generator), logger.String("path", a.Path))
			}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return watch.New(p.manifests, handler, debounce).Run(ctx, roots)
}
