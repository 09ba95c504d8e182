package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/uiforge/compsync/pkg/exitcode"
	"github.com/uiforge/compsync/pkg/logger"
	"github.com/uiforge/compsync/pkg/manifest"
	"github.com/uiforge/compsync/pkg/orch"
)

var syncCmd = &cobra.Command{
	Use:   "sync [component-id...]",
	Short: "Sync component manifests with bundle schemas and regenerate artifacts",
	Long: `Sync discovers component manifests, propagates their props and slots into
the bundle field schemas (forward sync), then regenerates any missing or
stale artifacts from the resulting schemas (reverse sync).

With component ids as arguments only those components are synced.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().Bool("force", false, "Ignore change detection and regenerate everything")
	syncCmd.Flags().Bool("dry-run", false, "Report what would change without writing")
	syncCmd.Flags().StringSlice("manifest-root", nil, "Override configured manifest roots")
	syncCmd.Flags().Bool("report-json", false, "Print the batch report as JSON")
}

func runSync(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	rootsOverride, _ := cmd.Flags().GetStringSlice("manifest-root")
	reportJSON, _ := cmd.Flags().GetBool("report-json")

	p, err := newPipeline(force, dryRun)
	if err != nil {
		return err
	}

	roots := p.cfg.Sync.ManifestRoots
	if len(rootsOverride) > 0 {
		roots = rootsOverride
	}

	discovery, err := p.manifests.Discover(roots)
	if err != nil {
		return err
	}
	for _, d := range discovery.Diagnostics {
		logger.Warn("Manifest skipped", logger.String("path", d.Path), logger.String("reason", d.Message))
	}

	manifests := discovery.Manifests
	if len(args) > 0 {
		manifests = filterManifests(manifests, args)
		if len(manifests) == 0 {
			return fmt.Errorf("no manifests matched %v", args)
		}
	}

	result := p.batch().SyncManifests(context.Background(), manifests)

	if reportJSON {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	} else {
		printBatchResult(result)
	}

	if failed := result.Failed(); failed > 0 {
		if failed == len(result.Summaries) {
			os.Exit(exitcode.GeneralError)
		}
		os.Exit(exitcode.PartialFailure)
	}
	return nil
}

func filterManifests(manifests []*manifest.ComponentManifest, ids []string) []*manifest.ComponentManifest {
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var out []*manifest.ComponentManifest
	for _, m := range manifests {
		if wanted[m.ID] {
			out = append(out, m)
		}
	}
	return out
}

func printBatchResult(result *orch.BatchResult) {
	for _, s := range result.Summaries {
		status := "ok"
		if s.Failed() {
			status = "FAILED"
		}
		fmt.Printf("%-30s %s\n", s.BundleID, status)
		if s.Error != "" {
			fmt.Printf("  error: %s\n", s.Error)
		}
		for _, record := range []*orch.SyncRecord{s.Forward, s.Reverse} {
			if record == nil {
				continue
			}
			for _, a := range record.Artifacts {
				mark := "+"
				if !a.Success {
					mark = "!"
				}
				fmt.Printf("  %s %-12s %s %s\n", mark, a.Generator, a.Path, a.Message)
			}
		}
	}
	fmt.Printf("\n%d component(s), %d failed\n", len(result.Summaries), result.Failed())
}
