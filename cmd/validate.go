package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/uiforge/compsync/pkg/exitcode"
	"github.com/uiforge/compsync/pkg/manifest"
	"github.com/uiforge/compsync/pkg/orch"
	"github.com/uiforge/compsync/pkg/validate"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate manifests and check generated artifacts without regenerating",
	Long: `Validate checks every discovered manifest against the manifest schema, then
verifies that each bundle's generated artifacts exist and match what the
generators would produce. Nothing is written.`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringSlice("manifest-root", nil, "Override configured manifest roots")
}

func runValidate(cmd *cobra.Command, _ []string) error {
	rootsOverride, _ := cmd.Flags().GetStringSlice("manifest-root")

	p, err := newPipeline(false, true)
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

	problems := 0

	// Structural validation of the manifest documents themselves. TOML
	// manifests already passed the parser; the JSON schema check applies
	// to the canonical YAML form.
	for _, m := range discovery.Manifests {
		if !strings.HasSuffix(m.SourcePath, manifest.SuffixTOML) {
			issues, err := validate.ManifestFile(m.SourcePath)
			if err != nil {
				return err
			}
			for _, issue := range issues {
				problems++
				fmt.Printf("INVALID %s: %s %s\n", issue.Path, issue.Field, issue.Message)
			}
		}
	}
	for _, d := range discovery.Diagnostics {
		problems++
		fmt.Printf("INVALID %s: %s\n", d.Path, d.Message)
	}

	// Artifact checks for every known bundle.
	o := p.orchestrator()
	for _, bundleID := range p.store.ListBundles() {
		results, err := o.ValidateArtifacts(bundleID)
		if err != nil {
			problems++
			fmt.Printf("ERROR   %s: %v\n", bundleID, err)
			continue
		}
		for _, r := range results {
			if !r.Success {
				problems++
				fmt.Printf("STALE   %s (%s): %s\n", r.Path, r.Generator, r.Message)
			}
		}
	}

	// Type-mapping warnings for schemas with unmappable field types.
	for _, bundleID := range p.store.ListBundles() {
		schema, err := p.store.GetSchema(bundleID)
		if err != nil {
			continue
		}
		for _, w := range orch.MappingWarnings(schema) {
			fmt.Printf("WARN    %s: %s\n", bundleID, w)
		}
	}

	if problems > 0 {
		fmt.Printf("\n%d problem(s) found\n", problems)
		os.Exit(exitcode.ValidationError)
	}
	fmt.Println("all manifests and artifacts valid")
	return nil
}
