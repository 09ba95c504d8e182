package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List component manifests found under the manifest roots",
	RunE:  runDiscover,
}

func init() {
	discoverCmd.Flags().StringSlice("manifest-root", nil, "Override configured manifest roots")
	discoverCmd.Flags().String("output", "text", "Output format: text|json")
}

func runDiscover(cmd *cobra.Command, _ []string) error {
	rootsOverride, _ := cmd.Flags().GetStringSlice("manifest-root")
	output, _ := cmd.Flags().GetString("output")

	p, err := newPipeline(false, false)
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

	if strings.EqualFold(output, "json") {
		out, err := json.MarshalIndent(discovery, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	for _, m := range discovery.Manifests {
		modes := make([]string, 0, 2)
		if m.Rendering.ServerSide {
			modes = append(modes, "server")
		}
		if m.Rendering.ClientSide {
			modes = append(modes, "client")
		}
		fmt.Printf("%-30s %d props, %d slots [%s]  %s\n",
			m.ID, len(m.Props), len(m.Slots), strings.Join(modes, ","), m.SourcePath)
	}
	for _, d := range discovery.Diagnostics {
		fmt.Printf("SKIPPED %s: %s\n", d.Path, d.Message)
	}
	return nil
}
