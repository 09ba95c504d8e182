package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/uiforge/compsync/pkg/buildinfo"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show compsync version",
	Run: func(cmd *cobra.Command, _ []string) {
		extended, _ := cmd.Flags().GetBool("extended")
		fmt.Printf("compsync %s\n", buildinfo.BinaryVersion)
		if extended {
			if mv := buildinfo.ModuleVersion(); mv != "" {
				fmt.Printf("module version: %s\n", mv)
			}
		}
	},
}

func init() {
	versionCmd.Flags().Bool("extended", false, "Show extended build information")
}
