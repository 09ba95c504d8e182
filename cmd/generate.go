package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/uiforge/compsync/pkg/exitcode"
)

var generateClientCmd = &cobra.Command{
	Use:   "generate-client <bundle-id>",
	Short: "Regenerate client artifacts for a bundle from its field schema",
	Long: `Generate-client runs the reverse pipeline for a single bundle: the current
field schema is read from the schema store and every enabled generator is
invoked. Stale artifacts are rewritten, up-to-date ones are left alone.`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerateClient,
}

func init() {
	generateClientCmd.Flags().Bool("typed", false, "Emit TypeScript instead of JSX")
	generateClientCmd.Flags().Bool("with-tests", false, "Also emit a component test file")
	generateClientCmd.Flags().Bool("with-stories", false, "Also emit a component stories file")
	generateClientCmd.Flags().Bool("force", false, "Rewrite all artifacts even when unchanged")
	generateClientCmd.Flags().Bool("dry-run", false, "Report what would change without writing")
}

func runGenerateClient(cmd *cobra.Command, args []string) error {
	typed, _ := cmd.Flags().GetBool("typed")
	withTests, _ := cmd.Flags().GetBool("with-tests")
	withStories, _ := cmd.Flags().GetBool("with-stories")
	force, _ := cmd.Flags().GetBool("force")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	p, err := newPipeline(force, dryRun)
	if err != nil {
		return err
	}
	if typed {
		p.orchCfg.Options.TypedOutput = true
	}
	if withTests {
		p.orchCfg.Options.TestFileRequested = true
	}
	if withStories {
		p.orchCfg.Options.StoryFileRequested = true
	}

	bundleID := args[0]
	if !p.store.HasBundle(bundleID) {
		return fmt.Errorf("unknown bundle %q", bundleID)
	}

	record, err := p.orchestrator().CheckAndSync(bundleID)
	if err != nil {
		return err
	}

	for _, a := range record.Artifacts {
		mark := "+"
		if !a.Success {
			mark = "!"
		}
		fmt.Printf("%s %-12s %s %s\n", mark, a.Generator, a.Path, a.Message)
	}

	if !record.Success {
		os.Exit(exitcode.PartialFailure)
	}
	return nil
}
