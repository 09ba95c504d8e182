package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/uiforge/compsync/pkg/buildinfo"
	"github.com/uiforge/compsync/pkg/config"
	"github.com/uiforge/compsync/pkg/exitcode"
	"github.com/uiforge/compsync/pkg/logger"
	"github.com/uiforge/compsync/pkg/orch"
)

// newRootCommand creates a fresh root command instance.
// This factory pattern allows tests to create isolated command trees without shared state.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compsync",
		Short: "Keep component manifests and record field schemas in sync",
		Long: `Compsync synchronizes declarative UI component manifests with the typed
field schemas of a content-management record store, and generates the
artifacts needed to render each component: server template, interactive
component, stylesheet and asset library manifest.

Examples:
   compsync discover            # List component manifests
   compsync sync                # Sync all discovered components
   compsync sync hero --force   # Regenerate one component from scratch
   compsync validate            # Check manifests and generated artifacts
   compsync watch               # Re-sync on manifest edits`,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			initializeLogger(cmd)
		},
	}

	cmd.PersistentFlags().String("log-level", "info", "Set log level (trace|debug|info|warn|error)")
	cmd.PersistentFlags().Bool("json", false, "Output logs in JSON format")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	cmd.Version = buildinfo.BinaryVersion
	cmd.SetVersionTemplate("compsync {{.Version}}\n")

	return cmd
}

// initializeLogger configures the default logger from the persistent flags.
func initializeLogger(cmd *cobra.Command) {
	levelName, _ := cmd.Flags().GetString("log-level")
	jsonOut, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")

	_ = logger.Initialize(logger.Config{
		Level:     logger.ParseLevel(levelName),
		UseColor:  !noColor,
		JSON:      jsonOut,
		Component: "compsync",
	})
}

// registerSubcommands adds all subcommands to the root command.
// This is called from init() for production and can be called explicitly in tests.
func registerSubcommands(cmd *cobra.Command) {
	cmd.AddCommand(versionCmd)
	cmd.AddCommand(discoverCmd)
	cmd.AddCommand(syncCmd)
	cmd.AddCommand(validateCmd)
	cmd.AddCommand(generateClientCmd)
	cmd.AddCommand(watchCmd)
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCommand()

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		logger.Error("Command execution failed", logger.Err(err))
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps run-level errors onto process exit codes.
func exitCodeFor(err error) int {
	var cancelled *orch.SyncCancelledError
	var cfgErr *config.ValidationError
	var pathErr *os.PathError
	switch {
	case errors.As(err, &cancelled):
		return exitcode.Cancelled
	case errors.As(err, &cfgErr):
		return exitcode.ConfigError
	case errors.As(err, &pathErr):
		return exitcode.FileSystemError
	default:
		return exitcode.GeneralError
	}
}

func init() {
	registerSubcommands(rootCmd)
}
