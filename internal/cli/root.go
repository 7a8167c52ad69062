package cli

import (
	"context"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/physlearn/physlearn/pkg/buildinfo"
)

// Execute runs the physlearn CLI and returns an error if any command fails.
// This is the main entry point for the CLI application.
//
// The function sets up the root command with all subcommands (learn, score,
// render, completion), configures logging based on the --verbose flag, and
// executes the command tree.
//
// Logging:
//   - Default: info level (logs to stderr)
//   - With --verbose (-v): debug level
//
// The logger is attached to the context and accessible to all commands via
// loggerFromContext.
func Execute(ctx context.Context) error {
	var verbose bool

	root := &cobra.Command{
		Use:          "physlearn",
		Short:        "physlearn learns Bayesian network structures from data",
		Long:         `physlearn learns Bayesian network structures from discrete datasets using slime-mold inspired current-flow dynamics coupled to a BDeu scoring oracle.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))
			cmd.SetContext(ctx)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newLearnCmd())
	root.AddCommand(newScoreCmd())
	root.AddCommand(newRenderCmd())
	root.AddCommand(newCompletionCmd())

	return root.ExecuteContext(ctx)
}
