package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/otmeal-dev/otmeal/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var opts globalOptions

	rootCmd := &cobra.Command{
		Use:     "otmeal",
		Short:   "Track overtime meal claims and the bills behind them",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.repo, "repo", ".", "project directory")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (overrides config)")

	rootCmd.AddCommand(
		newInitCommand(),
		newClaimsCommand(&opts),
		newBillsCommand(&opts),
		newLedgerCommand(&opts),
		newServeCommand(&opts),
	)

	return rootCmd
}
