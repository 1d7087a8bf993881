package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newLedgerCommand(opts *globalOptions) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger maintenance",
	}
	ledgerCmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Report duplicate dates, unreadable dates and duplicate names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(cmd, opts)
			if err != nil {
				return err
			}
			issues, err := p.claims().Check()
			if err != nil {
				return err
			}
			if len(issues) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: no problems found\n", p.cfg.Ledger.Path)
				return nil
			}

			lines := make([]string, len(issues))
			for i, is := range issues {
				lines[i] = is.Error()
			}
			writeLines(cmd.OutOrStdout(), lines)
			return fmt.Errorf("%d problem(s) in %s", len(issues), p.cfg.Ledger.Path)
		},
	})
	return ledgerCmd
}

func writeLines(w io.Writer, lines []string) {
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
}
