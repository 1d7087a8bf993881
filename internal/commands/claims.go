package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/otmeal-dev/otmeal/internal/alloc"
	"github.com/otmeal-dev/otmeal/internal/claims"
	"github.com/otmeal-dev/otmeal/internal/otdate"
)

func newClaimsCommand(opts *globalOptions) *cobra.Command {
	claimsCmd := &cobra.Command{
		Use:   "claims",
		Short: "Look up and submit OT meal claims",
	}
	claimsCmd.AddCommand(
		newClaimsStatusCommand(opts),
		newClaimsSubmitCommand(opts),
		newClaimsRequiredCommand(opts),
		newClaimsLogCommand(opts),
	)
	return claimsCmd
}

func newClaimsStatusCommand(opts *globalOptions) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show who has and has not claimed on a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(cmd, opts)
			if err != nil {
				return err
			}
			d, err := parseDateFlag(date)
			if err != nil {
				return err
			}
			state, err := p.claims().Status(d)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (row %d)\n", otdate.Format(d), state.Row)
			fmt.Fprintf(out, "Claimed:   %s\n", listOrNone(state.Claimed))
			fmt.Fprintf(out, "Unclaimed: %s\n", listOrNone(state.Unclaimed))
			if state.AllClaimed() {
				fmt.Fprintln(out, "All people have already claimed OT for this date.")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "OT date (default today)")
	return cmd
}

func newClaimsSubmitCommand(opts *globalOptions) *cobra.Command {
	var (
		date  string
		bill  string
		names []string
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Mark people as claimed for a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(cmd, opts)
			if err != nil {
				return err
			}
			d, err := parseDateFlag(date)
			if err != nil {
				return err
			}
			amount, err := decimal.NewFromString(bill)
			if err != nil {
				return fmt.Errorf("--bill %q is not a number", bill)
			}

			res, err := p.claims().Submit(claims.SubmitParams{Date: d, Bill: amount, Names: names})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Marked %s for %s\n", listOrNone(res.Marked), otdate.Format(res.Date))
			if len(res.AlreadyMarked) > 0 {
				fmt.Fprintf(out, "Already claimed: %s\n", strings.Join(res.AlreadyMarked, ", "))
			}
			if len(res.Marked) < res.Required {
				fmt.Fprintf(out, "Note: bill needs %d people; only %d were available\n", res.Required, len(res.Marked))
			}
			if res.Commit != "" {
				fmt.Fprintf(out, "Committed %s\n", res.Commit)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "OT date (default today)")
	cmd.Flags().StringVar(&bill, "bill", "", "bill amount (required)")
	cmd.Flags().StringArrayVar(&names, "name", nil, "person to mark (repeatable)")
	_ = cmd.MarkFlagRequired("bill")
	return cmd
}

func newClaimsRequiredCommand(opts *globalOptions) *cobra.Command {
	var (
		date string
		bill string
	)

	cmd := &cobra.Command{
		Use:   "required",
		Short: "Show how many people a bill must be split across",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(cmd, opts)
			if err != nil {
				return err
			}
			amount, err := decimal.NewFromString(bill)
			if err != nil {
				return fmt.Errorf("--bill %q is not a number", bill)
			}

			// Without --date the plan ignores availability.
			var d time.Time
			if date != "" {
				if d, err = otdate.Parse(date); err != nil {
					return err
				}
			}
			plan, err := p.claims().Plan(amount, d)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Bill %s at %s per person: %d %s required\n",
				plan.Bill.StringFixed(2), plan.Threshold.StringFixed(2), plan.Required, alloc.People(plan.Required))
			if !d.IsZero() {
				fmt.Fprintf(out, "Select %d on %s", plan.Cap, otdate.Format(d))
				if plan.Shortfall > 0 {
					fmt.Fprintf(out, " (%d short: not enough people left)", plan.Shortfall)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "OT date; caps the count at who is still available")
	cmd.Flags().StringVar(&bill, "bill", "", "bill amount (required)")
	_ = cmd.MarkFlagRequired("bill")
	return cmd
}

func newClaimsLogCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "log",
		Short: "Print the claim log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(cmd, opts)
			if err != nil {
				return err
			}
			entries, err := p.claims().Log()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No claims logged.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "SUBMITTED\tOT DATE\tBILL\tREQUIRED\tNAMES")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
					e.Timestamp.Local().Format("2006-01-02 15:04"),
					otdate.Format(e.OTDate),
					e.BillAmount.StringFixed(2),
					e.Required,
					strings.Join(e.Names, ", "))
			}
			return tw.Flush()
		},
	}
}

func listOrNone(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}
