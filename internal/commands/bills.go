package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/otmeal-dev/otmeal/internal/bills"
	"github.com/otmeal-dev/otmeal/internal/importer"
	"github.com/otmeal-dev/otmeal/internal/otdate"
)

func newBillsCommand(opts *globalOptions) *cobra.Command {
	billsCmd := &cobra.Command{
		Use:   "bills",
		Short: "Store and find meal bills",
	}
	billsCmd.AddCommand(
		newBillsUploadCommand(opts),
		newBillsListCommand(opts),
		newBillsDownloadCommand(opts),
		newBillsImportCommand(opts),
	)
	return billsCmd
}

func newBillsUploadCommand(opts *globalOptions) *cobra.Command {
	var (
		date string
		name string
	)

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Store a bill for a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(cmd, opts)
			if err != nil {
				return err
			}
			d, err := parseDateFlag(date)
			if err != nil {
				return err
			}
			payload, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			rec, err := p.bills().Save(d, name, filepath.Base(args[0]), payload)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %s\n", rec.StoredPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "OT date (default today)")
	cmd.Flags().StringVar(&name, "name", "", "who is uploading (required)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newBillsListCommand(opts *globalOptions) *cobra.Command {
	var (
		date string
		name string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored bills, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(cmd, opts)
			if err != nil {
				return err
			}
			q := bills.Query{Name: name}
			if date != "" {
				if q.Date, err = otdate.Parse(date); err != nil {
					return err
				}
			}

			recs, err := p.bills().Find(q)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No bills found.")
				return nil
			}
			bills.SortNewestFirst(recs)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "OT DATE\tNAME\tFILE\tUPLOADED\tSTORED PATH")
			for _, r := range recs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					otdate.Format(r.OTDate), r.UserName, r.FileName,
					r.UploadedAt.Local().Format("2006-01-02 15:04"), r.StoredPath)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "only bills for this OT date")
	cmd.Flags().StringVar(&name, "name", "", `only bills uploaded by this person ("All" for everyone)`)
	return cmd
}

func newBillsDownloadCommand(opts *globalOptions) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "download <stored-path>",
		Short: "Copy a stored bill out of the bills directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(cmd, opts)
			if err != nil {
				return err
			}
			src, err := p.bills().Open(args[0])
			if err != nil {
				return err
			}
			defer src.Close()

			if outPath == "" {
				outPath = filepath.Base(src.Name())
			}
			if outPath == "-" {
				_, err = io.Copy(cmd.OutOrStdout(), src)
				return err
			}

			dst, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
			if err != nil {
				return fmt.Errorf("creating %s: %w", outPath, err)
			}
			if _, err := io.Copy(dst, src); err != nil {
				_ = dst.Close()
				return fmt.Errorf("writing %s: %w", outPath, err)
			}
			if err := dst.Close(); err != nil {
				return fmt.Errorf("writing %s: %w", outPath, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", `output file ("-" for stdout; default the stored file name)`)
	return cmd
}

func newBillsImportCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Store bills dropped in inbox/ as <date>__<name>__<file>",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(cmd, opts)
			if err != nil {
				return err
			}
			res, err := importer.ImportInbox(p.root, p.bills())

			out := cmd.OutOrStdout()
			for _, rec := range res.Imported {
				fmt.Fprintf(out, "Imported %s\n", rec.StoredPath)
			}
			for _, s := range res.Skipped {
				fmt.Fprintf(out, "Skipped %s: %s\n", s.Name, s.Reason)
			}
			if err != nil {
				return err
			}
			if len(res.Imported) == 0 && len(res.Skipped) == 0 {
				fmt.Fprintln(out, "Inbox is empty.")
			}
			return nil
		},
	}
}
