package commands

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/otmeal-dev/otmeal/internal/config"
	"github.com/otmeal-dev/otmeal/internal/gitops"
	"github.com/otmeal-dev/otmeal/internal/importer"
)

type initOptions struct {
	git bool
}

func newInitCommand() *cobra.Command {
	var opts initOptions

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new otmeal project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd.OutOrStdout(), absDir, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.git, "git", false, "initialize a git repository and commit the project files")

	return cmd
}

func runInit(out io.Writer, dir string, opts initOptions) error {
	// Create directory structure.
	dirs := []string{
		"bills",
		"logs",
		importer.InboxDir,
		filepath.Join(importer.InboxDir, "processed"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	// Write otmeal.yaml unless one exists.
	cfgPath := filepath.Join(dir, config.FileName)
	cfg, err := config.Load(cfgPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		cfg = config.Default()
		cfg.Git.AutoCommit = opts.git
		if err := config.Save(cfgPath, cfg); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}
	case err != nil:
		return err
	}

	ledgerPath := cfg.LedgerPath(dir)
	if _, err := os.Stat(ledgerPath); errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(out, "Note: copy the claim workbook to %s before submitting claims\n", ledgerPath)
	}

	// Write .gitignore.
	gitignore := "inbox/\n.env\n.otmeal-*.xlsx\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	if !opts.git {
		fmt.Fprintf(out, "Initialized otmeal project at %s\n", dir)
		return nil
	}

	if !gitops.IsRepo(dir) {
		if err := gitops.Init(dir); err != nil {
			return fmt.Errorf("git init: %w", err)
		}
	}
	paths := []string{config.FileName, ".gitignore"}
	if _, err := os.Stat(ledgerPath); err == nil {
		if rel, err := filepath.Rel(dir, ledgerPath); err == nil {
			paths = append(paths, rel)
		}
	}
	hash, err := gitops.CommitPaths(dir, "init: otmeal project", cfg.Git.AuthorName, cfg.Git.AuthorEmail, paths...)
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}

	fmt.Fprintf(out, "Initialized otmeal project at %s (%s)\n", dir, hash)
	return nil
}
