package commands

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/otmeal-dev/otmeal/internal/bills"
	"github.com/otmeal-dev/otmeal/internal/claims"
	"github.com/otmeal-dev/otmeal/internal/config"
	"github.com/otmeal-dev/otmeal/internal/logging"
	"github.com/otmeal-dev/otmeal/internal/otdate"
)

type globalOptions struct {
	repo     string
	logLevel string
}

// project is a loaded otmeal directory.
type project struct {
	root string
	cfg  *config.Config
}

func loadProject(cmd *cobra.Command, opts *globalOptions) (*project, error) {
	root, err := filepath.Abs(opts.repo)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg, err := config.LoadProject(root)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if err := logging.Setup(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return nil, err
	}
	return &project{root: root, cfg: cfg}, nil
}

func (p *project) claims() *claims.Service {
	return claims.NewService(claims.Settings{
		Root:        p.root,
		LedgerPath:  p.cfg.LedgerPath(p.root),
		Sheet:       p.cfg.Ledger.Sheet,
		Marker:      p.cfg.Ledger.Marker,
		Threshold:   p.cfg.Allocation.PerPersonThreshold,
		AuditPath:   p.cfg.AuditPath(p.root),
		AutoCommit:  p.cfg.Git.AutoCommit,
		AuthorName:  p.cfg.Git.AuthorName,
		AuthorEmail: p.cfg.Git.AuthorEmail,
	})
}

func (p *project) bills() *bills.Store {
	return bills.NewStore(p.cfg.BillsDir(p.root), p.cfg.BillsIndex(p.root),
		bills.WithAllLabel(p.cfg.Bills.AllLabel))
}

// parseDateFlag parses a --date value; empty means today.
func parseDateFlag(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return otdate.Today(), nil
	}
	return otdate.Parse(s)
}
