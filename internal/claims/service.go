// Package claims ties the ledger, the allocation rules and the claim log
// together into the operations the CLI and HTTP server expose.
package claims

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/otmeal-dev/otmeal/internal/alloc"
	"github.com/otmeal-dev/otmeal/internal/auditlog"
	"github.com/otmeal-dev/otmeal/internal/gitops"
	"github.com/otmeal-dev/otmeal/internal/ledger"
	"github.com/otmeal-dev/otmeal/internal/model"
	"github.com/otmeal-dev/otmeal/internal/otdate"
)

// Settings configures a Service.
type Settings struct {
	Root       string // project root, used for git
	LedgerPath string
	Sheet      string
	Marker     string
	Threshold  decimal.Decimal
	AuditPath  string // empty disables the claim log

	AutoCommit  bool
	AuthorName  string
	AuthorEmail string
}

// Service provides claim lookups and submissions against one ledger.
type Service struct {
	settings Settings
	headers  *ledger.HeaderCache
	now      func() time.Time

	// mu serializes the reload-modify-save cycle within this process.
	mu sync.Mutex
}

// NewService creates a claims Service.
func NewService(settings Settings) *Service {
	if settings.Marker == "" {
		settings.Marker = model.DefaultMarker
	}
	if !settings.Threshold.IsPositive() {
		settings.Threshold = alloc.DefaultThreshold
	}
	return &Service{
		settings: settings,
		headers:  ledger.NewHeaderCache(),
		now:      time.Now,
	}
}

// SubmitParams holds the inputs of a claim submission.
type SubmitParams struct {
	Date  time.Time
	Bill  decimal.Decimal
	Names []string
}

// SubmitResult describes a completed submission.
type SubmitResult struct {
	Date          time.Time `json:"date"`
	Row           int       `json:"row"`
	Required      int       `json:"required"`
	Marked        []string  `json:"marked"`
	AlreadyMarked []string  `json:"already_marked"`
	Commit        string    `json:"commit,omitempty"`
}

// Threshold returns the per-person amount in use.
func (s *Service) Threshold() decimal.Decimal { return s.settings.Threshold }

// Status returns who has and has not claimed on date.
func (s *Service) Status(date time.Time) (model.ClaimState, error) {
	l, err := ledger.Open(s.settings.LedgerPath, s.settings.Sheet)
	if err != nil {
		return model.ClaimState{}, err
	}
	defer l.Close()

	row, err := l.FindRow(date)
	if err != nil {
		return model.ClaimState{}, err
	}
	return l.Partition(row, s.headers.Headers(l)), nil
}

// Plan returns the headcount needed for bill. With a zero date the plan
// ignores availability.
func (s *Service) Plan(bill decimal.Decimal, date time.Time) (alloc.Plan, error) {
	if bill.IsNegative() {
		return alloc.Plan{}, model.Invalid("bill", "bill must not be negative")
	}
	if date.IsZero() {
		required := alloc.RequiredCount(bill, s.settings.Threshold)
		return alloc.NewPlan(bill, s.settings.Threshold, required), nil
	}
	state, err := s.Status(date)
	if err != nil {
		return alloc.Plan{}, err
	}
	return alloc.NewPlan(bill, s.settings.Threshold, len(state.Unclaimed)), nil
}

// Submit marks the selected people as claimed for params.Date. The ledger
// is reloaded, the selection checked against the current unclaimed set and
// the workbook saved, all while holding the service lock.
func (s *Service) Submit(params SubmitParams) (SubmitResult, error) {
	if params.Date.IsZero() {
		return SubmitResult{}, model.Invalid("date", "date is required")
	}
	if !params.Bill.IsPositive() {
		return SubmitResult{}, model.Invalid("bill", "bill must be greater than zero")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := ledger.Open(s.settings.LedgerPath, s.settings.Sheet)
	if err != nil {
		return SubmitResult{}, err
	}
	defer l.Close()

	row, err := l.FindRow(params.Date)
	if err != nil {
		return SubmitResult{}, err
	}
	headers := s.headers.Headers(l)
	state := l.Partition(row, headers)

	selection := make([]string, len(params.Names))
	for i, name := range params.Names {
		canonical, ok := headers.Lookup(name)
		if !ok {
			return SubmitResult{}, model.Invalid("names", "unknown person %q", strings.TrimSpace(name))
		}
		selection[i] = canonical
	}

	required := alloc.RequiredCount(params.Bill, s.settings.Threshold)
	if err := alloc.ValidateSelection(selection, required, state.Unclaimed); err != nil {
		return SubmitResult{}, err
	}

	written, err := l.Submit(row, headers, selection, s.settings.Marker)
	if err != nil {
		return SubmitResult{}, err
	}
	s.headers.Invalidate(s.settings.LedgerPath)

	res := SubmitResult{
		Date:          otdate.DateOf(params.Date),
		Row:           row,
		Required:      required,
		Marked:        written.Marked,
		AlreadyMarked: written.AlreadyMarked,
	}
	if len(res.Marked) == 0 {
		return res, nil
	}

	log.WithFields(log.Fields{
		"ot_date":  otdate.Format(res.Date),
		"row":      row,
		"marked":   strings.Join(res.Marked, ","),
		"required": required,
	}).Info("Claims submitted")

	s.record(params, res)
	res.Commit = s.commit(res)
	return res, nil
}

// record appends to the claim log. The ledger is already saved, so a
// failure here is logged rather than returned.
func (s *Service) record(params SubmitParams, res SubmitResult) {
	if s.settings.AuditPath == "" {
		return
	}
	entry := auditlog.Entry{
		Timestamp:  s.now(),
		OTDate:     res.Date,
		Names:      res.Marked,
		BillAmount: params.Bill,
		Required:   res.Required,
		Marked:     len(res.Marked),
	}
	if err := auditlog.New(s.settings.AuditPath).Append(entry); err != nil {
		log.WithError(err).Warn("Failed to append claim log")
	}
}

func (s *Service) commit(res SubmitResult) string {
	if !s.settings.AutoCommit || s.settings.Root == "" || !gitops.Available() || !gitops.IsRepo(s.settings.Root) {
		return ""
	}

	var paths []string
	for _, p := range []string{s.settings.LedgerPath, s.settings.AuditPath} {
		if rel, ok := relativeTo(s.settings.Root, p); ok {
			paths = append(paths, rel)
		}
	}
	msg := fmt.Sprintf("claim: %s %s", otdate.Format(res.Date), strings.Join(res.Marked, ", "))
	hash, err := gitops.CommitPaths(s.settings.Root, msg, s.settings.AuthorName, s.settings.AuthorEmail, paths...)
	if err != nil {
		log.WithError(err).Warn("Failed to commit ledger")
		return ""
	}
	return hash
}

// Check reports structural problems in the ledger.
func (s *Service) Check() ([]ledger.Issue, error) {
	l, err := ledger.Open(s.settings.LedgerPath, s.settings.Sheet)
	if err != nil {
		return nil, err
	}
	defer l.Close()
	return l.Validate(), nil
}

// Log returns the claim log, oldest first.
func (s *Service) Log() ([]auditlog.Entry, error) {
	if s.settings.AuditPath == "" {
		return nil, nil
	}
	return auditlog.New(s.settings.AuditPath).Entries()
}

func relativeTo(root, p string) (string, bool) {
	if p == "" {
		return "", false
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", false
	}
	absPath, err := filepath.Abs(p)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}
