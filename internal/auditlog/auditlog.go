// Package auditlog keeps a CSV trail of claim submissions next to the ledger.
package auditlog

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/otmeal-dev/otmeal/internal/otdate"
)

// Entry is one submission: who was marked on which OT date for what bill.
type Entry struct {
	Timestamp  time.Time       `json:"timestamp"`
	OTDate     time.Time       `json:"ot_date"`
	Names      []string        `json:"names"`
	BillAmount decimal.Decimal `json:"bill_amount"`
	Required   int             `json:"required"`
	Marked     int             `json:"marked"`
}

// Columns are the claim log's CSV columns, in file order.
var Columns = []string{"timestamp", "ot_date", "names", "bill_amount", "required", "marked"}

// Names within one cell are joined with this.
const nameSep = ";"

// Log is the claim log file at one path.
type Log struct {
	path string
}

// New returns the Log stored at path. The file is created on first Append.
func New(path string) *Log {
	return &Log{path: path}
}

// Path returns the file location.
func (l *Log) Path() string { return l.path }

// Append adds entries at the end of the log, writing the header row when
// the file is new or empty.
func (l *Log) Append(entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("creating claim log dir: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening claim log: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("stat claim log: %w", err)
	}

	cw := csv.NewWriter(f)
	rows := make([][]string, 0, len(entries)+1)
	if info.Size() == 0 {
		rows = append(rows, Columns)
	}
	for _, e := range entries {
		rows = append(rows, e.record())
	}
	if err := cw.WriteAll(rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing claim log: %w", err)
	}
	return f.Close()
}

// Entries reads the whole log, oldest first. A missing file is an empty log.
func (l *Log) Entries() ([]Entry, error) {
	f, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening claim log: %w", err)
	}
	defer f.Close()

	return Decode(bufio.NewReader(f))
}

// Decode reads claim log CSV from r. The first row must be the header.
func Decode(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Columns)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading claim log header: %w", err)
	}
	if !slices.Equal(header, Columns) {
		return nil, fmt.Errorf("unexpected claim log header %q", strings.Join(header, ","))
	}

	var entries []Entry
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading claim log: %w", err)
		}
		e, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("claim log line %d: %w", line, err)
		}
		entries = append(entries, e)
	}
}

func (e Entry) record() []string {
	return []string{
		e.Timestamp.Format(time.RFC3339),
		otdate.Format(e.OTDate),
		strings.Join(e.Names, nameSep),
		e.BillAmount.StringFixed(2),
		strconv.Itoa(e.Required),
		strconv.Itoa(e.Marked),
	}
}

func parseRecord(rec []string) (Entry, error) {
	var (
		e   Entry
		err error
	)
	if e.Timestamp, err = time.Parse(time.RFC3339, rec[0]); err != nil {
		return Entry{}, fmt.Errorf("timestamp %q: %w", rec[0], err)
	}
	if e.OTDate, err = otdate.Parse(rec[1]); err != nil {
		return Entry{}, fmt.Errorf("ot_date: %w", err)
	}
	if rec[2] != "" {
		e.Names = strings.Split(rec[2], nameSep)
	}
	if e.BillAmount, err = decimal.NewFromString(rec[3]); err != nil {
		return Entry{}, fmt.Errorf("bill_amount %q: %w", rec[3], err)
	}
	if e.Required, err = strconv.Atoi(rec[4]); err != nil {
		return Entry{}, fmt.Errorf("required %q: %w", rec[4], err)
	}
	if e.Marked, err = strconv.Atoi(rec[5]); err != nil {
		return Entry{}, fmt.Errorf("marked %q: %w", rec[5], err)
	}
	return e, nil
}
