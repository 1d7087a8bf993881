package ledger

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/otmeal-dev/otmeal/internal/otdate"
)

// Check names a kind of ledger inconsistency.
type Check string

const (
	CheckNoHeaders        Check = "no-headers"
	CheckDuplicateHeader  Check = "duplicate-header"
	CheckUnrecognizedDate Check = "unrecognized-date"
	CheckDuplicateDate    Check = "duplicate-date"
)

// Issue describes a single problem found by Validate.
type Issue struct {
	Check       Check  `json:"check"`
	Row         int    `json:"row"`
	Description string `json:"description"`
}

func (i Issue) Error() string {
	if i.Row == 0 {
		return fmt.Sprintf("%s: %s", i.Check, i.Description)
	}
	return fmt.Sprintf("%s [row %d]: %s", i.Check, i.Row, i.Description)
}

// Validate reports structural problems that lookups silently tolerate:
// repeated dates (only the first row is ever used), date cells that cannot
// be read, and repeated or missing header names.
func (l *Ledger) Validate() []Issue {
	var issues []Issue

	headers := l.Headers()
	if headers.Len() == 0 {
		issues = append(issues, Issue{
			Check:       CheckNoHeaders,
			Row:         headerRow,
			Description: "no person names in the header row",
		})
	}

	dupNames := make([]string, 0, len(headers.duplicates))
	for name := range headers.duplicates {
		dupNames = append(dupNames, name)
	}
	sort.Strings(dupNames)
	for _, name := range dupNames {
		issues = append(issues, Issue{
			Check:       CheckDuplicateHeader,
			Row:         headerRow,
			Description: fmt.Sprintf("%q appears in columns %s; only the first is used", name, columnList(headers.duplicates[name])),
		})
	}

	firstRow := make(map[string]int)
	for row := firstDataRow; row <= len(l.rows); row++ {
		raw := l.Cell(row, dateCol)
		if strings.TrimSpace(raw) == "" {
			continue
		}
		d, ok := l.DateAt(row)
		if !ok {
			issues = append(issues, Issue{
				Check:       CheckUnrecognizedDate,
				Row:         row,
				Description: fmt.Sprintf("cannot read %q as a date", raw),
			})
			continue
		}
		key := otdate.Format(d)
		if first, seen := firstRow[key]; seen {
			issues = append(issues, Issue{
				Check:       CheckDuplicateDate,
				Row:         row,
				Description: fmt.Sprintf("%s already used by row %d; this row is ignored", key, first),
			})
			continue
		}
		firstRow[key] = row
	}

	return issues
}

func columnList(cols []int) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		name, err := excelize.ColumnNumberToName(c)
		if err != nil {
			name = fmt.Sprint(c)
		}
		parts[i] = name
	}
	return strings.Join(parts, ", ")
}
