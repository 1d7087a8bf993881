// Package otdate turns the many ways a date can be stored in a ledger cell
// into a plain calendar date.
package otdate

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ISOLayout is the canonical form used in paths, the bills index and the CLI.
const ISOLayout = "2006-01-02"

// dayMonthYear matches cells like "2-Jan-2025".
const dayMonthYear = "2-Jan-2006"

var isoLayouts = []string{
	ISOLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"20060102",
}

// Normalizer converts stored values to dates. Date1904 selects the
// workbook's alternate serial epoch.
type Normalizer struct {
	Date1904 bool
}

// Normalize is Normalizer{}.Normalize.
func Normalize(v any) (time.Time, bool) {
	return Normalizer{}.Normalize(v)
}

// Normalize returns midnight UTC of the date represented by v. Unrecognized
// values report false; it never panics.
func (n Normalizer) Normalize(v any) (time.Time, bool) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return DateOf(x), !x.IsZero()
	case *time.Time:
		if x == nil {
			return time.Time{}, false
		}
		return DateOf(*x), !x.IsZero()
	case float64:
		return n.serial(x)
	case float32:
		return n.serial(float64(x))
	case int:
		return n.serial(float64(x))
	case int64:
		return n.serial(float64(x))
	case string:
		t, err := Parse(x)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	case fmt.Stringer:
		return n.Normalize(x.String())
	default:
		return time.Time{}, false
	}
}

func (n Normalizer) serial(v float64) (time.Time, bool) {
	if v < 1 {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(v, n.Date1904)
	if err != nil {
		return time.Time{}, false
	}
	return DateOf(t), true
}

// Parse reads an ISO-8601 date or date-time, falling back to "2-Jan-2006".
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	if t, err := time.Parse(dayMonthYear, s); err == nil {
		return DateOf(t), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q (want YYYY-MM-DD or D-Mon-YYYY)", s)
}

// DateOf drops the clock and zone, keeping the wall-clock calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Format renders t as YYYY-MM-DD.
func Format(t time.Time) string {
	return t.Format(ISOLayout)
}

// Today is the current local calendar date.
func Today() time.Time {
	return DateOf(time.Now())
}
