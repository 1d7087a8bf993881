// Package ledger reads and rewrites the OT claim workbook: one sheet whose
// first row names the people (from column B) and whose first column holds
// the date of each following row.
package ledger

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/otmeal-dev/otmeal/internal/model"
	"github.com/otmeal-dev/otmeal/internal/otdate"
)

const (
	headerRow    = 1
	firstDataRow = 2
	dateCol      = 1
	firstNameCol = 2
)

// Ledger is an open workbook plus a raw snapshot of the claim sheet.
// Row and column numbers are 1-based, as in the sheet.
type Ledger struct {
	path  string
	sheet string
	file  *excelize.File
	rows  [][]string
	dates otdate.Normalizer

	// modTime and size describe the file the snapshot was read from.
	modTime time.Time
	size    int64
}

// SubmitResult reports which selected names were newly marked.
type SubmitResult struct {
	Marked        []string `json:"marked"`
	AlreadyMarked []string `json:"already_marked"`
}

// Open loads the named sheet of the workbook at path. A missing file or
// sheet yields model.ErrNotFound.
func Open(path, sheet string) (*Ledger, error) {
	fh, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("ledger %s: %w", path, model.ErrNotFound)
	}
	if err != nil {
		return nil, &model.IOError{Op: "opening ledger", Path: path, Err: err}
	}
	defer fh.Close()

	info, err := fh.Stat()
	if err != nil {
		return nil, &model.IOError{Op: "opening ledger", Path: path, Err: err}
	}
	f, err := excelize.OpenReader(fh)
	if err != nil {
		return nil, &model.IOError{Op: "opening ledger", Path: path, Err: err}
	}
	f.Path = path

	idx, err := f.GetSheetIndex(sheet)
	if err != nil || idx < 0 {
		_ = f.Close()
		return nil, fmt.Errorf("sheet %q in %s: %w", sheet, path, model.ErrNotFound)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		_ = f.Close()
		return nil, &model.IOError{Op: "reading ledger", Path: path, Err: err}
	}

	var dates otdate.Normalizer
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		dates.Date1904 = *props.Date1904
	}

	return &Ledger{
		path:    path,
		sheet:   sheet,
		file:    f,
		rows:    rows,
		dates:   dates,
		modTime: info.ModTime(),
		size:    info.Size(),
	}, nil
}

// Close releases the workbook.
func (l *Ledger) Close() error {
	return l.file.Close()
}

// Path returns the workbook path.
func (l *Ledger) Path() string { return l.path }

// Sheet returns the claim sheet name.
func (l *Ledger) Sheet() string { return l.sheet }

// Cell returns the raw value at (row, col), or "" when outside the used range.
func (l *Ledger) Cell(row, col int) string {
	if row < 1 || row > len(l.rows) {
		return ""
	}
	cells := l.rows[row-1]
	if col < 1 || col > len(cells) {
		return ""
	}
	return cells[col-1]
}

// Headers maps the names in row 1 (column B onward) to their columns.
func (l *Ledger) Headers() HeaderMap {
	if len(l.rows) < headerRow {
		return NewHeaderMap(nil)
	}
	return NewHeaderMap(l.rows[headerRow-1])
}

// DateAt normalizes the date cell of row.
func (l *Ledger) DateAt(row int) (time.Time, bool) {
	return l.dates.Normalize(cellValue(l.Cell(row, dateCol)))
}

// FindRow returns the first data row whose date equals date.
func (l *Ledger) FindRow(date time.Time) (int, error) {
	want := otdate.DateOf(date)
	for row := firstDataRow; row <= len(l.rows); row++ {
		if got, ok := l.DateAt(row); ok && got.Equal(want) {
			return row, nil
		}
	}
	return 0, fmt.Errorf("date %s: %w", otdate.Format(want), model.ErrNotFound)
}

// Partition splits the header names into claimed and unclaimed for row.
func (l *Ledger) Partition(row int, headers HeaderMap) model.ClaimState {
	state := model.ClaimState{Row: row, Claimed: []string{}, Unclaimed: []string{}}
	if d, ok := l.DateAt(row); ok {
		state.Date = d
	}
	for _, name := range headers.Names() {
		col, _ := headers.Column(name)
		if l.Cell(row, col) == "" {
			state.Unclaimed = append(state.Unclaimed, name)
		} else {
			state.Claimed = append(state.Claimed, name)
		}
	}
	return state
}

// Submit writes marker into row for every selected name whose cell is empty,
// then saves the workbook. Names already marked are left as they are. Unknown
// names are rejected before anything is written.
func (l *Ledger) Submit(row int, headers HeaderMap, selection []string, marker string) (SubmitResult, error) {
	if row < firstDataRow {
		return SubmitResult{}, model.Invalid("row", "row %d is not a data row", row)
	}
	if marker == "" {
		marker = model.DefaultMarker
	}

	cols := make([]int, len(selection))
	for i, name := range selection {
		col, ok := headers.Column(name)
		if !ok {
			return SubmitResult{}, model.Invalid("selection", "unknown person %q", name)
		}
		cols[i] = col
	}

	res := SubmitResult{Marked: []string{}, AlreadyMarked: []string{}}
	var written []int
	for i, name := range selection {
		if l.Cell(row, cols[i]) != "" {
			res.AlreadyMarked = append(res.AlreadyMarked, name)
			continue
		}
		cell, err := excelize.CoordinatesToCellName(cols[i], row)
		if err != nil {
			l.clearCells(row, written)
			return SubmitResult{}, fmt.Errorf("cell for %s: %w", name, err)
		}
		if err := l.file.SetCellValue(l.sheet, cell, marker); err != nil {
			l.clearCells(row, written)
			return SubmitResult{}, fmt.Errorf("setting %s: %w", cell, err)
		}
		l.setCell(row, cols[i], marker)
		written = append(written, cols[i])
		res.Marked = append(res.Marked, name)
	}

	if len(res.Marked) == 0 {
		return res, nil
	}
	if err := l.Save(); err != nil {
		l.clearCells(row, written)
		return SubmitResult{}, err
	}
	return res, nil
}

// clearCells empties cols of row in both the workbook and the snapshot, so
// an unsaved submission leaves no marks behind.
func (l *Ledger) clearCells(row int, cols []int) {
	for _, col := range cols {
		if cell, err := excelize.CoordinatesToCellName(col, row); err == nil {
			_ = l.file.SetCellDefault(l.sheet, cell, "")
		}
		l.setCell(row, col, "")
	}
}

// Save rewrites the whole workbook. The new content goes to a temporary file
// next to the ledger which then replaces it, so readers never see a partial file.
func (l *Ledger) Save() error {
	tmp, err := os.CreateTemp(filepath.Dir(l.path), ".otmeal-*.xlsx")
	if err != nil {
		return &model.IOError{Op: "saving ledger", Path: l.path, Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := l.file.Write(tmp); err != nil {
		_ = tmp.Close()
		return &model.IOError{Op: "saving ledger", Path: l.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &model.IOError{Op: "saving ledger", Path: l.path, Err: err}
	}
	if info, err := os.Stat(l.path); err == nil {
		_ = os.Chmod(tmpName, info.Mode().Perm())
	}
	if err := os.Rename(tmpName, l.path); err != nil {
		return &model.IOError{Op: "replacing ledger", Path: l.path, Err: err}
	}
	if info, err := os.Stat(l.path); err == nil {
		l.modTime, l.size = info.ModTime(), info.Size()
	}
	return nil
}

func (l *Ledger) setCell(row, col int, v string) {
	for len(l.rows) < row {
		l.rows = append(l.rows, nil)
	}
	cells := l.rows[row-1]
	for len(cells) < col {
		cells = append(cells, "")
	}
	cells[col-1] = v
	l.rows[row-1] = cells
}

// cellValue hands numeric cells to the normalizer as serials, text as text.
// Eight digits read as a compact date (20250101) when they parse as one.
func cellValue(raw string) any {
	if raw == "" {
		return nil
	}
	if len(raw) == 8 && allDigits(raw) {
		if _, err := otdate.Parse(raw); err == nil {
			return raw
		}
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
