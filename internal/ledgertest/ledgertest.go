// Package ledgertest builds claim workbooks for tests.
package ledgertest

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// Sheet is the sheet name fixtures are written to.
const Sheet = "OT"

// Date returns midnight UTC on y-m-d.
func Date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

// Write creates a workbook at path. rows[i][0] is the date cell of sheet
// row i+2; nil cells are left empty.
func Write(t testing.TB, path string, headers []string, rows [][]any) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", Sheet))

	require.NoError(t, f.SetCellValue(Sheet, "A1", "Date"))
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+2, 1)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(Sheet, cell, h))
	}
	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(Sheet, cell, v))
		}
	}
	require.NoError(t, f.SaveAs(path))
}

// Scenario writes the two-person ledger into dir: Bob has claimed
// 2025-01-01, nobody has claimed 2025-01-02. It returns the path.
func Scenario(t testing.TB, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "OT_Tracker.xlsx")
	Write(t, path, []string{"Alice", "Bob"}, [][]any{
		{Date(2025, 1, 1), nil, "OT"},
		{Date(2025, 1, 2)},
	})
	return path
}

// CellValue reads one cell back from the workbook at path.
func CellValue(t testing.TB, path, cell string) string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue(Sheet, cell)
	require.NoError(t, err)
	return v
}
