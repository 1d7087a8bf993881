package auditlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func submission() Entry {
	return Entry{
		Timestamp:  time.Date(2025, 1, 2, 21, 30, 0, 0, time.UTC),
		OTDate:     time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		Names:      []string{"Alice", "Bob"},
		BillAmount: decimal.RequireFromString("800"),
		Required:   2,
		Marked:     2,
	}
}

func TestAppend_WritesHeaderOnce(t *testing.T) {
	log := New(filepath.Join(t.TempDir(), "logs", "claim-log.csv"))
	require.NoError(t, log.Append(submission()))

	second := submission()
	second.Names = []string{"Carol"}
	second.BillAmount = decimal.RequireFromString("120.5")
	second.Required, second.Marked = 1, 1
	require.NoError(t, log.Append(second))

	data, err := os.ReadFile(log.Path())
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"timestamp,ot_date,names,bill_amount,required,marked",
		"2025-01-02T21:30:00Z,2025-01-02,Alice;Bob,800.00,2,2",
		"2025-01-02T21:30:00Z,2025-01-02,Carol,120.50,1,1",
	}, "\n")+"\n", string(data))
}

func TestAppend_EmptyFileGetsHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claim-log.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	log := New(path)
	require.NoError(t, log.Append(submission()))

	entries, err := log.Entries()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAppend_Nothing(t *testing.T) {
	log := New(filepath.Join(t.TempDir(), "claim-log.csv"))
	require.NoError(t, log.Append())

	_, err := os.Stat(log.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestEntries_RoundTrip(t *testing.T) {
	log := New(filepath.Join(t.TempDir(), "claim-log.csv"))
	want := submission()
	require.NoError(t, log.Append(want))

	entries, err := log.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	got := entries[0]
	assert.True(t, want.Timestamp.Equal(got.Timestamp))
	assert.True(t, want.OTDate.Equal(got.OTDate))
	assert.Equal(t, want.Names, got.Names)
	assert.True(t, want.BillAmount.Equal(got.BillAmount))
	assert.Equal(t, want.Required, got.Required)
	assert.Equal(t, want.Marked, got.Marked)
}

func TestEntries_NoFile(t *testing.T) {
	entries, err := New(filepath.Join(t.TempDir(), "missing.csv")).Entries()
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestDecode_EmptyNames(t *testing.T) {
	in := "timestamp,ot_date,names,bill_amount,required,marked\n2025-01-02T21:30:00Z,2025-01-02,,0.00,0,0\n"
	entries, err := Decode(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].Names)
}

func TestDecode_BadHeader(t *testing.T) {
	_, err := Decode(strings.NewReader("when,date,who,bill,req,marked\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected claim log header")
}

func TestDecode_BadRows(t *testing.T) {
	header := "timestamp,ot_date,names,bill_amount,required,marked\n"
	tests := []struct {
		name string
		row  string
	}{
		{"short row", "2025-01-02T21:30:00Z,2025-01-02"},
		{"timestamp", "noon,2025-01-02,A,1.00,1,1"},
		{"ot_date", "2025-01-02T21:30:00Z,soon,A,1.00,1,1"},
		{"bill_amount", "2025-01-02T21:30:00Z,2025-01-02,A,lots,1,1"},
		{"required", "2025-01-02T21:30:00Z,2025-01-02,A,1.00,x,1"},
		{"marked", "2025-01-02T21:30:00Z,2025-01-02,A,1.00,1,x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(header + tt.row + "\n"))
			assert.Error(t, err)
		})
	}
}

func TestDecode_ReportsLine(t *testing.T) {
	in := "timestamp,ot_date,names,bill_amount,required,marked\n" +
		"2025-01-02T21:30:00Z,2025-01-02,A,1.00,1,1\n" +
		"2025-01-02T21:30:00Z,2025-01-02,A,1.00,1,x\n"
	_, err := Decode(strings.NewReader(in))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}
