package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/otmeal-dev/otmeal/internal/ledgertest"
)

const testSheet = ledgertest.Sheet

func date(y, m, d int) time.Time { return ledgertest.Date(y, m, d) }

func writeWorkbook(t *testing.T, path string, headers []string, rows [][]any) {
	t.Helper()
	ledgertest.Write(t, path, headers, rows)
}

func scenarioLedger(t *testing.T) string {
	t.Helper()
	return ledgertest.Scenario(t, t.TempDir())
}

func openLedger(t *testing.T, path string) *Ledger {
	t.Helper()
	l, err := Open(path, testSheet)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}
