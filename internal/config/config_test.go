package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Ledger.Path = "shared/OT 2025.xlsx"
	cfg.Allocation.PerPersonThreshold = decimal.RequireFromString("812.50")
	cfg.Git.AutoCommit = true

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.Ledger, got.Ledger)
	assert.True(t, cfg.Allocation.PerPersonThreshold.Equal(got.Allocation.PerPersonThreshold))
	assert.Equal(t, cfg.Bills, got.Bills)
	assert.Equal(t, cfg.Audit, got.Audit)
	assert.Equal(t, cfg.Server, got.Server)
	assert.Equal(t, cfg.Logging, got.Logging)
	assert.Equal(t, cfg.Git, got.Git)
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "OT_Tracker.xlsx", cfg.Ledger.Path)
	assert.Equal(t, "OT", cfg.Ledger.Sheet)
	assert.Equal(t, "OT", cfg.Ledger.Marker)
	assert.True(t, cfg.Allocation.PerPersonThreshold.Equal(decimal.NewFromInt(750)))
	assert.Equal(t, "bills", cfg.Bills.Dir)
	assert.Equal(t, "bills_index.csv", cfg.Bills.Index)
	assert.Equal(t, "All", cfg.Bills.AllLabel)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.False(t, cfg.Git.AutoCommit)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	content := "ledger:\n  path: claims.xlsx\nallocation:\n  per_person_threshold: 500\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "claims.xlsx", cfg.Ledger.Path)
	assert.Equal(t, "OT", cfg.Ledger.Sheet)
	assert.True(t, cfg.Allocation.PerPersonThreshold.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, "bills", cfg.Bills.Dir)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadProject_NoFiles(t *testing.T) {
	cfg, err := LoadProject(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default().Ledger, cfg.Ledger)
}

func TestLoadProject_DotEnvAndEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("OTMEAL_LEDGER_SHEET=Claims\nOTMEAL_ADDR=:9999\n"), 0o644))
	t.Setenv("OTMEAL_ADDR", ":7000")
	t.Setenv("OTMEAL_LEDGER_SHEET", "")
	os.Unsetenv("OTMEAL_LEDGER_SHEET")

	cfg, err := LoadProject(dir)
	require.NoError(t, err)
	assert.Equal(t, "Claims", cfg.Ledger.Sheet, ".env fills unset variables")
	assert.Equal(t, ":7000", cfg.Server.Addr, "environment wins over .env")
}

func TestLoadProject_Invalid(t *testing.T) {
	dir := t.TempDir()
	content := "ledger:\n  sheet: \"\"\nallocation:\n  per_person_threshold: 0\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))

	_, err := LoadProject(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ledger.sheet is empty")
	assert.Contains(t, err.Error(), "per_person_threshold must be positive")
}

func TestApplyEnv_Threshold(t *testing.T) {
	t.Setenv("OTMEAL_PER_PERSON_THRESHOLD", "600")
	cfg := Default()
	cfg.ApplyEnv()
	assert.True(t, cfg.Allocation.PerPersonThreshold.Equal(decimal.NewFromInt(600)))

	t.Setenv("OTMEAL_PER_PERSON_THRESHOLD", "lots")
	cfg = Default()
	cfg.ApplyEnv()
	assert.True(t, cfg.Allocation.PerPersonThreshold.Equal(decimal.NewFromInt(750)), "unparseable value is ignored")
}

func TestResolve(t *testing.T) {
	root := filepath.Join("srv", "otmeal")
	assert.Equal(t, filepath.Join(root, "bills"), Resolve(root, "bills"))
	abs, err := filepath.Abs("ledger.xlsx")
	require.NoError(t, err)
	assert.Equal(t, abs, Resolve(root, abs))
	assert.Equal(t, "", Resolve(root, ""))

	cfg := Default()
	assert.Equal(t, filepath.Join(root, "logs", "claim-log.csv"), cfg.AuditPath(root))
	assert.Equal(t, filepath.Join(root, "OT_Tracker.xlsx"), cfg.LedgerPath(root))
}
