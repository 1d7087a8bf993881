package commands_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otmeal-dev/otmeal/internal/commands"
	"github.com/otmeal-dev/otmeal/internal/gitops"
	"github.com/otmeal-dev/otmeal/internal/ledgertest"
)

func runOtmeal(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, logs bytes.Buffer
	cmd := commands.NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&logs)
	err := cmd.Execute()
	return out.String(), err
}

func TestInit_CreatesStructure(t *testing.T) {
	dir := t.TempDir()
	out, err := runOtmeal(t, "init", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized otmeal project at "+dir)

	expectedDirs := []string{
		"bills",
		"logs",
		"inbox",
		filepath.Join("inbox", "processed"),
	}
	for _, d := range expectedDirs {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir(), "%s should be a directory", d)
	}

	_, err = os.Stat(filepath.Join(dir, "OT_Tracker.xlsx"))
	assert.True(t, os.IsNotExist(err), "init never creates the ledger")
}

func TestInit_Config(t *testing.T) {
	dir := t.TempDir()
	_, err := runOtmeal(t, "init", dir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "otmeal.yaml"))
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "path: OT_Tracker.xlsx")
	assert.Contains(t, contents, "sheet: OT")
	assert.Contains(t, contents, "per_person_threshold: \"750\"")
	assert.Contains(t, contents, "auto_commit: false")
}

func TestInit_KeepsExistingConfig(t *testing.T) {
	dir := t.TempDir()
	custom := "ledger:\n  path: claims.xlsx\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "otmeal.yaml"), []byte(custom), 0o644))

	out, err := runOtmeal(t, "init", dir)
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(dir, "claims.xlsx"), "note points at the configured ledger")

	data, err := os.ReadFile(filepath.Join(dir, "otmeal.yaml"))
	require.NoError(t, err)
	assert.Equal(t, custom, string(data))
}

func TestInit_ExistingLedger(t *testing.T) {
	dir := t.TempDir()
	ledgertest.Scenario(t, dir)

	out, err := runOtmeal(t, "init", dir)
	require.NoError(t, err)
	assert.NotContains(t, out, "Note:")

	out, err = runOtmeal(t, "--repo", dir, "claims", "status", "--date", "2025-01-02")
	require.NoError(t, err)
	assert.Contains(t, out, "2025-01-02 (row 3)")
	assert.Contains(t, out, "Claimed:   (none)")
	assert.Contains(t, out, "Unclaimed: Alice, Bob")
}

func TestInit_Git(t *testing.T) {
	if !gitops.Available() {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	ledgertest.Scenario(t, dir)

	out, err := runOtmeal(t, "init", dir, "--git")
	require.NoError(t, err)
	assert.Regexp(t, `Initialized otmeal project at .+ \([0-9a-f]+\)`, out)
	assert.True(t, gitops.IsRepo(dir))

	data, err := os.ReadFile(filepath.Join(dir, "otmeal.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "auto_commit: true")

	// Later submissions are committed too.
	out, err = runOtmeal(t, "--repo", dir, "claims", "submit", "--date", "2025-01-02", "--bill", "100", "--name", "Bob")
	require.NoError(t, err)
	assert.Regexp(t, `Committed [0-9a-f]+`, out)
}
