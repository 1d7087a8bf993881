package bills

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otmeal-dev/otmeal/internal/model"
)

var otDay = time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	root := t.TempDir()
	tick := time.Date(2025, 1, 2, 20, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}
	s := NewStore(filepath.Join(root, "bills"), filepath.Join(root, "bills_index.csv"), WithClock(clock))
	return s, root
}

func TestSave_SameNameTwice(t *testing.T) {
	s, _ := newTestStore(t)

	first, err := s.Save(otDay, "Bob", "receipt.pdf", []byte("one"))
	require.NoError(t, err)
	second, err := s.Save(otDay, "Bob", "receipt.pdf", []byte("two"))
	require.NoError(t, err)

	assert.Equal(t, "2025-01-02/Bob__receipt.pdf", first.StoredPath)
	assert.Equal(t, "2025-01-02/Bob__receipt__1.pdf", second.StoredPath)

	data, err := os.ReadFile(filepath.Join(s.BaseDir(), "2025-01-02", "Bob__receipt.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "one", string(data), "first file must not be overwritten")
	data, err = os.ReadFile(filepath.Join(s.BaseDir(), "2025-01-02", "Bob__receipt__1.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	recs, err := s.Records()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.NotEqual(t, recs[0].StoredPath, recs[1].StoredPath)
	assert.Equal(t, "receipt.pdf", recs[1].FileName)
}

func TestSave_CounterSkipsTakenNames(t *testing.T) {
	s, _ := newTestStore(t)
	dir := filepath.Join(s.BaseDir(), "2025-01-02")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, name := range []string{"Bob__receipt.pdf", "Bob__receipt__1.pdf", "Bob__receipt__2.pdf"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	rec, err := s.Save(otDay, "Bob", "receipt.pdf", []byte("new"))
	require.NoError(t, err)
	assert.Equal(t, "2025-01-02/Bob__receipt__3.pdf", rec.StoredPath)
}

func TestSave_SanitizesNames(t *testing.T) {
	s, _ := newTestStore(t)

	rec, err := s.Save(otDay, " Mary Ann ", "../dinner bill?.jpg", []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, "2025-01-02/Mary_Ann__.._dinner_bill_.jpg", rec.StoredPath)
	assert.Equal(t, "Mary Ann", rec.UserName)
	assert.Equal(t, "../dinner bill?.jpg", rec.FileName, "original name is recorded as uploaded")

	_, err = os.Stat(filepath.Join(s.BaseDir(), "2025-01-02", "Mary_Ann__.._dinner_bill_.jpg"))
	assert.NoError(t, err)
}

func TestSave_CreatesIndexWithHeader(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := os.Stat(s.IndexPath())
	require.True(t, errors.Is(err, os.ErrNotExist))

	_, err = s.Save(otDay, "Bob", "receipt.pdf", []byte("x"))
	require.NoError(t, err)

	data, err := os.ReadFile(s.IndexPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), Header+"\n")
	assert.Contains(t, string(data), "2025-01-02,Bob,receipt.pdf,2025-01-02/Bob__receipt.pdf,2025-01-02T20:01:00Z")
}

func TestSave_Validation(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Save(otDay, "Bob", "receipt.pdf", nil)
	require.Error(t, err)
	assert.True(t, model.IsValidation(err))

	_, err = s.Save(otDay, "Bob", "  ", []byte("x"))
	assert.True(t, model.IsValidation(err))

	_, err = s.Save(otDay, "", "receipt.pdf", []byte("x"))
	assert.True(t, model.IsValidation(err))

	_, err = s.Save(time.Time{}, "Bob", "receipt.pdf", []byte("x"))
	assert.True(t, model.IsValidation(err))

	_, err = os.Stat(s.BaseDir())
	assert.True(t, errors.Is(err, os.ErrNotExist), "nothing written on validation failure")
}

func TestSave_DirectoryFailure(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "bills")
	require.NoError(t, os.WriteFile(blocker, []byte("not a dir"), 0o644))
	s := NewStore(blocker, filepath.Join(root, "bills_index.csv"))

	_, err := s.Save(otDay, "Bob", "receipt.pdf", []byte("x"))
	require.Error(t, err)
	assert.True(t, model.IsIO(err))
}

func TestSave_IndexFailureLeavesFile(t *testing.T) {
	root := t.TempDir()
	indexDir := filepath.Join(root, "index.csv")
	require.NoError(t, os.MkdirAll(indexDir, 0o755)) // a directory where the index should be
	s := NewStore(filepath.Join(root, "bills"), indexDir)

	_, err := s.Save(otDay, "Bob", "receipt.pdf", []byte("x"))
	require.Error(t, err)
	assert.True(t, model.IsIO(err))

	_, err = os.Stat(filepath.Join(root, "bills", "2025-01-02", "Bob__receipt.pdf"))
	assert.NoError(t, err, "stored file is not rolled back")
}

func TestRecords_MissingIndex(t *testing.T) {
	s, _ := newTestStore(t)
	recs, err := s.Records()
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestOpen(t *testing.T) {
	s, _ := newTestStore(t)
	rec, err := s.Save(otDay, "Bob", "receipt.pdf", []byte("payload"))
	require.NoError(t, err)

	f, err := s.Open(rec.StoredPath)
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	_, err = s.Open("2025-01-02/missing.pdf")
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestResolve_RejectsEscapes(t *testing.T) {
	s, _ := newTestStore(t)
	for _, bad := range []string{"", "/etc/passwd", "../secret", "2025-01-02/../../secret", "..", ".", "..\\secret"} {
		_, err := s.Resolve(bad)
		assert.True(t, model.IsValidation(err), "path %q should be rejected", bad)
	}

	got, err := s.Resolve("2025-01-02/./Bob__r.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.BaseDir(), "2025-01-02", "Bob__r.pdf"), got)
}
