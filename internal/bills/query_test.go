package bills

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otmeal-dev/otmeal/internal/model"
)

func seed(t *testing.T, s *Store) {
	t.Helper()
	uploads := []struct {
		day  int
		user string
		file string
	}{
		{2, "Bob", "receipt.pdf"},
		{2, "alice", "lunch.jpg"},
		{3, "Bob", "dinner.pdf"},
		{3, "Alice", "taxi.png"},
	}
	for _, u := range uploads {
		_, err := s.Save(time.Date(2025, 1, u.day, 0, 0, 0, 0, time.UTC), u.user, u.file, []byte(u.file))
		require.NoError(t, err)
	}
}

func fileNames(recs []model.UploadRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.FileName
	}
	return out
}

func TestListByName_CaseInsensitive(t *testing.T) {
	s, _ := newTestStore(t)
	seed(t, s)

	recs, err := s.ListByName("ALICE")
	require.NoError(t, err)
	assert.Equal(t, []string{"lunch.jpg", "taxi.png"}, fileNames(recs))

	recs, err = s.ListByName("Carol")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestListByName_All(t *testing.T) {
	s, _ := newTestStore(t)
	seed(t, s)

	recs, err := s.ListByName(AllUsers)
	require.NoError(t, err)
	assert.Len(t, recs, 4)

	recs, err = s.ListByName("all")
	require.NoError(t, err)
	assert.Len(t, recs, 4)
}

func TestListByName_CustomAllLabel(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root+"/bills", root+"/index.csv", WithAllLabel("Everyone"))
	seed(t, s)

	recs, err := s.ListByName("everyone")
	require.NoError(t, err)
	assert.Len(t, recs, 4)

	recs, err = s.ListByName(AllUsers)
	require.NoError(t, err)
	assert.Empty(t, recs, "default label is just a name once overridden")
}

func TestFind_ByDate(t *testing.T) {
	s, _ := newTestStore(t)
	seed(t, s)

	recs, err := s.Find(Query{Name: "bob", Date: time.Date(2025, 1, 3, 12, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	assert.Equal(t, []string{"dinner.pdf"}, fileNames(recs))

	recs, err = s.Find(Query{Date: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	assert.Equal(t, []string{"receipt.pdf", "lunch.jpg"}, fileNames(recs))
}

func TestSortNewestFirst(t *testing.T) {
	s, _ := newTestStore(t)
	seed(t, s)

	recs, err := s.ListByName(AllUsers)
	require.NoError(t, err)
	SortNewestFirst(recs)
	assert.Equal(t, []string{"taxi.png", "dinner.pdf", "lunch.jpg", "receipt.pdf"}, fileNames(recs))
}
