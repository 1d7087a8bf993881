package bills

import (
	"sort"
	"strings"
	"time"

	"github.com/otmeal-dev/otmeal/internal/model"
	"github.com/otmeal-dev/otmeal/internal/otdate"
)

// AllUsers is the default name that matches every upload.
const AllUsers = "All"

// Query filters index records. Zero fields match everything.
type Query struct {
	Name string
	Date time.Time
}

// ListByName returns the uploads made for name (case-insensitive), or all
// uploads when name is the store's "all" label. Records keep index order.
func (s *Store) ListByName(name string) ([]model.UploadRecord, error) {
	return s.Find(Query{Name: name})
}

// Find returns the records matching q in index order.
func (s *Store) Find(q Query) ([]model.UploadRecord, error) {
	recs, err := s.Records()
	if err != nil {
		return nil, err
	}
	return Filter(recs, q, s.allLabel), nil
}

// Filter applies q to recs. A name equal to allLabel (or empty) matches
// every record.
func Filter(recs []model.UploadRecord, q Query, allLabel string) []model.UploadRecord {
	name := strings.TrimSpace(q.Name)
	anyName := name == "" || strings.EqualFold(name, allLabel)
	var day time.Time
	if !q.Date.IsZero() {
		day = otdate.DateOf(q.Date)
	}

	out := []model.UploadRecord{}
	for _, r := range recs {
		if !anyName && !strings.EqualFold(strings.TrimSpace(r.UserName), name) {
			continue
		}
		if !day.IsZero() && !r.OTDate.Equal(day) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// SortNewestFirst orders recs by upload time, latest first. Ties keep
// their relative order.
func SortNewestFirst(recs []model.UploadRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].UploadedAt.After(recs[j].UploadedAt)
	})
}
