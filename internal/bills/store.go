// Package bills stores receipt files per OT date and keeps a flat CSV index
// of every upload.
package bills

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/otmeal-dev/otmeal/internal/filename"
	"github.com/otmeal-dev/otmeal/internal/model"
	"github.com/otmeal-dev/otmeal/internal/otdate"
)

// maxCounter bounds the collision search in one date directory.
const maxCounter = 10000

// Store saves receipts under baseDir/<YYYY-MM-DD>/ and records them in the
// index at indexPath.
type Store struct {
	baseDir   string
	indexPath string
	allLabel  string
	now       func() time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the upload timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithAllLabel sets the name that lists every upload (default AllUsers).
func WithAllLabel(label string) Option {
	return func(s *Store) {
		if label != "" {
			s.allLabel = label
		}
	}
}

// NewStore creates a Store.
func NewStore(baseDir, indexPath string, opts ...Option) *Store {
	s := &Store{baseDir: baseDir, indexPath: indexPath, allLabel: AllUsers, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BaseDir returns the directory receipts are stored under.
func (s *Store) BaseDir() string { return s.baseDir }

// IndexPath returns the path of the CSV index.
func (s *Store) IndexPath() string { return s.indexPath }

// Save writes payload under a name derived from userName and fileName that
// does not exist yet, then appends the record to the index. The file is
// written before the index; if the index append fails the file stays.
func (s *Store) Save(date time.Time, userName, fileName string, payload []byte) (model.UploadRecord, error) {
	if strings.TrimSpace(fileName) == "" || len(payload) == 0 {
		return model.UploadRecord{}, model.Invalid("file", "no file uploaded")
	}
	if strings.TrimSpace(userName) == "" {
		return model.UploadRecord{}, model.Invalid("name", "name is required")
	}
	if date.IsZero() {
		return model.UploadRecord{}, model.Invalid("date", "date is required")
	}
	date = otdate.DateOf(date)

	dayDir := otdate.Format(date)
	dir := filepath.Join(s.baseDir, dayDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return model.UploadRecord{}, &model.IOError{Op: "creating bill directory", Path: dir, Err: err}
	}

	stored, err := writeNew(dir, filename.Candidate(userName, fileName), payload)
	if err != nil {
		return model.UploadRecord{}, err
	}

	rec := model.UploadRecord{
		OTDate:     date,
		UserName:   strings.TrimSpace(userName),
		FileName:   fileName,
		StoredPath: path.Join(dayDir, stored),
		UploadedAt: s.now().Truncate(time.Second),
	}
	if err := s.appendIndex(rec); err != nil {
		log.WithFields(log.Fields{
			"stored_path": rec.StoredPath,
			"error":       err,
		}).Error("Bill stored but index append failed")
		return model.UploadRecord{}, err
	}

	log.WithFields(log.Fields{
		"ot_date":     dayDir,
		"user":        rec.UserName,
		"stored_path": rec.StoredPath,
		"bytes":       len(payload),
	}).Info("Stored bill")
	return rec, nil
}

// writeNew creates name (or name__1, name__2, ...) in dir with O_EXCL and
// writes payload to it. It returns the name actually used.
func writeNew(dir, name string, payload []byte) (string, error) {
	for n := 0; n < maxCounter; n++ {
		candidate := filename.WithCounter(name, n)
		full := filepath.Join(dir, candidate)

		f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", &model.IOError{Op: "creating bill file", Path: full, Err: err}
		}

		if _, err := f.Write(payload); err != nil {
			_ = f.Close()
			return "", &model.IOError{Op: "writing bill file", Path: full, Err: err}
		}
		if err := f.Close(); err != nil {
			return "", &model.IOError{Op: "writing bill file", Path: full, Err: err}
		}
		return candidate, nil
	}
	return "", &model.IOError{Op: "creating bill file", Path: filepath.Join(dir, name), Err: fmt.Errorf("more than %d files with this name", maxCounter)}
}

// appendIndex appends rec, creating the index with its header when absent.
func (s *Store) appendIndex(rec model.UploadRecord) error {
	if dir := filepath.Dir(s.indexPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &model.IOError{Op: "creating index directory", Path: dir, Err: err}
		}
	}

	needsHeader := false
	if info, err := os.Stat(s.indexPath); errors.Is(err, fs.ErrNotExist) || (err == nil && info.Size() == 0) {
		needsHeader = true
	}

	f, err := os.OpenFile(s.indexPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return &model.IOError{Op: "opening bills index", Path: s.indexPath, Err: err}
	}
	defer f.Close()

	if needsHeader {
		if err := WriteHeader(f); err != nil {
			return &model.IOError{Op: "writing bills index", Path: s.indexPath, Err: err}
		}
	}
	if err := AppendRecords(f, []model.UploadRecord{rec}); err != nil {
		return &model.IOError{Op: "writing bills index", Path: s.indexPath, Err: err}
	}
	return nil
}

// Records returns every index row in file order. A missing index is empty.
func (s *Store) Records() ([]model.UploadRecord, error) {
	f, err := os.Open(s.indexPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &model.IOError{Op: "opening bills index", Path: s.indexPath, Err: err}
	}
	defer f.Close()

	recs, err := ReadRecords(f)
	if err != nil {
		return nil, fmt.Errorf("bills index %s: %w", s.indexPath, err)
	}
	return recs, nil
}

// Resolve maps a stored path from the index to a file under the bills
// directory. Paths that would leave the directory are rejected.
func (s *Store) Resolve(storedPath string) (string, error) {
	p := strings.ReplaceAll(storedPath, "\\", "/")
	if p == "" || strings.HasPrefix(p, "/") {
		return "", model.Invalid("path", "bad stored path %q", storedPath)
	}
	clean := path.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") || filepath.VolumeName(filepath.FromSlash(clean)) != "" {
		return "", model.Invalid("path", "bad stored path %q", storedPath)
	}
	return filepath.Join(s.baseDir, filepath.FromSlash(clean)), nil
}

// Open opens a stored bill for download.
func (s *Store) Open(storedPath string) (*os.File, error) {
	full, err := s.Resolve(storedPath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("bill %s: %w", storedPath, model.ErrNotFound)
	}
	if err != nil {
		return nil, &model.IOError{Op: "opening bill", Path: full, Err: err}
	}
	return f, nil
}
