// Package importer stores receipts dropped into the project's inbox
// directory. Inbox files are named <YYYY-MM-DD>__<name>__<original file>.
package importer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/otmeal-dev/otmeal/internal/filename"
	"github.com/otmeal-dev/otmeal/internal/model"
	"github.com/otmeal-dev/otmeal/internal/otdate"
)

// Saver stores one uploaded bill.
type Saver interface {
	Save(date time.Time, userName, fileName string, payload []byte) (model.UploadRecord, error)
}

// FileInfo describes a file waiting in the inbox.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// Skipped is an inbox file that was left in place.
type Skipped struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Result summarizes one import run.
type Result struct {
	Imported []model.UploadRecord `json:"imported"`
	Skipped  []Skipped            `json:"skipped"`
}

// InboxDir is the subdirectory scanned for receipts.
const InboxDir = "inbox"

// processedDir receives files once they are stored.
const processedDir = "inbox/processed"

// Scan returns the regular, non-hidden files in <root>/inbox/.
func Scan(root string) ([]FileInfo, error) {
	dir := filepath.Join(root, InboxDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading inbox: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// ParseInboxName splits an inbox file name into its OT date, uploader name
// and original file name.
func ParseInboxName(name string) (time.Time, string, string, error) {
	parts := strings.SplitN(name, filename.Separator, 3)
	if len(parts) != 3 {
		return time.Time{}, "", "", fmt.Errorf("expected <date>%s<name>%s<file>", filename.Separator, filename.Separator)
	}
	date, err := otdate.Parse(parts[0])
	if err != nil {
		return time.Time{}, "", "", fmt.Errorf("parsing date %q: %w", parts[0], err)
	}
	user := strings.TrimSpace(parts[1])
	file := strings.TrimSpace(parts[2])
	if user == "" {
		return time.Time{}, "", "", errors.New("missing uploader name")
	}
	if file == "" {
		return time.Time{}, "", "", errors.New("missing file name")
	}
	return date, user, file, nil
}

// ImportInbox stores every well-named inbox file through saver and moves it
// to inbox/processed/. Files that cannot be parsed or stored are skipped and
// stay in the inbox.
func ImportInbox(root string, saver Saver) (Result, error) {
	files, err := Scan(root)
	if err != nil {
		return Result{}, err
	}

	res := Result{Imported: []model.UploadRecord{}, Skipped: []Skipped{}}
	for _, f := range files {
		date, user, original, err := ParseInboxName(f.Name)
		if err != nil {
			res.Skipped = append(res.Skipped, Skipped{Name: f.Name, Reason: err.Error()})
			continue
		}

		payload, err := os.ReadFile(f.Path)
		if err != nil {
			return res, fmt.Errorf("reading %s: %w", f.Name, err)
		}
		rec, err := saver.Save(date, user, original, payload)
		if model.IsValidation(err) {
			res.Skipped = append(res.Skipped, Skipped{Name: f.Name, Reason: err.Error()})
			continue
		}
		if err != nil {
			return res, err
		}

		if err := MarkProcessed(root, f.Name); err != nil {
			return res, err
		}
		log.WithFields(log.Fields{
			"file":        f.Name,
			"stored_path": rec.StoredPath,
		}).Info("Imported bill from inbox")
		res.Imported = append(res.Imported, rec)
	}
	return res, nil
}

// MarkProcessed moves a file from inbox/ to inbox/processed/, adding a
// counter to the name when a file of that name was processed before.
func MarkProcessed(root, name string) error {
	src := filepath.Join(root, InboxDir, name)
	dstDir := filepath.Join(root, processedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, name)
	for n := 1; ; n++ {
		if _, err := os.Lstat(dst); errors.Is(err, fs.ErrNotExist) {
			break
		}
		dst = filepath.Join(dstDir, filename.WithCounter(name, n))
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", name, err)
	}
	return nil
}
