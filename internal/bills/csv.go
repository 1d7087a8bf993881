package bills

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/otmeal-dev/otmeal/internal/model"
	"github.com/otmeal-dev/otmeal/internal/otdate"
)

// Header is the CSV header of the bills index.
const Header = "ot_date,user_name,file_name,stored_path,uploaded_at"

const (
	numFields     = 5
	colDate       = 0
	colUser       = 1
	colFile       = 2
	colStored     = 3
	colUploadedAt = 4
)

// MarshalRecord converts an UploadRecord to a CSV row.
func MarshalRecord(rec model.UploadRecord) []string {
	row := make([]string, numFields)
	row[colDate] = otdate.Format(rec.OTDate)
	row[colUser] = rec.UserName
	row[colFile] = rec.FileName
	row[colStored] = rec.StoredPath
	row[colUploadedAt] = rec.UploadedAt.Format(time.RFC3339)
	return row
}

// UnmarshalRecord converts a CSV row to an UploadRecord.
func UnmarshalRecord(record []string) (model.UploadRecord, error) {
	if len(record) != numFields {
		return model.UploadRecord{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	d, err := otdate.Parse(record[colDate])
	if err != nil {
		return model.UploadRecord{}, fmt.Errorf("parsing ot_date: %w", err)
	}

	uploaded, err := parseTimestamp(record[colUploadedAt])
	if err != nil {
		return model.UploadRecord{}, fmt.Errorf("parsing uploaded_at %q: %w", record[colUploadedAt], err)
	}

	return model.UploadRecord{
		OTDate:     d,
		UserName:   record[colUser],
		FileName:   record[colFile],
		StoredPath: record[colStored],
		UploadedAt: uploaded,
	}, nil
}

// ReadRecords reads a bills index (header row first).
func ReadRecords(r io.Reader) ([]model.UploadRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading bills index CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var out []model.UploadRecord
	for i, rec := range records[1:] {
		u, err := UnmarshalRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, u)
	}
	return out, nil
}

// WriteHeader writes the index header row.
func WriteHeader(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

// AppendRecords writes rows without a header.
func AppendRecords(w io.Writer, recs []model.UploadRecord) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	for i, rec := range recs {
		if err := cw.Write(MarshalRecord(rec)); err != nil {
			return fmt.Errorf("writing record %d: %w", i, err)
		}
	}
	return cw.Error()
}

// parseTimestamp accepts RFC 3339 as written here and the naive ISO form
// older indexes used.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05.999999999"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp")
}
