package model

import "time"

// UploadRecord is one row of the bills index.
type UploadRecord struct {
	OTDate     time.Time `json:"ot_date"`
	UserName   string    `json:"user_name"`
	FileName   string    `json:"file_name"`   // original name as uploaded
	StoredPath string    `json:"stored_path"` // relative to the bills directory, '/'-separated
	UploadedAt time.Time `json:"uploaded_at"`
}
