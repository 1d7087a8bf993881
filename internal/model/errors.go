package model

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a ledger file, sheet, date row or stored bill is absent.
var ErrNotFound = errors.New("not found")

// ValidationError describes input that was rejected before anything was written.
type ValidationError struct {
	Field       string
	Description string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Description
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Description)
}

// Invalid is shorthand for a *ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Description: fmt.Sprintf(format, args...)}
}

// IOError wraps a failed read or write of a backing file.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsIO reports whether err is (or wraps) an *IOError.
func IsIO(err error) bool {
	var ioe *IOError
	return errors.As(err, &ioe)
}
