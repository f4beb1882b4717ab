package source

import (
	"errors"
	"fmt"
)

// ErrFormat matches every FormatError via errors.Is.
var ErrFormat = errors.New("format error")

// FormatError reports input the ranking cannot interpret: a missing column or
// cell, a non-numeric value in a numeric field or bytes that are not UTF-8. It
// is fatal for the run.
type FormatError struct {
	Path   string
	Row    int // 0-based data row, -1 for the header
	Column string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("%s: header: column %q: %v", e.Path, e.Column, e.Err)
	}
	return fmt.Sprintf("%s: row %d: column %q: %v", e.Path, e.Row+1, e.Column, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

var (
	errMissingColumn   = errors.New("missing column")
	errMissingCell     = errors.New("missing value")
	errInvalidEncoding = errors.New("invalid UTF-8")
)
