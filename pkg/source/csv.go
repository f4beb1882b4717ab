package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// table is a fully read CSV file: the verbatim header and the data rows.
type table struct {
	path   string
	header []string
	rows   [][]string
}

// readTable reads the CSV file at path. A leading UTF-8 BOM is dropped so the
// first header matches its configured name. Rows may be ragged. Bytes that are
// not valid UTF-8 fail the read instead of being replaced.
func readTable(ctx context.Context, path string) (*table, error) {
	if path == "" {
		return nil, errors.New("path not set")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening file: %s: %w", path, err)
	}
	defer f.Close()

	dec := transform.Chain(encoding.UTF8Validator, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	r := csv.NewReader(transform.NewReader(f, dec))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &FormatError{Path: path, Row: -1, Err: errors.New("empty file")}
		}
		if errors.Is(err, encoding.ErrInvalidUTF8) {
			return nil, &FormatError{Path: path, Row: -1, Err: errInvalidEncoding}
		}
		return nil, fmt.Errorf("error reading header: %s: %w", path, err)
	}

	t := &table{
		path:   path,
		header: header,
		rows:   make([][]string, 0),
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, encoding.ErrInvalidUTF8) {
			return nil, &FormatError{Path: path, Row: len(t.rows), Err: errInvalidEncoding}
		}
		if err != nil {
			return nil, fmt.Errorf("error reading file: %s: %w", path, err)
		}
		t.rows = append(t.rows, row)
	}

	return t, nil
}

// columns resolves names to header positions, failing on the first one the
// header does not carry.
func (t *table) columns(names ...string) ([]int, error) {
	idx := make([]int, len(names))
	for i, n := range names {
		c := findColumn(t.header, n)
		if c < 0 {
			return nil, &FormatError{Path: t.path, Row: -1, Column: n, Err: errMissingColumn}
		}
		idx[i] = c
	}
	return idx, nil
}

// cell returns the value of column col in data row r.
func (t *table) cell(r, col int) (string, error) {
	row := t.rows[r]
	if col >= len(row) {
		return "", &FormatError{Path: t.path, Row: r, Column: t.header[col], Err: errMissingCell}
	}
	return row[col], nil
}

// findColumn returns the position of the header equal to name. When the
// header repeats a name the last one wins, as it does for a dict keyed by
// header.
func findColumn(header []string, name string) int {
	idx := -1
	for i, h := range header {
		if h == name {
			idx = i
		}
	}
	return idx
}

func splitList(val string) []string {
	return strings.Split(val, listSeparator)
}
