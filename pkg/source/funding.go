// Package source reads the funding and signal CSV sources into records keyed
// by normalized company name.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/mchmarny/shortlist/pkg/name"
)

// listSeparator separates investors and tags within a cell.
const listSeparator = ", "

// FundingColumns names the funding source headers.
type FundingColumns struct {
	Company       string
	Investors     string
	FinancingSize string
}

// CompanyRecord is one funding source row.
type CompanyRecord struct {
	Name          string   `json:"name" yaml:"name"`
	Investors     []string `json:"investors" yaml:"investors"`
	FinancingSize *float64 `json:"financing_size,omitempty" yaml:"financingSize,omitempty"`
	Row           int      `json:"row" yaml:"row"`
}

// EarlyStage reports whether the company has no recorded financing or one
// whose integer part does not exceed limit.
func (c CompanyRecord) EarlyStage(limit float64) bool {
	if c.FinancingSize == nil {
		return true
	}
	return math.Trunc(*c.FinancingSize) <= limit
}

// Funding is the parsed funding source. Header and Rows are verbatim, Rows[i]
// is the row a CompanyRecord with Row == i came from.
type Funding struct {
	Header    []string
	Rows      [][]string
	Companies []CompanyRecord
}

// ReadFunding reads the funding source at path.
func ReadFunding(ctx context.Context, path string, cols FundingColumns) (*Funding, error) {
	t, err := readTable(ctx, path)
	if err != nil {
		return nil, err
	}

	idx, err := t.columns(cols.Company, cols.Investors, cols.FinancingSize)
	if err != nil {
		return nil, err
	}

	res := &Funding{
		Header:    t.header,
		Rows:      t.rows,
		Companies: make([]CompanyRecord, 0, len(t.rows)),
	}

	for r := range t.rows {
		company, err := t.cell(r, idx[0])
		if err != nil {
			return nil, err
		}
		investors, err := t.cell(r, idx[1])
		if err != nil {
			return nil, err
		}
		size, err := t.cell(r, idx[2])
		if err != nil {
			return nil, err
		}

		fs, err := parseFinancingSize(size)
		if err != nil {
			return nil, &FormatError{Path: path, Row: r, Column: cols.FinancingSize, Err: err}
		}

		res.Companies = append(res.Companies, CompanyRecord{
			Name:          name.Normalize(company),
			Investors:     splitList(investors),
			FinancingSize: fs,
			Row:           r,
		})
	}

	slog.Debug("funding source read", "path", path, "rows", len(res.Rows))

	return res, nil
}

// parseFinancingSize returns nil for an empty cell.
func parseFinancingSize(val string) (*float64, error) {
	if val == "" {
		return nil, nil
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid financing size %q: %w", val, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, errors.New("financing size must be a finite number")
	}

	return &f, nil
}
