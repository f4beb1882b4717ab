// Package report renders rankings into an xlsx workbook, one sheet per
// ranking, reproducing the original funding source rows.
package report

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mchmarny/shortlist/pkg/rank"
	"github.com/xuri/excelize/v2"
)

// RowSource returns an original source row by its 0-based data row index.
type RowSource interface {
	Row(idx int) ([]string, error)
}

// IndexFunc resolves a company to its source row index.
type IndexFunc func(company string) (int, bool)

// Sheet is one ranking rendered into its own worksheet.
type Sheet struct {
	Name    string
	Ranking []rank.Ranked
}

// Write saves sheets to path. Each sheet starts with header; the company at
// rank r is written to spreadsheet row r+1 as its full original row.
func Write(path string, header []string, sheets []Sheet, rows RowSource, index IndexFunc) (retErr error) {
	if path == "" {
		return errors.New("output path required")
	}
	if len(sheets) == 0 {
		return errors.New("at least one sheet required")
	}
	if rows == nil || index == nil {
		return errors.New("row source and index required")
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil && retErr == nil {
			retErr = fmt.Errorf("closing workbook: %w", err)
		}
	}()

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), s.Name); err != nil {
				return fmt.Errorf("error naming sheet %s: %w", s.Name, err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			return fmt.Errorf("error creating sheet %s: %w", s.Name, err)
		}

		if err := writeSheet(f, s, header, rows, index); err != nil {
			return fmt.Errorf("error writing sheet %s: %w", s.Name, err)
		}
		slog.Debug("sheet written", "sheet", s.Name, "companies", len(s.Ranking))
	}

	f.SetActiveSheet(0)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("error saving workbook %s: %w", path, err)
	}

	return nil
}

func writeSheet(f *excelize.File, s Sheet, header []string, rows RowSource, index IndexFunc) error {
	if err := writeRow(f, s.Name, 1, header); err != nil {
		return err
	}

	for _, r := range s.Ranking {
		idx, ok := index(r.Company)
		if !ok {
			return fmt.Errorf("no source row for company %q", r.Company)
		}

		row, err := rows.Row(idx)
		if err != nil {
			return fmt.Errorf("error fetching row for company %q: %w", r.Company, err)
		}

		if err := writeRow(f, s.Name, r.Rank+1, row); err != nil {
			return err
		}
	}

	return nil
}

func writeRow(f *excelize.File, sheet string, row int, cells []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("invalid row %d: %w", row, err)
	}

	vals := make([]any, len(cells))
	for i, c := range cells {
		vals[i] = c
	}

	if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
		return fmt.Errorf("error writing row %d: %w", row, err)
	}
	return nil
}
