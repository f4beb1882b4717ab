package source

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mchmarny/shortlist/pkg/name"
)

// SignalColumns names the signal source headers.
type SignalColumns struct {
	Position string
	Score    string
	Tags     string
}

// SignalRecord is one signal source row.
type SignalRecord struct {
	Name  string   `json:"name" yaml:"name"`
	Score int      `json:"score" yaml:"score"`
	Tags  []string `json:"tags" yaml:"tags"`
}

// HasTag reports whether any tag contains sub.
func (s SignalRecord) HasTag(sub string) bool {
	for _, t := range s.Tags {
		if strings.Contains(t, sub) {
			return true
		}
	}
	return false
}

// ReadSignals reads the signal source at path. Scores are not range checked.
func ReadSignals(ctx context.Context, path string, cols SignalColumns) ([]SignalRecord, error) {
	t, err := readTable(ctx, path)
	if err != nil {
		return nil, err
	}

	idx, err := t.columns(cols.Position, cols.Score, cols.Tags)
	if err != nil {
		return nil, err
	}

	list := make([]SignalRecord, 0, len(t.rows))
	for r := range t.rows {
		pos, err := t.cell(r, idx[0])
		if err != nil {
			return nil, err
		}
		score, err := t.cell(r, idx[1])
		if err != nil {
			return nil, err
		}
		tags, err := t.cell(r, idx[2])
		if err != nil {
			return nil, err
		}

		v, err := strconv.Atoi(strings.TrimSpace(score))
		if err != nil {
			return nil, &FormatError{
				Path:   path,
				Row:    r,
				Column: cols.Score,
				Err:    fmt.Errorf("invalid signal score %q: %w", score, err),
			}
		}

		list = append(list, SignalRecord{
			Name:  name.Normalize(pos),
			Score: v,
			Tags:  splitList(tags),
		})
	}

	slog.Debug("signal source read", "path", path, "rows", len(list))

	return list, nil
}
