// Package rank orders score maps and keeps their top quartile.
package rank

import (
	"sort"

	"github.com/mchmarny/shortlist/pkg/score"
)

// Ranked is a company at a 1-based position of the shortlist.
type Ranked struct {
	Rank    int     `json:"rank" yaml:"rank"`
	Company string  `json:"company" yaml:"company"`
	Score   float64 `json:"score" yaml:"score"`
}

// QuartileSize returns ceil(n/4).
func QuartileSize(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + 3) / 4
}

// Rank sorts m by descending score and returns the top quartile. Equal scores
// keep the map's insertion order. Ranks are dense and start at 1.
func Rank(m *score.Map) []Ranked {
	entries := m.Entries()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})

	k := QuartileSize(len(entries))
	list := make([]Ranked, k)
	for i, e := range entries[:k] {
		list[i] = Ranked{
			Rank:    i + 1,
			Company: e.Company,
			Score:   e.Score,
		}
	}

	return list
}
