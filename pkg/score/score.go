// Package score computes the company quality score from investor tier
// membership and the external signal score.
//
// The model is categorical first: a top-tier investor fixes the score at the
// top value, otherwise tier-1 and tier-2 investors set a base value. The base
// value is then blended with the signal score when one is known, unless the
// company is pinned at the top value.
package score

import (
	"log/slog"

	"github.com/mchmarny/shortlist/pkg/source"
)

// Tier names reported in a Decision.
const (
	TierTop         = "top"
	TierOne         = "tier1"
	TierTwo         = "tier2"
	TierAccelerator = "accelerator"
	TierNone        = "none"
)

// Tiers lists investor names per weight class.
type Tiers struct {
	Top   []string
	Tier1 []string
	Tier2 []string
}

// Rules holds the tier tables and the numeric constants of the model.
type Rules struct {
	Tiers            Tiers
	TopScore         float64
	Tier1MultiScore  float64
	Tier1SingleScore float64
	Tier2Score       float64
	SignalWeight     float64 // share of the signal score in the blend
	EarlyStageMax    float64 // largest financing size, truncated, still early stage
	AcceleratorTag   string  // signal tag substring that pins a company at TopScore
}

// Input is everything the scoring pass reads. It is built once by Build and
// not modified afterwards.
type Input struct {
	rules Rules

	top   map[string]struct{}
	tier1 map[string]struct{}
	tier2 map[string]struct{}

	investors   map[string][]string
	signals     map[string]int
	rows        map[string]int
	accelerated map[string]bool

	full  *Map
	early *Map
}

// Build indexes the funding and signal records and creates the initial full
// and early-stage maps.
//
// When two funding records share a name the later one replaces the investors
// and row index of the earlier one, the company keeps its first position and
// stays early stage if any of its records was. A later signal record replaces
// an earlier score. Signal records for companies missing from the funding
// source are kept for lookup but never scored.
func Build(companies []source.CompanyRecord, signals []source.SignalRecord, r Rules) *Input {
	in := &Input{
		rules:       r,
		top:         toSet(r.Tiers.Top),
		tier1:       toSet(r.Tiers.Tier1),
		tier2:       toSet(r.Tiers.Tier2),
		investors:   make(map[string][]string, len(companies)),
		signals:     make(map[string]int, len(signals)),
		rows:        make(map[string]int, len(companies)),
		accelerated: make(map[string]bool),
		full:        NewMap(),
		early:       NewMap(),
	}

	for _, c := range companies {
		if _, ok := in.rows[c.Name]; ok {
			slog.Debug("duplicate company, later row wins", "company", c.Name, "row", c.Row)
		}
		in.investors[c.Name] = c.Investors
		in.rows[c.Name] = c.Row
		in.full.Set(c.Name, 0)
		if c.EarlyStage(r.EarlyStageMax) {
			in.early.Set(c.Name, 0)
		}
	}

	for _, s := range signals {
		in.signals[s.Name] = s.Score
		if !in.full.Has(s.Name) || !s.HasTag(r.AcceleratorTag) {
			continue
		}
		in.accelerated[s.Name] = true
		in.full.Set(s.Name, r.TopScore)
		if in.early.Has(s.Name) {
			in.early.Set(s.Name, r.TopScore)
		}
	}

	return in
}

// Full returns the initial map of all funding source companies.
func (in *Input) Full() *Map {
	return in.full
}

// Early returns the initial map of early-stage companies.
func (in *Input) Early() *Map {
	return in.early
}

// RowIndex returns the funding source row the company was last read from.
func (in *Input) RowIndex(company string) (int, bool) {
	r, ok := in.rows[company]
	return r, ok
}

// Decision explains how a company's score came about.
type Decision struct {
	Company    string  `json:"company" yaml:"company"`
	Score      float64 `json:"score" yaml:"score"`
	Tier       string  `json:"tier" yaml:"tier"`
	Tier1Count int     `json:"tier1_count" yaml:"tier1Count"`
	Signal     *int    `json:"signal,omitempty" yaml:"signal,omitempty"`
	Blended    bool    `json:"blended" yaml:"blended"`
	Pinned     bool    `json:"pinned" yaml:"pinned"`
}

// Decide scores a single company starting from its initial value.
func (in *Input) Decide(company string, initial float64) Decision {
	d := Decision{
		Company: company,
		Score:   initial,
		Tier:    TierNone,
	}

	// the accelerator pin holds only while no tier rule replaces the score
	if in.accelerated[company] {
		d.Tier = TierAccelerator
		d.Pinned = true
	}

	invs := in.investors[company]

	if containsAny(invs, in.top) {
		d.Score = in.rules.TopScore
		d.Tier = TierTop
		d.Pinned = true
		return d
	}

	if containsAny(invs, in.tier2) {
		d.Score = in.rules.Tier2Score
		d.Tier = TierTwo
		d.Pinned = false
	}

	d.Tier1Count = countDistinct(invs, in.tier1)
	switch {
	case d.Tier1Count >= 2:
		d.Score = in.rules.Tier1MultiScore
		d.Tier = TierOne
		d.Pinned = false
	case d.Tier1Count == 1:
		d.Score = in.rules.Tier1SingleScore
		d.Tier = TierOne
		d.Pinned = false
	}

	if s, ok := in.signals[company]; ok {
		d.Signal = &s
		if !d.Pinned {
			w := in.rules.SignalWeight
			d.Score = d.Score*(1-w) + float64(s)*w
			d.Blended = true
		}
	}

	return d
}

// Score returns a new map with a score for every company in target, in the
// same order. target is not modified.
func Score(in *Input, target *Map) *Map {
	out := NewMap()
	for _, e := range target.Entries() {
		d := in.Decide(e.Company, e.Score)
		slog.Debug("scored company",
			"company", d.Company,
			"score", d.Score,
			"tier", d.Tier,
			"tier1", d.Tier1Count,
			"blended", d.Blended,
		)
		out.Set(e.Company, d.Score)
	}
	return out
}

// Explain returns the decision for every company in target, in order.
func Explain(in *Input, target *Map) []Decision {
	list := make([]Decision, 0, target.Len())
	for _, e := range target.Entries() {
		list = append(list, in.Decide(e.Company, e.Score))
	}
	return list
}

func toSet(list []string) map[string]struct{} {
	m := make(map[string]struct{}, len(list))
	for _, v := range list {
		m[v] = struct{}{}
	}
	return m
}

func containsAny(list []string, set map[string]struct{}) bool {
	for _, v := range list {
		if _, ok := set[v]; ok {
			return true
		}
	}
	return false
}

func countDistinct(list []string, set map[string]struct{}) int {
	seen := make(map[string]struct{})
	for _, v := range list {
		if _, ok := set[v]; ok {
			seen[v] = struct{}{}
		}
	}
	return len(seen)
}
