package score

// Entry is one company and its score.
type Entry struct {
	Company string  `json:"company" yaml:"company"`
	Score   float64 `json:"score" yaml:"score"`
}

// Map maps company to score and remembers the order in which companies were
// first added. Ranking ties are broken by that order.
type Map struct {
	keys []string
	vals map[string]float64
}

// NewMap returns an empty map.
func NewMap() *Map {
	return &Map{
		keys: make([]string, 0),
		vals: make(map[string]float64),
	}
}

// Set assigns v to company. A company already present keeps its position.
func (m *Map) Set(company string, v float64) {
	if _, ok := m.vals[company]; !ok {
		m.keys = append(m.keys, company)
	}
	m.vals[company] = v
}

// Has reports whether company is in the map.
func (m *Map) Has(company string) bool {
	_, ok := m.vals[company]
	return ok
}

// Len returns the number of companies.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Entries returns the companies with their scores in insertion order.
func (m *Map) Entries() []Entry {
	if m == nil {
		return nil
	}
	out := make([]Entry, len(m.keys))
	for i, k := range m.keys {
		out[i] = Entry{Company: k, Score: m.vals[k]}
	}
	return out
}
