// Package name turns the free-form company and position strings found in the
// funding and signal sources into the canonical key both sources are joined on.
package name

import "strings"

// delimiters in precedence order. The text right of the first one found is
// dropped ("Acme: Series B", "Acme|Old Name", "Acme (Switzerland)").
var delimiters = []string{":", "|", "("}

// legalSuffixes are removed wherever they occur, not only at the end.
var legalSuffixes = []string{" AG", " SA"}

// Normalize returns the join key for raw.
func Normalize(raw string) string {
	val := raw
	for {
		i := cutIndex(val)
		if i < 0 {
			break
		}
		val = val[:i]
	}

	for _, s := range legalSuffixes {
		val = strings.ReplaceAll(val, s, "")
	}

	return strings.TrimSpace(val)
}

func cutIndex(val string) int {
	for _, d := range delimiters {
		if i := strings.Index(val, d); i >= 0 {
			return i
		}
	}
	return -1
}
