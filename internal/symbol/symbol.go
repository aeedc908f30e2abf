// Package symbol defines the opaque per-instrument identifier used as the
// sharding key across the pipeline: book state, trackers, scarcity counters,
// and journal records are all keyed by Symbol.
package symbol

import "strings"

// Symbol is a case-folded, uppercase instrument identifier. It is the unique
// key across all per-symbol state owned by a coordinator worker.
type Symbol string

// New case-folds s to uppercase and trims surrounding whitespace. Returns
// false if the result is empty — callers must reject empty symbols rather
// than silently tracking them.
func New(s string) (Symbol, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", false
	}
	return Symbol(s), true
}

func (s Symbol) String() string { return string(s) }
