// Package spreadstats maintains a rolling historical spread distribution per
// symbol, feeding the blueprint generator's SpreadExceedsHistorical gate
// (§4.6: "current spread exceeds the rolling 95th-percentile spread for
// that symbol when >= 30 samples exist"). Not present in the teacher repo;
// grounded on its internal/state.RingBuffer fixed-capacity accumulator
// shape, generalized from snapshot storage to a numeric reservoir.
package spreadstats

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Capacity bounds the reservoir — enough history for a stable percentile
// estimate without unbounded growth.
const Capacity = 512

// MinSamples is the minimum sample count before percentile gating applies.
const MinSamples = 30

// Tracker is a fixed-capacity rolling reservoir of observed spreads for one
// symbol. Owned exclusively by the symbol's worker — no locks.
type Tracker struct {
	samples [Capacity]decimal.Decimal
	next    int
	count   int
}

// New returns an empty Tracker.
func New() *Tracker { return &Tracker{} }

// Observe records a spread sample, overwriting the oldest once full.
func (t *Tracker) Observe(spread decimal.Decimal) {
	t.samples[t.next] = spread
	t.next = (t.next + 1) % Capacity
	if t.count < Capacity {
		t.count++
	}
}

// P95 returns the 95th-percentile spread and true, or (zero, false) if
// fewer than MinSamples have been observed.
func (t *Tracker) P95() (decimal.Decimal, bool) {
	if t.count < MinSamples {
		return decimal.Zero, false
	}
	sorted := make([]decimal.Decimal, t.count)
	copy(sorted, t.samples[:t.count])
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })

	idx := int(float64(t.count)*0.95 + 0.9999999) - 1
	if idx >= t.count {
		idx = t.count - 1
	}
	if idx < 0 {
		idx = 0
	}
	return sorted[idx], true
}
