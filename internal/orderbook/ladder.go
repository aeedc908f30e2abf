package orderbook

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/signalcore/signalcore/internal/model"
)

// Level is one price level in a Ladder: size plus the bookkeeping timestamps
// needed for wall-age and staleness computations (§3).
type Level struct {
	Price        decimal.Decimal
	Size         decimal.Decimal
	FirstSeenMS  int64
	LastUpdateMS int64
}

// Ladder is a direction-aware sorted price level structure — Design Notes
// §9 calls out "ordered ladders currently as hash maps" for re-architecture
// into "an ordered map keyed by price (sorted structure), with
// direction-aware iteration for best-N extraction." Bids are kept sorted
// descending (best bid first); asks ascending (best ask first).
//
// Levels are few enough (tens, not millions) that a sorted slice with
// binary-search insertion is the right structure: O(log n) lookup, O(n)
// insert/delete, zero hash overhead, and "best N" is just a slice prefix.
type Ladder struct {
	side   model.Side
	levels []Level
}

func newLadder(side model.Side) *Ladder {
	return &Ladder{side: side, levels: make([]Level, 0, 32)}
}

// less reports whether price a sorts before price b for this ladder's
// direction (bids descending, asks ascending).
func (l *Ladder) less(a, b decimal.Decimal) bool {
	if l.side == model.Bid {
		return a.GreaterThan(b)
	}
	return a.LessThan(b)
}

func (l *Ladder) find(price decimal.Decimal) (idx int, found bool) {
	idx = sort.Search(len(l.levels), func(i int) bool {
		return !l.less(l.levels[i].Price, price)
	})
	if idx < len(l.levels) && l.levels[idx].Price.Equal(price) {
		return idx, true
	}
	return idx, false
}

// Upsert inserts or updates the level at price. tsMS is clamped upward
// against the existing last_update_ms for that level (§4.1 out-of-order
// event policy); first_seen_ms is set once, on insertion, and preserved
// across updates.
func (l *Ladder) Upsert(price, size decimal.Decimal, tsMS int64) {
	idx, found := l.find(price)
	if found {
		lvl := &l.levels[idx]
		lvl.Size = size
		if tsMS > lvl.LastUpdateMS {
			lvl.LastUpdateMS = tsMS
		}
		return
	}
	lvl := Level{Price: price, Size: size, FirstSeenMS: tsMS, LastUpdateMS: tsMS}
	l.levels = append(l.levels, Level{})
	copy(l.levels[idx+1:], l.levels[idx:])
	l.levels[idx] = lvl
}

// Remove deletes the level at price, if present.
func (l *Ladder) Remove(price decimal.Decimal) {
	idx, found := l.find(price)
	if !found {
		return
	}
	l.levels = append(l.levels[:idx], l.levels[idx+1:]...)
}

// Best returns the top-of-book level, if any.
func (l *Ladder) Best() (Level, bool) {
	if len(l.levels) == 0 {
		return Level{}, false
	}
	return l.levels[0], true
}

// TopNSize sums the size of the top n levels (fewer if the ladder is
// shallower).
func (l *Ladder) TopNSize(n int) decimal.Decimal {
	sum := decimal.Zero
	for i := 0; i < n && i < len(l.levels); i++ {
		sum = sum.Add(l.levels[i].Size)
	}
	return sum
}

// Len reports the number of active price levels.
func (l *Ladder) Len() int { return len(l.levels) }

// RankWithinTopN reports whether price is within the top n levels of this
// ladder (used, via Book.RankWithinTopN, to limit depth-delta tracking to the
// top K levels, whose 1s window feeds the spoof check).
func (l *Ladder) RankWithinTopN(price decimal.Decimal, n int) bool {
	idx, found := l.find(price)
	return found && idx < n
}
