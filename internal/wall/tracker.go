// Package wall tracks per-price-level lifetime and size envelope, used for
// wall-persistence scoring (§4.3) and the metrics engine's wall-age fields.
package wall

import (
	"github.com/shopspring/decimal"
	"github.com/signalcore/signalcore/internal/model"
	"github.com/signalcore/signalcore/internal/symbol"
)

// LevelState is the running envelope for one (side, price) level.
type LevelState struct {
	FirstSeenMS  int64
	LastUpdateMS int64
	LastSize     decimal.Decimal
	MinSize      decimal.Decimal
	MaxSize      decimal.Decimal
}

// PersistenceRecord is emitted when a tracked level is deleted, summarizing
// how long it persisted (§4.3).
type PersistenceRecord struct {
	Symbol     symbol.Symbol
	Side       model.Side
	Price      decimal.Decimal
	StartMS    int64
	EndMS      int64
	DurationMS int64
	MinSize    decimal.Decimal
	MaxSize    decimal.Decimal
}

type key struct {
	side  model.Side
	price string
}

// Tracker owns the per-level lifetime state for one symbol. Owned
// exclusively by the symbol's worker — no locks.
type Tracker struct {
	sym    symbol.Symbol
	levels map[key]*LevelState
}

// New returns an empty Tracker for sym.
func New(sym symbol.Symbol) *Tracker {
	return &Tracker{sym: sym, levels: make(map[key]*LevelState)}
}

// Observe folds a depth update into the tracker. Returns a completed
// PersistenceRecord when the update deletes a previously tracked level (nil
// otherwise).
func (t *Tracker) Observe(u model.DepthUpdate) *PersistenceRecord {
	k := key{side: u.Side, price: u.Price.String()}

	if u.Op == model.Delete || (u.Op == model.Update && u.Size.IsZero()) {
		st, ok := t.levels[k]
		if !ok {
			return nil
		}
		delete(t.levels, k)
		return &PersistenceRecord{
			Symbol:     t.sym,
			Side:       u.Side,
			Price:      u.Price,
			StartMS:    st.FirstSeenMS,
			EndMS:      u.TsMS,
			DurationMS: u.TsMS - st.FirstSeenMS,
			MinSize:    st.MinSize,
			MaxSize:    st.MaxSize,
		}
	}

	st, ok := t.levels[k]
	if !ok {
		t.levels[k] = &LevelState{
			FirstSeenMS:  u.TsMS,
			LastUpdateMS: u.TsMS,
			LastSize:     u.Size,
			MinSize:      u.Size,
			MaxSize:      u.Size,
		}
		return nil
	}

	if u.TsMS > st.LastUpdateMS {
		st.LastUpdateMS = u.TsMS
	}
	st.LastSize = u.Size
	if u.Size.LessThan(st.MinSize) {
		st.MinSize = u.Size
	}
	if u.Size.GreaterThan(st.MaxSize) {
		st.MaxSize = u.Size
	}
	return nil
}

// FirstSeenMS returns the first-seen timestamp for the currently tracked
// level at (side, price), used to compute wall age for the current
// best-of-book level.
func (t *Tracker) FirstSeenMS(side model.Side, price decimal.Decimal) (int64, bool) {
	st, ok := t.levels[key{side: side, price: price.String()}]
	if !ok {
		return 0, false
	}
	return st.FirstSeenMS, true
}
