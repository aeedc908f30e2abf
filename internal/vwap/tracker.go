// Package vwap maintains the session volume-weighted average price per
// symbol (Glossary: "volume-weighted average price from session start"),
// used by the validator's scoring bonus and the blueprint generator's
// NotAboveVwap gate (§4.6). Not present in the teacher repo; grounded on its
// internal/oi.Engine accumulator shape (single-owner-goroutine state with a
// previous-value ring for short-window deltas) and internal/logger.Logger's
// UTC-day rotation boundary for the session reset.
package vwap

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/signalcore/signalcore/internal/model"
)

const reclaimWindowMS = 5000

// Tracker accumulates session VWAP for one symbol. Owned exclusively by the
// symbol's worker — no locks.
type Tracker struct {
	sessionDay string

	cumPriceSize decimal.Decimal
	cumSize      decimal.Decimal

	lastPrice decimal.Decimal
	lastVWAP  decimal.Decimal

	// belowSinceMS tracks how long price has continuously been below VWAP,
	// used to detect a "reclaim" — price crossing back above VWAP shortly
	// after trading below it.
	belowSinceMS int64
	wasBelow     bool
}

// New returns an empty Tracker.
func New() *Tracker {
	return &Tracker{}
}

// Observe folds a trade into the running VWAP, resetting the accumulator at
// each UTC day boundary (session start).
func (t *Tracker) Observe(tr model.Trade) {
	day := time.UnixMilli(tr.TsMS).UTC().Format("2006-01-02")
	if day != t.sessionDay {
		t.sessionDay = day
		t.cumPriceSize = decimal.Zero
		t.cumSize = decimal.Zero
		t.wasBelow = false
	}

	t.cumPriceSize = t.cumPriceSize.Add(tr.Price.Mul(tr.Size))
	t.cumSize = t.cumSize.Add(tr.Size)
	t.lastPrice = tr.Price
	if t.cumSize.IsPositive() {
		t.lastVWAP = t.cumPriceSize.Div(t.cumSize)
	}

	if t.lastVWAP.IsZero() {
		return
	}
	if tr.Price.LessThan(t.lastVWAP) {
		if !t.wasBelow {
			t.belowSinceMS = tr.TsMS
		}
		t.wasBelow = true
	} else {
		t.wasBelow = false
	}
}

// VWAP returns the current session VWAP and whether any volume has been
// observed yet this session.
func (t *Tracker) VWAP() (decimal.Decimal, bool) {
	if t.cumSize.IsZero() {
		return decimal.Zero, false
	}
	return t.lastVWAP, true
}

// ReclaimFlag reports whether price has just crossed back above VWAP after
// having been below it, within reclaimWindowMS — the "VWAP reclaim" scoring
// input (§4.5 scoring table).
func (t *Tracker) ReclaimFlag(nowMS int64) bool {
	if t.wasBelow || t.lastVWAP.IsZero() {
		return false
	}
	if t.belowSinceMS == 0 {
		return false
	}
	return nowMS-t.belowSinceMS <= reclaimWindowMS
}
