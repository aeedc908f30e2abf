// Package depthdelta maintains sliding-window counters over depth add/cancel/
// update events (§4.2), used by the metrics engine for tape-independent
// liquidity-change signals and by the validator's spoof check.
package depthdelta

import (
	"github.com/shopspring/decimal"
	"github.com/signalcore/signalcore/internal/model"
)

// MaxWindowEvents hard-caps memory per window regardless of feed rate
// (§4.2); the oldest event is dropped first when the cap is hit, in
// addition to ordinary time-based eviction.
const MaxWindowEvents = 16384

// TopKLevels bounds delta tracking to the top K price levels per side
// (§4.2 default).
const TopKLevels = 5

type deltaEvent struct {
	tsMS         int64
	isAdd        bool
	isCancel     bool
	isUpdate     bool
	addedSize    decimal.Decimal
	canceledSize decimal.Decimal
	absDelta     decimal.Decimal
}

// WindowStats is the readout of one sliding window at observation time.
type WindowStats struct {
	AddCount          int
	CancelCount       int
	UpdateCount       int
	TotalAddedSize    decimal.Decimal
	TotalCanceledSize decimal.Decimal
	TotalAbsDelta     decimal.Decimal
}

// CancelToAddRatio derives the ratio used by the spoof check (§4.5 check 3).
// With zero add events the ratio is the cancel count itself (as if there
// were one add); zero of both is zero.
func (s WindowStats) CancelToAddRatio() float64 {
	if s.AddCount == 0 {
		if s.CancelCount > 0 {
			return float64(s.CancelCount)
		}
		return 0
	}
	return float64(s.CancelCount) / float64(s.AddCount)
}

// window is a fixed-duration sliding counter backed by a ring of events.
type window struct {
	durationMS int64
	events     []deltaEvent // oldest first
	stats      WindowStats
}

func newWindow(durationMS int64) *window {
	return &window{
		durationMS:        durationMS,
		events:            make([]deltaEvent, 0, 256),
		stats:             WindowStats{TotalAddedSize: decimal.Zero, TotalCanceledSize: decimal.Zero, TotalAbsDelta: decimal.Zero},
	}
}

func (w *window) evict(nowMS int64) {
	cut := 0
	for cut < len(w.events) && nowMS-w.events[cut].tsMS >= w.durationMS {
		w.subtract(w.events[cut])
		cut++
	}
	if cut > 0 {
		w.events = append(w.events[:0], w.events[cut:]...)
	}
	for len(w.events) > MaxWindowEvents {
		w.subtract(w.events[0])
		w.events = w.events[1:]
	}
}

func (w *window) subtract(e deltaEvent) {
	if e.isAdd {
		w.stats.AddCount--
		w.stats.TotalAddedSize = w.stats.TotalAddedSize.Sub(e.addedSize)
	}
	if e.isCancel {
		w.stats.CancelCount--
		w.stats.TotalCanceledSize = w.stats.TotalCanceledSize.Sub(e.canceledSize)
	}
	if e.isUpdate {
		w.stats.UpdateCount--
		w.stats.TotalAbsDelta = w.stats.TotalAbsDelta.Sub(e.absDelta)
	}
}

func (w *window) add(e deltaEvent, nowMS int64) {
	w.events = append(w.events, e)
	if e.isAdd {
		w.stats.AddCount++
		w.stats.TotalAddedSize = w.stats.TotalAddedSize.Add(e.addedSize)
	}
	if e.isCancel {
		w.stats.CancelCount++
		w.stats.TotalCanceledSize = w.stats.TotalCanceledSize.Add(e.canceledSize)
	}
	if e.isUpdate {
		w.stats.UpdateCount++
		w.stats.TotalAbsDelta = w.stats.TotalAbsDelta.Add(e.absDelta)
	}
	w.evict(nowMS)
}

// Tracker maintains the three windows (1s, 3s, 10s) for one symbol. Owned
// exclusively by the symbol's worker — no locks.
type Tracker struct {
	w1s  *window
	w3s  *window
	w10s *window
}

// New returns a Tracker with the spec's default window durations.
func New() *Tracker {
	return &Tracker{
		w1s:  newWindow(1000),
		w3s:  newWindow(3000),
		w10s: newWindow(10000),
	}
}

// Observe builds a delta event from u and enqueues it to all three windows,
// but only if withinTopK is true (§4.2 "limited to the top K levels"). The
// caller must compute withinTopK against the ladder at the correct point in
// the mutation: for Delete, the level's rank before it is removed (after
// removal it can never be found); for Insert/Update, the rank once the
// level is present.
func (t *Tracker) Observe(u model.DepthUpdate, withinTopK bool) {
	if !withinTopK {
		return
	}

	var e deltaEvent
	e.tsMS = u.TsMS
	switch u.Op {
	case model.Insert:
		e.isAdd = true
		e.addedSize = u.Size
	case model.Delete:
		e.isCancel = true
		e.canceledSize = u.PrevSize
	case model.Update:
		e.isUpdate = true
		e.absDelta = u.Size.Sub(u.PrevSize).Abs()
	}

	t.w1s.add(e, u.TsMS)
	t.w3s.add(e, u.TsMS)
	t.w10s.add(e, u.TsMS)
}

// Evict forces time-based eviction on all windows as of nowMS, without
// adding an event — used when a metric computation is driven by an event
// that doesn't itself touch depth (e.g. a trade).
func (t *Tracker) Evict(nowMS int64) {
	t.w1s.evict(nowMS)
	t.w3s.evict(nowMS)
	t.w10s.evict(nowMS)
}

// Window1s, Window3s, Window10s return the current readout of each window.
func (t *Tracker) Window1s() WindowStats  { return t.w1s.stats }
func (t *Tracker) Window3s() WindowStats  { return t.w3s.stats }
func (t *Tracker) Window10s() WindowStats { return t.w10s.stats }
