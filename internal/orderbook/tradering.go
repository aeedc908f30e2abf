package orderbook

import "github.com/signalcore/signalcore/internal/model"

// TradeRingCapacity bounds recent_trades (§3): a fixed-capacity ring avoids
// allocator churn at feed rate (Design Notes §9 "ring-buffer via list +
// resize" re-architecture).
const TradeRingCapacity = 1024

// TradeRing is a fixed-capacity circular buffer of recent trades, ordered by
// ts_ms ascending. Pushing past capacity evicts the oldest entry.
type TradeRing struct {
	buf   [TradeRingCapacity]model.Trade
	start int // index of oldest element
	n     int // number of valid elements
}

// Push appends a trade, evicting the oldest if the ring is full.
func (r *TradeRing) Push(t model.Trade) {
	if r.n < TradeRingCapacity {
		idx := (r.start + r.n) % TradeRingCapacity
		r.buf[idx] = t
		r.n++
		return
	}
	// Full: overwrite oldest slot and advance start.
	r.buf[r.start] = t
	r.start = (r.start + 1) % TradeRingCapacity
}

// Len reports the number of trades currently held.
func (r *TradeRing) Len() int { return r.n }

// At returns the i'th oldest trade (0 = oldest). Panics if out of range;
// callers must guard with Len().
func (r *TradeRing) At(i int) model.Trade {
	if i < 0 || i >= r.n {
		panic("orderbook: TradeRing.At index out of range")
	}
	return r.buf[(r.start+i)%TradeRingCapacity]
}

// Since returns trades with ts_ms >= sinceMS, oldest first. MetricsEngine
// does the windowing here rather than the ring itself pruning on push
// (§4.1 edge policy: "recent_trades older than the metric window are not
// pruned in the ring itself — pruning is done by MetricsEngine").
func (r *TradeRing) Since(sinceMS int64) []model.Trade {
	out := make([]model.Trade, 0, r.n)
	for i := 0; i < r.n; i++ {
		t := r.At(i)
		if t.TsMS >= sinceMS {
			out = append(out, t)
		}
	}
	return out
}

// InRange returns trades with ts_ms in [startMS, endMS), oldest first.
func (r *TradeRing) InRange(startMS, endMS int64) []model.Trade {
	out := make([]model.Trade, 0, r.n)
	for i := 0; i < r.n; i++ {
		t := r.At(i)
		if t.TsMS >= startMS && t.TsMS < endMS {
			out = append(out, t)
		}
	}
	return out
}

// Last returns the most recently pushed trade, if any.
func (r *TradeRing) Last() (model.Trade, bool) {
	if r.n == 0 {
		return model.Trade{}, false
	}
	return r.At(r.n - 1), true
}
