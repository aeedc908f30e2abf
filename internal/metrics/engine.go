// Package metrics computes MetricSnapshot as a pure function of
// (book, deltas, wall tracker, tape) on every book-touching event (§4.4).
// The hard validity gate lives here: an invalid book always yields a
// zeroed snapshot, never a partial one.
package metrics

import (
	"math"

	"github.com/shopspring/decimal"
	"github.com/signalcore/signalcore/internal/depthdelta"
	"github.com/signalcore/signalcore/internal/model"
	"github.com/signalcore/signalcore/internal/orderbook"
	"github.com/signalcore/signalcore/internal/wall"
)

// Config carries the thresholds the metrics engine and its triggers are
// evaluated against (§6 metrics.*).
type Config struct {
	QueueImbalanceBuy         float64
	QueueImbalanceSell        float64
	TapeAccelerationThreshold float64
	WallPersistenceMS         int64
}

// DefaultConfig matches the spec's documented defaults (§6).
func DefaultConfig() Config {
	return Config{
		QueueImbalanceBuy:         2.8,
		QueueImbalanceSell:        0.35,
		TapeAccelerationThreshold: 2.0,
		WallPersistenceMS:         1000,
	}
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// Compute is the pure function at the heart of §4.4. If book is invalid,
// it returns a zeroed snapshot and the failing validity reason; the caller
// (coordinator) is responsible for erasing any cached "latest" snapshot and
// logging the reason. On a valid book Compute's one side effect is evicting
// expired events from deltas as of nowMS before reading its 1s window.
func Compute(
	book *orderbook.Book,
	deltas *depthdelta.Tracker,
	walls *wall.Tracker,
	nowMS int64,
	validityCfg orderbook.ValidityConfig,
) (model.MetricSnapshot, bool, string) {
	valid, why := book.IsValid(nowMS, validityCfg)
	if !valid {
		return model.Zero(book.Symbol, nowMS), false, string(why)
	}

	bestBid, _ := book.BestBid()
	bestAsk, _ := book.BestAsk()
	spread := bestAsk.Price.Sub(bestBid.Price)
	mid := bestBid.Price.Add(bestAsk.Price).Div(decimal.NewFromInt(2))

	bidTop4 := book.TopNSize(model.Bid, 4)
	askTop4 := book.TopNSize(model.Ask, 4)

	queueImbalance := math.Inf(1)
	if askTop4.IsPositive() {
		queueImbalance = toFloat(bidTop4) / toFloat(askTop4)
	}

	var bidWallAge, askWallAge int64
	if fs, ok := walls.FirstSeenMS(model.Bid, bestBid.Price); ok {
		bidWallAge = nowMS - fs
	}
	if fs, ok := walls.FirstSeenMS(model.Ask, bestAsk.Price); ok {
		askWallAge = nowMS - fs
	}

	trades := book.Trades()

	bidAbsorption := decimal.Zero
	askAbsorption := decimal.Zero
	for _, t := range trades.Since(nowMS - 1000) {
		if t.Price.LessThanOrEqual(bestBid.Price) {
			bidAbsorption = bidAbsorption.Add(t.Size)
		}
		if t.Price.GreaterThanOrEqual(bestAsk.Price) {
			askAbsorption = askAbsorption.Add(t.Size)
		}
	}

	spoofScore := computeSpoofScore(trades, nowMS)
	tapeAccel, tradesIn3s := computeTapeAcceleration(trades, nowMS)

	deltas.Evict(nowMS)
	w1 := deltas.Window1s()

	snap := model.MetricSnapshot{
		Symbol:            book.Symbol,
		TsMS:              nowMS,
		QueueImbalance:    queueImbalance,
		BidWallAgeMS:      bidWallAge,
		AskWallAgeMS:      askWallAge,
		BidAbsorptionRate: bidAbsorption,
		AskAbsorptionRate: askAbsorption,
		SpoofScore:        spoofScore,
		TapeAcceleration:  tapeAccel,
		TradesIn3s:        tradesIn3s,
		Spread:            spread,
		MidPrice:          mid,
		BestBid:           bestBid.Price,
		BestAsk:           bestAsk.Price,
		BidTop4:           bidTop4,
		AskTop4:           askTop4,
		Window1s: model.DepthDeltaSnapshot{
			WindowMS:          1000,
			AddCount:          w1.AddCount,
			CancelCount:       w1.CancelCount,
			UpdateCount:       w1.UpdateCount,
			TotalAddedSize:    w1.TotalAddedSize,
			TotalCanceledSize: w1.TotalCanceledSize,
			TotalAbsDelta:     w1.TotalAbsDelta,
			CancelToAddRatio:  w1.CancelToAddRatio(),
		},
	}
	return snap, true, ""
}

// computeSpoofScore implements §4.4's heuristic over the last 5s with >=5
// trades: clamp(2 - max/mean, 0, 1); 0.5 if insufficient data.
func computeSpoofScore(trades *orderbook.TradeRing, nowMS int64) float64 {
	window := trades.Since(nowMS - 5000)
	if len(window) < 5 {
		return 0.5
	}
	var sum, max decimal.Decimal
	for _, t := range window {
		sum = sum.Add(t.Size)
		if t.Size.GreaterThan(max) {
			max = t.Size
		}
	}
	mean := sum.Div(decimal.NewFromInt(int64(len(window))))
	if !mean.IsPositive() {
		return 0.5
	}
	raw := 2 - toFloat(max)/toFloat(mean)
	if raw < 0 {
		return 0
	}
	if raw > 1 {
		return 1
	}
	return raw
}

// computeTapeAcceleration implements §4.4's ratio of trades in [now-3s, now]
// to trades in [now-6s, now-3s]: 0 with <2 trades total; 1 when the prior
// window is empty and the current one is not.
func computeTapeAcceleration(trades *orderbook.TradeRing, nowMS int64) (float64, int) {
	current := trades.InRange(nowMS-3000, nowMS+1)
	prior := trades.InRange(nowMS-6000, nowMS-3000)
	if len(current)+len(prior) < 2 {
		return 0, len(current)
	}
	if len(prior) == 0 {
		if len(current) > 0 {
			return 1, len(current)
		}
		return 0, len(current)
	}
	return float64(len(current)) / float64(len(prior)), len(current)
}

// BuyLiquidityFailure implements §4.4's buy-side directional trigger.
func BuyLiquidityFailure(s model.MetricSnapshot, cfg Config) bool {
	return s.QueueImbalance >= cfg.QueueImbalanceBuy &&
		s.BidWallAgeMS >= cfg.WallPersistenceMS &&
		s.TapeAcceleration >= cfg.TapeAccelerationThreshold
}

// SellLiquidityFailure implements §4.4's sell-side directional trigger.
func SellLiquidityFailure(s model.MetricSnapshot, cfg Config) bool {
	return s.QueueImbalance <= cfg.QueueImbalanceSell &&
		s.AskWallAgeMS >= cfg.WallPersistenceMS &&
		s.TapeAcceleration >= cfg.TapeAccelerationThreshold
}
