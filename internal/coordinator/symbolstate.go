package coordinator

import (
	"sync/atomic"

	"github.com/shopspring/decimal"
	"github.com/signalcore/signalcore/internal/depthdelta"
	"github.com/signalcore/signalcore/internal/model"
	"github.com/signalcore/signalcore/internal/orderbook"
	"github.com/signalcore/signalcore/internal/spreadstats"
	"github.com/signalcore/signalcore/internal/symbol"
	"github.com/signalcore/signalcore/internal/validator"
	"github.com/signalcore/signalcore/internal/vwap"
	"github.com/signalcore/signalcore/internal/wall"
)

// symbolState bundles every per-symbol component (§3 OrderBookState,
// DepthDeltaTracker, BidWallTracker, plus the new vwap/spreadstats
// components and the validator's cross-event state). It is created lazily
// on first event and owned exclusively by the single pool worker that
// hashes to this symbol — no locks on any field except the atomic
// liveness timestamps, which the coordinator's heartbeat aggregation reads
// cross-goroutine.
type symbolState struct {
	sym symbol.Symbol

	book       *orderbook.Book
	deltas     *depthdelta.Tracker
	walls      *wall.Tracker
	vwapTrk    *vwap.Tracker
	spreadTrk  *spreadstats.Tracker
	validator  *validator.Validator

	latestSnapshot *model.MetricSnapshot

	twentyDayAvgVolume decimal.Decimal
	haveAvgVolume      bool

	// Liveness timestamps, updated with atomic stores so the coordinator's
	// heartbeat goroutine can read them without taking this symbol's
	// single-writer lane.
	lastDepthMS atomic.Int64
	lastTapeMS  atomic.Int64
}

func newSymbolState(sym symbol.Symbol, validatorCfg validator.Config) *symbolState {
	return &symbolState{
		sym:       sym,
		book:      orderbook.New(sym),
		deltas:    depthdelta.New(),
		walls:     wall.New(sym),
		vwapTrk:   vwap.New(),
		spreadTrk: spreadstats.New(),
		validator: validator.New(validatorCfg),
	}
}
