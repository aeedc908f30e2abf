package coordinator

import (
	"github.com/google/uuid"
	"github.com/signalcore/signalcore/internal/blueprint"
	"github.com/signalcore/signalcore/internal/depthdelta"
	"github.com/signalcore/signalcore/internal/metrics"
	"github.com/signalcore/signalcore/internal/model"
	"github.com/signalcore/signalcore/internal/reason"
	"github.com/signalcore/signalcore/internal/validator"
)

// tradingMode is stamped on every journal record. This system never
// executes orders (spec §1 non-goal): every record is advisory.
const tradingMode = "advisory"

const source = "signalcore"

// processDepth implements step 1 of §4.9 for a depth-touching event, then
// runs the shared evaluate pipeline (steps 2-7).
func (c *Coordinator) processDepth(st *symbolState, u model.DepthUpdate) {
	// A Delete's rank must be captured before ApplyDepth removes the level
	// from the ladder; Insert/Update are ranked after, once the level is
	// present at its (possibly new) position.
	var withinTopK bool
	if u.Op == model.Delete {
		withinTopK = st.book.RankWithinTopN(u.Side, u.Price, depthdelta.TopKLevels)
	}
	st.book.ApplyDepth(u)
	if u.Op != model.Delete {
		withinTopK = st.book.RankWithinTopN(u.Side, u.Price, depthdelta.TopKLevels)
	}
	st.deltas.Observe(u, withinTopK)
	st.walls.Observe(u)
	st.lastDepthMS.Store(u.TsMS)
	c.evaluate(st, u.TsMS)
}

// processTrade implements step 1 of §4.9 for a tape event.
func (c *Coordinator) processTrade(st *symbolState, t model.Trade) {
	st.book.ApplyTrade(t)
	st.vwapTrk.Observe(t)
	st.lastTapeMS.Store(t.TsMS)
	c.evaluate(st, t.TsMS)
}

// evaluate drives §4.9 steps 2-7: compute metrics, gate on validity, check
// for a directional trigger, validate, generate a blueprint, check
// scarcity, and journal the outcome.
func (c *Coordinator) evaluate(st *symbolState, nowMS int64) {
	snap, valid, bookReason := metrics.Compute(st.book, st.deltas, st.walls, nowMS, c.validityCfg)

	if !valid {
		st.latestSnapshot = nil
		if c.cfg.Journal.EmitGateRejections {
			c.emitRejection(st, reason.Reason(bookReason), []reason.Reason{reason.Reason(bookReason)}, nowMS, nil, model.Buy, false)
		}
		return
	}
	st.latestSnapshot = &snap
	st.spreadTrk.Observe(snap.Spread)

	buy := metrics.BuyLiquidityFailure(snap, c.metricsCfg)
	sell := metrics.SellLiquidityFailure(snap, c.metricsCfg)
	if !buy && !sell {
		return
	}
	direction := model.Buy
	if sell {
		direction = model.Sell
	}

	trades := st.book.Trades()
	warmupTrades := trades.Since(nowMS - c.validatorCfg.WarmupWindowMS)
	lastTrade, hasLast := trades.Last()

	result := st.validator.Validate(validator.Input{
		Snapshot:       snap,
		BookValid:      true,
		BookReason:     reason.None,
		Direction:      direction,
		TradesInWarmup: len(warmupTrades),
		LastTradeTsMS:  lastTrade.TsMS,
		HasLastTrade:   hasLast,
		VWAPReclaim:    st.vwapTrk.ReclaimFlag(nowMS),
		NowMS:          nowMS,
	})
	if !result.Accept {
		c.emitRejection(st, result.Reason, result.Trace, nowMS, &snap, direction, true)
		return
	}

	vwapVal, haveVWAP := st.vwapTrk.VWAP()
	p95, haveP95 := st.spreadTrk.P95()
	bp, brReason := blueprint.Generate(snap, direction, result.Score, c.blueprintCfg, vwapVal, haveVWAP, p95, haveP95)
	if brReason != reason.None {
		trace := append(append([]reason.Reason{}, result.Trace...), brReason)
		c.emitRejection(st, brReason, trace, nowMS, &snap, direction, true)
		return
	}

	accepted, scReason := c.scarcity.TryAccept(st.sym, nowMS)
	if !accepted {
		trace := append(append([]reason.Reason{}, result.Trace...), scReason)
		c.emitRejection(st, scReason, trace, nowMS, &snap, direction, true)
		return
	}

	c.emitSignal(st, snap, bp, result.Trace, nowMS)
}

func (c *Coordinator) emitRejection(
	st *symbolState,
	why reason.Reason,
	trace []reason.Reason,
	nowMS int64,
	snap *model.MetricSnapshot,
	direction model.Direction,
	haveDirection bool,
) {
	rec := model.DecisionRecord{
		Source:          source,
		TradingMode:     tradingMode,
		EntryType:       model.EntryRejection,
		Symbol:          st.sym,
		DecisionOutcome: model.Rejected,
		RejectionReason: why,
		DecisionTrace:   trace,
		ObservedMetrics: snap,
	}
	if haveDirection {
		d := direction
		rec.Direction = &d
	}
	c.journal.Enqueue(rec, nowMS, nowMS)
	if c.telemetry != nil {
		c.telemetry.SignalsRejected.WithLabelValues(string(why)).Inc()
	}
}

func (c *Coordinator) emitSignal(st *symbolState, snap model.MetricSnapshot, bp model.Blueprint, trace []reason.Reason, nowMS int64) {
	decisionID := uuid.NewString()
	dir := bp.Direction
	rec := model.DecisionRecord{
		Source:          source,
		TradingMode:     tradingMode,
		EntryType:       model.EntrySignal,
		DecisionID:      decisionID,
		Symbol:          st.sym,
		Direction:       &dir,
		DecisionOutcome: model.Accepted,
		DecisionTrace:   trace,
		ObservedMetrics: &snap,
		Blueprint:       &bp,
	}
	c.journal.Enqueue(rec, nowMS, nowMS)

	if c.telemetry != nil {
		c.telemetry.SignalsAccepted.WithLabelValues(string(st.sym), bp.Direction.String()).Inc()
	}
	if c.sink != nil {
		c.sink.Publish(bp, decisionID)
	}
}
