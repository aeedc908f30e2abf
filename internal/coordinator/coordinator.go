// Package coordinator drives the per-symbol pipeline on every feed event
// (§4.9) and owns the bounded worker pool that shards symbols for
// lock-free, per-symbol-ordered processing (§5). Generalized from the
// teacher's single global orderbook.Book + engine.Engine pair (one
// hot-path goroutine for one instrument) to a map[Symbol]*symbolState
// sharded across a small pool of worker goroutines, hashed by symbol so a
// given symbol is always processed by the same goroutine in arrival order.
package coordinator

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/signalcore/signalcore/internal/blueprint"
	"github.com/signalcore/signalcore/internal/clock"
	cfgpkg "github.com/signalcore/signalcore/internal/config"
	"github.com/signalcore/signalcore/internal/feed"
	"github.com/signalcore/signalcore/internal/journal"
	"github.com/signalcore/signalcore/internal/metrics"
	"github.com/signalcore/signalcore/internal/model"
	"github.com/signalcore/signalcore/internal/orderbook"
	"github.com/signalcore/signalcore/internal/reason"
	"github.com/signalcore/signalcore/internal/scarcity"
	"github.com/signalcore/signalcore/internal/symbol"
	"github.com/signalcore/signalcore/internal/telemetry"
	"github.com/signalcore/signalcore/internal/validator"
)

// SignalSink receives accepted blueprints — the one outbound call per
// accepted signal (§6 signal_sink). Implemented by the optional
// feed.SignalBroadcaster, or left nil if no outbound fan-out is wired.
type SignalSink interface {
	Publish(bp model.Blueprint, decisionID string)
}

const inboxCapacity = 4096

// poolWorker is one lane of the bounded worker pool: a dedicated goroutine
// owning a subset of symbols (determined by hash), draining its inbox in
// arrival order.
type poolWorker struct {
	inbox chan model.FeedEvent
	state map[symbol.Symbol]*symbolState
}

// Coordinator wires together every domain component per §4.9 and owns the
// sharded worker pool described in §5.
type Coordinator struct {
	cfg  *cfgpkg.Config
	clk  clock.Clock
	log  zerolog.Logger

	journal  *journal.Journal
	scarcity *scarcity.Controller
	telemetry *telemetry.Metrics
	sink     SignalSink

	validatorCfg  validator.Config
	metricsCfg    metrics.Config
	blueprintCfg  blueprint.Config
	validityCfg   orderbook.ValidityConfig

	workers []*poolWorker

	universeMu sync.Mutex
	universe   map[symbol.Symbol]bool

	wg sync.WaitGroup
}

// New constructs a Coordinator with poolSize worker lanes.
func New(
	cfg *cfgpkg.Config,
	clk clock.Clock,
	log zerolog.Logger,
	j *journal.Journal,
	sc *scarcity.Controller,
	tel *telemetry.Metrics,
	sink SignalSink,
	poolSize int,
) *Coordinator {
	if poolSize <= 0 {
		poolSize = 1
	}
	c := &Coordinator{
		cfg:       cfg,
		clk:       clk,
		log:       log.With().Str("component", "coordinator").Logger(),
		journal:   j,
		scarcity:  sc,
		telemetry: tel,
		sink:      sink,
		universe:  make(map[symbol.Symbol]bool),
	}

	c.validatorCfg = validator.Config{
		WarmupMinTrades:  cfg.Tape.WarmupMinTrades,
		WarmupWindowMS:   cfg.Tape.WarmupWindowMS,
		TapeStaleMS:      cfg.Tape.StaleMS,
		DefaultThreshold: cfg.Score.AcceptThreshold,
		OperatingStartET: cfg.OperatingWindow.StartET,
		OperatingEndET:   cfg.OperatingWindow.EndET,
	}
	for _, w := range cfg.Score.TimeWindows {
		c.validatorCfg.TimeWindows = append(c.validatorCfg.TimeWindows, validator.TimeWindowThreshold{
			StartET: w.StartET, EndET: w.EndET, Threshold: w.Threshold,
		})
	}
	c.metricsCfg = metrics.Config{
		QueueImbalanceBuy:         cfg.Metrics.QueueImbalanceBuy,
		QueueImbalanceSell:        cfg.Metrics.QueueImbalanceSell,
		TapeAccelerationThreshold: cfg.Metrics.TapeAccelerationThreshold,
		WallPersistenceMS:         cfg.Metrics.WallPersistenceMS,
	}
	c.validityCfg = orderbook.ValidityConfig{
		MaxSpreadAbs: decimal.NewFromFloat(cfg.Book.MaxSpreadAbs),
		DepthStaleMS: cfg.Book.DepthStaleMS,
	}
	c.blueprintCfg = blueprint.Config{
		AccountEquity: decimal.NewFromFloat(cfg.Risk.AccountEquity),
		PerTradePct:   decimal.NewFromFloat(cfg.Risk.PerTradePct),
	}

	c.workers = make([]*poolWorker, poolSize)
	for i := range c.workers {
		c.workers[i] = &poolWorker{
			inbox: make(chan model.FeedEvent, inboxCapacity),
			state: make(map[symbol.Symbol]*symbolState),
		}
	}
	return c
}

func (c *Coordinator) laneFor(sym symbol.Symbol) *poolWorker {
	h := fnv.New32a()
	h.Write([]byte(sym))
	return c.workers[int(h.Sum32())%len(c.workers)]
}

// Run starts one goroutine per pool lane and dispatches events from src
// until ctx is cancelled or src is exhausted. It blocks until shutdown is
// complete.
func (c *Coordinator) Run(ctx context.Context, src feed.Source) {
	for _, w := range c.workers {
		c.wg.Add(1)
		go c.runLane(w)
	}

	events := src.Events()
	for {
		select {
		case <-ctx.Done():
			c.shutdownLanes()
			c.wg.Wait()
			return
		case ev, ok := <-events:
			if !ok {
				c.shutdownLanes()
				c.wg.Wait()
				return
			}
			c.dispatch(ctx, ev)
		}
	}
}

func (c *Coordinator) shutdownLanes() {
	for _, w := range c.workers {
		close(w.inbox)
	}
}

func (c *Coordinator) dispatch(ctx context.Context, ev model.FeedEvent) {
	switch ev.Kind {
	case model.KindDepthUpdate:
		c.send(ctx, ev.Depth.Symbol, ev)
	case model.KindTrade:
		c.send(ctx, ev.Trade.Symbol, ev)
	case model.KindWarmupVolume:
		c.send(ctx, ev.WarmupSymbol, ev)
	case model.KindUniverseUpdate:
		c.applyUniverse(ev.Universe)
	case model.KindError:
		c.log.Warn().Err(ev.Err).Msg("feed error event")
	case model.KindConnectionState:
		c.log.Info().Int("state", int(ev.ConnState)).Msg("feed connection state changed")
	}
}

func (c *Coordinator) send(ctx context.Context, sym symbol.Symbol, ev model.FeedEvent) {
	lane := c.laneFor(sym)
	select {
	case lane.inbox <- ev:
	case <-ctx.Done():
	}
}

// applyUniverse replaces the active subscription set (§6 on_universe).
// Symbols removed have their state dropped by their lane, and the change is
// journaled at once as a UniverseUpdate record rather than waiting for the
// periodic 60s tick, since the removal is itself a liveness-relevant event.
// No Heartbeat record is emitted for the change.
func (c *Coordinator) applyUniverse(next []symbol.Symbol) {
	c.universeMu.Lock()
	nextSet := make(map[symbol.Symbol]bool, len(next))
	var added, removed []symbol.Symbol
	for _, s := range next {
		nextSet[s] = true
		if !c.universe[s] {
			added = append(added, s)
		}
	}
	for s := range c.universe {
		if !nextSet[s] {
			removed = append(removed, s)
		}
	}
	c.universe = nextSet
	c.universeMu.Unlock()

	for _, s := range removed {
		lane := c.laneFor(s)
		select {
		case lane.inbox <- model.FeedEvent{Kind: model.KindUniverseUpdate, Universe: []symbol.Symbol{s}}:
		default:
		}
	}

	nowMS := c.clk.NowMS()
	rec := model.DecisionRecord{
		EntryType:       model.EntryUniverseUpdate,
		DecisionOutcome: model.Accepted,
		UniverseUpdate:  &model.UniverseUpdateInfo{Added: added, Removed: removed},
	}
	c.journal.Enqueue(rec, nowMS, nowMS)
}

// SystemMetrics implements journal.HeartbeatSource (§4.8).
func (c *Coordinator) SystemMetrics(nowMS int64) model.SystemMetrics {
	c.universeMu.Lock()
	universeCount := len(c.universe)
	c.universeMu.Unlock()

	minDepthAge := int64(-1)
	minTapeAge := int64(-1)
	active := 0
	for _, w := range c.workers {
		for range w.state {
			active++
		}
	}
	// Liveness ages are sampled from the atomic per-symbol timestamps; this
	// loop reads across worker lanes, which is safe because those two
	// fields are the only ones touched with atomics specifically for this
	// purpose (see symbolState).
	for _, w := range c.workers {
		for _, st := range w.state {
			depthAge := nowMS - st.lastDepthMS.Load()
			tapeAge := nowMS - st.lastTapeMS.Load()
			if minDepthAge == -1 || depthAge < minDepthAge {
				minDepthAge = depthAge
			}
			if minTapeAge == -1 || tapeAge < minTapeAge {
				minTapeAge = tapeAge
			}
		}
	}
	if minDepthAge == -1 {
		minDepthAge = 0
	}
	if minTapeAge == -1 {
		minTapeAge = 0
	}

	if c.telemetry != nil {
		c.telemetry.HeartbeatsEmitted.Inc()
		c.telemetry.ActiveBookCount.Set(float64(active))
		c.telemetry.JournalQueueDepth.Set(float64(c.journal.QueueDepth()))
	}

	return model.SystemMetrics{
		UniverseCount:       universeCount,
		ActiveSubscriptions: active,
		MinDepthUpdateAgeMS: minDepthAge,
		MinTapeUpdateAgeMS:  minTapeAge,
		TapeRecent:          minTapeAge <= c.cfg.Tape.StaleMS,
	}
}

func (c *Coordinator) runLane(w *poolWorker) {
	defer c.wg.Done()
	for ev := range w.inbox {
		c.handleLaneEvent(w, ev)
	}
}

func (c *Coordinator) handleLaneEvent(w *poolWorker, ev model.FeedEvent) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Interface("panic", r).Msg("internal error in symbol worker, event dropped")
			if c.telemetry != nil {
				c.telemetry.SignalsRejected.WithLabelValues(string(reason.InternalError)).Inc()
			}
		}
	}()

	switch ev.Kind {
	case model.KindDepthUpdate:
		st := w.stateFor(ev.Depth.Symbol, c.validatorCfg)
		c.processDepth(st, ev.Depth)
	case model.KindTrade:
		st := w.stateFor(ev.Trade.Symbol, c.validatorCfg)
		c.processTrade(st, ev.Trade)
	case model.KindWarmupVolume:
		st := w.stateFor(ev.WarmupSymbol, c.validatorCfg)
		st.twentyDayAvgVolume = ev.WarmupTwentyDayAvgVolume
		st.haveAvgVolume = true
	case model.KindUniverseUpdate:
		for _, s := range ev.Universe {
			delete(w.state, s)
		}
	}
}

func (w *poolWorker) stateFor(sym symbol.Symbol, validatorCfg validator.Config) *symbolState {
	st, ok := w.state[sym]
	if !ok {
		st = newSymbolState(sym, validatorCfg)
		w.state[sym] = st
	}
	return st
}

// Shutdown flushes the journal with its configured drain deadline. Call
// after Run returns (ctx cancelled).
func (c *Coordinator) Shutdown() {
	c.journal.Shutdown()
}
