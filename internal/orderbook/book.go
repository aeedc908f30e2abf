// Package orderbook maintains the authoritative per-symbol Level-II depth
// ladder and tape ring (§4.1). A Book is owned exclusively by its symbol's
// coordinator worker — single writer, no locks (Design Notes §9 "shared
// concurrent maps of per-symbol state with locks": shard by symbol, one
// worker owns its shard, eliminating locks on the hot path).
package orderbook

import (
	"github.com/shopspring/decimal"
	"github.com/signalcore/signalcore/internal/model"
	"github.com/signalcore/signalcore/internal/reason"
	"github.com/signalcore/signalcore/internal/symbol"
)

// ValidityConfig carries the thresholds IsValid checks against (§6
// book.max_spread_abs, book.depth_stale_ms).
type ValidityConfig struct {
	MaxSpreadAbs decimal.Decimal
	DepthStaleMS int64
}

// DefaultValidityConfig matches the spec's documented defaults (§6).
func DefaultValidityConfig() ValidityConfig {
	return ValidityConfig{
		MaxSpreadAbs: decimal.NewFromFloat(0.10),
		DepthStaleMS: 2000,
	}
}

// Book is the per-symbol order-book and tape state (§3 OrderBookState).
type Book struct {
	Symbol symbol.Symbol

	Bids *Ladder
	Asks *Ladder

	recentTrades TradeRing

	LastDepthMS int64
	LastTapeMS  int64
}

// New returns an empty Book for sym, created lazily on first event (§3
// lifecycle).
func New(sym symbol.Symbol) *Book {
	return &Book{
		Symbol: sym,
		Bids:   newLadder(model.Bid),
		Asks:   newLadder(model.Ask),
	}
}

// ApplyDepth mutates the ladder per the update's Op (§4.1). Insert and
// Update both upsert (size=0 on Update removes the level); Delete removes
// outright. LastDepthMS is clamped upward, never decreased by an
// out-of-order event.
func (b *Book) ApplyDepth(u model.DepthUpdate) {
	ladder := b.Bids
	if u.Side == model.Ask {
		ladder = b.Asks
	}

	switch u.Op {
	case model.Insert:
		ladder.Upsert(u.Price, u.Size, u.TsMS)
	case model.Update:
		if u.Size.IsZero() {
			ladder.Remove(u.Price)
		} else {
			ladder.Upsert(u.Price, u.Size, u.TsMS)
		}
	case model.Delete:
		ladder.Remove(u.Price)
	}

	if u.TsMS > b.LastDepthMS {
		b.LastDepthMS = u.TsMS
	}
}

// ApplyTrade pushes t into the recent-trades ring, evicting the oldest on
// overflow (§4.1).
func (b *Book) ApplyTrade(t model.Trade) {
	b.recentTrades.Push(t)
	if t.TsMS > b.LastTapeMS {
		b.LastTapeMS = t.TsMS
	}
}

// Trades exposes the recent-trades ring for read-only windowed queries by
// the metrics engine and validator. The returned pointer must not be
// retained past the driving event (§3 ownership).
func (b *Book) Trades() *TradeRing { return &b.recentTrades }

// BestBid returns the top bid level, if any.
func (b *Book) BestBid() (Level, bool) { return b.Bids.Best() }

// BestAsk returns the top ask level, if any.
func (b *Book) BestAsk() (Level, bool) { return b.Asks.Best() }

// TopNSize sums the top n level sizes on side (default N=4 per §4.1).
func (b *Book) TopNSize(side model.Side, n int) decimal.Decimal {
	if side == model.Bid {
		return b.Bids.TopNSize(n)
	}
	return b.Asks.TopNSize(n)
}

// RankWithinTopN reports whether price is within the top n levels of side's
// ladder, as of the book's current state (§4.2 "limited to the top K
// levels"). A caller that needs the rank of a level about to be removed
// must call this before ApplyDepth processes the removal — afterward the
// level is gone and would always report false.
func (b *Book) RankWithinTopN(side model.Side, price decimal.Decimal, n int) bool {
	ladder := b.Bids
	if side == model.Ask {
		ladder = b.Asks
	}
	return ladder.RankWithinTopN(price, n)
}

// Spread returns best_ask - best_bid. ok is false if either side is empty.
func (b *Book) Spread() (spread decimal.Decimal, ok bool) {
	bid, okBid := b.BestBid()
	ask, okAsk := b.BestAsk()
	if !okBid || !okAsk {
		return decimal.Zero, false
	}
	return ask.Price.Sub(bid.Price), true
}

// IsValid evaluates the five-part validity gate (§4.1), returning the first
// failing reason. A fully valid book returns (true, reason.None).
func (b *Book) IsValid(nowMS int64, cfg ValidityConfig) (bool, reason.Reason) {
	bid, okBid := b.BestBid()
	ask, okAsk := b.BestAsk()
	if !okBid || !okAsk {
		return false, reason.NoBook
	}
	if !bid.Price.LessThan(ask.Price) {
		return false, reason.Crossed
	}
	spread := ask.Price.Sub(bid.Price)
	if !spread.IsPositive() {
		return false, reason.Crossed
	}
	if spread.GreaterThan(cfg.MaxSpreadAbs) {
		return false, reason.SpreadWide
	}
	if nowMS-b.LastDepthMS > cfg.DepthStaleMS {
		return false, reason.DepthStale
	}
	if bid.Size.IsZero() || ask.Size.IsZero() {
		return false, reason.ZeroSize
	}
	return true, reason.None
}
