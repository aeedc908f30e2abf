// Package model defines the wire-level data types crossing the feed
// boundary and flowing through the pipeline: depth updates, trades, sides,
// and the tagged FeedEvent variant. Design Notes §9 collapses the source's
// "virtual broker-SDK inheritance" into this single tagged variant — the
// core depends only on FeedEvent, never on a broker SDK type.
package model

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/signalcore/signalcore/internal/symbol"
)

// Side identifies which side of the book a DepthUpdate touches.
type Side int

const (
	Bid Side = iota
	Ask
)

func (s Side) String() string {
	if s == Bid {
		return "Bid"
	}
	return "Ask"
}

// DepthOp identifies the kind of mutation a DepthUpdate applies.
type DepthOp int

const (
	Insert DepthOp = iota
	Update
	Delete
)

func (op DepthOp) String() string {
	switch op {
	case Insert:
		return "Insert"
	case Update:
		return "Update"
	case Delete:
		return "Delete"
	default:
		return "Unknown"
	}
}

// Direction is the signal direction taken from the driving failure trigger.
type Direction int

const (
	Buy Direction = iota
	Sell
)

func (d Direction) String() string {
	if d == Buy {
		return "Buy"
	}
	return "Sell"
}

// DepthUpdate is a single Level-II depth delta. Invariants (§3): price > 0;
// size >= 0; Delete implies size = 0; ts_ms non-decreasing per (symbol, side)
// — the feed boundary is responsible for that ordering, the book clamps
// out-of-order timestamps rather than rejecting them.
type DepthUpdate struct {
	Symbol   symbol.Symbol
	Side     Side
	Op       DepthOp
	Price    decimal.Decimal
	Size     decimal.Decimal
	PrevSize decimal.Decimal
	TsMS     int64
}

func (u DepthUpdate) Validate() error {
	if !u.Price.IsPositive() {
		return fmt.Errorf("depth update: price must be > 0, got %s", u.Price)
	}
	if u.Size.IsNegative() {
		return fmt.Errorf("depth update: size must be >= 0, got %s", u.Size)
	}
	if u.Op == Delete && !u.Size.IsZero() {
		return fmt.Errorf("depth update: Delete must carry size = 0, got %s", u.Size)
	}
	return nil
}

// Trade is a single tape print. Invariants (§3): price > 0, size > 0, ts_ms
// non-decreasing per symbol.
type Trade struct {
	Symbol symbol.Symbol
	Price  decimal.Decimal
	Size   decimal.Decimal
	TsMS   int64
}

func (t Trade) Validate() error {
	if !t.Price.IsPositive() {
		return fmt.Errorf("trade: price must be > 0, got %s", t.Price)
	}
	if !t.Size.IsPositive() {
		return fmt.Errorf("trade: size must be > 0, got %s", t.Size)
	}
	return nil
}

// ConnectionState reports feed-boundary health, carried through the same
// tagged variant as depth/trade events so the coordinator never special
// cases a broker SDK callback shape.
type ConnectionState int

const (
	Connected ConnectionState = iota
	Disconnected
	Reconnecting
)

// EventKind tags which field of FeedEvent is populated.
type EventKind int

const (
	KindDepthUpdate EventKind = iota
	KindTrade
	KindError
	KindConnectionState
	KindUniverseUpdate
	KindWarmupVolume
)

// FeedEvent is the tagged variant crossing the feed boundary (Design Notes
// §9). Exactly one of the payload fields is populated, selected by Kind.
type FeedEvent struct {
	Kind EventKind

	Depth    DepthUpdate
	Trade    Trade
	Err      error
	ConnState ConnectionState

	// Universe replaces the active subscription set (§6 on_universe).
	Universe []symbol.Symbol

	// WarmupVolume seeds relative-volume gating (§6 on_warmup_volume).
	WarmupSymbol symbol.Symbol
	WarmupTwentyDayAvgVolume decimal.Decimal
}
