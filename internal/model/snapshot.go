package model

import (
	"github.com/shopspring/decimal"
	"github.com/signalcore/signalcore/internal/reason"
	"github.com/signalcore/signalcore/internal/symbol"
)

// DepthDeltaSnapshot is the immutable, point-in-time readout of one
// DepthDeltaTracker window (§4.2), attached to a MetricSnapshot.
type DepthDeltaSnapshot struct {
	WindowMS          int64
	AddCount          int
	CancelCount       int
	UpdateCount       int
	TotalAddedSize    decimal.Decimal
	TotalCanceledSize decimal.Decimal
	TotalAbsDelta     decimal.Decimal
	CancelToAddRatio  float64
}

// MetricSnapshot is the pure-function output of the metrics engine (§4.4).
// It is immutable once constructed; a zeroed snapshot (IsZero() true) must
// be treated by every downstream consumer as invalid, never as "no signal."
type MetricSnapshot struct {
	Symbol symbol.Symbol
	TsMS   int64

	QueueImbalance    float64
	BidWallAgeMS      int64
	AskWallAgeMS      int64
	BidAbsorptionRate decimal.Decimal
	AskAbsorptionRate decimal.Decimal
	SpoofScore        float64
	TapeAcceleration  float64
	TradesIn3s        int
	Spread            decimal.Decimal
	MidPrice          decimal.Decimal
	BestBid           decimal.Decimal
	BestAsk           decimal.Decimal
	BidTop4           decimal.Decimal
	AskTop4           decimal.Decimal

	Window1s DepthDeltaSnapshot

	// zero is set true by the engine's hard validity gate; callers must
	// check IsZero rather than inspect individual fields for "emptiness."
	zero bool
}

// Zero returns a MetricSnapshot marked invalid — the metrics engine's hard
// gate output when book.IsValid fails (§4.4).
func Zero(sym symbol.Symbol, tsMS int64) MetricSnapshot {
	return MetricSnapshot{Symbol: sym, TsMS: tsMS, zero: true}
}

// IsZero reports whether this snapshot is the engine's invalid-gate output.
// Consumers MUST treat a zeroed snapshot as invalid regardless of the
// individual field values (§4.4).
func (s MetricSnapshot) IsZero() bool { return s.zero }

// Blueprint is an entry/stop/target/size recommendation for human review
// (§3). Never executed by this system.
type Blueprint struct {
	Symbol       symbol.Symbol
	Direction    Direction
	Entry        decimal.Decimal
	Stop         decimal.Decimal
	Target       decimal.Decimal
	Score        float64
	PositionSize int64
	TsMS         int64
}

// DecisionOutcome classifies a DecisionRecord's disposition.
type DecisionOutcome string

const (
	Accepted  DecisionOutcome = "Accepted"
	Rejected  DecisionOutcome = "Rejected"
	Cancelled DecisionOutcome = "Cancelled"
)

// EntryType distinguishes the four journal record shapes (§3).
type EntryType string

const (
	EntrySignal         EntryType = "Signal"
	EntryRejection      EntryType = "Rejection"
	EntryHeartbeat      EntryType = "Heartbeat"
	EntryUniverseUpdate EntryType = "UniverseUpdate"
)

// SchemaVersion is the wire version of the journal record schema (§6).
const SchemaVersion = 2

// SystemMetrics carries heartbeat liveness data (§4.8).
type SystemMetrics struct {
	UniverseCount       int
	ActiveSubscriptions int
	MinDepthUpdateAgeMS int64
	MinTapeUpdateAgeMS  int64
	TapeRecent          bool
}

// UniverseUpdateInfo describes a subscription-set change (§6 on_universe).
type UniverseUpdateInfo struct {
	Added   []symbol.Symbol
	Removed []symbol.Symbol
}

// DecisionRecord is the single journal entry type (§3), append-only and
// never mutated after enqueue. Exactly the fields relevant to EntryType are
// populated; the rest are zero values.
type DecisionRecord struct {
	SchemaVersion int       `json:"schema_version"`
	DecisionID    string    `json:"decision_id"`
	SessionID     string    `json:"session_id"`
	Source        string    `json:"source"`
	EntryType     EntryType `json:"entry_type"`

	MarketTimestampUTC       int64 `json:"market_timestamp_utc"`
	DecisionTimestampUTC     int64 `json:"decision_timestamp_utc"`
	JournalWriteTimestampUTC int64 `json:"journal_write_timestamp_utc"`

	TradingMode string        `json:"trading_mode"`
	Symbol      symbol.Symbol `json:"symbol,omitempty"`
	Direction   *Direction    `json:"direction,omitempty"`

	DecisionOutcome  DecisionOutcome `json:"decision_outcome"`
	RejectionReason  reason.Reason   `json:"rejection_reason,omitempty"`
	DecisionTrace    []reason.Reason `json:"decision_trace,omitempty"`
	DataQualityFlags []reason.Reason `json:"data_quality_flags,omitempty"`

	ObservedMetrics *MetricSnapshot     `json:"observed_metrics,omitempty"`
	Blueprint       *Blueprint          `json:"blueprint,omitempty"`
	SystemMetrics   *SystemMetrics      `json:"system_metrics,omitempty"`
	UniverseUpdate  *UniverseUpdateInfo `json:"universe_update,omitempty"`
}
