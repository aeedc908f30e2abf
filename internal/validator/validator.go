// Package validator gates a candidate snapshot into {Accept, Reject} with an
// ordered decision trace (§4.5). Each Validator instance is owned
// exclusively by one symbol's worker — the previous-spread state it
// maintains for the spread-blowout check is therefore free of races by
// construction (Design Notes §9's third open question resolves this way).
package validator

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/signalcore/signalcore/internal/model"
	"github.com/signalcore/signalcore/internal/orderbook"
	"github.com/signalcore/signalcore/internal/reason"
)

// TimeWindowThreshold maps an Eastern-time interval to an accept-score
// threshold (§6 score.time_windows).
type TimeWindowThreshold struct {
	StartET  string // "HH:MM"
	EndET    string
	Threshold float64
}

// Config carries the validator's thresholds (§6).
type Config struct {
	WarmupMinTrades  int
	WarmupWindowMS   int64
	TapeStaleMS      int64
	DefaultThreshold float64
	TimeWindows      []TimeWindowThreshold
	OperatingStartET string
	OperatingEndET   string
}

// DefaultConfig matches the spec's documented defaults (§4.5, §6).
func DefaultConfig() Config {
	return Config{
		WarmupMinTrades:  5,
		WarmupWindowMS:   10000,
		TapeStaleMS:      5000,
		DefaultThreshold: 7.5,
		TimeWindows: []TimeWindowThreshold{
			{StartET: "09:30", EndET: "11:30", Threshold: 7.0},
			{StartET: "12:00", EndET: "14:00", Threshold: 8.0},
		},
		OperatingStartET: "09:25",
		OperatingEndET:   "15:45",
	}
}

// Result is the validator's decision: {Accept | Reject(reason, trace)}
// (Design Notes §9).
type Result struct {
	Accept bool
	Reason reason.Reason
	Trace  []reason.Reason
	Score  float64
}

// Validator holds the one piece of cross-event state the spec requires:
// the previous validated spread, used by the spread-blowout check.
type Validator struct {
	cfg Config
	loc *time.Location

	havePreviousSpread bool
	previousSpread     decimal.Decimal
}

// New constructs a Validator. Eastern-time zone resolution falls back to UTC
// on failure (§6 "time zone resolution must succeed with Eastern-time
// fallback to UTC, used only for operating-window logic").
func New(cfg Config) *Validator {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.UTC
	}
	return &Validator{cfg: cfg, loc: loc}
}

// Input bundles everything the validator needs beyond its own state.
type Input struct {
	Snapshot       model.MetricSnapshot
	BookValid      bool
	BookReason     reason.Reason
	Direction      model.Direction
	TradesInWarmup int
	LastTradeTsMS  int64
	HasLastTrade   bool
	VWAPReclaim    bool
	NowMS          int64
}

// Validate runs the seven ordered checks (§4.5), short-circuiting on the
// first failure.
func (v *Validator) Validate(in Input) Result {
	trace := make([]reason.Reason, 0, 7)

	// 1. Book validity.
	if !in.BookValid {
		trace = append(trace, in.BookReason)
		return Result{Accept: false, Reason: in.BookReason, Trace: trace}
	}
	trace = append(trace, "BookValid")

	// 2. Tape warmup.
	if in.TradesInWarmup < v.cfg.WarmupMinTrades {
		trace = append(trace, reason.TapeNotWarmedUp)
		return Result{Accept: false, Reason: reason.TapeNotWarmedUp, Trace: trace}
	}
	if !in.HasLastTrade || in.NowMS-in.LastTradeTsMS > v.cfg.TapeStaleMS {
		trace = append(trace, reason.TapeStale)
		return Result{Accept: false, Reason: reason.TapeStale, Trace: trace}
	}
	trace = append(trace, "TapeWarmedUp")

	// 3. Spoof rejection.
	if in.Snapshot.Window1s.CancelToAddRatio >= 3 && in.Snapshot.TradesIn3s == 0 {
		trace = append(trace, reason.Spoof)
		return Result{Accept: false, Reason: reason.Spoof, Trace: trace}
	}
	trace = append(trace, "NotSpoof")

	// 4. Replenishment (Buy candidates only: ask refilling faster than fills).
	if in.Direction == model.Buy {
		printsPerSec := float64(in.Snapshot.TradesIn3s) / 3.0
		if in.Snapshot.QueueImbalance < 1 && printsPerSec < 1 {
			trace = append(trace, reason.Replenishment)
			return Result{Accept: false, Reason: reason.Replenishment, Trace: trace}
		}
	}
	trace = append(trace, "NoReplenishment")

	// 5. Spread-blowout post-trigger.
	if v.havePreviousSpread && v.previousSpread.IsPositive() {
		widened := in.Snapshot.Spread.GreaterThanOrEqual(v.previousSpread.Mul(decimal.NewFromFloat(1.5)))
		if widened {
			v.previousSpread = in.Snapshot.Spread
			v.havePreviousSpread = true
			trace = append(trace, reason.SpreadBlowout)
			return Result{Accept: false, Reason: reason.SpreadBlowout, Trace: trace}
		}
	}
	v.previousSpread = in.Snapshot.Spread
	v.havePreviousSpread = true
	trace = append(trace, "NoSpreadBlowout")

	// 6. Operating window (Eastern time, UTC fallback baked into v.loc).
	if !v.withinOperatingWindow(in.NowMS) {
		trace = append(trace, reason.OutsideWindow)
		return Result{Accept: false, Reason: reason.OutsideWindow, Trace: trace}
	}
	trace = append(trace, "WithinOperatingWindow")

	// 7. Score.
	score := Score(in.Snapshot, in.VWAPReclaim)
	threshold := v.thresholdFor(in.NowMS)
	if score < threshold {
		trace = append(trace, reason.LowScore)
		return Result{Accept: false, Reason: reason.LowScore, Trace: trace, Score: score}
	}
	trace = append(trace, "ScoreAccepted")

	return Result{Accept: true, Reason: reason.None, Trace: trace, Score: score}
}

func (v *Validator) withinOperatingWindow(nowMS int64) bool {
	t := time.UnixMilli(nowMS).In(v.loc)
	start := parseHHMM(v.cfg.OperatingStartET)
	end := parseHHMM(v.cfg.OperatingEndET)
	cur := t.Hour()*60 + t.Minute()
	return cur >= start && cur <= end
}

func (v *Validator) thresholdFor(nowMS int64) float64 {
	t := time.UnixMilli(nowMS).In(v.loc)
	cur := t.Hour()*60 + t.Minute()
	for _, w := range v.cfg.TimeWindows {
		if cur >= parseHHMM(w.StartET) && cur <= parseHHMM(w.EndET) {
			return w.Threshold
		}
	}
	return v.cfg.DefaultThreshold
}

func parseHHMM(s string) int {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0
	}
	return t.Hour()*60 + t.Minute()
}

// Score implements the additive scoring table (§4.5), clamped to [0, 10].
func Score(s model.MetricSnapshot, vwapReclaim bool) float64 {
	spreadF := toFloat(s.Spread)

	score := 0.0
	printsPerSec := float64(s.TradesIn3s) / 3.0

	if spreadF <= 0.03 {
		score += 2
	}
	if s.QueueImbalance >= 3 {
		score += 3
	}
	if printsPerSec >= 5 {
		score += 2
	}
	if vwapReclaim {
		score += 2
	}
	if s.BidTop4.GreaterThan(s.AskTop4) {
		score += 1
	}

	if s.QueueImbalance < 1 && score > 3 {
		score = 3
	}
	if spreadF > 0.06 && score > 2 {
		score = 2
	}

	if score > 10 {
		score = 10
	}
	if score < 0 {
		score = 0
	}
	return score
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
