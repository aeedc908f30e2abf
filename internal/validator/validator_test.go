package validator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/signalcore/signalcore/internal/model"
	"github.com/signalcore/signalcore/internal/reason"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

// tenAMET is a timestamp landing at 10:00 ET on a weekday, comfortably inside
// both the operating window and the 09:30-11:30 scoring window.
const tenAMET = int64(1700492400000) // 2023-11-20T10:00:00-05:00

func baseSnapshot() model.MetricSnapshot {
	return model.MetricSnapshot{
		QueueImbalance: 3.5,
		Spread:         d("0.02"),
		TradesIn3s:     20,
		BidTop4:        d("10"),
		AskTop4:        d("5"),
	}
}

func TestValidateRejectsInvalidBook(t *testing.T) {
	v := New(DefaultConfig())
	res := v.Validate(Input{BookValid: false, BookReason: reason.NoBook, NowMS: tenAMET})
	if res.Accept {
		t.Fatal("expected rejection for an invalid book")
	}
	if res.Reason != reason.NoBook {
		t.Fatalf("Reason = %q, want NoBook", res.Reason)
	}
}

func TestValidateRejectsBelowWarmup(t *testing.T) {
	v := New(DefaultConfig())
	res := v.Validate(Input{
		Snapshot:       baseSnapshot(),
		BookValid:      true,
		TradesInWarmup: DefaultConfig().WarmupMinTrades - 1,
		HasLastTrade:   true,
		LastTradeTsMS:  tenAMET,
		NowMS:          tenAMET,
	})
	if res.Accept || res.Reason != reason.TapeNotWarmedUp {
		t.Fatalf("got (%v, %q), want rejection with TapeNotWarmedUp", res.Accept, res.Reason)
	}
}

func TestValidateRejectsStaleTape(t *testing.T) {
	v := New(DefaultConfig())
	res := v.Validate(Input{
		Snapshot:       baseSnapshot(),
		BookValid:      true,
		TradesInWarmup: DefaultConfig().WarmupMinTrades,
		HasLastTrade:   true,
		LastTradeTsMS:  tenAMET - DefaultConfig().TapeStaleMS - 1,
		NowMS:          tenAMET,
	})
	if res.Accept || res.Reason != reason.TapeStale {
		t.Fatalf("got (%v, %q), want rejection with TapeStale", res.Accept, res.Reason)
	}
}

func TestValidateRejectsSpoof(t *testing.T) {
	v := New(DefaultConfig())
	snap := baseSnapshot()
	snap.Window1s.CancelToAddRatio = 3
	snap.TradesIn3s = 0
	res := v.Validate(Input{
		Snapshot:       snap,
		BookValid:      true,
		TradesInWarmup: DefaultConfig().WarmupMinTrades,
		HasLastTrade:   true,
		LastTradeTsMS:  tenAMET,
		NowMS:          tenAMET,
	})
	if res.Accept || res.Reason != reason.Spoof {
		t.Fatalf("got (%v, %q), want rejection with Spoof", res.Accept, res.Reason)
	}
}

func TestValidateAcceptsHighScoreCandidate(t *testing.T) {
	v := New(DefaultConfig())
	snap := baseSnapshot()
	snap.QueueImbalance = 4 // >= 3 => +3
	snap.Spread = d("0.02") // <= 0.03 => +2
	snap.TradesIn3s = 20    // 6.67/s >= 5 => +2
	snap.BidTop4 = d("10")
	snap.AskTop4 = d("1") // BidTop4 > AskTop4 => +1
	// score so far: 2+3+2+1 = 8, plus vwap reclaim +2 = 10

	res := v.Validate(Input{
		Snapshot:       snap,
		BookValid:      true,
		Direction:      model.Buy,
		TradesInWarmup: DefaultConfig().WarmupMinTrades,
		HasLastTrade:   true,
		LastTradeTsMS:  tenAMET,
		VWAPReclaim:    true,
		NowMS:          tenAMET,
	})
	if !res.Accept {
		t.Fatalf("expected acceptance, got reason %q trace %v", res.Reason, res.Trace)
	}
	if res.Score != 10 {
		t.Fatalf("Score = %v, want 10", res.Score)
	}
}

func TestValidateRejectsLowScore(t *testing.T) {
	v := New(DefaultConfig())
	snap := baseSnapshot()
	snap.QueueImbalance = 3.5
	snap.Spread = d("0.08") // > 0.06, caps score at 2

	res := v.Validate(Input{
		Snapshot:       snap,
		BookValid:      true,
		Direction:      model.Sell,
		TradesInWarmup: DefaultConfig().WarmupMinTrades,
		HasLastTrade:   true,
		LastTradeTsMS:  tenAMET,
		NowMS:          tenAMET,
	})
	if res.Accept || res.Reason != reason.LowScore {
		t.Fatalf("got (%v, %q), want rejection with LowScore", res.Accept, res.Reason)
	}
}

func TestValidateRejectsOutsideOperatingWindow(t *testing.T) {
	v := New(DefaultConfig())
	snap := baseSnapshot()
	// Midnight ET, well outside the 09:25-15:45 operating window.
	const midnightET = int64(1700456400000) // 2023-11-20T00:00:00-05:00

	res := v.Validate(Input{
		Snapshot:       snap,
		BookValid:      true,
		TradesInWarmup: DefaultConfig().WarmupMinTrades,
		HasLastTrade:   true,
		LastTradeTsMS:  midnightET,
		NowMS:          midnightET,
	})
	if res.Accept || res.Reason != reason.OutsideWindow {
		t.Fatalf("got (%v, %q), want rejection with OutsideWindow", res.Accept, res.Reason)
	}
}

func TestScoreClampsToZeroAndTen(t *testing.T) {
	low := Score(model.MetricSnapshot{Spread: d("1.00"), QueueImbalance: 0.1}, false)
	if low < 0 {
		t.Fatalf("Score = %v, want clamped to >= 0", low)
	}

	high := Score(model.MetricSnapshot{
		Spread:         d("0.01"),
		QueueImbalance: 10,
		TradesIn3s:     100,
		BidTop4:        d("100"),
		AskTop4:        d("1"),
	}, true)
	if high > 10 {
		t.Fatalf("Score = %v, want clamped to <= 10", high)
	}
}
