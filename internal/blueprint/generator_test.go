package blueprint

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

func baseSnapshot() model.MetricSnapshot {
	return model.MetricSnapshot{
		BestBid: d("99.98"),
		BestAsk: d("100.00"),
		Spread:  d("0.02"),
		TsMS:    1000,
	}
}

func TestGenerateBuyEntryStopTarget(t *testing.T) {
	cfg := DefaultConfig(d("100000"))
	snap := baseSnapshot()

	bp, why := Generate(snap, model.Buy, 8.5, cfg, d("99.50"), true, decimal.Decimal{}, false)
	if why != reason.None {
		t.Fatalf("unexpected rejection: %q", why)
	}
	if !bp.Entry.Equal(d("100.00")) {
		t.Fatalf("Entry = %v, want 100.00 (best ask)", bp.Entry)
	}
	if !bp.Stop.Equal(d("99.92")) {
		t.Fatalf("Stop = %v, want 99.92 (entry - 4*spread)", bp.Stop)
	}
	if !bp.Target.Equal(d("100.16")) {
		t.Fatalf("Target = %v, want 100.16 (entry + 8*spread)", bp.Target)
	}
}

func TestGenerateSellEntryStopTarget(t *testing.T) {
	cfg := DefaultConfig(d("100000"))
	snap := baseSnapshot()

	bp, why := Generate(snap, model.Sell, 8.5, cfg, d("100.50"), true, decimal.Decimal{}, false)
	if why != reason.None {
		t.Fatalf("unexpected rejection: %q", why)
	}
	if !bp.Entry.Equal(d("99.98")) {
		t.Fatalf("Entry = %v, want 99.98 (best bid)", bp.Entry)
	}
	if !bp.Stop.Equal(d("100.06")) {
		t.Fatalf("Stop = %v, want 100.06 (entry + 4*spread)", bp.Stop)
	}
	if !bp.Target.Equal(d("99.82")) {
		t.Fatalf("Target = %v, want 99.82 (entry - 8*spread)", bp.Target)
	}
}

func TestGenerateRejectsBuyNotAboveVWAP(t *testing.T) {
	cfg := DefaultConfig(d("100000"))
	snap := baseSnapshot() // entry (best ask) = 100.00

	_, why := Generate(snap, model.Buy, 8.5, cfg, d("100.00"), true, decimal.Decimal{}, false)
	if why != reason.NotAboveVwap {
		t.Fatalf("why = %q, want NotAboveVwap when entry <= vwap", why)
	}
}

func TestGenerateRejectsSellNotBelowVWAP(t *testing.T) {
	cfg := DefaultConfig(d("100000"))
	snap := baseSnapshot() // entry (best bid) = 99.98

	_, why := Generate(snap, model.Sell, 8.5, cfg, d("99.98"), true, decimal.Decimal{}, false)
	if why != reason.NotAboveVwap {
		t.Fatalf("why = %q, want NotAboveVwap when entry >= vwap", why)
	}
}

func TestGenerateSkipsVWAPGateWhenUnavailable(t *testing.T) {
	cfg := DefaultConfig(d("100000"))
	snap := baseSnapshot()

	_, why := Generate(snap, model.Buy, 8.5, cfg, decimal.Decimal{}, false, decimal.Decimal{}, false)
	if why != reason.None {
		t.Fatalf("unexpected rejection with no VWAP data: %q", why)
	}
}

func TestGenerateRejectsSpreadExceedsHistorical(t *testing.T) {
	cfg := DefaultConfig(d("100000"))
	snap := baseSnapshot() // spread 0.02

	_, why := Generate(snap, model.Buy, 8.5, cfg, d("99.00"), true, d("0.01"), true)
	if why != reason.SpreadExceedsHistorical {
		t.Fatalf("why = %q, want SpreadExceedsHistorical", why)
	}
}

func TestGenerateRejectsSizeTooSmall(t *testing.T) {
	cfg := DefaultConfig(d("1")) // tiny equity -> zero-share position
	snap := baseSnapshot()

	_, why := Generate(snap, model.Buy, 8.5, cfg, d("99.00"), true, decimal.Decimal{}, false)
	if why != reason.SizeTooSmall {
		t.Fatalf("why = %q, want SizeTooSmall", why)
	}
}

func TestGeneratePositionSizeFromRisk(t *testing.T) {
	cfg := DefaultConfig(d("100000")) // max risk = 250
	snap := baseSnapshot()            // risk per share on a buy = 4*spread = 0.08

	bp, why := Generate(snap, model.Buy, 8.5, cfg, d("99.00"), true, decimal.Decimal{}, false)
	if why != reason.None {
		t.Fatalf("unexpected rejection: %q", why)
	}
	want := d("250").Div(d("0.08")).IntPart()
	if bp.PositionSize != want {
		t.Fatalf("PositionSize = %d, want %d", bp.PositionSize, want)
	}
}
