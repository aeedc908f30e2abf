package vwap

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/signalcore/signalcore/internal/model"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

const dayMS = int64(1000 * 60 * 60 * 24)

func TestVWAPBeforeAnyTradeIsUnavailable(t *testing.T) {
	tr := New()
	if _, ok := tr.VWAP(); ok {
		t.Fatal("VWAP should be unavailable before any trade is observed")
	}
}

func TestVWAPComputesWeightedAverage(t *testing.T) {
	tr := New()
	tr.Observe(model.Trade{Price: d("100"), Size: d("10"), TsMS: 1000})
	tr.Observe(model.Trade{Price: d("110"), Size: d("10"), TsMS: 2000})

	vwap, ok := tr.VWAP()
	if !ok {
		t.Fatal("VWAP should be available after trades")
	}
	if !vwap.Equal(d("105")) {
		t.Fatalf("VWAP = %v, want 105 (equal-weighted average of 100 and 110)", vwap)
	}
}

func TestVWAPResetsAtUTCDayBoundary(t *testing.T) {
	tr := New()
	tr.Observe(model.Trade{Price: d("100"), Size: d("10"), TsMS: 1000})
	tr.Observe(model.Trade{Price: d("200"), Size: d("10"), TsMS: 1000 + dayMS})

	vwap, ok := tr.VWAP()
	if !ok {
		t.Fatal("VWAP should be available")
	}
	if !vwap.Equal(d("200")) {
		t.Fatalf("VWAP = %v, want 200 (session reset at the UTC day boundary)", vwap)
	}
}

func TestReclaimFlagWithinWindow(t *testing.T) {
	tr := New()
	tr.Observe(model.Trade{Price: d("100"), Size: d("10"), TsMS: 0})
	tr.Observe(model.Trade{Price: d("90"), Size: d("10"), TsMS: 1000}) // dips below VWAP (95)

	if tr.ReclaimFlag(2000) {
		t.Fatal("ReclaimFlag should be false while price is still below VWAP")
	}

	tr.Observe(model.Trade{Price: d("200"), Size: d("1"), TsMS: 2000}) // back above VWAP, belowSinceMS stays at 1000

	if !tr.ReclaimFlag(1000 + reclaimWindowMS - 1) {
		t.Fatal("ReclaimFlag should be true within reclaimWindowMS of having gone below VWAP")
	}
}

func TestReclaimFlagOutsideWindow(t *testing.T) {
	tr := New()
	tr.Observe(model.Trade{Price: d("100"), Size: d("10"), TsMS: 0})
	tr.Observe(model.Trade{Price: d("90"), Size: d("10"), TsMS: 1000})
	tr.Observe(model.Trade{Price: d("200"), Size: d("1"), TsMS: 2000})

	if tr.ReclaimFlag(1000 + reclaimWindowMS + 1) {
		t.Fatal("ReclaimFlag should expire once reclaimWindowMS has elapsed since going below VWAP")
	}
}
