package depthdelta

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/signalcore/signalcore/internal/model"
	"github.com/signalcore/signalcore/internal/orderbook"
	"github.com/signalcore/signalcore/internal/symbol"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func newBook(t *testing.T) *orderbook.Book {
	t.Helper()
	sym, ok := symbol.New("AAPL")
	if !ok {
		t.Fatal("symbol.New failed")
	}
	return orderbook.New(sym)
}

// applyAndObserve mirrors the coordinator worker's processDepth: a Delete's
// top-K rank is captured before the level is removed from the ladder,
// Insert/Update after the level is upserted.
func applyAndObserve(book *orderbook.Book, tr *Tracker, u model.DepthUpdate) {
	var withinTopK bool
	if u.Op == model.Delete {
		withinTopK = book.RankWithinTopN(u.Side, u.Price, TopKLevels)
	}
	book.ApplyDepth(u)
	if u.Op != model.Delete {
		withinTopK = book.RankWithinTopN(u.Side, u.Price, TopKLevels)
	}
	tr.Observe(u, withinTopK)
}

func TestObserveCountsInsertAsAdd(t *testing.T) {
	book := newBook(t)
	tr := New()

	u := model.DepthUpdate{Symbol: book.Symbol, Side: model.Bid, Op: model.Insert, Price: d("100"), Size: d("10"), TsMS: 1}
	applyAndObserve(book, tr, u)

	w := tr.Window1s()
	if w.AddCount != 1 {
		t.Fatalf("AddCount = %d, want 1", w.AddCount)
	}
	if !w.TotalAddedSize.Equal(d("10")) {
		t.Fatalf("TotalAddedSize = %v, want 10", w.TotalAddedSize)
	}
}

func TestObserveCountsDeleteAsCancel(t *testing.T) {
	book := newBook(t)
	tr := New()

	ins := model.DepthUpdate{Symbol: book.Symbol, Side: model.Bid, Op: model.Insert, Price: d("100"), Size: d("10"), TsMS: 1}
	applyAndObserve(book, tr, ins)

	del := model.DepthUpdate{Symbol: book.Symbol, Side: model.Bid, Op: model.Delete, Price: d("100"), Size: d("0"), PrevSize: d("10"), TsMS: 2}
	applyAndObserve(book, tr, del)

	w := tr.Window1s()
	if w.CancelCount != 1 {
		t.Fatalf("CancelCount = %d, want 1", w.CancelCount)
	}
	if !w.TotalCanceledSize.Equal(d("10")) {
		t.Fatalf("TotalCanceledSize = %v, want 10", w.TotalCanceledSize)
	}
}

func TestObserveIgnoresLevelsOutsideTopK(t *testing.T) {
	book := newBook(t)
	tr := New()

	for i := 0; i < TopKLevels; i++ {
		price := d(fmt.Sprintf("%d", 100+i))
		u := model.DepthUpdate{Symbol: book.Symbol, Side: model.Bid, Op: model.Insert, Price: price, Size: d("1"), TsMS: 1}
		applyAndObserve(book, tr, u)
	}

	before := tr.Window1s().AddCount

	// A level far below the top K should not count.
	u := model.DepthUpdate{Symbol: book.Symbol, Side: model.Bid, Op: model.Insert, Price: d("1.00"), Size: d("1"), TsMS: 2}
	applyAndObserve(book, tr, u)

	after := tr.Window1s().AddCount
	if after != before {
		t.Fatalf("AddCount changed from %d to %d; a below-top-K insert should not be observed", before, after)
	}
}

// TestObserveIgnoresDeleteOfLevelOutsideTopK guards the fix for a bug where
// Observe counted every Delete as a cancel regardless of rank, because by
// the time Observe ran the level was already gone from the ladder and the
// top-K check couldn't be evaluated post-mutation.
func TestObserveIgnoresDeleteOfLevelOutsideTopK(t *testing.T) {
	book := newBook(t)
	tr := New()

	for i := 0; i < TopKLevels; i++ {
		price := d(fmt.Sprintf("%d", 100+i))
		u := model.DepthUpdate{Symbol: book.Symbol, Side: model.Bid, Op: model.Insert, Price: price, Size: d("1"), TsMS: 1}
		applyAndObserve(book, tr, u)
	}
	// A 6th bid, ranked below the top K.
	outside := model.DepthUpdate{Symbol: book.Symbol, Side: model.Bid, Op: model.Insert, Price: d("1.00"), Size: d("1"), TsMS: 1}
	applyAndObserve(book, tr, outside)

	before := tr.Window1s().CancelCount

	del := model.DepthUpdate{Symbol: book.Symbol, Side: model.Bid, Op: model.Delete, Price: d("1.00"), Size: d("0"), PrevSize: d("1"), TsMS: 2}
	applyAndObserve(book, tr, del)

	after := tr.Window1s().CancelCount
	if after != before {
		t.Fatalf("CancelCount changed from %d to %d; deleting a below-top-K level should not be observed", before, after)
	}
}

func TestCancelToAddRatio(t *testing.T) {
	s := WindowStats{AddCount: 2, CancelCount: 4}
	if got := s.CancelToAddRatio(); got != 2 {
		t.Fatalf("CancelToAddRatio() = %v, want 2", got)
	}

	zeroAdd := WindowStats{AddCount: 0, CancelCount: 3}
	if got := zeroAdd.CancelToAddRatio(); got != 3 {
		t.Fatalf("CancelToAddRatio() with zero adds = %v, want CancelCount as ratio (3)", got)
	}

	empty := WindowStats{}
	if got := empty.CancelToAddRatio(); got != 0 {
		t.Fatalf("CancelToAddRatio() on empty stats = %v, want 0", got)
	}
}

func TestEvictDropsOldEventsPastWindow(t *testing.T) {
	book := newBook(t)
	tr := New()

	u := model.DepthUpdate{Symbol: book.Symbol, Side: model.Bid, Op: model.Insert, Price: d("100"), Size: d("10"), TsMS: 0}
	applyAndObserve(book, tr, u)

	if tr.Window1s().AddCount != 1 {
		t.Fatalf("AddCount = %d, want 1 before eviction", tr.Window1s().AddCount)
	}

	tr.Evict(2000)
	if tr.Window1s().AddCount != 0 {
		t.Fatalf("AddCount = %d, want 0 after the 1s window has fully elapsed", tr.Window1s().AddCount)
	}
	if tr.Window10s().AddCount != 1 {
		t.Fatalf("Window10s AddCount = %d, want 1 (still within the 10s window)", tr.Window10s().AddCount)
	}
}
