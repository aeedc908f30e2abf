package wall

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/signalcore/signalcore/internal/model"
	"github.com/signalcore/signalcore/internal/symbol"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func newTracker(t *testing.T) *Tracker {
	t.Helper()
	sym, ok := symbol.New("AAPL")
	if !ok {
		t.Fatal("symbol.New failed")
	}
	return New(sym)
}

func TestObserveTracksFirstSeen(t *testing.T) {
	tr := newTracker(t)
	tr.Observe(model.DepthUpdate{Side: model.Bid, Op: model.Insert, Price: d("100"), Size: d("10"), TsMS: 500})

	fs, ok := tr.FirstSeenMS(model.Bid, d("100"))
	if !ok || fs != 500 {
		t.Fatalf("FirstSeenMS = (%d, %v), want (500, true)", fs, ok)
	}
}

func TestObserveEmitsPersistenceRecordOnDelete(t *testing.T) {
	tr := newTracker(t)
	tr.Observe(model.DepthUpdate{Side: model.Bid, Op: model.Insert, Price: d("100"), Size: d("10"), TsMS: 500})
	tr.Observe(model.DepthUpdate{Side: model.Bid, Op: model.Update, Price: d("100"), Size: d("20"), PrevSize: d("10"), TsMS: 700})

	rec := tr.Observe(model.DepthUpdate{Side: model.Bid, Op: model.Delete, Price: d("100"), Size: d("0"), TsMS: 1500})
	if rec == nil {
		t.Fatal("expected a PersistenceRecord on delete")
	}
	if rec.StartMS != 500 || rec.EndMS != 1500 || rec.DurationMS != 1000 {
		t.Fatalf("got %+v, want StartMS=500 EndMS=1500 DurationMS=1000", rec)
	}
	if !rec.MinSize.Equal(d("10")) || !rec.MaxSize.Equal(d("20")) {
		t.Fatalf("got MinSize=%v MaxSize=%v, want 10/20", rec.MinSize, rec.MaxSize)
	}

	if _, ok := tr.FirstSeenMS(model.Bid, d("100")); ok {
		t.Fatal("level should be untracked after delete")
	}
}

func TestObserveZeroSizeUpdateActsAsDelete(t *testing.T) {
	tr := newTracker(t)
	tr.Observe(model.DepthUpdate{Side: model.Ask, Op: model.Insert, Price: d("50"), Size: d("5"), TsMS: 10})

	rec := tr.Observe(model.DepthUpdate{Side: model.Ask, Op: model.Update, Price: d("50"), Size: d("0"), TsMS: 20})
	if rec == nil {
		t.Fatal("a zero-size update should emit a persistence record, same as a delete")
	}
}

func TestObserveDeleteOfUntrackedLevelIsNoop(t *testing.T) {
	tr := newTracker(t)
	rec := tr.Observe(model.DepthUpdate{Side: model.Bid, Op: model.Delete, Price: d("999"), Size: d("0"), TsMS: 1})
	if rec != nil {
		t.Fatal("deleting a level never tracked should not emit a record")
	}
}
