package feed

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/signalcore/signalcore/internal/model"
	"github.com/signalcore/signalcore/internal/symbol"
)

// replayRecord is the JSONL fixture shape read by ReplaySource — one line
// per depth update or trade, tagged by "kind".
type replayRecord struct {
	Kind     string `json:"kind"` // "depth" | "trade"
	Symbol   string `json:"symbol"`
	Side     string `json:"side,omitempty"` // "bid" | "ask"
	Op       string `json:"op,omitempty"`   // "insert" | "update" | "delete"
	Price    string `json:"price"`
	Size     string `json:"size"`
	PrevSize string `json:"prev_size,omitempty"`
	TsMS     int64  `json:"ts_ms"`
}

// ReplaySource reads a JSONL fixture of DepthUpdate/Trade events and
// replays them through the core — grounded in the teacher's
// internal/ingest reconnect-loop shape, but reading a file instead of a
// live venue (live broker wire protocols are explicitly out of scope).
type ReplaySource struct {
	r    io.Reader
	out  chan model.FeedEvent
	once sync.Once
}

// NewReplaySource wraps r, a line-delimited JSON fixture.
func NewReplaySource(r io.Reader) *ReplaySource {
	return &ReplaySource{r: r, out: make(chan model.FeedEvent, 256)}
}

// Events starts the replay goroutine on first call and returns the event
// channel, closed when the fixture is exhausted.
func (s *ReplaySource) Events() <-chan model.FeedEvent {
	s.once.Do(func() { go s.run() })
	return s.out
}

func (s *ReplaySource) run() {
	defer close(s.out)

	scanner := bufio.NewScanner(s.r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec replayRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			s.out <- model.FeedEvent{Kind: model.KindError, Err: fmt.Errorf("replay: decode line: %w", err)}
			continue
		}

		sym, ok := symbol.New(rec.Symbol)
		if !ok {
			s.out <- model.FeedEvent{Kind: model.KindError, Err: fmt.Errorf("replay: empty symbol")}
			continue
		}

		ev, err := toEvent(sym, rec)
		if err != nil {
			s.out <- model.FeedEvent{Kind: model.KindError, Err: err}
			continue
		}
		s.out <- ev
	}
}

func toEvent(sym symbol.Symbol, rec replayRecord) (model.FeedEvent, error) {
	price, err := decimal.NewFromString(rec.Price)
	if err != nil {
		return model.FeedEvent{}, fmt.Errorf("replay: parse price: %w", err)
	}
	size, err := decimal.NewFromString(rec.Size)
	if err != nil {
		return model.FeedEvent{}, fmt.Errorf("replay: parse size: %w", err)
	}

	switch rec.Kind {
	case "trade":
		return model.FeedEvent{
			Kind: model.KindTrade,
			Trade: model.Trade{
				Symbol: sym,
				Price:  price,
				Size:   size,
				TsMS:   rec.TsMS,
			},
		}, nil
	case "depth":
		prevSize := decimal.Zero
		if rec.PrevSize != "" {
			prevSize, err = decimal.NewFromString(rec.PrevSize)
			if err != nil {
				return model.FeedEvent{}, fmt.Errorf("replay: parse prev_size: %w", err)
			}
		}
		side := model.Bid
		if rec.Side == "ask" {
			side = model.Ask
		}
		op := model.Insert
		switch rec.Op {
		case "update":
			op = model.Update
		case "delete":
			op = model.Delete
		}
		return model.FeedEvent{
			Kind: model.KindDepthUpdate,
			Depth: model.DepthUpdate{
				Symbol:   sym,
				Side:     side,
				Op:       op,
				Price:    price,
				Size:     size,
				PrevSize: prevSize,
				TsMS:     rec.TsMS,
			},
		}, nil
	default:
		return model.FeedEvent{}, fmt.Errorf("replay: unknown kind %q", rec.Kind)
	}
}
