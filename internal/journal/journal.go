// Package journal implements the append-only JSONL decision sink (§4.8).
// Single writer goroutine, bounded MPSC queue, non-blocking enqueue — a
// direct generalization of the teacher's internal/logger.Logger (CSV →
// JSONL), keeping its channel-close-drains-and-flushes shutdown idiom.
package journal

import (
	"bufio"
	"encoding/json"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/signalcore/signalcore/internal/clock"
	"github.com/signalcore/signalcore/internal/model"
	"github.com/signalcore/signalcore/internal/telemetry"
)

// Config carries journal sink parameters (§6 journal.*).
type Config struct {
	Path                string
	QueueCapacity       int
	EmitGateRejections  bool
	FlushPeriod         time.Duration
	DrainDeadline       time.Duration
	HeartbeatPeriod     time.Duration
}

// DefaultConfig matches the spec's documented defaults (§6).
func DefaultConfig(path string) Config {
	return Config{
		Path:               path,
		QueueCapacity:      65536,
		EmitGateRejections: true,
		FlushPeriod:        time.Second,
		DrainDeadline:      5 * time.Second,
		HeartbeatPeriod:    60 * time.Second,
	}
}

// HeartbeatSource supplies the liveness data carried on each periodic
// Heartbeat record (§4.8). Implemented by the coordinator.
type HeartbeatSource interface {
	SystemMetrics(nowMS int64) model.SystemMetrics
}

// Journal is the single-consumer append-only JSONL sink. Producers call
// Enqueue, which never blocks — on overflow the record is dropped and a
// rate-limited warning logged (§7 JournalDropped).
type Journal struct {
	cfg       Config
	clock     clock.Clock
	log       zerolog.Logger
	sessionID string
	telemetry *telemetry.Metrics

	ch chan model.DecisionRecord

	heartbeatSrc HeartbeatSource

	done chan struct{}

	lastWriteTsMS int64
	droppedCount  int64
	lastDropLogMS int64
}

// New constructs a Journal and starts its background writer goroutine. tel
// may be nil (e.g. in tests that don't care about telemetry).
func New(cfg Config, clk clock.Clock, log zerolog.Logger, heartbeatSrc HeartbeatSource, tel *telemetry.Metrics) *Journal {
	j := &Journal{
		cfg:          cfg,
		clock:        clk,
		log:          log.With().Str("component", "journal").Logger(),
		sessionID:    uuid.NewString(),
		telemetry:    tel,
		ch:           make(chan model.DecisionRecord, cfg.QueueCapacity),
		heartbeatSrc: heartbeatSrc,
		done:         make(chan struct{}),
	}
	go j.run()
	return j
}

// QueueDepth returns the number of records currently buffered, for the
// coordinator's heartbeat to publish as a gauge (§7 JournalQueueDepth).
func (j *Journal) QueueDepth() int { return len(j.ch) }

// SessionID returns this process's session identifier, stamped on every
// record (§3).
func (j *Journal) SessionID() string { return j.sessionID }

// Enqueue stamps decision_id/session_id/timestamps and pushes a record,
// non-blocking. decision_ts is clamped up to market_ts and journal_write_ts
// up to decision_ts, so market_ts <= decision_ts <= journal_write_ts always
// holds (§4.8).
func (j *Journal) Enqueue(rec model.DecisionRecord, marketTsMS, decisionTsMS int64) {
	if decisionTsMS < marketTsMS {
		decisionTsMS = marketTsMS
	}
	writeTsMS := j.clock.NowMS()
	if writeTsMS < decisionTsMS {
		writeTsMS = decisionTsMS
	}

	rec.SchemaVersion = model.SchemaVersion
	rec.SessionID = j.sessionID
	if rec.DecisionID == "" {
		rec.DecisionID = uuid.NewString()
	}
	rec.MarketTimestampUTC = marketTsMS
	rec.DecisionTimestampUTC = decisionTsMS
	rec.JournalWriteTimestampUTC = writeTsMS

	select {
	case j.ch <- rec:
	default:
		atomic.AddInt64(&j.droppedCount, 1)
		if j.telemetry != nil {
			j.telemetry.JournalDropped.Inc()
		}
		now := j.clock.NowMS()
		last := atomic.LoadInt64(&j.lastDropLogMS)
		if now-last >= 60000 && atomic.CompareAndSwapInt64(&j.lastDropLogMS, last, now) {
			j.log.Warn().Int64("dropped_total", atomic.LoadInt64(&j.droppedCount)).Msg("journal queue full, dropping records")
		}
	}
}

// Shutdown closes the input channel and waits up to cfg.DrainDeadline for
// the writer to flush and exit (§5 shutdown).
func (j *Journal) Shutdown() {
	close(j.ch)
	select {
	case <-j.done:
	case <-time.After(j.cfg.DrainDeadline):
		j.log.Warn().Msg("journal drain deadline exceeded, forcing exit")
	}
}

func (j *Journal) run() {
	defer close(j.done)

	file, err := os.OpenFile(j.cfg.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		j.log.Error().Err(err).Str("path", j.cfg.Path).Msg("failed to open journal file")
		for range j.ch {
			// drain without writing
		}
		return
	}
	defer file.Close()

	writer := bufio.NewWriterSize(file, 1<<16)

	flushTicker := time.NewTicker(j.cfg.FlushPeriod)
	defer flushTicker.Stop()

	var heartbeatTicker *time.Ticker
	var heartbeatC <-chan time.Time
	if j.heartbeatSrc != nil {
		heartbeatTicker = time.NewTicker(j.cfg.HeartbeatPeriod)
		heartbeatC = heartbeatTicker.C
		defer heartbeatTicker.Stop()
	}

	for {
		select {
		case rec, ok := <-j.ch:
			if !ok {
				writer.Flush()
				file.Sync()
				return
			}
			j.writeRecord(writer, rec)

		case <-flushTicker.C:
			writer.Flush()

		case <-heartbeatC:
			nowMS := j.clock.NowMS()
			sys := j.heartbeatSrc.SystemMetrics(nowMS)
			rec := model.DecisionRecord{
				EntryType:       model.EntryHeartbeat,
				DecisionOutcome: model.Accepted,
				SystemMetrics:   &sys,
			}
			j.stampAndWriteDirect(writer, rec, nowMS)
		}
	}
}

// stampAndWriteDirect is used only by the writer goroutine itself (the
// heartbeat ticker case), bypassing the channel since it already runs on
// the single writer goroutine.
func (j *Journal) stampAndWriteDirect(w *bufio.Writer, rec model.DecisionRecord, nowMS int64) {
	rec.SchemaVersion = model.SchemaVersion
	rec.SessionID = j.sessionID
	rec.DecisionID = uuid.NewString()
	rec.MarketTimestampUTC = nowMS
	rec.DecisionTimestampUTC = nowMS
	rec.JournalWriteTimestampUTC = nowMS
	j.writeRecord(w, rec)
}

func (j *Journal) writeRecord(w *bufio.Writer, rec model.DecisionRecord) {
	if rec.JournalWriteTimestampUTC < j.lastWriteTsMS {
		rec.JournalWriteTimestampUTC = j.lastWriteTsMS
	}
	j.lastWriteTsMS = rec.JournalWriteTimestampUTC

	b, err := json.Marshal(rec)
	if err != nil {
		j.log.Error().Err(err).Str("decision_id", rec.DecisionID).Msg("failed to marshal decision record")
		return
	}
	w.Write(b)
	w.WriteByte('\n')
}
