// Package telemetry exposes Prometheus counters/gauges for operational
// observability (never execution — §4.10). Grounded on chidi150c-coinbase's
// metrics.go layout, but registered via an explicit constructor instead of
// package-level init(), so tests can use isolated registries.
package telemetry

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds every signalcore Prometheus series.
type Metrics struct {
	SignalsAccepted      *prometheus.CounterVec // labels: symbol, direction
	SignalsRejected      *prometheus.CounterVec // labels: reason
	JournalDropped       prometheus.Counter
	HeartbeatsEmitted    prometheus.Counter
	JournalQueueDepth    prometheus.Gauge
	ActiveBookCount      prometheus.Gauge
}

// New constructs and registers all series on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SignalsAccepted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalcore_signals_accepted_total",
				Help: "Accepted signals by symbol and direction",
			},
			[]string{"symbol", "direction"},
		),
		SignalsRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalcore_signals_rejected_total",
				Help: "Rejected candidates by reason",
			},
			[]string{"reason"},
		),
		JournalDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "signalcore_journal_dropped_total",
				Help: "Decision records dropped due to a full journal queue",
			},
		),
		HeartbeatsEmitted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "signalcore_heartbeats_emitted_total",
				Help: "Heartbeat records emitted",
			},
		),
		JournalQueueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "signalcore_journal_queue_depth",
				Help: "Current depth of the journal's enqueue channel",
			},
		),
		ActiveBookCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "signalcore_active_book_count",
				Help: "Number of symbols with an active order book worker",
			},
		),
	}

	reg.MustRegister(
		m.SignalsAccepted,
		m.SignalsRejected,
		m.JournalDropped,
		m.HeartbeatsEmitted,
		m.JournalQueueDepth,
		m.ActiveBookCount,
	)
	return m
}
