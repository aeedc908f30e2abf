// Command signalcore runs the real-time depth/tape signal pipeline (§1):
// loads configuration, wires the journal, scarcity controller, telemetry,
// and the sharded coordinator, then drives them from a feed source until
// SIGINT/SIGTERM — the same construction order and shutdown idiom as the
// teacher's cmd/orderflow/main.go, generalized from one hardwired Binance
// ingest pair to a pluggable feed.Source.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/signalcore/signalcore/internal/clock"
	"github.com/signalcore/signalcore/internal/config"
	"github.com/signalcore/signalcore/internal/coordinator"
	"github.com/signalcore/signalcore/internal/feed"
	"github.com/signalcore/signalcore/internal/journal"
	"github.com/signalcore/signalcore/internal/model"
	"github.com/signalcore/signalcore/internal/scarcity"
	"github.com/signalcore/signalcore/internal/telemetry"
	"net/http"
)

// lazyHeartbeat breaks the construction cycle between journal (which wants
// a HeartbeatSource at New time) and the coordinator (which only exists
// after the journal does): the journal holds this indirection and it is
// pointed at the real coordinator once constructed.
type lazyHeartbeat struct {
	coord *coordinator.Coordinator
}

func (l *lazyHeartbeat) SystemMetrics(nowMS int64) model.SystemMetrics {
	if l.coord == nil {
		return model.SystemMetrics{}
	}
	return l.coord.SystemMetrics(nowMS)
}

func main() {
	configPath := flag.String("config", "signalcore.yaml", "path to YAML config file")
	feedPath := flag.String("feed", "", "path to a JSONL feed fixture; empty reads stdin")
	metricsAddr := flag.String("metrics-addr", ":9090", "address to serve /metrics and the optional /ws signal sink on")
	enableSink := flag.Bool("signal-sink", false, "enable the outbound WebSocket signal broadcaster on /ws")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()
	if cfg.Logging.Format == "json" {
		logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger = logger.Level(level)

	clk := clock.SystemClock{}

	registry := prometheus.NewRegistry()
	tel := telemetry.New(registry)

	hb := &lazyHeartbeat{}
	jcfg := journal.DefaultConfig(cfg.Journal.Path)
	jcfg.QueueCapacity = cfg.Journal.QueueCapacity
	jcfg.EmitGateRejections = cfg.Journal.EmitGateRejections
	j := journal.New(jcfg, clk, logger, hb, tel)

	scarcityCtl := scarcity.New(scarcity.Config{
		SymbolCooldownMS: cfg.Scarcity.SymbolCooldownMS,
		MaxAlertsPerHour: cfg.Scarcity.MaxAlertsPerHour,
		MaxAlertsPerDay:  cfg.Scarcity.MaxAlertsPerDay,
	})

	var sink coordinator.SignalSink
	var broadcaster *feed.SignalBroadcaster
	if *enableSink {
		broadcaster = feed.NewSignalBroadcaster(logger)
		sink = broadcaster
		go broadcaster.Run()
	}

	poolSize := cfg.WorkerPoolSize
	coord := coordinator.New(cfg, clk, logger, j, scarcityCtl, tel, sink, poolSize)
	hb.coord = coord

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	if broadcaster != nil {
		mux.Handle("/ws", broadcaster.Handler())
	}
	go func() {
		if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
			logger.Error().Err(err).Msg("metrics server exited")
		}
	}()

	var src feed.Source
	if *feedPath != "" {
		f, err := os.Open(*feedPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open feed file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		src = feed.NewReplaySource(f)
	} else {
		src = feed.NewReplaySource(os.Stdin)
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info().Msg("shutdown signal received")
		cancel()
	}()

	logger.Info().Int("worker_pool_size", poolSize).Msg("signalcore starting")
	coord.Run(ctx, src)
	coord.Shutdown()
	logger.Info().Msg("signalcore stopped")
}
