// Command feedreplay drives the coordinator from a JSONL fixture file and
// exits once the fixture is exhausted — used to validate a scenario (§8)
// without a live feed, writing the same journal a live run would produce.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/signalcore/signalcore/internal/clock"
	"github.com/signalcore/signalcore/internal/config"
	"github.com/signalcore/signalcore/internal/coordinator"
	"github.com/signalcore/signalcore/internal/feed"
	"github.com/signalcore/signalcore/internal/journal"
	"github.com/signalcore/signalcore/internal/model"
	"github.com/signalcore/signalcore/internal/scarcity"
	"github.com/signalcore/signalcore/internal/telemetry"
)

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
	fixturePath := flag.String("fixture", "", "path to a JSONL feed fixture (required)")
	journalOut := flag.String("journal-out", "replay-journal.jsonl", "path to write the resulting journal")
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "feedreplay: -fixture is required")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	cfg.Journal.Path = *journalOut
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()
	clk := clock.SystemClock{}
	tel := telemetry.New(prometheus.NewRegistry())

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

	coord := coordinator.New(cfg, clk, logger, j, scarcityCtl, tel, nil, cfg.WorkerPoolSize)
	hb.coord = coord

	f, err := os.Open(*fixturePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open fixture: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	src := feed.NewReplaySource(f)

	logger.Info().Str("fixture", *fixturePath).Msg("replaying fixture")
	coord.Run(context.Background(), src)
	coord.Shutdown()
	logger.Info().Str("journal", *journalOut).Msg("replay complete")
}
