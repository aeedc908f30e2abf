// Package config loads signalcore's configuration from a YAML file with
// SIGNALCORE_-prefixed environment variable overrides, following the
// 0xtitan6-polymarket-mm internal/config pattern: a typed struct with
// mapstructure tags, loaded via viper.New(), validated before use.
package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// ScoreConfig carries §6 score.* keys.
type ScoreConfig struct {
	AcceptThreshold float64                `mapstructure:"accept_threshold"`
	TimeWindows     []ScoreTimeWindow      `mapstructure:"time_windows"`
}

// ScoreTimeWindow is one entry of score.time_windows.
type ScoreTimeWindow struct {
	StartET   string  `mapstructure:"start_et"`
	EndET     string  `mapstructure:"end_et"`
	Threshold float64 `mapstructure:"threshold"`
}

// BookConfig carries §6 book.* keys.
type BookConfig struct {
	DepthStaleMS int64   `mapstructure:"depth_stale_ms"`
	MaxSpreadAbs float64 `mapstructure:"max_spread_abs"`
}

// TapeConfig carries §6 tape.* keys.
type TapeConfig struct {
	WarmupMinTrades int   `mapstructure:"warmup_min_trades"`
	WarmupWindowMS  int64 `mapstructure:"warmup_window_ms"`
	StaleMS         int64 `mapstructure:"stale_ms"`
}

// MetricsConfig carries §6 metrics.* keys.
type MetricsConfig struct {
	WallPersistenceMS         int64   `mapstructure:"wall_persistence_ms"`
	QueueImbalanceBuy         float64 `mapstructure:"queue_imbalance_buy"`
	QueueImbalanceSell        float64 `mapstructure:"queue_imbalance_sell"`
	TapeAccelerationThreshold float64 `mapstructure:"tape_acceleration_threshold"`
}

// ScarcityConfig carries §6 scarcity.* keys.
type ScarcityConfig struct {
	SymbolCooldownMS int64 `mapstructure:"symbol_cooldown_ms"`
	MaxAlertsPerHour int   `mapstructure:"max_alerts_per_hour"`
	MaxAlertsPerDay  int   `mapstructure:"max_alerts_per_day"`
}

// RiskConfig carries §6 risk.* keys.
type RiskConfig struct {
	AccountEquity float64 `mapstructure:"account_equity"`
	PerTradePct   float64 `mapstructure:"per_trade_pct"`
}

// JournalConfig carries §6 journal.* keys.
type JournalConfig struct {
	Path               string `mapstructure:"path"`
	QueueCapacity      int    `mapstructure:"queue_capacity"`
	EmitGateRejections bool   `mapstructure:"emit_gate_rejections"`
}

// OperatingWindowConfig carries §6 operating_window.* keys.
type OperatingWindowConfig struct {
	StartET string `mapstructure:"start_et"`
	EndET   string `mapstructure:"end_et"`
}

// LoggingConfig tunes zerolog output (ambient stack, not spec-named).
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Config is the top-level configuration, mapping directly to the YAML
// file structure (§6).
type Config struct {
	Score           ScoreConfig           `mapstructure:"score"`
	Book            BookConfig            `mapstructure:"book"`
	Tape            TapeConfig            `mapstructure:"tape"`
	Metrics         MetricsConfig         `mapstructure:"metrics"`
	Scarcity        ScarcityConfig        `mapstructure:"scarcity"`
	Risk            RiskConfig            `mapstructure:"risk"`
	Journal         JournalConfig         `mapstructure:"journal"`
	OperatingWindow OperatingWindowConfig `mapstructure:"operating_window"`
	Logging         LoggingConfig         `mapstructure:"logging"`
	WorkerPoolSize  int                   `mapstructure:"worker_pool_size"`
}

// Defaults matches the spec's documented default values (§6) exactly.
func Defaults() Config {
	return Config{
		Score: ScoreConfig{
			AcceptThreshold: 7.5,
			TimeWindows: []ScoreTimeWindow{
				{StartET: "09:30", EndET: "11:30", Threshold: 7.0},
				{StartET: "12:00", EndET: "14:00", Threshold: 8.0},
			},
		},
		Book: BookConfig{DepthStaleMS: 2000, MaxSpreadAbs: 0.10},
		Tape: TapeConfig{WarmupMinTrades: 5, WarmupWindowMS: 10000, StaleMS: 5000},
		Metrics: MetricsConfig{
			WallPersistenceMS:         1000,
			QueueImbalanceBuy:         2.8,
			QueueImbalanceSell:        0.35,
			TapeAccelerationThreshold: 2.0,
		},
		Scarcity: ScarcityConfig{SymbolCooldownMS: 600000, MaxAlertsPerHour: 3, MaxAlertsPerDay: 36},
		Risk:     RiskConfig{PerTradePct: 0.0025},
		Journal: JournalConfig{
			Path:               "journal.jsonl",
			QueueCapacity:      65536,
			EmitGateRejections: true,
		},
		OperatingWindow: OperatingWindowConfig{StartET: "09:25", EndET: "15:45"},
		Logging:         LoggingConfig{Level: "info", Format: "console"},
		WorkerPoolSize:  min(runtime.GOMAXPROCS(0), 16),
	}
}

// Load reads config from a YAML file with SIGNALCORE_-prefixed env var
// overrides, following the 0xtitan6-polymarket-mm Load(path) pattern.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("SIGNALCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := Defaults()
	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("score.accept_threshold", cfg.Score.AcceptThreshold)
	v.SetDefault("book.depth_stale_ms", cfg.Book.DepthStaleMS)
	v.SetDefault("book.max_spread_abs", cfg.Book.MaxSpreadAbs)
	v.SetDefault("tape.warmup_min_trades", cfg.Tape.WarmupMinTrades)
	v.SetDefault("tape.warmup_window_ms", cfg.Tape.WarmupWindowMS)
	v.SetDefault("tape.stale_ms", cfg.Tape.StaleMS)
	v.SetDefault("metrics.wall_persistence_ms", cfg.Metrics.WallPersistenceMS)
	v.SetDefault("metrics.queue_imbalance_buy", cfg.Metrics.QueueImbalanceBuy)
	v.SetDefault("metrics.queue_imbalance_sell", cfg.Metrics.QueueImbalanceSell)
	v.SetDefault("metrics.tape_acceleration_threshold", cfg.Metrics.TapeAccelerationThreshold)
	v.SetDefault("scarcity.symbol_cooldown_ms", cfg.Scarcity.SymbolCooldownMS)
	v.SetDefault("scarcity.max_alerts_per_hour", cfg.Scarcity.MaxAlertsPerHour)
	v.SetDefault("scarcity.max_alerts_per_day", cfg.Scarcity.MaxAlertsPerDay)
	v.SetDefault("risk.per_trade_pct", cfg.Risk.PerTradePct)
	v.SetDefault("journal.path", cfg.Journal.Path)
	v.SetDefault("journal.queue_capacity", cfg.Journal.QueueCapacity)
	v.SetDefault("journal.emit_gate_rejections", cfg.Journal.EmitGateRejections)
	v.SetDefault("operating_window.start_et", cfg.OperatingWindow.StartET)
	v.SetDefault("operating_window.end_et", cfg.OperatingWindow.EndET)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("worker_pool_size", cfg.WorkerPoolSize)
}

// Validate enforces required ranges (§6).
func (c *Config) Validate() error {
	if c.Score.AcceptThreshold <= 0 {
		return fmt.Errorf("score.accept_threshold must be > 0")
	}
	if c.Book.MaxSpreadAbs <= 0 {
		return fmt.Errorf("book.max_spread_abs must be > 0")
	}
	if c.Book.DepthStaleMS <= 0 {
		return fmt.Errorf("book.depth_stale_ms must be > 0")
	}
	if c.Tape.WarmupMinTrades <= 0 {
		return fmt.Errorf("tape.warmup_min_trades must be > 0")
	}
	if c.Scarcity.SymbolCooldownMS <= 0 {
		return fmt.Errorf("scarcity.symbol_cooldown_ms must be > 0")
	}
	if c.Scarcity.MaxAlertsPerHour <= 0 {
		return fmt.Errorf("scarcity.max_alerts_per_hour must be > 0")
	}
	if c.Scarcity.MaxAlertsPerDay <= 0 {
		return fmt.Errorf("scarcity.max_alerts_per_day must be > 0")
	}
	if c.Risk.AccountEquity <= 0 {
		return fmt.Errorf("risk.account_equity must be > 0")
	}
	if c.Risk.PerTradePct <= 0 {
		return fmt.Errorf("risk.per_trade_pct must be > 0")
	}
	if c.Journal.Path == "" {
		return fmt.Errorf("journal.path is required")
	}
	if c.Journal.QueueCapacity <= 0 {
		return fmt.Errorf("journal.queue_capacity must be > 0")
	}
	if c.OperatingWindow.StartET == "" || c.OperatingWindow.EndET == "" {
		return fmt.Errorf("operating_window.start_et and end_et are required")
	}
	return nil
}
