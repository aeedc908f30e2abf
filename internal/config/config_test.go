package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "signalcore.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

const minimalYAML = `
risk:
  account_equity: 50000
`

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, minimalYAML)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Score.AcceptThreshold != 7.5 {
		t.Fatalf("AcceptThreshold = %v, want 7.5 default", cfg.Score.AcceptThreshold)
	}
	if cfg.Journal.Path != "journal.jsonl" {
		t.Fatalf("Journal.Path = %q, want default", cfg.Journal.Path)
	}
	if want := min(runtime.GOMAXPROCS(0), 16); cfg.WorkerPoolSize != want {
		t.Fatalf("WorkerPoolSize = %d, want %d default (GOMAXPROCS capped at 16)", cfg.WorkerPoolSize, want)
	}
	if cfg.Risk.AccountEquity != 50000 {
		t.Fatalf("AccountEquity = %v, want 50000 from file", cfg.Risk.AccountEquity)
	}
}

func TestLoadOverridesFromFile(t *testing.T) {
	path := writeConfig(t, `
score:
  accept_threshold: 9.0
risk:
  account_equity: 100000
worker_pool_size: 4
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Score.AcceptThreshold != 9.0 {
		t.Fatalf("AcceptThreshold = %v, want 9.0", cfg.Score.AcceptThreshold)
	}
	if cfg.WorkerPoolSize != 4 {
		t.Fatalf("WorkerPoolSize = %d, want 4", cfg.WorkerPoolSize)
	}
}

func TestLoadEnvVarOverride(t *testing.T) {
	path := writeConfig(t, minimalYAML)
	t.Setenv("SIGNALCORE_WORKER_POOL_SIZE", "32")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WorkerPoolSize != 32 {
		t.Fatalf("WorkerPoolSize = %d, want 32 from env override", cfg.WorkerPoolSize)
	}
}

func TestLoadReturnsErrorForMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestValidateRejectsMissingAccountEquity(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected Validate to reject a zero account_equity")
	}
}

func TestValidatePassesWithAccountEquitySet(t *testing.T) {
	cfg := Defaults()
	cfg.Risk.AccountEquity = 50000
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejectsZeroWarmupMinTrades(t *testing.T) {
	cfg := Defaults()
	cfg.Risk.AccountEquity = 50000
	cfg.Tape.WarmupMinTrades = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected Validate to reject zero warmup_min_trades")
	}
}

func TestValidateRejectsEmptyJournalPath(t *testing.T) {
	cfg := Defaults()
	cfg.Risk.AccountEquity = 50000
	cfg.Journal.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected Validate to reject an empty journal path")
	}
}
