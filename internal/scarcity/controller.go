// Package scarcity enforces the three accepted-signal rate limits (§4.7):
// per-symbol cooldown, hourly alert cap, and daily cap. This is the one
// piece of process-wide state mutated under a single critical section
// (§5) — generalized from the teacher's internal/state.RingBuffer
// (sync.RWMutex around a fixed-capacity structure) to a sliding-window
// timestamp queue.
package scarcity

import (
	"sync"
	"time"

	"github.com/signalcore/signalcore/internal/reason"
	"github.com/signalcore/signalcore/internal/symbol"
)

// Config carries the scarcity thresholds (§6 scarcity.*).
type Config struct {
	SymbolCooldownMS int64
	MaxAlertsPerHour int
	MaxAlertsPerDay  int
}

// DefaultConfig matches the spec's documented defaults (§6).
func DefaultConfig() Config {
	return Config{
		SymbolCooldownMS: 600000,
		MaxAlertsPerHour: 3,
		MaxAlertsPerDay:  36,
	}
}

// Controller is process-wide state guarded by a single mutex. Operations
// are O(1) amortized via sliding-window trim on each call (§5).
type Controller struct {
	cfg Config

	mu             sync.Mutex
	lastAcceptedMS map[symbol.Symbol]int64
	hourly         []int64 // accepted timestamps within the trailing hour, ascending
	dailyCount     int
	dailyResetDay  string
}

// New constructs a Controller.
func New(cfg Config) *Controller {
	return &Controller{
		cfg:            cfg,
		lastAcceptedMS: make(map[symbol.Symbol]int64),
	}
}

// TryAccept checks all three caps in order (§4.7) and, on success, records
// the acceptance timestamp atomically with the check — callers must not
// call TryAccept for a candidate they intend to discard.
func (c *Controller) TryAccept(sym symbol.Symbol, nowMS int64) (bool, reason.Reason) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if last, ok := c.lastAcceptedMS[sym]; ok && nowMS-last < c.cfg.SymbolCooldownMS {
		return false, reason.CooldownSymbol
	}

	c.trimHourly(nowMS)
	if len(c.hourly) >= c.cfg.MaxAlertsPerHour {
		return false, reason.RateLimitHour
	}

	c.maybeResetDaily(nowMS)
	if c.dailyCount >= c.cfg.MaxAlertsPerDay {
		return false, reason.DailyCap
	}

	c.lastAcceptedMS[sym] = nowMS
	c.hourly = append(c.hourly, nowMS)
	c.dailyCount++
	return true, reason.None
}

func (c *Controller) trimHourly(nowMS int64) {
	cut := 0
	for cut < len(c.hourly) && nowMS-c.hourly[cut] >= 3600000 {
		cut++
	}
	if cut > 0 {
		c.hourly = append(c.hourly[:0], c.hourly[cut:]...)
	}
}

func (c *Controller) maybeResetDaily(nowMS int64) {
	day := time.UnixMilli(nowMS).UTC().Format("2006-01-02")
	if day != c.dailyResetDay {
		c.dailyResetDay = day
		c.dailyCount = 0
	}
}
