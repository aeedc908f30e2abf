// Package blueprint turns an accepted candidate into a human-executable
// trade blueprint (§4.6): entry/stop/target/size, gated by VWAP and
// historical-spread checks.
package blueprint

import (
	"github.com/shopspring/decimal"
	"github.com/signalcore/signalcore/internal/model"
	"github.com/signalcore/signalcore/internal/reason"
)

// Config carries the account-risk parameters used for position sizing
// (§6 risk.*).
type Config struct {
	AccountEquity decimal.Decimal
	PerTradePct   decimal.Decimal
}

// DefaultConfig matches the spec's documented default risk fraction (§6).
func DefaultConfig(accountEquity decimal.Decimal) Config {
	return Config{
		AccountEquity: accountEquity,
		PerTradePct:   decimal.NewFromFloat(0.0025),
	}
}

// Generate builds a Blueprint from an accepted snapshot (§4.6). vwap and
// historicalP95Spread are optional — haveVWAP/haveHistoricalSpread=false
// means "no data," in which case the corresponding gate does not apply.
func Generate(
	snap model.MetricSnapshot,
	direction model.Direction,
	score float64,
	cfg Config,
	vwap decimal.Decimal,
	haveVWAP bool,
	historicalP95Spread decimal.Decimal,
	haveHistoricalSpread bool,
) (model.Blueprint, reason.Reason) {
	var entry, stop, target decimal.Decimal
	four := decimal.NewFromInt(4)
	eight := decimal.NewFromInt(8)

	if direction == model.Buy {
		entry = snap.BestAsk
		stop = entry.Sub(snap.Spread.Mul(four))
		target = entry.Add(snap.Spread.Mul(eight))
	} else {
		entry = snap.BestBid
		stop = entry.Add(snap.Spread.Mul(four))
		target = entry.Sub(snap.Spread.Mul(eight))
	}

	if haveVWAP {
		if direction == model.Buy && entry.LessThanOrEqual(vwap) {
			return model.Blueprint{}, reason.NotAboveVwap
		}
		if direction == model.Sell && entry.GreaterThanOrEqual(vwap) {
			return model.Blueprint{}, reason.NotAboveVwap
		}
	}

	if haveHistoricalSpread && snap.Spread.GreaterThan(historicalP95Spread) {
		return model.Blueprint{}, reason.SpreadExceedsHistorical
	}

	var riskPerShare decimal.Decimal
	if direction == model.Buy {
		riskPerShare = entry.Sub(stop)
	} else {
		riskPerShare = stop.Sub(entry)
	}

	positionSize := int64(0)
	if riskPerShare.IsPositive() {
		maxRisk := cfg.AccountEquity.Mul(cfg.PerTradePct)
		positionSize = maxRisk.Div(riskPerShare).IntPart()
		if positionSize < 0 {
			positionSize = 0
		}
	}

	if positionSize <= 0 {
		return model.Blueprint{}, reason.SizeTooSmall
	}

	return model.Blueprint{
		Symbol:       snap.Symbol,
		Direction:    direction,
		Entry:        entry,
		Stop:         stop,
		Target:       target,
		Score:        score,
		PositionSize: positionSize,
		TsMS:         snap.TsMS,
	}, reason.None
}
