package strategies

import (
	"time"

	"github.com/quantden/sigtrader/market"
)

// ProfitLock raises the protective floor once unrealized profit passes
// TriggerPct, locking in KeepFraction of the favorable excursion.
type ProfitLock struct {
	TriggerPct   float64 `yaml:"trigger_pct" json:"trigger_pct"`
	KeepFraction float64 `yaml:"keep_fraction" json:"keep_fraction"`
}

// ExitConfig tunes the shared exit rules. No indicator-based discretionary
// exit exists: early discretionary exits truncate winners while stops and
// targets absorb losers, compressing realized reward/risk toward zero.
type ExitConfig struct {
	// BreakevenTriggerPct moves the floor to the entry price once
	// unrealized profit has exceeded this fraction of entry.
	BreakevenTriggerPct float64 `yaml:"breakeven_trigger_pct" json:"breakeven_trigger_pct"`

	// ProfitLocks tighten the floor further as profit grows.
	ProfitLocks []ProfitLock `yaml:"profit_locks,omitempty" json:"profit_locks,omitempty"`
}

// Position is an acted-on Signal plus its run-time trailing state. It is
// owned exclusively by the backtest runner while open; nothing else
// mutates it.
type Position struct {
	Signal
	EntryTime time.Time

	// Favorable excursion since entry: highest close for longs, lowest
	// for shorts. Monotonic.
	HighWater float64
	LowWater  float64

	// Floor is the effective protective level. For longs it only ever
	// rises, for shorts it only ever falls — trailing state may move only
	// in the direction that reduces risk.
	Floor       float64
	floorReason string
}

// Open creates a Position from an accepted signal.
func Open(sig Signal, entryTime time.Time) *Position {
	return &Position{
		Signal:      sig,
		EntryTime:   entryTime,
		HighWater:   sig.Entry,
		LowWater:    sig.Entry,
		Floor:       sig.StopLoss,
		floorReason: ExitStopLoss,
	}
}

// Observe updates the favorable excursion and ratchets the floor for the
// given close price. Called once per snapshot while the position is open.
func (p *Position) Observe(close float64, exits ExitConfig) {
	if p.Direction == market.Long {
		if close > p.HighWater {
			p.HighWater = close
		}
		run := p.HighWater - p.Entry
		profitPct := run / p.Entry

		if exits.BreakevenTriggerPct > 0 && profitPct >= exits.BreakevenTriggerPct {
			p.raiseFloor(p.Entry, ExitBreakeven)
		}
		for _, lock := range exits.ProfitLocks {
			if profitPct >= lock.TriggerPct {
				p.raiseFloor(p.Entry+run*lock.KeepFraction, ExitTrailing)
			}
		}
		return
	}

	if close < p.LowWater {
		p.LowWater = close
	}
	run := p.Entry - p.LowWater
	profitPct := run / p.Entry

	if exits.BreakevenTriggerPct > 0 && profitPct >= exits.BreakevenTriggerPct {
		p.lowerFloor(p.Entry, ExitBreakeven)
	}
	for _, lock := range exits.ProfitLocks {
		if profitPct >= lock.TriggerPct {
			p.lowerFloor(p.Entry-run*lock.KeepFraction, ExitTrailing)
		}
	}
}

func (p *Position) raiseFloor(level float64, reason string) {
	if level > p.Floor {
		p.Floor = level
		p.floorReason = reason
	}
}

func (p *Position) lowerFloor(level float64, reason string) {
	if level < p.Floor {
		p.Floor = level
		p.floorReason = reason
	}
}

// checkExit applies the shared exit rules against the snapshot close, in
// order: stop-loss, take-profit, then the trailed floor.
func checkExit(p *Position, close float64) (bool, string) {
	if p.Direction == market.Long {
		if close <= p.StopLoss {
			return true, ExitStopLoss
		}
		if close >= p.TakeProfit {
			return true, ExitTakeProfit
		}
		if p.Floor > p.StopLoss && close <= p.Floor {
			return true, p.floorReason
		}
		return false, ""
	}

	if close >= p.StopLoss {
		return true, ExitStopLoss
	}
	if close <= p.TakeProfit {
		return true, ExitTakeProfit
	}
	if p.Floor < p.StopLoss && close >= p.Floor {
		return true, p.floorReason
	}
	return false, ""
}
