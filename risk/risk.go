// Package risk provides the pure stop/target sizing and reward-to-risk
// acceptance rules shared by every strategy variant. Every function is a
// pure function of its inputs; there is no hidden state.
package risk

import (
	"fmt"

	"github.com/quantden/sigtrader/market"
)

// Params controls stop sizing and the reward/risk floor.
type Params struct {
	// MinRewardRisk is the minimum accepted reward/risk for any signal.
	// Must be > 1.0.
	MinRewardRisk float64 `yaml:"min_reward_risk" json:"min_reward_risk"`

	// AcceptThreshold is the final go/no-go check. Normally set at or
	// above MinRewardRisk; a strategy may tune it slightly below to admit
	// targets that round just under the floor.
	AcceptThreshold float64 `yaml:"accept_threshold" json:"accept_threshold"`

	// ATRMultiplier scales ATR into a volatility-based stop distance.
	ATRMultiplier float64 `yaml:"atr_multiplier" json:"atr_multiplier"`

	// PriceCapPct caps the stop distance at a fraction of entry price, so
	// a single extreme ATR reading cannot produce an oversized stop.
	PriceCapPct float64 `yaml:"price_cap_pct" json:"price_cap_pct"`
}

// DefaultParams returns the standard risk parameter set.
func DefaultParams() Params {
	return Params{
		MinRewardRisk:   1.5,
		AcceptThreshold: 1.5,
		ATRMultiplier:   1.5,
		PriceCapPct:     0.03,
	}
}

// Validate rejects unusable parameters. Invalid configuration is fatal at
// startup; it is never silently clamped.
func (p Params) Validate() error {
	if p.MinRewardRisk <= 1.0 {
		return fmt.Errorf("risk: min_reward_risk must be > 1.0, got %v", p.MinRewardRisk)
	}
	if p.AcceptThreshold <= 0 {
		return fmt.Errorf("risk: accept_threshold must be positive, got %v", p.AcceptThreshold)
	}
	if p.ATRMultiplier <= 0 {
		return fmt.Errorf("risk: atr_multiplier must be positive, got %v", p.ATRMultiplier)
	}
	if p.PriceCapPct <= 0 {
		return fmt.Errorf("risk: price_cap_pct must be positive, got %v", p.PriceCapPct)
	}
	return nil
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// StopDistance returns the protective stop distance for an entry at the
// given price: the tighter of the volatility-based distance (atr *
// multiplier) and the percentage cap (entry * cap). Always positive for
// valid inputs.
func StopDistance(entry, atr float64, p Params) float64 {
	volStop := atr * p.ATRMultiplier
	capStop := entry * p.PriceCapPct
	if volStop < capStop {
		return volStop
	}
	return capStop
}

// Target returns the take-profit level. The minimum-acceptable target is
// stopDistance * MinRewardRisk beyond entry in the favorable direction. If
// the strategy's natural technical target (bandTarget) lies beyond that
// minimum, it dominates; otherwise the minimum is used, which guarantees
// the realized reward/risk is never below MinRewardRisk by construction.
func Target(dir market.Direction, entry, stopDistance, bandTarget float64, p Params) float64 {
	switch dir {
	case market.Long:
		min := entry + stopDistance*p.MinRewardRisk
		if bandTarget > min {
			return bandTarget
		}
		return min
	default:
		min := entry - stopDistance*p.MinRewardRisk
		if bandTarget > 0 && bandTarget < min {
			return bandTarget
		}
		return min
	}
}

// RR returns the reward-to-risk ratio of a candidate entry/stop/target
// triple, or 0 if the risk distance is degenerate.
func RR(entry, stop, takeProfit float64) float64 {
	risk := abs(entry - stop)
	reward := abs(takeProfit - entry)
	if risk == 0 {
		return 0
	}
	return reward / risk
}

// Accept recomputes the realized reward/risk from the candidate levels and
// rejects it when it falls below AcceptThreshold. A rejected candidate must
// be discarded by the caller — no trade is taken that fails this check,
// regardless of how well the entry condition otherwise scored.
func Accept(entry, stop, takeProfit, stopDistance float64, p Params) bool {
	if stopDistance <= 0 {
		return false
	}
	rr := abs(takeProfit-entry) / stopDistance
	return rr >= p.AcceptThreshold
}
