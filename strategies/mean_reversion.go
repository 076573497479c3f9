package strategies

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/quantden/sigtrader/market"
	"github.com/quantden/sigtrader/risk"
)

// MeanReversionConfig holds the admission thresholds of the mean-reversion
// variant. Zero values are filled in by Defaults.
type MeanReversionConfig struct {
	// ExtremeLowPos / ExtremeHighPos bound the extreme zones of the
	// normalized Bollinger position. Mid-band "bounce" entries are
	// excluded on purpose: their target distances run far smaller than
	// their stop distances, which is structurally negative expectancy
	// even at a high win rate.
	ExtremeLowPos  float64 `yaml:"extreme_low_pos" json:"extreme_low_pos"`
	ExtremeHighPos float64 `yaml:"extreme_high_pos" json:"extreme_high_pos"`

	// RSILow / RSIHigh must confirm the extreme reading.
	RSILow  float64 `yaml:"rsi_low" json:"rsi_low"`
	RSIHigh float64 `yaml:"rsi_high" json:"rsi_high"`

	// BandClampPct keeps the target inside the opposite band: long
	// targets are capped at upper*(1-BandClampPct), short targets floored
	// at lower*(1+BandClampPct).
	BandClampPct float64 `yaml:"band_clamp_pct" json:"band_clamp_pct"`
}

// Defaults returns cfg with unset fields replaced by the standard
// thresholds.
func (c MeanReversionConfig) Defaults() MeanReversionConfig {
	if c.ExtremeLowPos == 0 {
		c.ExtremeLowPos = 0.15
	}
	if c.ExtremeHighPos == 0 {
		c.ExtremeHighPos = 0.85
	}
	if c.RSILow == 0 {
		c.RSILow = 30
	}
	if c.RSIHigh == 0 {
		c.RSIHigh = 70
	}
	if c.BandClampPct == 0 {
		c.BandClampPct = 0.02
	}
	return c
}

// Validate rejects threshold combinations that can never admit an entry.
func (c MeanReversionConfig) Validate() error {
	if c.ExtremeLowPos <= 0 || c.ExtremeLowPos >= 1 {
		return fmt.Errorf("mean-reversion: extreme_low_pos must be in (0,1), got %v", c.ExtremeLowPos)
	}
	if c.ExtremeHighPos <= c.ExtremeLowPos || c.ExtremeHighPos >= 1 {
		return fmt.Errorf("mean-reversion: extreme_high_pos must be in (extreme_low_pos,1), got %v", c.ExtremeHighPos)
	}
	if c.RSILow <= 0 || c.RSIHigh >= 100 || c.RSILow >= c.RSIHigh {
		return fmt.Errorf("mean-reversion: rsi thresholds invalid (%v, %v)", c.RSILow, c.RSIHigh)
	}
	return nil
}

// MeanReversion admits only extreme readings: oversold Bollinger position
// confirmed by oversold RSI for longs, and the mirror for shorts. The
// natural technical target offered to the risk rules is the middle band.
type MeanReversion struct {
	cfg   MeanReversionConfig
	rp    risk.Params
	exits ExitConfig
	log   *zap.Logger
}

// NewMeanReversion constructs the variant with defaults applied. log may
// be nil.
func NewMeanReversion(cfg MeanReversionConfig, rp risk.Params, exits ExitConfig, log *zap.Logger) *MeanReversion {
	if log == nil {
		log = zap.NewNop()
	}
	return &MeanReversion{cfg: cfg.Defaults(), rp: rp, exits: exits, log: log}
}

func (m *MeanReversion) Name() string { return "mean-reversion" }

func (m *MeanReversion) EvaluateEntry(snap market.Snapshot) *Signal {
	pos, ok1 := snap.Indicator(market.IndBollPosition)
	rsi, ok2 := snap.Indicator(market.IndRSI)
	atr, ok3 := snap.Indicator(market.IndATR)
	middle, ok4 := snap.Indicator(market.IndBollMiddle)
	if !(ok1 && ok2 && ok3 && ok4) {
		return nil
	}

	// Extreme oversold bounce (long).
	if pos < m.cfg.ExtremeLowPos && rsi < m.cfg.RSILow {
		target := middle
		if upper, ok := snap.Indicator(market.IndBollUpper); ok {
			if clamp := upper * (1 - m.cfg.BandClampPct); target > clamp {
				target = clamp
			}
		}
		reason := fmt.Sprintf("oversold bounce: rsi=%.1f boll_pos=%.2f", rsi, pos)
		sig := buildSignal(snap, market.Long, atr, target, m.rp, m.Name(), reason)
		if sig == nil {
			m.logRejected(snap, market.Long)
		}
		return sig
	}

	// Extreme overbought fade (short).
	if pos > m.cfg.ExtremeHighPos && rsi > m.cfg.RSIHigh {
		target := middle
		if lower, ok := snap.Indicator(market.IndBollLower); ok {
			if clamp := lower * (1 + m.cfg.BandClampPct); target < clamp {
				target = clamp
			}
		}
		reason := fmt.Sprintf("overbought fade: rsi=%.1f boll_pos=%.2f", rsi, pos)
		sig := buildSignal(snap, market.Short, atr, target, m.rp, m.Name(), reason)
		if sig == nil {
			m.logRejected(snap, market.Short)
		}
		return sig
	}

	return nil
}

// logRejected records a discarded opportunity: the admission thresholds
// passed but the candidate failed the reward/risk acceptance check.
func (m *MeanReversion) logRejected(snap market.Snapshot, dir market.Direction) {
	m.log.Debug("entry candidate rejected by reward/risk check",
		zap.String("strategy", m.Name()),
		zap.Stringer("direction", dir),
		zap.Time("time", snap.Time),
		zap.Float64("price", snap.Close),
	)
}

func (m *MeanReversion) EvaluateExit(pos *Position, snap market.Snapshot) (bool, string) {
	pos.Observe(snap.Close, m.exits)
	return checkExit(pos, snap.Close)
}
