package strategies

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/quantden/sigtrader/market"
	"github.com/quantden/sigtrader/risk"
)

// MomentumConfig holds the admission thresholds of the momentum variant.
type MomentumConfig struct {
	// MinADX is the minimum trend strength admitted.
	MinADX float64 `yaml:"min_adx" json:"min_adx"`

	// MinDISpread requires the directional-index pair to confirm the
	// trend with margin: DI+ - DI- >= spread for longs, mirrored for
	// shorts. Cuts false breakouts where DI+ and DI- sit on top of each
	// other.
	MinDISpread float64 `yaml:"min_di_spread" json:"min_di_spread"`

	// MinStopDistancePct rejects entries whose derived stop lands within
	// this fraction of price; a paper-thin stop gets swept by noise.
	MinStopDistancePct float64 `yaml:"min_stop_distance_pct" json:"min_stop_distance_pct"`
}

// Defaults returns cfg with unset fields replaced by the standard
// thresholds.
func (c MomentumConfig) Defaults() MomentumConfig {
	if c.MinADX == 0 {
		c.MinADX = 20
	}
	if c.MinDISpread == 0 {
		c.MinDISpread = 5
	}
	if c.MinStopDistancePct == 0 {
		c.MinStopDistancePct = 0.003
	}
	return c
}

// Validate rejects unusable thresholds.
func (c MomentumConfig) Validate() error {
	if c.MinADX < 0 {
		return fmt.Errorf("momentum: min_adx must be >= 0, got %v", c.MinADX)
	}
	if c.MinDISpread < 0 {
		return fmt.Errorf("momentum: min_di_spread must be >= 0, got %v", c.MinDISpread)
	}
	if c.MinStopDistancePct <= 0 {
		return fmt.Errorf("momentum: min_stop_distance_pct must be positive, got %v", c.MinStopDistancePct)
	}
	return nil
}

// Momentum admits entries only in a confirmed trend: ADX above the
// configured minimum, the DI pair agreeing with margin, price on the
// favorable side of the fast EMA, and both Supertrend bands pointing the
// same way. The stop candidate is whichever of the ATR distance and the
// Supertrend band sits nearer to price, capped by the shared tighter-of-two
// rule.
type Momentum struct {
	cfg   MomentumConfig
	rp    risk.Params
	exits ExitConfig
	log   *zap.Logger
}

// NewMomentum constructs the variant with defaults applied. log may be
// nil.
func NewMomentum(cfg MomentumConfig, rp risk.Params, exits ExitConfig, log *zap.Logger) *Momentum {
	if log == nil {
		log = zap.NewNop()
	}
	return &Momentum{cfg: cfg.Defaults(), rp: rp, exits: exits, log: log}
}

func (m *Momentum) Name() string { return "momentum" }

func (m *Momentum) EvaluateEntry(snap market.Snapshot) *Signal {
	adx, ok1 := snap.Indicator(market.IndADX)
	plusDI, ok2 := snap.Indicator(market.IndPlusDI)
	minusDI, ok3 := snap.Indicator(market.IndMinusDI)
	atr, ok4 := snap.Indicator(market.IndATR)
	stDir, ok5 := snap.Indicator(market.IndSTDir)
	if !(ok1 && ok2 && ok3 && ok4 && ok5) {
		return nil
	}

	if adx < m.cfg.MinADX {
		return nil
	}

	// Optional confirmations: checked only when the producer supplies
	// them, so a leaner feed still trades on ADX/DI/Supertrend alone.
	emaFast, hasEMAFast := snap.Indicator(market.IndEMAFast)
	emaSlow, hasEMASlow := snap.Indicator(market.IndEMASlow)
	stSlowDir, hasSTSlow := snap.Indicator(market.IndSTSlowDir)

	price := snap.Close

	if plusDI-minusDI >= m.cfg.MinDISpread && stDir > 0 {
		if hasSTSlow && stSlowDir <= 0 {
			return nil
		}
		if hasEMAFast && price <= emaFast {
			return nil
		}
		if hasEMAFast && hasEMASlow && emaFast <= emaSlow {
			return nil
		}
		stLower, _ := snap.Indicator(market.IndSTLower)
		reason := fmt.Sprintf("trend up: adx=%.1f di+=%.1f di-=%.1f", adx, plusDI, minusDI)
		return m.buildTrendSignal(snap, market.Long, atr, stLower, reason)
	}

	if minusDI-plusDI >= m.cfg.MinDISpread && stDir < 0 {
		if hasSTSlow && stSlowDir >= 0 {
			return nil
		}
		if hasEMAFast && price >= emaFast {
			return nil
		}
		if hasEMAFast && hasEMASlow && emaFast >= emaSlow {
			return nil
		}
		stUpper, _ := snap.Indicator(market.IndSTUpper)
		reason := fmt.Sprintf("trend down: adx=%.1f di+=%.1f di-=%.1f", adx, plusDI, minusDI)
		return m.buildTrendSignal(snap, market.Short, atr, stUpper, reason)
	}

	return nil
}

// buildTrendSignal derives the momentum stop: the nearer-to-price of the
// ATR stop and the Supertrend band, then the shared percentage cap on top.
// The target is the plain minimum-reward/risk target; a trend entry has no
// natural band to aim for.
func (m *Momentum) buildTrendSignal(snap market.Snapshot, dir market.Direction, atr, stBand float64, reason string) *Signal {
	entry := snap.Close

	var dist float64
	if dir == market.Long {
		stopLevel := entry - atr*m.rp.ATRMultiplier
		if stBand > stopLevel && stBand < entry {
			stopLevel = stBand
		}
		dist = entry - stopLevel
	} else {
		stopLevel := entry + atr*m.rp.ATRMultiplier
		if stBand > entry && stBand < stopLevel {
			stopLevel = stBand
		}
		dist = stopLevel - entry
	}

	if cap := entry * m.rp.PriceCapPct; dist > cap {
		dist = cap
	}
	if dist <= 0 || dist/entry < m.cfg.MinStopDistancePct {
		m.log.Debug("entry candidate rejected: stop distance too small",
			zap.String("strategy", m.Name()),
			zap.Stringer("direction", dir),
			zap.Time("time", snap.Time),
			zap.Float64("distance", dist),
		)
		return nil
	}

	var stop float64
	if dir == market.Long {
		stop = entry - dist
	} else {
		stop = entry + dist
	}
	take := risk.Target(dir, entry, dist, 0, m.rp)

	if !risk.Accept(entry, stop, take, dist, m.rp) {
		m.log.Debug("entry candidate rejected by reward/risk check",
			zap.String("strategy", m.Name()),
			zap.Stringer("direction", dir),
			zap.Time("time", snap.Time),
			zap.Float64("price", entry),
		)
		return nil
	}

	return &Signal{
		Time:       snap.Time,
		Strategy:   m.Name(),
		Direction:  dir,
		Entry:      entry,
		StopLoss:   stop,
		TakeProfit: take,
		RewardRisk: risk.RR(entry, stop, take),
		Reason:     reason,
	}
}

func (m *Momentum) EvaluateExit(pos *Position, snap market.Snapshot) (bool, string) {
	pos.Observe(snap.Close, m.exits)
	return checkExit(pos, snap.Close)
}
