// Package strategies implements the entry/exit decision logic of the
// signal engine. Variants differ only in admission thresholds and in which
// technical target they offer the risk rules — the risk-enforcement step
// itself is shared and never overridden by a variant.
package strategies

import (
	"fmt"
	"time"

	"github.com/quantden/sigtrader/market"
	"github.com/quantden/sigtrader/risk"
)

// Strategy is the capability a backtest (or live loop) drives. Entry
// evaluation sees only the snapshot; exit evaluation sees the open position
// and the snapshot. Implementations hold no mutable state between calls.
type Strategy interface {
	Name() string

	// EvaluateEntry returns a candidate entry signal, or nil when the
	// snapshot does not admit one (including risk rejection).
	EvaluateEntry(snap market.Snapshot) *Signal

	// EvaluateExit reports whether the open position should be closed at
	// the snapshot's price, and why.
	EvaluateExit(pos *Position, snap market.Snapshot) (bool, string)
}

// Exit reasons produced by the shared exit rules.
const (
	ExitStopLoss   = "stop-loss"
	ExitTakeProfit = "take-profit"
	ExitBreakeven  = "breakeven"
	ExitTrailing   = "trailing-stop"
	ExitEndOfData  = "end-of-data"
)

// Signal is a fully-sized entry candidate. A Signal below the configured
// reward/risk floor is never constructed; the generating function returns
// nil instead.
type Signal struct {
	Time       time.Time
	Strategy   string
	Direction  market.Direction
	Entry      float64
	StopLoss   float64
	TakeProfit float64
	RewardRisk float64
	Reason     string
}

// Validate checks the stop/entry/target ordering invariant. A violation
// here means the sizing rules are broken; callers must treat it as a fatal
// internal error, not a recoverable condition.
func (s Signal) Validate() error {
	switch s.Direction {
	case market.Long:
		if !(s.StopLoss < s.Entry && s.Entry < s.TakeProfit) {
			return fmt.Errorf("long signal ordering violated: stop=%v entry=%v take=%v",
				s.StopLoss, s.Entry, s.TakeProfit)
		}
	case market.Short:
		if !(s.TakeProfit < s.Entry && s.Entry < s.StopLoss) {
			return fmt.Errorf("short signal ordering violated: take=%v entry=%v stop=%v",
				s.TakeProfit, s.Entry, s.StopLoss)
		}
	default:
		return fmt.Errorf("signal has no direction")
	}
	return nil
}

// StopDistance is the entry-to-stop distance the signal was sized with.
func (s Signal) StopDistance() float64 {
	if s.Direction == market.Long {
		return s.Entry - s.StopLoss
	}
	return s.StopLoss - s.Entry
}

// buildSignal runs the shared risk-enforcement step: size the stop from
// ATR, derive the target (band target dominating when it is farther), and
// apply the final acceptance check. Returns nil on rejection. Variants call
// this after their own admission thresholds pass.
func buildSignal(snap market.Snapshot, dir market.Direction, atr, bandTarget float64, p risk.Params, strategy, reason string) *Signal {
	entry := snap.Close
	dist := risk.StopDistance(entry, atr, p)
	if dist <= 0 {
		return nil
	}

	var stop float64
	if dir == market.Long {
		stop = entry - dist
	} else {
		stop = entry + dist
	}
	take := risk.Target(dir, entry, dist, bandTarget, p)

	if !risk.Accept(entry, stop, take, dist, p) {
		return nil
	}

	return &Signal{
		Time:       snap.Time,
		Strategy:   strategy,
		Direction:  dir,
		Entry:      entry,
		StopLoss:   stop,
		TakeProfit: take,
		RewardRisk: risk.RR(entry, stop, take),
		Reason:     reason,
	}
}
