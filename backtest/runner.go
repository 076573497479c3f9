// Package backtest replays a chronological snapshot sequence through a
// strategy and turns its decisions into trade records and an equity curve.
// The replay is single-threaded and deterministic: a snapshot is fully
// processed before the next is considered, and no check ever uses
// information later than the snapshot that triggered it.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/quantden/sigtrader/journal"
	"github.com/quantden/sigtrader/market"
	"github.com/quantden/sigtrader/strategies"
)

// Trade is one closed round trip. Immutable once appended to the result.
type Trade struct {
	Instrument string
	Strategy   string
	Direction  market.Direction
	EntryTime  time.Time
	ExitTime   time.Time
	EntryPrice float64
	ExitPrice  float64
	Units      float64
	PnL        float64
	PnLPct     float64
	// RewardRisk is the realized |exit-entry| / |entry-stop| of the trade.
	RewardRisk float64
	ExitReason string
}

// EquityPoint is one point of the equity curve, appended per closed trade.
type EquityPoint struct {
	Time   time.Time
	Equity float64
}

// InvariantViolationError reports a constructed signal that failed the
// stop/entry/target ordering check. This must never happen when the risk
// sizing is correct; it aborts the replay rather than corrupting every
// downstream metric.
type InvariantViolationError struct {
	Instrument string
	Time       time.Time
	Err        error
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant violation: instrument=%s time=%s: %v",
		e.Instrument, e.Time.Format(time.RFC3339), e.Err)
}

func (e *InvariantViolationError) Unwrap() error { return e.Err }

// Options controls a single (instrument, strategy) replay.
type Options struct {
	Instrument string

	// InitialEquity seeds the equity curve. Defaults to 10_000.
	InitialEquity float64

	// RiskPerTrade sizes positions so a stop-out loses this fraction of
	// current equity. Defaults to 0.02.
	RiskPerTrade float64

	// CloseEnd closes any open position at the last snapshot's close with
	// reason "end-of-data".
	CloseEnd bool
}

// Result is the output of one replay. On an aborted replay the trades and
// equity already computed remain valid.
type Result struct {
	Instrument string
	Strategy   string

	Trades []Trade
	Equity []EquityPoint

	Start time.Time
	End   time.Time

	Snapshots int
	Skipped   int // malformed snapshots skipped for entry evaluation

	FinalEquity float64
}

// Runner drives a feed through one strategy, holding at most one open
// position at a time. The Position is owned exclusively by the runner for
// as long as it is open.
type Runner struct {
	Strategy strategies.Strategy
	Feed     SnapshotFeed
	Journal  journal.Journal // optional
	Log      *zap.Logger     // optional
	Options  Options
}

// Run executes the replay loop. While FLAT, snapshots are routed only to
// entry evaluation; while OPEN, only to exit evaluation. The returned
// error, if any, names where and why the replay was aborted; partial
// results are still returned.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	res := Result{Instrument: r.Options.Instrument}

	if r.Strategy == nil {
		return res, errors.New("backtest: Strategy is required")
	}
	if r.Feed == nil {
		return res, errors.New("backtest: Feed is required")
	}
	defer r.Feed.Close()

	res.Strategy = r.Strategy.Name()

	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}

	equity := r.Options.InitialEquity
	if equity <= 0 {
		equity = 10_000
	}
	riskPerTrade := r.Options.RiskPerTrade
	if riskPerTrade <= 0 {
		riskPerTrade = 0.02
	}

	var pos *strategies.Position
	var prevTime time.Time
	var lastClose float64

	for {
		if err := ctx.Err(); err != nil {
			res.FinalEquity = equity
			return res, r.abortErr(prevTime, err)
		}

		snap, ok, err := r.Feed.Next()
		if err != nil {
			res.FinalEquity = equity
			return res, r.abortErr(prevTime, fmt.Errorf("feed: %w", err))
		}
		if !ok {
			break
		}

		if !prevTime.IsZero() && snap.Time.Before(prevTime) {
			res.FinalEquity = equity
			return res, r.abortErr(snap.Time, fmt.Errorf("out-of-order snapshot: %s after %s",
				snap.Time.Format(time.RFC3339), prevTime.Format(time.RFC3339)))
		}
		prevTime = snap.Time

		if res.Start.IsZero() {
			res.Start = snap.Time
			res.Equity = append(res.Equity, EquityPoint{Time: snap.Time, Equity: equity})
		}
		res.End = snap.Time
		res.Snapshots++
		if snap.HasPrice() {
			lastClose = snap.Close
		}

		if pos != nil {
			// An open position is never left unmanaged: exits run on
			// price alone even when indicator values are bad.
			if !snap.HasPrice() {
				res.Skipped++
				continue
			}
			exit, reason := r.Strategy.EvaluateExit(pos, snap)
			if !exit {
				continue
			}
			equity = r.closePosition(&res, pos, snap.Time, snap.Close, reason, equity, log)
			pos = nil
			continue
		}

		if err := snap.Validate(); err != nil {
			res.Skipped++
			log.Debug("snapshot skipped for entry evaluation",
				zap.String("instrument", r.Options.Instrument),
				zap.Time("time", snap.Time),
				zap.Error(err),
			)
			continue
		}

		sig := r.Strategy.EvaluateEntry(snap)
		if sig == nil {
			continue
		}
		if err := sig.Validate(); err != nil {
			res.FinalEquity = equity
			return res, &InvariantViolationError{
				Instrument: r.Options.Instrument,
				Time:       snap.Time,
				Err:        err,
			}
		}

		pos = strategies.Open(*sig, snap.Time)

		log.Info("position opened",
			zap.String("instrument", r.Options.Instrument),
			zap.String("strategy", sig.Strategy),
			zap.Stringer("direction", sig.Direction),
			zap.Time("time", snap.Time),
			zap.Float64("entry", sig.Entry),
			zap.Float64("stop", sig.StopLoss),
			zap.Float64("take", sig.TakeProfit),
			zap.Float64("reward_risk", sig.RewardRisk),
		)
	}

	if pos != nil && r.Options.CloseEnd && lastClose > 0 {
		equity = r.closePosition(&res, pos, res.End, lastClose, strategies.ExitEndOfData, equity, log)
		pos = nil
	}

	res.FinalEquity = equity
	return res, nil
}

func (r *Runner) abortErr(at time.Time, err error) error {
	return fmt.Errorf("replay aborted: instrument=%s time=%s: %w",
		r.Options.Instrument, at.Format(time.RFC3339), err)
}

// closePosition converts the open position into a Trade, updates equity,
// and appends the equity point. Units are sized so a stop-out costs
// RiskPerTrade of the equity held at entry.
func (r *Runner) closePosition(res *Result, pos *strategies.Position, exitTime time.Time, exitPrice float64, reason string, equity float64, log *zap.Logger) float64 {
	riskPerTrade := r.Options.RiskPerTrade
	if riskPerTrade <= 0 {
		riskPerTrade = 0.02
	}

	dist := pos.StopDistance()
	units := equity * riskPerTrade / dist

	move := exitPrice - pos.Entry
	if pos.Direction == market.Short {
		move = -move
	}

	trade := Trade{
		Instrument: r.Options.Instrument,
		Strategy:   pos.Strategy,
		Direction:  pos.Direction,
		EntryTime:  pos.EntryTime,
		ExitTime:   exitTime,
		EntryPrice: pos.Entry,
		ExitPrice:  exitPrice,
		Units:      units,
		PnL:        move * units,
		PnLPct:     move / pos.Entry,
		RewardRisk: abs(exitPrice-pos.Entry) / dist,
		ExitReason: reason,
	}

	equity += trade.PnL
	res.Trades = append(res.Trades, trade)
	res.Equity = append(res.Equity, EquityPoint{Time: exitTime, Equity: equity})

	if r.Journal != nil {
		rec := journal.TradeRecord{
			Instrument: trade.Instrument,
			Strategy:   trade.Strategy,
			Direction:  trade.Direction.String(),
			Units:      trade.Units,
			EntryPrice: trade.EntryPrice,
			ExitPrice:  trade.ExitPrice,
			EntryTime:  trade.EntryTime,
			ExitTime:   trade.ExitTime,
			PnL:        trade.PnL,
			PnLPct:     trade.PnLPct,
			RewardRisk: trade.RewardRisk,
			Reason:     trade.ExitReason,
		}
		if err := r.Journal.RecordTrade(rec); err != nil {
			log.Warn("journal trade record failed", zap.Error(err))
		}
		if err := r.Journal.RecordEquity(journal.EquityRecord{Time: exitTime, Equity: equity}); err != nil {
			log.Warn("journal equity record failed", zap.Error(err))
		}
	}

	log.Info("position closed",
		zap.String("instrument", trade.Instrument),
		zap.String("reason", reason),
		zap.Time("time", exitTime),
		zap.Float64("exit", exitPrice),
		zap.Float64("pnl", trade.PnL),
		zap.Float64("realized_rr", trade.RewardRisk),
	)

	return equity
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
