package report

import (
	"github.com/quantden/sigtrader/backtest"
	"github.com/quantden/sigtrader/journal"
)

// FromResult converts an in-memory backtest result into the journal record
// form Evaluate consumes, so the same statistics come out whether they are
// computed right after a run or recomputed later from the journal.
func FromResult(res backtest.Result) ([]journal.TradeRecord, []journal.EquityRecord) {
	trades := make([]journal.TradeRecord, 0, len(res.Trades))
	for _, t := range res.Trades {
		trades = append(trades, journal.TradeRecord{
			Instrument: t.Instrument,
			Strategy:   t.Strategy,
			Direction:  t.Direction.String(),
			Units:      t.Units,
			EntryPrice: t.EntryPrice,
			ExitPrice:  t.ExitPrice,
			EntryTime:  t.EntryTime,
			ExitTime:   t.ExitTime,
			PnL:        t.PnL,
			PnLPct:     t.PnLPct,
			RewardRisk: t.RewardRisk,
			Reason:     t.ExitReason,
		})
	}
	equity := make([]journal.EquityRecord, 0, len(res.Equity))
	for _, p := range res.Equity {
		equity = append(equity, journal.EquityRecord{Time: p.Time, Equity: p.Equity})
	}
	return trades, equity
}
