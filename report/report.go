// Package report computes performance statistics from closed trades and an
// equity curve. It operates on persisted journal records, so a report can
// be produced either directly after a run or later from the journal files
// alone, with identical numbers.
package report

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/quantden/sigtrader/journal"
)

// Config controls statistic computation.
type Config struct {
	// Annualization is the factor whose square root scales the Sharpe and
	// Sortino ratios. 252 for daily returns, 8760 for hourly. Defaults to
	// 252 when zero.
	Annualization float64 `yaml:"annualization" json:"annualization"`
}

func (c Config) annualization() float64 {
	if c.Annualization <= 0 {
		return 252
	}
	return c.Annualization
}

// StrategyStats aggregates per-strategy outcomes inside a Report.
type StrategyStats struct {
	Trades  int
	Wins    int
	WinRate float64
	PnL     float64
}

// Report holds the computed statistics for one set of trades.
type Report struct {
	Trades int
	Wins   int
	Losses int

	WinRate float64

	// Average realized reward-to-risk, split by outcome.
	AvgRewardRiskWins   float64
	AvgRewardRiskLosses float64

	AvgWinPct  float64 // mean PnLPct over winning trades
	AvgLossPct float64 // mean PnLPct over losing trades

	ProfitFactor float64 // gross profit / gross loss; Inf when no losses
	NetPnL       float64

	Sharpe  float64
	Sortino float64

	// MaxDrawdown is the largest peak-to-trough equity decline as a
	// fraction of the peak.
	MaxDrawdown float64

	ByStrategy map[string]StrategyStats
}

// Evaluate computes a Report from journal records. A nil or empty trade
// slice yields a zero report, not an error: an empty backtest is a valid
// outcome.
func Evaluate(trades []journal.TradeRecord, equity []journal.EquityRecord, cfg Config) Report {
	r := Report{
		Trades:     len(trades),
		ByStrategy: make(map[string]StrategyStats),
	}
	if len(trades) == 0 {
		return r
	}

	var (
		rrWins, rrLosses     float64
		pctWins, pctLosses   float64
		grossWin, grossLoss  float64
		returns              = make([]float64, 0, len(trades))
	)

	for _, t := range trades {
		returns = append(returns, t.PnLPct)
		r.NetPnL += t.PnL

		s := r.ByStrategy[t.Strategy]
		s.Trades++
		s.PnL += t.PnL

		if t.PnL > 0 {
			r.Wins++
			s.Wins++
			rrWins += t.RewardRisk
			pctWins += t.PnLPct
			grossWin += t.PnL
		} else {
			r.Losses++
			rrLosses += t.RewardRisk
			pctLosses += t.PnLPct
			grossLoss += -t.PnL
		}
		r.ByStrategy[t.Strategy] = s
	}

	for name, s := range r.ByStrategy {
		s.WinRate = float64(s.Wins) / float64(s.Trades)
		r.ByStrategy[name] = s
	}

	r.WinRate = float64(r.Wins) / float64(r.Trades)
	if r.Wins > 0 {
		r.AvgRewardRiskWins = rrWins / float64(r.Wins)
		r.AvgWinPct = pctWins / float64(r.Wins)
	}
	if r.Losses > 0 {
		r.AvgRewardRiskLosses = rrLosses / float64(r.Losses)
		r.AvgLossPct = pctLosses / float64(r.Losses)
	}
	if grossLoss > 0 {
		r.ProfitFactor = grossWin / grossLoss
	} else if grossWin > 0 {
		r.ProfitFactor = math.Inf(1)
	}

	ann := math.Sqrt(cfg.annualization())
	r.Sharpe = sharpe(returns) * ann
	r.Sortino = sortino(returns) * ann
	r.MaxDrawdown = maxDrawdown(equity)

	return r
}

// sharpe returns mean/stddev of the return series, unscaled. Zero when the
// series is flat or too short.
func sharpe(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	m := mean(returns)
	sd := stddev(returns, m)
	if sd == 0 {
		return 0
	}
	return m / sd
}

// sortino is sharpe with the deviation taken over negative returns only.
func sortino(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	m := mean(returns)
	var sum float64
	var n int
	for _, v := range returns {
		if v < 0 {
			sum += v * v
			n++
		}
	}
	if n == 0 || sum == 0 {
		return 0
	}
	dd := math.Sqrt(sum / float64(n))
	return m / dd
}

func mean(xs []float64) float64 {
	var sum float64
	for _, v := range xs {
		sum += v
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64, m float64) float64 {
	var sum float64
	for _, v := range xs {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)-1))
}

// maxDrawdown walks the equity curve in time order and tracks the largest
// fractional decline from a running peak.
func maxDrawdown(equity []journal.EquityRecord) float64 {
	if len(equity) < 2 {
		return 0
	}
	pts := make([]journal.EquityRecord, len(equity))
	copy(pts, equity)
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].Time.Before(pts[j].Time) })

	peak := pts[0].Equity
	var maxDD float64
	for _, p := range pts[1:] {
		if p.Equity > peak {
			peak = p.Equity
			continue
		}
		if peak > 0 {
			dd := (peak - p.Equity) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// Print writes r as an aligned text block.
func Print(w io.Writer, r Report) {
	fmt.Fprintf(w, "Trades:          %d  (%d wins / %d losses)\n", r.Trades, r.Wins, r.Losses)
	fmt.Fprintf(w, "Win rate:        %.1f%%\n", r.WinRate*100)
	fmt.Fprintf(w, "Avg R:R wins:    %.2f\n", r.AvgRewardRiskWins)
	fmt.Fprintf(w, "Avg R:R losses:  %.2f\n", r.AvgRewardRiskLosses)
	fmt.Fprintf(w, "Avg win:         %.2f%%\n", r.AvgWinPct*100)
	fmt.Fprintf(w, "Avg loss:        %.2f%%\n", r.AvgLossPct*100)
	fmt.Fprintf(w, "Profit factor:   %.2f\n", r.ProfitFactor)
	fmt.Fprintf(w, "Net PnL:         %.2f\n", r.NetPnL)
	fmt.Fprintf(w, "Sharpe:          %.2f\n", r.Sharpe)
	fmt.Fprintf(w, "Sortino:         %.2f\n", r.Sortino)
	fmt.Fprintf(w, "Max drawdown:    %.1f%%\n", r.MaxDrawdown*100)

	if len(r.ByStrategy) > 0 {
		fmt.Fprintln(w)
		names := make([]string, 0, len(r.ByStrategy))
		for name := range r.ByStrategy {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			s := r.ByStrategy[name]
			fmt.Fprintf(w, "  %-16s trades=%-4d win=%5.1f%%  pnl=%.2f\n",
				name, s.Trades, s.WinRate*100, s.PnL)
		}
	}
}
