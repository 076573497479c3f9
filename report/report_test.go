package report

import (
	"bytes"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantden/sigtrader/journal"
)

func tradeAt(hour int, strategy string, pnl, pnlPct, rr float64) journal.TradeRecord {
	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return journal.TradeRecord{
		Instrument: "EUR_USD",
		Strategy:   strategy,
		Direction:  "LONG",
		Units:      100,
		EntryPrice: 100,
		ExitPrice:  100 + pnl/100,
		EntryTime:  t0.Add(time.Duration(hour) * time.Hour),
		ExitTime:   t0.Add(time.Duration(hour+1) * time.Hour),
		PnL:        pnl,
		PnLPct:     pnlPct,
		RewardRisk: rr,
		Reason:     "take-profit",
	}
}

func sampleTrades() []journal.TradeRecord {
	return []journal.TradeRecord{
		tradeAt(0, "mean-reversion", 300, 0.03, 1.5),
		tradeAt(2, "mean-reversion", -200, -0.02, 1.0),
		tradeAt(4, "momentum", 500, 0.05, 2.5),
		tradeAt(6, "momentum", -100, -0.01, 0.5),
	}
}

func sampleEquity() []journal.EquityRecord {
	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	vals := []float64{10_000, 10_300, 10_100, 10_600, 10_500}
	out := make([]journal.EquityRecord, len(vals))
	for i, v := range vals {
		out[i] = journal.EquityRecord{Time: t0.Add(time.Duration(i) * time.Hour), Equity: v}
	}
	return out
}

func TestEvaluate_Outcomes(t *testing.T) {
	t.Parallel()

	rep := Evaluate(sampleTrades(), sampleEquity(), Config{Annualization: 252})

	assert.Equal(t, 4, rep.Trades)
	assert.Equal(t, 2, rep.Wins)
	assert.Equal(t, 2, rep.Losses)
	assert.InDelta(t, 0.5, rep.WinRate, 1e-9)

	assert.InDelta(t, 2.0, rep.AvgRewardRiskWins, 1e-9)   // (1.5+2.5)/2
	assert.InDelta(t, 0.75, rep.AvgRewardRiskLosses, 1e-9) // (1.0+0.5)/2

	assert.InDelta(t, 0.04, rep.AvgWinPct, 1e-9)
	assert.InDelta(t, -0.015, rep.AvgLossPct, 1e-9)

	assert.InDelta(t, 800.0/300.0, rep.ProfitFactor, 1e-9)
	assert.InDelta(t, 500.0, rep.NetPnL, 1e-9)
}

func TestEvaluate_PerStrategy(t *testing.T) {
	t.Parallel()

	rep := Evaluate(sampleTrades(), sampleEquity(), Config{})

	require.Len(t, rep.ByStrategy, 2)
	mr := rep.ByStrategy["mean-reversion"]
	assert.Equal(t, 2, mr.Trades)
	assert.InDelta(t, 0.5, mr.WinRate, 1e-9)
	assert.InDelta(t, 100.0, mr.PnL, 1e-9)

	mo := rep.ByStrategy["momentum"]
	assert.InDelta(t, 400.0, mo.PnL, 1e-9)
}

func TestEvaluate_MaxDrawdown(t *testing.T) {
	t.Parallel()

	rep := Evaluate(sampleTrades(), sampleEquity(), Config{})

	// Peak 10_300 down to 10_100: 200/10_300.
	assert.InDelta(t, 200.0/10_300.0, rep.MaxDrawdown, 1e-9)
}

func TestEvaluate_SharpeAnnualizationScaling(t *testing.T) {
	t.Parallel()

	daily := Evaluate(sampleTrades(), sampleEquity(), Config{Annualization: 252})
	hourly := Evaluate(sampleTrades(), sampleEquity(), Config{Annualization: 8760})

	require.NotZero(t, daily.Sharpe)
	assert.InDelta(t, math.Sqrt(8760.0/252.0), hourly.Sharpe/daily.Sharpe, 1e-9)
}

func TestEvaluate_Empty(t *testing.T) {
	t.Parallel()

	rep := Evaluate(nil, nil, Config{})
	assert.Zero(t, rep.Trades)
	assert.Zero(t, rep.WinRate)
	assert.Zero(t, rep.Sharpe)
}

func TestEvaluate_NoLosses(t *testing.T) {
	t.Parallel()

	rep := Evaluate([]journal.TradeRecord{
		tradeAt(0, "momentum", 100, 0.01, 1.5),
		tradeAt(2, "momentum", 200, 0.02, 2.0),
	}, nil, Config{})

	assert.True(t, math.IsInf(rep.ProfitFactor, 1))
	assert.Zero(t, rep.Sortino) // no downside returns
}

// A report recomputed from a persisted journal matches the one computed
// directly from the run's records.
func TestEvaluate_RecomputableFromJournal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tradesPath := filepath.Join(dir, "trades.csv")
	equityPath := filepath.Join(dir, "equity.csv")

	j, err := journal.NewCSV(tradesPath, equityPath)
	require.NoError(t, err)
	for _, tr := range sampleTrades() {
		require.NoError(t, j.RecordTrade(tr))
	}
	for _, eq := range sampleEquity() {
		require.NoError(t, j.RecordEquity(eq))
	}
	require.NoError(t, j.Close())

	trades, err := journal.ReadTradesCSV(tradesPath)
	require.NoError(t, err)
	equity, err := journal.ReadEquityCSV(equityPath)
	require.NoError(t, err)

	direct := Evaluate(sampleTrades(), sampleEquity(), Config{Annualization: 252})
	recomputed := Evaluate(trades, equity, Config{Annualization: 252})

	assert.InDelta(t, direct.WinRate, recomputed.WinRate, 1e-9)
	assert.InDelta(t, direct.AvgRewardRiskWins, recomputed.AvgRewardRiskWins, 1e-9)
	assert.InDelta(t, direct.Sharpe, recomputed.Sharpe, 1e-6)
	assert.InDelta(t, direct.MaxDrawdown, recomputed.MaxDrawdown, 1e-9)
	assert.InDelta(t, direct.ProfitFactor, recomputed.ProfitFactor, 1e-6)
}

func TestPrint(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	Print(&buf, Evaluate(sampleTrades(), sampleEquity(), Config{}))

	out := buf.String()
	assert.Contains(t, out, "Win rate:        50.0%")
	assert.Contains(t, out, "mean-reversion")
	assert.Contains(t, out, "momentum")
}
