package journal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTrade(hour int, strategy string, pnl float64) TradeRecord {
	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return TradeRecord{
		Instrument: "EUR_USD",
		Strategy:   strategy,
		Direction:  "LONG",
		Units:      66.5,
		EntryPrice: 100.5,
		ExitPrice:  100.5 + pnl/66.5,
		EntryTime:  t0.Add(time.Duration(hour) * time.Hour),
		ExitTime:   t0.Add(time.Duration(hour+1) * time.Hour),
		PnL:        pnl,
		PnLPct:     pnl / 10_000,
		RewardRisk: 1.5,
		Reason:     "take-profit",
	}
}

func TestCSVJournalRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tradesPath := filepath.Join(dir, "trades.csv")
	equityPath := filepath.Join(dir, "equity.csv")

	j, err := NewCSV(tradesPath, equityPath)
	require.NoError(t, err)

	want := []TradeRecord{
		sampleTrade(0, "mean-reversion", 300),
		sampleTrade(2, "momentum", -150),
	}
	for _, tr := range want {
		require.NoError(t, j.RecordTrade(tr))
	}
	require.NoError(t, j.RecordEquity(EquityRecord{Time: want[0].ExitTime, Equity: 10_300}))
	require.NoError(t, j.Close())

	got, err := ReadTradesCSV(tradesPath)
	require.NoError(t, err)
	require.Len(t, got, 2)

	for i := range want {
		assert.NotEmpty(t, got[i].TradeID) // assigned at record time
		assert.Equal(t, want[i].Instrument, got[i].Instrument)
		assert.Equal(t, want[i].Strategy, got[i].Strategy)
		assert.Equal(t, want[i].Direction, got[i].Direction)
		assert.Equal(t, want[i].EntryTime, got[i].EntryTime)
		assert.Equal(t, want[i].ExitTime, got[i].ExitTime)
		assert.InDelta(t, want[i].PnL, got[i].PnL, 1e-6)
		assert.InDelta(t, want[i].RewardRisk, got[i].RewardRisk, 1e-6)
		assert.Equal(t, want[i].Reason, got[i].Reason)
	}

	eq, err := ReadEquityCSV(equityPath)
	require.NoError(t, err)
	require.Len(t, eq, 1)
	assert.InDelta(t, 10_300, eq[0].Equity, 1e-6)
}

func TestNewCSVClosesFilesOnHeaderError(t *testing.T) {
	t.Parallel()

	// /dev/full accepts the open but fails the header flush, driving the
	// error path after both files are created.
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("/dev/full not available")
	}

	equityPath := filepath.Join(t.TempDir(), "equity.csv")
	j, err := NewCSV("/dev/full", equityPath)
	require.Error(t, err)
	assert.Nil(t, j)

	// The equity file handle was released: the file can be reopened for
	// writing and removed.
	f, err := os.OpenFile(equityPath, os.O_WRONLY, 0)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.NoError(t, os.Remove(equityPath))
}

func TestReadTradesCSVRejectsCorruptNumericField(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tradesPath := filepath.Join(dir, "trades.csv")
	equityPath := filepath.Join(dir, "equity.csv")

	j, err := NewCSV(tradesPath, equityPath)
	require.NoError(t, err)
	require.NoError(t, j.RecordTrade(sampleTrade(0, "momentum", 100)))
	require.NoError(t, j.RecordEquity(EquityRecord{Time: time.Date(2024, 3, 1, 1, 0, 0, 0, time.UTC), Equity: 10_100}))
	require.NoError(t, j.Close())

	corrupt := func(path, from, to string) {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, []byte(strings.Replace(string(data), from, to, 1)), 0o644))
	}

	// pnl column corrupted: the read fails instead of reporting zero PnL.
	corrupt(tradesPath, "100.000000", "1x0.000000")
	_, err = ReadTradesCSV(tradesPath)
	assert.Error(t, err)

	corrupt(equityPath, "10100.000000", "101zz.000000")
	_, err = ReadEquityCSV(equityPath)
	assert.Error(t, err)
}

func TestCSVJournalDistinctTradeIDs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	j, err := NewCSV(filepath.Join(dir, "t.csv"), filepath.Join(dir, "e.csv"))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, j.RecordTrade(sampleTrade(i, "momentum", 10)))
	}
	require.NoError(t, j.Close())

	got, err := ReadTradesCSV(filepath.Join(dir, "t.csv"))
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, tr := range got {
		assert.False(t, seen[tr.TradeID], "duplicate trade id %s", tr.TradeID)
		seen[tr.TradeID] = true
	}
}
