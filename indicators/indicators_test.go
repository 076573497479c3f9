package indicators

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantden/sigtrader/market"
)

// syntheticCandles generates a gently oscillating series long enough to
// clear every indicator warmup.
func syntheticCandles(n int) []market.Candle {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]market.Candle, n)
	for i := 0; i < n; i++ {
		base := 100 + 10*math.Sin(float64(i)/15) + float64(i)*0.05
		out[i] = market.Candle{
			Time:  t0.Add(time.Duration(i) * time.Hour),
			Open:  base - 0.2,
			High:  base + 0.6,
			Low:   base - 0.6,
			Close: base,
		}
	}
	return out
}

func TestBuildSnapshots(t *testing.T) {
	t.Parallel()

	candles := syntheticCandles(200)
	snaps, err := BuildSnapshots(candles, Defaults())
	require.NoError(t, err)
	require.NotEmpty(t, snaps)

	// Every emitted snapshot carries the full indicator set in range.
	for _, s := range snaps {
		require.NoError(t, s.Validate(), "snapshot at %s", s.Time)

		pos, _ := s.Indicator(market.IndBollPosition)
		assert.GreaterOrEqual(t, pos, 0.0)
		assert.LessOrEqual(t, pos, 1.0)

		dir, ok := s.Indicator(market.IndSTDir)
		require.True(t, ok)
		assert.Contains(t, []float64{-1, 1}, dir)
	}

	// Chronological order is preserved.
	for i := 1; i < len(snaps); i++ {
		assert.True(t, snaps[i].Time.After(snaps[i-1].Time))
	}
}

func TestBuildSnapshots_TooFewCandles(t *testing.T) {
	t.Parallel()

	_, err := BuildSnapshots(syntheticCandles(30), Defaults())
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Defaults().Validate())

	bad := Defaults()
	bad.BBStdDev = 0
	assert.Error(t, bad.Validate())

	bad = Defaults()
	bad.EMAFast = bad.EMASlow
	assert.Error(t, bad.Validate())
}

func TestSupertrendTrendFlip(t *testing.T) {
	t.Parallel()

	// Rising then falling series: direction should be +1 late in the rise
	// and -1 after the fall.
	n := 120
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		var base float64
		if i < 60 {
			base = 100 + float64(i)
		} else {
			base = 160 - float64(i-60)*1.5
		}
		highs[i] = base + 0.5
		lows[i] = base - 0.5
		closes[i] = base
	}

	res := Supertrend(highs, lows, closes, 10, 3)

	assert.Equal(t, 1.0, res.Direction[55])
	assert.Equal(t, -1.0, res.Direction[n-1])

	// In an uptrend the lower band trails below price.
	assert.Less(t, res.Lower[55], closes[55])
	// In a downtrend the upper band trails above price.
	assert.Greater(t, res.Upper[n-1], closes[n-1])
}

func TestLoadCandlesCSV(t *testing.T) {
	t.Parallel()

	csv := `time,open,high,low,close,volume
2024-03-01T00:00:00Z,100,101,99,100.5,1200
2024-03-01T01:00:00Z,100.5,102,100,101.5,900
`
	path := filepath.Join(t.TempDir(), "candles.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	candles, err := LoadCandlesCSV(path)
	require.NoError(t, err)
	require.Len(t, candles, 2)

	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), candles[0].Time)
	assert.InDelta(t, 100.5, candles[0].Close, 1e-9)
	assert.InDelta(t, 1200, candles[0].Volume, 1e-9)
}

func TestLoadCandlesCSV_UnixSeconds(t *testing.T) {
	t.Parallel()

	csv := "time,open,high,low,close\n1709251200,100,101,99,100.5\n"
	path := filepath.Join(t.TempDir(), "candles.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	candles, err := LoadCandlesCSV(path)
	require.NoError(t, err)
	require.Len(t, candles, 1)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), candles[0].Time)
}

func TestLoadCandlesCSV_MissingColumn(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "candles.csv")
	require.NoError(t, os.WriteFile(path, []byte("time,open\n2024-03-01T00:00:00Z,100\n"), 0o644))

	_, err := LoadCandlesCSV(path)
	assert.Error(t, err)
}
