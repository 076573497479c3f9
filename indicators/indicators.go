// Package indicators turns raw candle series into the indicator snapshots
// the strategies consume. The standard studies come from go-talib; the
// supertrend is computed here since talib does not ship one.
package indicators

import (
	"fmt"

	"github.com/markcheno/go-talib"

	"github.com/quantden/sigtrader/market"
)

// SupertrendConfig configures one supertrend band pair.
type SupertrendConfig struct {
	Period     int     `yaml:"period" json:"period"`
	Multiplier float64 `yaml:"multiplier" json:"multiplier"`
}

// Config holds the lookback periods for the snapshot pipeline.
type Config struct {
	BBPeriod  int     `yaml:"bb_period" json:"bb_period"`
	BBStdDev  float64 `yaml:"bb_std_dev" json:"bb_std_dev"`
	RSIPeriod int     `yaml:"rsi_period" json:"rsi_period"`
	ATRPeriod int     `yaml:"atr_period" json:"atr_period"`
	ADXPeriod int     `yaml:"adx_period" json:"adx_period"`
	EMAFast   int     `yaml:"ema_fast" json:"ema_fast"`
	EMASlow   int     `yaml:"ema_slow" json:"ema_slow"`

	Supertrend     SupertrendConfig `yaml:"supertrend" json:"supertrend"`
	SlowSupertrend SupertrendConfig `yaml:"slow_supertrend" json:"slow_supertrend"`
}

// Defaults returns the standard parameter set.
func Defaults() Config {
	return Config{
		BBPeriod:       20,
		BBStdDev:       2.0,
		RSIPeriod:      14,
		ATRPeriod:      14,
		ADXPeriod:      14,
		EMAFast:        20,
		EMASlow:        50,
		Supertrend:     SupertrendConfig{Period: 10, Multiplier: 3.0},
		SlowSupertrend: SupertrendConfig{Period: 20, Multiplier: 5.0},
	}
}

func (c Config) Validate() error {
	if c.BBPeriod < 2 {
		return fmt.Errorf("indicators: bb_period %d too small", c.BBPeriod)
	}
	if c.BBStdDev <= 0 {
		return fmt.Errorf("indicators: bb_std_dev must be positive, got %g", c.BBStdDev)
	}
	for name, p := range map[string]int{
		"rsi_period": c.RSIPeriod,
		"atr_period": c.ATRPeriod,
		"adx_period": c.ADXPeriod,
		"ema_fast":   c.EMAFast,
		"ema_slow":   c.EMASlow,
	} {
		if p < 1 {
			return fmt.Errorf("indicators: %s must be at least 1, got %d", name, p)
		}
	}
	if c.EMAFast >= c.EMASlow {
		return fmt.Errorf("indicators: ema_fast %d must be below ema_slow %d", c.EMAFast, c.EMASlow)
	}
	if c.Supertrend.Period < 1 || c.Supertrend.Multiplier <= 0 {
		return fmt.Errorf("indicators: invalid supertrend config %+v", c.Supertrend)
	}
	return nil
}

// warmup is the number of leading candles without a full indicator set.
func (c Config) warmup() int {
	w := c.BBPeriod
	for _, p := range []int{c.RSIPeriod, c.ATRPeriod, 2 * c.ADXPeriod, c.EMASlow, c.Supertrend.Period, c.SlowSupertrend.Period} {
		if p > w {
			w = p
		}
	}
	return w + 1
}

// BuildSnapshots computes the full indicator set over candles and returns
// one snapshot per candle past the warmup window. The input order is
// preserved; candles must already be chronological.
func BuildSnapshots(candles []market.Candle, cfg Config) ([]market.Snapshot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	warm := cfg.warmup()
	if len(candles) <= warm {
		return nil, fmt.Errorf("indicators: need more than %d candles, got %d", warm, len(candles))
	}

	n := len(candles)
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i, c := range candles {
		highs[i] = c.High
		lows[i] = c.Low
		closes[i] = c.Close
	}

	upper, middle, lower := talib.BBands(closes, cfg.BBPeriod, cfg.BBStdDev, cfg.BBStdDev, talib.SMA)
	rsi := talib.Rsi(closes, cfg.RSIPeriod)
	atr := talib.Atr(highs, lows, closes, cfg.ATRPeriod)
	adx := talib.Adx(highs, lows, closes, cfg.ADXPeriod)
	plusDI := talib.PlusDI(highs, lows, closes, cfg.ADXPeriod)
	minusDI := talib.MinusDI(highs, lows, closes, cfg.ADXPeriod)
	emaFast := talib.Ema(closes, cfg.EMAFast)
	emaSlow := talib.Ema(closes, cfg.EMASlow)

	st := Supertrend(highs, lows, closes, cfg.Supertrend.Period, cfg.Supertrend.Multiplier)
	stSlow := Supertrend(highs, lows, closes, cfg.SlowSupertrend.Period, cfg.SlowSupertrend.Multiplier)

	snaps := make([]market.Snapshot, 0, n-warm)
	for i := warm; i < n; i++ {
		c := candles[i]
		pos := 0.5
		if width := upper[i] - lower[i]; width > 0 {
			pos = (c.Close - lower[i]) / width
		}
		if pos < 0 {
			pos = 0
		} else if pos > 1 {
			pos = 1
		}

		snaps = append(snaps, market.Snapshot{
			Time:  c.Time,
			Open:  c.Open,
			High:  c.High,
			Low:   c.Low,
			Close: c.Close,
			Indicators: map[string]float64{
				market.IndBollLower:    lower[i],
				market.IndBollMiddle:   middle[i],
				market.IndBollUpper:    upper[i],
				market.IndBollPosition: pos,
				market.IndRSI:          rsi[i],
				market.IndATR:          atr[i],
				market.IndADX:          adx[i],
				market.IndPlusDI:       plusDI[i],
				market.IndMinusDI:      minusDI[i],
				market.IndEMAFast:      emaFast[i],
				market.IndEMASlow:      emaSlow[i],
				market.IndSTDir:        st.Direction[i],
				market.IndSTLower:      st.Lower[i],
				market.IndSTUpper:      st.Upper[i],
				market.IndSTSlowDir:    stSlow.Direction[i],
			},
		})
	}
	return snaps, nil
}
