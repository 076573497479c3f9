package indicators

import "github.com/markcheno/go-talib"

// SupertrendResult carries the band levels and direction per candle.
// Direction is +1 while price holds above the lower band and -1 while it
// holds below the upper band; the leading warmup entries are zero.
type SupertrendResult struct {
	Lower     []float64
	Upper     []float64
	Direction []float64
}

// Supertrend computes the ATR-based trailing band pair. The bands ratchet:
// in an uptrend the lower band never falls, in a downtrend the upper band
// never rises, until the trend flips.
func Supertrend(highs, lows, closes []float64, period int, multiplier float64) SupertrendResult {
	n := len(closes)
	res := SupertrendResult{
		Lower:     make([]float64, n),
		Upper:     make([]float64, n),
		Direction: make([]float64, n),
	}
	if n <= period {
		return res
	}

	atr := talib.Atr(highs, lows, closes, period)

	for i := period; i < n; i++ {
		mid := (highs[i] + lows[i]) / 2
		basicUpper := mid + multiplier*atr[i]
		basicLower := mid - multiplier*atr[i]

		upper := basicUpper
		lower := basicLower
		if i > period {
			if prevUpper := res.Upper[i-1]; prevUpper > 0 && (basicUpper > prevUpper && closes[i-1] <= prevUpper) {
				upper = prevUpper
			}
			if prevLower := res.Lower[i-1]; prevLower > 0 && (basicLower < prevLower && closes[i-1] >= prevLower) {
				lower = prevLower
			}
		}

		dir := res.Direction[i-1]
		switch {
		case dir >= 0 && closes[i] < lower:
			dir = -1
			lower = basicLower
		case dir < 0 && closes[i] > upper:
			dir = +1
			upper = basicUpper
		case dir == 0:
			if closes[i] >= mid {
				dir = +1
			} else {
				dir = -1
			}
		}

		res.Upper[i] = upper
		res.Lower[i] = lower
		res.Direction[i] = dir
	}
	return res
}
