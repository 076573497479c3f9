package market

import (
	"errors"
	"fmt"
	"time"
)

// Indicator names recognized on a Snapshot. Producers (the indicator
// pipeline, a live feed adapter, a CSV dataset) populate these keys; the
// strategy engine only ever reads them.
const (
	IndBollLower    = "boll_lower"
	IndBollMiddle   = "boll_middle"
	IndBollUpper    = "boll_upper"
	IndBollPosition = "boll_position" // normalized location in [0,1]
	IndRSI          = "rsi"           // [0,100]
	IndATR          = "atr"           // > 0
	IndADX          = "adx"           // >= 0
	IndPlusDI       = "plus_di"
	IndMinusDI      = "minus_di"
	IndEMAFast      = "ema_fast"
	IndEMASlow      = "ema_slow"
	IndSTDir        = "supertrend_dir" // +1 up, -1 down
	IndSTLower      = "supertrend_lower"
	IndSTUpper      = "supertrend_upper"
	IndSTSlowDir    = "supertrend_slow_dir"
)

// ErrMalformedSnapshot marks a snapshot whose required indicator values are
// missing or outside their valid numeric range. Callers skip such snapshots
// for entry evaluation but must still manage open positions on price alone.
var ErrMalformedSnapshot = errors.New("malformed snapshot")

// Snapshot is one timestamped bundle of price and indicator readings.
// It is immutable once produced: the engine never writes to it.
type Snapshot struct {
	Time       time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Indicators map[string]float64
}

// Indicator returns the named indicator value and whether it is present.
func (s Snapshot) Indicator(name string) (float64, bool) {
	v, ok := s.Indicators[name]
	return v, ok
}

// HasPrice reports whether the snapshot carries a usable close price.
// Exit management only needs price, so a snapshot failing Validate can
// still drive stop/target checks as long as HasPrice holds.
func (s Snapshot) HasPrice() bool {
	return s.Close > 0
}

// Validate checks the minimum indicator set an entry evaluation needs.
// It returns an error wrapping ErrMalformedSnapshot naming the first
// offending field.
func (s Snapshot) Validate() error {
	if !s.HasPrice() {
		return fmt.Errorf("%w: non-positive close price %v", ErrMalformedSnapshot, s.Close)
	}

	required := []string{
		IndBollLower, IndBollMiddle, IndBollUpper, IndBollPosition,
		IndRSI, IndATR, IndADX, IndPlusDI, IndMinusDI,
		IndSTLower, IndSTUpper,
	}
	for _, name := range required {
		if _, ok := s.Indicators[name]; !ok {
			return fmt.Errorf("%w: missing %s", ErrMalformedSnapshot, name)
		}
	}

	if v := s.Indicators[IndRSI]; v < 0 || v > 100 {
		return fmt.Errorf("%w: rsi %v outside [0,100]", ErrMalformedSnapshot, v)
	}
	if v := s.Indicators[IndATR]; v <= 0 {
		return fmt.Errorf("%w: non-positive atr %v", ErrMalformedSnapshot, v)
	}
	if v := s.Indicators[IndADX]; v < 0 {
		return fmt.Errorf("%w: negative adx %v", ErrMalformedSnapshot, v)
	}
	if v := s.Indicators[IndBollPosition]; v < 0 || v > 1 {
		return fmt.Errorf("%w: boll_position %v outside [0,1]", ErrMalformedSnapshot, v)
	}
	lower, middle, upper := s.Indicators[IndBollLower], s.Indicators[IndBollMiddle], s.Indicators[IndBollUpper]
	if !(lower <= middle && middle <= upper) {
		return fmt.Errorf("%w: bollinger bands out of order (%v, %v, %v)", ErrMalformedSnapshot, lower, middle, upper)
	}

	return nil
}
