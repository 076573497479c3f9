// Package market defines the data units the signal engine consumes:
// candles, indicator snapshots, and trade directions.
package market

import "time"

// Direction of a trade: +1 long, -1 short.
type Direction int8

const (
	Long  Direction = +1
	Short Direction = -1
)

func (d Direction) String() string {
	switch d {
	case Long:
		return "LONG"
	case Short:
		return "SHORT"
	default:
		return "UNKNOWN"
	}
}

// Candle represents OHLC (Open, High, Low, Close) candlestick data.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}
