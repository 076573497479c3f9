// Package journal persists closed trades and the equity curve. Backends:
// CSV files, SQLite, and a Parquet export for analysis tooling.
package journal

import "time"

// TradeRecord is one closed trade as persisted. TradeID is assigned by the
// journal at record time — the replay core stays free of generated ids so
// identical replays stay byte-identical.
type TradeRecord struct {
	TradeID    string
	Instrument string
	Strategy   string
	Direction  string
	Units      float64
	EntryPrice float64
	ExitPrice  float64
	EntryTime  time.Time
	ExitTime   time.Time
	PnL        float64
	PnLPct     float64
	RewardRisk float64
	Reason     string
}

// EquityRecord is one point of the equity curve.
type EquityRecord struct {
	Time   time.Time
	Equity float64
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquityRecord) error
	Close() error
}
