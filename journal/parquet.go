package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
)

// tradeRow is the Parquet on-disk schema for closed trades.
type tradeRow struct {
	TradeID    string  `parquet:"trade_id"`
	Instrument string  `parquet:"instrument"`
	Strategy   string  `parquet:"strategy"`
	Direction  string  `parquet:"direction"`
	Units      float64 `parquet:"units"`
	EntryPrice float64 `parquet:"entry_price"`
	ExitPrice  float64 `parquet:"exit_price"`
	EntryTime  int64   `parquet:"entry_time,timestamp(millisecond)"` // Unix ms
	ExitTime   int64   `parquet:"exit_time,timestamp(millisecond)"`
	PnL        float64 `parquet:"pnl"`
	PnLPct     float64 `parquet:"pnl_pct"`
	RewardRisk float64 `parquet:"reward_risk"`
	Reason     string  `parquet:"reason"`
}

// WriteTradesParquet exports closed trades to a single Parquet file for
// downstream analysis tooling. Trade ids missing from the records are
// assigned on export.
func WriteTradesParquet(path string, trades []TradeRecord) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create parquet dir: %w", err)
		}
	}

	rows := make([]tradeRow, 0, len(trades))
	for _, t := range trades {
		id := t.TradeID
		if id == "" {
			id = newTradeID()
		}
		rows = append(rows, tradeRow{
			TradeID:    id,
			Instrument: t.Instrument,
			Strategy:   t.Strategy,
			Direction:  t.Direction,
			Units:      t.Units,
			EntryPrice: t.EntryPrice,
			ExitPrice:  t.ExitPrice,
			EntryTime:  t.EntryTime.UnixMilli(),
			ExitTime:   t.ExitTime.UnixMilli(),
			PnL:        t.PnL,
			PnLPct:     t.PnLPct,
			RewardRisk: t.RewardRisk,
			Reason:     t.Reason,
		})
	}

	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("write parquet trades: %w", err)
	}
	return nil
}

// ReadTradesParquet loads a Parquet trade export.
func ReadTradesParquet(path string) ([]TradeRecord, error) {
	rows, err := parquet.ReadFile[tradeRow](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet trades: %w", err)
	}

	out := make([]TradeRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, TradeRecord{
			TradeID:    row.TradeID,
			Instrument: row.Instrument,
			Strategy:   row.Strategy,
			Direction:  row.Direction,
			Units:      row.Units,
			EntryPrice: row.EntryPrice,
			ExitPrice:  row.ExitPrice,
			EntryTime:  msToTime(row.EntryTime),
			ExitTime:   msToTime(row.ExitTime),
			PnL:        row.PnL,
			PnLPct:     row.PnLPct,
			RewardRisk: row.RewardRisk,
			Reason:     row.Reason,
		})
	}
	return out, nil
}

func msToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
