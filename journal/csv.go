package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

var tradeHeader = []string{
	"trade_id", "instrument", "strategy", "direction", "units",
	"entry_price", "exit_price", "entry_time", "exit_time",
	"pnl", "pnl_pct", "reward_risk", "reason",
}

// CSVJournal appends trades and equity points to two CSV files.
type CSVJournal struct {
	trades *csv.Writer
	equity *csv.Writer
	tf, ef *os.File
}

func NewCSV(tradesPath, equityPath string) (*CSVJournal, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	ef, err := os.Create(equityPath)
	if err != nil {
		tf.Close()
		return nil, err
	}

	tw := csv.NewWriter(tf)
	ew := csv.NewWriter(ef)

	writeHeaders := func() error {
		if err := tw.Write(tradeHeader); err != nil {
			return err
		}
		if err := ew.Write([]string{"time", "equity"}); err != nil {
			return err
		}
		tw.Flush()
		ew.Flush()
		if err := tw.Error(); err != nil {
			return err
		}
		return ew.Error()
	}
	if err := writeHeaders(); err != nil {
		tf.Close()
		ef.Close()
		return nil, err
	}

	return &CSVJournal{trades: tw, equity: ew, tf: tf, ef: ef}, nil
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	if t.TradeID == "" {
		t.TradeID = newTradeID()
	}
	err := j.trades.Write([]string{
		t.TradeID,
		t.Instrument,
		t.Strategy,
		t.Direction,
		f(t.Units),
		f(t.EntryPrice),
		f(t.ExitPrice),
		t.EntryTime.Format(time.RFC3339),
		t.ExitTime.Format(time.RFC3339),
		f(t.PnL),
		f(t.PnLPct),
		f(t.RewardRisk),
		t.Reason,
	})
	if err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSVJournal) RecordEquity(e EquityRecord) error {
	if err := j.equity.Write([]string{e.Time.Format(time.RFC3339), f(e.Equity)}); err != nil {
		return err
	}
	j.equity.Flush()
	return j.equity.Error()
}

func (j *CSVJournal) Close() error {
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}
	j.equity.Flush()
	if err := j.equity.Error(); err != nil {
		return err
	}
	if err := j.tf.Close(); err != nil {
		return err
	}
	return j.ef.Close()
}

// ReadTradesCSV loads a trade CSV written by CSVJournal, so reports can be
// recomputed from a persisted journal independent of the run that produced
// it.
func ReadTradesCSV(path string) ([]TradeRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	// header
	if _, err := r.Read(); err != nil {
		return nil, fmt.Errorf("read trades header: %w", err)
	}

	var out []TradeRecord
	for {
		row, err := r.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		if len(row) < len(tradeHeader) {
			continue
		}
		entryTime, err := time.Parse(time.RFC3339, row[7])
		if err != nil {
			return nil, fmt.Errorf("bad entry_time %q: %w", row[7], err)
		}
		exitTime, err := time.Parse(time.RFC3339, row[8])
		if err != nil {
			return nil, fmt.Errorf("bad exit_time %q: %w", row[8], err)
		}
		var fp fieldParser
		rec := TradeRecord{
			TradeID:    row[0],
			Instrument: row[1],
			Strategy:   row[2],
			Direction:  row[3],
			Units:      fp.float(row[4]),
			EntryPrice: fp.float(row[5]),
			ExitPrice:  fp.float(row[6]),
			EntryTime:  entryTime,
			ExitTime:   exitTime,
			PnL:        fp.float(row[9]),
			PnLPct:     fp.float(row[10]),
			RewardRisk: fp.float(row[11]),
			Reason:     row[12],
		}
		if fp.err != nil {
			return nil, fmt.Errorf("bad trade row for %s: %w", row[0], fp.err)
		}
		out = append(out, rec)
	}
}

// ReadEquityCSV loads an equity curve CSV written by CSVJournal.
func ReadEquityCSV(path string) ([]EquityRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	// header
	if _, err := r.Read(); err != nil {
		return nil, fmt.Errorf("read equity header: %w", err)
	}

	var out []EquityRecord
	for {
		row, err := r.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		if len(row) < 2 {
			continue
		}
		t, err := time.Parse(time.RFC3339, row[0])
		if err != nil {
			return nil, fmt.Errorf("bad equity time %q: %w", row[0], err)
		}
		var fp fieldParser
		eq := fp.float(row[1])
		if fp.err != nil {
			return nil, fmt.Errorf("bad equity value %q: %w", row[1], fp.err)
		}
		out = append(out, EquityRecord{Time: t, Equity: eq})
	}
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}

// fieldParser accumulates the first numeric parse failure across a row, so
// a corrupted field surfaces as a read error instead of a silent zero.
type fieldParser struct {
	err error
}

func (p *fieldParser) float(s string) float64 {
	if p.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.err = err
		return 0
	}
	return v
}
