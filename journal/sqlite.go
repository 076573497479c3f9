package journal

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteJournal persists trades and equity in a SQLite database.
type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordTrade(t TradeRecord) error {
	if t.TradeID == "" {
		t.TradeID = newTradeID()
	}
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, instrument, strategy, direction, units, entry_price, exit_price,
		 entry_time, exit_time, pnl, pnl_pct, reward_risk, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.Instrument, t.Strategy, t.Direction, t.Units,
		t.EntryPrice, t.ExitPrice, t.EntryTime, t.ExitTime,
		t.PnL, t.PnLPct, t.RewardRisk, t.Reason,
	)
	return err
}

func (j *SQLiteJournal) RecordEquity(e EquityRecord) error {
	_, err := j.db.Exec(`INSERT INTO equity (time, equity) VALUES (?, ?)`, e.Time, e.Equity)
	return err
}

// ListTrades returns every persisted trade ordered by exit time.
func (j *SQLiteJournal) ListTrades() ([]TradeRecord, error) {
	return j.queryTrades(`SELECT trade_id, instrument, strategy, direction, units,
		entry_price, exit_price, entry_time, exit_time, pnl, pnl_pct, reward_risk, reason
		FROM trades ORDER BY exit_time, trade_id`)
}

// ListTradesClosedBetween returns trades with exit_time in [from, to).
func (j *SQLiteJournal) ListTradesClosedBetween(from, to time.Time) ([]TradeRecord, error) {
	return j.queryTrades(`SELECT trade_id, instrument, strategy, direction, units,
		entry_price, exit_price, entry_time, exit_time, pnl, pnl_pct, reward_risk, reason
		FROM trades WHERE exit_time >= ? AND exit_time < ? ORDER BY exit_time, trade_id`, from, to)
}

// ListEquity returns the persisted equity curve in time order.
func (j *SQLiteJournal) ListEquity() ([]EquityRecord, error) {
	rows, err := j.db.Query(`SELECT time, equity FROM equity ORDER BY time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquityRecord
	for rows.Next() {
		var e EquityRecord
		if err := rows.Scan(&e.Time, &e.Equity); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (j *SQLiteJournal) queryTrades(q string, args ...any) ([]TradeRecord, error) {
	rows, err := j.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var t TradeRecord
		err := rows.Scan(&t.TradeID, &t.Instrument, &t.Strategy, &t.Direction, &t.Units,
			&t.EntryPrice, &t.ExitPrice, &t.EntryTime, &t.ExitTime,
			&t.PnL, &t.PnLPct, &t.RewardRisk, &t.Reason)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
