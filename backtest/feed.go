package backtest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/quantden/sigtrader/market"
)

// SnapshotFeed yields snapshots one at a time in timestamp order.
// Implementations should be deterministic and return (ok=false, err=nil)
// at EOF. The same contract serves a finite backtest dataset and an
// effectively unbounded live feed.
type SnapshotFeed interface {
	Next() (s market.Snapshot, ok bool, err error)
	Close() error
}

// SliceFeed replays an in-memory snapshot slice. Used by tests and by
// the indicator pipeline, which materializes whole datasets.
type SliceFeed struct {
	snaps []market.Snapshot
	i     int
}

func NewSliceFeed(snaps []market.Snapshot) *SliceFeed {
	return &SliceFeed{snaps: snaps}
}

func (f *SliceFeed) Next() (market.Snapshot, bool, error) {
	if f.i >= len(f.snaps) {
		return market.Snapshot{}, false, nil
	}
	s := f.snaps[f.i]
	f.i++
	return s, true, nil
}

func (f *SliceFeed) Close() error { return nil }

// CSVFeed reads snapshot rows from a CSV file. The header row names the
// columns; "time", "open", "high", "low", "close" are fixed, every other
// column becomes an indicator value under its header name:
//
//	time,open,high,low,close,rsi,atr,boll_lower,...
//
// time is RFC3339 or RFC3339Nano. Files ending in .xz are decompressed on
// the fly. Rows inside [From, To) pass the optional time filter; empty or
// short rows are skipped.
type CSVFeed struct {
	f    *os.File
	r    *csv.Reader
	from time.Time
	to   time.Time

	header []string
	prices map[string]int // column index of the fixed price fields
}

func NewCSVFeed(path string, from, to time.Time) (*CSVFeed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	var src io.Reader = f
	if strings.HasSuffix(path, ".xz") {
		xr, err := xz.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open xz dataset: %w", err)
		}
		src = xr
	}

	r := csv.NewReader(src)
	r.FieldsPerRecord = -1

	feed := &CSVFeed{f: f, r: r, from: from, to: to}
	if err := feed.readHeader(); err != nil {
		f.Close()
		return nil, err
	}
	return feed, nil
}

func (f *CSVFeed) readHeader() error {
	row, err := f.r.Read()
	if err != nil {
		return fmt.Errorf("read dataset header: %w", err)
	}

	f.header = make([]string, len(row))
	f.prices = make(map[string]int, 5)
	for i, col := range row {
		name := strings.ToLower(strings.TrimSpace(col))
		f.header[i] = name
		switch name {
		case "time", "open", "high", "low", "close":
			f.prices[name] = i
		}
	}
	if _, ok := f.prices["time"]; !ok {
		return fmt.Errorf("dataset header missing time column")
	}
	if _, ok := f.prices["close"]; !ok {
		return fmt.Errorf("dataset header missing close column")
	}
	return nil
}

func (f *CSVFeed) Close() error {
	if f.f != nil {
		return f.f.Close()
	}
	return nil
}

func (f *CSVFeed) Next() (market.Snapshot, bool, error) {
	for {
		row, err := f.r.Read()
		if err == io.EOF {
			return market.Snapshot{}, false, nil
		}
		if err != nil {
			return market.Snapshot{}, false, err
		}
		if len(row) < 2 {
			continue
		}
		// Ragged rows that truncate the fixed price columns are skipped
		// like any other short row.
		if len(row) <= f.prices["time"] || len(row) <= f.prices["close"] {
			continue
		}

		ts, err := parseTime(row[f.prices["time"]])
		if err != nil {
			return market.Snapshot{}, false, fmt.Errorf("bad timestamp %q: %w", row[f.prices["time"]], err)
		}
		if !f.from.IsZero() && ts.Before(f.from) {
			continue
		}
		if !f.to.IsZero() && !ts.Before(f.to) {
			continue
		}

		snap := market.Snapshot{Time: ts, Indicators: make(map[string]float64)}
		for i, name := range f.header {
			if i >= len(row) || name == "time" {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
			if err != nil {
				continue // absent value, Validate decides downstream
			}
			switch name {
			case "open":
				snap.Open = v
			case "high":
				snap.High = v
			case "low":
				snap.Low = v
			case "close":
				snap.Close = v
			default:
				snap.Indicators[name] = v
			}
		}
		return snap, true, nil
	}
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
