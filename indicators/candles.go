package indicators

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

// LoadCandlesCSV reads an OHLCV candle file. The first row must be a
// header containing at least time, open, high, low and close columns;
// volume is optional. Files ending in .xz are decompressed transparently.
func LoadCandlesCSV(path string) ([]market.Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("candles: %w", err)
	}
	defer f.Close()

	var src io.Reader = f
	if strings.HasSuffix(path, ".xz") {
		xr, err := xz.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("candles: xz %s: %w", path, err)
		}
		src = xr
	}

	r := csv.NewReader(src)
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("candles: header %s: %w", path, err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"time", "open", "high", "low", "close"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("candles: %s missing column %q", path, required)
		}
	}

	var candles []market.Candle
	line := 1
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("candles: %s line %d: %w", path, line+1, err)
		}
		line++

		t, err := parseCandleTime(rec[col["time"]])
		if err != nil {
			return nil, fmt.Errorf("candles: %s line %d: %w", path, line, err)
		}
		c := market.Candle{Time: t}
		if c.Open, err = strconv.ParseFloat(rec[col["open"]], 64); err != nil {
			return nil, fmt.Errorf("candles: %s line %d open: %w", path, line, err)
		}
		if c.High, err = strconv.ParseFloat(rec[col["high"]], 64); err != nil {
			return nil, fmt.Errorf("candles: %s line %d high: %w", path, line, err)
		}
		if c.Low, err = strconv.ParseFloat(rec[col["low"]], 64); err != nil {
			return nil, fmt.Errorf("candles: %s line %d low: %w", path, line, err)
		}
		if c.Close, err = strconv.ParseFloat(rec[col["close"]], 64); err != nil {
			return nil, fmt.Errorf("candles: %s line %d close: %w", path, line, err)
		}
		if vi, ok := col["volume"]; ok && vi < len(rec) {
			c.Volume, _ = strconv.ParseFloat(rec[vi], 64)
		}
		candles = append(candles, c)
	}
	return candles, nil
}

func parseCandleTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}
