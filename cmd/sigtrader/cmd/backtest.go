package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quantden/sigtrader/backtest"
	"github.com/quantden/sigtrader/config"
	"github.com/quantden/sigtrader/indicators"
	"github.com/quantden/sigtrader/internal/logger"
	"github.com/quantden/sigtrader/journal"
	"github.com/quantden/sigtrader/report"
	"github.com/quantden/sigtrader/strategies"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay historical data through a strategy and report the results",
	Long: `Backtest replays a chronological data file through one strategy,
holding at most one open position per instrument, and prints a
performance report when the replay completes.

The data file is either a precomputed indicator snapshot CSV or, with
--candles, a raw OHLCV file that is run through the indicator pipeline
first. Files ending in .xz are decompressed transparently.

Example:
  sigtrader backtest --config engine.yaml
  sigtrader backtest --data eurusd.csv.xz --candles --strategy momentum`,
	RunE: runBacktest,
}

var (
	btConfigPath string
	btDataPath   string
	btCandles    bool
	btStrategy   string
	btInstrument string
	btBalance    float64
	btRisk       float64
	btFrom       string
	btTo         string
	btCloseEnd   bool
	btDBPath     string
	btTrades     string
	btEquity     string
	btParquet    string
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btConfigPath, "config", "c", "", "path to engine config (YAML or JSON)")
	backtestCmd.Flags().StringVarP(&btDataPath, "data", "d", "", "path to snapshot or candle CSV (overrides config)")
	backtestCmd.Flags().BoolVar(&btCandles, "candles", false, "treat data file as raw OHLCV candles")
	backtestCmd.Flags().StringVarP(&btStrategy, "strategy", "s", "", "strategy name (mean-reversion, momentum)")
	backtestCmd.Flags().StringVarP(&btInstrument, "instrument", "i", "", "instrument label for the run")
	backtestCmd.Flags().Float64VarP(&btBalance, "balance", "b", 0, "starting equity")
	backtestCmd.Flags().Float64Var(&btRisk, "risk", 0, "risk per trade as a fraction of equity")
	backtestCmd.Flags().StringVar(&btFrom, "from", "", "only replay snapshots at or after this RFC3339 time")
	backtestCmd.Flags().StringVar(&btTo, "to", "", "only replay snapshots before this RFC3339 time")
	backtestCmd.Flags().BoolVar(&btCloseEnd, "close-end", true, "close an open position at the last snapshot")
	backtestCmd.Flags().StringVar(&btDBPath, "db", "", "journal trades to this SQLite database")
	backtestCmd.Flags().StringVar(&btTrades, "trades", "", "journal trades to this CSV file")
	backtestCmd.Flags().StringVar(&btEquity, "equity", "", "journal equity curve to this CSV file (with --trades)")
	backtestCmd.Flags().StringVar(&btParquet, "parquet", "", "export closed trades to this Parquet file")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := logger.New(verbose)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync()

	cfg.Strategy.Logger = log
	strat, err := strategies.New(cfg.Backtest.Strategy, cfg.Strategy)
	if err != nil {
		return fmt.Errorf("strategy: %w", err)
	}

	feed, err := openFeed(cfg)
	if err != nil {
		return err
	}

	jnl, err := openJournal(cfg)
	if err != nil {
		feed.Close()
		return err
	}
	if jnl != nil {
		defer jnl.Close()
	}

	runner := &backtest.Runner{
		Strategy: strat,
		Feed:     feed,
		Journal:  jnl,
		Log:      log,
		Options: backtest.Options{
			Instrument:    cfg.Backtest.Instrument,
			InitialEquity: cfg.Account.Balance,
			RiskPerTrade:  cfg.Account.RiskPerTrade,
			CloseEnd:      cfg.Backtest.CloseEnd,
		},
	}

	fmt.Printf("Running backtest\n")
	fmt.Printf("  Strategy:   %s\n", cfg.Backtest.Strategy)
	fmt.Printf("  Instrument: %s\n", cfg.Backtest.Instrument)
	fmt.Printf("  Data:       %s\n\n", cfg.Backtest.DataFile)

	res, runErr := runner.Run(context.Background())
	if runErr != nil {
		var iv *backtest.InvariantViolationError
		if errors.As(runErr, &iv) {
			// Partial results are still reported so the failure point can
			// be located from the trades already closed.
			log.Error("replay aborted on invariant violation", zap.Error(iv))
		} else {
			return runErr
		}
	}

	trades, equity := report.FromResult(res)
	rep := report.Evaluate(trades, equity, cfg.Report)

	fmt.Printf("Backtest complete: %d snapshots (%d skipped), final equity %.2f\n\n",
		res.Snapshots, res.Skipped, res.FinalEquity)
	report.Print(os.Stdout, rep)

	if btParquet != "" {
		if err := journal.WriteTradesParquet(btParquet, trades); err != nil {
			return fmt.Errorf("parquet export: %w", err)
		}
		fmt.Printf("\nTrades exported to %s\n", btParquet)
	}

	return runErr
}

// loadConfig builds the effective configuration: file values first, then
// command-line overrides, validated as a whole.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if btConfigPath != "" {
		loaded, err := config.LoadFromFile(btConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	if btDataPath != "" {
		cfg.Backtest.DataFile = btDataPath
	}
	if btCandles {
		cfg.Backtest.Candles = true
	}
	if btStrategy != "" {
		cfg.Backtest.Strategy = btStrategy
	}
	if btInstrument != "" {
		cfg.Backtest.Instrument = btInstrument
	}
	if btBalance > 0 {
		cfg.Account.Balance = btBalance
	}
	if btRisk > 0 {
		cfg.Account.RiskPerTrade = btRisk
	}
	if btFrom != "" {
		cfg.Backtest.From = btFrom
	}
	if btTo != "" {
		cfg.Backtest.To = btTo
	}
	cfg.Backtest.CloseEnd = btCloseEnd
	if btDBPath != "" {
		cfg.Journal.Type = "sqlite"
		cfg.Journal.DBPath = btDBPath
	}
	if btTrades != "" {
		cfg.Journal.Type = "csv"
		cfg.Journal.TradesFile = btTrades
		cfg.Journal.EquityFile = btEquity
	}
	if cfg.Backtest.Instrument == "" {
		cfg.Backtest.Instrument = "UNKNOWN"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openFeed(cfg *config.Config) (backtest.SnapshotFeed, error) {
	from, to, err := parseRange(cfg.Backtest.From, cfg.Backtest.To)
	if err != nil {
		return nil, err
	}

	if cfg.Backtest.Candles {
		candles, err := indicators.LoadCandlesCSV(cfg.Backtest.DataFile)
		if err != nil {
			return nil, err
		}
		snaps, err := indicators.BuildSnapshots(candles, cfg.Indicators)
		if err != nil {
			return nil, err
		}
		if !from.IsZero() || !to.IsZero() {
			filtered := snaps[:0]
			for _, s := range snaps {
				if !from.IsZero() && s.Time.Before(from) {
					continue
				}
				if !to.IsZero() && !s.Time.Before(to) {
					continue
				}
				filtered = append(filtered, s)
			}
			snaps = filtered
		}
		return backtest.NewSliceFeed(snaps), nil
	}

	return backtest.NewCSVFeed(cfg.Backtest.DataFile, from, to)
}

func openJournal(cfg *config.Config) (journal.Journal, error) {
	switch cfg.Journal.Type {
	case "", "none":
		return nil, nil
	case "csv":
		return journal.NewCSV(cfg.Journal.TradesFile, cfg.Journal.EquityFile)
	case "sqlite":
		return journal.NewSQLite(cfg.Journal.DBPath)
	default:
		return nil, fmt.Errorf("unknown journal type %q", cfg.Journal.Type)
	}
}

func parseRange(fromStr, toStr string) (time.Time, time.Time, error) {
	var from, to time.Time
	var err error
	if fromStr != "" {
		if from, err = time.Parse(time.RFC3339, fromStr); err != nil {
			return from, to, fmt.Errorf("bad --from %q: %w", fromStr, err)
		}
	}
	if toStr != "" {
		if to, err = time.Parse(time.RFC3339, toStr); err != nil {
			return from, to, fmt.Errorf("bad --to %q: %w", toStr, err)
		}
	}
	return from, to, nil
}
