package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quantden/sigtrader/journal"
	"github.com/quantden/sigtrader/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Recompute a performance report from a trade journal",
	Long: `Report reads previously journaled trades and recomputes the full
performance report from the records alone. The numbers match what the
backtest printed when the journal was written.

Example:
  sigtrader report --db backtest.sqlite
  sigtrader report --trades trades.csv --equity equity.csv`,
	RunE: runReport,
}

var (
	repDBPath        string
	repTrades        string
	repEquity        string
	repParquet       string
	repAnnualization float64
	repBalance       float64
)

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&repDBPath, "db", "", "SQLite journal database")
	reportCmd.Flags().StringVar(&repTrades, "trades", "", "trades CSV file")
	reportCmd.Flags().StringVar(&repEquity, "equity", "", "equity curve CSV file (with --trades)")
	reportCmd.Flags().StringVar(&repParquet, "parquet", "", "trades Parquet file")
	reportCmd.Flags().Float64Var(&repAnnualization, "annualization", 252, "periods per year for Sharpe/Sortino scaling")
	reportCmd.Flags().Float64VarP(&repBalance, "balance", "b", 10_000, "starting equity of the run, used to rebuild the equity curve when the journal has none")
}

func runReport(cmd *cobra.Command, args []string) error {
	var (
		trades []journal.TradeRecord
		equity []journal.EquityRecord
		err    error
	)

	switch {
	case repDBPath != "":
		j, openErr := journal.NewSQLite(repDBPath)
		if openErr != nil {
			return fmt.Errorf("open db: %w", openErr)
		}
		defer j.Close()
		if trades, err = j.ListTrades(); err != nil {
			return err
		}
		if equity, err = j.ListEquity(); err != nil {
			return err
		}

	case repTrades != "":
		if trades, err = journal.ReadTradesCSV(repTrades); err != nil {
			return err
		}
		if repEquity != "" {
			if equity, err = journal.ReadEquityCSV(repEquity); err != nil {
				return err
			}
		}

	case repParquet != "":
		if trades, err = journal.ReadTradesParquet(repParquet); err != nil {
			return err
		}

	default:
		return fmt.Errorf("one of --db, --trades or --parquet is required")
	}

	if len(equity) == 0 {
		equity = equityFromTrades(trades, repBalance)
	}

	rep := report.Evaluate(trades, equity, report.Config{Annualization: repAnnualization})
	fmt.Printf("Report over %d journaled trades\n\n", len(trades))
	report.Print(os.Stdout, rep)
	return nil
}

// equityFromTrades rebuilds the equity curve from cumulative PnL over the
// given starting balance, for journals that persist no curve of their own.
// With the balance of the original run, the rebuilt curve matches the
// persisted one point for point.
func equityFromTrades(trades []journal.TradeRecord, balance float64) []journal.EquityRecord {
	if len(trades) == 0 {
		return nil
	}
	curve := make([]journal.EquityRecord, 0, len(trades)+1)
	equity := balance
	curve = append(curve, journal.EquityRecord{Time: trades[0].EntryTime, Equity: equity})
	for _, t := range trades {
		equity += t.PnL
		curve = append(curve, journal.EquityRecord{Time: t.ExitTime, Equity: equity})
	}
	return curve
}
