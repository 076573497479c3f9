package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sigtrader",
	Short: "A dual-strategy trading signal engine with replay and evaluation",
	Long: `Sigtrader generates, evaluates and replays trading signals built from
indicator snapshots.

It provides tools for:
  - Backtesting the mean-reversion and momentum strategies on historical data
  - Risk-based stop/target construction with a reward-to-risk floor
  - Trade journaling to CSV, SQLite or Parquet
  - Performance reports: win rate, realized R:R, Sharpe, Sortino, drawdown`,
}

var verbose bool

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
