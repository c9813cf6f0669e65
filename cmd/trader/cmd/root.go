package cmd

import (
	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "trader",
	Short: "Intraday backtesting and live trading for US equities",
	Long: `Trader runs rule-based intraday strategies against historical bars or a
live brokerage account.

  - backtest: fetch daily and intraday bars, simulate a strategy day by day
    and report cumulative return, win rate and per-date results
  - live: trade the regression-band strategy against the Alpaca order API

Both commands are driven by a single YAML config; see the repository README
for the format.`,
}

// Execute runs the root command tree.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "trader.yaml", "path to the YAML config")
}
