package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/lefterisnazos/intraday-trader/internal/backtest"
	"github.com/lefterisnazos/intraday-trader/internal/config"
	"github.com/lefterisnazos/intraday-trader/internal/journal"
	"github.com/lefterisnazos/intraday-trader/internal/report"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run a strategy over a historical date range and evaluate it",
	Long: `Backtest fetches daily bars for the configured symbols, selects the trade
universe per date, replays each session's intraday bars through the strategy
and aggregates the per-date, per-symbol returns.

Example:
  trader backtest -c orb.yaml`,
	RunE: runBacktest,
}

func init() {
	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, _ []string) error {
	cfg, err := config.ReadFromFile(cfgPath)
	if err != nil {
		return err
	}

	log := slog.Default()

	strat, err := buildStrategy(cfg, log)
	if err != nil {
		return err
	}
	src, err := buildData(cfg, log)
	if err != nil {
		return err
	}

	var recorder backtest.TradeRecorder
	if cfg.Journal != "" {
		j, err := journal.Open(cfg.Journal)
		if err != nil {
			return err
		}
		defer j.Close()
		recorder = j
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	bt := backtest.New(strat, src, cfg.Symbols, recorder, log)
	if err := bt.Run(ctx); err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	rep := report.NewBuilder(log).Build(bt.Results())
	if err := writeOutputs(cfg, rep, bt); err != nil {
		return err
	}

	return rep.Write(os.Stdout)
}

func writeOutputs(cfg *config.Config, rep report.Report, bt *backtest.Backtester) error {
	if cfg.Report != "" {
		if err := writeFile(cfg.Report, rep.Write); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
	}
	if cfg.ResultsCSV != "" {
		err := writeFile(cfg.ResultsCSV, func(w io.Writer) error {
			return report.WriteCSV(w, bt.Results())
		})
		if err != nil {
			return fmt.Errorf("writing results csv: %w", err)
		}
	}
	if cfg.Chart != "" {
		if err := report.Chart(bt.Results(), cfg.Chart); err != nil {
			return fmt.Errorf("writing chart: %w", err)
		}
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
