package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lefterisnazos/intraday-trader/internal/config"
	"github.com/lefterisnazos/intraday-trader/internal/indicator"
	"github.com/lefterisnazos/intraday-trader/internal/journal"
	"github.com/lefterisnazos/intraday-trader/internal/live"
	"github.com/lefterisnazos/intraday-trader/internal/platform/alpaca"
)

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "Trade the regression-band strategy against a live account",
	Long: `Live fits regression bands from daily history each morning, polls the
latest bar for every configured symbol and places market orders on band
crossings. Requires the alpaca platform in the config.

Example:
  trader live -c live.yaml`,
	RunE: runLive,
}

func init() {
	rootCmd.AddCommand(liveCmd)
}

func runLive(cmd *cobra.Command, _ []string) error {
	cfg, err := config.ReadFromFile(cfgPath)
	if err != nil {
		return err
	}

	ap, ok := cfg.PlatformRef.Platform.(config.Alpaca)
	if !ok {
		return fmt.Errorf("live trading requires the alpaca platform")
	}
	if len(cfg.Live.Symbols) == 0 {
		return fmt.Errorf("no live symbols configured")
	}

	log := slog.Default()
	platform := alpaca.New(alpacaConfig(ap), log)

	var recorder live.TradeRecorder
	if cfg.Journal != "" {
		j, err := journal.Open(cfg.Journal)
		if err != nil {
			return err
		}
		defer j.Close()
		recorder = j
	}

	lc := live.DefaultConfig(cfg.Live.Symbols)
	if cfg.Live.MediumLookback > 0 {
		lc.MediumLookback = cfg.Live.MediumLookback
	}
	if cfg.Live.LongLookback > 0 {
		lc.LongLookback = cfg.Live.LongLookback
	}
	if cfg.Live.EntrySigmas > 0 {
		lc.EntrySigmas = cfg.Live.EntrySigmas
	}
	if cfg.Live.StopSigmas > 0 {
		lc.StopSigmas = cfg.Live.StopSigmas
	}
	if cfg.Live.SigmaSource != "" {
		lc.SigmaSource = indicator.SigmaSource(cfg.Live.SigmaSource)
	}
	if cfg.Live.Volume > 0 {
		lc.Volume = cfg.Live.Volume
	}
	if cfg.Live.PollSeconds > 0 {
		lc.Poll = time.Duration(cfg.Live.PollSeconds) * time.Second
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting live runner", "symbols", lc.Symbols, "poll", lc.Poll)
	return live.NewRunner(lc, platform, platform, platform, recorder, log).Run(ctx)
}
