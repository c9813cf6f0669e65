package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/lefterisnazos/intraday-trader/internal/config"
	"github.com/lefterisnazos/intraday-trader/internal/indicator"
	"github.com/lefterisnazos/intraday-trader/internal/platform"
	"github.com/lefterisnazos/intraday-trader/internal/platform/alpaca"
	"github.com/lefterisnazos/intraday-trader/internal/platform/csvdata"
	"github.com/lefterisnazos/intraday-trader/internal/sim"
	"github.com/lefterisnazos/intraday-trader/internal/strategy"
)

// buildStrategy turns the config's tagged strategy variant into a concrete
// strategy, starting from the defaults and overriding only what the config
// sets.
func buildStrategy(cfg *config.Config, log *slog.Logger) (strategy.Strategy, error) {
	switch s := cfg.StrategyRef.Strategy.(type) {
	case config.ORB:
		c := strategy.DefaultORBConfig(cfg.Start, cfg.End)
		if s.TopGappers > 0 {
			c.TopGappers = s.TopGappers
		}
		if s.AvVolWindow > 0 {
			c.AvVolWindow = s.AvVolWindow
		}
		if s.TakeProfit > 0 {
			c.TakeProfit = s.TakeProfit
		}
		if s.StopLoss > 0 {
			c.StopLoss = s.StopLoss
		}
		if s.BarsPerSession > 0 {
			c.BarsPerSession = s.BarsPerSession
		}
		if s.IntervalMinutes > 0 {
			c.Interval = time.Duration(s.IntervalMinutes) * time.Minute
		}
		applySim(&c.Sim, s.Volume, s.EntryWeight, s.ForceFlatAtClose)
		return strategy.NewOpenRangeBreakout(c, log), nil

	case config.LinReg:
		c := strategy.DefaultLinRegConfig(cfg.Start, cfg.End)
		if s.MediumLookback > 0 {
			c.MediumLookback = s.MediumLookback
		}
		if s.LongLookback > 0 {
			c.LongLookback = s.LongLookback
		}
		if s.EntrySigmas > 0 {
			c.EntrySigmas = s.EntrySigmas
		}
		if s.StopSigmas > 0 {
			c.StopSigmas = s.StopSigmas
		}
		if s.SigmaSource != "" {
			c.SigmaSource = indicator.SigmaSource(s.SigmaSource)
		}
		if s.IntervalMinutes > 0 {
			c.Interval = time.Duration(s.IntervalMinutes) * time.Minute
		}
		applySim(&c.Sim, s.Volume, s.EntryWeight, s.ForceFlatAtClose)
		return strategy.NewLinRegSigma(c, log), nil

	default:
		return nil, fmt.Errorf("no strategy configured")
	}
}

func applySim(c *sim.Config, volume int64, entryWeight float64, forceFlat *bool) {
	if volume > 0 {
		c.Volume = volume
	}
	if entryWeight > 0 {
		c.EntryWeight = entryWeight
	}
	if forceFlat != nil {
		c.ForceFlatAtClose = *forceFlat
	}
}

func buildData(cfg *config.Config, log *slog.Logger) (platform.HistoricalData, error) {
	switch p := cfg.PlatformRef.Platform.(type) {
	case config.Alpaca:
		return alpaca.New(alpacaConfig(p), log), nil
	case config.CSV:
		return csvdata.New(p.Dir, time.Duration(p.BarMinutes)*time.Minute, log), nil
	default:
		return nil, fmt.Errorf("no platform configured")
	}
}

func alpacaConfig(p config.Alpaca) alpaca.Config {
	return alpaca.Config{
		APIKey:       p.ApiKey,
		APISecret:    p.Secret,
		DataBaseURL:  p.DataUrl,
		TradeBaseURL: p.TradeUrl,
		Feed:         p.Feed,
	}
}
