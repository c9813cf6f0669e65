package strategy

import (
	"context"
	"log/slog"
	"time"

	"github.com/lefterisnazos/intraday-trader/internal/indicator"
	"github.com/lefterisnazos/intraday-trader/internal/ledger"
	"github.com/lefterisnazos/intraday-trader/internal/market"
	"github.com/lefterisnazos/intraday-trader/internal/platform"
	"github.com/lefterisnazos/intraday-trader/internal/sim"
)

type LinRegConfig struct {
	Start time.Time
	End   time.Time
	// MediumLookback and LongLookback are the two regression windows, in
	// daily bars.
	MediumLookback int
	LongLookback   int
	// EntrySigmas is how far beyond both band centers the price must be
	// to open; StopSigmas anchors the stop on the medium band.
	EntrySigmas float64
	StopSigmas  float64
	SigmaSource indicator.SigmaSource
	// RefreshWeekday is the day the bands are refitted. Between
	// refreshes the same lines keep trading.
	RefreshWeekday time.Weekday
	Interval       time.Duration
	Sim            sim.Config
}

func DefaultLinRegConfig(start, end time.Time) LinRegConfig {
	return LinRegConfig{
		Start:          start,
		End:            end,
		MediumLookback: 50,
		LongLookback:   100,
		EntrySigmas:    2,
		StopSigmas:     3.5,
		SigmaSource:    indicator.SigmaCloses,
		RefreshWeekday: time.Friday,
		Interval:       10 * time.Minute,
		Sim:            sim.DefaultConfig(),
	}
}

type bandPair struct {
	medium indicator.Band
	long   indicator.Band
}

// LinRegSigma fades moves beyond regression bands on two lookback windows,
// taking profit back at the medium band's center. Bands are refitted once a
// week and reused between refreshes.
type LinRegSigma struct {
	log   *slog.Logger
	cfg   LinRegConfig
	data  market.DailyData
	bands map[string]bandPair
}

func NewLinRegSigma(cfg LinRegConfig, log *slog.Logger) *LinRegSigma {
	return &LinRegSigma{log: log, cfg: cfg, bands: make(map[string]bandPair)}
}

func (s *LinRegSigma) Prepare(ctx context.Context, src platform.HistoricalData, symbols []string) (market.DailyData, error) {
	data, err := fetchDaily(ctx, src, symbols, s.cfg.Start, s.cfg.End, 0, s.log)
	if err != nil {
		return nil, err
	}
	s.data = data
	return data, nil
}

// Universe trades every symbol with data on the date; there is no ranking.
// On the refresh weekday it refits both bands per symbol first, from the
// daily closes up to and including that date.
func (s *LinRegSigma) Universe(date string, data market.DailyData) []string {
	symbols := data.SymbolsOn(date)

	day, err := time.Parse(market.DateLayout, date)
	if err != nil {
		s.log.Warn("unparseable date key, skipping band refresh", "date", date, "error", err)
		return symbols
	}

	if day.Weekday() == s.cfg.RefreshWeekday {
		for _, symbol := range symbols {
			s.refit(symbol, date, data)
		}
	}
	return symbols
}

func (s *LinRegSigma) refit(symbol, date string, data market.DailyData) {
	days := data[symbol].UpTo(date)
	if len(days) < s.cfg.LongLookback {
		return
	}

	closes := make([]float64, len(days))
	for i, d := range days {
		closes[i] = d.Close
	}

	medium, err := indicator.FitBand(closes[len(closes)-s.cfg.MediumLookback:], s.cfg.SigmaSource)
	if err != nil {
		s.log.Warn("medium band fit failed", "symbol", symbol, "date", date, "error", err)
		return
	}
	long, err := indicator.FitBand(closes[len(closes)-s.cfg.LongLookback:], s.cfg.SigmaSource)
	if err != nil {
		s.log.Warn("long band fit failed", "symbol", symbol, "date", date, "error", err)
		return
	}

	s.bands[symbol] = bandPair{medium: medium, long: long}
}

func (s *LinRegSigma) SimulateDay(symbol, date string, bars []market.Bar, book *ledger.Book) (float64, error) {
	b, ok := s.bands[symbol]
	if !ok {
		return 0, nil
	}
	// Zero sigma disables crossings instead of firing on every bar.
	if !b.medium.Usable() || !b.long.Usable() {
		return 0, nil
	}

	plan := &bandPlan{
		medCenter:   b.medium.Center(),
		medSigma:    b.medium.Sigma,
		longCenter:  b.long.Center(),
		longSigma:   b.long.Sigma,
		entrySigmas: s.cfg.EntrySigmas,
		stopSigmas:  s.cfg.StopSigmas,
	}

	res, err := sim.Run(book, symbol, bars, plan, s.cfg.Sim)
	if err != nil {
		return 0, err
	}
	return res.Return, nil
}

func (s *LinRegSigma) Interval() time.Duration {
	return s.cfg.Interval
}

// bandPlan opens against moves beyond both bands and exits at the medium
// band: profit back at its center, stop beyond it.
type bandPlan struct {
	medCenter   float64
	medSigma    float64
	longCenter  float64
	longSigma   float64
	entrySigmas float64
	stopSigmas  float64
}

func (p *bandPlan) Entry(_ *market.Bar, cur market.Bar) (sim.Entry, bool) {
	price := cur.Close
	if price < p.medCenter-p.entrySigmas*p.medSigma && price < p.longCenter-p.entrySigmas*p.longSigma {
		return sim.Entry{Side: ledger.Buy, Comment: "long below lower bands"}, true
	}
	if price > p.medCenter+p.entrySigmas*p.medSigma && price > p.longCenter+p.entrySigmas*p.longSigma {
		return sim.Entry{Side: ledger.Sell, Comment: "short above upper bands"}, true
	}
	return sim.Entry{}, false
}

func (p *bandPlan) Exit(side ledger.Side, cur market.Bar) (sim.Exit, bool) {
	price := cur.Close

	if side == ledger.Buy {
		if price >= p.medCenter {
			return sim.Exit{Price: p.medCenter, Comment: "take profit"}, true
		}
		if sl := p.medCenter - p.stopSigmas*p.medSigma; price <= sl {
			return sim.Exit{Price: sl, Comment: "stop loss"}, true
		}
		return sim.Exit{}, false
	}

	if price <= p.medCenter {
		return sim.Exit{Price: p.medCenter, Comment: "take profit"}, true
	}
	if sl := p.medCenter + p.stopSigmas*p.medSigma; price >= sl {
		return sim.Exit{Price: sl, Comment: "stop loss"}, true
	}
	return sim.Exit{}, false
}
