// Package strategy implements the trading strategies the backtest driver
// runs: an open-range breakout on top gap movers and a linear-regression
// band mean reversion.
package strategy

import (
	"context"
	"log/slog"
	"time"

	"github.com/lefterisnazos/intraday-trader/internal/ledger"
	"github.com/lefterisnazos/intraday-trader/internal/market"
	"github.com/lefterisnazos/intraday-trader/internal/platform"
)

// Strategy is what the backtest driver needs from a trading idea.
type Strategy interface {
	// Prepare fetches and derives the daily dataset the strategy selects
	// its universe from. A symbol whose fetch fails is excluded, not
	// fatal.
	Prepare(ctx context.Context, src platform.HistoricalData, symbols []string) (market.DailyData, error)

	// Universe returns the symbols eligible to trade on the given date
	// key. Called once per date, in date order, so strategies may refresh
	// per-date state here.
	Universe(date string, data market.DailyData) []string

	// SimulateDay steps one symbol through one session's intraday bars
	// and returns the realized or floating return. Ledger errors
	// propagate; they indicate a logic bug, not bad data.
	SimulateDay(symbol, date string, bars []market.Bar, book *ledger.Book) (float64, error)

	// Interval is the intraday bar granularity the strategy trades on.
	Interval() time.Duration
}

// fetchDaily pulls daily bars for every symbol in [start, end]. With
// avVolWindow > 0 the series is enriched with gap and trailing-volume
// fields; leading bars without a full window are dropped. A failed or
// empty fetch excludes the symbol from the dataset.
func fetchDaily(ctx context.Context, src platform.HistoricalData, symbols []string, start, end time.Time, avVolWindow int, log *slog.Logger) (market.DailyData, error) {
	data := make(market.DailyData, len(symbols))

	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		bars, err := src.DailyBars(ctx, symbol, start, end)
		if err != nil {
			log.Warn("daily fetch failed, excluding symbol", "symbol", symbol, "error", err)
			continue
		}
		if len(bars) == 0 {
			log.Warn("no daily bars, excluding symbol", "symbol", symbol)
			continue
		}

		if avVolWindow > 0 {
			data[symbol] = market.Enrich(market.Series{Symbol: symbol, Bars: bars}, avVolWindow)
			continue
		}

		days := make([]market.DailyBar, len(bars))
		for i, b := range bars {
			days[i] = market.DailyBar{Bar: b}
		}
		data[symbol] = market.NewDailySeries(symbol, days)
	}

	return data, nil
}
