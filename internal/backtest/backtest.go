// Package backtest drives a strategy across a date range: fetch, select,
// simulate, aggregate.
package backtest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lefterisnazos/intraday-trader/internal/ledger"
	"github.com/lefterisnazos/intraday-trader/internal/metrics"
	"github.com/lefterisnazos/intraday-trader/internal/platform"
	"github.com/lefterisnazos/intraday-trader/internal/strategy"
)

// TradeRecorder persists ledger trades after a run. The journal implements
// it; a nil recorder disables persistence.
type TradeRecorder interface {
	Record(t ledger.Trade) error
}

type Backtester struct {
	log      *slog.Logger
	strat    strategy.Strategy
	src      platform.HistoricalData
	recorder TradeRecorder
	symbols  []string

	book    *ledger.Book
	results metrics.Results
}

func New(strat strategy.Strategy, src platform.HistoricalData, symbols []string, recorder TradeRecorder, log *slog.Logger) *Backtester {
	return &Backtester{
		log:      log,
		strat:    strat,
		src:      src,
		recorder: recorder,
		symbols:  symbols,
		book:     ledger.NewBook(),
		results:  make(metrics.Results),
	}
}

// Run walks the prepared dataset date by date. Every intraday fetch is
// sequential; a fetch failure or an empty session scores the symbol zero for
// that date and the run continues. Ledger errors abort: they mean a logic
// bug, not bad data.
func (b *Backtester) Run(ctx context.Context) error {
	data, err := b.strat.Prepare(ctx, b.src, b.symbols)
	if err != nil {
		return fmt.Errorf("preparing daily data: %w", err)
	}

	dates := data.Dates()
	b.log.Info("starting backtest", "symbols", len(b.symbols), "dates", len(dates))

	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			return err
		}

		for _, symbol := range b.strat.Universe(date, data) {
			bars, err := b.src.IntradayBars(ctx, symbol, date, b.strat.Interval())
			if err != nil {
				b.log.Warn("intraday fetch failed, scoring zero", "symbol", symbol, "date", date, "error", err)
				b.results.Set(date, symbol, 0)
				continue
			}
			if len(bars) == 0 {
				b.results.Set(date, symbol, 0)
				continue
			}

			ret, err := b.strat.SimulateDay(symbol, date, bars, b.book)
			if err != nil {
				return fmt.Errorf("simulating %s on %s: %w", symbol, date, err)
			}
			b.results.Set(date, symbol, ret)
		}
	}

	if b.recorder != nil {
		for _, t := range b.book.AllTrades() {
			if err := b.recorder.Record(t); err != nil {
				return fmt.Errorf("recording trade %s: %w", t.ID, err)
			}
		}
	}

	return nil
}

// Evaluate aggregates the result matrix into the summary statistics.
func (b *Backtester) Evaluate() metrics.Summary {
	return metrics.Evaluate(b.results)
}

// Results returns the date -> symbol -> return matrix built by Run.
func (b *Backtester) Results() metrics.Results {
	return b.results
}

// Book exposes the ledger for trade-log inspection after a run.
func (b *Backtester) Book() *ledger.Book {
	return b.book
}
