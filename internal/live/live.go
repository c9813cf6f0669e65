// Package live runs the regression-band strategy against a real order API:
// per-symbol loops poll the latest bar, trade band crossings with the same
// ledger bookkeeping as the backtest and persist every fill.
package live

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/lefterisnazos/intraday-trader/internal/indicator"
	"github.com/lefterisnazos/intraday-trader/internal/ledger"
	"github.com/lefterisnazos/intraday-trader/internal/market"
	"github.com/lefterisnazos/intraday-trader/internal/platform"
)

type Config struct {
	Symbols []string
	// MediumLookback and LongLookback are the daily-bar regression
	// windows; live runs use shorter windows than the backtest.
	MediumLookback int
	LongLookback   int
	EntrySigmas    float64
	StopSigmas     float64
	SigmaSource    indicator.SigmaSource
	// Volume is the share count per entry.
	Volume int64
	// Poll is how often each symbol loop asks for the latest bar.
	Poll time.Duration
}

func DefaultConfig(symbols []string) Config {
	return Config{
		Symbols:        symbols,
		MediumLookback: 20,
		LongLookback:   40,
		EntrySigmas:    2,
		StopSigmas:     4,
		SigmaSource:    indicator.SigmaCloses,
		Volume:         100,
		Poll:           time.Minute,
	}
}

// TradeRecorder persists fills as they happen; nil disables persistence.
type TradeRecorder interface {
	Record(t ledger.Trade) error
}

type bandPair struct {
	medium indicator.Band
	long   indicator.Band
}

func (b bandPair) usable() bool {
	return b.medium.Usable() && b.long.Usable()
}

type Runner struct {
	log      *slog.Logger
	cfg      Config
	data     platform.HistoricalData
	quotes   platform.Quoter
	orders   platform.OrderPlacer
	recorder TradeRecorder

	mu sync.Mutex // guards recorder
}

func NewRunner(cfg Config, data platform.HistoricalData, quotes platform.Quoter, orders platform.OrderPlacer, recorder TradeRecorder, log *slog.Logger) *Runner {
	return &Runner{
		log:      log,
		cfg:      cfg,
		data:     data,
		quotes:   quotes,
		orders:   orders,
		recorder: recorder,
	}
}

// Run trades every configured symbol until the context is canceled. Each
// symbol gets its own loop and its own book; a failed order placement is
// logged and retried on the next poll, never fatal to the group.
func (r *Runner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, symbol := range r.cfg.Symbols {
		symbol := symbol
		g.Go(func() error {
			return r.trade(ctx, symbol)
		})
	}
	return g.Wait()
}

func (r *Runner) trade(ctx context.Context, symbol string) error {
	book := ledger.NewBook()

	bands, err := r.fit(ctx, symbol)
	if err != nil {
		r.log.Warn("initial band fit failed, symbol idle until refresh", "symbol", symbol, "error", err)
	}
	fitDate := market.DateOf(time.Now())

	ticker := time.NewTicker(r.cfg.Poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			// Refit each morning so the bands track the latest closes.
			if today := market.DateOf(time.Now()); today != fitDate {
				b, err := r.fit(ctx, symbol)
				if err != nil {
					r.log.Warn("band refresh failed, keeping previous fit", "symbol", symbol, "error", err)
				} else {
					bands = b
					fitDate = today
				}
			}

			bar, err := r.quotes.LatestBar(ctx, symbol)
			if err != nil {
				r.log.Warn("latest bar fetch failed", "symbol", symbol, "error", err)
				continue
			}

			if err := r.step(ctx, symbol, bar, bands, book); err != nil {
				r.log.Error("trading step failed", "symbol", symbol, "error", err)
			}
		}
	}
}

func (r *Runner) fit(ctx context.Context, symbol string) (bandPair, error) {
	now := time.Now()
	// Fetch twice the long window in calendar days so weekends and
	// holidays still leave enough sessions.
	bars, err := r.data.DailyBars(ctx, symbol, now.AddDate(0, 0, -2*r.cfg.LongLookback), now)
	if err != nil {
		return bandPair{}, fmt.Errorf("fetching daily history: %w", err)
	}
	if len(bars) < r.cfg.LongLookback {
		return bandPair{}, fmt.Errorf("need %d daily bars, have %d", r.cfg.LongLookback, len(bars))
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	medium, err := indicator.FitBand(closes[len(closes)-r.cfg.MediumLookback:], r.cfg.SigmaSource)
	if err != nil {
		return bandPair{}, fmt.Errorf("fitting medium band: %w", err)
	}
	long, err := indicator.FitBand(closes[len(closes)-r.cfg.LongLookback:], r.cfg.SigmaSource)
	if err != nil {
		return bandPair{}, fmt.Errorf("fitting long band: %w", err)
	}

	return bandPair{medium: medium, long: long}, nil
}

func (r *Runner) step(ctx context.Context, symbol string, bar market.Bar, bands bandPair, book *ledger.Book) error {
	if !bands.usable() {
		return nil
	}

	price := bar.Close
	medCenter := bands.medium.Center()
	medSigma := bands.medium.Sigma
	longCenter := bands.long.Center()
	longSigma := bands.long.Sigma

	pos, open := book.Position(symbol)
	if !open {
		var side ledger.Side
		switch {
		case price < medCenter-r.cfg.EntrySigmas*medSigma && price < longCenter-r.cfg.EntrySigmas*longSigma:
			side = ledger.Buy
		case price > medCenter+r.cfg.EntrySigmas*medSigma && price > longCenter+r.cfg.EntrySigmas*longSigma:
			side = ledger.Sell
		default:
			return nil
		}

		fill, err := r.orders.PlaceOrder(ctx, symbol, side, decimal.NewFromInt(r.cfg.Volume))
		if err != nil {
			return fmt.Errorf("placing entry order: %w", err)
		}

		px, _ := fill.Price.Float64()
		t, err := book.Open(symbol, px, fill.Qty.IntPart(), side, fill.Time, "band entry")
		if err != nil {
			return fmt.Errorf("booking entry fill: %w", err)
		}

		r.log.Info("position opened", "symbol", symbol, "side", side, "price", px, "qty", fill.Qty)
		return r.record(t)
	}

	var comment string
	if pos.Side == ledger.Buy {
		switch {
		case price >= medCenter:
			comment = "take profit"
		case price <= medCenter-r.cfg.StopSigmas*medSigma:
			comment = "stop loss"
		default:
			return nil
		}
	} else {
		switch {
		case price <= medCenter:
			comment = "take profit"
		case price >= medCenter+r.cfg.StopSigmas*medSigma:
			comment = "stop loss"
		default:
			return nil
		}
	}

	fill, err := r.orders.PlaceOrder(ctx, symbol, pos.Side.Opposite(), decimal.NewFromInt(pos.Volume))
	if err != nil {
		return fmt.Errorf("placing exit order: %w", err)
	}

	px, _ := fill.Price.Float64()
	t, err := book.Reduce(ledger.NewTrade(symbol, pos.Side.Opposite(), px, fill.Qty.IntPart(), fill.Time, comment))
	if err != nil {
		return fmt.Errorf("booking exit fill: %w", err)
	}

	r.log.Info("position closed",
		"symbol", symbol,
		"comment", comment,
		"price", px,
		"realized_return", t.RealizedReturn)
	return r.record(t)
}

func (r *Runner) record(t ledger.Trade) error {
	if r.recorder == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.recorder.Record(t); err != nil {
		return fmt.Errorf("recording fill: %w", err)
	}
	return nil
}
