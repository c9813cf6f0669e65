// Package alpaca backs the platform interfaces with the Alpaca market-data
// and trading APIs.
package alpaca

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"

	"github.com/lefterisnazos/intraday-trader/internal/ledger"
	"github.com/lefterisnazos/intraday-trader/internal/market"
	"github.com/lefterisnazos/intraday-trader/internal/platform"
)

type Config struct {
	APIKey    string
	APISecret string
	// DataBaseURL overrides the market-data endpoint, TradeBaseURL the
	// trading endpoint (paper vs. live).
	DataBaseURL  string
	TradeBaseURL string
	// Feed is the market-data feed, "iex" or "sip".
	Feed string
	// FillTimeout bounds how long an order may stay unfilled before the
	// placement is abandoned.
	FillTimeout time.Duration
}

type dataAPI interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
	GetLatestBar(symbol string, req marketdata.GetLatestBarRequest) (*marketdata.Bar, error)
}

type tradeAPI interface {
	PlaceOrder(req alpaca.PlaceOrderRequest) (*alpaca.Order, error)
	GetOrder(id string) (*alpaca.Order, error)
}

type Platform struct {
	log     *slog.Logger
	cfg     Config
	data    dataAPI
	trading tradeAPI
}

var (
	_ platform.HistoricalData = (*Platform)(nil)
	_ platform.OrderPlacer    = (*Platform)(nil)
	_ platform.Quoter         = (*Platform)(nil)
)

func New(cfg Config, log *slog.Logger) *Platform {
	if cfg.FillTimeout == 0 {
		cfg.FillTimeout = 5 * time.Second
	}

	data := marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    cfg.APIKey,
		APISecret: cfg.APISecret,
		BaseURL:   cfg.DataBaseURL,
	})
	trading := alpaca.NewClient(alpaca.ClientOpts{
		APIKey:    cfg.APIKey,
		APISecret: cfg.APISecret,
		BaseURL:   cfg.TradeBaseURL,
	})

	return newWithAPI(cfg, data, trading, log)
}

func newWithAPI(cfg Config, data dataAPI, trading tradeAPI, log *slog.Logger) *Platform {
	return &Platform{log: log, cfg: cfg, data: data, trading: trading}
}

func (p *Platform) DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]market.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bars, err := p.data.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     start,
		End:       end,
		Feed:      marketdata.Feed(p.cfg.Feed),
	})
	if err != nil {
		return nil, fmt.Errorf("fetching daily bars for %s: %w", symbol, err)
	}
	return convertBars(bars), nil
}

// IntradayBars fetches one session's bars in a single paged request for the
// whole calendar day.
func (p *Platform) IntradayBars(ctx context.Context, symbol, date string, interval time.Duration) ([]market.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	day, err := time.Parse(market.DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("parsing date %q: %w", date, err)
	}

	minutes := int(interval / time.Minute)
	if minutes < 1 {
		minutes = 1
	}

	bars, err := p.data.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame: marketdata.NewTimeFrame(minutes, marketdata.Min),
		Start:     day,
		End:       day.AddDate(0, 0, 1),
		Feed:      marketdata.Feed(p.cfg.Feed),
	})
	if err != nil {
		return nil, fmt.Errorf("fetching %s intraday bars for %s on %s: %w", interval, symbol, date, err)
	}
	return convertBars(bars), nil
}

func (p *Platform) LatestBar(ctx context.Context, symbol string) (market.Bar, error) {
	if err := ctx.Err(); err != nil {
		return market.Bar{}, err
	}

	b, err := p.data.GetLatestBar(symbol, marketdata.GetLatestBarRequest{
		Feed: marketdata.Feed(p.cfg.Feed),
	})
	if err != nil {
		return market.Bar{}, fmt.Errorf("fetching latest bar for %s: %w", symbol, err)
	}
	return convertBar(*b), nil
}

// PlaceOrder submits a market order and polls until it fills or the fill
// timeout expires.
func (p *Platform) PlaceOrder(ctx context.Context, symbol string, side ledger.Side, qty decimal.Decimal) (platform.Fill, error) {
	ord, err := p.trading.PlaceOrder(alpaca.PlaceOrderRequest{
		Symbol:      symbol,
		Side:        orderSide(side),
		Qty:         &qty,
		Type:        alpaca.Market,
		TimeInForce: alpaca.Day,
	})
	if err != nil {
		return platform.Fill{}, fmt.Errorf("placing %s order for %s: %w", side, symbol, err)
	}

	p.log.Info("order placed", "symbol", symbol, "side", side, "qty", qty, "order", ord.ID)

	ctx, cancel := context.WithTimeout(ctx, p.cfg.FillTimeout)
	defer cancel()

	ord, err = p.waitFillOrder(ctx, ord)
	if err != nil {
		return platform.Fill{}, fmt.Errorf("waiting for fill of order %s: %w", ord.ID, err)
	}

	return platform.Fill{
		Symbol: symbol,
		Side:   side,
		Price:  *ord.FilledAvgPrice,
		Qty:    ord.FilledQty,
		Time:   *ord.FilledAt,
		ID:     ord.ID,
	}, nil
}

func (p *Platform) waitFillOrder(ctx context.Context, o *alpaca.Order) (*alpaca.Order, error) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return o, ctx.Err()
		case <-ticker.C:
			order, err := p.trading.GetOrder(o.ID)
			if err != nil {
				return o, fmt.Errorf("updating order state: %w", err)
			}
			if order.FilledAt != nil {
				return order, nil
			}
		}
	}
}

func orderSide(s ledger.Side) alpaca.Side {
	if s == ledger.Buy {
		return alpaca.Buy
	}
	return alpaca.Sell
}

func convertBars(bars []marketdata.Bar) []market.Bar {
	out := make([]market.Bar, len(bars))
	for i, b := range bars {
		out[i] = convertBar(b)
	}
	return out
}

func convertBar(b marketdata.Bar) market.Bar {
	return market.Bar{
		Time:   b.Timestamp,
		Open:   b.Open,
		High:   b.High,
		Low:    b.Low,
		Close:  b.Close,
		Volume: float64(b.Volume),
	}
}
