// Package platform abstracts the external collaborators: a historical
// bar-data service and, for the live runner, an order-placement service.
package platform

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lefterisnazos/intraday-trader/internal/ledger"
	"github.com/lefterisnazos/intraday-trader/internal/market"
)

// HistoricalData fetches OHLCV bars. Calls are synchronous and one request
// at a time; each call owns its result, so there is no shared request-id
// buffer to race on.
type HistoricalData interface {
	// DailyBars returns the symbol's daily bars with timestamps in
	// [start, end], oldest first.
	DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]market.Bar, error)

	// IntradayBars returns the symbol's session bars for one date key at
	// the given granularity, oldest first. An empty slice means the
	// symbol did not trade that day.
	IntradayBars(ctx context.Context, symbol, date string, interval time.Duration) ([]market.Bar, error)
}

// Fill is one live execution report.
type Fill struct {
	Symbol string
	Side   ledger.Side
	Price  decimal.Decimal
	Qty    decimal.Decimal
	Time   time.Time
	ID     string
}

// OrderPlacer submits market orders and reports their fills.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, symbol string, side ledger.Side, qty decimal.Decimal) (Fill, error)
}

// Quoter supplies the latest bar for a symbol, used by the live runner to
// mark positions and evaluate signals between sessions.
type Quoter interface {
	LatestBar(ctx context.Context, symbol string) (market.Bar, error)
}
