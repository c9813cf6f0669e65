package alpaca

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lefterisnazos/intraday-trader/internal/ledger"
)

var testLog = slog.New(slog.NewTextHandler(io.Discard, nil))

type mockDataAPI struct {
	lastSymbol string
	lastReq    marketdata.GetBarsRequest
	bars       []marketdata.Bar
	err        error
}

func (m *mockDataAPI) GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error) {
	m.lastSymbol = symbol
	m.lastReq = req
	return m.bars, m.err
}

func (m *mockDataAPI) GetLatestBar(symbol string, _ marketdata.GetLatestBarRequest) (*marketdata.Bar, error) {
	m.lastSymbol = symbol
	if m.err != nil {
		return nil, m.err
	}
	return &m.bars[len(m.bars)-1], nil
}

type mockTradeAPI struct {
	placed    []alpaca.PlaceOrderRequest
	placeErr  error
	fillPrice decimal.Decimal
	pollsLeft int
}

func (m *mockTradeAPI) PlaceOrder(req alpaca.PlaceOrderRequest) (*alpaca.Order, error) {
	if m.placeErr != nil {
		return nil, m.placeErr
	}
	m.placed = append(m.placed, req)
	return &alpaca.Order{ID: "ord-1"}, nil
}

func (m *mockTradeAPI) GetOrder(id string) (*alpaca.Order, error) {
	if m.pollsLeft > 0 {
		m.pollsLeft--
		return &alpaca.Order{ID: id}, nil
	}
	now := time.Now()
	return &alpaca.Order{ID: id, FilledAt: &now, FilledAvgPrice: &m.fillPrice, FilledQty: decimal.NewFromInt(10)}, nil
}

func TestDailyBars_conversion(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 1, 8, 5, 0, 0, 0, time.UTC)
	data := &mockDataAPI{bars: []marketdata.Bar{
		{Timestamp: ts, Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 12345},
	}}
	p := newWithAPI(Config{Feed: "iex"}, data, nil, testLog)

	bars, err := p.DailyBars(context.Background(), "AAA", ts.AddDate(0, -1, 0), ts)
	require.NoError(t, err)

	assert.Equal(t, "AAA", data.lastSymbol)
	assert.Equal(t, marketdata.OneDay, data.lastReq.TimeFrame)
	assert.Equal(t, marketdata.Feed("iex"), data.lastReq.Feed)

	require.Len(t, bars, 1)
	assert.Equal(t, ts, bars[0].Time)
	assert.InDelta(t, 100.5, bars[0].Close, 1e-9)
	assert.InDelta(t, 12345.0, bars[0].Volume, 1e-9)
}

func TestIntradayBars_requestWindow(t *testing.T) {
	t.Parallel()

	data := &mockDataAPI{}
	p := newWithAPI(Config{}, data, nil, testLog)

	_, err := p.IntradayBars(context.Background(), "AAA", "2024-01-08", 5*time.Minute)
	require.NoError(t, err)

	assert.Equal(t, marketdata.NewTimeFrame(5, marketdata.Min), data.lastReq.TimeFrame)
	assert.Equal(t, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), data.lastReq.Start)
	assert.Equal(t, time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC), data.lastReq.End)
}

func TestIntradayBars_badDate(t *testing.T) {
	t.Parallel()

	p := newWithAPI(Config{}, &mockDataAPI{}, nil, testLog)
	_, err := p.IntradayBars(context.Background(), "AAA", "Jan 8", 5*time.Minute)
	assert.Error(t, err)
}

func TestDailyBars_upstreamError(t *testing.T) {
	t.Parallel()

	upstream := errors.New("rate limited")
	p := newWithAPI(Config{}, &mockDataAPI{err: upstream}, nil, testLog)

	_, err := p.DailyBars(context.Background(), "AAA", time.Time{}, time.Time{})
	assert.ErrorIs(t, err, upstream)
}

func TestPlaceOrder_fillAfterPoll(t *testing.T) {
	t.Parallel()

	trading := &mockTradeAPI{fillPrice: decimal.NewFromFloat(101.5), pollsLeft: 1}
	p := newWithAPI(Config{FillTimeout: 10 * time.Second}, nil, trading, testLog)

	fill, err := p.PlaceOrder(context.Background(), "AAA", ledger.Sell, decimal.NewFromInt(10))
	require.NoError(t, err)

	require.Len(t, trading.placed, 1)
	assert.Equal(t, alpaca.Sell, trading.placed[0].Side)
	assert.Equal(t, alpaca.Market, trading.placed[0].Type)

	assert.Equal(t, "ord-1", fill.ID)
	assert.Equal(t, ledger.Sell, fill.Side)
	assert.True(t, fill.Price.Equal(decimal.NewFromFloat(101.5)))
}

func TestPlaceOrder_fillTimeout(t *testing.T) {
	t.Parallel()

	trading := &mockTradeAPI{pollsLeft: 1 << 30}
	p := newWithAPI(Config{FillTimeout: 1500 * time.Millisecond}, nil, trading, testLog)

	_, err := p.PlaceOrder(context.Background(), "AAA", ledger.Buy, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
