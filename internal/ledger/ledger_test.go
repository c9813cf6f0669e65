package ledger

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ts = time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)

func TestAdd_volumeWeightedAverage(t *testing.T) {
	t.Parallel()

	tbl := []struct {
		fills   [][2]float64 // price, volume
		wantAvg float64
		wantVol int64
	}{
		{fills: [][2]float64{{100, 10}}, wantAvg: 100, wantVol: 10},
		{fills: [][2]float64{{100, 10}, {110, 10}}, wantAvg: 105, wantVol: 20},
		{fills: [][2]float64{{100, 10}, {110, 30}}, wantAvg: 107.5, wantVol: 40},
		{fills: [][2]float64{{50, 1}, {60, 1}, {70, 1}, {80, 1}}, wantAvg: 65, wantVol: 4},
	}

	for i, c := range tbl {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			p := Position{Symbol: "AAA", Side: Buy, Volume: int64(c.fills[0][1]), AvgPrice: c.fills[0][0], OpenTime: ts}
			for _, f := range c.fills[1:] {
				tr := NewTrade("AAA", Buy, f[0], int64(f[1]), ts, "")
				require.NoError(t, p.Add(tr))
			}

			assert.InDelta(t, c.wantAvg, p.AvgPrice, 1e-9)
			assert.Equal(t, c.wantVol, p.Volume)
		})
	}
}

func TestReduce_realizedPnL(t *testing.T) {
	t.Parallel()

	tbl := []struct {
		side    Side
		avg     float64
		vol     int64
		price   float64
		tradeV  int64
		wantPnL float64
		wantRet float64
		wantVol int64
	}{
		// Long closed in profit.
		{side: Buy, avg: 100, vol: 10, price: 110, tradeV: 10, wantPnL: 100, wantRet: 0.10, wantVol: 0},
		// Long partial close in loss.
		{side: Buy, avg: 100, vol: 10, price: 95, tradeV: 4, wantPnL: -20, wantRet: -0.05, wantVol: 6},
		// Short closed in profit.
		{side: Sell, avg: 100, vol: 10, price: 90, tradeV: 10, wantPnL: 100, wantRet: 0.10, wantVol: 0},
		// Short partial close in loss.
		{side: Sell, avg: 100, vol: 10, price: 104, tradeV: 5, wantPnL: -20, wantRet: -0.04, wantVol: 5},
	}

	for i, c := range tbl {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			p := Position{Symbol: "AAA", Side: c.side, Volume: c.vol, AvgPrice: c.avg, OpenTime: ts}
			tr := NewTrade("AAA", c.side.Opposite(), c.price, c.tradeV, ts, "")

			require.NoError(t, p.Reduce(&tr))

			assert.InDelta(t, c.wantPnL, tr.RealizedPnL, 1e-9)
			assert.InDelta(t, c.wantRet, tr.RealizedReturn, 1e-9)
			assert.Equal(t, c.wantVol, p.Volume)
			if c.wantVol > 0 {
				assert.Equal(t, c.side, p.Side)
			}
		})
	}
}

func TestReduce_flip(t *testing.T) {
	t.Parallel()

	p := Position{Symbol: "AAA", Side: Buy, Volume: 10, AvgPrice: 100, OpenTime: ts}
	tr := NewTrade("AAA", Sell, 110, 25, ts, "")

	require.NoError(t, p.Reduce(&tr))

	// Realized PnL covers only the matched volume.
	assert.InDelta(t, 100.0, tr.RealizedPnL, 1e-9)
	assert.InDelta(t, 0.10, tr.RealizedReturn, 1e-9)

	// The leftover opens the opposite way at the fill price.
	assert.Equal(t, Sell, p.Side)
	assert.Equal(t, int64(15), p.Volume)
	assert.InDelta(t, 110.0, p.AvgPrice, 1e-9)
	assert.True(t, p.IsOpen())
}

func TestReduce_invariants(t *testing.T) {
	t.Parallel()

	p := Position{Symbol: "AAA", Side: Buy, Volume: 10, AvgPrice: 100, OpenTime: ts}

	same := NewTrade("AAA", Buy, 110, 5, ts, "")
	err := p.Reduce(&same)
	assert.ErrorIs(t, err, ErrSideMismatch)

	other := NewTrade("BBB", Sell, 110, 5, ts, "")
	err = p.Reduce(&other)
	assert.ErrorIs(t, err, ErrSymbolMismatch)

	zeroVol := NewTrade("AAA", Sell, 110, 0, ts, "")
	err = p.Reduce(&zeroVol)
	assert.ErrorIs(t, err, ErrInvalidVolume)

	degenerate := Position{Symbol: "AAA", Side: Buy, Volume: 10, AvgPrice: 0, OpenTime: ts}
	tr := NewTrade("AAA", Sell, 110, 5, ts, "")
	err = degenerate.Reduce(&tr)
	assert.ErrorIs(t, err, ErrInvalidPrice)
}

func TestAdd_invariants(t *testing.T) {
	t.Parallel()

	p := Position{Symbol: "AAA", Side: Buy, Volume: 10, AvgPrice: 100, OpenTime: ts}

	opp := NewTrade("AAA", Sell, 110, 5, ts, "")
	assert.ErrorIs(t, p.Add(opp), ErrSideMismatch)

	other := NewTrade("BBB", Buy, 110, 5, ts, "")
	assert.ErrorIs(t, p.Add(other), ErrSymbolMismatch)
}

func TestBook_lifecycle(t *testing.T) {
	t.Parallel()

	b := NewBook()

	open, err := b.Open("AAA", 100, 10, Buy, ts, "open long")
	require.NoError(t, err)
	assert.NotEmpty(t, open.ID)

	// Second open for the same symbol fails.
	_, err = b.Open("AAA", 101, 5, Buy, ts, "")
	assert.ErrorIs(t, err, ErrPositionExists)

	closed, err := b.Reduce(NewTrade("AAA", Sell, 110, 10, ts.Add(time.Hour), "close long"))
	require.NoError(t, err)
	assert.InDelta(t, 100.0, closed.RealizedPnL, 1e-9)

	_, ok := b.Position("AAA")
	assert.False(t, ok, "fully closed position should be removed")

	// The trade log is append-only and keeps both fills.
	trades := b.Trades("AAA")
	require.Len(t, trades, 2)
	assert.Equal(t, "open long", trades[0].Comment)
	assert.InDelta(t, 0.10, trades[1].RealizedReturn, 1e-9)

	// Reducing a flat symbol fails loudly.
	_, err = b.Reduce(NewTrade("AAA", Sell, 110, 10, ts, ""))
	assert.ErrorIs(t, err, ErrNoPosition)
}

func TestBook_flipKeepsPositionOpen(t *testing.T) {
	t.Parallel()

	b := NewBook()
	_, err := b.Open("AAA", 100, 10, Buy, ts, "")
	require.NoError(t, err)

	_, err = b.Reduce(NewTrade("AAA", Sell, 105, 30, ts, ""))
	require.NoError(t, err)

	p, ok := b.Position("AAA")
	require.True(t, ok)
	assert.Equal(t, Sell, p.Side)
	assert.Equal(t, int64(20), p.Volume)
	assert.InDelta(t, 105.0, p.AvgPrice, 1e-9)
}

func TestBook_openRejectsDegenerateFills(t *testing.T) {
	t.Parallel()

	b := NewBook()

	_, err := b.Open("AAA", 0, 10, Buy, ts, "")
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = b.Open("AAA", 100, 0, Buy, ts, "")
	assert.ErrorIs(t, err, ErrInvalidVolume)
}
