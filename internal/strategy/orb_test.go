package strategy

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lefterisnazos/intraday-trader/internal/ledger"
	"github.com/lefterisnazos/intraday-trader/internal/market"
)

var (
	testLog   = slog.New(slog.NewTextHandler(io.Discard, nil))
	sessionT0 = time.Date(2024, 1, 8, 14, 30, 0, 0, time.UTC)
)

func dailyBar(date string, gap, avVol float64) market.DailyBar {
	ts, _ := time.Parse(market.DateLayout, date)
	return market.DailyBar{
		Bar:   market.Bar{Time: ts, Open: 100, High: 101, Low: 99, Close: 100, Volume: avVol},
		Gap:   gap,
		AvVol: avVol,
	}
}

func intradayBar(i int, o, h, l, c, v float64) market.Bar {
	return market.Bar{Time: sessionT0.Add(time.Duration(i) * 5 * time.Minute), Open: o, High: h, Low: l, Close: c, Volume: v}
}

func TestORB_universeTopGappers(t *testing.T) {
	t.Parallel()

	cfg := DefaultORBConfig(time.Time{}, time.Time{})
	cfg.TopGappers = 2
	s := NewOpenRangeBreakout(cfg, testLog)

	date := "2024-01-08"
	data := market.DailyData{
		"AAA": market.NewDailySeries("AAA", []market.DailyBar{dailyBar(date, 0.01, 1000)}),
		"BBB": market.NewDailySeries("BBB", []market.DailyBar{dailyBar(date, 0.08, 1000)}),
		"CCC": market.NewDailySeries("CCC", []market.DailyBar{dailyBar(date, 0.03, 1000)}),
		// No bar on the date: excluded, not ranked at zero.
		"DDD": market.NewDailySeries("DDD", []market.DailyBar{dailyBar("2024-01-05", 0.99, 1000)}),
	}

	assert.Equal(t, []string{"BBB", "CCC"}, s.Universe(date, data))
}

func TestORB_breakoutLongTakeProfit(t *testing.T) {
	t.Parallel()

	date := "2024-01-08"
	s := NewOpenRangeBreakout(DefaultORBConfig(time.Time{}, time.Time{}), testLog)
	// AvVol 7800 over 78 bars doubled => per-bar volume threshold 200.
	s.data = market.DailyData{
		"AAA": market.NewDailySeries("AAA", []market.DailyBar{dailyBar(date, 0.05, 7800)}),
	}

	bars := []market.Bar{
		intradayBar(0, 99, 100, 98, 99, 100), // opening range 98..100
		intradayBar(1, 99, 100, 98.5, 99.5, 500),
		intradayBar(2, 100, 101, 99.5, 100.5, 300), // spike on prev bar, high breaks 100
		intradayBar(3, 104, 106, 103, 105, 300),    // reaches 100*1.05
	}

	book := ledger.NewBook()
	ret, err := s.SimulateDay("AAA", date, bars, book)
	require.NoError(t, err)

	entry := 0.8*100 + 0.2*101
	assert.InDelta(t, 105.0/entry-1, ret, 1e-9)

	trades := book.Trades("AAA")
	require.Len(t, trades, 2)
	assert.Equal(t, ledger.Buy, trades[0].Side)
	assert.Equal(t, "long breakout", trades[0].Comment)
	assert.InDelta(t, 105.0, trades[1].Price, 1e-9)
	assert.Equal(t, "take profit", trades[1].Comment)
}

func TestORB_shortBreakoutStopLoss(t *testing.T) {
	t.Parallel()

	date := "2024-01-08"
	s := NewOpenRangeBreakout(DefaultORBConfig(time.Time{}, time.Time{}), testLog)
	s.data = market.DailyData{
		"AAA": market.NewDailySeries("AAA", []market.DailyBar{dailyBar(date, 0.05, 7800)}),
	}

	bars := []market.Bar{
		intradayBar(0, 99, 100, 98, 99, 100),
		intradayBar(1, 99, 99.5, 98.2, 98.5, 500),
		intradayBar(2, 98, 98.5, 97.5, 97.8, 300), // low breaks 98
		intradayBar(3, 101, 102.5, 101, 102, 300), // high reaches 100*1.02
	}

	book := ledger.NewBook()
	_, err := s.SimulateDay("AAA", date, bars, book)
	require.NoError(t, err)

	trades := book.Trades("AAA")
	require.Len(t, trades, 2)
	assert.Equal(t, ledger.Sell, trades[0].Side)
	assert.Equal(t, "stop loss", trades[1].Comment)
	assert.InDelta(t, 100*1.02, trades[1].Price, 1e-9)
}

func TestORB_noVolumeSpikeNoEntry(t *testing.T) {
	t.Parallel()

	date := "2024-01-08"
	s := NewOpenRangeBreakout(DefaultORBConfig(time.Time{}, time.Time{}), testLog)
	s.data = market.DailyData{
		"AAA": market.NewDailySeries("AAA", []market.DailyBar{dailyBar(date, 0.05, 7800)}),
	}

	bars := []market.Bar{
		intradayBar(0, 99, 100, 98, 99, 100),
		intradayBar(1, 100, 101, 99.5, 100.5, 150), // breakout bar, but prev volume below 200
		intradayBar(2, 101, 102, 100.5, 101.5, 150),
	}

	book := ledger.NewBook()
	ret, err := s.SimulateDay("AAA", date, bars, book)
	require.NoError(t, err)

	assert.Zero(t, ret)
	assert.Empty(t, book.Trades("AAA"))
}

func TestORB_missingDailyRow(t *testing.T) {
	t.Parallel()

	s := NewOpenRangeBreakout(DefaultORBConfig(time.Time{}, time.Time{}), testLog)
	s.data = market.DailyData{}

	ret, err := s.SimulateDay("AAA", "2024-01-08", []market.Bar{intradayBar(0, 99, 100, 98, 99, 100)}, ledger.NewBook())
	require.NoError(t, err)
	assert.Zero(t, ret)
}
