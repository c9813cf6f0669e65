package csvdata

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lefterisnazos/intraday-trader/internal/market"
)

var testLog = slog.New(slog.NewTextHandler(io.Discard, nil))

func writeSeries(t *testing.T, dir, symbol, name string, bars []market.Bar) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Join(dir, symbol), 0o755))
	f, err := os.Create(filepath.Join(dir, symbol, name))
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, market.WriteSeriesCSV(f, market.Series{Symbol: symbol, Bars: bars}))
}

func TestDailyBars_rangeFilter(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	day := func(d int) market.Bar {
		return market.Bar{Time: time.Date(2024, 1, d, 5, 0, 0, 0, time.UTC), Open: 100, High: 101, Low: 99, Close: 100, Volume: 1000}
	}
	writeSeries(t, dir, "AAA", "daily.csv", []market.Bar{day(2), day(3), day(4), day(5)})

	s := New(dir, time.Minute, testLog)
	bars, err := s.DailyBars(context.Background(),
		"AAA",
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, bars, 2)
	assert.Equal(t, 3, bars[0].Time.Day())
	assert.Equal(t, 4, bars[1].Time.Day())
}

func TestIntradayBars_resamplesToInterval(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	t0 := time.Date(2024, 1, 8, 14, 30, 0, 0, time.UTC)
	var fine []market.Bar
	for i := 0; i < 10; i++ {
		fine = append(fine, market.Bar{
			Time:   t0.Add(time.Duration(i) * time.Minute),
			Open:   100 + float64(i),
			High:   101 + float64(i),
			Low:    99 + float64(i),
			Close:  100.5 + float64(i),
			Volume: 100,
		})
	}
	// A bar on another date must not leak into the session.
	fine = append(fine, market.Bar{Time: t0.AddDate(0, 0, 1), Open: 1, High: 1, Low: 1, Close: 1, Volume: 1})
	writeSeries(t, dir, "AAA", "intraday.csv", fine)

	s := New(dir, time.Minute, testLog)
	bars, err := s.IntradayBars(context.Background(), "AAA", "2024-01-08", 5*time.Minute)
	require.NoError(t, err)

	require.Len(t, bars, 2)
	assert.InDelta(t, 100.0, bars[0].Open, 1e-9)
	assert.InDelta(t, 105.0, bars[0].High, 1e-9)
	assert.InDelta(t, 500.0, bars[0].Volume, 1e-9)
	assert.InDelta(t, 109.5, bars[1].Close, 1e-9)
}

func TestMissingSymbolYieldsNoBars(t *testing.T) {
	t.Parallel()

	s := New(t.TempDir(), time.Minute, testLog)

	daily, err := s.DailyBars(context.Background(), "NOPE", time.Time{}, time.Now())
	require.NoError(t, err)
	assert.Empty(t, daily)

	intraday, err := s.IntradayBars(context.Background(), "NOPE", "2024-01-08", 5*time.Minute)
	require.NoError(t, err)
	assert.Empty(t, intraday)
}
