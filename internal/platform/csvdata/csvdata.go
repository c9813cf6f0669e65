// Package csvdata serves historical bars from local CSV files for offline
// backtests. The layout is one directory per symbol under the data root:
// <root>/<symbol>/daily.csv and <root>/<symbol>/intraday.csv, with intraday
// files at a fixed fine granularity that is resampled to the requested
// interval.
package csvdata

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lefterisnazos/intraday-trader/internal/market"
	"github.com/lefterisnazos/intraday-trader/internal/platform"
)

type Store struct {
	log *slog.Logger
	dir string
	// barDuration is the granularity the intraday files are stored at.
	barDuration time.Duration
}

var _ platform.HistoricalData = (*Store)(nil)

func New(dir string, barDuration time.Duration, log *slog.Logger) *Store {
	if barDuration <= 0 {
		barDuration = time.Minute
	}
	return &Store{log: log, dir: dir, barDuration: barDuration}
}

func (s *Store) DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]market.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	series, ok, err := s.read(symbol, "daily.csv")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	// end is a date, so include the whole of its day.
	return series.Between(start, end.AddDate(0, 0, 1).Add(-time.Nanosecond)).Bars, nil
}

func (s *Store) IntradayBars(ctx context.Context, symbol, date string, interval time.Duration) ([]market.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	series, ok, err := s.read(symbol, "intraday.csv")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	return market.Resample(series.OnDate(date), s.barDuration, interval), nil
}

func (s *Store) read(symbol, name string) (market.Series, bool, error) {
	path := filepath.Join(s.dir, symbol, name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		s.log.Warn("no bar file for symbol", "symbol", symbol, "path", path)
		return market.Series{}, false, nil
	}

	series, err := market.ReadSeriesCSV(path, symbol)
	if err != nil {
		return market.Series{}, false, fmt.Errorf("loading bars for %s: %w", symbol, err)
	}
	return series, true, nil
}
