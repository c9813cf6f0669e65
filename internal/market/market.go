// Package market holds the bar data model shared by the backtester, the
// strategies and the live runner: raw OHLCV bars, per-symbol series and the
// daily datasets the universe selection works on.
package market

import (
	"sort"
	"time"
)

// DateLayout is the canonical key format for per-date maps (result matrix,
// universe selection).
const DateLayout = "2006-01-02"

type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// DateOf returns the date key a bar timestamp belongs to.
func DateOf(t time.Time) string {
	return t.Format(DateLayout)
}

// Series is a time-ordered sequence of bars for one symbol at one
// granularity. Bars are immutable once fetched.
type Series struct {
	Symbol string
	Bars   []Bar
}

// Between returns the sub-series with bar times in [start, end].
func (s Series) Between(start, end time.Time) Series {
	var bars []Bar
	for _, b := range s.Bars {
		if b.Time.Before(start) || b.Time.After(end) {
			continue
		}
		bars = append(bars, b)
	}
	return Series{Symbol: s.Symbol, Bars: bars}
}

// OnDate returns the bars whose timestamp falls on the given date key.
func (s Series) OnDate(date string) []Bar {
	var bars []Bar
	for _, b := range s.Bars {
		if DateOf(b.Time) == date {
			bars = append(bars, b)
		}
	}
	return bars
}

// Closes returns the close prices of the series in bar order.
func (s Series) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

func (s *Series) Sort() {
	sort.Slice(s.Bars, func(i, j int) bool {
		return s.Bars[i].Time.Before(s.Bars[j].Time)
	})
}
