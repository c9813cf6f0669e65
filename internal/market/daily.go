package market

import "sort"

// DailyBar couples one daily OHLCV bar with the derived fields used for
// universe selection.
type DailyBar struct {
	Bar
	// Gap is open/prev_close - 1, the overnight jump relative to the
	// previous session's close.
	Gap float64
	// AvVol is the trailing mean volume over the enrichment window,
	// shifted one bar so the current session's volume never leaks in.
	AvVol float64
}

// DailySeries is a symbol's daily bars indexed by date key.
type DailySeries struct {
	Symbol string
	Days   []DailyBar
	byDate map[string]int
}

func NewDailySeries(symbol string, days []DailyBar) DailySeries {
	byDate := make(map[string]int, len(days))
	for i, d := range days {
		byDate[DateOf(d.Time)] = i
	}
	return DailySeries{Symbol: symbol, Days: days, byDate: byDate}
}

// OnDate returns the daily bar for the given date key, if present.
func (s DailySeries) OnDate(date string) (DailyBar, bool) {
	i, ok := s.byDate[date]
	if !ok {
		return DailyBar{}, false
	}
	return s.Days[i], true
}

// UpTo returns the daily bars with dates <= the given date key.
func (s DailySeries) UpTo(date string) []DailyBar {
	var days []DailyBar
	for _, d := range s.Days {
		if DateOf(d.Time) > date {
			break
		}
		days = append(days, d)
	}
	return days
}

// Enrich computes Gap and AvVol for a daily series. Leading bars without a
// previous close or a full volume window are dropped, so every returned bar
// carries usable derived fields.
func Enrich(s Series, avVolWindow int) DailySeries {
	if avVolWindow < 1 {
		avVolWindow = 1
	}

	var days []DailyBar
	for i := avVolWindow; i < len(s.Bars); i++ {
		prevClose := s.Bars[i-1].Close
		if prevClose == 0 {
			continue
		}

		sum := 0.0
		for j := i - avVolWindow; j < i; j++ {
			sum += s.Bars[j].Volume
		}

		days = append(days, DailyBar{
			Bar:   s.Bars[i],
			Gap:   s.Bars[i].Open/prevClose - 1,
			AvVol: sum / float64(avVolWindow),
		})
	}

	return NewDailySeries(s.Symbol, days)
}

// DailyData maps a symbol to its enriched daily series.
type DailyData map[string]DailySeries

// Dates returns the sorted union of all date keys across symbols.
func (d DailyData) Dates() []string {
	seen := make(map[string]struct{})
	for _, s := range d {
		for _, day := range s.Days {
			seen[DateOf(day.Time)] = struct{}{}
		}
	}

	dates := make([]string, 0, len(seen))
	for date := range seen {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}

// SymbolsOn returns the symbols that have a daily bar on the given date,
// sorted for deterministic iteration. Symbols missing that date are simply
// absent, never scored.
func (d DailyData) SymbolsOn(date string) []string {
	var symbols []string
	for symbol, s := range d {
		if _, ok := s.OnDate(date); ok {
			symbols = append(symbols, symbol)
		}
	}
	sort.Strings(symbols)
	return symbols
}
