// Package metrics aggregates a backtest's result matrix into portfolio-level
// performance numbers.
package metrics

import (
	"math"
	"sort"
)

// Results is the backtest output: date key -> symbol -> realized or floating
// return for that day.
type Results map[string]map[string]float64

// Dates returns the matrix's date keys in ascending order.
func (r Results) Dates() []string {
	dates := make([]string, 0, len(r))
	for d := range r {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// Set records one symbol's return for a date, creating the row if needed.
func (r Results) Set(date, symbol string, ret float64) {
	row, ok := r[date]
	if !ok {
		row = make(map[string]float64)
		r[date] = row
	}
	row[symbol] = ret
}

// DailyReturns collapses each date's symbol returns into a single portfolio
// return, the arithmetic mean over that date's symbols, ordered by date.
// Dates with no symbols contribute 0.
func (r Results) DailyReturns() []float64 {
	daily := make([]float64, 0, len(r))
	for _, date := range r.Dates() {
		row := r[date]
		if len(row) == 0 {
			daily = append(daily, 0)
			continue
		}
		var sum float64
		for _, ret := range row {
			sum += ret
		}
		daily = append(daily, sum/float64(len(row)))
	}
	return daily
}

// CumulativeReturn compounds the daily portfolio returns: the product of
// (1 + daily) across all dates, minus 1.
func CumulativeReturn(r Results) float64 {
	prod := 1.0
	for _, d := range r.DailyReturns() {
		prod *= 1 + d
	}
	return prod - 1
}

// EquityCurve returns the compounded cumulative return after each date, in
// date order. Used by the report chart.
func EquityCurve(r Results) []float64 {
	daily := r.DailyReturns()
	curve := make([]float64, len(daily))
	prod := 1.0
	for i, d := range daily {
		prod *= 1 + d
		curve[i] = prod - 1
	}
	return curve
}

// WinRate is the share of strictly positive entries among all non-zero
// entries, as a percentage. Zero-return entries count neither way; an
// all-zero or empty matrix yields 0.
func WinRate(r Results) float64 {
	wins, losses := split(r)
	if len(wins)+len(losses) == 0 {
		return 0
	}
	return 100 * float64(len(wins)) / float64(len(wins)+len(losses))
}

// MeanWin is the arithmetic mean of strictly positive entries, 0 when there
// are none.
func MeanWin(r Results) float64 {
	wins, _ := split(r)
	return mean(wins)
}

// MeanLoss is the arithmetic mean of strictly negative entries, 0 when there
// are none.
func MeanLoss(r Results) float64 {
	_, losses := split(r)
	return mean(losses)
}

// Sharpe is the annualized ratio of mean to sample standard deviation of the
// daily portfolio returns, 0 when the deviation is 0 or fewer than two dates
// exist.
func Sharpe(r Results) float64 {
	daily := r.DailyReturns()
	if len(daily) < 2 {
		return 0
	}

	m := mean(daily)
	var ss float64
	for _, d := range daily {
		ss += (d - m) * (d - m)
	}
	std := math.Sqrt(ss / float64(len(daily)-1))
	if std == 0 {
		return 0
	}
	return m / std * math.Sqrt(252)
}

// Summary bundles the headline numbers for reporting.
type Summary struct {
	CumulativeReturn float64 `json:"cumulative_return"`
	WinRate          float64 `json:"win_rate"`
	MeanWin          float64 `json:"mean_win"`
	MeanLoss         float64 `json:"mean_loss"`
	Sharpe           float64 `json:"sharpe"`
	Days             int     `json:"days"`
	Entries          int     `json:"entries"`
}

// Evaluate computes every summary statistic over the matrix.
func Evaluate(r Results) Summary {
	entries := 0
	for _, row := range r {
		entries += len(row)
	}
	return Summary{
		CumulativeReturn: CumulativeReturn(r),
		WinRate:          WinRate(r),
		MeanWin:          MeanWin(r),
		MeanLoss:         MeanLoss(r),
		Sharpe:           Sharpe(r),
		Days:             len(r),
		Entries:          entries,
	}
}

func split(r Results) (wins, losses []float64) {
	for _, row := range r {
		for _, ret := range row {
			switch {
			case ret > 0:
				wins = append(wins, ret)
			case ret < 0:
				losses = append(losses, ret)
			}
		}
	}
	return wins, losses
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
