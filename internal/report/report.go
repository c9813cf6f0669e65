// Package report renders a finished backtest: a JSON summary, a CSV export
// of the result matrix and a PNG equity chart.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"

	"github.com/lefterisnazos/intraday-trader/internal/metrics"
)

type Builder struct {
	log *slog.Logger
}

func NewBuilder(log *slog.Logger) *Builder {
	return &Builder{log: log}
}

type Report struct {
	Summary metrics.Summary `json:"summary"`
	Daily   []DailyEntry    `json:"daily"`
	Returns metrics.Results `json:"returns,omitempty"`
}

type DailyEntry struct {
	Date       string  `json:"date"`
	Return     float64 `json:"return"`
	Cumulative float64 `json:"cumulative"`
}

// Build assembles the report and logs the headline numbers.
func (b *Builder) Build(results metrics.Results) Report {
	summary := metrics.Evaluate(results)

	dates := results.Dates()
	daily := results.DailyReturns()
	curve := metrics.EquityCurve(results)

	entries := make([]DailyEntry, len(dates))
	for i, date := range dates {
		entries[i] = DailyEntry{Date: date, Return: daily[i], Cumulative: curve[i]}
	}

	b.log.Info("backtest evaluated",
		slog.Float64("cumulative_return", summary.CumulativeReturn),
		slog.Float64("win_rate", summary.WinRate),
		slog.Float64("sharpe", summary.Sharpe),
		slog.Int("days", summary.Days),
		slog.Int("entries", summary.Entries))

	return Report{Summary: summary, Daily: entries, Returns: results}
}

// Write encodes the report as JSON.
func (r Report) Write(w io.Writer) error {
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	if err := e.Encode(r); err != nil {
		return fmt.Errorf("failed to write backtest report: %w", err)
	}
	return nil
}

// WriteCSV exports the result matrix as date,symbol,return rows in date
// order.
func WriteCSV(w io.Writer, results metrics.Results) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "symbol", "return"}); err != nil {
		return fmt.Errorf("failed to write results csv header: %w", err)
	}

	for _, date := range results.Dates() {
		row := results[date]
		for _, symbol := range sortedSymbols(row) {
			err := cw.Write([]string{
				date,
				symbol,
				strconv.FormatFloat(row[symbol], 'f', -1, 64),
			})
			if err != nil {
				return fmt.Errorf("failed to write result row: %w", err)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

func sortedSymbols(row map[string]float64) []string {
	symbols := make([]string, 0, len(row))
	for symbol := range row {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}
