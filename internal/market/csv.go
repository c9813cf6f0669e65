package market

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// ReadSeriesCSV loads a bar series from a CSV file with the header
// timestamp,open,high,low,close,volume and unix-second timestamps.
func ReadSeriesCSV(path, symbol string) (Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return Series{}, fmt.Errorf("unable to open bar file: %w", err)
	}
	defer f.Close()

	s, err := readSeries(csv.NewReader(bufio.NewReader(f)), symbol)
	if err != nil {
		return Series{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return s, nil
}

func readSeries(r *csv.Reader, symbol string) (Series, error) {
	if _, err := r.Read(); err != nil {
		return Series{}, fmt.Errorf("failed to read csv header: %w", err)
	}

	s := Series{Symbol: symbol}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Series{}, fmt.Errorf("failed to read bar row: %w", err)
		}
		if len(rec) < 6 {
			return Series{}, fmt.Errorf("bar row needs 6 columns, got %d", len(rec))
		}

		ts, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			return Series{}, fmt.Errorf("failed to parse bar time: %w", err)
		}

		var fields [5]float64
		for i := 0; i < 5; i++ {
			fields[i], err = strconv.ParseFloat(rec[i+1], 64)
			if err != nil {
				return Series{}, fmt.Errorf("failed to parse bar field %d: %w", i+1, err)
			}
		}

		s.Bars = append(s.Bars, Bar{
			Time:   time.Unix(int64(ts), 0).UTC(),
			Open:   fields[0],
			High:   fields[1],
			Low:    fields[2],
			Close:  fields[3],
			Volume: fields[4],
		})
	}

	s.Sort()
	return s, nil
}

// WriteSeriesCSV writes a bar series in the format ReadSeriesCSV accepts.
func WriteSeriesCSV(w io.Writer, s Series) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "open", "high", "low", "close", "volume"}); err != nil {
		return fmt.Errorf("failed to write bars csv header: %w", err)
	}

	for _, b := range s.Bars {
		err := cw.Write([]string{
			strconv.FormatInt(b.Time.Unix(), 10),
			strconv.FormatFloat(b.Open, 'f', -1, 64),
			strconv.FormatFloat(b.High, 'f', -1, 64),
			strconv.FormatFloat(b.Low, 'f', -1, 64),
			strconv.FormatFloat(b.Close, 'f', -1, 64),
			strconv.FormatFloat(b.Volume, 'f', -1, 64),
		})
		if err != nil {
			return fmt.Errorf("failed to write bar: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
