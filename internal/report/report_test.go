package report

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lefterisnazos/intraday-trader/internal/metrics"
)

var testLog = slog.New(slog.NewTextHandler(io.Discard, nil))

func sample() metrics.Results {
	return metrics.Results{
		"2024-01-02": {"AAA": 0.05, "BBB": -0.02},
		"2024-01-03": {"AAA": 0.01},
	}
}

func TestBuild(t *testing.T) {
	t.Parallel()

	r := NewBuilder(testLog).Build(sample())

	require.Len(t, r.Daily, 2)
	assert.Equal(t, "2024-01-02", r.Daily[0].Date)
	assert.InDelta(t, 0.015, r.Daily[0].Return, 1e-9)
	assert.InDelta(t, 0.015, r.Daily[0].Cumulative, 1e-9)
	assert.InDelta(t, 1.015*1.01-1, r.Daily[1].Cumulative, 1e-9)
	assert.InDelta(t, 50.0, r.Summary.WinRate, 1e-9)
}

func TestWrite_roundTrips(t *testing.T) {
	t.Parallel()

	r := NewBuilder(testLog).Build(sample())

	var buf bytes.Buffer
	require.NoError(t, r.Write(&buf))

	var decoded Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.InDelta(t, r.Summary.CumulativeReturn, decoded.Summary.CumulativeReturn, 1e-9)
	assert.Len(t, decoded.Daily, 2)
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sample()))

	want := "date,symbol,return\n" +
		"2024-01-02,AAA,0.05\n" +
		"2024-01-02,BBB,-0.02\n" +
		"2024-01-03,AAA,0.01\n"
	assert.Equal(t, want, buf.String())
}

func TestChart_writesPNG(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "equity.png")
	require.NoError(t, Chart(sample(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(data[:4]))
}

func TestChart_emptyResults(t *testing.T) {
	t.Parallel()

	err := Chart(metrics.Results{}, filepath.Join(t.TempDir(), "equity.png"))
	assert.Error(t, err)
}
