package report

import (
	"errors"
	"fmt"
	"os"

	"github.com/pplcc/plotext"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/lefterisnazos/intraday-trader/internal/metrics"
)

// Chart renders the run as a PNG with two stacked panels sharing the X axis:
// the cumulative return curve on top, the daily portfolio returns below.
func Chart(results metrics.Results, path string) (err error) {
	curve := metrics.EquityCurve(results)
	daily := results.DailyReturns()
	if len(curve) == 0 {
		return fmt.Errorf("nothing to plot: empty result matrix")
	}

	top := plot.New()
	top.Title.Text = "Cumulative return"
	top.Y.Label.Text = "return"

	line, err := plotter.NewLine(indexedXYs(curve))
	if err != nil {
		return fmt.Errorf("failed to build cumulative return line: %w", err)
	}
	top.Add(line)

	bottom := plot.New()
	bottom.Title.Text = "Daily return"
	bottom.X.Label.Text = "session"

	bars, err := plotter.NewBarChart(plotter.Values(daily), vg.Points(4))
	if err != nil {
		return fmt.Errorf("failed to build daily return bars: %w", err)
	}
	bottom.Add(bars)

	plotext.UniteAxisRanges([]*plot.Axis{&top.X, &bottom.X})

	tbl := plotext.Table{
		RowHeights: []float64{0.65, 0.35},
		ColWidths:  []float64{1},
	}

	img := vgimg.New(vg.Points(900), vg.Points(600))
	dc := draw.New(img)

	canvases := tbl.Align([][]*plot.Plot{{top}, {bottom}}, dc)
	top.Draw(canvases[0][0])
	bottom.Draw(canvases[1][0])

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close chart file: %w", cerr))
		}
	}()

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}

	return nil
}

func indexedXYs(vals []float64) plotter.XYs {
	xys := make(plotter.XYs, len(vals))
	for i, v := range vals {
		xys[i].X = float64(i)
		xys[i].Y = v
	}
	return xys
}
