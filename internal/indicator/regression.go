// Package indicator provides the linear-regression band estimator the
// mean-reversion strategy trades against.
package indicator

import (
	"errors"
	"fmt"
	"math"
)

// SigmaSource selects which dispersion the band width is derived from.
type SigmaSource string

const (
	// SigmaCloses uses the sample standard deviation of the window's raw
	// closing prices.
	SigmaCloses SigmaSource = "closes"
	// SigmaResiduals uses the sample standard deviation of the OLS
	// residuals instead.
	SigmaResiduals SigmaSource = "residuals"
)

var ErrInsufficientData = errors.New("indicator: need at least two closes to fit a band")

// Band is an ordinary-least-squares line fitted to closing prices over a
// trailing window, plus the dispersion used to build entry/exit thresholds.
type Band struct {
	Slope     float64
	Intercept float64
	Sigma     float64
	N         int
}

// FitBand fits close = intercept + slope*i over i = 0..len(closes)-1.
func FitBand(closes []float64, source SigmaSource) (Band, error) {
	n := len(closes)
	if n < 2 {
		return Band{}, ErrInsufficientData
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range closes {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	fn := float64(n)
	slope := (fn*sumXY - sumX*sumY) / (fn*sumXX - sumX*sumX)
	intercept := (sumY - slope*sumX) / fn

	var sigma float64
	switch source {
	case SigmaResiduals:
		var ss float64
		for i, y := range closes {
			r := y - (intercept + slope*float64(i))
			ss += r * r
		}
		sigma = math.Sqrt(ss / (fn - 1))
	case SigmaCloses, "":
		mean := sumY / fn
		var ss float64
		for _, y := range closes {
			d := y - mean
			ss += d * d
		}
		sigma = math.Sqrt(ss / (fn - 1))
	default:
		return Band{}, fmt.Errorf("indicator: unknown sigma source %q", source)
	}

	return Band{Slope: slope, Intercept: intercept, Sigma: sigma, N: n}, nil
}

// Center is the fitted value on the window's last bar, Project(0).
func (b Band) Center() float64 {
	return b.Project(0)
}

// Project extrapolates the fitted line k bars past the window's last bar.
// The extrapolation is linear and becomes unreliable far from the window;
// callers own that risk.
func (b Band) Project(k int) float64 {
	return b.Intercept + b.Slope*float64(b.N-1+k)
}

// Usable reports whether the band can gate threshold crossings. A zero
// sigma disables crossing rather than triggering on every bar.
func (b Band) Usable() bool {
	return b.Sigma > 0 && b.N >= 2
}
