// internal/trend/trend.go

// Package trend fits ordinary least-squares lines to evenly spaced samples.
package trend

import "errors"

// ErrNoData is returned when there is nothing to fit.
var ErrNoData = errors.New("trend: no data")

// Line is y = Slope*x + Intercept.
type Line struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
}

// At evaluates the line at x.
func (l Line) At(x float64) float64 {
	return l.Slope*x + l.Intercept
}

// Values evaluates the line at x = 0..n-1.
func (l Line) Values(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = l.At(float64(i))
	}
	return out
}

// Fit returns the least-squares line through (i, ys[i]) for i = 0..len(ys)-1.
// A single sample gives a flat line through it.
func Fit(ys []float64) (Line, error) {
	n := len(ys)
	switch n {
	case 0:
		return Line{}, ErrNoData
	case 1:
		return Line{Intercept: ys[0]}, nil
	}

	// x is 0..n-1, so its mean is (n-1)/2.
	xMean := float64(n-1) / 2
	var yMean float64
	for _, y := range ys {
		yMean += y
	}
	yMean /= float64(n)

	var sxy, sxx float64
	for i, y := range ys {
		dx := float64(i) - xMean
		sxy += dx * (y - yMean)
		sxx += dx * dx
	}
	slope := sxy / sxx
	return Line{Slope: slope, Intercept: yMean - slope*xMean}, nil
}
