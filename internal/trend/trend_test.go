package trend

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFitEmpty(t *testing.T) {
	_, err := Fit(nil)
	require.True(t, errors.Is(err, ErrNoData))
}

func TestFitTwoIdenticalPoints(t *testing.T) {
	l, err := Fit([]float64{21.5, 21.5})
	require.NoError(t, err)
	require.Equal(t, 0.0, l.Slope)
	require.Equal(t, 21.5, l.Intercept)
}

func TestFitSinglePoint(t *testing.T) {
	l, err := Fit([]float64{-17.1})
	require.NoError(t, err)
	require.Equal(t, Line{Intercept: -17.1}, l)
	require.Equal(t, []float64{-17.1}, l.Values(1))
}

func TestFitExactLine(t *testing.T) {
	l, err := Fit([]float64{1, 3, 5, 7})
	require.NoError(t, err)
	require.InDelta(t, 2.0, l.Slope, 1e-12)
	require.InDelta(t, 1.0, l.Intercept, 1e-12)
	require.InDeltaSlice(t, []float64{1, 3, 5, 7}, l.Values(4), 1e-12)
}

func TestFitNoisy(t *testing.T) {
	// Reference values from a hand computation:
	// xMean=2, yMean=4, sxy=(-2)(-2)+(-1)(1)+0+(1)(-1)+(2)(2)=6, sxx=10.
	l, err := Fit([]float64{2, 5, 4, 3, 6})
	require.NoError(t, err)
	require.InDelta(t, 0.6, l.Slope, 1e-12)
	require.InDelta(t, 2.8, l.Intercept, 1e-12)
	require.Len(t, l.Values(5), 5)
}
