package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.InDelta(t, 2.0, Mean([]float64{1, 2, 3}), 1e-12)
}

func TestMeanAbs(t *testing.T) {
	assert.Equal(t, 0.0, MeanAbs(nil))
	assert.InDelta(t, 2.0, MeanAbs([]float64{-1, 2, -3}), 1e-12)
}

func TestDot(t *testing.T) {
	assert.InDelta(t, 11.0, Dot([]float64{1, 2}, []float64{3, 4}), 1e-12)
}

func TestLogspace(t *testing.T) {
	vals := Logspace(-1, 1.5, 100)
	require.Len(t, vals, 100)
	assert.InDelta(t, 0.1, vals[0], 1e-9)
	assert.InDelta(t, math.Pow(10, 1.5), vals[99], 1e-9)

	// Strictly increasing.
	for i := 1; i < len(vals); i++ {
		assert.Greater(t, vals[i], vals[i-1])
	}
}

func TestLinspace(t *testing.T) {
	vals := Linspace(0, 10, 11)
	require.Len(t, vals, 11)
	assert.InDelta(t, 0.0, vals[0], 1e-12)
	assert.InDelta(t, 5.0, vals[5], 1e-12)
	assert.InDelta(t, 10.0, vals[10], 1e-12)

	single := Linspace(3, 9, 1)
	require.Len(t, single, 1)
	assert.Equal(t, 3.0, single[0])
}

func TestCorrelation(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	y := []float64{2, 4, 6, 8}
	assert.InDelta(t, 1.0, Correlation(x, y), 1e-12)

	inv := []float64{8, 6, 4, 2}
	assert.InDelta(t, -1.0, Correlation(x, inv), 1e-12)
}
