package optimization

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"madfolio/internal/modules/statistics"
)

func TestMetrics_PortfolioReturn(t *testing.T) {
	metrics := NewMetrics(scenarioStats(t))

	assert.InDelta(t, 1.0125, metrics.PortfolioReturn([]float64{1, 0, 0}), 1e-9)

	equal := []float64{1.0 / 3, 1.0 / 3, 1.0 / 3}
	want := (1.0125 + 0.9975 + 1.0025) / 3
	assert.InDelta(t, want, metrics.PortfolioReturn(equal), 1e-9)
}

func TestMetrics_MADRiskNonNegative(t *testing.T) {
	metrics := NewMetrics(scenarioStats(t))

	candidates := [][]float64{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
		{1.0 / 3, 1.0 / 3, 1.0 / 3},
		{0.5, 0.3, 0.2},
		{0.9, 0.05, 0.05},
	}
	for _, w := range candidates {
		assert.GreaterOrEqual(t, metrics.MADRisk(w), 0.0)
	}

	// Single-asset MAD equals the mean absolute deviation of that column.
	assert.InDelta(t, 0.0125, metrics.MADRisk([]float64{1, 0, 0}), 1e-9)
}

func TestMetrics_SharpeRatio(t *testing.T) {
	metrics := NewMetrics(scenarioStats(t))

	w := []float64{1, 0, 0}
	sharpe := metrics.SharpeRatio(w, 0)
	assert.InDelta(t, 1.0125/0.0125, sharpe, 1e-6)
}

func TestMetrics_SharpeRatioZeroRisk(t *testing.T) {
	// A constant return series has zero MAD risk.
	returns, err := statistics.NewReturnsMatrix(
		[]string{"p1", "p2", "p3"},
		[]string{"CASH"},
		[][]float64{{1.001}, {1.001}, {1.001}},
	)
	require.NoError(t, err)

	metrics := NewMetrics(statistics.Compute(returns))
	w := []float64{1}

	assert.Equal(t, 0.0, metrics.MADRisk(w))
	assert.True(t, math.IsInf(metrics.SharpeRatio(w, 0), 1))
	assert.True(t, math.IsInf(metrics.SharpeRatio(w, 2.0), -1))
}
