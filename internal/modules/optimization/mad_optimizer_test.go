package optimization

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"madfolio/internal/modules/statistics"
)

func newScenarioOptimizer(t *testing.T) *MADOptimizer {
	t.Helper()
	return NewMADOptimizer(scenarioStats(t), NewSimplexSolver(), zerolog.Nop())
}

func assertBudget(t *testing.T, weights []float64) {
	t.Helper()
	sum := 0.0
	for _, w := range weights {
		assert.GreaterOrEqual(t, w, -1e-9, "weights must be numerically non-negative")
		assert.LessOrEqual(t, w, 1.0+1e-9)
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-6, "weights must sum to 1")
}

func TestSolve_MinimumRiskAtZeroMu(t *testing.T) {
	opt := newScenarioOptimizer(t)

	result, err := opt.Solve(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, result.Status)

	assertBudget(t, result.Weights)
	assert.GreaterOrEqual(t, result.MADRisk, 0.0)

	// The μ=0 solution must not be beaten by any candidate allocation.
	metrics := opt.Metrics()
	candidates := [][]float64{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
		{1.0 / 3, 1.0 / 3, 1.0 / 3},
		{0.5, 0.5, 0},
		{0.25, 0.5, 0.25},
	}
	for _, candidate := range candidates {
		assert.LessOrEqual(t, result.MADRisk, metrics.MADRisk(candidate)+1e-9)
	}

	// Assets AAA and BBB hedge each other well in this scenario; the
	// minimum-risk portfolio is strictly better than any single asset.
	assert.Less(t, result.MADRisk, metrics.MADRisk([]float64{1, 0, 0}))
}

func TestSolve_LargeMuPicksHighestReturnAsset(t *testing.T) {
	opt := newScenarioOptimizer(t)

	result, err := opt.Solve(context.Background(), 50)
	require.NoError(t, err)

	assertBudget(t, result.Weights)
	// Asset AAA has the highest expected return (≈1.0125).
	assert.Greater(t, result.Weights[0], 0.99)
	assert.InDelta(t, 1.0125, result.ExpectedReturn, 1e-6)
}

func TestSolve_SingleAsset(t *testing.T) {
	returns, err := statistics.NewReturnsMatrix(
		[]string{"p1", "p2", "p3", "p4"},
		[]string{"ONLY"},
		[][]float64{{1.01}, {0.99}, {1.02}, {1.00}},
	)
	require.NoError(t, err)

	opt := NewMADOptimizer(statistics.Compute(returns), NewSimplexSolver(), zerolog.Nop())

	for _, mu := range []float64{0, 0.1, 1, 10, 100} {
		result, err := opt.Solve(context.Background(), mu)
		require.NoError(t, err, "mu=%g", mu)
		require.Len(t, result.Weights, 1)
		assert.InDelta(t, 1.0, result.Weights[0], 1e-9, "mu=%g", mu)
	}
}

func TestSolve_ReturnMonotonicInMu(t *testing.T) {
	opt := newScenarioOptimizer(t)

	mus := []float64{0, 0.5, 1, 2, 5, 10, 20, 50}
	var prev float64
	for i, mu := range mus {
		result, err := opt.Solve(context.Background(), mu)
		require.NoError(t, err, "mu=%g", mu)
		assertBudget(t, result.Weights)
		if i > 0 {
			assert.GreaterOrEqual(t, result.ExpectedReturn, prev-1e-9,
				"expected return must be non-decreasing in mu (mu=%g)", mu)
		}
		prev = result.ExpectedReturn
	}
}

func TestSolve_Idempotent(t *testing.T) {
	opt := newScenarioOptimizer(t)

	first, err := opt.Solve(context.Background(), 3.0)
	require.NoError(t, err)
	second, err := opt.Solve(context.Background(), 3.0)
	require.NoError(t, err)

	require.Len(t, second.Weights, len(first.Weights))
	for i := range first.Weights {
		assert.InDelta(t, first.Weights[i], second.Weights[i], 1e-12)
	}
	assert.InDelta(t, first.ExpectedReturn, second.ExpectedReturn, 1e-12)
	assert.InDelta(t, first.MADRisk, second.MADRisk, 1e-12)
}

func TestSolve_CancelledContext(t *testing.T) {
	opt := newScenarioOptimizer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := opt.Solve(ctx, 1.0)
	require.ErrorIs(t, err, context.Canceled)
}
