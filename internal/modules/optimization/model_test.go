package optimization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"madfolio/internal/modules/statistics"
)

func scenarioStats(t *testing.T) *statistics.AssetStatistics {
	t.Helper()
	returns, err := statistics.NewReturnsMatrix(
		[]string{"2024-01", "2024-02", "2024-03", "2024-04"},
		[]string{"AAA", "BBB", "CCC"},
		[][]float64{
			{1.02, 0.98, 1.01},
			{1.01, 1.00, 1.00},
			{0.99, 1.02, 0.98},
			{1.03, 0.99, 1.02},
		},
	)
	require.NoError(t, err)
	return statistics.Compute(returns)
}

func TestBuildModel_Shape(t *testing.T) {
	stats := scenarioStats(t)

	model, err := BuildModel(stats, 2.5)
	require.NoError(t, err)

	n, T := 3, 4
	rows, cols := model.A.Dims()
	assert.Equal(t, 1+2*T, rows)
	assert.Equal(t, n+3*T, cols)
	require.Len(t, model.C, cols)
	require.Len(t, model.B, rows)

	// Budget row: all allocation coefficients 1, rhs 1, y/slack coefficients 0.
	for j := 0; j < n; j++ {
		assert.Equal(t, 1.0, model.A.At(0, j))
	}
	for j := n; j < cols; j++ {
		assert.Equal(t, 0.0, model.A.At(0, j))
	}
	assert.Equal(t, 1.0, model.B[0])

	// Objective: negated reward on x, 1/T on y, zero on slacks.
	for j := 0; j < n; j++ {
		assert.InDelta(t, -2.5*stats.ExpectedReturn(j), model.C[j], 1e-12)
	}
	for i := 0; i < T; i++ {
		assert.InDelta(t, 0.25, model.C[n+i], 1e-12)
		assert.Equal(t, 0.0, model.C[n+T+i])
		assert.Equal(t, 0.0, model.C[n+2*T+i])
	}

	// Deviation rows: mirrored coefficients, -1 on y, +1 on own slack.
	for i := 0; i < T; i++ {
		for j := 0; j < n; j++ {
			assert.InDelta(t, stats.Deviation(i, j), model.A.At(1+i, j), 1e-12)
			assert.InDelta(t, -stats.Deviation(i, j), model.A.At(1+T+i, j), 1e-12)
		}
		assert.Equal(t, -1.0, model.A.At(1+i, n+i))
		assert.Equal(t, -1.0, model.A.At(1+T+i, n+i))
		assert.Equal(t, 1.0, model.A.At(1+i, n+T+i))
		assert.Equal(t, 1.0, model.A.At(1+T+i, n+2*T+i))
		assert.Equal(t, 0.0, model.B[1+i])
		assert.Equal(t, 0.0, model.B[1+T+i])
	}
}

func TestBuildModel_NegativeMu(t *testing.T) {
	_, err := BuildModel(scenarioStats(t), -0.5)
	require.Error(t, err)
}

func TestBuildModel_ZeroMuValid(t *testing.T) {
	model, err := BuildModel(scenarioStats(t), 0)
	require.NoError(t, err)

	// Reward term vanishes; only the risk term remains in the objective.
	for j := 0; j < model.NumAssets; j++ {
		assert.Equal(t, 0.0, model.C[j])
	}
}
