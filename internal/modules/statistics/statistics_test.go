package statistics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario used throughout the optimization tests: 3 assets, 4 periods.
func scenarioMatrix(t *testing.T) *ReturnsMatrix {
	t.Helper()
	returns, err := NewReturnsMatrix(
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
	return returns
}

func TestNewReturnsMatrix_Validation(t *testing.T) {
	var invalid *InvalidInputError

	// No assets.
	_, err := NewReturnsMatrix([]string{"a", "b"}, nil, [][]float64{{}, {}})
	require.ErrorAs(t, err, &invalid)

	// Too few periods.
	_, err = NewReturnsMatrix([]string{"a"}, []string{"X"}, [][]float64{{1.0}})
	require.ErrorAs(t, err, &invalid)

	// Duplicate period labels.
	_, err = NewReturnsMatrix([]string{"a", "a"}, []string{"X"}, [][]float64{{1.0}, {1.1}})
	require.ErrorAs(t, err, &invalid)

	// Ragged row.
	_, err = NewReturnsMatrix([]string{"a", "b"}, []string{"X", "Y"}, [][]float64{{1.0, 1.0}, {1.1}})
	require.ErrorAs(t, err, &invalid)

	// NaN entry.
	nan := 0.0
	nan = nan / nan
	_, err = NewReturnsMatrix([]string{"a", "b"}, []string{"X"}, [][]float64{{1.0}, {nan}})
	require.ErrorAs(t, err, &invalid)
}

func TestCompute_ExpectedReturnsAndDeviations(t *testing.T) {
	stats := Compute(scenarioMatrix(t))

	require.Equal(t, 4, stats.Periods())
	require.Equal(t, 3, stats.NumAssets())

	expected := stats.ExpectedReturns()
	assert.InDelta(t, 1.0125, expected[0], 1e-9)
	assert.InDelta(t, 0.9975, expected[1], 1e-9)
	assert.InDelta(t, 1.0025, expected[2], 1e-9)

	// Deviation columns sum to zero by construction.
	for j := 0; j < stats.NumAssets(); j++ {
		var sum float64
		for _, d := range stats.DeviationColumn(j) {
			sum += d
		}
		assert.InDelta(t, 0.0, sum, 1e-12)
	}

	assert.InDelta(t, 1.02-1.0125, stats.Deviation(0, 0), 1e-12)
	assert.InDelta(t, 0.98-0.9975, stats.Deviation(0, 1), 1e-12)
}

func TestPortfolioDeviations(t *testing.T) {
	stats := Compute(scenarioMatrix(t))

	// Single-asset weights reproduce that asset's deviation column.
	devs := stats.PortfolioDeviations([]float64{1, 0, 0})
	assert.InDeltaSlice(t, stats.DeviationColumn(0), devs, 1e-12)
}

func TestCorrelationMatrix(t *testing.T) {
	stats := Compute(scenarioMatrix(t))

	corr, err := stats.CorrelationMatrix()
	require.NoError(t, err)
	require.Len(t, corr, 3)

	for i := range corr {
		assert.Equal(t, 1.0, corr[i][i])
		for j := range corr[i] {
			assert.InDelta(t, corr[j][i], corr[i][j], 1e-12, "matrix must be symmetric")
			assert.LessOrEqual(t, corr[i][j], 1.0+1e-9)
			assert.GreaterOrEqual(t, corr[i][j], -1.0-1e-9)
		}
	}

	// Assets 1 and 3 in the scenario have identical deviation series.
	assert.InDelta(t, 1.0, corr[0][2], 1e-9)
}

func TestCorrelationMatrix_ZeroVarianceAsset(t *testing.T) {
	returns, err := NewReturnsMatrix(
		[]string{"p1", "p2", "p3"},
		[]string{"FLAT", "VAR"},
		[][]float64{
			{1.00, 1.02},
			{1.00, 0.99},
			{1.00, 1.01},
		},
	)
	require.NoError(t, err)

	stats := Compute(returns)
	_, err = stats.CorrelationMatrix()

	var degenerate *DegenerateInputError
	require.ErrorAs(t, err, &degenerate)
	assert.Equal(t, "FLAT", degenerate.Asset)
}
