package statistics

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// AssetStatistics holds the derived statistics of a returns matrix:
// the expected-return vector r_j (arithmetic mean per asset) and the
// deviation matrix D[t][j] = R[t][j] − r_j.
//
// It is derived once per dataset and read-only afterwards, so concurrent
// solves can share it without locking.
type AssetStatistics struct {
	assets          []string
	expectedReturns []float64
	deviations      *mat.Dense // T×n
	periods         int
	numAssets       int
}

// Compute derives AssetStatistics from a returns matrix.
func Compute(returns *ReturnsMatrix) *AssetStatistics {
	t := returns.Periods()
	n := returns.Assets()

	expected := make([]float64, n)
	for j := 0; j < n; j++ {
		expected[j] = stat.Mean(returns.Column(j), nil)
	}

	deviations := mat.NewDense(t, n, nil)
	for i := 0; i < t; i++ {
		for j := 0; j < n; j++ {
			deviations.Set(i, j, returns.At(i, j)-expected[j])
		}
	}

	return &AssetStatistics{
		assets:          returns.AssetNames(),
		expectedReturns: expected,
		deviations:      deviations,
		periods:         t,
		numAssets:       n,
	}
}

// Periods returns the number of periods T.
func (s *AssetStatistics) Periods() int { return s.periods }

// NumAssets returns the number of assets n.
func (s *AssetStatistics) NumAssets() int { return s.numAssets }

// AssetNames returns a copy of the asset name list.
func (s *AssetStatistics) AssetNames() []string {
	return append([]string(nil), s.assets...)
}

// ExpectedReturns returns a copy of the expected-return vector.
func (s *AssetStatistics) ExpectedReturns() []float64 {
	return append([]float64(nil), s.expectedReturns...)
}

// ExpectedReturn returns the expected return of asset j.
func (s *AssetStatistics) ExpectedReturn(j int) float64 {
	return s.expectedReturns[j]
}

// Deviation returns D[t][j].
func (s *AssetStatistics) Deviation(t, j int) float64 {
	return s.deviations.At(t, j)
}

// DeviationColumn copies asset j's deviation series into a new slice.
func (s *AssetStatistics) DeviationColumn(j int) []float64 {
	col := make([]float64, s.periods)
	mat.Col(col, j, s.deviations)
	return col
}

// PortfolioDeviations computes D·w, the per-period deviation of the
// portfolio with weights w from its mean return.
func (s *AssetStatistics) PortfolioDeviations(weights []float64) []float64 {
	out := make([]float64, s.periods)
	for t := 0; t < s.periods; t++ {
		var sum float64
		for j := 0; j < s.numAssets; j++ {
			sum += s.deviations.At(t, j) * weights[j]
		}
		out[t] = sum
	}
	return out
}

// CorrelationMatrix computes the n×n Pearson correlation matrix across
// asset deviation series. The diagonal is exactly 1. An asset with a
// zero-variance series makes correlation undefined and yields a
// *DegenerateInputError naming the asset rather than a silent NaN.
func (s *AssetStatistics) CorrelationMatrix() ([][]float64, error) {
	cols := make([][]float64, s.numAssets)
	for j := 0; j < s.numAssets; j++ {
		cols[j] = s.DeviationColumn(j)
		if stat.Variance(cols[j], nil) == 0 {
			return nil, &DegenerateInputError{Asset: s.assets[j]}
		}
	}

	corr := make([][]float64, s.numAssets)
	for i := range corr {
		corr[i] = make([]float64, s.numAssets)
		corr[i][i] = 1.0
	}
	for i := 0; i < s.numAssets; i++ {
		for j := i + 1; j < s.numAssets; j++ {
			c := stat.Correlation(cols[i], cols[j], nil)
			corr[i][j] = c
			corr[j][i] = c
		}
	}
	return corr, nil
}
