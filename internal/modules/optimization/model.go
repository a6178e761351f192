// Package optimization formulates and solves the MAD portfolio selection
// problem as a linear program, and provides per-portfolio risk metrics plus
// a mean-variance comparison baseline.
package optimization

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"madfolio/internal/modules/statistics"
)

// Model is the ephemeral LP formulation for one risk-aversion value μ,
// already converted to solver standard form:
//
//	minimize  c·v   subject to   A·v = b,  v ≥ 0
//
// The portfolio problem being encoded is
//
//	maximize  μ·Σ_j x_j·r_j − (1/T)·Σ_t y_t
//	s.t.      Σ_j x_j = 1
//	          −y_t ≤ Σ_j x_j·D[t][j] ≤ y_t    for every period t
//	          x_j ≥ 0, y_t ≥ 0
//
// with variable layout v = [x_1..x_n, y_1..y_T, s_1..s_T, u_1..u_T], where
// s_t and u_t are the slacks of the upper and lower deviation constraints.
// Long-only and fully-invested by construction: the only bounds on x are
// the non-negativity of standard form and the budget equality row.
type Model struct {
	Mu         float64
	NumAssets  int
	NumPeriods int

	C []float64
	A *mat.Dense
	B []float64
}

// BuildModel formulates the MAD linear program for one μ value.
// μ = 0 is valid and yields the minimum-risk portfolio.
func BuildModel(stats *statistics.AssetStatistics, mu float64) (*Model, error) {
	if mu < 0 {
		return nil, fmt.Errorf("risk-aversion parameter must be >= 0, got %g", mu)
	}

	n := stats.NumAssets()
	t := stats.Periods()

	cols := n + 3*t // x, y, upper slacks, lower slacks
	rows := 1 + 2*t // budget + two rows per period

	c := make([]float64, cols)
	for j := 0; j < n; j++ {
		c[j] = -mu * stats.ExpectedReturn(j) // maximize reward → minimize its negation
	}
	for i := 0; i < t; i++ {
		c[n+i] = 1.0 / float64(t) // risk term (1/T)·Σ y_t
	}

	a := mat.NewDense(rows, cols, nil)
	b := make([]float64, rows)

	// Budget row: Σ x_j = 1.
	for j := 0; j < n; j++ {
		a.Set(0, j, 1)
	}
	b[0] = 1

	for i := 0; i < t; i++ {
		upper := 1 + i
		lower := 1 + t + i

		for j := 0; j < n; j++ {
			d := stats.Deviation(i, j)
			a.Set(upper, j, d)  // Σ x_j·D[t][j] − y_t + s_t = 0
			a.Set(lower, j, -d) // −Σ x_j·D[t][j] − y_t + u_t = 0
		}
		a.Set(upper, n+i, -1)
		a.Set(lower, n+i, -1)
		a.Set(upper, n+t+i, 1)
		a.Set(lower, n+2*t+i, 1)
	}

	return &Model{
		Mu:         mu,
		NumAssets:  n,
		NumPeriods: t,
		C:          c,
		A:          a,
		B:          b,
	}, nil
}

// Weights extracts the allocation part of a standard-form solution vector.
func (m *Model) Weights(x []float64) []float64 {
	return append([]float64(nil), x[:m.NumAssets]...)
}

// AbsoluteDeviations extracts the auxiliary y_t part of a solution vector.
func (m *Model) AbsoluteDeviations(x []float64) []float64 {
	return append([]float64(nil), x[m.NumAssets:m.NumAssets+m.NumPeriods]...)
}
