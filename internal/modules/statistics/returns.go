// Package statistics derives the per-asset statistics the MAD model is
// built from: expected returns, the deviation matrix and asset correlations.
package statistics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ReturnsMatrix holds T periods × n assets of realized period-over-period
// return ratios (1.0 = flat, 1.05 = +5%). It is immutable once constructed;
// consumers borrow it read-only.
type ReturnsMatrix struct {
	labels []string // period labels, ascending
	assets []string
	data   *mat.Dense // T×n
}

// NewReturnsMatrix validates and wraps raw returns data.
// rows[t][j] is the return ratio of asset j in period t.
func NewReturnsMatrix(labels []string, assets []string, rows [][]float64) (*ReturnsMatrix, error) {
	n := len(assets)
	t := len(rows)

	if n < 1 {
		return nil, &InvalidInputError{Reason: "need at least one asset"}
	}
	if t < 2 {
		return nil, &InvalidInputError{Reason: fmt.Sprintf("need at least 2 periods, got %d", t)}
	}
	if len(labels) != t {
		return nil, &InvalidInputError{Reason: fmt.Sprintf("%d period labels for %d rows", len(labels), t)}
	}

	seen := make(map[string]bool, t)
	for _, label := range labels {
		if seen[label] {
			return nil, &InvalidInputError{Reason: fmt.Sprintf("duplicate period label %q", label)}
		}
		seen[label] = true
	}

	data := mat.NewDense(t, n, nil)
	for i, row := range rows {
		if len(row) != n {
			return nil, &InvalidInputError{
				Reason: fmt.Sprintf("row %d has %d values, expected %d", i, len(row), n),
			}
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, &InvalidInputError{
					Reason: fmt.Sprintf("non-finite return for asset %s in period %s", assets[j], labels[i]),
				}
			}
			data.Set(i, j, v)
		}
	}

	return &ReturnsMatrix{
		labels: append([]string(nil), labels...),
		assets: append([]string(nil), assets...),
		data:   data,
	}, nil
}

// Periods returns the number of periods T.
func (r *ReturnsMatrix) Periods() int {
	t, _ := r.data.Dims()
	return t
}

// Assets returns the number of assets n.
func (r *ReturnsMatrix) Assets() int {
	_, n := r.data.Dims()
	return n
}

// AssetNames returns a copy of the asset name list.
func (r *ReturnsMatrix) AssetNames() []string {
	return append([]string(nil), r.assets...)
}

// Labels returns a copy of the period labels.
func (r *ReturnsMatrix) Labels() []string {
	return append([]string(nil), r.labels...)
}

// At returns the return ratio for period t, asset j.
func (r *ReturnsMatrix) At(t, j int) float64 {
	return r.data.At(t, j)
}

// Column copies asset j's return series into a new slice.
func (r *ReturnsMatrix) Column(j int) []float64 {
	t, _ := r.data.Dims()
	col := make([]float64, t)
	mat.Col(col, j, r.data)
	return col
}
