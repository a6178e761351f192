package optimization

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"madfolio/internal/modules/statistics"
)

// VarianceOptimizer is the Markowitz comparison baseline: it maximizes
// μ·(w·r) − w'Σw over the long-only budget simplex. It exists only so MAD
// frontiers can be compared against the classical variance model; the
// frontier sweep itself is pure LP.
type VarianceOptimizer struct {
	stats   *statistics.AssetStatistics
	metrics *Metrics
	cov     *mat.SymDense
	log     zerolog.Logger
}

// NewVarianceOptimizer creates the baseline optimizer, precomputing the
// covariance matrix of the deviation series.
func NewVarianceOptimizer(stats *statistics.AssetStatistics, log zerolog.Logger) *VarianceOptimizer {
	n := stats.NumAssets()
	t := stats.Periods()

	cov := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		ci := stats.DeviationColumn(i)
		for j := i; j < n; j++ {
			cj := stats.DeviationColumn(j)
			var sum float64
			for k := 0; k < t; k++ {
				sum += ci[k] * cj[k]
			}
			cov.SetSym(i, j, sum/float64(t-1))
		}
	}

	return &VarianceOptimizer{
		stats:   stats,
		metrics: NewMetrics(stats),
		cov:     cov,
		log:     log.With().Str("component", "variance_optimizer").Logger(),
	}
}

// Solve minimizes the negated quadratic objective with a budget penalty,
// projecting iterates onto [0,1] bounds, then normalizes the solution onto
// the simplex. BFGS first, NelderMead as fallback.
func (vo *VarianceOptimizer) Solve(ctx context.Context, mu float64) (*Result, error) {
	if mu < 0 {
		return nil, fmt.Errorf("risk-aversion parameter must be >= 0, got %g", mu)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	n := vo.stats.NumAssets()
	expected := vo.stats.ExpectedReturns()
	penaltyWeight := 1000.0

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			xProj := projectToUnitBounds(x)

			var ret float64
			for i := 0; i < n; i++ {
				ret += expected[i] * xProj[i]
			}

			var variance float64
			for i := 0; i < n; i++ {
				for j := 0; j < n; j++ {
					variance += xProj[i] * xProj[j] * vo.cov.At(i, j)
				}
			}

			sum := 0.0
			for i := 0; i < n; i++ {
				sum += xProj[i]
			}

			obj := -(mu*ret - variance)
			obj += penaltyWeight * (sum - 1.0) * (sum - 1.0)
			return obj
		},
		Grad: func(grad, x []float64) {
			xProj := projectToUnitBounds(x)

			sum := 0.0
			for i := 0; i < n; i++ {
				sum += xProj[i]
			}

			for i := 0; i < n; i++ {
				grad[i] = -mu * expected[i]
				for j := 0; j < n; j++ {
					grad[i] += 2 * vo.cov.At(i, j) * xProj[j]
				}
				grad[i] += 2 * penaltyWeight * (sum - 1.0)
			}
		},
	}

	initial := make([]float64, n)
	for i := range initial {
		initial[i] = 1.0 / float64(n)
	}

	result, err := optimize.Minimize(problem, initial, &optimize.Settings{}, &optimize.BFGS{})
	if err != nil || !converged(result.Status) {
		result, err = optimize.Minimize(problem, initial, &optimize.Settings{}, &optimize.NelderMead{})
		if err != nil {
			return nil, fmt.Errorf("variance baseline optimization failed: %w", err)
		}
		if !converged(result.Status) {
			return nil, fmt.Errorf("variance baseline did not converge: status=%v", result.Status)
		}
	}

	weights := cleanWeights(projectToUnitBounds(result.X))
	expectedReturn := vo.metrics.PortfolioReturn(weights)
	variance := vo.metrics.VarianceRisk(weights)

	res := &Result{
		Mu:             mu,
		Weights:        weights,
		ExpectedReturn: expectedReturn,
		MADRisk:        vo.metrics.MADRisk(weights),
		ObjectiveValue: mu*expectedReturn - variance,
		Status:         StatusOptimal,
		SolveDuration:  time.Since(start),
	}

	vo.log.Debug().
		Float64("mu", mu).
		Float64("expected_return", expectedReturn).
		Float64("variance", variance).
		Dur("solve_duration", res.SolveDuration).
		Msg("Solved variance baseline")

	return res, nil
}

func converged(status optimize.Status) bool {
	switch status {
	case optimize.Success, optimize.GradientThreshold, optimize.FunctionConvergence:
		return true
	default:
		return false
	}
}

func projectToUnitBounds(x []float64) []float64 {
	proj := make([]float64, len(x))
	for i := range x {
		proj[i] = math.Max(0, math.Min(1, x[i]))
	}
	return proj
}
