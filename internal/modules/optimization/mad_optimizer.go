package optimization

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"madfolio/internal/modules/statistics"
)

// Result is one solved frontier point. Immutable once created.
type Result struct {
	Mu             float64       `json:"mu"`
	Weights        []float64     `json:"weights"`
	ExpectedReturn float64       `json:"expected_return"`
	MADRisk        float64       `json:"mad_risk"`
	ObjectiveValue float64       `json:"objective_value"`
	Status         string        `json:"status"`
	SolveDuration  time.Duration `json:"solve_duration"`
}

// MADOptimizer solves the MAD portfolio problem for individual μ values.
// The statistics it is bound to are read-only, so one optimizer may be
// shared by concurrent solves.
type MADOptimizer struct {
	stats   *statistics.AssetStatistics
	solver  Solver
	metrics *Metrics
	log     zerolog.Logger
}

// NewMADOptimizer creates an optimizer over the given statistics.
func NewMADOptimizer(stats *statistics.AssetStatistics, solver Solver, log zerolog.Logger) *MADOptimizer {
	return &MADOptimizer{
		stats:   stats,
		solver:  solver,
		metrics: NewMetrics(stats),
		log:     log.With().Str("component", "mad_optimizer").Logger(),
	}
}

// Metrics returns the metrics calculator bound to the optimizer's statistics.
func (o *MADOptimizer) Metrics() *Metrics {
	return o.metrics
}

// Stats returns the read-only asset statistics the optimizer solves against.
func (o *MADOptimizer) Stats() *statistics.AssetStatistics {
	return o.stats
}

// Solve builds and solves the MAD model for one μ value.
// Expected return and MAD risk in the result are recomputed from the
// extracted weights with the same formulas the benchmarks use, so all
// reported points are directly comparable.
func (o *MADOptimizer) Solve(ctx context.Context, mu float64) (*Result, error) {
	start := time.Now()

	model, err := BuildModel(o.stats, mu)
	if err != nil {
		return nil, fmt.Errorf("build model for mu=%g: %w", mu, err)
	}

	outcome, err := o.solver.Solve(ctx, model)
	if err != nil {
		return nil, fmt.Errorf("solve mu=%g: %w", mu, err)
	}

	weights := cleanWeights(model.Weights(outcome.X))
	expectedReturn := o.metrics.PortfolioReturn(weights)
	madRisk := o.metrics.MADRisk(weights)

	result := &Result{
		Mu:             mu,
		Weights:        weights,
		ExpectedReturn: expectedReturn,
		MADRisk:        madRisk,
		ObjectiveValue: mu*expectedReturn - madRisk,
		Status:         outcome.Status,
		SolveDuration:  time.Since(start),
	}

	o.log.Debug().
		Float64("mu", mu).
		Float64("expected_return", expectedReturn).
		Float64("mad_risk", madRisk).
		Dur("solve_duration", result.SolveDuration).
		Msg("Solved MAD model")

	return result, nil
}

// cleanWeights clamps the tiny negative values simplex arithmetic can leave
// behind and renormalizes so the budget constraint holds exactly.
func cleanWeights(weights []float64) []float64 {
	var sum float64
	for i, w := range weights {
		if w < 0 {
			weights[i] = 0
		}
		sum += weights[i]
	}
	if sum > 0 {
		for i := range weights {
			weights[i] /= sum
		}
	}
	return weights
}
