package frontier

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"madfolio/internal/modules/optimization"
	"madfolio/internal/modules/statistics"
)

// Benchmark names reported to callers.
const (
	BenchmarkEqualWeight = "equal_weight"
	BenchmarkMaxReturn   = "max_return"
	BenchmarkMinRisk     = "min_risk"
)

// Benchmark is a named fixed allocation with its risk/return figures,
// computed with the same formulas as sweep results so the two are directly
// comparable.
type Benchmark struct {
	Name           string    `json:"name"`
	Asset          string    `json:"asset,omitempty"` // set for single-asset strategies
	Weights        []float64 `json:"weights"`
	ExpectedReturn float64   `json:"expected_return"`
	MADRisk        float64   `json:"mad_risk"`
}

// BenchmarkCalculator computes the fixed reference strategies.
type BenchmarkCalculator struct {
	stats     *statistics.AssetStatistics
	metrics   *optimization.Metrics
	optimizer PointSolver
	log       zerolog.Logger
}

// NewBenchmarkCalculator creates a calculator. The point solver is used
// only for the minimum-risk strategy (a μ=0 solve).
func NewBenchmarkCalculator(stats *statistics.AssetStatistics, optimizer PointSolver, log zerolog.Logger) *BenchmarkCalculator {
	return &BenchmarkCalculator{
		stats:     stats,
		metrics:   optimization.NewMetrics(stats),
		optimizer: optimizer,
		log:       log.With().Str("component", "benchmarks").Logger(),
	}
}

// EqualWeight returns the 1/n strategy.
func (b *BenchmarkCalculator) EqualWeight() Benchmark {
	n := b.stats.NumAssets()
	weights := make([]float64, n)
	for j := range weights {
		weights[j] = 1.0 / float64(n)
	}
	return b.build(BenchmarkEqualWeight, "", weights)
}

// MaxReturn returns the all-in allocation on the asset with the highest
// expected return.
func (b *BenchmarkCalculator) MaxReturn() Benchmark {
	expected := b.stats.ExpectedReturns()
	best := 0
	for j, r := range expected {
		if r > expected[best] {
			best = j
		}
	}
	weights := make([]float64, b.stats.NumAssets())
	weights[best] = 1.0
	return b.build(BenchmarkMaxReturn, b.stats.AssetNames()[best], weights)
}

// MinRisk solves the μ=0 problem and reports the minimum-risk portfolio.
func (b *BenchmarkCalculator) MinRisk(ctx context.Context) (Benchmark, error) {
	result, err := b.optimizer.Solve(ctx, 0)
	if err != nil {
		return Benchmark{}, fmt.Errorf("min-risk benchmark: %w", err)
	}
	return b.build(BenchmarkMinRisk, "", result.Weights), nil
}

// All computes every benchmark strategy.
func (b *BenchmarkCalculator) All(ctx context.Context) ([]Benchmark, error) {
	minRisk, err := b.MinRisk(ctx)
	if err != nil {
		return nil, err
	}
	return []Benchmark{b.EqualWeight(), b.MaxReturn(), minRisk}, nil
}

// SingleAssetPortfolios returns the degenerate x_j = 1 portfolio for each
// asset. These are reference points for plotting, not frontier members,
// and need no solve.
func (b *BenchmarkCalculator) SingleAssetPortfolios() []Benchmark {
	n := b.stats.NumAssets()
	names := b.stats.AssetNames()

	portfolios := make([]Benchmark, 0, n)
	for j := 0; j < n; j++ {
		weights := make([]float64, n)
		weights[j] = 1.0
		portfolios = append(portfolios, b.build("single_asset", names[j], weights))
	}
	return portfolios
}

func (b *BenchmarkCalculator) build(name, asset string, weights []float64) Benchmark {
	return Benchmark{
		Name:           name,
		Asset:          asset,
		Weights:        weights,
		ExpectedReturn: b.metrics.PortfolioReturn(weights),
		MADRisk:        b.metrics.MADRisk(weights),
	}
}
