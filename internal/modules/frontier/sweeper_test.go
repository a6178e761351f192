package frontier

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"madfolio/internal/modules/optimization"
	"madfolio/internal/modules/statistics"
)

func scenarioOptimizer(t *testing.T) *optimization.MADOptimizer {
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
	stats := statistics.Compute(returns)
	return optimization.NewMADOptimizer(stats, optimization.NewSimplexSolver(), zerolog.Nop())
}

// flakySolver fails for μ values in its failure set.
type flakySolver struct {
	inner   PointSolver
	failFor map[float64]bool
	calls   atomic.Int64
}

func (f *flakySolver) Solve(ctx context.Context, mu float64) (*optimization.Result, error) {
	f.calls.Add(1)
	if f.failFor[mu] {
		return nil, &optimization.SolverError{Status: optimization.StatusFailed, Err: errors.New("injected failure")}
	}
	return f.inner.Solve(ctx, mu)
}

func TestSweep_OrderedAndComplete(t *testing.T) {
	sweeper := NewSweeper(scenarioOptimizer(t), zerolog.Nop())

	mus := []float64{0.5, 1, 2, 5, 10, 20}
	result, err := sweeper.Sweep(context.Background(), mus)
	require.NoError(t, err)

	assert.Equal(t, len(mus), result.Requested)
	assert.Equal(t, len(mus), result.Solved)
	require.Len(t, result.Points, len(mus))

	// Points come back in input μ order with non-decreasing returns.
	for i, point := range result.Points {
		assert.Equal(t, mus[i], point.Mu)
		if i > 0 {
			assert.GreaterOrEqual(t, point.ExpectedReturn, result.Points[i-1].ExpectedReturn-1e-9)
		}
	}
}

func TestSweep_ParallelMatchesSequential(t *testing.T) {
	mus := []float64{0.5, 1, 2, 5, 10, 20, 50}

	sequential, err := NewSweeper(scenarioOptimizer(t), zerolog.Nop()).
		Sweep(context.Background(), mus)
	require.NoError(t, err)

	parallel, err := NewSweeper(scenarioOptimizer(t), zerolog.Nop(), WithWorkers(4)).
		Sweep(context.Background(), mus)
	require.NoError(t, err)

	require.Equal(t, sequential.Solved, parallel.Solved)
	for i := range sequential.Points {
		assert.Equal(t, sequential.Points[i].Mu, parallel.Points[i].Mu)
		assert.InDeltaSlice(t, sequential.Points[i].Weights, parallel.Points[i].Weights, 1e-12)
	}
}

func TestSweep_SkipsFailedPoints(t *testing.T) {
	solver := &flakySolver{
		inner:   scenarioOptimizer(t),
		failFor: map[float64]bool{2: true, 10: true},
	}
	sweeper := NewSweeper(solver, zerolog.Nop())

	mus := []float64{0.5, 1, 2, 5, 10, 20}
	result, err := sweeper.Sweep(context.Background(), mus)
	require.NoError(t, err)

	assert.Equal(t, 6, result.Requested)
	assert.Equal(t, 4, result.Solved)

	// Failed μ values are absent, the rest keep input order.
	got := make([]float64, 0, len(result.Points))
	for _, p := range result.Points {
		got = append(got, p.Mu)
	}
	assert.Equal(t, []float64{0.5, 1, 5, 20}, got)
}

func TestSweep_AllFailed(t *testing.T) {
	solver := &flakySolver{
		inner:   scenarioOptimizer(t),
		failFor: map[float64]bool{1: true, 2: true, 3: true},
	}
	sweeper := NewSweeper(solver, zerolog.Nop())

	_, err := sweeper.Sweep(context.Background(), []float64{1, 2, 3})
	require.ErrorIs(t, err, ErrAllPointsFailed)
}

func TestSweep_InvalidMuSequences(t *testing.T) {
	sweeper := NewSweeper(scenarioOptimizer(t), zerolog.Nop())
	var cfgErr *ConfigurationError

	_, err := sweeper.Sweep(context.Background(), nil)
	require.ErrorAs(t, err, &cfgErr)

	_, err = sweeper.Sweep(context.Background(), []float64{1, -2, 3})
	require.ErrorAs(t, err, &cfgErr)

	_, err = sweeper.Sweep(context.Background(), []float64{1, 3, 2})
	require.ErrorAs(t, err, &cfgErr)
}

func TestSweep_ProgressCallback(t *testing.T) {
	var events []Progress
	sweeper := NewSweeper(scenarioOptimizer(t), zerolog.Nop(),
		WithProgress(func(p Progress) { events = append(events, p) }))

	mus := []float64{1, 2, 5}
	_, err := sweeper.Sweep(context.Background(), mus)
	require.NoError(t, err)

	require.Len(t, events, len(mus))
	assert.Equal(t, len(mus), events[len(events)-1].Completed)
	for _, ev := range events {
		assert.True(t, ev.Solved)
		assert.Equal(t, len(mus), ev.Requested)
	}
}

func TestSweepSpec_MuValues(t *testing.T) {
	spec := SweepSpec{Min: 0.1, Max: 31.622776601683793, Points: 100, Spacing: SpacingLog}
	mus, err := spec.MuValues()
	require.NoError(t, err)
	require.Len(t, mus, 100)
	assert.InDelta(t, 0.1, mus[0], 1e-9)
	assert.InDelta(t, 31.622776601683793, mus[99], 1e-6)
	require.NoError(t, ValidateMuValues(mus))

	linear := SweepSpec{Min: 1, Max: 10, Points: 10, Spacing: SpacingLinear}
	mus, err = linear.MuValues()
	require.NoError(t, err)
	assert.Equal(t, 1.0, mus[0])
	assert.Equal(t, 10.0, mus[9])
}

func TestSweepSpec_Validate(t *testing.T) {
	var cfgErr *ConfigurationError

	err := SweepSpec{Min: 0, Max: 1, Points: 5, Spacing: SpacingLog}.Validate()
	require.ErrorAs(t, err, &cfgErr)

	err = SweepSpec{Min: 1, Max: 1, Points: 5, Spacing: SpacingLog}.Validate()
	require.ErrorAs(t, err, &cfgErr)

	err = SweepSpec{Min: 1, Max: 2, Points: 0, Spacing: SpacingLog}.Validate()
	require.ErrorAs(t, err, &cfgErr)

	err = SweepSpec{Min: 1, Max: 2, Points: 5, Spacing: "exotic"}.Validate()
	require.ErrorAs(t, err, &cfgErr)

	require.NoError(t, SweepSpec{Min: 1, Max: 2, Points: 5, Spacing: SpacingLinear}.Validate())
}
