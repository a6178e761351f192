package frontier

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"madfolio/internal/modules/optimization"
)

// ErrAllPointsFailed is returned when no μ value in a sweep produced a
// solution. An empty frontier is never reported as success.
var ErrAllPointsFailed = errors.New("all sweep points failed")

// PointSolver solves the portfolio problem for a single μ value.
// *optimization.MADOptimizer is the production implementation.
type PointSolver interface {
	Solve(ctx context.Context, mu float64) (*optimization.Result, error)
}

// Frontier is the outcome of one sweep. Points are ordered by the input μ
// sequence, not by completion order, and failed points are absent — the
// Requested/Solved counts make partial frontiers visible to callers.
type Frontier struct {
	Points    []optimization.Result `json:"points"`
	Requested int                   `json:"requested"`
	Solved    int                   `json:"solved"`
}

// Progress describes one completed sweep point, successful or not.
type Progress struct {
	Index     int     `json:"index"`
	Mu        float64 `json:"mu"`
	Completed int     `json:"completed"`
	Requested int     `json:"requested"`
	Solved    bool    `json:"solved"`
}

// Sweeper drives the model/solver pair across a μ sequence.
type Sweeper struct {
	solver   PointSolver
	workers  int
	log      zerolog.Logger
	progress func(Progress)
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithWorkers sets the number of parallel solves. Values below 2 keep the
// sweep sequential. Each point is independent, so parallel and sequential
// sweeps produce identical frontiers.
func WithWorkers(n int) Option {
	return func(s *Sweeper) {
		if n > 1 {
			s.workers = n
		}
	}
}

// WithProgress registers a callback invoked after every completed point.
// The callback may be invoked from multiple goroutines, one call at a time.
func WithProgress(fn func(Progress)) Option {
	return func(s *Sweeper) { s.progress = fn }
}

// NewSweeper creates a sweeper over the given per-point solver.
func NewSweeper(solver PointSolver, log zerolog.Logger, opts ...Option) *Sweeper {
	s := &Sweeper{
		solver:  solver,
		workers: 1,
		log:     log.With().Str("component", "sweeper").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sweep solves every μ in input order and collects the successes into a
// frontier. A failing point is logged and skipped — one bad μ must not
// invalidate the rest — but a sweep where every point fails returns
// ErrAllPointsFailed. Context cancellation aborts unstarted points.
func (s *Sweeper) Sweep(ctx context.Context, mus []float64) (*Frontier, error) {
	if err := ValidateMuValues(mus); err != nil {
		return nil, err
	}

	s.log.Info().
		Int("points", len(mus)).
		Int("workers", s.workers).
		Float64("mu_min", mus[0]).
		Float64("mu_max", mus[len(mus)-1]).
		Msg("Starting frontier sweep")

	results := make([]*optimization.Result, len(mus))

	var mu sync.Mutex
	var firstErr error
	completed := 0

	record := func(i int, res *optimization.Result, err error) {
		mu.Lock()
		defer mu.Unlock()
		completed++
		if err != nil && firstErr == nil {
			firstErr = err
		}
		results[i] = res
		if s.progress != nil {
			s.progress(Progress{
				Index:     i,
				Mu:        mus[i],
				Completed: completed,
				Requested: len(mus),
				Solved:    err == nil,
			})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, muValue := range mus {
		// Shadow copies: keep per-iteration values when built with a pre-1.22
		// toolchain (the go directive originally targeted 1.23 semantics).
		i, muValue := i, muValue
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := s.solver.Solve(gctx, muValue)
			if err != nil {
				// Per-point failures stay local; cancellation aborts the sweep.
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				s.log.Error().
					Err(err).
					Float64("mu", muValue).
					Msg("Sweep point failed, skipping")
				record(i, nil, err)
				return nil
			}
			record(i, res, nil)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("sweep aborted: %w", err)
	}

	frontier := &Frontier{Requested: len(mus)}
	for _, res := range results {
		if res != nil {
			frontier.Points = append(frontier.Points, *res)
		}
	}
	frontier.Solved = len(frontier.Points)

	if frontier.Solved == 0 {
		return nil, fmt.Errorf("%w: %v", ErrAllPointsFailed, firstErr)
	}

	s.log.Info().
		Int("solved", frontier.Solved).
		Int("requested", frontier.Requested).
		Msg("Frontier sweep complete")

	return frontier, nil
}
