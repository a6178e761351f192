package optimization

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/optimize/convex/lp"
)

// Solver statuses reported in outcomes and errors.
const (
	StatusOptimal    = "optimal"
	StatusInfeasible = "infeasible"
	StatusUnbounded  = "unbounded"
	StatusFailed     = "failed"
)

// Outcome is the raw result of one LP solve.
type Outcome struct {
	Status    string
	X         []float64 // full standard-form variable vector
	Objective float64   // minimized standard-form objective value
}

// Solver is the narrow capability interface to an LP backend. Any
// simplex or interior-point implementation that accepts the standard-form
// model can be substituted without touching the model builder.
type Solver interface {
	Solve(ctx context.Context, m *Model) (*Outcome, error)
}

// SolverError reports a non-optimal LP termination. The MAD model always
// has a feasible point (equal weights), so infeasible or unbounded here
// means the builder produced a defective model, not a retryable condition.
type SolverError struct {
	Status string
	Err    error
}

func (e *SolverError) Error() string {
	return fmt.Sprintf("lp solve finished with %s status: %v", e.Status, e.Err)
}

func (e *SolverError) Unwrap() error {
	return e.Err
}

// SimplexSolver solves models with gonum's dense simplex method.
type SimplexSolver struct {
	// Tol is the simplex tolerance; 0 uses the solver default.
	Tol float64
}

// NewSimplexSolver creates a simplex-backed solver with default tolerance.
func NewSimplexSolver() *SimplexSolver {
	return &SimplexSolver{}
}

// Solve runs the simplex method on the model. The solve itself is bounded
// by the backend's internal iteration limit; the context is honored between
// solves (a started pivot sequence is not interruptible).
func (s *SimplexSolver) Solve(ctx context.Context, m *Model) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opt, x, err := lp.Simplex(m.C, m.A, m.B, s.Tol, nil)
	if err != nil {
		return nil, &SolverError{Status: classify(err), Err: err}
	}

	return &Outcome{
		Status:    StatusOptimal,
		X:         x,
		Objective: opt,
	}, nil
}

func classify(err error) string {
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return StatusInfeasible
	case errors.Is(err, lp.ErrUnbounded):
		return StatusUnbounded
	default:
		return StatusFailed
	}
}
