// Package runs persists optimization runs so past frontiers can be listed
// and inspected after the fact.
package runs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"madfolio/internal/database"
	"madfolio/internal/modules/frontier"
	"madfolio/internal/modules/optimization"
)

// ErrNotFound is returned when a run uuid does not exist.
var ErrNotFound = errors.New("run not found")

const runsSchema = `
CREATE TABLE IF NOT EXISTS runs (
	uuid        TEXT PRIMARY KEY,
	created_at  INTEGER NOT NULL,
	assets      TEXT NOT NULL,
	mu_min      REAL NOT NULL,
	mu_max      REAL NOT NULL,
	points      INTEGER NOT NULL,
	spacing     TEXT NOT NULL,
	requested   INTEGER NOT NULL,
	solved      INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS run_points (
	run_uuid        TEXT NOT NULL REFERENCES runs(uuid) ON DELETE CASCADE,
	idx             INTEGER NOT NULL,
	mu              REAL NOT NULL,
	expected_return REAL NOT NULL,
	mad_risk        REAL NOT NULL,
	objective_value REAL NOT NULL,
	weights         TEXT NOT NULL,
	status          TEXT NOT NULL,
	solve_ms        INTEGER NOT NULL,
	PRIMARY KEY (run_uuid, idx)
);

CREATE TABLE IF NOT EXISTS run_benchmarks (
	run_uuid        TEXT NOT NULL REFERENCES runs(uuid) ON DELETE CASCADE,
	idx             INTEGER NOT NULL,
	name            TEXT NOT NULL,
	asset           TEXT NOT NULL DEFAULT '',
	expected_return REAL NOT NULL,
	mad_risk        REAL NOT NULL,
	weights         TEXT NOT NULL,
	PRIMARY KEY (run_uuid, idx)
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
`

// Run is one completed frontier computation.
type Run struct {
	UUID       string               `json:"uuid"`
	CreatedAt  time.Time            `json:"created_at"`
	Assets     []string             `json:"assets"`
	Spec       frontier.SweepSpec   `json:"spec"`
	Frontier   *frontier.Frontier   `json:"frontier"`
	Benchmarks []frontier.Benchmark `json:"benchmarks"`
	Duration   time.Duration        `json:"-"`
	DurationMs int64                `json:"duration_ms"`
}

// Summary is the list view of a run, without points.
type Summary struct {
	UUID       string    `json:"uuid"`
	CreatedAt  time.Time `json:"created_at"`
	NumAssets  int       `json:"num_assets"`
	Requested  int       `json:"requested"`
	Solved     int       `json:"solved"`
	DurationMs int64     `json:"duration_ms"`
}

// Repository handles CRUD operations for optimization runs.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates the repository and ensures its schema exists.
func NewRepository(db *database.DB, log zerolog.Logger) (*Repository, error) {
	if _, err := db.Conn().Exec(runsSchema); err != nil {
		return nil, fmt.Errorf("ensure runs schema: %w", err)
	}
	return &Repository{
		db:  db.Conn(),
		log: log.With().Str("repository", "runs").Logger(),
	}, nil
}

// Save stores a run and returns its uuid. A zero UUID gets one assigned.
func (r *Repository) Save(ctx context.Context, run *Run) (string, error) {
	if run.Frontier == nil {
		return "", errors.New("run has no frontier")
	}
	id := run.UUID
	if id == "" {
		id = uuid.New().String()
	}
	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	assetsJSON, err := json.Marshal(run.Assets)
	if err != nil {
		return "", fmt.Errorf("encode assets: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin run tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(uuid, created_at, assets, mu_min, mu_max, points, spacing,
		 requested, solved, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		createdAt.Unix(),
		string(assetsJSON),
		run.Spec.Min,
		run.Spec.Max,
		run.Spec.Points,
		string(run.Spec.Spacing),
		run.Frontier.Requested,
		run.Frontier.Solved,
		run.Duration.Milliseconds(),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	pointStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_points
		(run_uuid, idx, mu, expected_return, mad_risk, objective_value, weights, status, solve_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("prepare point insert: %w", err)
	}
	defer pointStmt.Close()

	for i, p := range run.Frontier.Points {
		weightsJSON, err := json.Marshal(p.Weights)
		if err != nil {
			return "", fmt.Errorf("encode weights: %w", err)
		}
		_, err = pointStmt.ExecContext(ctx,
			id, i, p.Mu, p.ExpectedReturn, p.MADRisk, p.ObjectiveValue,
			string(weightsJSON), p.Status, p.SolveDuration.Milliseconds())
		if err != nil {
			return "", fmt.Errorf("insert point %d: %w", i, err)
		}
	}

	benchStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_benchmarks
		(run_uuid, idx, name, asset, expected_return, mad_risk, weights)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("prepare benchmark insert: %w", err)
	}
	defer benchStmt.Close()

	for i, b := range run.Benchmarks {
		weightsJSON, err := json.Marshal(b.Weights)
		if err != nil {
			return "", fmt.Errorf("encode benchmark weights: %w", err)
		}
		_, err = benchStmt.ExecContext(ctx,
			id, i, b.Name, b.Asset, b.ExpectedReturn, b.MADRisk, string(weightsJSON))
		if err != nil {
			return "", fmt.Errorf("insert benchmark %s: %w", b.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run: %w", err)
	}
	r.log.Debug().Str("uuid", id).Int("points", len(run.Frontier.Points)).Msg("Run saved")
	return id, nil
}

// Get loads a full run, points and benchmarks included.
func (r *Repository) Get(ctx context.Context, id string) (*Run, error) {
	run := &Run{UUID: id}
	var createdAt int64
	var assetsJSON string
	run.Frontier = &frontier.Frontier{}

	err := r.db.QueryRowContext(ctx, `
		SELECT created_at, assets, mu_min, mu_max, points, spacing,
		       requested, solved, duration_ms
		FROM runs WHERE uuid = ?
	`, id).Scan(
		&createdAt, &assetsJSON, &run.Spec.Min, &run.Spec.Max,
		&run.Spec.Points, &run.Spec.Spacing,
		&run.Frontier.Requested, &run.Frontier.Solved, &run.DurationMs,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	run.CreatedAt = time.Unix(createdAt, 0).UTC()
	run.Duration = time.Duration(run.DurationMs) * time.Millisecond
	if err := json.Unmarshal([]byte(assetsJSON), &run.Assets); err != nil {
		return nil, fmt.Errorf("decode assets: %w", err)
	}

	points, err := r.loadPoints(ctx, id)
	if err != nil {
		return nil, err
	}
	run.Frontier.Points = points

	benchmarks, err := r.loadBenchmarks(ctx, id)
	if err != nil {
		return nil, err
	}
	run.Benchmarks = benchmarks
	return run, nil
}

func (r *Repository) loadPoints(ctx context.Context, id string) ([]optimization.Result, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT mu, expected_return, mad_risk, objective_value, weights, status, solve_ms
		FROM run_points WHERE run_uuid = ? ORDER BY idx
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query run points: %w", err)
	}
	defer rows.Close()

	var points []optimization.Result
	for rows.Next() {
		var p optimization.Result
		var weightsJSON string
		var solveMs int64
		if err := rows.Scan(&p.Mu, &p.ExpectedReturn, &p.MADRisk,
			&p.ObjectiveValue, &weightsJSON, &p.Status, &solveMs); err != nil {
			return nil, fmt.Errorf("scan run point: %w", err)
		}
		if err := json.Unmarshal([]byte(weightsJSON), &p.Weights); err != nil {
			return nil, fmt.Errorf("decode point weights: %w", err)
		}
		p.SolveDuration = time.Duration(solveMs) * time.Millisecond
		points = append(points, p)
	}
	return points, rows.Err()
}

func (r *Repository) loadBenchmarks(ctx context.Context, id string) ([]frontier.Benchmark, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, asset, expected_return, mad_risk, weights
		FROM run_benchmarks WHERE run_uuid = ? ORDER BY idx
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query run benchmarks: %w", err)
	}
	defer rows.Close()

	var benchmarks []frontier.Benchmark
	for rows.Next() {
		var b frontier.Benchmark
		var weightsJSON string
		if err := rows.Scan(&b.Name, &b.Asset, &b.ExpectedReturn, &b.MADRisk, &weightsJSON); err != nil {
			return nil, fmt.Errorf("scan run benchmark: %w", err)
		}
		if err := json.Unmarshal([]byte(weightsJSON), &b.Weights); err != nil {
			return nil, fmt.Errorf("decode benchmark weights: %w", err)
		}
		benchmarks = append(benchmarks, b)
	}
	return benchmarks, rows.Err()
}

// List returns run summaries, newest first.
func (r *Repository) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT uuid, created_at, assets, requested, solved, duration_ms
		FROM runs ORDER BY created_at DESC, uuid LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	summaries := make([]Summary, 0, limit)
	for rows.Next() {
		var s Summary
		var createdAt int64
		var assetsJSON string
		if err := rows.Scan(&s.UUID, &createdAt, &assetsJSON,
			&s.Requested, &s.Solved, &s.DurationMs); err != nil {
			return nil, fmt.Errorf("scan run summary: %w", err)
		}
		var assets []string
		if err := json.Unmarshal([]byte(assetsJSON), &assets); err != nil {
			return nil, fmt.Errorf("decode assets: %w", err)
		}
		s.CreatedAt = time.Unix(createdAt, 0).UTC()
		s.NumAssets = len(assets)
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// Prune deletes all but the newest keep runs.
func (r *Repository) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM runs WHERE uuid NOT IN (
			SELECT uuid FROM runs ORDER BY created_at DESC, uuid LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	deleted, _ := res.RowsAffected()
	if deleted > 0 {
		r.log.Info().Int64("deleted", deleted).Int("keep", keep).Msg("Pruned old runs")
	}
	return deleted, nil
}
