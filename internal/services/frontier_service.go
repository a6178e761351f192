// Package services wires the optimization modules into application-level
// operations shared by the HTTP server, the CLI and the scheduler.
package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"madfolio/internal/modules/datasource"
	"madfolio/internal/modules/frontier"
	"madfolio/internal/modules/optimization"
	"madfolio/internal/modules/runs"
	"madfolio/internal/modules/statistics"
)

// ErrNoFrontier is returned when no frontier has been computed yet and no
// snapshot exists on disk.
var ErrNoFrontier = errors.New("no frontier computed yet")

// Config holds the service's sweep defaults and persistence locations.
type Config struct {
	Spec         frontier.SweepSpec
	Workers      int
	SnapshotPath string
	KeepRuns     int // old runs pruned beyond this count, 0 keeps all
}

// FrontierService runs the full pipeline: load returns, derive statistics,
// sweep the frontier, compute benchmarks, persist the run and snapshot.
// It is safe for concurrent use; Compute calls are serialized.
type FrontierService struct {
	source datasource.Source
	repo   *runs.Repository
	cfg    Config
	log    zerolog.Logger

	computeMu sync.Mutex // one sweep at a time

	stateMu sync.RWMutex
	latest  *frontier.Snapshot

	subMu       sync.Mutex
	subscribers map[chan frontier.Progress]struct{}
}

// NewFrontierService creates the service. The snapshot file, when present,
// is loaded lazily on the first Latest call.
func NewFrontierService(source datasource.Source, repo *runs.Repository, cfg Config, log zerolog.Logger) *FrontierService {
	return &FrontierService{
		source:      source,
		repo:        repo,
		cfg:         cfg,
		log:         log.With().Str("service", "frontier").Logger(),
		subscribers: make(map[chan frontier.Progress]struct{}),
	}
}

// DefaultSpec returns the configured sweep defaults.
func (s *FrontierService) DefaultSpec() frontier.SweepSpec {
	return s.cfg.Spec
}

// Compute runs one full frontier computation with the service defaults.
func (s *FrontierService) Compute(ctx context.Context) (*runs.Run, error) {
	return s.ComputeWithSpec(ctx, s.cfg.Spec)
}

// ComputeWithSpec runs one full frontier computation with an explicit sweep
// specification, overriding the service defaults.
func (s *FrontierService) ComputeWithSpec(ctx context.Context, spec frontier.SweepSpec) (*runs.Run, error) {
	s.computeMu.Lock()
	defer s.computeMu.Unlock()

	start := time.Now()

	mus, err := spec.MuValues()
	if err != nil {
		return nil, err
	}

	returns, err := s.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load returns: %w", err)
	}
	stats := statistics.Compute(returns)
	s.log.Info().
		Int("assets", stats.NumAssets()).
		Int("periods", stats.Periods()).
		Int("points", len(mus)).
		Msg("Starting frontier computation")

	optimizer := optimization.NewMADOptimizer(stats, optimization.NewSimplexSolver(), s.log)
	sweeper := frontier.NewSweeper(optimizer, s.log,
		frontier.WithWorkers(s.cfg.Workers),
		frontier.WithProgress(s.broadcast),
	)

	front, err := sweeper.Sweep(ctx, mus)
	if err != nil {
		return nil, err
	}

	calc := frontier.NewBenchmarkCalculator(stats, optimizer, s.log)
	benchmarks, err := calc.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("compute benchmarks: %w", err)
	}
	benchmarks = append(benchmarks, calc.SingleAssetPortfolios()...)

	run := &runs.Run{
		CreatedAt:  time.Now().UTC(),
		Assets:     stats.AssetNames(),
		Spec:       spec,
		Frontier:   front,
		Benchmarks: benchmarks,
		Duration:   time.Since(start),
	}
	run.DurationMs = run.Duration.Milliseconds()

	if s.repo != nil {
		id, err := s.repo.Save(ctx, run)
		if err != nil {
			return nil, fmt.Errorf("persist run: %w", err)
		}
		run.UUID = id
		if s.cfg.KeepRuns > 0 {
			if _, err := s.repo.Prune(ctx, s.cfg.KeepRuns); err != nil {
				s.log.Warn().Err(err).Msg("Failed to prune old runs")
			}
		}
	}

	snap := &frontier.Snapshot{
		SavedAt:    run.CreatedAt,
		Assets:     run.Assets,
		Frontier:   front,
		Benchmarks: benchmarks,
	}
	if s.cfg.SnapshotPath != "" {
		if err := frontier.SaveSnapshot(s.cfg.SnapshotPath, snap); err != nil {
			// The run is already persisted; a stale snapshot only delays
			// the next cold start.
			s.log.Warn().Err(err).Msg("Failed to save frontier snapshot")
		}
	}
	s.stateMu.Lock()
	s.latest = snap
	s.stateMu.Unlock()

	s.log.Info().
		Str("uuid", run.UUID).
		Int("solved", front.Solved).
		Int("requested", front.Requested).
		Dur("duration", run.Duration).
		Msg("Frontier computation complete")
	return run, nil
}

// Latest returns the most recent frontier snapshot, falling back to the
// on-disk snapshot when nothing has been computed in this process.
func (s *FrontierService) Latest() (*frontier.Snapshot, error) {
	s.stateMu.RLock()
	snap := s.latest
	s.stateMu.RUnlock()
	if snap != nil {
		return snap, nil
	}

	if s.cfg.SnapshotPath == "" {
		return nil, ErrNoFrontier
	}
	loaded, err := frontier.LoadSnapshot(s.cfg.SnapshotPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoFrontier
	}
	if err != nil {
		return nil, err
	}

	s.stateMu.Lock()
	s.latest = loaded
	s.stateMu.Unlock()
	return loaded, nil
}

// CorrelationReport is the asset correlation matrix with its labels.
type CorrelationReport struct {
	Assets      []string    `json:"assets"`
	Correlation [][]float64 `json:"correlation"`
}

// Correlation loads the current returns and derives the correlation matrix.
func (s *FrontierService) Correlation(ctx context.Context) (*CorrelationReport, error) {
	returns, err := s.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load returns: %w", err)
	}
	stats := statistics.Compute(returns)
	corr, err := stats.CorrelationMatrix()
	if err != nil {
		return nil, err
	}
	return &CorrelationReport{Assets: stats.AssetNames(), Correlation: corr}, nil
}

// Benchmarks computes the benchmark portfolios for the current returns,
// without sweeping a frontier.
func (s *FrontierService) Benchmarks(ctx context.Context) ([]frontier.Benchmark, error) {
	returns, err := s.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load returns: %w", err)
	}
	stats := statistics.Compute(returns)
	optimizer := optimization.NewMADOptimizer(stats, optimization.NewSimplexSolver(), s.log)
	calc := frontier.NewBenchmarkCalculator(stats, optimizer, s.log)

	benchmarks, err := calc.All(ctx)
	if err != nil {
		return nil, err
	}
	return append(benchmarks, calc.SingleAssetPortfolios()...), nil
}

// Subscribe registers a progress listener for running sweeps. The returned
// cancel function must be called to release the channel. Slow consumers
// miss events instead of stalling the sweep.
func (s *FrontierService) Subscribe() (<-chan frontier.Progress, func()) {
	ch := make(chan frontier.Progress, 64)

	s.subMu.Lock()
	s.subscribers[ch] = struct{}{}
	s.subMu.Unlock()

	cancel := func() {
		s.subMu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.subMu.Unlock()
	}
	return ch, cancel
}

func (s *FrontierService) broadcast(p frontier.Progress) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- p:
		default:
		}
	}
}
