package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"madfolio/internal/services"
)

// RefreshJob recomputes the efficient frontier on a schedule so the served
// snapshot tracks the latest stored returns.
type RefreshJob struct {
	service *services.FrontierService
	timeout time.Duration
	log     zerolog.Logger
}

// NewRefreshJob creates a refresh job. A zero timeout defaults to 10 minutes.
func NewRefreshJob(service *services.FrontierService, timeout time.Duration, log zerolog.Logger) *RefreshJob {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &RefreshJob{
		service: service,
		timeout: timeout,
		log:     log.With().Str("job", "frontier_refresh").Logger(),
	}
}

// Name returns the job name.
func (j *RefreshJob) Name() string {
	return "frontier_refresh"
}

// Run computes a fresh frontier with the service defaults.
func (j *RefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	run, err := j.service.Compute(ctx)
	if err != nil {
		return err
	}

	j.log.Info().
		Str("uuid", run.UUID).
		Int("solved", run.Frontier.Solved).
		Msg("Frontier refreshed")
	return nil
}
