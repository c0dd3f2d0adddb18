package tasks

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/streamscout/streamscout/internal/metadata"
	"github.com/streamscout/streamscout/internal/scheduler"
)

// UpstreamChecker tests connectivity of the configured upstreams.
type UpstreamChecker interface {
	Test(ctx context.Context) error
}

// UpstreamHealthTask re-tests the upstream credentials.
type UpstreamHealthTask struct {
	checker UpstreamChecker
	logger  zerolog.Logger
}

// NewUpstreamHealthTask creates a new upstream health check task.
func NewUpstreamHealthTask(checker UpstreamChecker, logger zerolog.Logger) *UpstreamHealthTask {
	return &UpstreamHealthTask{
		checker: checker,
		logger:  logger.With().Str("task", "upstream-health").Logger(),
	}
}

// Run executes the upstream health check. Having no upstream configured is
// not a failure.
func (t *UpstreamHealthTask) Run(ctx context.Context) error {
	t.logger.Debug().Msg("Starting upstream health check")

	err := t.checker.Test(ctx)
	switch {
	case errors.Is(err, metadata.ErrNoProvidersConfigured):
		t.logger.Warn().Msg("No metadata upstream configured")
		return nil
	case err != nil:
		t.logger.Error().Err(err).Msg("Upstream health check failed")
		return err
	}

	t.logger.Debug().Msg("Upstream health check completed")
	return nil
}

// RegisterUpstreamHealthTask registers the hourly upstream health check.
func RegisterUpstreamHealthTask(sched *scheduler.Scheduler, checker UpstreamChecker, logger zerolog.Logger) error {
	task := NewUpstreamHealthTask(checker, logger)

	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          "upstream-health",
		Name:        "Upstream Health Check",
		Description: "Verifies that the TMDB, OMDb and OpenAI credentials still work",
		Cron:        "@every 1h",
		RunOnStart:  true,
		Func:        task.Run,
	})
}
