package tasks

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/streamscout/streamscout/internal/metadata"
	"github.com/streamscout/streamscout/internal/scheduler"
)

// RegisterCachePruneTask registers the upstream response cache cleanup.
func RegisterCachePruneTask(sched *scheduler.Scheduler, svc *metadata.Service, logger zerolog.Logger) error {
	log := logger.With().Str("task", "cache-prune").Logger()

	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          "cache-prune",
		Name:        "Prune Response Cache",
		Description: "Drops expired genre, external id and provider lookups from the in-memory cache",
		Cron:        "*/10 * * * *", // Every 10 minutes
		Func: func(ctx context.Context) error {
			if n := svc.PruneCache(); n > 0 {
				log.Debug().Int("removed", n).Msg("Pruned expired cache entries")
			}
			return nil
		},
	})
}
