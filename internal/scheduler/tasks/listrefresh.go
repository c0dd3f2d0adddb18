package tasks

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/streamscout/streamscout/internal/lists"
	"github.com/streamscout/streamscout/internal/scheduler"
	"github.com/streamscout/streamscout/internal/scout"
)

// CacheInvalidator drops cached lookups of one title.
type CacheInvalidator interface {
	Invalidate(t scout.MediaType, id int)
}

// ListRefreshTask re-resolves rating and providers of every stored item.
type ListRefreshTask struct {
	store    *lists.Store
	pipeline *scout.Pipeline
	cache    CacheInvalidator
	logger   zerolog.Logger
}

// NewListRefreshTask creates a new list refresh task. cache may be nil.
func NewListRefreshTask(store *lists.Store, pipeline *scout.Pipeline, cache CacheInvalidator, logger zerolog.Logger) *ListRefreshTask {
	return &ListRefreshTask{
		store:    store,
		pipeline: pipeline,
		cache:    cache,
		logger:   logger.With().Str("task", "list-refresh").Logger(),
	}
}

// Run refreshes every list. A failing list does not stop the others.
func (t *ListRefreshTask) Run(ctx context.Context) error {
	t.logger.Info().Msg("Starting scheduled list refresh")

	var errs []error
	total := 0
	for _, name := range lists.Names {
		n, err := t.store.Rewrite(ctx, name, func(it scout.Item) scout.Item {
			if ctx.Err() != nil {
				return it
			}
			// Offers cached by a recent search would be written back unchanged.
			if t.cache != nil && it.NativeID > 0 {
				t.cache.Invalidate(it.Type, it.NativeID)
			}
			return t.pipeline.Refresh(ctx, it)
		})
		if err != nil {
			t.logger.Error().Err(err).Str("list", name).Msg("Failed to refresh list")
			errs = append(errs, err)
			continue
		}
		total += n
	}

	t.logger.Info().Int("itemsRefreshed", total).Msg("Scheduled list refresh completed")
	return errors.Join(errs...)
}

// RegisterListRefreshTask registers the daily list refresh.
func RegisterListRefreshTask(sched *scheduler.Scheduler, store *lists.Store, pipeline *scout.Pipeline, cache CacheInvalidator, logger zerolog.Logger) error {
	task := NewListRefreshTask(store, pipeline, cache, logger)

	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          "list-refresh",
		Name:        "Refresh Stored Lists",
		Description: "Updates ratings and streaming providers of watchlist and watched items",
		Cron:        "0 4 * * *", // 04:00 daily
		Func:        task.Run,
	})
}
