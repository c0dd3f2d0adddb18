package lists

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/streamscout/streamscout/internal/database/sqlc"
)

// Event is one recorded list change.
type Event struct {
	ID        int64     `json:"id"`
	List      string    `json:"list"`
	Key       string    `json:"key"`
	Action    Action    `json:"action"`
	CreatedAt time.Time `json:"createdAt"`
}

// History records list changes in the list_events table. It is registered
// on the store as a Notifier.
type History struct {
	queries *sqlc.Queries
	logger  zerolog.Logger
}

// NewHistory creates a history recorder.
func NewHistory(db *sql.DB, logger zerolog.Logger) *History {
	return &History{
		queries: sqlc.New(db),
		logger:  logger.With().Str("component", "list-history").Logger(),
	}
}

// Notify records change. Failures are logged, never returned: history must
// not block a list mutation that already succeeded.
func (h *History) Notify(ctx context.Context, change Change) {
	err := h.queries.CreateListEvent(ctx, sqlc.CreateListEventParams{
		List:    change.List,
		ItemKey: change.Key,
		Action:  string(change.Action),
	})
	if err != nil {
		h.logger.Warn().Err(err).Str("list", change.List).Str("key", change.Key).Msg("Failed to record list event")
	}
}

// List returns the most recent events, newest first. An empty key returns
// events for every item.
func (h *History) List(ctx context.Context, key string, limit int) ([]Event, error) {
	if limit < 1 || limit > 500 {
		limit = 50
	}

	var rows []*sqlc.ListEvent
	var err error
	if key == "" {
		rows, err = h.queries.ListListEvents(ctx, int64(limit))
	} else {
		rows, err = h.queries.ListListEventsByKey(ctx, sqlc.ListListEventsByKeyParams{
			ItemKey: key,
			Limit:   int64(limit),
		})
	}
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, rowToEvent(row))
	}
	return events, nil
}

func rowToEvent(row *sqlc.ListEvent) Event {
	return Event{
		ID:        row.ID,
		List:      row.List,
		Key:       row.ItemKey,
		Action:    Action(row.Action),
		CreatedAt: row.CreatedAt,
	}
}

// Prune deletes events older than retention and returns how many were removed.
func (h *History) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().Add(-retention).Truncate(time.Second)

	n, err := h.queries.DeleteListEventsBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune list events: %w", err)
	}
	if n > 0 {
		h.logger.Info().Int64("removed", n).Msg("Pruned list history")
	}
	return n, nil
}
