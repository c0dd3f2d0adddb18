package tasks

import (
	"context"
	"time"

	"github.com/streamscout/streamscout/internal/lists"
	"github.com/streamscout/streamscout/internal/scheduler"
)

const ListHistoryCleanupTaskID = "list-history-cleanup"

// RegisterListHistoryCleanupTask registers the list history retention task.
// The task runs daily at 02:00 and deletes events older than retentionDays.
func RegisterListHistoryCleanupTask(sched *scheduler.Scheduler, history *lists.History, retentionDays int) error {
	retention := time.Duration(retentionDays) * 24 * time.Hour

	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          ListHistoryCleanupTaskID,
		Name:        "List History Cleanup",
		Description: "Deletes list change events older than the configured retention period",
		Cron:        "0 2 * * *",
		Func: func(ctx context.Context) error {
			_, err := history.Prune(ctx, retention)
			return err
		},
	})
}
