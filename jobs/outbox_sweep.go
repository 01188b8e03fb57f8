package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/farmstead-erp/farmstead-erp/internal/jobs"
)

const (
	// TaskOutboxSweep re-drives pending outbox rows that the post-commit
	// nudge missed, then prunes old dispatched rows.
	TaskOutboxSweep = "outbox:sweep"
)

// OutboxSweepPayload carries scheduling metadata.
type OutboxSweepPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewOutboxSweepTask constructs an Asynq task for the outbox sweep.
func NewOutboxSweepTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(OutboxSweepPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOutboxSweep, body, asynq.Queue(QueueDefault)), nil
}

// OutboxDispatcher is the dispatcher surface the sweep drives.
type OutboxDispatcher interface {
	DispatchPending(ctx context.Context) error
}

// OutboxPruner removes settled rows past retention.
type OutboxPruner interface {
	Prune(ctx context.Context, olderThan time.Duration) error
}

// OutboxSweepJob periodically drains and prunes the outbox.
type OutboxSweepJob struct {
	Dispatcher OutboxDispatcher
	Pruner     OutboxPruner
	Retention  time.Duration
	Logger     *slog.Logger
	Metrics    *jobmetrics.Metrics
}

// NewOutboxSweepJob initialises the sweep handler.
func NewOutboxSweepJob(dispatcher OutboxDispatcher, pruner OutboxPruner, retention time.Duration, logger *slog.Logger, metrics *jobmetrics.Metrics) *OutboxSweepJob {
	if retention <= 0 {
		retention = 7 * 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OutboxSweepJob{
		Dispatcher: dispatcher,
		Pruner:     pruner,
		Retention:  retention,
		Logger:     logger,
		Metrics:    metrics,
	}
}

// Handle executes one sweep.
func (j *OutboxSweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Dispatcher == nil {
		return errors.New("outbox sweep: handler not configured")
	}
	tracker := j.Metrics.Track("outbox_sweep")
	if err := j.Dispatcher.DispatchPending(ctx); err != nil {
		j.Logger.Error("outbox sweep dispatch", slog.Any("error", err))
		return tracker.End(err)
	}
	if j.Pruner != nil {
		if err := j.Pruner.Prune(ctx, j.Retention); err != nil {
			j.Logger.Warn("outbox prune", slog.Any("error", err))
		}
	}
	return tracker.End(nil)
}
