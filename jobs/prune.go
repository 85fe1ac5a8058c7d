package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/nutriscan/nutriscan/internal/jobs"
)

// Pruner deletes history scanned before a cutoff.
type Pruner interface {
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// PruneJob enforces the scan history retention window.
type PruneJob struct {
	History   Pruner
	Retention time.Duration
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	clock     func() time.Time
}

// NewPruneJob wires dependencies for the prune handler.
func NewPruneJob(history Pruner, retention time.Duration, logger *slog.Logger, metrics *jobmetrics.Metrics) *PruneJob {
	return &PruneJob{
		History:   history,
		Retention: retention,
		Logger:    logger,
		Metrics:   metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes history prune tasks. A non-positive retention disables
// pruning.
func (j *PruneJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.History == nil {
		return errors.New("history prune: handler not configured")
	}
	var payload PrunePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	retention := payload.Retention()
	if retention <= 0 {
		retention = j.Retention
	}
	logger := j.logger()
	if retention <= 0 {
		logger.Debug("history retention disabled")
		return nil
	}

	tracker := j.metrics().Track(TaskHistoryPrune)
	defer func() { err = tracker.End(err) }()

	cutoff := j.now().Add(-retention)
	removed, err := j.History.PruneBefore(ctx, cutoff)
	if err != nil {
		logger.Error("prune history", slog.Time("cutoff", cutoff), slog.Any("error", err))
		return err
	}
	j.metrics().AddItems(TaskHistoryPrune, "deleted", int(removed))
	logger.Info("pruned scan history", slog.Time("cutoff", cutoff), slog.Int64("deleted", removed))
	return nil
}

func (j *PruneJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskHistoryPrune))
	}
	return slog.Default().With(slog.String("job", TaskHistoryPrune))
}

func (j *PruneJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *PruneJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
