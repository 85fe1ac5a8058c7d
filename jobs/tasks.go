package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskProductWarmup refreshes cached products for recently scanned barcodes.
	TaskProductWarmup = "product:warmup"
	// TaskHistoryPrune deletes scan history past the retention window.
	TaskHistoryPrune = "history:prune"
)

// WarmupPayload configures a product warmup run.
type WarmupPayload struct {
	Limit int `json:"limit"`
}

// PrunePayload configures a history retention run. A zero retention falls
// back to the job default.
type PrunePayload struct {
	RetentionSeconds int64 `json:"retention_seconds"`
}

// Retention returns the payload retention as a duration.
func (p PrunePayload) Retention() time.Duration {
	return time.Duration(p.RetentionSeconds) * time.Second
}

// NewWarmupTask constructs a product warmup task.
func NewWarmupTask(payload WarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskProductWarmup, data, asynq.MaxRetry(1), asynq.Timeout(5*time.Minute)), nil
}

// NewPruneTask constructs a history prune task.
func NewPruneTask(payload PrunePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskHistoryPrune, data, asynq.MaxRetry(3), asynq.Timeout(10*time.Minute)), nil
}
