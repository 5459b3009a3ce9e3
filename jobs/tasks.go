package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAnalyticsWarmup precomputes dashboard aggregates into the cache.
	TaskAnalyticsWarmup = "analytics:warmup"
	// TaskShiftsOverdueScan reports shifts still scheduled past their end.
	TaskShiftsOverdueScan = "shifts:overdue_scan"
)

// WarmupPayload parameterises an analytics warmup run.
type WarmupPayload struct {
	Reason string `json:"reason,omitempty"`
}

// NewWarmupTask constructs an analytics warmup task.
func NewWarmupTask(payload WarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAnalyticsWarmup, data), nil
}

// OverdueScanPayload parameterises an overdue-shift scan.
type OverdueScanPayload struct {
	GraceMinutes int `json:"grace_minutes,omitempty"`
}

// NewOverdueScanTask constructs an overdue-shift scan task.
func NewOverdueScanTask(payload OverdueScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskShiftsOverdueScan, data), nil
}
