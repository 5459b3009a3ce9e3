package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/shiftgate/shiftgate/internal/jobs"
)

const defaultGraceMinutes = 15

// OverdueScanJob reports shifts still scheduled past their end time. It only
// observes: flagged shifts are logged and counted, never mutated, so a late
// clock-out can still resolve them.
type OverdueScanJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewOverdueScanJob wires dependencies for the scan handler.
func NewOverdueScanJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *OverdueScanJob {
	return &OverdueScanJob{
		Pool:    pool,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

type overdueShift struct {
	ID      int64
	UserID  int64
	EndTime time.Time
}

// Handle processes overdue-shift scan tasks.
func (j *OverdueScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("overdue scan: handler not configured")
	}
	var payload OverdueScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	grace := payload.GraceMinutes
	if grace <= 0 {
		grace = defaultGraceMinutes
	}

	tracker := j.metrics().Track(TaskShiftsOverdueScan)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Int("grace_minutes", grace))
	cutoff := j.now().Add(-time.Duration(grace) * time.Minute)

	overdue, err := j.fetchOverdue(ctx, cutoff)
	if err != nil {
		resultErr = err
		logger.Error("load overdue shifts", slog.Any("error", err))
		return resultErr
	}

	j.metrics().SetOverdueShifts(len(overdue))
	for _, s := range overdue {
		logger.Warn("shift never started",
			slog.Int64("shift_id", s.ID),
			slog.Int64("user_id", s.UserID),
			slog.Time("end_time", s.EndTime))
	}
	logger.Info("completed overdue scan", slog.Int("overdue", len(overdue)))
	return resultErr
}

func (j *OverdueScanJob) fetchOverdue(ctx context.Context, cutoff time.Time) ([]overdueShift, error) {
	rows, err := j.Pool.Query(ctx,
		`SELECT id, user_id, end_time FROM shifts
		 WHERE status = 'SCHEDULED' AND end_time < $1
		 ORDER BY end_time`,
		cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var overdue []overdueShift
	for rows.Next() {
		var s overdueShift
		if err := rows.Scan(&s.ID, &s.UserID, &s.EndTime); err != nil {
			return nil, err
		}
		overdue = append(overdue, s)
	}
	return overdue, rows.Err()
}

func (j *OverdueScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskShiftsOverdueScan))
	}
	return slog.Default().With(slog.String("job", TaskShiftsOverdueScan))
}

func (j *OverdueScanJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *OverdueScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
