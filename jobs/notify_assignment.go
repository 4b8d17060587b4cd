package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/driftboard/driftboard/internal/jobs"
)

// NotifyAssignmentJob records an in-app notification when a task is
// assigned. Delivery happens off the request path so board mutations
// never block on it.
type NotifyAssignmentJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewNotifyAssignmentJob wires dependencies for the notification handler.
func NewNotifyAssignmentJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *NotifyAssignmentJob {
	return &NotifyAssignmentJob{Pool: pool, Logger: logger, Metrics: metrics}
}

// Handle processes assignment notification tasks.
func (j *NotifyAssignmentJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("notify assignment: handler not configured")
	}
	var payload NotifyAssignmentPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.TaskID == 0 || payload.AssigneeID == 0 {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskNotifyAssignment)
	var title string
	err := j.Pool.QueryRow(ctx, `SELECT title FROM tasks WHERE id = $1`, payload.TaskID).Scan(&title)
	if err != nil {
		// The task may have been deleted before the queue drained.
		j.logger().Warn("assignment notification dropped", slog.Int64("task", payload.TaskID), slog.Any("error", err))
		return tracker.End(nil)
	}

	_, err = j.Pool.Exec(ctx, `
		INSERT INTO notifications (user_id, kind, subject, body, created_at)
		VALUES ($1, 'task_assigned', $2, $3, NOW())
	`, payload.AssigneeID, title, "You were assigned to \""+title+"\"")
	if err != nil {
		j.logger().Error("write notification", slog.Int64("user", payload.AssigneeID), slog.Any("error", err))
		return tracker.End(err)
	}
	return tracker.End(nil)
}

func (j *NotifyAssignmentJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *NotifyAssignmentJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return jobmetrics.NewMetrics(nil)
}
