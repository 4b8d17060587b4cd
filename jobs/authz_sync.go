package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/driftboard/driftboard/internal/authz"
	jobmetrics "github.com/driftboard/driftboard/internal/jobs"
)

// AuthzSyncJob reconciles the permission catalog from a worker process,
// mirroring the sync the API runs at startup.
type AuthzSyncJob struct {
	Syncer  *authz.Syncer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewAuthzSyncJob wires dependencies for the sync handler.
func NewAuthzSyncJob(syncer *authz.Syncer, logger *slog.Logger, metrics *jobmetrics.Metrics) *AuthzSyncJob {
	return &AuthzSyncJob{Syncer: syncer, Logger: logger, Metrics: metrics}
}

// Handle processes catalog sync tasks.
func (j *AuthzSyncJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Syncer == nil {
		return errors.New("authz sync: handler not configured")
	}
	tracker := j.metrics().Track(TaskAuthzSync)
	report, err := j.Syncer.Run(ctx)
	if err != nil {
		j.logger().Error("permission sync failed", slog.Any("error", err))
		return tracker.End(err)
	}
	j.logger().Info("permission sync finished",
		slog.Int("generated", report.GeneratedPermissions),
		slog.Int("existing", report.ExistingPermissions),
		slog.Int("orphaned", len(report.OrphanedPermissions)),
		slog.Int("failures", len(report.Failures)))
	return tracker.End(nil)
}

func (j *AuthzSyncJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *AuthzSyncJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return jobmetrics.NewMetrics(nil)
}
