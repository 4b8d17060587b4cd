package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/driftboard/driftboard/internal/authz"
	jobmetrics "github.com/driftboard/driftboard/internal/jobs"
)

const defaultWarmupLimit = 200

// AuthzWarmupJob pre-resolves permission sets for recently active users.
type AuthzWarmupJob struct {
	Service *authz.Service
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewAuthzWarmupJob wires dependencies for the warmup handler.
func NewAuthzWarmupJob(service *authz.Service, pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *AuthzWarmupJob {
	return &AuthzWarmupJob{Service: service, Pool: pool, Logger: logger, Metrics: metrics}
}

// Handle processes cache warmup tasks.
func (j *AuthzWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil || j.Pool == nil {
		return errors.New("authz warmup: handler not configured")
	}
	var payload AuthzWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	if payload.Limit <= 0 {
		payload.Limit = defaultWarmupLimit
	}

	tracker := j.metrics().Track(TaskAuthzWarmup)
	ids, err := j.fetchActiveUsers(ctx, payload.Limit)
	if err != nil {
		j.logger().Error("load warmup users", slog.Any("error", err))
		return tracker.End(err)
	}

	warmed := 0
	for _, id := range ids {
		if _, err := j.Service.Resolve(ctx, id); err != nil {
			j.logger().Warn("warm user", slog.Int64("user", id), slog.Any("error", err))
			continue
		}
		warmed++
	}
	j.logger().Info("authz warmup finished", slog.Int("candidates", len(ids)), slog.Int("warmed", warmed))
	return tracker.End(nil)
}

func (j *AuthzWarmupJob) fetchActiveUsers(ctx context.Context, limit int) ([]int64, error) {
	rows, err := j.Pool.Query(ctx, `
		SELECT u.id
		FROM users u
		WHERE u.is_active = TRUE
		  AND (u.profile_id IS NOT NULL
		       OR EXISTS (SELECT 1 FROM user_teams ut WHERE ut.user_id = u.id))
		ORDER BY u.id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (j *AuthzWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *AuthzWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return jobmetrics.NewMetrics(nil)
}
