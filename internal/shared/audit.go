package shared

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditLog represents a record stored in audit_logs.
type AuditLog struct {
	ActorID  int64
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
	At       time.Time
}

// AuditLogger writes records into audit_logs. It doubles as the denial
// hook for the authorization service: denials are informational and are
// recorded best-effort off the request path.
type AuditLogger struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(pool *pgxpool.Pool, logger *slog.Logger) *AuditLogger {
	return &AuditLogger{pool: pool, logger: logger}
}

// Record persists the log entry.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil {
		return errors.New("audit logger not initialised")
	}
	if log.Action == "" || log.Entity == "" || log.EntityID == "" {
		return errors.New("audit log requires action/entity/entity_id")
	}
	metaJSON, err := json.Marshal(log.Meta)
	if err != nil {
		return err
	}
	_, err = l.pool.Exec(ctx, `INSERT INTO audit_logs (actor_id, action, entity, entity_id, meta, occurred_at) VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))`, log.ActorID, log.Action, log.Entity, log.EntityID, metaJSON, log.At)
	return err
}

// RecordDenial logs a permission denial. Failures are logged, never
// propagated: the authorization decision has already been made.
func (l *AuditLogger) RecordDenial(ctx context.Context, principalID int64, permission, action string) {
	if l == nil {
		return
	}
	err := l.Record(ctx, AuditLog{
		ActorID:  principalID,
		Action:   "authz.denied",
		Entity:   "permission",
		EntityID: permission,
		Meta:     map[string]any{"attempted": action, "user": strconv.FormatInt(principalID, 10)},
		At:       time.Now().UTC(),
	})
	if err != nil && l.logger != nil {
		l.logger.Warn("record denial", slog.Any("error", err))
	}
}
