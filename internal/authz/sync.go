package authz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/driftboard/driftboard/internal/observability"
)

// Syncer reconciles the declared protected operations against the
// permission catalog. Missing catalog entries are inserted with a
// generated description; entries no longer backed by a declaration are
// reported as orphans but never deleted, so historical grants keep
// resolving. Running twice with an unchanged registry inserts nothing
// on the second run.
type Syncer struct {
	store    Store
	registry *Registry
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewSyncer constructs a Syncer.
func NewSyncer(store Store, registry *Registry, logger *slog.Logger, metrics *observability.Metrics) *Syncer {
	return &Syncer{store: store, registry: registry, logger: logger, metrics: metrics}
}

// Run performs one reconciliation pass. Each insertion is independent:
// a failed item lands in the report's failure list and the pass
// continues. Only listing the catalog itself can fail the run.
func (s *Syncer) Run(ctx context.Context) (SyncReport, error) {
	ops := s.registry.Operations()

	existing, err := s.store.ListAllPermissions(ctx)
	if err != nil {
		s.metrics.SyncRun("error", 0)
		return SyncReport{}, fmt.Errorf("authz: list catalog: %w", err)
	}
	catalog := make(map[string]Permission, len(existing))
	for _, p := range existing {
		catalog[p.Name] = p
	}

	report := SyncReport{Categories: []string{}, RanAt: time.Now().UTC()}
	declared := make(map[string]struct{}, len(ops))
	seenCategories := make(map[string]struct{})

	for _, op := range ops {
		declared[op.Name] = struct{}{}
		if op.Category != "" {
			if _, ok := seenCategories[op.Category]; !ok {
				seenCategories[op.Category] = struct{}{}
				report.Categories = append(report.Categories, op.Category)
			}
		}

		if _, ok := catalog[op.Name]; ok {
			report.ExistingPermissions++
			continue
		}

		description := op.Description
		if description == "" {
			description = fmt.Sprintf("Grants access to the %q operation", op.Name)
		}
		_, err := s.store.CreatePermission(ctx, op.Name, Slug(op.Name), op.Category, description)
		switch {
		case err == nil:
			report.GeneratedPermissions++
		case errors.Is(err, ErrDuplicateLink):
			// Lost a race with a concurrent insert of the same name;
			// the entry exists, which is all the sync needs.
			report.ExistingPermissions++
		default:
			if s.logger != nil {
				s.logger.Error("sync permission insert", slog.String("name", op.Name), slog.Any("error", err))
			}
			report.Failures = append(report.Failures, SyncFailure{Name: op.Name, Reason: err.Error()})
		}
	}

	for _, p := range existing {
		if _, ok := declared[p.Name]; !ok {
			report.OrphanedPermissions = append(report.OrphanedPermissions, p.Name)
		}
	}

	report.DetectedFunctions = len(seenCategories)

	outcome := "ok"
	if len(report.Failures) > 0 {
		outcome = "partial"
	}
	s.metrics.SyncRun(outcome, report.GeneratedPermissions)
	if s.logger != nil {
		s.logger.Info("permission sync complete",
			slog.Int("generated", report.GeneratedPermissions),
			slog.Int("existing", report.ExistingPermissions),
			slog.Int("orphaned", len(report.OrphanedPermissions)),
			slog.Int("failed", len(report.Failures)))
	}
	return report, nil
}
