package authz

import (
	"context"
	"log/slog"

	"github.com/driftboard/driftboard/internal/observability"
)

// AuditHook receives denial events. Implementations must tolerate being
// called from short-lived goroutines; the authorization decision never
// waits on them.
type AuditHook interface {
	RecordDenial(ctx context.Context, principalID int64, permission, action string)
}

// Service is the public authorization query API. It answers membership
// questions against the cached resolved set of a principal, recomputing
// through the Resolver on miss. Deny-by-default: any question about a
// permission the principal does not hold is answered false, never an
// error.
type Service struct {
	resolver *Resolver
	cache    *Cache
	audit    AuditHook
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewService wires the service from its collaborators. audit may be nil.
func NewService(resolver *Resolver, cache *Cache, audit AuditHook, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{resolver: resolver, cache: cache, audit: audit, logger: logger, metrics: metrics}
}

// Resolve returns the effective permission set of a principal, from
// cache when fresh, recomputed otherwise.
func (s *Service) Resolve(ctx context.Context, principalID int64) (ResolvedSet, error) {
	return s.cache.FetchResolvedSet(ctx, principalID, func(ctx context.Context) (ResolvedSet, error) {
		return s.resolver.Resolve(ctx, principalID)
	})
}

// HasPermission reports whether the principal holds the named permission.
func (s *Service) HasPermission(ctx context.Context, principalID int64, name string) (bool, error) {
	set, err := s.Resolve(ctx, principalID)
	if err != nil {
		return false, err
	}
	return set.Has(name), nil
}

// RequirePermission returns a DeniedError when the principal lacks the
// named permission, and nil otherwise. action optionally names the
// operation being attempted for the denial message and audit trail.
func (s *Service) RequirePermission(ctx context.Context, principalID int64, name, action string) error {
	ok, err := s.HasPermission(ctx, principalID, name)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	s.metrics.AuthzDenied(Slug(name))
	s.emitDenial(ctx, principalID, name, action)
	return &DeniedError{Permission: name, Action: action}
}

// HasAnyPermission reports whether the principal holds at least one of
// the named permissions. An empty list is vacuously true.
func (s *Service) HasAnyPermission(ctx context.Context, principalID int64, names []string) (bool, error) {
	if len(names) == 0 {
		return true, nil
	}
	set, err := s.Resolve(ctx, principalID)
	if err != nil {
		return false, err
	}
	for _, name := range names {
		if set.Has(name) {
			return true, nil
		}
	}
	return false, nil
}

// HasAllPermissions reports whether the principal holds every named
// permission.
func (s *Service) HasAllPermissions(ctx context.Context, principalID int64, names []string) (bool, error) {
	set, err := s.Resolve(ctx, principalID)
	if err != nil {
		return false, err
	}
	for _, name := range names {
		if !set.Has(name) {
			return false, nil
		}
	}
	return true, nil
}

// Capabilities probes the CRUD naming convention for one resource:
// "Create <Resource>", "Edit <Resource>", "Delete <Resource>",
// "View <Resource>", matched on canonical slugs. A convention with no
// catalog entry resolves to false.
func (s *Service) Capabilities(ctx context.Context, principalID int64, resource string) (Capabilities, error) {
	set, err := s.Resolve(ctx, principalID)
	if err != nil {
		return Capabilities{}, err
	}
	res := Slug(resource)
	if res == "" {
		return Capabilities{}, nil
	}
	return Capabilities{
		CanCreate: set.Has("create-" + res),
		CanEdit:   set.Has("edit-" + res),
		CanDelete: set.Has("delete-" + res),
		CanView:   set.Has("view-" + res),
	}, nil
}

// emitDenial hands the denial to the audit hook without blocking or
// failing the authorization decision.
func (s *Service) emitDenial(ctx context.Context, principalID int64, permission, action string) {
	if s.audit == nil {
		return
	}
	hook := s.audit
	go func() {
		defer func() {
			if r := recover(); r != nil && s.logger != nil {
				s.logger.Error("authz audit hook panic", slog.Any("panic", r))
			}
		}()
		// The request context may be cancelled the moment the denial
		// response is written; the audit record should still land.
		hook.RecordDenial(context.WithoutCancel(ctx), principalID, permission, action)
	}()
}
