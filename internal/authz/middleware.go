package authz

import (
	"log/slog"
	"net/http"

	"github.com/driftboard/driftboard/internal/platform/httpx"
	"github.com/driftboard/driftboard/internal/shared"
)

// Middleware wires authorization checks into HTTP handlers. Enforcement
// always happens at this boundary: a failed check blocks the request,
// it is never merely logged.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// RequirePermission ensures the current principal holds the named
// permission before the request proceeds.
func (m Middleware) RequirePermission(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := shared.PrincipalFromContext(r.Context())
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Authentication Required", "no valid principal presented")
				return
			}
			err := m.Service.RequirePermission(r.Context(), principal.ID, name, r.Method+" "+r.URL.Path)
			if err == nil {
				next.ServeHTTP(w, r)
				return
			}
			if IsDenied(err) {
				httpx.Problem(w, http.StatusForbidden, "Permission Denied", err.Error())
				return
			}
			if m.Logger != nil {
				m.Logger.Error("authz require permission", slog.String("permission", name), slog.Any("error", err))
			}
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		})
	}
}

// RequireAny ensures the current principal has at least one of the
// required permissions.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	return m.require(perms, func(r *http.Request, principalID int64) (bool, error) {
		return m.Service.HasAnyPermission(r.Context(), principalID, perms)
	})
}

// RequireAll ensures the current principal has all required permissions.
func (m Middleware) RequireAll(perms ...string) func(http.Handler) http.Handler {
	return m.require(perms, func(r *http.Request, principalID int64) (bool, error) {
		return m.Service.HasAllPermissions(r.Context(), principalID, perms)
	})
}

func (m Middleware) require(perms []string, check func(*http.Request, int64) (bool, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(perms) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			principal, ok := shared.PrincipalFromContext(r.Context())
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Authentication Required", "no valid principal presented")
				return
			}
			granted, err := check(r, principal.ID)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("authz check", slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			if !granted {
				httpx.Problem(w, http.StatusForbidden, "Permission Denied", "missing required permission")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
