package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/driftboard/driftboard/internal/auth"
	"github.com/driftboard/driftboard/internal/authz"
	"github.com/driftboard/driftboard/internal/boards"
	"github.com/driftboard/driftboard/internal/observability"
	"github.com/driftboard/driftboard/internal/profiles"
	"github.com/driftboard/driftboard/internal/shared"
	"github.com/driftboard/driftboard/internal/teams"
	"github.com/driftboard/driftboard/internal/users"
	"github.com/driftboard/driftboard/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager

	AuthHandler     *auth.Handler
	AuthzHandler    *authz.Handler
	ProfilesHandler *profiles.Handler
	TeamsHandler    *teams.Handler
	UsersHandler    *users.Handler
	BoardsHandler   *boards.Handler
	JobsHandler     *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with Driftboard defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", params.UsersHandler.MountRoutes)
		r.Route("/profiles", params.ProfilesHandler.MountRoutes)
		r.Route("/teams", params.TeamsHandler.MountRoutes)
		params.BoardsHandler.MountRoutes(r)
		r.Route("/authz", params.AuthzHandler.MountRoutes)
		if params.JobsHandler != nil {
			r.Route("/jobs", params.JobsHandler.MountRoutes)
		}
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
