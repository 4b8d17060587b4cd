package authz

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/driftboard/driftboard/internal/platform/httpx"
)

// Operation names gating the administrative surface of the engine
// itself.
const (
	PermManagePermissions = "Gerenciar Permissões"
	PermViewPermissions   = "Visualizar Permissões"
)

// Handler exposes the engine's administrative HTTP surface: the sync
// trigger, per-principal permission lookups, and cache invalidation.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	syncer    *Syncer
	cache     *Cache
	mw        Middleware
	validator *validator.Validate
}

// RegisterOperations declares the engine's own protected operations.
func RegisterOperations(registry *Registry) {
	registry.Register(
		ProtectedOperation{Name: PermManagePermissions, Category: "permissions", Description: "Run permission sync and cache administration"},
		ProtectedOperation{Name: PermViewPermissions, Category: "permissions", Description: "Inspect resolved permission sets"},
	)
}

// NewHandler builds a Handler instance and declares its protected
// operations into the registry.
func NewHandler(logger *slog.Logger, service *Service, syncer *Syncer, cache *Cache, registry *Registry, mw Middleware) *Handler {
	RegisterOperations(registry)
	return &Handler{logger: logger, service: service, syncer: syncer, cache: cache, mw: mw, validator: validator.New()}
}

// MountRoutes registers the engine routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequirePermission(PermManagePermissions))
		r.Post("/sync", h.runSync)
		r.Post("/cache/invalidate", h.invalidateCache)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequirePermission(PermViewPermissions))
		r.Get("/users/{userID}/permissions", h.userPermissions)
		r.Get("/users/{userID}/capabilities/{resource}", h.userCapabilities)
	})
}

func (h *Handler) runSync(w http.ResponseWriter, r *http.Request) {
	report, err := h.syncer.Run(r.Context())
	if err != nil {
		h.logger.Error("run permission sync", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Sync Failed", "")
		return
	}
	message := "permission catalog synchronized"
	if len(report.Failures) > 0 {
		message = "permission catalog synchronized with partial failures"
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message": message,
		"report":  report,
	})
}

func (h *Handler) userPermissions(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "user id must be numeric")
		return
	}
	set, err := h.service.Resolve(r.Context(), userID)
	if err != nil {
		h.logger.Error("resolve permissions", slog.Int64("user", userID), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"userId":          userID,
		"permissions":     set.Permissions,
		"categories":      set.Categories,
		"permissionCount": len(set.Permissions),
	})
}

func (h *Handler) userCapabilities(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "user id must be numeric")
		return
	}
	resource := chi.URLParam(r, "resource")
	caps, err := h.service.Capabilities(r.Context(), userID, resource)
	if err != nil {
		h.logger.Error("resolve capabilities", slog.Int64("user", userID), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"userId":       userID,
		"resource":     resource,
		"capabilities": caps,
	})
}

type invalidateRequest struct {
	Keys    []string `json:"keys" validate:"required_without=Pattern,dive,min=1"`
	Pattern string   `json:"pattern" validate:"required_without=Keys"`
}

func (h *Handler) invalidateCache(w http.ResponseWriter, r *http.Request) {
	var req invalidateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "keys or pattern required")
		return
	}
	removed := 0
	if len(req.Keys) > 0 {
		if err := h.cache.Invalidate(r.Context(), req.Keys); err != nil {
			h.logger.Error("invalidate keys", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		removed += len(req.Keys)
	}
	if req.Pattern != "" {
		n, err := h.cache.InvalidatePattern(r.Context(), req.Pattern)
		if err != nil {
			h.logger.Error("invalidate pattern", slog.String("pattern", req.Pattern), slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		removed += n
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"invalidated": removed})
}
