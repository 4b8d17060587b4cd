package profiles

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/driftboard/driftboard/internal/authz"
	"github.com/driftboard/driftboard/internal/platform/httpx"
)

// Protected operation names declared by this package.
const (
	PermCreateProfiles = "Criar Perfis"
	PermEditProfiles   = "Editar Perfis"
	PermDeleteProfiles = "Excluir Perfis"
	PermViewProfiles   = "Visualizar Perfis"
)

// Handler wires HTTP endpoints for profile administration.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	mw        authz.Middleware
	validator *validator.Validate
}

// RegisterOperations declares this package's protected operations.
func RegisterOperations(registry *authz.Registry) {
	registry.Register(
		authz.ProtectedOperation{Name: PermCreateProfiles, Category: "profiles"},
		authz.ProtectedOperation{Name: PermEditProfiles, Category: "profiles"},
		authz.ProtectedOperation{Name: PermDeleteProfiles, Category: "profiles"},
		authz.ProtectedOperation{Name: PermViewProfiles, Category: "profiles"},
	)
}

// NewHandler constructs a Handler and declares its protected operations.
func NewHandler(logger *slog.Logger, service *Service, registry *authz.Registry, mw authz.Middleware) *Handler {
	RegisterOperations(registry)
	return &Handler{logger: logger, service: service, mw: mw, validator: validator.New()}
}

// MountRoutes registers profile routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequirePermission(PermViewProfiles))
		r.Get("/", h.listProfiles)
		r.Get("/{profileID}", h.getProfile)
		r.Get("/{profileID}/permissions", h.listPermissions)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequirePermission(PermCreateProfiles))
		r.Post("/", h.createProfile)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequirePermission(PermEditProfiles))
		r.Put("/{profileID}", h.updateProfile)
		r.Post("/{profileID}/permissions/{permissionID}", h.linkPermission)
		r.Delete("/{profileID}/permissions/{permissionID}", h.unlinkPermission)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequirePermission(PermDeleteProfiles))
		r.Delete("/{profileID}", h.deleteProfile)
	})
}

type profileForm struct {
	Name      string `json:"name" validate:"required,min=2,max=80"`
	Color     string `json:"color" validate:"omitempty,hexcolor"`
	IsDefault bool   `json:"isDefault"`
}

func (h *Handler) listProfiles(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListProfiles(r.Context())
	if err != nil {
		h.respondError(w, "list profiles", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"profiles": list})
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "profileID")
	if !ok {
		return
	}
	profile, err := h.service.GetProfile(r.Context(), id)
	if err != nil {
		h.respondError(w, "get profile", err)
		return
	}
	httpx.JSON(w, http.StatusOK, profile)
}

func (h *Handler) createProfile(w http.ResponseWriter, r *http.Request) {
	var form profileForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	profile, err := h.service.CreateProfile(r.Context(), form.Name, form.Color, form.IsDefault)
	if err != nil {
		h.respondError(w, "create profile", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, profile)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "profileID")
	if !ok {
		return
	}
	var form profileForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	profile, err := h.service.UpdateProfile(r.Context(), id, form.Name, form.Color, form.IsDefault)
	if err != nil {
		h.respondError(w, "update profile", err)
		return
	}
	httpx.JSON(w, http.StatusOK, profile)
}

func (h *Handler) deleteProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "profileID")
	if !ok {
		return
	}
	if err := h.service.DeleteProfile(r.Context(), id); err != nil {
		h.respondError(w, "delete profile", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) linkPermission(w http.ResponseWriter, r *http.Request) {
	profileID, ok := h.pathID(w, r, "profileID")
	if !ok {
		return
	}
	permissionID, ok := h.pathID(w, r, "permissionID")
	if !ok {
		return
	}
	if err := h.service.LinkPermission(r.Context(), profileID, permissionID); err != nil {
		h.respondError(w, "link permission", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) unlinkPermission(w http.ResponseWriter, r *http.Request) {
	profileID, ok := h.pathID(w, r, "profileID")
	if !ok {
		return
	}
	permissionID, ok := h.pathID(w, r, "permissionID")
	if !ok {
		return
	}
	if err := h.service.UnlinkPermission(r.Context(), profileID, permissionID); err != nil {
		h.respondError(w, "unlink permission", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	profileID, ok := h.pathID(w, r, "profileID")
	if !ok {
		return
	}
	ids, err := h.service.ListPermissionIDs(r.Context(), profileID)
	if err != nil {
		h.respondError(w, "list profile permissions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"profileId": profileID, "permissionIds": ids})
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", name+" must be numeric")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, action string, err error) {
	httpx.RespondError(w, h.logger, action, err)
}
