package teams

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
	PermManageTeams = "Gerenciar Times"
	PermViewTeams   = "Visualizar Times"
)

// Handler wires HTTP endpoints for team administration.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	mw        authz.Middleware
	validator *validator.Validate
}

// RegisterOperations declares this package's protected operations.
func RegisterOperations(registry *authz.Registry) {
	registry.Register(
		authz.ProtectedOperation{Name: PermManageTeams, Category: "teams"},
		authz.ProtectedOperation{Name: PermViewTeams, Category: "teams"},
	)
}

// NewHandler constructs a Handler and declares its protected operations.
func NewHandler(logger *slog.Logger, service *Service, registry *authz.Registry, mw authz.Middleware) *Handler {
	RegisterOperations(registry)
	return &Handler{logger: logger, service: service, mw: mw, validator: validator.New()}
}

// MountRoutes registers team routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequirePermission(PermViewTeams))
		r.Get("/", h.listTeams)
		r.Get("/{teamID}", h.getTeam)
		r.Get("/{teamID}/members", h.listMembers)
		r.Get("/{teamID}/profiles", h.listProfiles)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequirePermission(PermManageTeams))
		r.Post("/", h.createTeam)
		r.Put("/{teamID}", h.updateTeam)
		r.Delete("/{teamID}", h.deleteTeam)
		r.Post("/{teamID}/profiles/{profileID}", h.linkProfile)
		r.Delete("/{teamID}/profiles/{profileID}", h.unlinkProfile)
		r.Post("/{teamID}/members", h.addMember)
		r.Delete("/{teamID}/members/{userID}", h.removeMember)
	})
}

type teamForm struct {
	Name        string `json:"name" validate:"required,min=2,max=80"`
	Description string `json:"description" validate:"max=500"`
}

type memberForm struct {
	UserID int64  `json:"userId" validate:"required,gt=0"`
	Role   string `json:"role" validate:"omitempty,oneof=member lead"`
}

func (h *Handler) listTeams(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListTeams(r.Context())
	if err != nil {
		h.respondError(w, "list teams", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"teams": list})
}

func (h *Handler) getTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "teamID")
	if !ok {
		return
	}
	team, err := h.service.GetTeam(r.Context(), id)
	if err != nil {
		h.respondError(w, "get team", err)
		return
	}
	httpx.JSON(w, http.StatusOK, team)
}

func (h *Handler) createTeam(w http.ResponseWriter, r *http.Request) {
	var form teamForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	team, err := h.service.CreateTeam(r.Context(), form.Name, form.Description)
	if err != nil {
		h.respondError(w, "create team", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, team)
}

func (h *Handler) updateTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "teamID")
	if !ok {
		return
	}
	var form teamForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	team, err := h.service.UpdateTeam(r.Context(), id, form.Name, form.Description)
	if err != nil {
		h.respondError(w, "update team", err)
		return
	}
	httpx.JSON(w, http.StatusOK, team)
}

func (h *Handler) deleteTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "teamID")
	if !ok {
		return
	}
	if err := h.service.DeleteTeam(r.Context(), id); err != nil {
		h.respondError(w, "delete team", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) linkProfile(w http.ResponseWriter, r *http.Request) {
	teamID, ok := h.pathID(w, r, "teamID")
	if !ok {
		return
	}
	profileID, ok := h.pathID(w, r, "profileID")
	if !ok {
		return
	}
	if err := h.service.LinkProfile(r.Context(), teamID, profileID); err != nil {
		h.respondError(w, "link profile", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) unlinkProfile(w http.ResponseWriter, r *http.Request) {
	teamID, ok := h.pathID(w, r, "teamID")
	if !ok {
		return
	}
	profileID, ok := h.pathID(w, r, "profileID")
	if !ok {
		return
	}
	if err := h.service.UnlinkProfile(r.Context(), teamID, profileID); err != nil {
		h.respondError(w, "unlink profile", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addMember(w http.ResponseWriter, r *http.Request) {
	teamID, ok := h.pathID(w, r, "teamID")
	if !ok {
		return
	}
	var form memberForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.AddMember(r.Context(), teamID, form.UserID, form.Role); err != nil {
		h.respondError(w, "add member", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeMember(w http.ResponseWriter, r *http.Request) {
	teamID, ok := h.pathID(w, r, "teamID")
	if !ok {
		return
	}
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	if err := h.service.RemoveMember(r.Context(), teamID, userID); err != nil {
		h.respondError(w, "remove member", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listMembers(w http.ResponseWriter, r *http.Request) {
	teamID, ok := h.pathID(w, r, "teamID")
	if !ok {
		return
	}
	members, err := h.service.ListMembers(r.Context(), teamID)
	if err != nil {
		h.respondError(w, "list members", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"teamId": teamID, "members": members})
}

func (h *Handler) listProfiles(w http.ResponseWriter, r *http.Request) {
	teamID, ok := h.pathID(w, r, "teamID")
	if !ok {
		return
	}
	ids, err := h.service.ListProfileIDs(r.Context(), teamID)
	if err != nil {
		h.respondError(w, "list team profiles", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"teamId": teamID, "profileIds": ids})
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
