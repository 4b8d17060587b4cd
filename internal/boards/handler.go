package boards

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/driftboard/driftboard/internal/authz"
	"github.com/driftboard/driftboard/internal/platform/httpx"
)

// Protected operation names declared by this package. The task board is
// the product; these are the permissions its catalog historically used.
const (
	PermCreateTasks = "Criar Tarefas"
	PermEditTasks   = "Editar Tarefas"
	PermDeleteTasks = "Excluir Tarefas"
	PermViewTasks   = "Visualizar Tarefas"
	PermCreateBoard = "Criar Quadros"
	PermDeleteBoard = "Excluir Quadros"
	PermViewBoards  = "Visualizar Quadros"
)

// Handler wires HTTP endpoints for boards and tasks.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	mw        authz.Middleware
	validator *validator.Validate
}

// RegisterOperations declares this package's protected operations.
func RegisterOperations(registry *authz.Registry) {
	registry.Register(
		authz.ProtectedOperation{Name: PermCreateTasks, Category: "tasks"},
		authz.ProtectedOperation{Name: PermEditTasks, Category: "tasks"},
		authz.ProtectedOperation{Name: PermDeleteTasks, Category: "tasks"},
		authz.ProtectedOperation{Name: PermViewTasks, Category: "tasks"},
		authz.ProtectedOperation{Name: PermCreateBoard, Category: "boards"},
		authz.ProtectedOperation{Name: PermDeleteBoard, Category: "boards"},
		authz.ProtectedOperation{Name: PermViewBoards, Category: "boards"},
	)
}

// NewHandler constructs a Handler and declares its protected operations.
func NewHandler(logger *slog.Logger, service *Service, registry *authz.Registry, mw authz.Middleware) *Handler {
	RegisterOperations(registry)
	return &Handler{logger: logger, service: service, mw: mw, validator: validator.New()}
}

// MountRoutes registers board and task routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequirePermission(PermViewBoards))
		r.Get("/teams/{teamID}/boards", h.listBoards)
		r.Get("/boards/{boardID}/columns", h.listColumns)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequirePermission(PermCreateBoard))
		r.Post("/teams/{teamID}/boards", h.createBoard)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequirePermission(PermDeleteBoard))
		r.Delete("/boards/{boardID}", h.deleteBoard)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequirePermission(PermViewTasks))
		r.Get("/tasks/{taskID}", h.getTask)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequirePermission(PermCreateTasks))
		r.Post("/columns/{columnID}/tasks", h.createTask)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequirePermission(PermEditTasks))
		r.Put("/tasks/{taskID}/move", h.moveTask)
		r.Put("/tasks/{taskID}/assignee", h.assignTask)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequirePermission(PermDeleteTasks))
		r.Delete("/tasks/{taskID}", h.deleteTask)
	})
}

type boardForm struct {
	Name string `json:"name" validate:"required,min=2,max=120"`
}

type taskForm struct {
	Title      string `json:"title" validate:"required,min=1,max=200"`
	Body       string `json:"body" validate:"max=5000"`
	AssigneeID *int64 `json:"assigneeId" validate:"omitempty,gt=0"`
}

type moveForm struct {
	ColumnID int64 `json:"columnId" validate:"required,gt=0"`
	Position int   `json:"position" validate:"gte=0"`
}

type assignForm struct {
	AssigneeID *int64 `json:"assigneeId" validate:"omitempty,gt=0"`
}

func (h *Handler) listBoards(w http.ResponseWriter, r *http.Request) {
	teamID, ok := h.pathID(w, r, "teamID")
	if !ok {
		return
	}
	list, err := h.service.ListBoards(r.Context(), teamID)
	if err != nil {
		h.respondError(w, "list boards", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"boards": list})
}

func (h *Handler) createBoard(w http.ResponseWriter, r *http.Request) {
	teamID, ok := h.pathID(w, r, "teamID")
	if !ok {
		return
	}
	var form boardForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	board, err := h.service.CreateBoard(r.Context(), teamID, form.Name)
	if err != nil {
		h.respondError(w, "create board", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, board)
}

func (h *Handler) deleteBoard(w http.ResponseWriter, r *http.Request) {
	boardID, ok := h.pathID(w, r, "boardID")
	if !ok {
		return
	}
	if err := h.service.DeleteBoard(r.Context(), boardID); err != nil {
		h.respondError(w, "delete board", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listColumns(w http.ResponseWriter, r *http.Request) {
	boardID, ok := h.pathID(w, r, "boardID")
	if !ok {
		return
	}
	cols, err := h.service.ListColumns(r.Context(), boardID)
	if err != nil {
		h.respondError(w, "list columns", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"columns": cols})
}

func (h *Handler) createTask(w http.ResponseWriter, r *http.Request) {
	columnID, ok := h.pathID(w, r, "columnID")
	if !ok {
		return
	}
	var form taskForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	task, err := h.service.CreateTask(r.Context(), columnID, form.Title, form.Body, form.AssigneeID)
	if err != nil {
		h.respondError(w, "create task", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, task)
}

func (h *Handler) getTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := h.pathID(w, r, "taskID")
	if !ok {
		return
	}
	task, err := h.service.GetTask(r.Context(), taskID)
	if err != nil {
		h.respondError(w, "get task", err)
		return
	}
	httpx.JSON(w, http.StatusOK, task)
}

func (h *Handler) moveTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := h.pathID(w, r, "taskID")
	if !ok {
		return
	}
	var form moveForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.MoveTask(r.Context(), taskID, form.ColumnID, form.Position); err != nil {
		h.respondError(w, "move task", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) assignTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := h.pathID(w, r, "taskID")
	if !ok {
		return
	}
	var form assignForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.AssignTask(r.Context(), taskID, form.AssigneeID); err != nil {
		h.respondError(w, "assign task", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := h.pathID(w, r, "taskID")
	if !ok {
		return
	}
	if err := h.service.DeleteTask(r.Context(), taskID); err != nil {
		h.respondError(w, "delete task", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
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
