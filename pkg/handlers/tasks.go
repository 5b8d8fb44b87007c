package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/onboardhq/onboard-engine/pkg/auth"
	"github.com/onboardhq/onboard-engine/pkg/models"
	"github.com/onboardhq/onboard-engine/pkg/services"
)

// TasksHandler handles task-related HTTP requests.
type TasksHandler struct {
	taskService  services.TaskService
	actorService services.ActorService
	logger       *zap.Logger
}

// NewTasksHandler creates a new tasks handler.
func NewTasksHandler(taskService services.TaskService, actorService services.ActorService, logger *zap.Logger) *TasksHandler {
	return &TasksHandler{
		taskService:  taskService,
		actorService: actorService,
		logger:       logger,
	}
}

// RegisterRoutes registers the tasks handler's routes on the given mux.
func (h *TasksHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scope ScopeMiddleware) {
	mux.HandleFunc("POST /api/tasks", authMiddleware.RequireAuth(scope(h.Create)))
	mux.HandleFunc("GET /api/tasks", authMiddleware.RequireAuth(scope(h.List)))
	mux.HandleFunc("GET /api/tasks/{id}", authMiddleware.RequireAuth(scope(h.Get)))
	mux.HandleFunc("PATCH /api/tasks/{id}", authMiddleware.RequireAuth(scope(h.Patch)))
	mux.HandleFunc("DELETE /api/tasks/{id}", authMiddleware.RequireAuth(scope(h.Delete)))
}

// CreateTaskRequest is the request body for creating a task.
type CreateTaskRequest struct {
	UserID       uuid.UUID  `json:"user_id"`
	ProgramID    uuid.UUID  `json:"program_id"`
	Label        string     `json:"label"`
	ScheduledFor *time.Time `json:"scheduled_for"`
}

// Create handles POST /api/tasks
func (h *TasksHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.actorService, h.logger)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	task := &models.Task{
		UserID:       req.UserID,
		ProgramID:    req.ProgramID,
		Label:        req.Label,
		ScheduledFor: req.ScheduledFor,
	}

	created, err := h.taskService.Create(r.Context(), actor, task)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, created); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/tasks
// Returns tasks visible within the actor's scope: everything for admins and
// auditors, owned programs for managers, own rows for everyone else.
func (h *TasksHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.actorService, h.logger)
	if !ok {
		return
	}

	page := parsePage(r)
	tasks, err := h.taskService.List(r.Context(), actor, includeDeleted(r), page)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	page = page.Normalize()
	if err := WriteJSON(w, http.StatusOK, ListResponse{Items: tasks, Limit: page.Limit, Offset: page.Offset}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/tasks/{id}
func (h *TasksHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.actorService, h.logger)
	if !ok {
		return
	}

	taskID, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	task, err := h.taskService.Get(r.Context(), actor, taskID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, task); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Patch handles PATCH /api/tasks/{id}
func (h *TasksHandler) Patch(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.actorService, h.logger)
	if !ok {
		return
	}

	taskID, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var patch map[string]any
	if !decodeBody(w, r, &patch, h.logger) {
		return
	}

	task, err := h.taskService.Patch(r.Context(), actor, taskID, patch)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, task); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/tasks/{id}
// Tasks soft-delete; repeating the call leaves the task deleted.
func (h *TasksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.actorService, h.logger)
	if !ok {
		return
	}

	taskID, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	if err := h.taskService.Delete(r.Context(), actor, taskID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
