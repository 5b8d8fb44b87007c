package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/onboardhq/onboard-engine/pkg/auth"
	"github.com/onboardhq/onboard-engine/pkg/authz"
	"github.com/onboardhq/onboard-engine/pkg/models"
	"github.com/onboardhq/onboard-engine/pkg/services"
)

// ScopeMiddleware is a function that wraps a handler with a per-request
// database scope.
type ScopeMiddleware func(http.HandlerFunc) http.HandlerFunc

// ProgramsHandler handles program-related HTTP requests.
type ProgramsHandler struct {
	programService services.ProgramService
	actorService   services.ActorService
	logger         *zap.Logger
}

// NewProgramsHandler creates a new programs handler.
func NewProgramsHandler(programService services.ProgramService, actorService services.ActorService, logger *zap.Logger) *ProgramsHandler {
	return &ProgramsHandler{
		programService: programService,
		actorService:   actorService,
		logger:         logger,
	}
}

// RegisterRoutes registers the programs handler's routes on the given mux.
func (h *ProgramsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scope ScopeMiddleware) {
	mux.HandleFunc("POST /api/programs", authMiddleware.RequireAuth(scope(h.Create)))
	mux.HandleFunc("GET /api/programs", authMiddleware.RequireAuth(scope(h.List)))
	mux.HandleFunc("GET /api/programs/{id}", authMiddleware.RequireAuth(scope(h.Get)))
	mux.HandleFunc("PATCH /api/programs/{id}", authMiddleware.RequireAuth(scope(h.Patch)))
	mux.HandleFunc("DELETE /api/programs/{id}", authMiddleware.RequireAuth(scope(h.Archive)))
	mux.HandleFunc("POST /api/programs/{id}/publish", authMiddleware.RequireAuth(scope(h.Publish)))
	mux.HandleFunc("POST /api/programs/{id}/deprecate", authMiddleware.RequireAuth(scope(h.Deprecate)))
	mux.HandleFunc("POST /api/programs/{id}/restore", authMiddleware.RequireAuth(scope(h.Restore)))
}

// CreateProgramRequest is the request body for creating a program.
type CreateProgramRequest struct {
	Title string `json:"title"`
}

// Create handles POST /api/programs
func (h *ProgramsHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.actorService, h.logger)
	if !ok {
		return
	}

	var req CreateProgramRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	program, err := h.programService.Create(r.Context(), actor, req.Title)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, program); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/programs
// Returns programs visible within the actor's scope.
func (h *ProgramsHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.actorService, h.logger)
	if !ok {
		return
	}

	page := parsePage(r)
	programs, err := h.programService.List(r.Context(), actor, includeDeleted(r), page)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	page = page.Normalize()
	if err := WriteJSON(w, http.StatusOK, ListResponse{Items: programs, Limit: page.Limit, Offset: page.Offset}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/programs/{id}
func (h *ProgramsHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.actorService, h.logger)
	if !ok {
		return
	}

	programID, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	program, err := h.programService.Get(r.Context(), actor, programID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, program); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Patch handles PATCH /api/programs/{id}
// The body is a field patch; any field outside the allowed set rejects the
// whole request.
func (h *ProgramsHandler) Patch(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.actorService, h.logger)
	if !ok {
		return
	}

	programID, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var patch map[string]any
	if !decodeBody(w, r, &patch, h.logger) {
		return
	}

	program, err := h.programService.Patch(r.Context(), actor, programID, patch)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, program); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Publish handles POST /api/programs/{id}/publish
func (h *ProgramsHandler) Publish(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.programService.Publish)
}

// Deprecate handles POST /api/programs/{id}/deprecate
func (h *ProgramsHandler) Deprecate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.programService.Deprecate)
}

// Archive handles DELETE /api/programs/{id}
// Archiving is a soft delete and is idempotent.
func (h *ProgramsHandler) Archive(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.programService.Archive)
}

// Restore handles POST /api/programs/{id}/restore
func (h *ProgramsHandler) Restore(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.programService.Restore)
}

func (h *ProgramsHandler) transition(w http.ResponseWriter, r *http.Request, op func(context.Context, authz.Actor, uuid.UUID) (*models.Program, error)) {
	actor, ok := requireActor(w, r, h.actorService, h.logger)
	if !ok {
		return
	}

	programID, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	program, err := op(r.Context(), actor, programID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, program); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
