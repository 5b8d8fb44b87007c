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

// TemplatesHandler handles template catalog HTTP requests.
type TemplatesHandler struct {
	templateService services.TemplateService
	actorService    services.ActorService
	logger          *zap.Logger
}

// NewTemplatesHandler creates a new templates handler.
func NewTemplatesHandler(templateService services.TemplateService, actorService services.ActorService, logger *zap.Logger) *TemplatesHandler {
	return &TemplatesHandler{
		templateService: templateService,
		actorService:    actorService,
		logger:          logger,
	}
}

// RegisterRoutes registers the templates handler's routes on the given mux.
func (h *TemplatesHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scope ScopeMiddleware) {
	mux.HandleFunc("POST /api/templates", authMiddleware.RequireAuth(scope(h.Create)))
	mux.HandleFunc("GET /api/templates", authMiddleware.RequireAuth(scope(h.List)))
	mux.HandleFunc("GET /api/templates/{id}", authMiddleware.RequireAuth(scope(h.Get)))
	mux.HandleFunc("PATCH /api/templates/{id}", authMiddleware.RequireAuth(scope(h.Patch)))
	mux.HandleFunc("DELETE /api/templates/{id}", authMiddleware.RequireAuth(scope(h.Archive)))
	mux.HandleFunc("POST /api/templates/{id}/publish", authMiddleware.RequireAuth(scope(h.Publish)))
	mux.HandleFunc("POST /api/templates/{id}/deprecate", authMiddleware.RequireAuth(scope(h.Deprecate)))
	mux.HandleFunc("POST /api/templates/{id}/restore", authMiddleware.RequireAuth(scope(h.Restore)))
}

// CreateTemplateRequest is the request body for creating a template.
type CreateTemplateRequest struct {
	Label         string  `json:"label"`
	WeekNumber    *int    `json:"week_number"`
	DueOffsetDays *int    `json:"due_offset_days"`
	Required      bool    `json:"required"`
	Visibility    string  `json:"visibility"`
	SortOrder     *int    `json:"sort_order"`
	Notes         *string `json:"notes"`
}

// Create handles POST /api/templates
func (h *TemplatesHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.actorService, h.logger)
	if !ok {
		return
	}

	var req CreateTemplateRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	template := &models.Template{
		Label:         req.Label,
		WeekNumber:    req.WeekNumber,
		DueOffsetDays: req.DueOffsetDays,
		Required:      req.Required,
		Visibility:    req.Visibility,
		SortOrder:     req.SortOrder,
		Notes:         req.Notes,
	}

	created, err := h.templateService.Create(r.Context(), actor, template)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, created); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/templates
func (h *TemplatesHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.actorService, h.logger)
	if !ok {
		return
	}

	page := parsePage(r)
	templates, err := h.templateService.List(r.Context(), actor, includeDeleted(r), page)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	page = page.Normalize()
	if err := WriteJSON(w, http.StatusOK, ListResponse{Items: templates, Limit: page.Limit, Offset: page.Offset}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/templates/{id}
func (h *TemplatesHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.actorService, h.logger)
	if !ok {
		return
	}

	templateID, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	template, err := h.templateService.Get(r.Context(), actor, templateID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, template); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Patch handles PATCH /api/templates/{id}
func (h *TemplatesHandler) Patch(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.actorService, h.logger)
	if !ok {
		return
	}

	templateID, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var patch map[string]any
	if !decodeBody(w, r, &patch, h.logger) {
		return
	}

	template, err := h.templateService.Patch(r.Context(), actor, templateID, patch)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, template); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Publish handles POST /api/templates/{id}/publish
func (h *TemplatesHandler) Publish(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.templateService.Publish)
}

// Deprecate handles POST /api/templates/{id}/deprecate
func (h *TemplatesHandler) Deprecate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.templateService.Deprecate)
}

// Archive handles DELETE /api/templates/{id}
func (h *TemplatesHandler) Archive(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.templateService.Archive)
}

// Restore handles POST /api/templates/{id}/restore
func (h *TemplatesHandler) Restore(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.templateService.Restore)
}

func (h *TemplatesHandler) transition(w http.ResponseWriter, r *http.Request, op func(context.Context, authz.Actor, uuid.UUID) (*models.Template, error)) {
	actor, ok := requireActor(w, r, h.actorService, h.logger)
	if !ok {
		return
	}

	templateID, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	template, err := op(r.Context(), actor, templateID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, template); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
