package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/onboardhq/onboard-engine/pkg/auth"
	"github.com/onboardhq/onboard-engine/pkg/services"
)

// LinksHandler handles the program<->template association endpoints.
type LinksHandler struct {
	associationService services.AssociationService
	actorService       services.ActorService
	logger             *zap.Logger
}

// NewLinksHandler creates a new links handler.
func NewLinksHandler(associationService services.AssociationService, actorService services.ActorService, logger *zap.Logger) *LinksHandler {
	return &LinksHandler{
		associationService: associationService,
		actorService:       actorService,
		logger:             logger,
	}
}

// RegisterRoutes registers the links handler's routes on the given mux.
func (h *LinksHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scope ScopeMiddleware) {
	mux.HandleFunc("POST /api/programs/{id}/templates/{templateID}", authMiddleware.RequireAuth(scope(h.Attach)))
	mux.HandleFunc("DELETE /api/programs/{id}/templates/{templateID}", authMiddleware.RequireAuth(scope(h.Detach)))
	mux.HandleFunc("PATCH /api/programs/{id}/templates/{templateID}", authMiddleware.RequireAuth(scope(h.UpdateLink)))
	mux.HandleFunc("GET /api/programs/{id}/templates", authMiddleware.RequireAuth(scope(h.ListTemplates)))
	mux.HandleFunc("GET /api/templates/{id}/programs", authMiddleware.RequireAuth(scope(h.ListPrograms)))
}

// Attach handles POST /api/programs/{id}/templates/{templateID}
// Attaching is idempotent; repeating the call reports already_attached.
func (h *LinksHandler) Attach(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.actorService, h.logger)
	if !ok {
		return
	}

	programID, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}
	templateID, ok := pathUUID(w, r, "templateID", h.logger)
	if !ok {
		return
	}

	var overrides services.LinkOverrides
	if r.ContentLength > 0 {
		if !decodeBody(w, r, &overrides, h.logger) {
			return
		}
	}

	result, err := h.associationService.Attach(r.Context(), actor, programID, templateID, overrides)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Detach handles DELETE /api/programs/{id}/templates/{templateID}
// Detaching a link that never existed is success with was_attached=false.
func (h *LinksHandler) Detach(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.actorService, h.logger)
	if !ok {
		return
	}

	programID, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}
	templateID, ok := pathUUID(w, r, "templateID", h.logger)
	if !ok {
		return
	}

	result, err := h.associationService.Detach(r.Context(), actor, programID, templateID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// UpdateLinkResponse reports whether a link metadata patch changed anything.
type UpdateLinkResponse struct {
	Updated bool `json:"updated"`
}

// UpdateLink handles PATCH /api/programs/{id}/templates/{templateID}
// Unrecognized fields in the patch are dropped silently; a patch with no
// recognized fields reports updated=false.
func (h *LinksHandler) UpdateLink(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.actorService, h.logger)
	if !ok {
		return
	}

	programID, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}
	templateID, ok := pathUUID(w, r, "templateID", h.logger)
	if !ok {
		return
	}

	var patch map[string]any
	if !decodeBody(w, r, &patch, h.logger) {
		return
	}

	updated, err := h.associationService.UpdateLink(r.Context(), actor, programID, templateID, patch)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, UpdateLinkResponse{Updated: updated}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListTemplates handles GET /api/programs/{id}/templates
// Returns the effective templates for the program, link overrides applied.
func (h *LinksHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.actorService, h.logger)
	if !ok {
		return
	}

	programID, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	page := parsePage(r)
	templates, err := h.associationService.ListTemplatesForProgram(r.Context(), actor, programID, includeDeleted(r), page)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	page = page.Normalize()
	if err := WriteJSON(w, http.StatusOK, ListResponse{Items: templates, Limit: page.Limit, Offset: page.Offset}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListPrograms handles GET /api/templates/{id}/programs
// Returns the programs using the template, intersected with the actor's
// program scope.
func (h *LinksHandler) ListPrograms(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.actorService, h.logger)
	if !ok {
		return
	}

	templateID, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	page := parsePage(r)
	programs, err := h.associationService.ListProgramsForTemplate(r.Context(), actor, templateID, includeDeleted(r), page)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	page = page.Normalize()
	if err := WriteJSON(w, http.StatusOK, ListResponse{Items: programs, Limit: page.Limit, Offset: page.Offset}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
