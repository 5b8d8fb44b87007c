package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/onboardhq/onboard-engine/pkg/auth"
	"github.com/onboardhq/onboard-engine/pkg/services"
)

// MembershipsHandler handles program membership HTTP requests.
type MembershipsHandler struct {
	membershipService services.MembershipService
	actorService      services.ActorService
	logger            *zap.Logger
}

// NewMembershipsHandler creates a new memberships handler.
func NewMembershipsHandler(membershipService services.MembershipService, actorService services.ActorService, logger *zap.Logger) *MembershipsHandler {
	return &MembershipsHandler{
		membershipService: membershipService,
		actorService:      actorService,
		logger:            logger,
	}
}

// RegisterRoutes registers the memberships handler's routes on the given mux.
func (h *MembershipsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scope ScopeMiddleware) {
	mux.HandleFunc("POST /api/programs/{id}/members", authMiddleware.RequireAuth(scope(h.Add)))
	mux.HandleFunc("DELETE /api/programs/{id}/members/{userID}", authMiddleware.RequireAuth(scope(h.Remove)))
	mux.HandleFunc("GET /api/programs/{id}/members", authMiddleware.RequireAuth(scope(h.List)))
}

// AddMemberRequest is the request body for adding a program member.
type AddMemberRequest struct {
	UserID        string `json:"user_id"`
	RoleInProgram string `json:"role_in_program"`
}

// Add handles POST /api/programs/{id}/members
func (h *MembershipsHandler) Add(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.actorService, h.logger)
	if !ok {
		return
	}

	programID, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var req AddMemberRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		if writeErr := ErrorResponse(w, http.StatusBadRequest, "invalid_id", "Invalid user_id format"); writeErr != nil {
			h.logger.Error("Failed to write error response", zap.Error(writeErr))
		}
		return
	}

	if err := h.membershipService.Add(r.Context(), actor, programID, userID, req.RoleInProgram); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Remove handles DELETE /api/programs/{id}/members/{userID}
// Removing a missing membership is a no-op.
func (h *MembershipsHandler) Remove(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.actorService, h.logger)
	if !ok {
		return
	}

	programID, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}
	userID, ok := pathUUID(w, r, "userID", h.logger)
	if !ok {
		return
	}

	if err := h.membershipService.Remove(r.Context(), actor, programID, userID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /api/programs/{id}/members
func (h *MembershipsHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.actorService, h.logger)
	if !ok {
		return
	}

	programID, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	memberships, err := h.membershipService.ListByProgram(r.Context(), actor, programID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, memberships); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
