package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/onboardhq/onboard-engine/pkg/auth"
	"github.com/onboardhq/onboard-engine/pkg/models"
	"github.com/onboardhq/onboard-engine/pkg/services"
)

// UsersHandler handles user administration HTTP requests.
type UsersHandler struct {
	userService  services.UserService
	actorService services.ActorService
	logger       *zap.Logger
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(userService services.UserService, actorService services.ActorService, logger *zap.Logger) *UsersHandler {
	return &UsersHandler{
		userService:  userService,
		actorService: actorService,
		logger:       logger,
	}
}

// RegisterRoutes registers the users handler's routes on the given mux.
func (h *UsersHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scope ScopeMiddleware) {
	mux.HandleFunc("POST /api/users", authMiddleware.RequireAuth(scope(h.Create)))
	mux.HandleFunc("GET /api/users", authMiddleware.RequireAuth(scope(h.List)))
	mux.HandleFunc("GET /api/users/{id}", authMiddleware.RequireAuth(scope(h.Get)))
	mux.HandleFunc("PUT /api/users/{id}/roles", authMiddleware.RequireAuth(scope(h.UpdateRoles)))
	mux.HandleFunc("PUT /api/users/{id}/status", authMiddleware.RequireAuth(scope(h.SetStatus)))
}

// CreateUserRequest is the request body for creating a user.
type CreateUserRequest struct {
	Email  string   `json:"email"`
	Name   string   `json:"name"`
	Roles  []string `json:"roles"`
	Status string   `json:"status"`
}

// Create handles POST /api/users
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.actorService, h.logger)
	if !ok {
		return
	}

	var req CreateUserRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	user := &models.User{
		Email:  req.Email,
		Name:   req.Name,
		Roles:  req.Roles,
		Status: req.Status,
	}

	created, err := h.userService.Create(r.Context(), actor, user)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, created); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/users
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.actorService, h.logger)
	if !ok {
		return
	}

	page := parsePage(r)
	users, err := h.userService.List(r.Context(), actor, page)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	page = page.Normalize()
	if err := WriteJSON(w, http.StatusOK, ListResponse{Items: users, Limit: page.Limit, Offset: page.Offset}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/users/{id}
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.actorService, h.logger)
	if !ok {
		return
	}

	userID, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	user, err := h.userService.Get(r.Context(), actor, userID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, user); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// UpdateRolesRequest is the request body for replacing a user's roles.
type UpdateRolesRequest struct {
	Roles []string `json:"roles"`
}

// UpdateRoles handles PUT /api/users/{id}/roles
// Replaces the role set wholesale; unknown role keys reject the request.
func (h *UsersHandler) UpdateRoles(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.actorService, h.logger)
	if !ok {
		return
	}

	userID, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var req UpdateRolesRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	user, err := h.userService.UpdateRoles(r.Context(), actor, userID, req.Roles)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, user); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// SetStatusRequest is the request body for changing account status.
type SetStatusRequest struct {
	Status string `json:"status"`
}

// SetStatus handles PUT /api/users/{id}/status
// Suspending or archiving takes effect on the target's next request.
func (h *UsersHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.actorService, h.logger)
	if !ok {
		return
	}

	userID, ok := pathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var req SetStatusRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	user, err := h.userService.SetStatus(r.Context(), actor, userID, req.Status)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, user); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
