package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/onboardhq/onboard-engine/pkg/apperrors"
	"github.com/onboardhq/onboard-engine/pkg/auth"
	"github.com/onboardhq/onboard-engine/pkg/authz"
	"github.com/onboardhq/onboard-engine/pkg/logging"
	"github.com/onboardhq/onboard-engine/pkg/repositories"
	"github.com/onboardhq/onboard-engine/pkg/services"
)

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// ListResponse is the envelope for collection endpoints.
type ListResponse struct {
	Items  any `json:"items"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// writeServiceError translates a service error into the matching HTTP
// response. Sentinel errors carry their own message; anything unrecognized
// is a 500 with the detail kept out of the body.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var statusCode int
	var errorCode string

	switch {
	case errors.Is(err, apperrors.ErrValidation):
		statusCode, errorCode = http.StatusBadRequest, "validation_failed"
	case errors.Is(err, apperrors.ErrInvalidRole):
		statusCode, errorCode = http.StatusBadRequest, "invalid_role"
	case errors.Is(err, apperrors.ErrForbidden):
		statusCode, errorCode = http.StatusForbidden, "forbidden"
	case errors.Is(err, apperrors.ErrNotFound):
		statusCode, errorCode = http.StatusNotFound, "not_found"
	case errors.Is(err, apperrors.ErrConflict):
		statusCode, errorCode = http.StatusConflict, "conflict"
	default:
		// Unrecognized errors can carry connection strings or tokens
		// (pgx, JWKS); redact before logging.
		logger.Error("Request failed", zap.String("error", logging.SanitizeError(err)))
		if writeErr := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Internal server error"); writeErr != nil {
			logger.Error("Failed to write error response", zap.Error(writeErr))
		}
		return
	}

	if writeErr := ErrorResponse(w, statusCode, errorCode, err.Error()); writeErr != nil {
		logger.Error("Failed to write error response", zap.Error(writeErr))
	}
}

// requireActor loads the acting principal for the request. On failure it
// writes the error response and returns ok=false.
func requireActor(w http.ResponseWriter, r *http.Request, actors services.ActorService, logger *zap.Logger) (authz.Actor, bool) {
	userID, err := auth.RequireUserIDFromContext(r.Context())
	if err != nil {
		if writeErr := ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authentication required"); writeErr != nil {
			logger.Error("Failed to write error response", zap.Error(writeErr))
		}
		return authz.Actor{}, false
	}

	actor, err := actors.Load(r.Context(), userID)
	if err != nil {
		writeServiceError(w, logger, err)
		return authz.Actor{}, false
	}
	return actor, true
}

// pathUUID parses the named path value as a UUID. On failure it writes a
// 400 response and returns ok=false.
func pathUUID(w http.ResponseWriter, r *http.Request, name string, logger *zap.Logger) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		if writeErr := ErrorResponse(w, http.StatusBadRequest, "invalid_id", "Invalid "+name+" format"); writeErr != nil {
			logger.Error("Failed to write error response", zap.Error(writeErr))
		}
		return uuid.Nil, false
	}
	return id, true
}

// decodeBody decodes the request body into dst. On failure it writes a 400
// response and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, logger *zap.Logger) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if writeErr := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); writeErr != nil {
			logger.Error("Failed to write error response", zap.Error(writeErr))
		}
		return false
	}
	return true
}

// parsePage reads limit/offset query parameters. Repositories clamp the
// values, so malformed input just falls back to the defaults.
func parsePage(r *http.Request) repositories.Page {
	var page repositories.Page
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			page.Limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			page.Offset = n
		}
	}
	return page
}

// includeDeleted reads the include_deleted query flag.
func includeDeleted(r *http.Request) bool {
	return r.URL.Query().Get("include_deleted") == "true"
}
