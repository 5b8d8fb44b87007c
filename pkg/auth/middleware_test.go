package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func TestMiddleware_RequireAuth_Success(t *testing.T) {
	userID := uuid.New()
	client := &mockJWKSClient{claims: claimsForUser(userID.String())}
	middleware := NewMiddleware(NewAuthService(client, zap.NewNop()), zap.NewNop())

	var gotUserID uuid.UUID
	handler := middleware.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserIDFromContext(r.Context())
		if !ok {
			t.Error("expected user id in context")
		}
		gotUserID = id
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/programs", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotUserID != userID {
		t.Errorf("expected user id %v, got %v", userID, gotUserID)
	}
}

func TestMiddleware_RequireAuth_Unauthorized(t *testing.T) {
	middleware := NewMiddleware(NewAuthService(&mockJWKSClient{}, zap.NewNop()), zap.NewNop())

	handler := middleware.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run without auth")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/programs", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestMiddleware_RequireAuth_MissingSubject(t *testing.T) {
	client := &mockJWKSClient{claims: &Claims{}}
	middleware := NewMiddleware(NewAuthService(client, zap.NewNop()), zap.NewNop())

	handler := middleware.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run without a subject")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/programs", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUserIDFromContext_NonUUIDSubject(t *testing.T) {
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "not-a-uuid"}}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := req.Context()

	if _, ok := UserIDFromContext(ctx); ok {
		t.Error("expected no user id in empty context")
	}

	req = req.WithContext(context.WithValue(ctx, ClaimsKey, claims))
	if _, ok := UserIDFromContext(req.Context()); ok {
		t.Error("expected non-uuid subject to be rejected")
	}
}
