package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sentra/internal/auth"
)

const testSecret = "test-secret"

func protectedChain(t *testing.T, captured *UserContext) http.Handler {
	t.Helper()
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := GetUser(r.Context())
		if !ok {
			t.Fatal("GetUser must succeed behind RequireAuth")
		}
		*captured = user
		w.WriteHeader(http.StatusOK)
	})
	return Auth(testSecret)(RequireAuth(inner))
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	var user UserContext
	handler := protectedChain(t, &user)

	req := httptest.NewRequest(http.MethodGet, "/lifecycle/status", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAuthRejectsGarbageToken(t *testing.T) {
	var user UserContext
	handler := protectedChain(t, &user)

	req := httptest.NewRequest(http.MethodGet, "/lifecycle/status", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAuthAttachesClaims(t *testing.T) {
	token, err := auth.GenerateToken(testSecret, auth.Claims{
		UserID:         "user-1",
		OrganisationID: "org-1",
		Role:           "admin",
	}, time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	var user UserContext
	handler := protectedChain(t, &user)

	req := httptest.NewRequest(http.MethodGet, "/lifecycle/status", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if user.UserID != "user-1" || user.OrganisationID != "org-1" || user.Role != "admin" {
		t.Fatalf("user context = %+v", user)
	}
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	token, err := auth.GenerateToken(testSecret, auth.Claims{UserID: "user-1"}, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	var user UserContext
	handler := protectedChain(t, &user)

	req := httptest.NewRequest(http.MethodGet, "/lifecycle/status", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
