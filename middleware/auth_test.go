package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"worklog/models"
	"worklog/store"
)

func testUser(t *testing.T, st *store.Memory, name string, admin bool) *models.User {
	t.Helper()
	user := &models.User{Name: name, PasswordHash: "stored-hash", IsAdmin: admin}
	if err := st.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func TestTokenRoundTrip(t *testing.T) {
	Configure("test-secret", "worklog", "worklog-api")
	user := &models.User{ID: 7, Name: "alice", PasswordHash: "h", IsManager: true}

	token, err := GenerateToken(user, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UID != 7 || claims.Name != "alice" {
		t.Errorf("claims = uid %d name %q, want 7 alice", claims.UID, claims.Name)
	}
	if claims.Permission != "manager" {
		t.Errorf("permission claim = %q, want manager", claims.Permission)
	}
	if claims.CredentialHash != "h" {
		t.Errorf("credential hash claim = %q, want h", claims.CredentialHash)
	}
	if claims.ID == "" {
		t.Error("token has no jti")
	}
}

func TestValidateTokenRejects(t *testing.T) {
	Configure("test-secret", "worklog", "worklog-api")
	user := &models.User{ID: 1, Name: "alice"}

	expired, err := GenerateToken(user, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := ValidateToken(expired); err == nil {
		t.Error("expired token accepted")
	}

	good, err := GenerateToken(user, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	Configure("other-secret", "worklog", "worklog-api")
	if _, err := ValidateToken(good); err == nil {
		t.Error("token signed with another secret accepted")
	}

	Configure("test-secret", "someone-else", "worklog-api")
	if _, err := ValidateToken(good); err == nil {
		t.Error("token with wrong issuer accepted")
	}

	Configure("test-secret", "worklog", "worklog-api")
	if _, err := ValidateToken("not.a.token"); err == nil {
		t.Error("garbage token accepted")
	}
}

func TestAuthMiddleware(t *testing.T) {
	Configure("test-secret", "worklog", "worklog-api")
	st := store.NewMemory()
	user := testUser(t, st, "alice", false)

	var seen *models.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetUserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := Auth(st)(next)

	// No token at all.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/entries", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status %d, want 401", rec.Code)
	}

	// Bearer token.
	token, err := GenerateToken(user, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	req := httptest.NewRequest("GET", "/entries", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("bearer token: status %d, want 200", rec.Code)
	}
	if seen == nil || seen.ID != user.ID {
		t.Fatal("caller not placed in context")
	}

	// Cookie token.
	req = httptest.NewRequest("GET", "/entries", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("cookie token: status %d, want 200", rec.Code)
	}

	// Password change rotates the stored hash; the old token goes stale.
	user.PasswordHash = "rotated"
	if err := st.UpdateUser(context.Background(), user); err != nil {
		t.Fatalf("update user: %v", err)
	}
	req = httptest.NewRequest("GET", "/entries", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("stale token: status %d, want 401", rec.Code)
	}
}

func TestRequirePermission(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RequirePermission(models.PermissionAdmin)(next)

	serve := func(user *models.User) int {
		req := httptest.NewRequest("POST", "/users", nil)
		if user != nil {
			req = req.WithContext(context.WithValue(req.Context(), UserContextKey, user))
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := serve(nil); code != http.StatusUnauthorized {
		t.Errorf("no caller: status %d, want 401", code)
	}
	if code := serve(&models.User{IsManager: true}); code != http.StatusForbidden {
		t.Errorf("manager: status %d, want 403", code)
	}
	if code := serve(&models.User{IsAdmin: true}); code != http.StatusOK {
		t.Errorf("admin: status %d, want 200", code)
	}
}
