package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func issue(t *testing.T, secret []byte, roles ...string) string {
	t.Helper()
	token, err := Issue(secret, Claims{UserID: "u1", Roles: roles}, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return token
}

func TestMiddleware_AcceptsBearerToken(t *testing.T) {
	secret := []byte("test-secret")
	token := issue(t, secret, RoleAdmin)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok || claims == nil {
			t.Fatalf("expected claims in context")
		}
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/smart-playlists", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	Middleware(secret)(next).ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestMiddleware_RejectsMissingOrQueryToken(t *testing.T) {
	secret := []byte("test-secret")
	token := issue(t, secret, RoleAdmin)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, target := range []string{"/api/v1/smart-playlists", "/api/v1/smart-playlists?token=" + token} {
		req := httptest.NewRequest(http.MethodPost, target, nil)
		rr := httptest.NewRecorder()
		Middleware(secret)(next).ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", target, rr.Code)
		}
	}
}

func TestMiddleware_NoSecretRejectsAll(t *testing.T) {
	token := issue(t, []byte("test-secret"), RoleAdmin)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/smart-playlists/1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	Middleware(nil)(next).ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without configured secret, got %d", rr.Code)
	}
}

func TestRequireRole(t *testing.T) {
	secret := []byte("test-secret")
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := Middleware(secret)(RequireRole(RoleEditor, RoleAdmin)(next))

	tests := []struct {
		roles []string
		want  int
	}{
		{[]string{RoleEditor}, http.StatusNoContent},
		{[]string{"listener", RoleAdmin}, http.StatusNoContent},
		{[]string{"listener"}, http.StatusForbidden},
		{nil, http.StatusForbidden},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/smart-playlists/1", nil)
		req.Header.Set("Authorization", "Bearer "+issue(t, secret, tc.roles...))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != tc.want {
			t.Fatalf("roles %v: expected %d, got %d", tc.roles, tc.want, rr.Code)
		}
	}
}
