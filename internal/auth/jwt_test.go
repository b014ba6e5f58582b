package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dental-clinic/internal/config"

	"github.com/gin-gonic/gin"
)

func newManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(config.AuthConfig{JWTSecret: "secret", JWTIssuer: "dental-clinic", JWTAudience: "admin-api"})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	return m
}

func TestIssueAndVerifyAccessToken(t *testing.T) {
	m := newManager(t)
	now := time.Unix(1700000000, 0).UTC()

	tok, err := m.Issue(now, TokenTypeAccess, 7, "admin", 15*time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := m.Verify(tok, TokenTypeAccess, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.PrincipalID != 7 || claims.Role != "admin" || claims.ID == "" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyRejects(t *testing.T) {
	m := newManager(t)
	now := time.Unix(1700000000, 0).UTC()

	refresh, _ := m.Issue(now, TokenTypeRefresh, 7, "", time.Hour)
	if _, err := m.Verify(refresh, TokenTypeAccess, now); err == nil {
		t.Fatalf("expected token_type mismatch")
	}

	expired, _ := m.Issue(now, TokenTypeAccess, 7, "admin", time.Minute)
	if _, err := m.Verify(expired, TokenTypeAccess, now.Add(10*time.Minute)); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}

	noRole, _ := m.Issue(now, TokenTypeAccess, 7, "", time.Minute)
	if _, err := m.Verify(noRole, TokenTypeAccess, now); err == nil {
		t.Fatalf("expected missing role to be rejected")
	}

	other, _ := NewManager(config.AuthConfig{JWTSecret: "secret", JWTIssuer: "someone-else"})
	foreign, _ := other.Issue(now, TokenTypeAccess, 7, "admin", time.Minute)
	if _, err := m.Verify(foreign, TokenTypeAccess, now); err == nil {
		t.Fatalf("expected issuer mismatch")
	}
}

func TestIdentityContext(t *testing.T) {
	if _, err := PrincipalID(context.Background()); err == nil {
		t.Fatalf("expected error for empty context")
	}
	ctx := WithIdentity(context.Background(), 3, "dentist")
	id, _ := PrincipalID(ctx)
	role, _ := Role(ctx)
	if id != 3 || role != "dentist" {
		t.Fatalf("unexpected identity: %d %q", id, role)
	}
}

func TestRequireAccessToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := newManager(t)

	r := gin.New()
	r.GET("/me", RequireAccessToken(m), func(c *gin.Context) {
		id, _ := PrincipalID(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"id": id})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	tok, _ := m.Issue(time.Now(), TokenTypeAccess, 9, "admin", time.Minute)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != `{"id":9}` {
		t.Fatalf("unexpected response: %d %s", w.Code, w.Body.String())
	}
}
