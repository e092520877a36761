package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/iskomart/iskomart-backend/pkg/auth"
	"github.com/iskomart/iskomart-backend/pkg/config"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "iskomart", ExpirationMinutes: 60}
}

func actorEcho(captured *uuid.UUID, found *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured, *found = ActorFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthAllowsAnonymousWhenOptional(t *testing.T) {
	var actor uuid.UUID
	var found bool
	handler := Auth(testJWTConfig(), nil)(actorEcho(&actor, &found))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if found {
		t.Fatalf("anonymous request should carry no actor")
	}
}

func TestAuthRejectsMissingTokenWhenRequired(t *testing.T) {
	cfg := testJWTConfig()
	cfg.Required = true
	var actor uuid.UUID
	var found bool
	handler := Auth(cfg, nil)(actorEcho(&actor, &found))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	var actor uuid.UUID
	var found bool
	handler := Auth(testJWTConfig(), nil)(actorEcho(&actor, &found))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthSeedsActorFromValidToken(t *testing.T) {
	cfg := testJWTConfig()
	userID := uuid.New()
	token, err := auth.MintAccessToken(cfg, time.Now(), userID, "juan")
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	var actor uuid.UUID
	var found bool
	handler := Auth(cfg, nil)(actorEcho(&actor, &found))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !found || actor != userID {
		t.Fatalf("expected actor %s got %s (found=%v)", userID, actor, found)
	}
}
