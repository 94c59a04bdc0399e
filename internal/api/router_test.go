package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sproutbook/sproutbook/internal/app"
	iauth "github.com/sproutbook/sproutbook/internal/auth"
	"github.com/sproutbook/sproutbook/internal/database/testutil"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "test-secret", Issuer: "test", AccessTokenTTL: 15 * time.Minute})
	if err != nil {
		t.Fatalf("jwt service: %v", err)
	}

	cfg := &app.Config{}
	cfg.Auth.JWT.Secret = "test-secret"
	cfg.Invitations.Expiry = 7 * 24 * time.Hour
	cfg.Invitations.TokenBytes = 32
	cfg.Monitoring.Prometheus.Enabled = true
	cfg.Monitoring.Prometheus.Endpoint = "/metrics"

	router, err := NewRouter(db, jwtSvc, cfg, nil)
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouter_PublicAndProtectedRoutes(t *testing.T) {
	router := newTestRouter(t)

	// Health and the feature table are public
	rec := doJSON(t, router, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for /health, got %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodGet, "/api/features", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for /api/features, got %d", rec.Code)
	}

	// Protected endpoints without auth should be 401
	for _, path := range []string{"/api/auth/me", "/api/children"} {
		rec = doJSON(t, router, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %s without token, got %d", path, rec.Code)
		}
	}

	// Unknown routes return the JSON 404 envelope
	rec = doJSON(t, router, http.MethodGet, "/api/nope", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown route, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"success":false`) {
		t.Fatalf("404 body missing error envelope: %s", rec.Body.String())
	}
}

func TestRouter_OwnerFlowAndFeatureGate(t *testing.T) {
	router := newTestRouter(t)

	// Register an owner account
	rec := doJSON(t, router, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "parent",
		"email":    "parent@example.com",
		"password": "super-secret",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var registered struct {
		Data struct {
			Token string `json:"token"`
			User  struct {
				ID string `json:"id"`
			} `json:"user"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &registered); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	token := registered.Data.Token
	if token == "" {
		t.Fatal("register response missing token")
	}

	// Create a newborn profile
	birth := time.Now().UTC().AddDate(0, -2, 0).Format("2006-01-02")
	rec = doJSON(t, router, http.MethodPost, "/api/children", token, map[string]string{
		"name":       "Maya",
		"birth_date": birth,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create child: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode child response: %v", err)
	}

	// Bedtime stories are locked until age three
	rec = doJSON(t, router, http.MethodPost, "/api/stories", token, map[string]string{
		"child_id": created.Data.ID,
		"prompt":   "a sleepy hedgehog",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("story request: expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "FEATURE_LOCKED") {
		t.Fatalf("expected FEATURE_LOCKED error, got: %s", rec.Body.String())
	}

	// The feature report names the same unlock age
	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/children/%s/features", created.Data.ID), token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("feature report: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"at_age":3`) {
		t.Fatalf("feature report missing age-3 threshold: %s", rec.Body.String())
	}
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for /health, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for /metrics, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "sproutbook_api_latency_seconds") {
		t.Fatal("metrics output missing latency series")
	}
}
