package router

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amirphl/event-funnel/app/handlers"
	"github.com/amirphl/event-funnel/app/middleware"
	"github.com/amirphl/event-funnel/app/services"
	"github.com/amirphl/event-funnel/config"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.ProductionConfig {
	return &config.ProductionConfig{
		Server: config.ServerConfig{
			BodyLimit:    1024 * 1024,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			IdleTimeout:  5 * time.Second,
		},
		Security: config.SecurityConfig{
			AllowedOrigins:      []string{"https://events.example.com"},
			AllowedMethods:      []string{"GET", "POST", "PATCH", "OPTIONS"},
			AllowedHeaders:      []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials:    true,
			PublicRateLimit:     100,
			GlobalRateLimit:     100,
			RateLimitWindow:     time.Minute,
			XFrameOptions:       "DENY",
			XContentTypeOptions: "nosniff",
			ReferrerPolicy:      "strict-origin-when-cross-origin",
		},
		Metrics:    config.MetricsConfig{Enabled: true, Path: "/metrics"},
		Deployment: config.DeploymentConfig{Version: "test"},
	}
}

func newTestRouter(t *testing.T, probes map[string]HealthProbe) *fiber.App {
	t.Helper()
	tokens, err := services.NewTokenService("router-test-secret-key-32-chars!!!", "", "", 0)
	require.NoError(t, err)

	r := NewFiberRouter(testConfig(), Handlers{
		Submission:    handlers.NewSubmissionHandler(nil),
		Visit:         handlers.NewVisitHandler(nil, handlers.CookieSettings{}),
		MarketingLink: handlers.NewMarketingLinkHandler(nil),
		Report:        handlers.NewCampaignReportHandler(nil, nil),
	}, middleware.NewAuthMiddleware(tokens), probes, io.Discard)
	r.SetupRoutes()
	return r.GetApp()
}

func get(t *testing.T, app *fiber.App, target string) (*http.Response, []byte) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil), fiber.TestConfig{Timeout: 5 * time.Second})
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

type envelope struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data"`
	Error   struct {
		Code string `json:"code"`
	} `json:"error"`
}

func TestHealth(t *testing.T) {
	t.Run("Healthy", func(t *testing.T) {
		app := newTestRouter(t, map[string]HealthProbe{
			"database": func(context.Context) error { return nil },
		})
		resp, raw := get(t, app, "/api/v1/health")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body envelope
		require.NoError(t, json.Unmarshal(raw, &body))
		assert.True(t, body.Success)
		assert.Equal(t, "ok", body.Data["status"])
		assert.Equal(t, "test", body.Data["version"])
		assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	})

	t.Run("Degraded", func(t *testing.T) {
		app := newTestRouter(t, map[string]HealthProbe{
			"database": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return errors.New("connection refused") },
		})
		resp, raw := get(t, app, "/api/v1/health")
		require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body envelope
		require.NoError(t, json.Unmarshal(raw, &body))
		assert.False(t, body.Success)
		assert.Equal(t, "degraded", body.Data["status"])
		checks, ok := body.Data["checks"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "ok", checks["database"])
		assert.Equal(t, "connection refused", checks["redis"])
	})
}

func TestRoutes(t *testing.T) {
	app := newTestRouter(t, nil)

	t.Run("UnknownPath", func(t *testing.T) {
		resp, raw := get(t, app, "/api/v1/nope")
		require.Equal(t, http.StatusNotFound, resp.StatusCode)

		var body envelope
		require.NoError(t, json.Unmarshal(raw, &body))
		assert.Equal(t, "NOT_FOUND", body.Error.Code)
	})

	t.Run("ClientRouteNeedsToken", func(t *testing.T) {
		resp, raw := get(t, app, "/api/v1/marketing-links/templates")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		var body envelope
		require.NoError(t, json.Unmarshal(raw, &body))
		assert.Equal(t, "MISSING_AUTHORIZATION_HEADER", body.Error.Code)
	})

	t.Run("SwaggerDoc", func(t *testing.T) {
		resp, raw := get(t, app, "/swagger/doc.json")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var doc map[string]any
		require.NoError(t, json.Unmarshal(raw, &doc))
		assert.Equal(t, "2.0", doc["swagger"])
		paths, ok := doc["paths"].(map[string]any)
		require.True(t, ok)
		assert.Contains(t, paths, "/api/v1/public/campaigns/{campaignId}/submit")
	})

	t.Run("Metrics", func(t *testing.T) {
		resp, raw := get(t, app, "/metrics")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(raw), "funnel_http_requests_total")
	})

	t.Run("SecurityHeaders", func(t *testing.T) {
		resp, _ := get(t, app, "/api/v1/health")
		assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
		assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	})
}
