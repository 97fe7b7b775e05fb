package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amirphl/operator-ranking/app/dto"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler(t *testing.T) {
	up := func(ctx context.Context) error { return nil }
	down := func(ctx context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name     string
		checkers map[string]HealthChecker
		status   string
		services map[string]string
	}{
		{"AllUp", map[string]HealthChecker{"database": up, "cache": up}, "ok", map[string]string{"database": "up", "cache": "up"}},
		{"CacheDisabled", map[string]HealthChecker{"database": up, "cache": nil}, "ok", map[string]string{"database": "up", "cache": "disabled"}},
		{"DatabaseDown", map[string]HealthChecker{"database": down, "cache": up}, "degraded", map[string]string{"database": "down", "cache": "up"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/health", NewHealthHandler("1.2.3", tt.checkers).Health)

			resp, env := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, http.StatusOK, resp.StatusCode)

			var data dto.HealthResponse
			require.NoError(t, json.Unmarshal(env.Data, &data))
			assert.Equal(t, tt.status, data.Status)
			assert.Equal(t, "1.2.3", data.Version)
			assert.Equal(t, tt.services, data.Services)
		})
	}
}
