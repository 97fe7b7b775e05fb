package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/amirphl/operator-ranking/app/services"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProtectedApp(t *testing.T) (*fiber.App, services.TokenService) {
	t.Helper()
	tokens, err := services.NewTokenService(time.Hour, 24*time.Hour, "operator-ranking", "dashboard", false, "", "", "0123456789abcdef0123456789abcdef")
	require.NoError(t, err)

	m := NewAuthMiddleware(tokens)
	app := fiber.New()
	app.Get("/protected", m.AdminAuthenticate(), func(c fiber.Ctx) error {
		id, ok := GetAdminIDFromContext(c)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendString(strconv.FormatUint(uint64(id), 10))
	})
	return app, tokens
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Error.Code
}

func TestAdminAuthenticate(t *testing.T) {
	app, tokens := newProtectedApp(t)
	access, refresh, err := tokens.GenerateAdminTokens(9)
	require.NoError(t, err)

	t.Run("ValidAccessToken", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+access)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"MissingHeader", "", "MISSING_AUTHORIZATION_HEADER"},
		{"WrongScheme", "Basic abc", "INVALID_AUTHORIZATION_FORMAT"},
		{"Garbage", "Bearer not-a-jwt", "TOKEN_INVALID"},
		{"RefreshToken", "Bearer " + refresh, "TOKEN_INVALID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, tt.code, errorCode(t, resp))
		})
	}

	t.Run("RevokedToken", func(t *testing.T) {
		require.NoError(t, tokens.RevokeToken(access))
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+access)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "TOKEN_REVOKED", errorCode(t, resp))
	})
}
