package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statusOf(t *testing.T, app *fiber.App, req *http.Request) int {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.StatusCode
}

func TestGatewayAuthMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(GatewayAuthMiddleware("s3cret"))
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/missions/daily", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	tests := []struct {
		name   string
		path   string
		auth   string
		status int
	}{
		{"health is open", "/health", "", http.StatusOK},
		{"missing header", "/missions/daily", "", http.StatusUnauthorized},
		{"wrong token", "/missions/daily", "Bearer nope", http.StatusUnauthorized},
		{"bearer token", "/missions/daily", "Bearer s3cret", http.StatusOK},
		{"raw token", "/missions/daily", "s3cret", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			assert.Equal(t, tt.status, statusOf(t, app, req))
		})
	}
}

func TestUserContextMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(UserContextMiddleware())
	app.Get("/me", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id": c.Locals("user_id"),
			"roles":   c.Locals("user_roles"),
		})
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, app, req))

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("X-User-ID", "   ")
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, app, req))

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("X-User-ID", "user-1")
	assert.Equal(t, http.StatusOK, statusOf(t, app, req))
}

func TestRequireRole(t *testing.T) {
	app := fiber.New()
	app.Use(UserContextMiddleware(), RequireRole("admin"))
	app.Post("/seed", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusCreated) })

	tests := []struct {
		roles  string
		status int
	}{
		{"", http.StatusForbidden},
		{"user", http.StatusForbidden},
		{"administrator", http.StatusForbidden},
		{"user, admin", http.StatusCreated},
		{"admin", http.StatusCreated},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/seed", nil)
		req.Header.Set("X-User-ID", "user-1")
		if tt.roles != "" {
			req.Header.Set("X-User-Roles", tt.roles)
		}
		assert.Equal(t, tt.status, statusOf(t, app, req), tt.roles)
	}
}
