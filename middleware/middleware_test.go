package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func newApp() *fiber.App {
	app := fiber.New()
	app.Use(GatewayAuthMiddleware("gw-token"))
	app.Get("/open", func(c *fiber.Ctx) error { return c.SendString("ok") })

	secured := app.Group("/s", UserContextMiddleware())
	secured.Get("/me", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("user_id").(string))
	})
	secured.Get("/admin", RequireRole("admin"), func(c *fiber.Ctx) error { return c.SendString("admin") })
	return app
}

func TestMiddlewareChain(t *testing.T) {
	app := newApp()

	tests := []struct {
		name    string
		path    string
		headers map[string]string
		want    int
	}{
		{"no token", "/open", nil, fiber.StatusUnauthorized},
		{"bad token", "/open", map[string]string{"Authorization": "Bearer nope"}, fiber.StatusUnauthorized},
		{"bearer token", "/open", map[string]string{"Authorization": "Bearer gw-token"}, fiber.StatusOK},
		{"raw token", "/open", map[string]string{"Authorization": "gw-token"}, fiber.StatusOK},
		{"no user", "/s/me", map[string]string{"Authorization": "gw-token"}, fiber.StatusUnauthorized},
		{"user", "/s/me", map[string]string{"Authorization": "gw-token", "X-User-ID": "u1"}, fiber.StatusOK},
		{"user without role", "/s/admin", map[string]string{"Authorization": "gw-token", "X-User-ID": "u1", "X-User-Roles": "gamer"}, fiber.StatusForbidden},
		{"admin", "/s/admin", map[string]string{"Authorization": "gw-token", "X-User-ID": "u1", "X-User-Roles": "gamer, Admin"}, fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestParseRoles(t *testing.T) {
	got := parseRoles(" admin,, gamer ,")
	if len(got) != 2 || got[0] != "admin" || got[1] != "gamer" {
		t.Errorf("parseRoles = %q", got)
	}
}
