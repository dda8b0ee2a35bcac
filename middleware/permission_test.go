package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func webhookApp(secret string) *fiber.App {
	app := fiber.New()
	app.Post("/hook", WebhookSecret(secret), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestWebhookSecret(t *testing.T) {
	cases := []struct {
		name   string
		secret string
		header string
		want   int
	}{
		{"match", "s3cret", "s3cret", http.StatusOK},
		{"missing header", "s3cret", "", http.StatusUnauthorized},
		{"wrong value", "s3cret", "s3creT", http.StatusUnauthorized},
		{"prefix only", "s3cret", "s3c", http.StatusUnauthorized},
		{"longer value", "s3cret", "s3cret!", http.StatusUnauthorized},
		{"unset secret rejects everything", "", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/hook", nil)
			if tc.header != "" {
				req.Header.Set("X-Webhook-Secret", tc.header)
			}
			resp, err := webhookApp(tc.secret).Test(req, -1)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}

func TestRequireStaff(t *testing.T) {
	app := fiber.New()
	app.Get("/staff", func(c *fiber.Ctx) error {
		switch c.Get("X-Role") {
		case "staff":
			c.Locals("userId", uint(1))
			c.Locals("isStaff", true)
		case "user":
			c.Locals("userId", uint(2))
		}
		return c.Next()
	}, RequireStaff(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	for role, want := range map[string]int{"staff": http.StatusOK, "user": http.StatusForbidden, "": http.StatusUnauthorized} {
		req := httptest.NewRequest(http.MethodGet, "/staff", nil)
		req.Header.Set("X-Role", role)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, want, resp.StatusCode, role)
		resp.Body.Close()
	}
}
