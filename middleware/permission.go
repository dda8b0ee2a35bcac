package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

// RequireStaff must run after JWTMiddleware.
func RequireStaff() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if UserID(c) == 0 {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized: User ID not found", nil)
		}
		if !IsStaff(c) {
			return JsonResponse(c, fiber.StatusForbidden, false, "You do not have permission to access this resource!", nil)
		}
		return c.Next()
	}
}

// WebhookSecret checks the shared secret header sent by the payment gateway.
func WebhookSecret(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		got := c.Get("X-Webhook-Secret")
		if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid webhook secret", nil)
		}
		return c.Next()
	}
}
