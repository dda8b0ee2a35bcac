package paymentRoutes

import (
	"github.com/gofiber/fiber/v2"

	paymentController "shams/controllers/payment"
	"shams/middleware"
	paymentValidator "shams/validators/payment"
)

func SetupPaymentRoutes(app *fiber.App, ctrl *paymentController.Controller, auth *middleware.Auth, webhookSecret string) {
	paymentGroup := app.Group("/payments")

	// the provider callback authenticates with a shared secret, not a user token
	paymentGroup.Post("/:id/webhook", middleware.WebhookSecret(webhookSecret), paymentValidator.PaymentID(), paymentValidator.Webhook(), ctrl.Webhook)

	paymentGroup.Post("/initiate", auth.JWTMiddleware(), paymentValidator.Initiate(), ctrl.Initiate)
	paymentGroup.Get("/", auth.JWTMiddleware(), ctrl.History)
	paymentGroup.Get("/:id", auth.JWTMiddleware(), paymentValidator.PaymentID(), ctrl.Detail)
	paymentGroup.Post("/:id/verify", auth.JWTMiddleware(), paymentValidator.PaymentID(), ctrl.Verify)
}
