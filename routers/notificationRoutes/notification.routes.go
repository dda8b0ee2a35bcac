package notificationRoutes

import (
	"github.com/gofiber/fiber/v2"

	notificationController "shams/controllers/notification"
	"shams/middleware"
	"shams/validators"
)

func SetupNotificationRoutes(app *fiber.App, ctrl *notificationController.Controller, auth *middleware.Auth) {
	group := app.Group("/notifications", auth.JWTMiddleware())
	group.Get("/", ctrl.List)
	group.Get("/unread_count", ctrl.UnreadCount)
	group.Post("/mark_all_as_read", ctrl.MarkAllRead)
	group.Post("/:id/mark_as_read", validators.ParamID("id", "notificationID"), ctrl.MarkRead)
}
