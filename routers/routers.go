// Package routers mounts every route group on the fiber app.
package routers

import (
	"github.com/gofiber/fiber/v2"

	assistantController "shams/controllers/assistant"
	authController "shams/controllers/auth"
	courseController "shams/controllers/course"
	libraryController "shams/controllers/library"
	notificationController "shams/controllers/notification"
	paymentController "shams/controllers/payment"
	testController "shams/controllers/test"

	"shams/config"
	"shams/middleware"
	"shams/repository"
	"shams/routers/assistantRoutes"
	"shams/routers/authRoutes"
	"shams/routers/courseRoutes"
	"shams/routers/libraryRoutes"
	"shams/routers/notificationRoutes"
	"shams/routers/paymentRoutes"
	"shams/routers/testRoutes"
	"shams/services/account"
	"shams/services/assessment"
	"shams/services/assistant"
	"shams/services/course"
	"shams/services/library"
	"shams/services/notification"
	"shams/services/payment"
	"shams/utils/logger"
)

type Services struct {
	Accounts      *account.Service
	Courses       *course.Service
	Tests         *assessment.Service
	Books         *library.Service
	Payments      *payment.Service
	Notifications *notification.Service
	Assistant     *assistant.Service
}

func Setup(app *fiber.App, cfg *config.Config, repos *repository.Repos, svc Services, log *logger.Logger) {
	auth := middleware.NewAuth(cfg, repos.Users)

	app.Get("/health", func(c *fiber.Ctx) error {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "ok", nil)
	})

	authRoutes.SetupAuthRoutes(app, authController.New(svc.Accounts, cfg, log), auth)
	courseRoutes.SetupCourseRoutes(app, courseController.New(svc.Courses, log), auth)
	testRoutes.SetupTestRoutes(app, testController.New(svc.Tests, log), auth)
	libraryRoutes.SetupLibraryRoutes(app, libraryController.New(svc.Books, log), auth)
	paymentRoutes.SetupPaymentRoutes(app, paymentController.New(svc.Payments, log), auth, cfg.PaymentWebhookSecret)
	notificationRoutes.SetupNotificationRoutes(app, notificationController.New(svc.Notifications, log), auth)
	assistantRoutes.SetupAssistantRoutes(app, assistantController.New(svc.Assistant, log), auth)

	app.Use(func(c *fiber.Ctx) error {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Route not found", nil)
	})
}
