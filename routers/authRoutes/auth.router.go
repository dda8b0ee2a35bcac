package authRoutes

import (
	"github.com/gofiber/fiber/v2"

	authController "shams/controllers/auth"
	"shams/middleware"
	authValidator "shams/validators/auth"
)

func SetupAuthRoutes(app *fiber.App, ctrl *authController.Controller, auth *middleware.Auth) {
	authGroup := app.Group("/auth")

	authGroup.Post("/register", authValidator.Register(), ctrl.Register)
	authGroup.Post("/verify-email", authValidator.VerifyEmail(), ctrl.VerifyEmail)
	authGroup.Post("/login", authValidator.Login(), ctrl.Login)
	authGroup.Post("/refresh", authValidator.Refresh(), ctrl.Refresh)
	authGroup.Post("/password-reset", authValidator.PasswordReset(), ctrl.PasswordReset)
	authGroup.Post("/password-reset/confirm", authValidator.PasswordResetConfirm(), ctrl.PasswordResetConfirm)
	authGroup.Post("/change-password", auth.JWTMiddleware(), authValidator.ChangePassword(), ctrl.ChangePassword)

	profileGroup := app.Group("/profile", auth.JWTMiddleware())
	profileGroup.Get("/", ctrl.GetProfile)
	profileGroup.Patch("/", authValidator.UpdateProfile(), ctrl.UpdateProfile)

	activityGroup := app.Group("/activities", auth.JWTMiddleware())
	activityGroup.Get("/", authValidator.ActivityList(), ctrl.Activities)
	activityGroup.Get("/recent", ctrl.RecentActivities)

	app.Get("/dashboard/overview", auth.JWTMiddleware(), ctrl.Dashboard)
}
