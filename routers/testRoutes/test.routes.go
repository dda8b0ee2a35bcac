package testRoutes

import (
	"github.com/gofiber/fiber/v2"

	testController "shams/controllers/test"
	"shams/middleware"
	testValidator "shams/validators/test"
)

func SetupTestRoutes(app *fiber.App, ctrl *testController.Controller, auth *middleware.Auth) {
	staff := []fiber.Handler{auth.JWTMiddleware(), middleware.RequireStaff()}

	testGroup := app.Group("/tests")
	testGroup.Get("/", auth.OptionalJWT(), testValidator.TestList(), ctrl.ListTests)
	testGroup.Post("/", append(staff, testValidator.CreateTest(), ctrl.CreateTest)...)
	testGroup.Get("/results", auth.JWTMiddleware(), ctrl.ListResults)
	testGroup.Get("/:id", auth.OptionalJWT(), testValidator.TestID(), ctrl.GetTest)
	testGroup.Patch("/:id", append(staff, testValidator.TestID(), testValidator.UpdateTest(), ctrl.UpdateTest)...)
	testGroup.Delete("/:id", append(staff, testValidator.TestID(), ctrl.DeleteTest)...)
	testGroup.Post("/:id/questions", append(staff, testValidator.TestID(), testValidator.CreateQuestion(), ctrl.CreateQuestion)...)
	testGroup.Post("/:id/submit", auth.JWTMiddleware(), testValidator.TestID(), testValidator.Submit(), ctrl.Submit)
	testGroup.Get("/:id/results", auth.JWTMiddleware(), testValidator.TestID(), ctrl.GetResult)
}
