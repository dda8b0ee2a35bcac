package libraryRoutes

import (
	"github.com/gofiber/fiber/v2"

	libraryController "shams/controllers/library"
	"shams/middleware"
	libraryValidator "shams/validators/library"
)

func SetupLibraryRoutes(app *fiber.App, ctrl *libraryController.Controller, auth *middleware.Auth) {
	staff := []fiber.Handler{auth.JWTMiddleware(), middleware.RequireStaff()}

	bookGroup := app.Group("/books")
	bookGroup.Get("/", auth.OptionalJWT(), libraryValidator.BookList(), ctrl.ListBooks)
	bookGroup.Post("/", append(staff, libraryValidator.CreateBook(), ctrl.CreateBook)...)
	bookGroup.Get("/mine", auth.JWTMiddleware(), ctrl.MyBooks)
	bookGroup.Get("/:id", auth.OptionalJWT(), libraryValidator.BookID(), ctrl.GetBook)
	bookGroup.Patch("/:id", append(staff, libraryValidator.BookID(), libraryValidator.UpdateBook(), ctrl.UpdateBook)...)
	bookGroup.Delete("/:id", append(staff, libraryValidator.BookID(), ctrl.DeleteBook)...)
	bookGroup.Post("/:id/purchase", auth.JWTMiddleware(), libraryValidator.BookID(), libraryValidator.Purchase(), ctrl.Purchase)
	bookGroup.Post("/:id/download", auth.JWTMiddleware(), libraryValidator.BookID(), ctrl.Download)
}
