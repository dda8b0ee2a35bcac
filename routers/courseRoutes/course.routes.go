package courseRoutes

import (
	"github.com/gofiber/fiber/v2"

	courseController "shams/controllers/course"
	"shams/middleware"
	courseValidator "shams/validators/course"
)

// SetupCourseRoutes registers categories, courses, lessons and enrollments.
func SetupCourseRoutes(app *fiber.App, ctrl *courseController.Controller, auth *middleware.Auth) {
	staff := []fiber.Handler{auth.JWTMiddleware(), middleware.RequireStaff()}

	categoryGroup := app.Group("/categories")
	categoryGroup.Get("/", ctrl.ListCategories)
	categoryGroup.Get("/:slug", ctrl.GetCategory)

	courseGroup := app.Group("/courses")
	courseGroup.Get("/", auth.OptionalJWT(), courseValidator.CourseList(), ctrl.ListCourses)
	courseGroup.Post("/", append(staff, courseValidator.CreateCourse(), ctrl.CreateCourse)...)
	courseGroup.Get("/:id", auth.OptionalJWT(), courseValidator.CourseID(), ctrl.GetCourse)
	courseGroup.Patch("/:id", append(staff, courseValidator.CourseID(), courseValidator.UpdateCourse(), ctrl.UpdateCourse)...)
	courseGroup.Delete("/:id", append(staff, courseValidator.CourseID(), ctrl.DeleteCourse)...)
	courseGroup.Post("/:id/enroll", auth.JWTMiddleware(), courseValidator.CourseID(), ctrl.Enroll)
	courseGroup.Get("/:id/progress", auth.JWTMiddleware(), courseValidator.CourseID(), ctrl.CourseProgress)

	lessonGroup := app.Group("/lessons")
	lessonGroup.Get("/", auth.OptionalJWT(), courseValidator.LessonList(), ctrl.ListLessons)
	lessonGroup.Post("/", append(staff, courseValidator.CreateLesson(), ctrl.CreateLesson)...)
	lessonGroup.Get("/:id", auth.OptionalJWT(), courseValidator.LessonID(), ctrl.GetLesson)
	lessonGroup.Patch("/:id", append(staff, courseValidator.LessonID(), courseValidator.UpdateLesson(), ctrl.UpdateLesson)...)
	lessonGroup.Delete("/:id", append(staff, courseValidator.LessonID(), ctrl.DeleteLesson)...)
	lessonGroup.Post("/:id/update_progress", auth.JWTMiddleware(), courseValidator.LessonID(), courseValidator.UpdateProgress(), ctrl.UpdateProgress)

	app.Get("/enrollments", auth.JWTMiddleware(), ctrl.ListEnrollments)
	app.Get("/dashboard/progress", auth.JWTMiddleware(), ctrl.MyProgress)
}
