package courseController

import (
	"github.com/gofiber/fiber/v2"

	"shams/middleware"
	"shams/repository"
	"shams/services/course"
	"shams/utils/logger"
	"shams/validators"
	courseValidator "shams/validators/course"
)

type Controller struct {
	courses *course.Service
	log     *logger.Logger
}

func New(courses *course.Service, baseLog *logger.Logger) *Controller {
	return &Controller{courses: courses, log: baseLog.With("controller", "course")}
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

func (h *Controller) ListCategories(c *fiber.Ctx) error {
	out, err := h.courses.ListCategories(c.UserContext())
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Categories fetched successfully!", out)
}

func (h *Controller) GetCategory(c *fiber.Ctx) error {
	out, err := h.courses.GetCategory(c.UserContext(), c.Params("slug"))
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Category fetched successfully!", out)
}

func (h *Controller) ListCourses(c *fiber.Ctx) error {
	q := c.Locals("validatedCourseList").(*courseValidator.CourseListQuery)
	out, err := h.courses.ListCourses(c.UserContext(), middleware.UserID(c), middleware.IsStaff(c), repository.CourseFilter{
		Category: q.Category,
		Level:    q.Level,
		Search:   q.Search,
	})
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully!", out)
}

func (h *Controller) GetCourse(c *fiber.Ctx) error {
	out, err := h.courses.GetCourse(c.UserContext(), middleware.UserID(c), middleware.IsStaff(c), validators.ID(c, "courseID"))
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course fetched successfully!", out)
}

func (h *Controller) CreateCourse(c *fiber.Ctx) error {
	reqData := c.Locals("validatedCourse").(*courseValidator.CourseRequest)
	out, err := h.courses.CreateCourse(c.UserContext(), middleware.UserID(c), course.CourseInput{
		Title:        reqData.Title,
		Slug:         reqData.Slug,
		Description:  reqData.Description,
		Category:     reqData.Category,
		Level:        reqData.Level,
		ThumbnailURL: reqData.ThumbnailURL,
		Price:        reqData.Price,
		IsActive:     boolOr(reqData.IsActive, true),
	})
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Course created successfully!", out)
}

func (h *Controller) UpdateCourse(c *fiber.Ctx) error {
	reqData := c.Locals("validatedCourseUpdate").(*courseValidator.CourseUpdateRequest)
	out, err := h.courses.UpdateCourse(c.UserContext(), validators.ID(c, "courseID"), course.CourseUpdate{
		Title:        reqData.Title,
		Slug:         reqData.Slug,
		Description:  reqData.Description,
		Category:     reqData.Category,
		Level:        reqData.Level,
		ThumbnailURL: reqData.ThumbnailURL,
		Price:        reqData.Price,
		IsActive:     reqData.IsActive,
	})
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course updated successfully!", out)
}

func (h *Controller) DeleteCourse(c *fiber.Ctx) error {
	if err := h.courses.DeleteCourse(c.UserContext(), validators.ID(c, "courseID")); err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course deleted successfully!", nil)
}

func (h *Controller) Enroll(c *fiber.Ctx) error {
	out, err := h.courses.Enroll(c.UserContext(), middleware.UserID(c), validators.ID(c, "courseID"))
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Enrolled in course successfully!", out)
}

func (h *Controller) CourseProgress(c *fiber.Ctx) error {
	out, err := h.courses.CourseProgress(c.UserContext(), middleware.UserID(c), validators.ID(c, "courseID"))
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress fetched successfully!", out)
}

func (h *Controller) ListEnrollments(c *fiber.Ctx) error {
	out, err := h.courses.ListEnrollments(c.UserContext(), middleware.UserID(c), middleware.IsStaff(c))
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!", out)
}

// MyProgress lists only the caller's enrollments, even for staff.
func (h *Controller) MyProgress(c *fiber.Ctx) error {
	out, err := h.courses.ListEnrollments(c.UserContext(), middleware.UserID(c), false)
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress fetched successfully!", out)
}
