package courseController

import (
	"github.com/gofiber/fiber/v2"

	"shams/middleware"
	"shams/services/course"
	"shams/validators"
	courseValidator "shams/validators/course"
)

func (h *Controller) ListLessons(c *fiber.Ctx) error {
	q := c.Locals("validatedLessonList").(*courseValidator.LessonListQuery)
	out, err := h.courses.ListLessons(c.UserContext(), middleware.IsStaff(c), q.Course)
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lessons fetched successfully!", out)
}

func (h *Controller) GetLesson(c *fiber.Ctx) error {
	out, err := h.courses.GetLesson(c.UserContext(), middleware.UserID(c), middleware.IsStaff(c), validators.ID(c, "lessonID"))
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson fetched successfully!", out)
}

func (h *Controller) CreateLesson(c *fiber.Ctx) error {
	reqData := c.Locals("validatedLesson").(*courseValidator.LessonRequest)
	out, err := h.courses.CreateLesson(c.UserContext(), course.LessonInput{
		CourseID:    reqData.CourseID,
		Title:       reqData.Title,
		VideoURL:    reqData.VideoURL,
		Description: reqData.Description,
		Order:       reqData.Order,
		IsActive:    boolOr(reqData.IsActive, true),
	})
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Lesson created successfully!", out)
}

func (h *Controller) UpdateLesson(c *fiber.Ctx) error {
	reqData := c.Locals("validatedLessonUpdate").(*courseValidator.LessonUpdateRequest)
	out, err := h.courses.UpdateLesson(c.UserContext(), validators.ID(c, "lessonID"), course.LessonUpdate{
		Title:       reqData.Title,
		VideoURL:    reqData.VideoURL,
		Description: reqData.Description,
		Order:       reqData.Order,
		IsActive:    reqData.IsActive,
	})
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson updated successfully!", out)
}

func (h *Controller) DeleteLesson(c *fiber.Ctx) error {
	if err := h.courses.DeleteLesson(c.UserContext(), validators.ID(c, "lessonID")); err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson deleted successfully!", nil)
}

func (h *Controller) UpdateProgress(c *fiber.Ctx) error {
	reqData := c.Locals("validatedProgress").(*courseValidator.ProgressRequest)
	out, err := h.courses.UpdateLessonProgress(c.UserContext(), middleware.UserID(c), validators.ID(c, "lessonID"), course.ProgressInput{
		IsCompleted:  reqData.IsCompleted,
		LastPosition: reqData.LastPosition,
	})
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress updated successfully!", out)
}
