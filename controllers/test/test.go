package testController

import (
	"github.com/gofiber/fiber/v2"

	"shams/middleware"
	"shams/repository"
	"shams/services/assessment"
	"shams/utils/logger"
	"shams/validators"
	testValidator "shams/validators/test"
)

type Controller struct {
	tests *assessment.Service
	log   *logger.Logger
}

func New(tests *assessment.Service, baseLog *logger.Logger) *Controller {
	return &Controller{tests: tests, log: baseLog.With("controller", "test")}
}

func (h *Controller) ListTests(c *fiber.Ctx) error {
	q := c.Locals("validatedTestList").(*testValidator.TestListQuery)
	out, err := h.tests.ListTests(c.UserContext(), middleware.UserID(c), middleware.IsStaff(c), repository.TestFilter{
		Category:     q.Category,
		MaxTimeLimit: q.TimeLimit,
		Search:       q.Search,
	})
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Tests fetched successfully!", out)
}

func (h *Controller) GetTest(c *fiber.Ctx) error {
	out, err := h.tests.GetTest(c.UserContext(), middleware.UserID(c), middleware.IsStaff(c), validators.ID(c, "testID"))
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Test fetched successfully!", out)
}

func (h *Controller) CreateTest(c *fiber.Ctx) error {
	reqData := c.Locals("validatedTest").(*testValidator.TestRequest)
	active := true
	if reqData.IsActive != nil {
		active = *reqData.IsActive
	}
	out, err := h.tests.CreateTest(c.UserContext(), middleware.UserID(c), assessment.TestInput{
		Title:       reqData.Title,
		Category:    reqData.Category,
		Description: reqData.Description,
		TimeLimit:   reqData.TimeLimit,
		IsActive:    active,
	})
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Test created successfully!", out)
}

func (h *Controller) UpdateTest(c *fiber.Ctx) error {
	reqData := c.Locals("validatedTestUpdate").(*testValidator.TestUpdateRequest)
	out, err := h.tests.UpdateTest(c.UserContext(), validators.ID(c, "testID"), assessment.TestUpdate{
		Title:       reqData.Title,
		Category:    reqData.Category,
		Description: reqData.Description,
		TimeLimit:   reqData.TimeLimit,
		IsActive:    reqData.IsActive,
	})
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Test updated successfully!", out)
}

func (h *Controller) DeleteTest(c *fiber.Ctx) error {
	if err := h.tests.DeleteTest(c.UserContext(), validators.ID(c, "testID")); err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Test deleted successfully!", nil)
}

func (h *Controller) CreateQuestion(c *fiber.Ctx) error {
	reqData := c.Locals("validatedQuestion").(*testValidator.QuestionRequest)
	out, err := h.tests.CreateQuestion(c.UserContext(), assessment.QuestionInput{
		TestID:        validators.ID(c, "testID"),
		Text:          reqData.Text,
		OptionA:       reqData.OptionA,
		OptionB:       reqData.OptionB,
		OptionC:       reqData.OptionC,
		OptionD:       reqData.OptionD,
		CorrectOption: reqData.CorrectOption,
	})
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Question created successfully!", out)
}

func (h *Controller) Submit(c *fiber.Ctx) error {
	reqData := c.Locals("validatedSubmit").(*testValidator.SubmitRequest)
	answers := make([]assessment.Answer, 0, len(reqData.Answers))
	for _, a := range reqData.Answers {
		answers = append(answers, assessment.Answer{QuestionID: a.QuestionID, SelectedOption: a.SelectedOption})
	}
	out, err := h.tests.Submit(c.UserContext(), middleware.UserID(c), validators.ID(c, "testID"), assessment.Submission{
		Answers:   answers,
		TimeSpent: reqData.TimeSpent,
	})
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, out.Message, out)
}

func (h *Controller) GetResult(c *fiber.Ctx) error {
	out, err := h.tests.GetResult(c.UserContext(), middleware.UserID(c), validators.ID(c, "testID"))
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Result fetched successfully!", out)
}

func (h *Controller) ListResults(c *fiber.Ctx) error {
	out, err := h.tests.ListResults(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Results fetched successfully!", out)
}
