package testValidator

import (
	"github.com/gofiber/fiber/v2"

	"shams/validators"
)

type TestListQuery struct {
	Category  string `query:"category" validate:"omitempty,oneof=ai robotics programming"`
	TimeLimit int    `query:"time_limit" validate:"gte=0"`
	Search    string `query:"search" validate:"max=100"`
}

type TestRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=255"`
	Category    string `json:"category" validate:"required,oneof=ai robotics programming"`
	Description string `json:"description"`
	TimeLimit   int    `json:"time_limit" validate:"required,gte=1"`
	IsActive    *bool  `json:"is_active"`
}

type TestUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=3,max=255"`
	Category    *string `json:"category" validate:"omitempty,oneof=ai robotics programming"`
	Description *string `json:"description"`
	TimeLimit   *int    `json:"time_limit" validate:"omitempty,gte=1"`
	IsActive    *bool   `json:"is_active"`
}

type QuestionRequest struct {
	Text          string `json:"text" validate:"required"`
	OptionA       string `json:"option_a" validate:"required,max=255"`
	OptionB       string `json:"option_b" validate:"required,max=255"`
	OptionC       string `json:"option_c" validate:"required,max=255"`
	OptionD       string `json:"option_d" validate:"required,max=255"`
	CorrectOption string `json:"correct_option" validate:"required,oneof=A B C D a b c d"`
}

type AnswerRequest struct {
	QuestionID     uint   `json:"question_id" validate:"required"`
	SelectedOption string `json:"selected_option" validate:"required"`
}

// SubmitRequest leaves empty-answer and letter checks to the scoring service,
// which reports a repeat attempt first.
type SubmitRequest struct {
	Answers   []AnswerRequest `json:"answers" validate:"dive"`
	TimeSpent int             `json:"time_spent" validate:"gte=0"`
}

func TestID() fiber.Handler {
	return validators.ParamID("id", "testID")
}

func TestList() fiber.Handler {
	return validators.Query[TestListQuery]("validatedTestList")
}

func CreateTest() fiber.Handler {
	return validators.Body[TestRequest]("validatedTest")
}

func UpdateTest() fiber.Handler {
	return validators.Body[TestUpdateRequest]("validatedTestUpdate")
}

func CreateQuestion() fiber.Handler {
	return validators.Body[QuestionRequest]("validatedQuestion")
}

func Submit() fiber.Handler {
	return validators.Body[SubmitRequest]("validatedSubmit")
}
