package courseValidator

import (
	"github.com/gofiber/fiber/v2"

	"shams/validators"
)

type CourseListQuery struct {
	Category string `query:"category" validate:"omitempty,oneof=ai robotics programming"`
	Level    string `query:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	Search   string `query:"search" validate:"max=100"`
}

type CourseRequest struct {
	Title        string  `json:"title" validate:"required,min=3,max=255"`
	Slug         string  `json:"slug" validate:"omitempty,max=255"`
	Description  string  `json:"description"`
	Category     string  `json:"category" validate:"required,oneof=ai robotics programming"`
	Level        string  `json:"level" validate:"required,oneof=beginner intermediate advanced"`
	ThumbnailURL string  `json:"thumbnail_url" validate:"omitempty,url"`
	Price        float64 `json:"price" validate:"gte=0"`
	IsActive     *bool   `json:"is_active"`
}

type CourseUpdateRequest struct {
	Title        *string  `json:"title" validate:"omitempty,min=3,max=255"`
	Slug         *string  `json:"slug" validate:"omitempty,min=1,max=255"`
	Description  *string  `json:"description"`
	Category     *string  `json:"category" validate:"omitempty,oneof=ai robotics programming"`
	Level        *string  `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	ThumbnailURL *string  `json:"thumbnail_url" validate:"omitempty,url"`
	Price        *float64 `json:"price" validate:"omitempty,gte=0"`
	IsActive     *bool    `json:"is_active"`
}

type LessonListQuery struct {
	Course uint `query:"course"`
}

type LessonRequest struct {
	CourseID    uint   `json:"course_id" validate:"required"`
	Title       string `json:"title" validate:"required,max=255"`
	VideoURL    string `json:"video_url" validate:"omitempty,url"`
	Description string `json:"description"`
	Order       int    `json:"order" validate:"gte=0"`
	IsActive    *bool  `json:"is_active"`
}

type LessonUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=255"`
	VideoURL    *string `json:"video_url" validate:"omitempty,url"`
	Description *string `json:"description"`
	Order       *int    `json:"order" validate:"omitempty,gte=0"`
	IsActive    *bool   `json:"is_active"`
}

type ProgressRequest struct {
	IsCompleted  *bool `json:"is_completed"`
	LastPosition *int  `json:"last_position" validate:"omitempty,gte=0"`
}

func CourseID() fiber.Handler {
	return validators.ParamID("id", "courseID")
}

func LessonID() fiber.Handler {
	return validators.ParamID("id", "lessonID")
}

func CourseList() fiber.Handler {
	return validators.Query[CourseListQuery]("validatedCourseList")
}

func CreateCourse() fiber.Handler {
	return validators.Body[CourseRequest]("validatedCourse")
}

func UpdateCourse() fiber.Handler {
	return validators.Body[CourseUpdateRequest]("validatedCourseUpdate")
}

func LessonList() fiber.Handler {
	return validators.Query[LessonListQuery]("validatedLessonList")
}

func CreateLesson() fiber.Handler {
	return validators.Body[LessonRequest]("validatedLesson")
}

func UpdateLesson() fiber.Handler {
	return validators.Body[LessonUpdateRequest]("validatedLessonUpdate")
}

func UpdateProgress() fiber.Handler {
	return validators.Body[ProgressRequest]("validatedProgress")
}
