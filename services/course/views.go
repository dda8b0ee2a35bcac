package course

import (
	"time"

	"shams/models"
)

type CourseView struct {
	ID           uint      `json:"id"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	Level        string    `json:"level"`
	ThumbnailURL string    `json:"thumbnail_url"`
	Price        float64   `json:"price"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	IsEnrolled   bool      `json:"is_enrolled"`
	Progress     int       `json:"progress"`
}

type CourseDetail struct {
	CourseView
	IsCompleted bool         `json:"is_completed"`
	Lessons     []LessonView `json:"lessons"`
}

type LessonView struct {
	ID           uint   `json:"id"`
	CourseID     uint   `json:"course_id"`
	Title        string `json:"title"`
	VideoURL     string `json:"video_url"`
	Description  string `json:"description"`
	Order        int    `json:"order"`
	IsActive     bool   `json:"is_active"`
	IsCompleted  bool   `json:"is_completed"`
	LastPosition int    `json:"last_position"`
}

type EnrollmentView struct {
	ID          uint       `json:"id"`
	UserID      uint       `json:"user_id"`
	CourseID    uint       `json:"course_id"`
	CourseTitle string     `json:"course_title"`
	Progress    int        `json:"progress"`
	EnrolledAt  time.Time  `json:"enrolled_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

type ProgressView struct {
	LessonID       uint `json:"lesson_id"`
	IsCompleted    bool `json:"is_completed"`
	LastPosition   int  `json:"last_position"`
	CourseProgress int  `json:"course_progress"`
}

func toCourseView(c models.Course, e *models.Enrollment) CourseView {
	v := CourseView{
		ID:           c.ID,
		Title:        c.Title,
		Slug:         c.Slug,
		Description:  c.Description,
		Category:     c.Category,
		Level:        c.Level,
		ThumbnailURL: c.ThumbnailURL,
		Price:        c.Price,
		IsActive:     c.IsActive,
		CreatedAt:    c.CreatedAt,
	}
	if e != nil {
		v.IsEnrolled = true
		v.Progress = e.Progress
	}
	return v
}

func toLessonView(l models.Lesson, p *models.LessonProgress) LessonView {
	v := LessonView{
		ID:          l.ID,
		CourseID:    l.CourseID,
		Title:       l.Title,
		VideoURL:    l.VideoURL,
		Description: l.Description,
		Order:       l.Order,
		IsActive:    l.IsActive,
	}
	if p != nil {
		v.IsCompleted = p.IsCompleted
		v.LastPosition = p.LastPosition
	}
	return v
}

func toEnrollmentView(e models.Enrollment, title string) EnrollmentView {
	return EnrollmentView{
		ID:          e.ID,
		UserID:      e.UserID,
		CourseID:    e.CourseID,
		CourseTitle: title,
		Progress:    e.Progress,
		EnrolledAt:  e.EnrolledAt,
		CompletedAt: e.CompletedAt,
	}
}
