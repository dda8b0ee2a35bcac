package models

import "time"

// Enrollment links a user to a course. Progress is derived from the
// enrollment's LessonProgress rows and is never written by clients.
type Enrollment struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"not null;uniqueIndex:idx_enrollment_user_course" json:"user_id"`
	CourseID    uint       `gorm:"not null;uniqueIndex:idx_enrollment_user_course;index" json:"course_id"`
	Progress    int        `gorm:"not null" json:"progress"` // 0-100
	EnrolledAt  time.Time  `json:"enrolled_at"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type LessonProgress struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	EnrollmentID uint      `gorm:"not null;uniqueIndex:idx_progress_enrollment_lesson" json:"enrollment_id"`
	LessonID     uint      `gorm:"not null;uniqueIndex:idx_progress_enrollment_lesson;index" json:"lesson_id"`
	IsCompleted  bool      `gorm:"not null" json:"is_completed"`
	LastPosition int       `gorm:"not null" json:"last_position"` // seconds into the video
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (LessonProgress) TableName() string {
	return "lesson_progress"
}
