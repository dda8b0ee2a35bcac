package models

import "time"

// Course categories shared by courses, tests and books.
const (
	CategoryAI          = "ai"
	CategoryRobotics    = "robotics"
	CategoryProgramming = "programming"
)

const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(100);not null" json:"name"`
	Slug        string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	Icon        string    `gorm:"type:varchar(50)" json:"icon"`
	Order       int       `gorm:"column:sort_order;not null" json:"order"`
	IsActive    bool      `gorm:"not null" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Course struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Title        string    `gorm:"type:varchar(255);not null" json:"title"`
	Slug         string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	Description  string    `gorm:"type:text" json:"description"`
	Category     string    `gorm:"type:varchar(20);index" json:"category"`
	Level        string    `gorm:"type:varchar(20)" json:"level"`
	ThumbnailURL string    `json:"thumbnail_url"`
	Price        float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	CreatedByID  uint      `gorm:"index" json:"created_by_id"`
	IsActive     bool      `gorm:"not null" json:"is_active"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Lesson order is unique inside its course.
type Lesson struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CourseID    uint      `gorm:"not null;uniqueIndex:idx_lesson_course_order" json:"course_id"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	VideoURL    string    `json:"video_url"`
	Description string    `gorm:"type:text" json:"description"`
	Order       int       `gorm:"column:sort_order;not null;uniqueIndex:idx_lesson_course_order" json:"order"`
	IsActive    bool      `gorm:"not null" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
