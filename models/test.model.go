package models

import "time"

type Test struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	Category    string    `gorm:"type:varchar(20);index" json:"category"`
	Description string    `gorm:"type:text" json:"description"`
	TimeLimit   int       `gorm:"not null" json:"time_limit"` // minutes
	CreatedByID uint      `gorm:"index" json:"created_by_id"`
	IsActive    bool      `gorm:"not null" json:"is_active"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Option letters of a question.
const (
	OptionA = "A"
	OptionB = "B"
	OptionC = "C"
	OptionD = "D"
)

// Question keeps its four options inline; CorrectOption holds the letter.
type Question struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	TestID        uint      `gorm:"not null;index" json:"test_id"`
	Text          string    `gorm:"type:text;not null" json:"text"`
	OptionA       string    `gorm:"type:varchar(255);not null" json:"option_a"`
	OptionB       string    `gorm:"type:varchar(255);not null" json:"option_b"`
	OptionC       string    `gorm:"type:varchar(255);not null" json:"option_c"`
	OptionD       string    `gorm:"type:varchar(255);not null" json:"option_d"`
	CorrectOption string    `gorm:"type:varchar(1);not null" json:"correct_option"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TestResult allows exactly one attempt per (user, test).
type TestResult struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uint      `gorm:"not null;uniqueIndex:idx_result_user_test" json:"user_id"`
	TestID           uint      `gorm:"not null;uniqueIndex:idx_result_user_test;index" json:"test_id"`
	Score            int       `gorm:"not null" json:"score"` // percentage
	CorrectAnswers   int       `gorm:"not null" json:"correct_answers"`
	IncorrectAnswers int       `gorm:"not null" json:"incorrect_answers"`
	TimeSpent        int       `gorm:"not null" json:"time_spent"` // seconds
	Feedback         string    `gorm:"type:text" json:"feedback"`
	CompletedAt      time.Time `gorm:"index" json:"completed_at"`
}

type UserAnswer struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ResultID       uint      `gorm:"not null;uniqueIndex:idx_answer_result_question" json:"result_id"`
	QuestionID     uint      `gorm:"not null;uniqueIndex:idx_answer_result_question" json:"question_id"`
	SelectedOption string    `gorm:"type:varchar(1);not null" json:"selected_option"`
	IsCorrect      bool      `gorm:"not null" json:"is_correct"`
	CreatedAt      time.Time `json:"created_at"`
}
