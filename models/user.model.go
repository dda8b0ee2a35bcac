package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Username   string     `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	Email      string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password   string     `gorm:"not null" json:"-"`
	FullName   string     `gorm:"type:varchar(255)" json:"full_name"`
	AvatarURL  string     `json:"avatar_url"`
	IsVerified bool       `gorm:"not null" json:"is_verified"`
	IsStaff    bool       `gorm:"not null" json:"is_staff"`
	IsOAuth    bool       `gorm:"not null" json:"is_oauth"`
	LastLogin  *time.Time `json:"last_login"`
}

// EmailVerificationToken is consumed (deleted) once the email is verified.
type EmailVerificationToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Token     string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

type PasswordResetToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Token     string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Activity types recorded in the user's feed.
const (
	ActivityCourse  = "course"
	ActivityTest    = "test"
	ActivityBook    = "book"
	ActivityPayment = "payment"
	ActivityAI      = "ai"
)

type UserActivity struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"index;not null" json:"user_id"`
	ActivityType string    `gorm:"type:varchar(50);not null" json:"activity_type"`
	Title        string    `gorm:"type:varchar(255)" json:"title"`
	Description  string    `gorm:"type:text" json:"description"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}
