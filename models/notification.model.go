package models

import (
	"time"

	"gorm.io/datatypes"
)

type NotificationType string

const (
	NotificationWelcome NotificationType = "welcome"
	NotificationCourse  NotificationType = "course"
	NotificationTest    NotificationType = "test"
	NotificationBook    NotificationType = "book"
	NotificationPayment NotificationType = "payment"
	NotificationSystem  NotificationType = "system"
)

type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"not null;index" json:"user_id"`
	Type      NotificationType `gorm:"type:varchar(10);not null" json:"type"`
	Title     string           `gorm:"type:varchar(255);not null" json:"title"`
	Message   string           `gorm:"type:text" json:"message"`
	IsRead    bool             `gorm:"not null;index" json:"is_read"`
	CreatedAt time.Time        `gorm:"index" json:"created_at"`
}

type OutboxStatus string

const (
	OutboxPending OutboxStatus = "pending"
	OutboxSent    OutboxStatus = "sent"
	OutboxFailed  OutboxStatus = "failed"
)

// OutboxEvent is a queued side effect. It is written in the same
// transaction as the state change that caused it and delivered later by the
// notification worker.
type OutboxEvent struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	UserID       uint             `gorm:"not null;index" json:"user_id"`
	Type         NotificationType `gorm:"type:varchar(10);not null" json:"type"`
	Title        string           `gorm:"type:varchar(255)" json:"title"`
	Message      string           `gorm:"type:text" json:"message"`
	Notify       bool             `gorm:"not null" json:"notify"` // create an in-app Notification
	EmailTo      string           `gorm:"type:varchar(255)" json:"email_to"`
	EmailSubject string           `gorm:"type:varchar(255)" json:"email_subject"`
	EmailBody    string           `gorm:"type:text" json:"email_body"`
	Payload      datatypes.JSON   `json:"payload"`
	Status       OutboxStatus     `gorm:"type:varchar(10);not null;index:idx_outbox_status_available" json:"status"`
	Attempts     int              `gorm:"not null" json:"attempts"`
	LastError    string           `gorm:"type:text" json:"last_error"`
	AvailableAt  time.Time        `gorm:"index:idx_outbox_status_available" json:"available_at"`
	SentAt       *time.Time       `json:"sent_at"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}
