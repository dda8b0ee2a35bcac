package models

import (
	"time"

	"gorm.io/datatypes"
)

type PaymentType string

const (
	PaymentTypeCourse PaymentType = "course"
	PaymentTypeBook   PaymentType = "book"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// IsTerminal reports whether no further transition is allowed.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed || s == PaymentStatusCancelled
}

const (
	ProviderPayme = "payme"
	ProviderClick = "click"
	ProviderUzum  = "uzum"
)

type Payment struct {
	ID                    uint          `gorm:"primaryKey" json:"id"`
	UserID                uint          `gorm:"not null;index" json:"user_id"`
	PaymentType           PaymentType   `gorm:"type:varchar(10);not null" json:"payment_type"`
	CourseID              *uint         `gorm:"index" json:"course_id"`
	BookID                *uint         `gorm:"index" json:"book_id"`
	Amount                float64       `gorm:"type:decimal(10,2);not null" json:"amount"`
	Provider              string        `gorm:"type:varchar(10);not null;uniqueIndex:idx_payment_provider_txn" json:"provider"`
	ProviderTransactionID *string       `gorm:"type:varchar(100);uniqueIndex:idx_payment_provider_txn" json:"provider_transaction_id"`
	CheckoutURL           string        `json:"checkout_url"`
	Status                PaymentStatus `gorm:"type:varchar(10);not null;index" json:"status"`
	CompletedAt           *time.Time    `json:"completed_at"`
	CreatedAt             time.Time     `gorm:"index" json:"created_at"`
	UpdatedAt             time.Time     `json:"updated_at"`
}

const (
	PaymentActionInitiate = "initiate"
	PaymentActionVerify   = "verify"
	PaymentActionWebhook  = "webhook"
)

type PaymentLog struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	PaymentID uint           `gorm:"not null;index" json:"payment_id"`
	Action    string         `gorm:"type:varchar(100);not null" json:"action"`
	Data      datatypes.JSON `json:"data"`
	CreatedAt time.Time      `json:"created_at"`
}
