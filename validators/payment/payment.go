package paymentValidator

import (
	"github.com/gofiber/fiber/v2"

	"shams/validators"
)

type InitiateRequest struct {
	PaymentType string `json:"payment_type" validate:"required,oneof=course book"`
	CourseID    uint   `json:"course_id" validate:"required_if=PaymentType course"`
	BookID      uint   `json:"book_id" validate:"required_if=PaymentType book"`
	Provider    string `json:"provider" validate:"required"`
}

type WebhookRequest struct {
	Status                string `json:"status" validate:"required"`
	ProviderTransactionID string `json:"provider_transaction_id" validate:"max=100"`
}

func PaymentID() fiber.Handler {
	return validators.ParamID("id", "paymentID")
}

func Initiate() fiber.Handler {
	return validators.Body[InitiateRequest]("validatedInitiate")
}

func Webhook() fiber.Handler {
	return validators.Body[WebhookRequest]("validatedWebhook")
}
