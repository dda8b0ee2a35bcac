package assistantValidator

import (
	"github.com/gofiber/fiber/v2"

	"shams/validators"
)

type ConversationRequest struct {
	Title string `json:"title" validate:"max=255"`
}

type MessageRequest struct {
	Text string `json:"text" validate:"required,max=4000"`
}

func ConversationID() fiber.Handler {
	return validators.ParamID("id", "conversationID")
}

func CreateConversation() fiber.Handler {
	return validators.Body[ConversationRequest]("validatedConversation")
}

func SendMessage() fiber.Handler {
	return validators.Body[MessageRequest]("validatedMessage")
}
