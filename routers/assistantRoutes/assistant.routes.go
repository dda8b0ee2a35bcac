package assistantRoutes

import (
	"github.com/gofiber/fiber/v2"

	assistantController "shams/controllers/assistant"
	"shams/middleware"
	assistantValidator "shams/validators/assistant"
)

func SetupAssistantRoutes(app *fiber.App, ctrl *assistantController.Controller, auth *middleware.Auth) {
	group := app.Group("/assistant", auth.JWTMiddleware())
	group.Get("/quota", ctrl.Quota)
	group.Get("/conversations", ctrl.ListConversations)
	group.Post("/conversations", assistantValidator.CreateConversation(), ctrl.CreateConversation)
	group.Get("/conversations/:id", assistantValidator.ConversationID(), ctrl.GetConversation)
	group.Post("/conversations/:id/messages", assistantValidator.ConversationID(), assistantValidator.SendMessage(), ctrl.SendMessage)
}
