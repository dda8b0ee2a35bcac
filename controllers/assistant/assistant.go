package assistantController

import (
	"github.com/gofiber/fiber/v2"

	"shams/middleware"
	"shams/services/assistant"
	"shams/utils/logger"
	"shams/validators"
	assistantValidator "shams/validators/assistant"
)

type Controller struct {
	assistant *assistant.Service
	log       *logger.Logger
}

func New(a *assistant.Service, baseLog *logger.Logger) *Controller {
	return &Controller{assistant: a, log: baseLog.With("controller", "assistant")}
}

func (h *Controller) ListConversations(c *fiber.Ctx) error {
	out, err := h.assistant.ListConversations(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Conversations fetched successfully!", out)
}

func (h *Controller) CreateConversation(c *fiber.Ctx) error {
	reqData := c.Locals("validatedConversation").(*assistantValidator.ConversationRequest)
	out, err := h.assistant.CreateConversation(c.UserContext(), middleware.UserID(c), reqData.Title)
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Conversation created successfully!", out)
}

func (h *Controller) GetConversation(c *fiber.Ctx) error {
	out, err := h.assistant.GetConversation(c.UserContext(), middleware.UserID(c), validators.ID(c, "conversationID"))
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Conversation fetched successfully!", out)
}

func (h *Controller) SendMessage(c *fiber.Ctx) error {
	reqData := c.Locals("validatedMessage").(*assistantValidator.MessageRequest)
	out, err := h.assistant.SendMessage(c.UserContext(), middleware.UserID(c), validators.ID(c, "conversationID"), reqData.Text)
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Message sent", out)
}

func (h *Controller) Quota(c *fiber.Ctx) error {
	out, err := h.assistant.QuotaToday(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quota fetched successfully!", out)
}
