package notificationController

import (
	"github.com/gofiber/fiber/v2"

	"shams/middleware"
	"shams/services/notification"
	"shams/utils/logger"
	"shams/validators"
)

type Controller struct {
	notifications *notification.Service
	log           *logger.Logger
}

func New(notifications *notification.Service, baseLog *logger.Logger) *Controller {
	return &Controller{notifications: notifications, log: baseLog.With("controller", "notification")}
}

func (h *Controller) List(c *fiber.Ctx) error {
	out, err := h.notifications.List(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Notifications fetched successfully!", out)
}

func (h *Controller) MarkRead(c *fiber.Ctx) error {
	if err := h.notifications.MarkRead(c.UserContext(), middleware.UserID(c), validators.ID(c, "notificationID")); err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Notification marked as read", nil)
}

func (h *Controller) MarkAllRead(c *fiber.Ctx) error {
	n, err := h.notifications.MarkAllRead(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "All notifications marked as read", fiber.Map{"updated": n})
}

func (h *Controller) UnreadCount(c *fiber.Ctx) error {
	n, err := h.notifications.UnreadCount(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Unread count fetched successfully!", fiber.Map{"count": n})
}
