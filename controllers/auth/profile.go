package authController

import (
	"github.com/gofiber/fiber/v2"

	"shams/middleware"
	"shams/services/account"
	authValidator "shams/validators/auth"
)

func (h *Controller) GetProfile(c *fiber.Ctx) error {
	user, err := h.accounts.GetUser(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Profile fetched successfully!", user)
}

func (h *Controller) UpdateProfile(c *fiber.Ctx) error {
	reqData := c.Locals("validatedProfile").(*authValidator.ProfileUpdateRequest)
	user, err := h.accounts.UpdateProfile(c.UserContext(), middleware.UserID(c), account.ProfileInput{
		FullName:  reqData.FullName,
		AvatarURL: reqData.AvatarURL,
	})
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Profile updated successfully!", user)
}

func (h *Controller) Activities(c *fiber.Ctx) error {
	reqData := c.Locals("validatedActivityQuery").(*authValidator.ActivityQuery)
	out, err := h.accounts.Activities(c.UserContext(), middleware.UserID(c), reqData.Limit)
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Activities fetched successfully!", out)
}

func (h *Controller) RecentActivities(c *fiber.Ctx) error {
	out, err := h.accounts.Activities(c.UserContext(), middleware.UserID(c), 5)
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Recent activities fetched successfully!", out)
}

func (h *Controller) Dashboard(c *fiber.Ctx) error {
	out, err := h.accounts.Dashboard(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Dashboard fetched successfully!", out)
}
