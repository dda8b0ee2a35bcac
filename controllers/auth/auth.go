package authController

import (
	"github.com/gofiber/fiber/v2"

	"shams/config"
	"shams/middleware"
	"shams/models"
	"shams/services/account"
	"shams/utils/logger"
	authValidator "shams/validators/auth"
)

type Controller struct {
	accounts *account.Service
	cfg      *config.Config
	log      *logger.Logger
}

func New(accounts *account.Service, cfg *config.Config, baseLog *logger.Logger) *Controller {
	return &Controller{accounts: accounts, cfg: cfg, log: baseLog.With("controller", "auth")}
}

type tokenResponse struct {
	Access  string       `json:"access"`
	Refresh string       `json:"refresh,omitempty"`
	User    *models.User `json:"user,omitempty"`
}

func (h *Controller) Register(c *fiber.Ctx) error {
	reqData := c.Locals("validatedRegister").(*authValidator.RegisterRequest)
	user, err := h.accounts.Register(c.UserContext(), account.RegisterInput{
		Username: reqData.Username,
		Email:    reqData.Email,
		Password: reqData.Password,
		FullName: reqData.FullName,
	})
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Registered successfully! Please verify your email.", user)
}

func (h *Controller) VerifyEmail(c *fiber.Ctx) error {
	reqData := c.Locals("validatedVerifyEmail").(*authValidator.VerifyEmailRequest)
	if err := h.accounts.VerifyEmail(c.UserContext(), reqData.Token); err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Email verified successfully!", nil)
}

func (h *Controller) Login(c *fiber.Ctx) error {
	reqData := c.Locals("validatedLogin").(*authValidator.LoginRequest)
	user, err := h.accounts.Authenticate(c.UserContext(), reqData.Email, reqData.Password)
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	access, refresh, err := middleware.GenerateTokenPair(h.cfg, user)
	if err != nil {
		h.log.Error("Failed to sign tokens", "user_id", user.ID, "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to generate token!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Login successful!", tokenResponse{Access: access, Refresh: refresh, User: user})
}

func (h *Controller) Refresh(c *fiber.Ctx) error {
	reqData := c.Locals("validatedRefresh").(*authValidator.RefreshRequest)
	userID, err := middleware.ParseJWT(h.cfg, reqData.RefreshToken, middleware.TokenTypeRefresh)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid or expired refresh token", nil)
	}
	user, err := h.accounts.GetUser(c.UserContext(), userID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found", nil)
	}
	access, err := middleware.GenerateJWT(h.cfg, user, middleware.TokenTypeAccess)
	if err != nil {
		h.log.Error("Failed to sign token", "user_id", user.ID, "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to generate token!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Token refreshed!", tokenResponse{Access: access})
}

func (h *Controller) PasswordReset(c *fiber.Ctx) error {
	reqData := c.Locals("validatedPasswordReset").(*authValidator.PasswordResetRequest)
	if err := h.accounts.RequestPasswordReset(c.UserContext(), reqData.Email); err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "If the email is registered, a reset link has been sent.", nil)
}

func (h *Controller) PasswordResetConfirm(c *fiber.Ctx) error {
	reqData := c.Locals("validatedPasswordResetConfirm").(*authValidator.PasswordResetConfirmRequest)
	if err := h.accounts.ConfirmPasswordReset(c.UserContext(), reqData.Token, reqData.Password); err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Password has been reset!", nil)
}

func (h *Controller) ChangePassword(c *fiber.Ctx) error {
	reqData := c.Locals("validatedChangePassword").(*authValidator.ChangePasswordRequest)
	if err := h.accounts.ChangePassword(c.UserContext(), middleware.UserID(c), reqData.OldPassword, reqData.NewPassword); err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Password changed successfully!", nil)
}
