package authValidator

import (
	"github.com/gofiber/fiber/v2"

	"shams/validators"
)

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=150,alphanum"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"max=255"`
}

type VerifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type PasswordResetConfirmRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

type ProfileUpdateRequest struct {
	FullName  *string `json:"full_name" validate:"omitempty,max=255"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url"`
}

type ActivityQuery struct {
	Limit int `query:"limit" validate:"gte=0,lte=100"`
}

func Register() fiber.Handler {
	return validators.Body[RegisterRequest]("validatedRegister")
}

func VerifyEmail() fiber.Handler {
	return validators.Body[VerifyEmailRequest]("validatedVerifyEmail")
}

func Login() fiber.Handler {
	return validators.Body[LoginRequest]("validatedLogin")
}

func Refresh() fiber.Handler {
	return validators.Body[RefreshRequest]("validatedRefresh")
}

func PasswordReset() fiber.Handler {
	return validators.Body[PasswordResetRequest]("validatedPasswordReset")
}

func PasswordResetConfirm() fiber.Handler {
	return validators.Body[PasswordResetConfirmRequest]("validatedPasswordResetConfirm")
}

func ChangePassword() fiber.Handler {
	return validators.Body[ChangePasswordRequest]("validatedChangePassword")
}

func UpdateProfile() fiber.Handler {
	return validators.Body[ProfileUpdateRequest]("validatedProfile")
}

func ActivityList() fiber.Handler {
	return validators.Query[ActivityQuery]("validatedActivityQuery")
}
