// Package account covers registration, login support, email verification,
// password reset, profiles and the personal dashboard.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"shams/apperr"
	"shams/config"
	"shams/models"
	"shams/repository"
	"shams/services/activity"
	"shams/services/notification"
	"shams/utils/cache"
	"shams/utils/logger"
	"shams/utils/mailer"
)

const (
	verificationTTL = 24 * time.Hour
	resetTTL        = time.Hour
	dashboardTTL    = 5 * time.Minute
	MinPasswordLen  = 8
)

type Service struct {
	db       *gorm.DB
	repos    *repository.Repos
	notify   *notification.Service
	activity *activity.Recorder
	cache    cache.Cache
	cfg      *config.Config
	now      func() time.Time
	log      *logger.Logger
}

func NewService(repos *repository.Repos, notify *notification.Service, c cache.Cache, cfg *config.Config, baseLog *logger.Logger) *Service {
	return &Service{
		db:       repos.DB,
		repos:    repos,
		notify:   notify,
		activity: activity.NewRecorder(repos.Activities),
		cache:    c,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
		log:      baseLog.With("service", "AccountService"),
	}
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.saltRounds())
	if err != nil {
		return nil, apperr.Internal("hash password", err)
	}
	user := &models.User{
		Username: strings.TrimSpace(in.Username),
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
		Password: string(hash),
		FullName: strings.TrimSpace(in.FullName),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repos.Users.Create(ctx, tx, user); err != nil {
			if repository.IsDuplicate(err) {
				return errDuplicateUser
			}
			return apperr.Internal("create user", err)
		}

		token := &models.EmailVerificationToken{
			UserID:    user.ID,
			Token:     uuid.NewString(),
			ExpiresAt: s.now().Add(verificationTTL),
		}
		if err := s.repos.Tokens.CreateVerification(ctx, tx, token); err != nil {
			return apperr.Internal("create verification token", err)
		}

		link := fmt.Sprintf("%s/verify-email?token=%s", strings.TrimRight(s.cfg.FrontendURL, "/"), token.Token)
		subject, body := mailer.VerificationEmail(displayName(user), link)
		if err := s.notify.Enqueue(ctx, tx, notification.Event{
			UserID:       user.ID,
			Type:         models.NotificationWelcome,
			Title:        "Welcome to Shams Academy",
			Message:      "Your account was created. Please verify your email to get started.",
			Notify:       true,
			EmailTo:      user.Email,
			EmailSubject: subject,
			EmailBody:    body,
		}); err != nil {
			return err
		}
		return nil
	})
	if errors.Is(err, errDuplicateUser) {
		return nil, s.duplicateUserError(ctx, user)
	}
	if err != nil {
		return nil, err
	}
	s.log.Info("User registered", "user_id", user.ID)
	return user, nil
}

var errDuplicateUser = errors.New("duplicate user")

// duplicateUserError figures out which unique field collided. It runs after
// the failed transaction has rolled back.
func (s *Service) duplicateUserError(ctx context.Context, user *models.User) error {
	fields := map[string]string{}
	if u, _ := s.repos.Users.GetByEmail(ctx, nil, user.Email); u != nil {
		fields["email"] = "A user with this email already exists"
	}
	if u, _ := s.repos.Users.GetByUsername(ctx, nil, user.Username); u != nil {
		fields["username"] = "This username is already taken"
	}
	e := apperr.Conflict("User already exists")
	if len(fields) > 0 {
		e.Fields = fields
	}
	return e
}

func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tok, err := s.repos.Tokens.GetValidVerification(ctx, tx, token, s.now())
		if err != nil {
			return apperr.Internal("load verification token", err)
		}
		if tok == nil {
			return apperr.NotFound("Invalid or expired verification token")
		}
		if err := s.repos.Users.Update(ctx, tx, tok.UserID, map[string]interface{}{"is_verified": true}); err != nil {
			return apperr.Internal("verify user", err)
		}
		if err := s.repos.Tokens.DeleteVerificationsForUser(ctx, tx, tok.UserID); err != nil {
			return apperr.Internal("delete verification token", err)
		}
		return nil
	})
}

// Authenticate checks credentials and records the login time.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repos.Users.GetByEmail(ctx, nil, email)
	if err != nil {
		return nil, apperr.Internal("load user", err)
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, apperr.Unauthorized("Invalid email or password")
	}
	if !user.IsVerified {
		return nil, apperr.Unauthorized("Please verify your email before logging in")
	}
	now := s.now()
	if err := s.repos.Users.TouchLastLogin(ctx, nil, user.ID, now); err != nil {
		s.log.Warn("Could not record last login", "user_id", user.ID, "error", err)
	}
	user.LastLogin = &now
	return user, nil
}

func (s *Service) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repos.Users.GetByID(ctx, nil, id)
	if err != nil {
		return nil, apperr.Internal("load user", err)
	}
	if user == nil {
		return nil, apperr.NotFound("User not found")
	}
	return user, nil
}

// RequestPasswordReset succeeds whether or not the email is registered.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.repos.Users.GetByEmail(ctx, nil, email)
	if err != nil {
		return apperr.Internal("load user", err)
	}
	if user == nil {
		s.log.Debug("Password reset for unknown email")
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tok := &models.PasswordResetToken{
			UserID:    user.ID,
			Token:     uuid.NewString(),
			ExpiresAt: s.now().Add(resetTTL),
		}
		if err := s.repos.Tokens.CreateReset(ctx, tx, tok); err != nil {
			return apperr.Internal("create reset token", err)
		}
		link := fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(s.cfg.FrontendURL, "/"), tok.Token)
		subject, body := mailer.PasswordResetEmail(displayName(user), link)
		return s.notify.Enqueue(ctx, tx, notification.Event{
			UserID:       user.ID,
			Type:         models.NotificationSystem,
			EmailTo:      user.Email,
			EmailSubject: subject,
			EmailBody:    body,
		})
	})
}

func (s *Service) ConfirmPasswordReset(ctx context.Context, token, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.saltRounds())
	if err != nil {
		return apperr.Internal("hash password", err)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tok, err := s.repos.Tokens.GetValidReset(ctx, tx, token, s.now())
		if err != nil {
			return apperr.Internal("load reset token", err)
		}
		if tok == nil {
			return apperr.NotFound("Invalid or expired reset token")
		}
		if err := s.repos.Users.Update(ctx, tx, tok.UserID, map[string]interface{}{"password": string(hash)}); err != nil {
			return apperr.Internal("update password", err)
		}
		if err := s.repos.Tokens.DeleteResetsForUser(ctx, tx, tok.UserID); err != nil {
			return apperr.Internal("delete reset token", err)
		}
		return nil
	})
}

func (s *Service) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)) != nil {
		return apperr.ValidationFields("Validation failed!", map[string]string{"old_password": "Current password is incorrect"})
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.saltRounds())
	if err != nil {
		return apperr.Internal("hash password", err)
	}
	if err := s.repos.Users.Update(ctx, nil, userID, map[string]interface{}{"password": string(hash)}); err != nil {
		return apperr.Internal("update password", err)
	}
	return nil
}

type ProfileInput struct {
	FullName  *string
	AvatarURL *string
}

func (s *Service) UpdateProfile(ctx context.Context, userID uint, in ProfileInput) (*models.User, error) {
	fields := map[string]interface{}{}
	if in.FullName != nil {
		fields["full_name"] = strings.TrimSpace(*in.FullName)
	}
	if in.AvatarURL != nil {
		fields["avatar_url"] = strings.TrimSpace(*in.AvatarURL)
	}
	if err := s.repos.Users.Update(ctx, nil, userID, fields); err != nil {
		return nil, apperr.Internal("update profile", err)
	}
	return s.GetUser(ctx, userID)
}

// Activities returns the feed newest first; limit <= 0 returns everything.
func (s *Service) Activities(ctx context.Context, userID uint, limit int) ([]models.UserActivity, error) {
	out, err := s.activity.Recent(ctx, userID, limit)
	if err != nil {
		return nil, apperr.Internal("list activities", err)
	}
	return out, nil
}

func (s *Service) saltRounds() int {
	if s.cfg.SaltRound < bcrypt.MinCost || s.cfg.SaltRound > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}
	return s.cfg.SaltRound
}

func displayName(u *models.User) string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}
