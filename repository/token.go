package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"shams/models"
	"shams/utils/logger"
)

// TokenRepo stores single-use email verification and password reset tokens.
type TokenRepo interface {
	CreateVerification(ctx context.Context, tx *gorm.DB, tok *models.EmailVerificationToken) error
	GetValidVerification(ctx context.Context, tx *gorm.DB, token string, now time.Time) (*models.EmailVerificationToken, error)
	DeleteVerificationsForUser(ctx context.Context, tx *gorm.DB, userID uint) error
	CreateReset(ctx context.Context, tx *gorm.DB, tok *models.PasswordResetToken) error
	GetValidReset(ctx context.Context, tx *gorm.DB, token string, now time.Time) (*models.PasswordResetToken, error)
	DeleteResetsForUser(ctx context.Context, tx *gorm.DB, userID uint) error
}

type tokenRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTokenRepo(db *gorm.DB, baseLog *logger.Logger) TokenRepo {
	return &tokenRepo{db: db, log: baseLog.With("repo", "TokenRepo")}
}

func (r *tokenRepo) CreateVerification(ctx context.Context, tx *gorm.DB, tok *models.EmailVerificationToken) error {
	return use(r.db, tx).WithContext(ctx).Create(tok).Error
}

func (r *tokenRepo) GetValidVerification(ctx context.Context, tx *gorm.DB, token string, now time.Time) (*models.EmailVerificationToken, error) {
	return findOne[models.EmailVerificationToken](use(r.db, tx).WithContext(ctx).
		Where("token = ? AND expires_at > ?", token, now))
}

func (r *tokenRepo) DeleteVerificationsForUser(ctx context.Context, tx *gorm.DB, userID uint) error {
	return use(r.db, tx).WithContext(ctx).Where("user_id = ?", userID).Delete(&models.EmailVerificationToken{}).Error
}

func (r *tokenRepo) CreateReset(ctx context.Context, tx *gorm.DB, tok *models.PasswordResetToken) error {
	return use(r.db, tx).WithContext(ctx).Create(tok).Error
}

func (r *tokenRepo) GetValidReset(ctx context.Context, tx *gorm.DB, token string, now time.Time) (*models.PasswordResetToken, error) {
	return findOne[models.PasswordResetToken](use(r.db, tx).WithContext(ctx).
		Where("token = ? AND expires_at > ?", token, now))
}

func (r *tokenRepo) DeleteResetsForUser(ctx context.Context, tx *gorm.DB, userID uint) error {
	return use(r.db, tx).WithContext(ctx).Where("user_id = ?", userID).Delete(&models.PasswordResetToken{}).Error
}
