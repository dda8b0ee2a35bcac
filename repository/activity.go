package repository

import (
	"context"

	"gorm.io/gorm"

	"shams/models"
	"shams/utils/logger"
)

type ActivityRepo interface {
	Create(ctx context.Context, tx *gorm.DB, activity *models.UserActivity) error
	ListByUser(ctx context.Context, tx *gorm.DB, userID uint, limit int) ([]models.UserActivity, error)
}

type activityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActivityRepo(db *gorm.DB, baseLog *logger.Logger) ActivityRepo {
	return &activityRepo{db: db, log: baseLog.With("repo", "ActivityRepo")}
}

func (r *activityRepo) Create(ctx context.Context, tx *gorm.DB, activity *models.UserActivity) error {
	return use(r.db, tx).WithContext(ctx).Create(activity).Error
}

// ListByUser returns newest first; limit <= 0 means no limit.
func (r *activityRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uint, limit int) ([]models.UserActivity, error) {
	var out []models.UserActivity
	q := use(r.db, tx).WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
