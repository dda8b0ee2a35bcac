package repository

import (
	"context"

	"gorm.io/gorm"

	"shams/models"
	"shams/utils/logger"
)

type CategoryRepo interface {
	Create(ctx context.Context, tx *gorm.DB, category *models.Category) error
	ListActive(ctx context.Context, tx *gorm.DB) ([]models.Category, error)
	GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*models.Category, error)
}

type categoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCategoryRepo(db *gorm.DB, baseLog *logger.Logger) CategoryRepo {
	return &categoryRepo{db: db, log: baseLog.With("repo", "CategoryRepo")}
}

func (r *categoryRepo) Create(ctx context.Context, tx *gorm.DB, category *models.Category) error {
	return use(r.db, tx).WithContext(ctx).Create(category).Error
}

func (r *categoryRepo) ListActive(ctx context.Context, tx *gorm.DB) ([]models.Category, error) {
	var out []models.Category
	err := use(r.db, tx).WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_order ASC, name ASC").
		Find(&out).Error
	return out, err
}

func (r *categoryRepo) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*models.Category, error) {
	return findOne[models.Category](use(r.db, tx).WithContext(ctx).Where("slug = ? AND is_active = ?", slug, true))
}
