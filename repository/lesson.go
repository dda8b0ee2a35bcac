package repository

import (
	"context"

	"gorm.io/gorm"

	"shams/models"
	"shams/utils/logger"
)

type LessonRepo interface {
	Create(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Lesson, error)
	// List returns lessons ordered by course then order; courseID 0 means all courses.
	List(ctx context.Context, tx *gorm.DB, courseID uint, activeOnly bool) ([]models.Lesson, error)
	ListIDsByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]uint, error)
	CountByCourse(ctx context.Context, tx *gorm.DB, courseID uint) (int64, error)
	Update(ctx context.Context, tx *gorm.DB, id uint, fields map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
}

type lessonRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonRepo(db *gorm.DB, baseLog *logger.Logger) LessonRepo {
	return &lessonRepo{db: db, log: baseLog.With("repo", "LessonRepo")}
}

func (r *lessonRepo) Create(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error {
	return use(r.db, tx).WithContext(ctx).Create(lesson).Error
}

func (r *lessonRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Lesson, error) {
	return findOne[models.Lesson](use(r.db, tx).WithContext(ctx).Where("id = ?", id))
}

func (r *lessonRepo) List(ctx context.Context, tx *gorm.DB, courseID uint, activeOnly bool) ([]models.Lesson, error) {
	q := use(r.db, tx).WithContext(ctx).Model(&models.Lesson{})
	if courseID != 0 {
		q = q.Where("course_id = ?", courseID)
	}
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var out []models.Lesson
	if err := q.Order("course_id ASC, sort_order ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *lessonRepo) ListIDsByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]uint, error) {
	var ids []uint
	err := use(r.db, tx).WithContext(ctx).Model(&models.Lesson{}).
		Where("course_id = ?", courseID).
		Order("sort_order ASC").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *lessonRepo) CountByCourse(ctx context.Context, tx *gorm.DB, courseID uint) (int64, error) {
	var n int64
	err := use(r.db, tx).WithContext(ctx).Model(&models.Lesson{}).Where("course_id = ?", courseID).Count(&n).Error
	return n, err
}

func (r *lessonRepo) Update(ctx context.Context, tx *gorm.DB, id uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return use(r.db, tx).WithContext(ctx).Model(&models.Lesson{}).Where("id = ?", id).Updates(fields).Error
}

func (r *lessonRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	return use(r.db, tx).WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("lesson_id = ?", id).Delete(&models.LessonProgress{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Lesson{}).Error
	})
}
