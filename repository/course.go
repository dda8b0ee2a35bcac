package repository

import (
	"context"

	"gorm.io/gorm"

	"shams/models"
	"shams/utils/logger"
)

type CourseFilter struct {
	Category   string
	Level      string
	Search     string
	ActiveOnly bool
}

type CourseRepo interface {
	Create(ctx context.Context, tx *gorm.DB, course *models.Course) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error)
	List(ctx context.Context, tx *gorm.DB, filter CourseFilter) ([]models.Course, error)
	Update(ctx context.Context, tx *gorm.DB, id uint, fields map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
}

type courseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	return &courseRepo{db: db, log: baseLog.With("repo", "CourseRepo")}
}

func (r *courseRepo) Create(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	return use(r.db, tx).WithContext(ctx).Create(course).Error
}

func (r *courseRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	return findOne[models.Course](use(r.db, tx).WithContext(ctx).Where("id = ?", id))
}

func (r *courseRepo) List(ctx context.Context, tx *gorm.DB, filter CourseFilter) ([]models.Course, error) {
	q := use(r.db, tx).WithContext(ctx).Model(&models.Course{})
	if filter.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Level != "" {
		q = q.Where("level = ?", filter.Level)
	}
	if filter.Search != "" {
		p := likePattern(filter.Search)
		q = q.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", p, p)
	}
	var out []models.Course
	if err := q.Order("created_at DESC, id DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *courseRepo) Update(ctx context.Context, tx *gorm.DB, id uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return use(r.db, tx).WithContext(ctx).Model(&models.Course{}).Where("id = ?", id).Updates(fields).Error
}

// Delete removes the course together with its lessons, enrollments and
// lesson progress rows.
func (r *courseRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	return use(r.db, tx).WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		enrollments := tx.Model(&models.Enrollment{}).Select("id").Where("course_id = ?", id)
		if err := tx.Where("enrollment_id IN (?)", enrollments).Delete(&models.LessonProgress{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", id).Delete(&models.Enrollment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", id).Delete(&models.Lesson{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Course{}).Error
	})
}
