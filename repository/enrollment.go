package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shams/models"
	"shams/utils/logger"
)

type EnrollmentRepo interface {
	// Create fails with a duplicate-key error when (user, course) exists.
	Create(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error
	// CreateIfAbsent reports whether a new row was inserted.
	CreateIfAbsent(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) (bool, error)
	GetByUserCourse(ctx context.Context, tx *gorm.DB, userID, courseID uint) (*models.Enrollment, error)
	// MapByUser returns the user's enrollments keyed by course id.
	MapByUser(ctx context.Context, tx *gorm.DB, userID uint, courseIDs []uint) (map[uint]models.Enrollment, error)
	// List returns all enrollments when userID is 0.
	List(ctx context.Context, tx *gorm.DB, userID uint) ([]models.Enrollment, error)
	ListByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]models.Enrollment, error)
	SetProgress(ctx context.Context, tx *gorm.DB, id uint, progress int, completedAt *time.Time) error
	CountByUser(ctx context.Context, tx *gorm.DB, userID uint) (total int64, completed int64, err error)
}

type enrollmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	return &enrollmentRepo{db: db, log: baseLog.With("repo", "EnrollmentRepo")}
}

func (r *enrollmentRepo) Create(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error {
	return use(r.db, tx).WithContext(ctx).Create(enrollment).Error
}

func (r *enrollmentRepo) CreateIfAbsent(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) (bool, error) {
	res := use(r.db, tx).WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(enrollment)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *enrollmentRepo) GetByUserCourse(ctx context.Context, tx *gorm.DB, userID, courseID uint) (*models.Enrollment, error) {
	if userID == 0 {
		return nil, nil
	}
	return findOne[models.Enrollment](use(r.db, tx).WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID))
}

func (r *enrollmentRepo) MapByUser(ctx context.Context, tx *gorm.DB, userID uint, courseIDs []uint) (map[uint]models.Enrollment, error) {
	out := make(map[uint]models.Enrollment)
	if userID == 0 || len(courseIDs) == 0 {
		return out, nil
	}
	var rows []models.Enrollment
	if err := use(r.db, tx).WithContext(ctx).
		Where("user_id = ? AND course_id IN ?", userID, courseIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, e := range rows {
		out[e.CourseID] = e
	}
	return out, nil
}

func (r *enrollmentRepo) List(ctx context.Context, tx *gorm.DB, userID uint) ([]models.Enrollment, error) {
	q := use(r.db, tx).WithContext(ctx).Model(&models.Enrollment{})
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	var out []models.Enrollment
	if err := q.Order("enrolled_at DESC, id DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *enrollmentRepo) ListByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]models.Enrollment, error) {
	var out []models.Enrollment
	err := use(r.db, tx).WithContext(ctx).Where("course_id = ?", courseID).Order("id ASC").Find(&out).Error
	return out, err
}

func (r *enrollmentRepo) SetProgress(ctx context.Context, tx *gorm.DB, id uint, progress int, completedAt *time.Time) error {
	return use(r.db, tx).WithContext(ctx).Model(&models.Enrollment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"progress": progress, "completed_at": completedAt}).Error
}

func (r *enrollmentRepo) CountByUser(ctx context.Context, tx *gorm.DB, userID uint) (int64, int64, error) {
	var total, completed int64
	q := use(r.db, tx).WithContext(ctx)
	if err := q.Model(&models.Enrollment{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err := q.Model(&models.Enrollment{}).Where("user_id = ? AND progress >= ?", userID, 100).Count(&completed).Error; err != nil {
		return 0, 0, err
	}
	return total, completed, nil
}

type LessonProgressRepo interface {
	// CreateMissing inserts a blank row for each lesson, skipping existing ones.
	CreateMissing(ctx context.Context, tx *gorm.DB, enrollmentID uint, lessonIDs []uint) error
	// Save upserts the (enrollment, lesson) row with the given fields.
	Save(ctx context.Context, tx *gorm.DB, enrollmentID, lessonID uint, fields map[string]interface{}) (*models.LessonProgress, error)
	Get(ctx context.Context, tx *gorm.DB, enrollmentID, lessonID uint) (*models.LessonProgress, error)
	ListByEnrollment(ctx context.Context, tx *gorm.DB, enrollmentID uint) ([]models.LessonProgress, error)
	CountCompleted(ctx context.Context, tx *gorm.DB, enrollmentID uint) (int64, error)
}

type lessonProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonProgressRepo(db *gorm.DB, baseLog *logger.Logger) LessonProgressRepo {
	return &lessonProgressRepo{db: db, log: baseLog.With("repo", "LessonProgressRepo")}
}

func (r *lessonProgressRepo) CreateMissing(ctx context.Context, tx *gorm.DB, enrollmentID uint, lessonIDs []uint) error {
	if len(lessonIDs) == 0 {
		return nil
	}
	rows := make([]models.LessonProgress, 0, len(lessonIDs))
	for _, id := range lessonIDs {
		rows = append(rows, models.LessonProgress{EnrollmentID: enrollmentID, LessonID: id})
	}
	return use(r.db, tx).WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}

func (r *lessonProgressRepo) Save(ctx context.Context, tx *gorm.DB, enrollmentID, lessonID uint, fields map[string]interface{}) (*models.LessonProgress, error) {
	q := use(r.db, tx).WithContext(ctx)
	row := models.LessonProgress{EnrollmentID: enrollmentID, LessonID: lessonID}
	if err := q.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		if err := q.Model(&models.LessonProgress{}).
			Where("enrollment_id = ? AND lesson_id = ?", enrollmentID, lessonID).
			Updates(fields).Error; err != nil {
			return nil, err
		}
	}
	return r.Get(ctx, tx, enrollmentID, lessonID)
}

func (r *lessonProgressRepo) Get(ctx context.Context, tx *gorm.DB, enrollmentID, lessonID uint) (*models.LessonProgress, error) {
	return findOne[models.LessonProgress](use(r.db, tx).WithContext(ctx).
		Where("enrollment_id = ? AND lesson_id = ?", enrollmentID, lessonID))
}

func (r *lessonProgressRepo) ListByEnrollment(ctx context.Context, tx *gorm.DB, enrollmentID uint) ([]models.LessonProgress, error) {
	var out []models.LessonProgress
	err := use(r.db, tx).WithContext(ctx).Where("enrollment_id = ?", enrollmentID).Find(&out).Error
	return out, err
}

func (r *lessonProgressRepo) CountCompleted(ctx context.Context, tx *gorm.DB, enrollmentID uint) (int64, error) {
	var n int64
	err := use(r.db, tx).WithContext(ctx).Model(&models.LessonProgress{}).
		Where("enrollment_id = ? AND is_completed = ?", enrollmentID, true).
		Count(&n).Error
	return n, err
}
