package repository

import (
	"context"

	"gorm.io/gorm"

	"shams/models"
	"shams/utils/logger"
)

type TestFilter struct {
	Category     string
	MaxTimeLimit int
	Search       string
	ActiveOnly   bool
}

type TestRepo interface {
	Create(ctx context.Context, tx *gorm.DB, test *models.Test) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error)
	List(ctx context.Context, tx *gorm.DB, filter TestFilter) ([]models.Test, error)
	Update(ctx context.Context, tx *gorm.DB, id uint, fields map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
}

type testRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTestRepo(db *gorm.DB, baseLog *logger.Logger) TestRepo {
	return &testRepo{db: db, log: baseLog.With("repo", "TestRepo")}
}

func (r *testRepo) Create(ctx context.Context, tx *gorm.DB, test *models.Test) error {
	return use(r.db, tx).WithContext(ctx).Create(test).Error
}

func (r *testRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error) {
	return findOne[models.Test](use(r.db, tx).WithContext(ctx).Where("id = ?", id))
}

func (r *testRepo) List(ctx context.Context, tx *gorm.DB, filter TestFilter) ([]models.Test, error) {
	q := use(r.db, tx).WithContext(ctx).Model(&models.Test{})
	if filter.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.MaxTimeLimit > 0 {
		q = q.Where("time_limit <= ?", filter.MaxTimeLimit)
	}
	if filter.Search != "" {
		p := likePattern(filter.Search)
		q = q.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", p, p)
	}
	var out []models.Test
	if err := q.Order("created_at DESC, id DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *testRepo) Update(ctx context.Context, tx *gorm.DB, id uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return use(r.db, tx).WithContext(ctx).Model(&models.Test{}).Where("id = ?", id).Updates(fields).Error
}

// Delete removes the test with its questions, results and answers.
func (r *testRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	return use(r.db, tx).WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		results := tx.Model(&models.TestResult{}).Select("id").Where("test_id = ?", id)
		if err := tx.Where("result_id IN (?)", results).Delete(&models.UserAnswer{}).Error; err != nil {
			return err
		}
		if err := tx.Where("test_id = ?", id).Delete(&models.TestResult{}).Error; err != nil {
			return err
		}
		if err := tx.Where("test_id = ?", id).Delete(&models.Question{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Test{}).Error
	})
}

type QuestionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, question *models.Question) error
	ListByTest(ctx context.Context, tx *gorm.DB, testID uint) ([]models.Question, error)
	CountByTest(ctx context.Context, tx *gorm.DB, testID uint) (int64, error)
}

type questionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
	return &questionRepo{db: db, log: baseLog.With("repo", "QuestionRepo")}
}

func (r *questionRepo) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	return use(r.db, tx).WithContext(ctx).Create(question).Error
}

func (r *questionRepo) ListByTest(ctx context.Context, tx *gorm.DB, testID uint) ([]models.Question, error) {
	var out []models.Question
	err := use(r.db, tx).WithContext(ctx).Where("test_id = ?", testID).Order("id ASC").Find(&out).Error
	return out, err
}

func (r *questionRepo) CountByTest(ctx context.Context, tx *gorm.DB, testID uint) (int64, error) {
	var n int64
	err := use(r.db, tx).WithContext(ctx).Model(&models.Question{}).Where("test_id = ?", testID).Count(&n).Error
	return n, err
}

// ResultStats summarizes a user's test history.
type ResultStats struct {
	Taken   int64
	Average float64
}

type TestResultRepo interface {
	// Create fails with a duplicate-key error when (user, test) exists.
	Create(ctx context.Context, tx *gorm.DB, result *models.TestResult) error
	CreateAnswers(ctx context.Context, tx *gorm.DB, answers []models.UserAnswer) error
	GetByUserTest(ctx context.Context, tx *gorm.DB, userID, testID uint) (*models.TestResult, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]models.TestResult, error)
	ListAnswers(ctx context.Context, tx *gorm.DB, resultID uint) ([]models.UserAnswer, error)
	StatsByUser(ctx context.Context, tx *gorm.DB, userID uint) (ResultStats, error)
}

type testResultRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTestResultRepo(db *gorm.DB, baseLog *logger.Logger) TestResultRepo {
	return &testResultRepo{db: db, log: baseLog.With("repo", "TestResultRepo")}
}

func (r *testResultRepo) Create(ctx context.Context, tx *gorm.DB, result *models.TestResult) error {
	return use(r.db, tx).WithContext(ctx).Create(result).Error
}

func (r *testResultRepo) CreateAnswers(ctx context.Context, tx *gorm.DB, answers []models.UserAnswer) error {
	if len(answers) == 0 {
		return nil
	}
	return use(r.db, tx).WithContext(ctx).Create(&answers).Error
}

func (r *testResultRepo) GetByUserTest(ctx context.Context, tx *gorm.DB, userID, testID uint) (*models.TestResult, error) {
	return findOne[models.TestResult](use(r.db, tx).WithContext(ctx).
		Where("user_id = ? AND test_id = ?", userID, testID))
}

func (r *testResultRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]models.TestResult, error) {
	var out []models.TestResult
	err := use(r.db, tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("completed_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

func (r *testResultRepo) ListAnswers(ctx context.Context, tx *gorm.DB, resultID uint) ([]models.UserAnswer, error) {
	var out []models.UserAnswer
	err := use(r.db, tx).WithContext(ctx).Where("result_id = ?", resultID).Order("id ASC").Find(&out).Error
	return out, err
}

func (r *testResultRepo) StatsByUser(ctx context.Context, tx *gorm.DB, userID uint) (ResultStats, error) {
	var stats ResultStats
	err := use(r.db, tx).WithContext(ctx).Model(&models.TestResult{}).
		Select("COUNT(*) AS taken, COALESCE(AVG(score), 0) AS average").
		Where("user_id = ?", userID).
		Scan(&stats).Error
	return stats, err
}
