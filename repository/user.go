package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shams/models"
	"shams/utils/logger"
)

type UserRepo interface {
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error)
	// LockByID reads the user with SELECT ... FOR UPDATE; call it inside tx to
	// serialize per-user counters until commit.
	LockByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error)
	GetByUsername(ctx context.Context, tx *gorm.DB, username string) (*models.User, error)
	Update(ctx context.Context, tx *gorm.DB, id uint, fields map[string]interface{}) error
	TouchLastLogin(ctx context.Context, tx *gorm.DB, id uint, at time.Time) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

func (r *userRepo) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	return use(r.db, tx).WithContext(ctx).Create(user).Error
}

func (r *userRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error) {
	return findOne[models.User](use(r.db, tx).WithContext(ctx).Where("id = ?", id))
}

func (r *userRepo) LockByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error) {
	return findOne[models.User](use(r.db, tx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id))
}

func (r *userRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return findOne[models.User](use(r.db, tx).WithContext(ctx).Where("email = ?", email))
}

func (r *userRepo) GetByUsername(ctx context.Context, tx *gorm.DB, username string) (*models.User, error) {
	return findOne[models.User](use(r.db, tx).WithContext(ctx).Where("username = ?", username))
}

func (r *userRepo) Update(ctx context.Context, tx *gorm.DB, id uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return use(r.db, tx).WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields).Error
}

func (r *userRepo) TouchLastLogin(ctx context.Context, tx *gorm.DB, id uint, at time.Time) error {
	return use(r.db, tx).WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("last_login", at).Error
}
