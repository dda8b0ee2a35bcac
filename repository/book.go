package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shams/models"
	"shams/utils/logger"
)

type BookFilter struct {
	Category   string
	Status     string
	Search     string
	ActiveOnly bool
}

type BookRepo interface {
	Create(ctx context.Context, tx *gorm.DB, book *models.Book) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Book, error)
	List(ctx context.Context, tx *gorm.DB, filter BookFilter) ([]models.Book, error)
	// ListOwned returns every active free book plus every book the user bought.
	ListOwned(ctx context.Context, tx *gorm.DB, userID uint) ([]models.Book, error)
	Update(ctx context.Context, tx *gorm.DB, id uint, fields map[string]interface{}) error
	IncrementDownloadCount(ctx context.Context, tx *gorm.DB, id uint) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
}

type bookRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBookRepo(db *gorm.DB, baseLog *logger.Logger) BookRepo {
	return &bookRepo{db: db, log: baseLog.With("repo", "BookRepo")}
}

func (r *bookRepo) Create(ctx context.Context, tx *gorm.DB, book *models.Book) error {
	return use(r.db, tx).WithContext(ctx).Create(book).Error
}

func (r *bookRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Book, error) {
	return findOne[models.Book](use(r.db, tx).WithContext(ctx).Where("id = ?", id))
}

func (r *bookRepo) List(ctx context.Context, tx *gorm.DB, filter BookFilter) ([]models.Book, error) {
	q := use(r.db, tx).WithContext(ctx).Model(&models.Book{})
	if filter.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		p := likePattern(filter.Search)
		q = q.Where("LOWER(title) LIKE ? OR LOWER(author) LIKE ?", p, p)
	}
	var out []models.Book
	if err := q.Order("created_at DESC, id DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *bookRepo) ListOwned(ctx context.Context, tx *gorm.DB, userID uint) ([]models.Book, error) {
	q := use(r.db, tx).WithContext(ctx)
	purchased := q.Model(&models.BookPurchase{}).Select("book_id").Where("user_id = ?", userID)
	var out []models.Book
	err := q.Model(&models.Book{}).
		Where("(status = ? AND is_active = ?) OR id IN (?)", models.BookStatusFree, true, purchased).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

func (r *bookRepo) Update(ctx context.Context, tx *gorm.DB, id uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return use(r.db, tx).WithContext(ctx).Model(&models.Book{}).Where("id = ?", id).Updates(fields).Error
}

func (r *bookRepo) IncrementDownloadCount(ctx context.Context, tx *gorm.DB, id uint) error {
	return use(r.db, tx).WithContext(ctx).Model(&models.Book{}).
		Where("id = ?", id).
		UpdateColumn("download_count", gorm.Expr("download_count + ?", 1)).Error
}

func (r *bookRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	return use(r.db, tx).WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("book_id = ?", id).Delete(&models.BookDownload{}).Error; err != nil {
			return err
		}
		if err := tx.Where("book_id = ?", id).Delete(&models.BookPurchase{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Book{}).Error
	})
}

type BookPurchaseRepo interface {
	// Create fails with a duplicate-key error when (user, book) exists.
	Create(ctx context.Context, tx *gorm.DB, purchase *models.BookPurchase) error
	// CreateIfAbsent reports whether a new row was inserted.
	CreateIfAbsent(ctx context.Context, tx *gorm.DB, purchase *models.BookPurchase) (bool, error)
	Exists(ctx context.Context, tx *gorm.DB, userID, bookID uint) (bool, error)
	// OwnedSet returns which of bookIDs the user bought.
	OwnedSet(ctx context.Context, tx *gorm.DB, userID uint, bookIDs []uint) (map[uint]bool, error)
	CountByUser(ctx context.Context, tx *gorm.DB, userID uint) (int64, error)
}

type bookPurchaseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBookPurchaseRepo(db *gorm.DB, baseLog *logger.Logger) BookPurchaseRepo {
	return &bookPurchaseRepo{db: db, log: baseLog.With("repo", "BookPurchaseRepo")}
}

func (r *bookPurchaseRepo) Create(ctx context.Context, tx *gorm.DB, purchase *models.BookPurchase) error {
	return use(r.db, tx).WithContext(ctx).Create(purchase).Error
}

func (r *bookPurchaseRepo) CreateIfAbsent(ctx context.Context, tx *gorm.DB, purchase *models.BookPurchase) (bool, error) {
	res := use(r.db, tx).WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(purchase)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *bookPurchaseRepo) Exists(ctx context.Context, tx *gorm.DB, userID, bookID uint) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	var n int64
	err := use(r.db, tx).WithContext(ctx).Model(&models.BookPurchase{}).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Count(&n).Error
	return n > 0, err
}

func (r *bookPurchaseRepo) OwnedSet(ctx context.Context, tx *gorm.DB, userID uint, bookIDs []uint) (map[uint]bool, error) {
	out := make(map[uint]bool)
	if userID == 0 || len(bookIDs) == 0 {
		return out, nil
	}
	var ids []uint
	if err := use(r.db, tx).WithContext(ctx).Model(&models.BookPurchase{}).
		Where("user_id = ? AND book_id IN ?", userID, bookIDs).
		Pluck("book_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (r *bookPurchaseRepo) CountByUser(ctx context.Context, tx *gorm.DB, userID uint) (int64, error) {
	var n int64
	err := use(r.db, tx).WithContext(ctx).Model(&models.BookPurchase{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

type BookDownloadRepo interface {
	// TotalTimes sums the user's downloads of the book across all addresses.
	TotalTimes(ctx context.Context, tx *gorm.DB, userID, bookID uint) (int64, error)
	// Record inserts the (user, book, ip) row or bumps its counter.
	Record(ctx context.Context, tx *gorm.DB, userID, bookID uint, ip string, at time.Time) error
}

type bookDownloadRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBookDownloadRepo(db *gorm.DB, baseLog *logger.Logger) BookDownloadRepo {
	return &bookDownloadRepo{db: db, log: baseLog.With("repo", "BookDownloadRepo")}
}

func (r *bookDownloadRepo) TotalTimes(ctx context.Context, tx *gorm.DB, userID, bookID uint) (int64, error) {
	var total int64
	err := use(r.db, tx).WithContext(ctx).Model(&models.BookDownload{}).
		Select("COALESCE(SUM(times), 0)").
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Scan(&total).Error
	return total, err
}

func (r *bookDownloadRepo) Record(ctx context.Context, tx *gorm.DB, userID, bookID uint, ip string, at time.Time) error {
	row := models.BookDownload{
		UserID:       userID,
		BookID:       bookID,
		IPAddress:    ip,
		Times:        1,
		DownloadedAt: at,
		UpdatedAt:    at,
	}
	return use(r.db, tx).WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "book_id"}, {Name: "ip_address"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"times":      gorm.Expr("book_downloads.times + 1"),
			"updated_at": at,
		}),
	}).Create(&row).Error
}
