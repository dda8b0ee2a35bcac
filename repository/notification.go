package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"shams/models"
	"shams/utils/logger"
)

type NotificationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, n *models.Notification) error
	ListByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]models.Notification, error)
	// MarkRead reports false when the notification does not belong to the user.
	MarkRead(ctx context.Context, tx *gorm.DB, userID, id uint) (bool, error)
	MarkAllRead(ctx context.Context, tx *gorm.DB, userID uint) (int64, error)
	CountUnread(ctx context.Context, tx *gorm.DB, userID uint) (int64, error)
}

type notificationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNotificationRepo(db *gorm.DB, baseLog *logger.Logger) NotificationRepo {
	return &notificationRepo{db: db, log: baseLog.With("repo", "NotificationRepo")}
}

func (r *notificationRepo) Create(ctx context.Context, tx *gorm.DB, n *models.Notification) error {
	return use(r.db, tx).WithContext(ctx).Create(n).Error
}

func (r *notificationRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]models.Notification, error) {
	var out []models.Notification
	err := use(r.db, tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

func (r *notificationRepo) MarkRead(ctx context.Context, tx *gorm.DB, userID, id uint) (bool, error) {
	q := use(r.db, tx).WithContext(ctx)
	var n int64
	if err := q.Model(&models.Notification{}).Where("id = ? AND user_id = ?", id, userID).Count(&n).Error; err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	err := q.Model(&models.Notification{}).Where("id = ? AND user_id = ?", id, userID).Update("is_read", true).Error
	return err == nil, err
}

func (r *notificationRepo) MarkAllRead(ctx context.Context, tx *gorm.DB, userID uint) (int64, error) {
	res := use(r.db, tx).WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

func (r *notificationRepo) CountUnread(ctx context.Context, tx *gorm.DB, userID uint) (int64, error) {
	var n int64
	err := use(r.db, tx).WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&n).Error
	return n, err
}

type OutboxRepo interface {
	Enqueue(ctx context.Context, tx *gorm.DB, ev *models.OutboxEvent) error
	// ListDue returns pending events whose available_at has passed, oldest first.
	ListDue(ctx context.Context, tx *gorm.DB, now time.Time, limit int) ([]models.OutboxEvent, error)
	// Claim leases a due event until now+lease. It reports false when another
	// worker got there first.
	Claim(ctx context.Context, tx *gorm.DB, id uint, now time.Time, lease time.Duration) (bool, error)
	// ClearNotify records that the in-app notification was created.
	ClearNotify(ctx context.Context, tx *gorm.DB, id uint) error
	MarkSent(ctx context.Context, tx *gorm.DB, id uint, at time.Time) error
	MarkRetry(ctx context.Context, tx *gorm.DB, id uint, attempts int, lastErr string, next time.Time) error
	MarkFailed(ctx context.Context, tx *gorm.DB, id uint, attempts int, lastErr string) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.OutboxEvent, error)
}

type outboxRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOutboxRepo(db *gorm.DB, baseLog *logger.Logger) OutboxRepo {
	return &outboxRepo{db: db, log: baseLog.With("repo", "OutboxRepo")}
}

func (r *outboxRepo) Enqueue(ctx context.Context, tx *gorm.DB, ev *models.OutboxEvent) error {
	if ev.Status == "" {
		ev.Status = models.OutboxPending
	}
	if ev.AvailableAt.IsZero() {
		ev.AvailableAt = time.Now().UTC()
	}
	return use(r.db, tx).WithContext(ctx).Create(ev).Error
}

func (r *outboxRepo) ListDue(ctx context.Context, tx *gorm.DB, now time.Time, limit int) ([]models.OutboxEvent, error) {
	var out []models.OutboxEvent
	q := use(r.db, tx).WithContext(ctx).
		Where("status = ? AND available_at <= ?", models.OutboxPending, now).
		Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

func (r *outboxRepo) Claim(ctx context.Context, tx *gorm.DB, id uint, now time.Time, lease time.Duration) (bool, error) {
	res := use(r.db, tx).WithContext(ctx).Model(&models.OutboxEvent{}).
		Where("id = ? AND status = ? AND available_at <= ?", id, models.OutboxPending, now).
		Update("available_at", now.Add(lease))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *outboxRepo) ClearNotify(ctx context.Context, tx *gorm.DB, id uint) error {
	return use(r.db, tx).WithContext(ctx).Model(&models.OutboxEvent{}).Where("id = ?", id).Update("notify", false).Error
}

func (r *outboxRepo) MarkSent(ctx context.Context, tx *gorm.DB, id uint, at time.Time) error {
	return use(r.db, tx).WithContext(ctx).Model(&models.OutboxEvent{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": models.OutboxSent, "sent_at": at, "last_error": ""}).Error
}

func (r *outboxRepo) MarkRetry(ctx context.Context, tx *gorm.DB, id uint, attempts int, lastErr string, next time.Time) error {
	return use(r.db, tx).WithContext(ctx).Model(&models.OutboxEvent{}).Where("id = ?", id).
		Updates(map[string]interface{}{"attempts": attempts, "last_error": lastErr, "available_at": next}).Error
}

func (r *outboxRepo) MarkFailed(ctx context.Context, tx *gorm.DB, id uint, attempts int, lastErr string) error {
	return use(r.db, tx).WithContext(ctx).Model(&models.OutboxEvent{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": models.OutboxFailed, "attempts": attempts, "last_error": lastErr}).Error
}

func (r *outboxRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.OutboxEvent, error) {
	return findOne[models.OutboxEvent](use(r.db, tx).WithContext(ctx).Where("id = ?", id))
}
