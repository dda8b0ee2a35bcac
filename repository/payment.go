package repository

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"shams/models"
	"shams/utils/logger"
)

type PaymentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, payment *models.Payment) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Payment, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]models.Payment, error)
	SetCheckout(ctx context.Context, tx *gorm.DB, id uint, providerTxnID, checkoutURL string) error
	SetProviderTransaction(ctx context.Context, tx *gorm.DB, id uint, providerTxnID string) error
	// Transition moves a pending payment to a terminal status. It reports
	// false when the payment was no longer pending, which makes the caller's
	// side effects run at most once per payment.
	Transition(ctx context.Context, tx *gorm.DB, id uint, to models.PaymentStatus, at time.Time) (bool, error)
	AddLog(ctx context.Context, tx *gorm.DB, paymentID uint, action string, data datatypes.JSON) error
	ListLogs(ctx context.Context, tx *gorm.DB, paymentID uint) ([]models.PaymentLog, error)
}

type paymentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPaymentRepo(db *gorm.DB, baseLog *logger.Logger) PaymentRepo {
	return &paymentRepo{db: db, log: baseLog.With("repo", "PaymentRepo")}
}

func (r *paymentRepo) Create(ctx context.Context, tx *gorm.DB, payment *models.Payment) error {
	return use(r.db, tx).WithContext(ctx).Create(payment).Error
}

func (r *paymentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Payment, error) {
	return findOne[models.Payment](use(r.db, tx).WithContext(ctx).Where("id = ?", id))
}

func (r *paymentRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]models.Payment, error) {
	var out []models.Payment
	err := use(r.db, tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

func (r *paymentRepo) SetCheckout(ctx context.Context, tx *gorm.DB, id uint, providerTxnID, checkoutURL string) error {
	fields := map[string]interface{}{"checkout_url": checkoutURL}
	if providerTxnID != "" {
		fields["provider_transaction_id"] = providerTxnID
	}
	return use(r.db, tx).WithContext(ctx).Model(&models.Payment{}).Where("id = ?", id).Updates(fields).Error
}

// SetProviderTransaction only fills an empty transaction id.
func (r *paymentRepo) SetProviderTransaction(ctx context.Context, tx *gorm.DB, id uint, providerTxnID string) error {
	return use(r.db, tx).WithContext(ctx).Model(&models.Payment{}).
		Where("id = ? AND provider_transaction_id IS NULL", id).
		Update("provider_transaction_id", providerTxnID).Error
}

func (r *paymentRepo) Transition(ctx context.Context, tx *gorm.DB, id uint, to models.PaymentStatus, at time.Time) (bool, error) {
	fields := map[string]interface{}{"status": to, "updated_at": at}
	if to == models.PaymentStatusCompleted {
		fields["completed_at"] = at
	}
	res := use(r.db, tx).WithContext(ctx).Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, models.PaymentStatusPending).
		Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *paymentRepo) AddLog(ctx context.Context, tx *gorm.DB, paymentID uint, action string, data datatypes.JSON) error {
	entry := models.PaymentLog{PaymentID: paymentID, Action: action, Data: data}
	return use(r.db, tx).WithContext(ctx).Create(&entry).Error
}

func (r *paymentRepo) ListLogs(ctx context.Context, tx *gorm.DB, paymentID uint) ([]models.PaymentLog, error) {
	var out []models.PaymentLog
	err := use(r.db, tx).WithContext(ctx).Where("payment_id = ?", paymentID).Order("id ASC").Find(&out).Error
	return out, err
}
