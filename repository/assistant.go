package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"shams/models"
	"shams/utils/logger"
)

type ConversationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, c *models.Conversation) error
	GetForUser(ctx context.Context, tx *gorm.DB, userID, id uint) (*models.Conversation, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]models.Conversation, error)
	Touch(ctx context.Context, tx *gorm.DB, id uint, at time.Time) error
}

type conversationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConversationRepo(db *gorm.DB, baseLog *logger.Logger) ConversationRepo {
	return &conversationRepo{db: db, log: baseLog.With("repo", "ConversationRepo")}
}

func (r *conversationRepo) Create(ctx context.Context, tx *gorm.DB, c *models.Conversation) error {
	return use(r.db, tx).WithContext(ctx).Create(c).Error
}

func (r *conversationRepo) GetForUser(ctx context.Context, tx *gorm.DB, userID, id uint) (*models.Conversation, error) {
	return findOne[models.Conversation](use(r.db, tx).WithContext(ctx).Where("id = ? AND user_id = ?", id, userID))
}

func (r *conversationRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]models.Conversation, error) {
	var out []models.Conversation
	err := use(r.db, tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

func (r *conversationRepo) Touch(ctx context.Context, tx *gorm.DB, id uint, at time.Time) error {
	return use(r.db, tx).WithContext(ctx).Model(&models.Conversation{}).Where("id = ?", id).Update("updated_at", at).Error
}

type MessageRepo interface {
	Create(ctx context.Context, tx *gorm.DB, m *models.AssistantMessage) error
	ListByConversation(ctx context.Context, tx *gorm.DB, conversationID uint) ([]models.AssistantMessage, error)
	CountUserMessagesSince(ctx context.Context, tx *gorm.DB, userID uint, since time.Time) (int64, error)
}

type messageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, baseLog *logger.Logger) MessageRepo {
	return &messageRepo{db: db, log: baseLog.With("repo", "MessageRepo")}
}

func (r *messageRepo) Create(ctx context.Context, tx *gorm.DB, m *models.AssistantMessage) error {
	return use(r.db, tx).WithContext(ctx).Create(m).Error
}

func (r *messageRepo) ListByConversation(ctx context.Context, tx *gorm.DB, conversationID uint) ([]models.AssistantMessage, error) {
	var out []models.AssistantMessage
	err := use(r.db, tx).WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

func (r *messageRepo) CountUserMessagesSince(ctx context.Context, tx *gorm.DB, userID uint, since time.Time) (int64, error) {
	var n int64
	err := use(r.db, tx).WithContext(ctx).Model(&models.AssistantMessage{}).
		Where("user_id = ? AND sender = ? AND created_at >= ?", userID, models.SenderUser, since).
		Count(&n).Error
	return n, err
}
