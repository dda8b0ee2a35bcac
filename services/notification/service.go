// Package notification owns the outbox: services enqueue events inside their
// own transactions and the Worker turns them into in-app notifications and
// emails.
package notification

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"shams/apperr"
	"shams/models"
	"shams/repository"
	"shams/utils/logger"
)

// Event describes one queued side effect. Notify creates an in-app
// notification; a non-empty EmailTo sends an email.
type Event struct {
	UserID       uint
	Type         models.NotificationType
	Title        string
	Message      string
	Notify       bool
	EmailTo      string
	EmailSubject string
	EmailBody    string
	Payload      map[string]interface{}
}

type Service struct {
	notifications repository.NotificationRepo
	outbox        repository.OutboxRepo
	log           *logger.Logger
}

func NewService(repos *repository.Repos, baseLog *logger.Logger) *Service {
	return &Service{
		notifications: repos.Notifications,
		outbox:        repos.Outbox,
		log:           baseLog.With("service", "NotificationService"),
	}
}

// Enqueue never blocks on delivery.
func (s *Service) Enqueue(ctx context.Context, tx *gorm.DB, ev Event) error {
	row := &models.OutboxEvent{
		UserID:       ev.UserID,
		Type:         ev.Type,
		Title:        ev.Title,
		Message:      ev.Message,
		Notify:       ev.Notify,
		EmailTo:      ev.EmailTo,
		EmailSubject: ev.EmailSubject,
		EmailBody:    ev.EmailBody,
		Status:       models.OutboxPending,
		AvailableAt:  time.Now().UTC(),
	}
	if len(ev.Payload) > 0 {
		raw, err := json.Marshal(ev.Payload)
		if err != nil {
			return apperr.Internal("encode outbox payload", err)
		}
		row.Payload = datatypes.JSON(raw)
	}
	if err := s.outbox.Enqueue(ctx, tx, row); err != nil {
		return apperr.Internal("enqueue notification", err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, userID uint) ([]models.Notification, error) {
	out, err := s.notifications.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, apperr.Internal("list notifications", err)
	}
	return out, nil
}

func (s *Service) MarkRead(ctx context.Context, userID, id uint) error {
	ok, err := s.notifications.MarkRead(ctx, nil, userID, id)
	if err != nil {
		return apperr.Internal("mark notification read", err)
	}
	if !ok {
		return apperr.NotFound("Notification not found")
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	n, err := s.notifications.MarkAllRead(ctx, nil, userID)
	if err != nil {
		return 0, apperr.Internal("mark notifications read", err)
	}
	return n, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	n, err := s.notifications.CountUnread(ctx, nil, userID)
	if err != nil {
		return 0, apperr.Internal("count unread notifications", err)
	}
	return n, nil
}
