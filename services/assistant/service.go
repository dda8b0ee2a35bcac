// Package assistant runs per-user AI chat conversations.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/now"
	"gorm.io/gorm"

	"shams/apperr"
	"shams/models"
	"shams/repository"
	"shams/services/activity"
	"shams/utils/cache"
	"shams/utils/logger"
)

const SystemPrompt = "You are the AI assistant of Shams Academy. You help learners with questions about courses, tests and books on AI, robotics and programming."

var spamPatterns = []string{"buy now", "click here", "free money", "lottery", "winner"}

// IsSpam reports whether the text contains a known spam phrase.
func IsSpam(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range spamPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

type Service struct {
	db         *gorm.DB
	repos      *repository.Repos
	completer  Completer
	cache      cache.Cache
	activity   *activity.Recorder
	dailyLimit int
	now        func() time.Time
	log        *logger.Logger
}

func NewService(repos *repository.Repos, completer Completer, c cache.Cache, dailyLimit int, baseLog *logger.Logger) *Service {
	if dailyLimit <= 0 {
		dailyLimit = 20
	}
	return &Service{
		db:         repos.DB,
		repos:      repos,
		completer:  completer,
		cache:      c,
		activity:   activity.NewRecorder(repos.Activities),
		dailyLimit: dailyLimit,
		now:        func() time.Time { return time.Now().UTC() },
		log:        baseLog.With("service", "AssistantService"),
	}
}

type ConversationDetail struct {
	models.Conversation
	Messages []models.AssistantMessage `json:"messages"`
}

func (s *Service) ListConversations(ctx context.Context, userID uint) ([]models.Conversation, error) {
	out, err := s.repos.Conversations.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, apperr.Internal("list conversations", err)
	}
	return out, nil
}

func (s *Service) CreateConversation(ctx context.Context, userID uint, title string) (*models.Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "New conversation"
	}
	c := &models.Conversation{UserID: userID, Title: title}
	if err := s.repos.Conversations.Create(ctx, nil, c); err != nil {
		return nil, apperr.Internal("create conversation", err)
	}
	return c, nil
}

func (s *Service) loadConversation(ctx context.Context, userID, id uint) (*models.Conversation, error) {
	c, err := s.repos.Conversations.GetForUser(ctx, nil, userID, id)
	if err != nil {
		return nil, apperr.Internal("load conversation", err)
	}
	if c == nil {
		return nil, apperr.NotFound("Conversation not found")
	}
	return c, nil
}

func (s *Service) GetConversation(ctx context.Context, userID, id uint) (*ConversationDetail, error) {
	c, err := s.loadConversation(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	msgs, err := s.repos.Messages.ListByConversation(ctx, nil, c.ID)
	if err != nil {
		return nil, apperr.Internal("list messages", err)
	}
	return &ConversationDetail{Conversation: *c, Messages: msgs}, nil
}

func quotaKey(userID uint, day time.Time) string {
	return fmt.Sprintf("%sai:%d:%s", cache.PrefixRateLimit, userID, day.Format("2006-01-02"))
}

// reserveQuota counts this message against the user's daily allowance. Redis
// holds the counter when available; otherwise today's stored user messages
// are counted.
func (s *Service) reserveQuota(ctx context.Context, userID uint) error {
	t := s.now()
	start := now.With(t).BeginningOfDay()
	n, err := s.cache.Incr(ctx, quotaKey(userID, start), now.With(t).EndOfDay().Sub(t)+time.Minute)
	if errors.Is(err, cache.ErrNoBackend) {
		var used int64
		used, err = s.repos.Messages.CountUserMessagesSince(ctx, nil, userID, start)
		n = used + 1
	}
	if err != nil {
		return apperr.Internal("check daily quota", err)
	}
	if n > int64(s.dailyLimit) {
		return apperr.Forbidden(fmt.Sprintf("Daily limit of %d messages reached, try again tomorrow", s.dailyLimit))
	}
	return nil
}

type Quota struct {
	Limit     int   `json:"limit"`
	Used      int64 `json:"used"`
	Remaining int64 `json:"remaining"`
}

func (s *Service) QuotaToday(ctx context.Context, userID uint) (*Quota, error) {
	t := s.now()
	start := now.With(t).BeginningOfDay()
	used, err := s.cache.Count(ctx, quotaKey(userID, start))
	if errors.Is(err, cache.ErrNoBackend) {
		used, err = s.repos.Messages.CountUserMessagesSince(ctx, nil, userID, start)
	}
	if err != nil {
		return nil, apperr.Internal("check daily quota", err)
	}
	remaining := int64(s.dailyLimit) - used
	if remaining < 0 {
		remaining = 0
	}
	return &Quota{Limit: s.dailyLimit, Used: used, Remaining: remaining}, nil
}

type Exchange struct {
	UserMessage models.AssistantMessage `json:"user_message"`
	AIMessage   models.AssistantMessage `json:"ai_message"`
}

// SendMessage stores the user's message, asks the model for a reply and
// stores it. When the model fails the user's message is kept.
func (s *Service) SendMessage(ctx context.Context, userID, conversationID uint, text string) (*Exchange, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.ValidationFields("Validation failed!", map[string]string{"text": "required"})
	}
	if IsSpam(text) {
		return nil, apperr.Validation("Message detected as spam")
	}
	conv, err := s.loadConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}
	if err := s.reserveQuota(ctx, userID); err != nil {
		return nil, err
	}

	history, err := s.repos.Messages.ListByConversation(ctx, nil, conv.ID)
	if err != nil {
		return nil, apperr.Internal("list messages", err)
	}
	userMsg := models.AssistantMessage{
		ConversationID: conv.ID,
		UserID:         userID,
		Sender:         models.SenderUser,
		Text:           text,
		CreatedAt:      s.now(),
	}
	if err := s.repos.Messages.Create(ctx, nil, &userMsg); err != nil {
		return nil, apperr.Internal("save message", err)
	}

	reply, err := s.completer.Complete(ctx, BuildPrompt(history, text))
	if err != nil {
		s.log.Error("Chat completion failed", "conversation_id", conv.ID, "error", err)
		return nil, apperr.Unavailable("The assistant is unavailable right now, please try again later", err)
	}

	aiMsg := models.AssistantMessage{
		ConversationID: conv.ID,
		UserID:         userID,
		Sender:         models.SenderAI,
		Text:           reply,
		CreatedAt:      s.now(),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repos.Messages.Create(ctx, tx, &aiMsg); err != nil {
			return err
		}
		if err := s.repos.Conversations.Touch(ctx, tx, conv.ID, s.now()); err != nil {
			return err
		}
		return s.activity.Record(ctx, tx, userID, models.ActivityAI, "AI assistant", "You chatted in "+conv.Title)
	})
	if err != nil {
		return nil, apperr.Internal("save reply", err)
	}
	return &Exchange{UserMessage: userMsg, AIMessage: aiMsg}, nil
}

// BuildPrompt turns the stored conversation plus the new input into the
// completion transcript.
func BuildPrompt(history []models.AssistantMessage, input string) []ChatMessage {
	out := make([]ChatMessage, 0, len(history)+2)
	out = append(out, ChatMessage{Role: RoleSystem, Content: SystemPrompt})
	for _, m := range history {
		role := RoleUser
		if m.Sender == models.SenderAI {
			role = RoleAssistant
		}
		out = append(out, ChatMessage{Role: role, Content: m.Text})
	}
	return append(out, ChatMessage{Role: RoleUser, Content: input})
}
