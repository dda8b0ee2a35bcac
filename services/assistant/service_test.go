package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shams/apperr"
	"shams/config"
	"shams/database"
	"shams/models"
	"shams/repository"
	"shams/repository/repotest"
	"shams/utils/cache"
	"shams/utils/logger"
)

type fakeCompleter struct {
	reply string
	err   error
	calls [][]ChatMessage
}

func (f *fakeCompleter) Complete(_ context.Context, messages []ChatMessage) (string, error) {
	f.calls = append(f.calls, messages)
	return f.reply, f.err
}

// counterCache keeps counters in memory the way Redis would.
type counterCache struct {
	cache.Nop
	counts map[string]int64
}

func (c *counterCache) Incr(_ context.Context, key string, _ time.Duration) (int64, error) {
	c.counts[key]++
	return c.counts[key], nil
}

func (c *counterCache) Count(_ context.Context, key string) (int64, error) {
	return c.counts[key], nil
}

func newService(t *testing.T, completer Completer, c cache.Cache, limit int) (*Service, *repository.Repos) {
	t.Helper()
	repos := repository.New(database.OpenTest(t), logger.Nop())
	return NewService(repos, completer, c, limit, logger.Nop()), repos
}

func TestSendMessageStoresBothSides(t *testing.T) {
	ctx := context.Background()
	ai := &fakeCompleter{reply: "Start with the Python course."}
	s, repos := newService(t, ai, cache.Nop{}, 20)
	u := repotest.SeedUser(t, repos.DB, "alice")
	conv, err := s.CreateConversation(ctx, u.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "New conversation", conv.Title)

	ex, err := s.SendMessage(ctx, u.ID, conv.ID, "Where do I start?")
	require.NoError(t, err)
	assert.Equal(t, models.SenderUser, ex.UserMessage.Sender)
	assert.Equal(t, "Start with the Python course.", ex.AIMessage.Text)

	_, err = s.SendMessage(ctx, u.ID, conv.ID, "And then?")
	require.NoError(t, err)
	require.Len(t, ai.calls, 2)
	prompt := ai.calls[1]
	require.Len(t, prompt, 4)
	assert.Equal(t, RoleSystem, prompt[0].Role)
	assert.Equal(t, RoleUser, prompt[1].Role)
	assert.Equal(t, RoleAssistant, prompt[2].Role)
	assert.Equal(t, "And then?", prompt[3].Content)

	detail, err := s.GetConversation(ctx, u.ID, conv.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Messages, 4)

	acts, err := repos.Activities.ListByUser(ctx, nil, u.ID, 0)
	require.NoError(t, err)
	assert.Len(t, acts, 2)
}

func TestSendMessageRejectsSpam(t *testing.T) {
	ctx := context.Background()
	ai := &fakeCompleter{reply: "ok"}
	s, repos := newService(t, ai, cache.Nop{}, 20)
	u := repotest.SeedUser(t, repos.DB, "bob")
	conv, err := s.CreateConversation(ctx, u.ID, "chat")
	require.NoError(t, err)

	_, err = s.SendMessage(ctx, u.ID, conv.ID, "You are a WINNER, click here")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Empty(t, ai.calls)
}

func TestProviderFailureKeepsUserMessage(t *testing.T) {
	ctx := context.Background()
	ai := &fakeCompleter{err: errors.New("boom")}
	s, repos := newService(t, ai, cache.Nop{}, 20)
	u := repotest.SeedUser(t, repos.DB, "carol")
	conv, err := s.CreateConversation(ctx, u.ID, "chat")
	require.NoError(t, err)

	_, err = s.SendMessage(ctx, u.ID, conv.ID, "hello")
	assert.True(t, apperr.Is(err, apperr.KindUnavailable))

	msgs, err := repos.Messages.ListByConversation(ctx, nil, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, models.SenderUser, msgs[0].Sender)
}

func TestDailyQuotaFromDatabase(t *testing.T) {
	ctx := context.Background()
	s, repos := newService(t, &fakeCompleter{reply: "ok"}, cache.Nop{}, 2)
	u := repotest.SeedUser(t, repos.DB, "dave")
	conv, err := s.CreateConversation(ctx, u.ID, "chat")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := s.SendMessage(ctx, u.ID, conv.ID, "question")
		require.NoError(t, err)
	}
	_, err = s.SendMessage(ctx, u.ID, conv.ID, "one more")
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	q, err := s.QuotaToday(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, q.Used)
	assert.EqualValues(t, 0, q.Remaining)
}

func TestDailyQuotaFromCounter(t *testing.T) {
	ctx := context.Background()
	counters := &counterCache{counts: map[string]int64{}}
	s, repos := newService(t, &fakeCompleter{reply: "ok"}, counters, 1)
	s.now = func() time.Time { return time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC) }
	u := repotest.SeedUser(t, repos.DB, "erin")
	conv, err := s.CreateConversation(ctx, u.ID, "chat")
	require.NoError(t, err)

	_, err = s.SendMessage(ctx, u.ID, conv.ID, "first")
	require.NoError(t, err)
	_, err = s.SendMessage(ctx, u.ID, conv.ID, "second")
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	assert.EqualValues(t, 2, counters.counts[quotaKey(u.ID, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))])

	s.now = func() time.Time { return time.Date(2025, 3, 11, 0, 1, 0, 0, time.UTC) }
	_, err = s.SendMessage(ctx, u.ID, conv.ID, "next day")
	assert.NoError(t, err)
}

func TestConversationsAreScopedToOwner(t *testing.T) {
	ctx := context.Background()
	s, repos := newService(t, &fakeCompleter{reply: "ok"}, cache.Nop{}, 20)
	owner := repotest.SeedUser(t, repos.DB, "frank")
	other := repotest.SeedUser(t, repos.DB, "gina")
	conv, err := s.CreateConversation(ctx, owner.ID, "mine")
	require.NoError(t, err)

	_, err = s.GetConversation(ctx, other.ID, conv.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	_, err = s.SendMessage(ctx, other.ID, conv.ID, "hi")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	list, err := s.ListConversations(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestOpenAIClient(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" Hi there "}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(&config.Config{OpenAIAPIKey: "sk-test", OpenAIBaseURL: srv.URL + "/", OpenAIModel: "gpt-test"}, logger.Nop())
	reply, err := c.Complete(context.Background(), BuildPrompt(nil, "hello"))
	require.NoError(t, err)
	assert.Equal(t, "Hi there", reply)
	assert.Equal(t, "gpt-test", got.Model)
	assert.Equal(t, 0.7, got.Temperature)
	assert.Equal(t, 1000, got.MaxTokens)
	assert.Len(t, got.Messages, 2)
}

func TestOpenAIClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"requests"}}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(&config.Config{OpenAIAPIKey: "sk-test", OpenAIBaseURL: srv.URL}, logger.Nop())
	_, err := c.Complete(context.Background(), BuildPrompt(nil, "hello"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")

	unconfigured := NewOpenAIClient(&config.Config{OpenAIBaseURL: srv.URL}, logger.Nop())
	_, err = unconfigured.Complete(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
