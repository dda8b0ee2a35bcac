package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shams/apperr"
	"shams/database"
	"shams/models"
	"shams/repository"
	"shams/utils/logger"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, to+"|"+subject)
	return nil
}

func setup(t *testing.T) (*repository.Repos, *Service) {
	t.Helper()
	repos := repository.New(database.OpenTest(t), logger.Nop())
	return repos, NewService(repos, logger.Nop())
}

func TestWorkerDeliversNotificationAndEmail(t *testing.T) {
	ctx := context.Background()
	repos, svc := setup(t)
	m := &fakeMailer{}
	w := NewWorker(repos, m, 10, logger.Nop())

	require.NoError(t, svc.Enqueue(ctx, nil, Event{
		UserID:       7,
		Type:         models.NotificationPayment,
		Title:        "Payment completed",
		Message:      "Thanks",
		Notify:       true,
		EmailTo:      "u@example.com",
		EmailSubject: "Payment received",
		EmailBody:    "<p>ok</p>",
		Payload:      map[string]interface{}{"payment_id": 3},
	}))

	sent, err := w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []string{"u@example.com|Payment received"}, m.sent)

	list, err := svc.List(ctx, 7)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Payment completed", list[0].Title)

	// nothing left to deliver
	sent, err = w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
}

func TestWorkerRetriesWithoutDuplicatingNotification(t *testing.T) {
	ctx := context.Background()
	repos, svc := setup(t)
	m := &fakeMailer{err: errors.New("smtp down")}
	w := NewWorker(repos, m, 10, logger.Nop())

	require.NoError(t, svc.Enqueue(ctx, nil, Event{UserID: 1, Type: models.NotificationWelcome, Title: "Welcome", Notify: true, EmailTo: "a@b.c", EmailSubject: "Hi"}))

	base := time.Now().UTC()
	w.now = func() time.Time { return base }
	sent, err := w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)

	var ev models.OutboxEvent
	require.NoError(t, repos.DB.First(&ev).Error)
	assert.Equal(t, models.OutboxPending, ev.Status)
	assert.Equal(t, 1, ev.Attempts)
	assert.False(t, ev.Notify)
	assert.Contains(t, ev.LastError, "smtp down")

	// not due yet
	sent, err = w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)

	m.err = nil
	w.now = func() time.Time { return base.Add(time.Hour) }
	sent, err = w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	count, err := svc.UnreadCount(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestWorkerMarksFailedAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	repos, svc := setup(t)
	m := &fakeMailer{err: errors.New("rejected")}
	w := NewWorker(repos, m, 10, logger.Nop())
	require.NoError(t, svc.Enqueue(ctx, nil, Event{UserID: 1, Type: models.NotificationSystem, EmailTo: "a@b.c"}))

	base := time.Now().UTC()
	for i := 0; i < MaxAttempts; i++ {
		at := base.Add(time.Duration(i) * time.Hour)
		w.now = func() time.Time { return at }
		_, err := w.RunOnce(ctx)
		require.NoError(t, err)
	}

	var ev models.OutboxEvent
	require.NoError(t, repos.DB.First(&ev).Error)
	assert.Equal(t, models.OutboxFailed, ev.Status)
	assert.Equal(t, MaxAttempts, ev.Attempts)
}

func TestMarkReadScopedToOwner(t *testing.T) {
	ctx := context.Background()
	repos, svc := setup(t)
	n := &models.Notification{UserID: 1, Type: models.NotificationSystem, Title: "x"}
	require.NoError(t, repos.Notifications.Create(ctx, nil, n))
	require.NoError(t, repos.Notifications.Create(ctx, nil, &models.Notification{UserID: 1, Type: models.NotificationSystem, Title: "y"}))

	err := svc.MarkRead(ctx, 2, n.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	require.NoError(t, svc.MarkRead(ctx, 1, n.ID))
	count, err := svc.UnreadCount(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	updated, err := svc.MarkAllRead(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, updated)
}

func TestBackoffDoubles(t *testing.T) {
	assert.Equal(t, 30*time.Second, Backoff(1))
	assert.Equal(t, time.Minute, Backoff(2))
	assert.Equal(t, 4*time.Minute, Backoff(4))
}
