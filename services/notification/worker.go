package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"shams/models"
	"shams/repository"
	"shams/utils/logger"
	"shams/utils/mailer"
)

const (
	MaxAttempts = 5
	claimLease  = 2 * time.Minute
	baseBackoff = 30 * time.Second
)

// Worker drains the outbox on a cron schedule.
type Worker struct {
	db            *gorm.DB
	outbox        repository.OutboxRepo
	notifications repository.NotificationRepo
	mailer        mailer.Mailer
	batchSize     int
	now           func() time.Time
	cron          *cron.Cron
	log           *logger.Logger
}

func NewWorker(repos *repository.Repos, m mailer.Mailer, batchSize int, baseLog *logger.Logger) *Worker {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Worker{
		db:            repos.DB,
		outbox:        repos.Outbox,
		notifications: repos.Notifications,
		mailer:        m,
		batchSize:     batchSize,
		now:           func() time.Time { return time.Now().UTC() },
		log:           baseLog.With("worker", "OutboxWorker"),
	}
}

// Start schedules RunOnce with a cron spec such as "@every 5s".
func (w *Worker) Start(spec string) error {
	w.log.Info("[OUTBOX-WORKER] Initializing", "schedule", spec)
	w.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := w.cron.AddFunc(spec, func() {
		if _, err := w.RunOnce(context.Background()); err != nil {
			w.log.Error("[OUTBOX-WORKER] Run failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule outbox worker: %w", err)
	}
	w.cron.Start()
	return nil
}

// Stop waits for a running batch to finish.
func (w *Worker) Stop() {
	if w.cron == nil {
		return
	}
	<-w.cron.Stop().Done()
}

// RunOnce delivers up to one batch of due events and returns how many were
// sent.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	now := w.now()
	due, err := w.outbox.ListDue(ctx, nil, now, w.batchSize)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, ev := range due {
		claimed, err := w.outbox.Claim(ctx, nil, ev.ID, now, claimLease)
		if err != nil {
			return sent, err
		}
		if !claimed {
			continue
		}

		if err := w.deliver(ctx, ev); err != nil {
			w.fail(ctx, ev, err, now)
			continue
		}
		if err := w.outbox.MarkSent(ctx, nil, ev.ID, w.now()); err != nil {
			return sent, err
		}
		sent++
	}
	if sent > 0 {
		w.log.Debug("[OUTBOX-WORKER] Batch delivered", "sent", sent, "due", len(due))
	}
	return sent, nil
}

func (w *Worker) deliver(ctx context.Context, ev models.OutboxEvent) error {
	if ev.Notify {
		err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			n := &models.Notification{
				UserID:  ev.UserID,
				Type:    ev.Type,
				Title:   ev.Title,
				Message: ev.Message,
			}
			if err := w.notifications.Create(ctx, tx, n); err != nil {
				return err
			}
			return w.outbox.ClearNotify(ctx, tx, ev.ID)
		})
		if err != nil {
			return fmt.Errorf("create notification: %w", err)
		}
	}
	if ev.EmailTo != "" {
		if err := w.mailer.Send(ctx, ev.EmailTo, ev.EmailSubject, ev.EmailBody); err != nil {
			return fmt.Errorf("send email: %w", err)
		}
	}
	return nil
}

func (w *Worker) fail(ctx context.Context, ev models.OutboxEvent, cause error, now time.Time) {
	attempts := ev.Attempts + 1
	if attempts >= MaxAttempts {
		w.log.Error("[OUTBOX-WORKER] Giving up on event", "event_id", ev.ID, "attempts", attempts, "error", cause)
		if err := w.outbox.MarkFailed(ctx, nil, ev.ID, attempts, cause.Error()); err != nil {
			w.log.Error("[OUTBOX-WORKER] Mark failed", "event_id", ev.ID, "error", err)
		}
		return
	}
	next := now.Add(Backoff(attempts))
	w.log.Warn("[OUTBOX-WORKER] Delivery failed, will retry", "event_id", ev.ID, "attempts", attempts, "next", next, "error", cause)
	if err := w.outbox.MarkRetry(ctx, nil, ev.ID, attempts, cause.Error(), next); err != nil {
		w.log.Error("[OUTBOX-WORKER] Mark retry", "event_id", ev.ID, "error", err)
	}
}

// Backoff doubles from 30s: 30s, 1m, 2m, 4m.
func Backoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	return baseBackoff << (attempts - 1)
}
