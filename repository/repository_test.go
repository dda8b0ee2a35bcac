package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"shams/database"
	"shams/models"
	"shams/repository"
	"shams/repository/repotest"
	"shams/utils/logger"
)

func newRepos(t *testing.T) *repository.Repos {
	t.Helper()
	return repository.New(database.OpenTest(t), logger.Nop())
}

func TestIsDuplicate(t *testing.T) {
	assert.False(t, repository.IsDuplicate(nil))
	assert.False(t, repository.IsDuplicate(errors.New("boom")))
	assert.True(t, repository.IsDuplicate(errors.New("UNIQUE constraint failed: enrollments.user_id")))
	assert.True(t, repository.IsDuplicate(errors.New(`ERROR: duplicate key value violates unique constraint "idx"`)))
}

func TestEnrollmentCreateRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)
	u := repotest.SeedUser(t, r.DB, "alice")
	c := repotest.SeedCourse(t, r.DB, "go", 0)

	require.NoError(t, r.Enrollments.Create(ctx, nil, &models.Enrollment{UserID: u.ID, CourseID: c.ID, EnrolledAt: time.Now()}))
	err := r.Enrollments.Create(ctx, nil, &models.Enrollment{UserID: u.ID, CourseID: c.ID, EnrolledAt: time.Now()})
	require.Error(t, err)
	assert.True(t, repository.IsDuplicate(err))
}

func TestLessonProgressSaveUpserts(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)
	u := repotest.SeedUser(t, r.DB, "bob")
	c := repotest.SeedCourse(t, r.DB, "robots", 0)
	lessons := repotest.SeedLessons(t, r.DB, c.ID, 2)
	e := &models.Enrollment{UserID: u.ID, CourseID: c.ID, EnrolledAt: time.Now()}
	require.NoError(t, r.Enrollments.Create(ctx, nil, e))

	require.NoError(t, r.LessonProgress.CreateMissing(ctx, nil, e.ID, []uint{lessons[0].ID, lessons[1].ID}))
	require.NoError(t, r.LessonProgress.CreateMissing(ctx, nil, e.ID, []uint{lessons[0].ID}))

	row, err := r.LessonProgress.Save(ctx, nil, e.ID, lessons[0].ID, map[string]interface{}{"is_completed": true, "last_position": 42})
	require.NoError(t, err)
	assert.True(t, row.IsCompleted)
	assert.Equal(t, 42, row.LastPosition)

	rows, err := r.LessonProgress.ListByEnrollment(ctx, nil, e.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	done, err := r.LessonProgress.CountCompleted(ctx, nil, e.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, done)
}

func TestBookDownloadRecordCountsPerAddress(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)
	u := repotest.SeedUser(t, r.DB, "carol")
	b := repotest.SeedBook(t, r.DB, models.BookStatusFree, 0, 0)
	now := time.Now().UTC()

	require.NoError(t, r.Downloads.Record(ctx, nil, u.ID, b.ID, "10.0.0.1", now))
	require.NoError(t, r.Downloads.Record(ctx, nil, u.ID, b.ID, "10.0.0.1", now))
	require.NoError(t, r.Downloads.Record(ctx, nil, u.ID, b.ID, "10.0.0.2", now))

	total, err := r.Downloads.TotalTimes(ctx, nil, u.ID, b.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)

	var rows []models.BookDownload
	require.NoError(t, r.DB.Where("user_id = ?", u.ID).Order("ip_address").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].Times)
	assert.Equal(t, 1, rows[1].Times)
}

func TestBookListOwnedUnionsFreeAndPurchased(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)
	u := repotest.SeedUser(t, r.DB, "dave")
	free := repotest.SeedBook(t, r.DB, models.BookStatusFree, 0, 0)
	paid := repotest.SeedBook(t, r.DB, models.BookStatusPaid, 10, 0)
	repotest.SeedBook(t, r.DB, models.BookStatusPaid, 20, 0)

	inserted, err := r.Purchases.CreateIfAbsent(ctx, nil, &models.BookPurchase{UserID: u.ID, BookID: paid.ID, PaidAmount: 10, PaymentMethod: models.ProviderPayme, TransactionID: "TRX_1", PaidAt: time.Now()})
	require.NoError(t, err)
	assert.True(t, inserted)
	inserted, err = r.Purchases.CreateIfAbsent(ctx, nil, &models.BookPurchase{UserID: u.ID, BookID: paid.ID, PaidAmount: 10, PaymentMethod: models.ProviderPayme, TransactionID: "TRX_2", PaidAt: time.Now()})
	require.NoError(t, err)
	assert.False(t, inserted)

	books, err := r.Books.ListOwned(ctx, nil, u.ID)
	require.NoError(t, err)
	ids := []uint{}
	for _, b := range books {
		ids = append(ids, b.ID)
	}
	assert.ElementsMatch(t, []uint{free.ID, paid.ID}, ids)
}

func TestPaymentTransitionOnlyOnce(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)
	u := repotest.SeedUser(t, r.DB, "erin")
	p := &models.Payment{UserID: u.ID, PaymentType: models.PaymentTypeBook, Amount: 5, Provider: models.ProviderClick, Status: models.PaymentStatusPending}
	require.NoError(t, r.Payments.Create(ctx, nil, p))

	now := time.Now().UTC()
	ok, err := r.Payments.Transition(ctx, nil, p.ID, models.PaymentStatusCompleted, now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.Payments.Transition(ctx, nil, p.ID, models.PaymentStatusFailed, now)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := r.Payments.GetByID(ctx, nil, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, got.Status)
	assert.NotNil(t, got.CompletedAt)
}

func TestPaymentProviderTransactionUnique(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)
	u := repotest.SeedUser(t, r.DB, "frank")
	txn := "ext-1"
	first := &models.Payment{UserID: u.ID, PaymentType: models.PaymentTypeBook, Amount: 5, Provider: models.ProviderUzum, ProviderTransactionID: &txn, Status: models.PaymentStatusPending}
	require.NoError(t, r.Payments.Create(ctx, nil, first))
	second := &models.Payment{UserID: u.ID, PaymentType: models.PaymentTypeBook, Amount: 5, Provider: models.ProviderUzum, ProviderTransactionID: &txn, Status: models.PaymentStatusPending}
	assert.True(t, repository.IsDuplicate(r.Payments.Create(ctx, nil, second)))

	// same id at another provider is fine
	third := &models.Payment{UserID: u.ID, PaymentType: models.PaymentTypeBook, Amount: 5, Provider: models.ProviderPayme, ProviderTransactionID: &txn, Status: models.PaymentStatusPending}
	require.NoError(t, r.Payments.Create(ctx, nil, third))
}

func TestOutboxClaimIsExclusive(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)
	now := time.Now().UTC()
	ev := &models.OutboxEvent{UserID: 1, Type: models.NotificationSystem, Title: "hi", AvailableAt: now.Add(-time.Second)}
	require.NoError(t, r.Outbox.Enqueue(ctx, nil, ev))

	due, err := r.Outbox.ListDue(ctx, nil, now, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)

	ok, err := r.Outbox.Claim(ctx, nil, ev.ID, now, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = r.Outbox.Claim(ctx, nil, ev.ID, now, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResultStatsByUser(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)
	u := repotest.SeedUser(t, r.DB, "gina")
	t1, _ := repotest.SeedTest(t, r.DB, 1)
	t2, _ := repotest.SeedTest(t, r.DB, 1)
	require.NoError(t, r.Results.Create(ctx, nil, &models.TestResult{UserID: u.ID, TestID: t1.ID, Score: 40, CompletedAt: time.Now()}))
	require.NoError(t, r.Results.Create(ctx, nil, &models.TestResult{UserID: u.ID, TestID: t2.ID, Score: 80, CompletedAt: time.Now()}))

	stats, err := r.Results.StatsByUser(ctx, nil, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Taken)
	assert.InDelta(t, 60.0, stats.Average, 0.001)
}

// sqlite has no row locks, so the locking read is checked on the SQL that the
// postgres dialect renders.
func TestUserLockByIDSelectsForUpdate(t *testing.T) {
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=127.0.0.1 user=shams dbname=shams sslmode=disable"}),
		&gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)

	var statement string
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("test:capture_sql", func(tx *gorm.DB) {
		statement = tx.Statement.SQL.String()
	}))

	r := repository.New(db, logger.Nop())
	_, err = r.Users.LockByID(context.Background(), db, 7)
	require.NoError(t, err)
	assert.Contains(t, statement, `FROM "users"`)
	assert.Contains(t, statement, "FOR UPDATE")
}

func TestUserLockByIDInsideTransaction(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)
	u := repotest.SeedUser(t, r.DB, "locked")

	require.NoError(t, r.DB.Transaction(func(tx *gorm.DB) error {
		got, err := r.Users.LockByID(ctx, tx, u.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, u.ID, got.ID)

		missing, err := r.Users.LockByID(ctx, tx, u.ID+100)
		require.NoError(t, err)
		assert.Nil(t, missing)
		return nil
	}))
}
