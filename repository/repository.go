// Package repository holds one repo per entity. Every method takes an
// optional transaction handle; a nil tx runs against the base connection.
package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"shams/utils/logger"
)

// IsDuplicate reports whether err is a unique-constraint violation.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}

func use(db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}

// findOne returns nil, nil when the query matches nothing.
func findOne[T any](q *gorm.DB) (*T, error) {
	var out T
	err := q.Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func likePattern(s string) string {
	return "%" + strings.ToLower(strings.TrimSpace(s)) + "%"
}

// Repos bundles every repository behind one constructor.
type Repos struct {
	DB             *gorm.DB
	Users          UserRepo
	Tokens         TokenRepo
	Activities     ActivityRepo
	Categories     CategoryRepo
	Courses        CourseRepo
	Lessons        LessonRepo
	Enrollments    EnrollmentRepo
	LessonProgress LessonProgressRepo
	Tests          TestRepo
	Questions      QuestionRepo
	Results        TestResultRepo
	Books          BookRepo
	Purchases      BookPurchaseRepo
	Downloads      BookDownloadRepo
	Payments       PaymentRepo
	Notifications  NotificationRepo
	Outbox         OutboxRepo
	Conversations  ConversationRepo
	Messages       MessageRepo
}

func New(db *gorm.DB, baseLog *logger.Logger) *Repos {
	return &Repos{
		DB:             db,
		Users:          NewUserRepo(db, baseLog),
		Tokens:         NewTokenRepo(db, baseLog),
		Activities:     NewActivityRepo(db, baseLog),
		Categories:     NewCategoryRepo(db, baseLog),
		Courses:        NewCourseRepo(db, baseLog),
		Lessons:        NewLessonRepo(db, baseLog),
		Enrollments:    NewEnrollmentRepo(db, baseLog),
		LessonProgress: NewLessonProgressRepo(db, baseLog),
		Tests:          NewTestRepo(db, baseLog),
		Questions:      NewQuestionRepo(db, baseLog),
		Results:        NewTestResultRepo(db, baseLog),
		Books:          NewBookRepo(db, baseLog),
		Purchases:      NewBookPurchaseRepo(db, baseLog),
		Downloads:      NewBookDownloadRepo(db, baseLog),
		Payments:       NewPaymentRepo(db, baseLog),
		Notifications:  NewNotificationRepo(db, baseLog),
		Outbox:         NewOutboxRepo(db, baseLog),
		Conversations:  NewConversationRepo(db, baseLog),
		Messages:       NewMessageRepo(db, baseLog),
	}
}
