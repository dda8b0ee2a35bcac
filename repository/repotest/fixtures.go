// Package repotest seeds rows for tests that run against database.OpenTest.
package repotest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"shams/models"
)

func SeedUser(tb testing.TB, db *gorm.DB, username string) *models.User {
	tb.Helper()
	u := &models.User{
		Username:   username,
		Email:      username + "@example.com",
		Password:   "hash",
		FullName:   username,
		IsVerified: true,
	}
	if err := db.Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedStaff(tb testing.TB, db *gorm.DB, username string) *models.User {
	tb.Helper()
	u := SeedUser(tb, db, username)
	if err := db.Model(u).Update("is_staff", true).Error; err != nil {
		tb.Fatalf("seed staff: %v", err)
	}
	u.IsStaff = true
	return u
}

func SeedCourse(tb testing.TB, db *gorm.DB, title string, price float64) *models.Course {
	tb.Helper()
	c := &models.Course{
		Title:    title,
		Slug:     fmt.Sprintf("%s-%s", title, uuid.NewString()[:8]),
		Category: models.CategoryAI,
		Level:    models.LevelBeginner,
		Price:    price,
		IsActive: true,
	}
	if err := db.Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

func SeedLessons(tb testing.TB, db *gorm.DB, courseID uint, n int) []models.Lesson {
	tb.Helper()
	out := make([]models.Lesson, 0, n)
	for i := 1; i <= n; i++ {
		l := models.Lesson{CourseID: courseID, Title: fmt.Sprintf("Lesson %d", i), Order: i, IsActive: true}
		if err := db.Create(&l).Error; err != nil {
			tb.Fatalf("seed lesson: %v", err)
		}
		out = append(out, l)
	}
	return out
}

func SeedBook(tb testing.TB, db *gorm.DB, status models.BookStatus, price, discount float64) *models.Book {
	tb.Helper()
	b := &models.Book{
		Title:    "Book " + uuid.NewString()[:8],
		Author:   "Author",
		Category: models.CategoryProgramming,
		FileURL:  "https://files.example.com/book.pdf",
		Status:   status,
		Price:    price,
		Discount: discount,
		IsActive: true,
	}
	if err := db.Create(b).Error; err != nil {
		tb.Fatalf("seed book: %v", err)
	}
	return b
}

// SeedTest creates a test whose questions all have "A" as the correct option.
func SeedTest(tb testing.TB, db *gorm.DB, questions int) (*models.Test, []models.Question) {
	tb.Helper()
	t := &models.Test{Title: "Quiz", Category: models.CategoryAI, TimeLimit: 30, IsActive: true}
	if err := db.Create(t).Error; err != nil {
		tb.Fatalf("seed test: %v", err)
	}
	qs := make([]models.Question, 0, questions)
	for i := 1; i <= questions; i++ {
		q := models.Question{
			TestID:        t.ID,
			Text:          fmt.Sprintf("Question %d", i),
			OptionA:       "a",
			OptionB:       "b",
			OptionC:       "c",
			OptionD:       "d",
			CorrectOption: models.OptionA,
		}
		if err := db.Create(&q).Error; err != nil {
			tb.Fatalf("seed question: %v", err)
		}
		qs = append(qs, q)
	}
	return t, qs
}
