// Package activity appends entries to a user's activity feed.
package activity

import (
	"context"

	"gorm.io/gorm"

	"shams/models"
	"shams/repository"
)

type Recorder struct {
	repo repository.ActivityRepo
}

func NewRecorder(repo repository.ActivityRepo) *Recorder {
	return &Recorder{repo: repo}
}

// Record writes inside tx when one is given so the entry commits with the
// change it describes.
func (r *Recorder) Record(ctx context.Context, tx *gorm.DB, userID uint, kind, title, description string) error {
	return r.repo.Create(ctx, tx, &models.UserActivity{
		UserID:       userID,
		ActivityType: kind,
		Title:        title,
		Description:  description,
	})
}

// Recent returns the newest entries first; limit <= 0 returns all of them.
func (r *Recorder) Recent(ctx context.Context, userID uint, limit int) ([]models.UserActivity, error) {
	return r.repo.ListByUser(ctx, nil, userID, limit)
}
