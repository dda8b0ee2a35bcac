package account

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jinzhu/now"

	"shams/apperr"
	"shams/utils/cache"
)

type Overview struct {
	EnrolledCourses     int64   `json:"enrolled_courses"`
	CompletedCourses    int64   `json:"completed_courses"`
	TestsTaken          int64   `json:"tests_taken"`
	AverageScore        float64 `json:"average_score"`
	BooksOwned          int64   `json:"books_owned"`
	AIInteractions      int64   `json:"ai_interactions"`
	AIMessagesToday     int64   `json:"ai_messages_today"`
	UnreadNotifications int64   `json:"unread_notifications"`
}

func dashboardKey(userID uint) string {
	return fmt.Sprintf("%soverview:%d", cache.PrefixDashboard, userID)
}

// Dashboard is cached per user for a few minutes.
func (s *Service) Dashboard(ctx context.Context, userID uint) (*Overview, error) {
	var cached Overview
	if found, err := s.cache.GetJSON(ctx, dashboardKey(userID), &cached); err != nil {
		s.log.Warn("Dashboard cache read failed", "user_id", userID, "error", err)
	} else if found {
		return &cached, nil
	}

	out := &Overview{}
	var err error
	if out.EnrolledCourses, out.CompletedCourses, err = s.repos.Enrollments.CountByUser(ctx, nil, userID); err != nil {
		return nil, apperr.Internal("count enrollments", err)
	}
	stats, err := s.repos.Results.StatsByUser(ctx, nil, userID)
	if err != nil {
		return nil, apperr.Internal("result stats", err)
	}
	out.TestsTaken = stats.Taken
	out.AverageScore = math.Round(stats.Average*100) / 100
	if out.BooksOwned, err = s.repos.Purchases.CountByUser(ctx, nil, userID); err != nil {
		return nil, apperr.Internal("count purchases", err)
	}
	if out.AIInteractions, err = s.repos.Messages.CountUserMessagesSince(ctx, nil, userID, time.Time{}); err != nil {
		return nil, apperr.Internal("count ai messages", err)
	}
	today := now.With(s.now()).BeginningOfDay()
	if out.AIMessagesToday, err = s.repos.Messages.CountUserMessagesSince(ctx, nil, userID, today); err != nil {
		return nil, apperr.Internal("count ai messages", err)
	}
	if out.UnreadNotifications, err = s.repos.Notifications.CountUnread(ctx, nil, userID); err != nil {
		return nil, apperr.Internal("count notifications", err)
	}

	if err := s.cache.SetJSON(ctx, dashboardKey(userID), out, dashboardTTL); err != nil {
		s.log.Warn("Dashboard cache write failed", "user_id", userID, "error", err)
	}
	return out, nil
}
