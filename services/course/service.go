// Package course serves the catalog and tracks enrollment progress.
package course

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"shams/apperr"
	"shams/models"
	"shams/repository"
	"shams/services/activity"
	"shams/services/notification"
	"shams/utils/logger"
)

type Service struct {
	db       *gorm.DB
	repos    *repository.Repos
	notify   *notification.Service
	activity *activity.Recorder
	now      func() time.Time
	log      *logger.Logger
}

func NewService(repos *repository.Repos, notify *notification.Service, baseLog *logger.Logger) *Service {
	return &Service{
		db:       repos.DB,
		repos:    repos,
		notify:   notify,
		activity: activity.NewRecorder(repos.Activities),
		now:      func() time.Time { return time.Now().UTC() },
		log:      baseLog.With("service", "CourseService"),
	}
}

func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	out, err := s.repos.Categories.ListActive(ctx, nil)
	if err != nil {
		return nil, apperr.Internal("list categories", err)
	}
	return out, nil
}

func (s *Service) GetCategory(ctx context.Context, slug string) (*models.Category, error) {
	c, err := s.repos.Categories.GetBySlug(ctx, nil, slug)
	if err != nil {
		return nil, apperr.Internal("load category", err)
	}
	if c == nil {
		return nil, apperr.NotFound("Category not found")
	}
	return c, nil
}

// ListCourses annotates each course with the viewer's enrollment state.
// viewerID 0 is an anonymous viewer.
func (s *Service) ListCourses(ctx context.Context, viewerID uint, isStaff bool, filter repository.CourseFilter) ([]CourseView, error) {
	filter.ActiveOnly = !isStaff
	courses, err := s.repos.Courses.List(ctx, nil, filter)
	if err != nil {
		return nil, apperr.Internal("list courses", err)
	}
	ids := make([]uint, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
	}
	enrolled, err := s.repos.Enrollments.MapByUser(ctx, nil, viewerID, ids)
	if err != nil {
		return nil, apperr.Internal("load enrollments", err)
	}
	out := make([]CourseView, 0, len(courses))
	for _, c := range courses {
		var e *models.Enrollment
		if row, ok := enrolled[c.ID]; ok {
			e = &row
		}
		out = append(out, toCourseView(c, e))
	}
	return out, nil
}

func (s *Service) loadCourse(ctx context.Context, id uint, isStaff bool) (*models.Course, error) {
	c, err := s.repos.Courses.GetByID(ctx, nil, id)
	if err != nil {
		return nil, apperr.Internal("load course", err)
	}
	if c == nil || (!c.IsActive && !isStaff) {
		return nil, apperr.NotFound("Course not found")
	}
	return c, nil
}

func (s *Service) GetCourse(ctx context.Context, viewerID uint, isStaff bool, id uint) (*CourseDetail, error) {
	c, err := s.loadCourse(ctx, id, isStaff)
	if err != nil {
		return nil, err
	}
	enrollment, err := s.repos.Enrollments.GetByUserCourse(ctx, nil, viewerID, c.ID)
	if err != nil {
		return nil, apperr.Internal("load enrollment", err)
	}
	lessons, err := s.repos.Lessons.List(ctx, nil, c.ID, !isStaff)
	if err != nil {
		return nil, apperr.Internal("list lessons", err)
	}

	progress := map[uint]models.LessonProgress{}
	if enrollment != nil {
		rows, err := s.repos.LessonProgress.ListByEnrollment(ctx, nil, enrollment.ID)
		if err != nil {
			return nil, apperr.Internal("load lesson progress", err)
		}
		for _, p := range rows {
			progress[p.LessonID] = p
		}
	}

	detail := &CourseDetail{
		CourseView: toCourseView(*c, enrollment),
		Lessons:    make([]LessonView, 0, len(lessons)),
	}
	detail.IsCompleted = enrollment != nil && enrollment.Progress >= 100
	for _, l := range lessons {
		var p *models.LessonProgress
		if row, ok := progress[l.ID]; ok {
			p = &row
		}
		detail.Lessons = append(detail.Lessons, toLessonView(l, p))
	}
	return detail, nil
}

type CourseInput struct {
	Title        string
	Slug         string
	Description  string
	Category     string
	Level        string
	ThumbnailURL string
	Price        float64
	IsActive     bool
}

func (s *Service) CreateCourse(ctx context.Context, staffID uint, in CourseInput) (*models.Course, error) {
	slug := in.Slug
	if slug == "" {
		slug = Slugify(in.Title)
	}
	c := &models.Course{
		Title:        strings.TrimSpace(in.Title),
		Slug:         slug,
		Description:  in.Description,
		Category:     in.Category,
		Level:        in.Level,
		ThumbnailURL: in.ThumbnailURL,
		Price:        roundCents(in.Price),
		CreatedByID:  staffID,
		IsActive:     in.IsActive,
	}
	if err := s.repos.Courses.Create(ctx, nil, c); err != nil {
		if repository.IsDuplicate(err) {
			e := apperr.Conflict("Course with this slug already exists")
			e.Fields = map[string]string{"slug": "must be unique"}
			return nil, e
		}
		return nil, apperr.Internal("create course", err)
	}
	return c, nil
}

type CourseUpdate struct {
	Title        *string
	Slug         *string
	Description  *string
	Category     *string
	Level        *string
	ThumbnailURL *string
	Price        *float64
	IsActive     *bool
}

func (s *Service) UpdateCourse(ctx context.Context, id uint, in CourseUpdate) (*models.Course, error) {
	if _, err := s.loadCourse(ctx, id, true); err != nil {
		return nil, err
	}
	fields := map[string]interface{}{}
	if in.Title != nil {
		fields["title"] = strings.TrimSpace(*in.Title)
	}
	if in.Slug != nil {
		fields["slug"] = *in.Slug
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.Category != nil {
		fields["category"] = *in.Category
	}
	if in.Level != nil {
		fields["level"] = *in.Level
	}
	if in.ThumbnailURL != nil {
		fields["thumbnail_url"] = *in.ThumbnailURL
	}
	if in.Price != nil {
		fields["price"] = roundCents(*in.Price)
	}
	if in.IsActive != nil {
		fields["is_active"] = *in.IsActive
	}
	if err := s.repos.Courses.Update(ctx, nil, id, fields); err != nil {
		if repository.IsDuplicate(err) {
			return nil, apperr.Conflict("Course with this slug already exists")
		}
		return nil, apperr.Internal("update course", err)
	}
	return s.loadCourse(ctx, id, true)
}

func (s *Service) DeleteCourse(ctx context.Context, id uint) error {
	if _, err := s.loadCourse(ctx, id, true); err != nil {
		return err
	}
	if err := s.repos.Courses.Delete(ctx, nil, id); err != nil {
		return apperr.Internal("delete course", err)
	}
	return nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func Slugify(title string) string {
	s := nonSlug.ReplaceAllString(strings.ToLower(title), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		s = fmt.Sprintf("course-%d", time.Now().UnixNano())
	}
	return s
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
