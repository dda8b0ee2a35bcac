package course

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"shams/apperr"
	"shams/models"
	"shams/repository"
)

// ListLessons hides lessons of inactive courses and inactive lessons from
// non-staff viewers. courseID 0 lists every course.
func (s *Service) ListLessons(ctx context.Context, isStaff bool, courseID uint) ([]LessonView, error) {
	lessons, err := s.repos.Lessons.List(ctx, nil, courseID, !isStaff)
	if err != nil {
		return nil, apperr.Internal("list lessons", err)
	}
	active := map[uint]bool{}
	out := make([]LessonView, 0, len(lessons))
	for _, l := range lessons {
		if !isStaff {
			ok, seen := active[l.CourseID]
			if !seen {
				c, err := s.repos.Courses.GetByID(ctx, nil, l.CourseID)
				if err != nil {
					return nil, apperr.Internal("load course", err)
				}
				ok = c != nil && c.IsActive
				active[l.CourseID] = ok
			}
			if !ok {
				continue
			}
		}
		out = append(out, toLessonView(l, nil))
	}
	return out, nil
}

func (s *Service) loadLesson(ctx context.Context, id uint, isStaff bool) (*models.Lesson, error) {
	l, err := s.repos.Lessons.GetByID(ctx, nil, id)
	if err != nil {
		return nil, apperr.Internal("load lesson", err)
	}
	if l == nil {
		return nil, apperr.NotFound("Lesson not found")
	}
	if !isStaff {
		if !l.IsActive {
			return nil, apperr.NotFound("Lesson not found")
		}
		if _, err := s.loadCourse(ctx, l.CourseID, false); err != nil {
			return nil, apperr.NotFound("Lesson not found")
		}
	}
	return l, nil
}

// GetLesson includes the viewer's progress when they are enrolled.
func (s *Service) GetLesson(ctx context.Context, viewerID uint, isStaff bool, id uint) (*LessonView, error) {
	l, err := s.loadLesson(ctx, id, isStaff)
	if err != nil {
		return nil, err
	}
	var p *models.LessonProgress
	e, err := s.repos.Enrollments.GetByUserCourse(ctx, nil, viewerID, l.CourseID)
	if err != nil {
		return nil, apperr.Internal("load enrollment", err)
	}
	if e != nil {
		if p, err = s.repos.LessonProgress.Get(ctx, nil, e.ID, l.ID); err != nil {
			return nil, apperr.Internal("load lesson progress", err)
		}
	}
	v := toLessonView(*l, p)
	return &v, nil
}

type LessonInput struct {
	CourseID    uint
	Title       string
	VideoURL    string
	Description string
	Order       int
	IsActive    bool
}

func (s *Service) CreateLesson(ctx context.Context, in LessonInput) (*models.Lesson, error) {
	if _, err := s.loadCourse(ctx, in.CourseID, true); err != nil {
		return nil, err
	}
	l := &models.Lesson{
		CourseID:    in.CourseID,
		Title:       strings.TrimSpace(in.Title),
		VideoURL:    in.VideoURL,
		Description: in.Description,
		Order:       in.Order,
		IsActive:    in.IsActive,
	}
	if err := s.repos.Lessons.Create(ctx, nil, l); err != nil {
		if repository.IsDuplicate(err) {
			return nil, duplicateOrder()
		}
		return nil, apperr.Internal("create lesson", err)
	}
	return l, nil
}

type LessonUpdate struct {
	Title       *string
	VideoURL    *string
	Description *string
	Order       *int
	IsActive    *bool
}

func (s *Service) UpdateLesson(ctx context.Context, id uint, in LessonUpdate) (*models.Lesson, error) {
	if _, err := s.loadLesson(ctx, id, true); err != nil {
		return nil, err
	}
	fields := map[string]interface{}{}
	if in.Title != nil {
		fields["title"] = strings.TrimSpace(*in.Title)
	}
	if in.VideoURL != nil {
		fields["video_url"] = *in.VideoURL
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.Order != nil {
		fields["sort_order"] = *in.Order
	}
	if in.IsActive != nil {
		fields["is_active"] = *in.IsActive
	}
	if err := s.repos.Lessons.Update(ctx, nil, id, fields); err != nil {
		if repository.IsDuplicate(err) {
			return nil, duplicateOrder()
		}
		return nil, apperr.Internal("update lesson", err)
	}
	return s.loadLesson(ctx, id, true)
}

// DeleteLesson removes the lesson with its progress rows and recomputes every
// enrollment of the course against the new lesson total.
func (s *Service) DeleteLesson(ctx context.Context, id uint) error {
	l, err := s.loadLesson(ctx, id, true)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		enrollments, err := s.repos.Enrollments.ListByCourse(ctx, tx, l.CourseID)
		if err != nil {
			return apperr.Internal("list enrollments", err)
		}
		if err := s.repos.Lessons.Delete(ctx, tx, id); err != nil {
			return apperr.Internal("delete lesson", err)
		}
		for i := range enrollments {
			if _, err := s.recompute(ctx, tx, &enrollments[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func duplicateOrder() error {
	e := apperr.Conflict("A lesson with this order already exists in the course")
	e.Fields = map[string]string{"order": "must be unique within the course"}
	return e
}
