package course

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"shams/apperr"
	"shams/models"
	"shams/services/notification"
)

// Enroll creates the enrollment with a blank progress row per lesson. A
// second call for the same (user, course) is a Conflict. Paid courses are
// only enrolled through a completed payment.
func (s *Service) Enroll(ctx context.Context, userID, courseID uint) (*EnrollmentView, error) {
	c, err := s.loadCourse(ctx, courseID, false)
	if err != nil {
		return nil, err
	}
	if c.Price > 0 {
		return nil, apperr.Forbidden("This course is paid, complete the payment to enroll")
	}

	var enrollment *models.Enrollment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		e, created, err := s.grant(ctx, tx, userID, c)
		if err != nil {
			return err
		}
		if !created {
			return apperr.Conflict("You are already enrolled in this course")
		}
		enrollment = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("User enrolled", "user_id", userID, "course_id", c.ID)
	v := toEnrollmentView(*enrollment, c.Title)
	return &v, nil
}

// GrantEnrollment enrolls the user inside tx unless already enrolled. It is
// the entitlement side effect of a completed course payment.
func (s *Service) GrantEnrollment(ctx context.Context, tx *gorm.DB, userID, courseID uint) (bool, error) {
	c, err := s.repos.Courses.GetByID(ctx, tx, courseID)
	if err != nil {
		return false, apperr.Internal("load course", err)
	}
	if c == nil {
		return false, apperr.NotFound("Course not found")
	}
	_, created, err := s.grant(ctx, tx, userID, c)
	return created, err
}

func (s *Service) grant(ctx context.Context, tx *gorm.DB, userID uint, c *models.Course) (*models.Enrollment, bool, error) {
	e := &models.Enrollment{UserID: userID, CourseID: c.ID, EnrolledAt: s.now()}
	created, err := s.repos.Enrollments.CreateIfAbsent(ctx, tx, e)
	if err != nil {
		return nil, false, apperr.Internal("create enrollment", err)
	}
	if !created {
		return nil, false, nil
	}

	lessonIDs, err := s.repos.Lessons.ListIDsByCourse(ctx, tx, c.ID)
	if err != nil {
		return nil, false, apperr.Internal("list lessons", err)
	}
	if err := s.repos.LessonProgress.CreateMissing(ctx, tx, e.ID, lessonIDs); err != nil {
		return nil, false, apperr.Internal("create lesson progress", err)
	}
	if err := s.activity.Record(ctx, tx, userID, models.ActivityCourse, "Enrolled in course", c.Title); err != nil {
		return nil, false, apperr.Internal("record activity", err)
	}
	if err := s.notify.Enqueue(ctx, tx, notification.Event{
		UserID:  userID,
		Type:    models.NotificationCourse,
		Title:   "Enrollment confirmed",
		Message: fmt.Sprintf("You are now enrolled in %q.", c.Title),
		Notify:  true,
		Payload: map[string]interface{}{"course_id": c.ID},
	}); err != nil {
		return nil, false, err
	}
	return e, true, nil
}

type ProgressInput struct {
	IsCompleted  *bool
	LastPosition *int
}

// UpdateLessonProgress upserts the lesson row and recomputes the
// enrollment's percentage from completed lessons.
func (s *Service) UpdateLessonProgress(ctx context.Context, userID, lessonID uint, in ProgressInput) (*ProgressView, error) {
	lesson, err := s.progressLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if in.LastPosition != nil && *in.LastPosition < 0 {
		return nil, apperr.ValidationFields("Validation failed!", map[string]string{"last_position": "must be >= 0"})
	}

	var out *ProgressView
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		enrollment, err := s.repos.Enrollments.GetByUserCourse(ctx, tx, userID, lesson.CourseID)
		if err != nil {
			return apperr.Internal("load enrollment", err)
		}
		if enrollment == nil {
			return apperr.Forbidden("You are not enrolled in this course")
		}

		fields := map[string]interface{}{}
		if in.IsCompleted != nil {
			fields["is_completed"] = *in.IsCompleted
		}
		if in.LastPosition != nil {
			fields["last_position"] = *in.LastPosition
		}
		row, err := s.repos.LessonProgress.Save(ctx, tx, enrollment.ID, lesson.ID, fields)
		if err != nil {
			return apperr.Internal("save lesson progress", err)
		}

		progress, err := s.recompute(ctx, tx, enrollment)
		if err != nil {
			return err
		}

		out = &ProgressView{
			LessonID:       lesson.ID,
			IsCompleted:    row.IsCompleted,
			LastPosition:   row.LastPosition,
			CourseProgress: progress,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// progressLesson loads a lesson for progress tracking. Inactive lessons still
// count toward the course total, so only the course has to be active.
func (s *Service) progressLesson(ctx context.Context, id uint) (*models.Lesson, error) {
	l, err := s.repos.Lessons.GetByID(ctx, nil, id)
	if err != nil {
		return nil, apperr.Internal("load lesson", err)
	}
	if l == nil {
		return nil, apperr.NotFound("Lesson not found")
	}
	if _, err := s.loadCourse(ctx, l.CourseID, false); err != nil {
		return nil, apperr.NotFound("Lesson not found")
	}
	return l, nil
}

// recompute stores floor(100*completed/total) on e and fires the completion
// side effects the first time it reaches 100.
func (s *Service) recompute(ctx context.Context, tx *gorm.DB, e *models.Enrollment) (int, error) {
	total, err := s.repos.Lessons.CountByCourse(ctx, tx, e.CourseID)
	if err != nil {
		return 0, apperr.Internal("count lessons", err)
	}
	done, err := s.repos.LessonProgress.CountCompleted(ctx, tx, e.ID)
	if err != nil {
		return 0, apperr.Internal("count completed lessons", err)
	}
	progress := Percent(done, total)

	completedAt := e.CompletedAt
	justCompleted := false
	if progress >= 100 && completedAt == nil {
		now := s.now()
		completedAt = &now
		justCompleted = true
	} else if progress < 100 {
		completedAt = nil
	}
	if err := s.repos.Enrollments.SetProgress(ctx, tx, e.ID, progress, completedAt); err != nil {
		return 0, apperr.Internal("update enrollment progress", err)
	}
	e.Progress, e.CompletedAt = progress, completedAt

	if justCompleted {
		if err := s.onCourseCompleted(ctx, tx, e.UserID, e.CourseID); err != nil {
			return 0, err
		}
	}
	return progress, nil
}

func (s *Service) onCourseCompleted(ctx context.Context, tx *gorm.DB, userID, courseID uint) error {
	c, err := s.repos.Courses.GetByID(ctx, tx, courseID)
	if err != nil || c == nil {
		return apperr.Internal("load course", err)
	}
	if err := s.activity.Record(ctx, tx, userID, models.ActivityCourse, "Completed course", c.Title); err != nil {
		return apperr.Internal("record activity", err)
	}
	return s.notify.Enqueue(ctx, tx, notification.Event{
		UserID:  userID,
		Type:    models.NotificationCourse,
		Title:   "Course completed",
		Message: fmt.Sprintf("Congratulations! You finished %q.", c.Title),
		Notify:  true,
		Payload: map[string]interface{}{"course_id": c.ID},
	})
}

// Percent is floor(100*done/total), and 0 for a course without lessons.
func Percent(done, total int64) int {
	if total <= 0 {
		return 0
	}
	p := int(done * 100 / total)
	if p > 100 {
		p = 100
	}
	return p
}

// CourseProgress returns the viewer's enrollment in the course.
func (s *Service) CourseProgress(ctx context.Context, userID, courseID uint) (*EnrollmentView, error) {
	c, err := s.loadCourse(ctx, courseID, true)
	if err != nil {
		return nil, err
	}
	e, err := s.repos.Enrollments.GetByUserCourse(ctx, nil, userID, courseID)
	if err != nil {
		return nil, apperr.Internal("load enrollment", err)
	}
	if e == nil {
		return nil, apperr.NotFound("Enrollment not found")
	}
	v := toEnrollmentView(*e, c.Title)
	return &v, nil
}

// ListEnrollments returns the user's enrollments, or everyone's for staff.
func (s *Service) ListEnrollments(ctx context.Context, userID uint, isStaff bool) ([]EnrollmentView, error) {
	owner := userID
	if isStaff {
		owner = 0
	}
	rows, err := s.repos.Enrollments.List(ctx, nil, owner)
	if err != nil {
		return nil, apperr.Internal("list enrollments", err)
	}
	titles := map[uint]string{}
	out := make([]EnrollmentView, 0, len(rows))
	for _, e := range rows {
		title, ok := titles[e.CourseID]
		if !ok {
			c, err := s.repos.Courses.GetByID(ctx, nil, e.CourseID)
			if err != nil {
				return nil, apperr.Internal("load course", err)
			}
			if c != nil {
				title = c.Title
			}
			titles[e.CourseID] = title
		}
		out = append(out, toEnrollmentView(e, title))
	}
	return out, nil
}
