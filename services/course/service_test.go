package course

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"shams/apperr"
	"shams/database"
	"shams/models"
	"shams/repository"
	"shams/repository/repotest"
	"shams/services/notification"
	"shams/utils/logger"
)

func newService(t *testing.T) (*Service, *repository.Repos) {
	t.Helper()
	repos := repository.New(database.OpenTest(t), logger.Nop())
	return NewService(repos, notification.NewService(repos, logger.Nop()), logger.Nop()), repos
}

func boolPtr(b bool) *bool { return &b }

func TestEnrollTwiceIsConflict(t *testing.T) {
	ctx := context.Background()
	s, repos := newService(t)
	u := repotest.SeedUser(t, repos.DB, "alice")
	c := repotest.SeedCourse(t, repos.DB, "go", 0)
	repotest.SeedLessons(t, repos.DB, c.ID, 3)

	e, err := s.Enroll(ctx, u.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, e.Progress)

	_, err = s.Enroll(ctx, u.ID, c.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	var n int64
	require.NoError(t, repos.DB.Model(&models.Enrollment{}).Where("user_id = ? AND course_id = ?", u.ID, c.ID).Count(&n).Error)
	assert.EqualValues(t, 1, n)

	var progress []models.LessonProgress
	require.NoError(t, repos.DB.Where("enrollment_id = ?", e.ID).Find(&progress).Error)
	assert.Len(t, progress, 3)
	for _, p := range progress {
		assert.False(t, p.IsCompleted)
		assert.Equal(t, 0, p.LastPosition)
	}

	var events int64
	require.NoError(t, repos.DB.Model(&models.OutboxEvent{}).Where("user_id = ? AND type = ?", u.ID, models.NotificationCourse).Count(&events).Error)
	assert.EqualValues(t, 1, events)
}

func TestEnrollUnknownOrInactiveCourse(t *testing.T) {
	ctx := context.Background()
	s, repos := newService(t)
	u := repotest.SeedUser(t, repos.DB, "bob")
	c := repotest.SeedCourse(t, repos.DB, "hidden", 0)
	require.NoError(t, repos.DB.Model(c).Update("is_active", false).Error)

	_, err := s.Enroll(ctx, u.ID, 9999)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	_, err = s.Enroll(ctx, u.ID, c.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestProgressReachesHundred(t *testing.T) {
	ctx := context.Background()
	s, repos := newService(t)
	u := repotest.SeedUser(t, repos.DB, "carol")
	c := repotest.SeedCourse(t, repos.DB, "robotics", 0)
	lessons := repotest.SeedLessons(t, repos.DB, c.ID, 3)
	_, err := s.Enroll(ctx, u.ID, c.ID)
	require.NoError(t, err)

	p, err := s.UpdateLessonProgress(ctx, u.ID, lessons[0].ID, ProgressInput{IsCompleted: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, 33, p.CourseProgress)

	pos := 120
	p, err = s.UpdateLessonProgress(ctx, u.ID, lessons[1].ID, ProgressInput{LastPosition: &pos})
	require.NoError(t, err)
	assert.Equal(t, 33, p.CourseProgress)
	assert.Equal(t, 120, p.LastPosition)
	assert.False(t, p.IsCompleted)

	for _, l := range lessons {
		_, err = s.UpdateLessonProgress(ctx, u.ID, l.ID, ProgressInput{IsCompleted: boolPtr(true)})
		require.NoError(t, err)
	}

	view, err := s.CourseProgress(ctx, u.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, view.Progress)
	assert.NotNil(t, view.CompletedAt)

	// un-completing a lesson drops the percentage and clears completion
	p, err = s.UpdateLessonProgress(ctx, u.ID, lessons[2].ID, ProgressInput{IsCompleted: boolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, 66, p.CourseProgress)
	view, err = s.CourseProgress(ctx, u.ID, c.ID)
	require.NoError(t, err)
	assert.Nil(t, view.CompletedAt)
}

func TestProgressCountsLessonsAddedAfterEnrollment(t *testing.T) {
	ctx := context.Background()
	s, repos := newService(t)
	u := repotest.SeedUser(t, repos.DB, "dan")
	c := repotest.SeedCourse(t, repos.DB, "ai", 0)
	first := repotest.SeedLessons(t, repos.DB, c.ID, 1)
	_, err := s.Enroll(ctx, u.ID, c.ID)
	require.NoError(t, err)

	late, err := s.CreateLesson(ctx, LessonInput{CourseID: c.ID, Title: "Late", Order: 2, IsActive: true})
	require.NoError(t, err)

	p, err := s.UpdateLessonProgress(ctx, u.ID, late.ID, ProgressInput{IsCompleted: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, 50, p.CourseProgress)

	p, err = s.UpdateLessonProgress(ctx, u.ID, first[0].ID, ProgressInput{IsCompleted: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, 100, p.CourseProgress)
}

func TestUpdateProgressRequiresEnrollment(t *testing.T) {
	ctx := context.Background()
	s, repos := newService(t)
	u := repotest.SeedUser(t, repos.DB, "eve")
	c := repotest.SeedCourse(t, repos.DB, "x", 0)
	lessons := repotest.SeedLessons(t, repos.DB, c.ID, 1)

	_, err := s.UpdateLessonProgress(ctx, u.ID, lessons[0].ID, ProgressInput{IsCompleted: boolPtr(true)})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	_, err = s.UpdateLessonProgress(ctx, u.ID, 12345, ProgressInput{})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestViewerAnnotations(t *testing.T) {
	ctx := context.Background()
	s, repos := newService(t)
	u := repotest.SeedUser(t, repos.DB, "finn")
	other := repotest.SeedUser(t, repos.DB, "gail")
	c := repotest.SeedCourse(t, repos.DB, "annotated", 0)
	lessons := repotest.SeedLessons(t, repos.DB, c.ID, 2)
	_, err := s.Enroll(ctx, u.ID, c.ID)
	require.NoError(t, err)
	_, err = s.UpdateLessonProgress(ctx, u.ID, lessons[0].ID, ProgressInput{IsCompleted: boolPtr(true)})
	require.NoError(t, err)

	anon, err := s.GetCourse(ctx, 0, false, c.ID)
	require.NoError(t, err)
	assert.False(t, anon.IsEnrolled)
	assert.Equal(t, 0, anon.Progress)

	stranger, err := s.ListCourses(ctx, other.ID, false, repository.CourseFilter{})
	require.NoError(t, err)
	require.Len(t, stranger, 1)
	assert.False(t, stranger[0].IsEnrolled)

	mine, err := s.GetCourse(ctx, u.ID, false, c.ID)
	require.NoError(t, err)
	assert.True(t, mine.IsEnrolled)
	assert.Equal(t, 50, mine.Progress)
	require.Len(t, mine.Lessons, 2)
	assert.True(t, mine.Lessons[0].IsCompleted)
	assert.False(t, mine.Lessons[1].IsCompleted)
}

func TestInactiveCoursesHiddenFromStudents(t *testing.T) {
	ctx := context.Background()
	s, repos := newService(t)
	c := repotest.SeedCourse(t, repos.DB, "draft", 0)
	require.NoError(t, repos.DB.Model(c).Update("is_active", false).Error)
	repotest.SeedCourse(t, repos.DB, "live", 0)

	list, err := s.ListCourses(ctx, 0, false, repository.CourseFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = s.ListCourses(ctx, 0, true, repository.CourseFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = s.GetCourse(ctx, 0, false, c.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCourseSlugAndLessonOrderAreUnique(t *testing.T) {
	ctx := context.Background()
	s, repos := newService(t)
	staff := repotest.SeedStaff(t, repos.DB, "staff")

	c, err := s.CreateCourse(ctx, staff.ID, CourseInput{Title: "Intro to AI", Category: models.CategoryAI, Level: models.LevelBeginner, Price: 19.999, IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, "intro-to-ai", c.Slug)
	assert.Equal(t, 20.0, c.Price)

	_, err = s.CreateCourse(ctx, staff.ID, CourseInput{Title: "Intro to AI!", IsActive: true})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = s.CreateLesson(ctx, LessonInput{CourseID: c.ID, Title: "One", Order: 1})
	require.NoError(t, err)
	_, err = s.CreateLesson(ctx, LessonInput{CourseID: c.ID, Title: "Also one", Order: 1})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestGrantEnrollmentIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, repos := newService(t)
	u := repotest.SeedUser(t, repos.DB, "hank")
	c := repotest.SeedCourse(t, repos.DB, "paid", 50)

	var first, second bool
	require.NoError(t, repos.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		first, err = s.GrantEnrollment(ctx, tx, u.ID, c.ID)
		return err
	}))
	require.NoError(t, repos.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		second, err = s.GrantEnrollment(ctx, tx, u.ID, c.ID)
		return err
	}))
	assert.True(t, first)
	assert.False(t, second)
}

func TestDeleteCourseCascades(t *testing.T) {
	ctx := context.Background()
	s, repos := newService(t)
	u := repotest.SeedUser(t, repos.DB, "ivy")
	c := repotest.SeedCourse(t, repos.DB, "gone", 0)
	repotest.SeedLessons(t, repos.DB, c.ID, 2)
	_, err := s.Enroll(ctx, u.ID, c.ID)
	require.NoError(t, err)

	require.NoError(t, s.DeleteCourse(ctx, c.ID))
	var n int64
	require.NoError(t, repos.DB.Model(&models.LessonProgress{}).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, repos.DB.Model(&models.Enrollment{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0, Percent(0, 0))
	assert.Equal(t, 33, Percent(1, 3))
	assert.Equal(t, 66, Percent(2, 3))
	assert.Equal(t, 100, Percent(3, 3))
}

func TestInactiveLessonStillTrackable(t *testing.T) {
	ctx := context.Background()
	s, repos := newService(t)
	u := repotest.SeedUser(t, repos.DB, "jack")
	c := repotest.SeedCourse(t, repos.DB, "draft", 0)
	lessons := repotest.SeedLessons(t, repos.DB, c.ID, 3)
	_, err := s.Enroll(ctx, u.ID, c.ID)
	require.NoError(t, err)
	require.NoError(t, repos.DB.Model(&lessons[2]).Update("is_active", false).Error)

	var last *ProgressView
	for _, l := range lessons {
		last, err = s.UpdateLessonProgress(ctx, u.ID, l.ID, ProgressInput{IsCompleted: boolPtr(true)})
		require.NoError(t, err, "lesson %d", l.ID)
	}
	assert.Equal(t, 100, last.CourseProgress)

	_, err = s.GetLesson(ctx, u.ID, false, lessons[2].ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "inactive lessons stay hidden from the catalog")

	require.NoError(t, repos.DB.Model(c).Update("is_active", false).Error)
	_, err = s.UpdateLessonProgress(ctx, u.ID, lessons[0].ID, ProgressInput{IsCompleted: boolPtr(true)})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestDeleteLessonRecomputesProgress(t *testing.T) {
	ctx := context.Background()
	s, repos := newService(t)
	u := repotest.SeedUser(t, repos.DB, "kate")
	other := repotest.SeedUser(t, repos.DB, "liam")
	c := repotest.SeedCourse(t, repos.DB, "shrinking", 0)
	lessons := repotest.SeedLessons(t, repos.DB, c.ID, 2)
	_, err := s.Enroll(ctx, u.ID, c.ID)
	require.NoError(t, err)
	_, err = s.Enroll(ctx, other.ID, c.ID)
	require.NoError(t, err)

	p, err := s.UpdateLessonProgress(ctx, u.ID, lessons[0].ID, ProgressInput{IsCompleted: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, 50, p.CourseProgress)

	require.NoError(t, s.DeleteLesson(ctx, lessons[1].ID))

	view, err := s.CourseProgress(ctx, u.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, view.Progress)
	assert.NotNil(t, view.CompletedAt)

	view, err = s.CourseProgress(ctx, other.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, view.Progress)
	assert.Nil(t, view.CompletedAt)

	var completed int64
	require.NoError(t, repos.DB.Model(&models.OutboxEvent{}).
		Where("user_id = ? AND title = ?", u.ID, "Course completed").Count(&completed).Error)
	assert.EqualValues(t, 1, completed)

	var rows int64
	require.NoError(t, repos.DB.Model(&models.LessonProgress{}).Where("lesson_id = ?", lessons[1].ID).Count(&rows).Error)
	assert.Zero(t, rows)
}

func TestEnrollPaidCourseNeedsPayment(t *testing.T) {
	ctx := context.Background()
	s, repos := newService(t)
	u := repotest.SeedUser(t, repos.DB, "mona")
	c := repotest.SeedCourse(t, repos.DB, "premium", 99)

	_, err := s.Enroll(ctx, u.ID, c.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	var n int64
	require.NoError(t, repos.DB.Model(&models.Enrollment{}).Where("user_id = ?", u.ID).Count(&n).Error)
	assert.Zero(t, n)
}
