// Package assessment serves tests and scores one-shot submissions.
package assessment

import (
	"context"
	"fmt"
	"math/rand"
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
	shuffle  func(n int, swap func(i, j int))
	log      *logger.Logger
}

func NewService(repos *repository.Repos, notify *notification.Service, baseLog *logger.Logger) *Service {
	return &Service{
		db:       repos.DB,
		repos:    repos,
		notify:   notify,
		activity: activity.NewRecorder(repos.Activities),
		now:      func() time.Time { return time.Now().UTC() },
		shuffle:  rand.Shuffle,
		log:      baseLog.With("service", "AssessmentService"),
	}
}

type QuestionView struct {
	ID            uint   `json:"id"`
	Text          string `json:"text"`
	OptionA       string `json:"option_a"`
	OptionB       string `json:"option_b"`
	OptionC       string `json:"option_c"`
	OptionD       string `json:"option_d"`
	CorrectOption string `json:"correct_option,omitempty"`
}

type TestView struct {
	ID             uint      `json:"id"`
	Title          string    `json:"title"`
	Category       string    `json:"category"`
	Description    string    `json:"description"`
	TimeLimit      int       `json:"time_limit"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	QuestionsCount int64     `json:"questions_count"`
	IsCompleted    bool      `json:"is_completed"`
}

type TestDetail struct {
	TestView
	Questions []QuestionView `json:"questions"`
}

type ResultView struct {
	ID               uint      `json:"id"`
	TestID           uint      `json:"test_id"`
	TestTitle        string    `json:"test_title"`
	Score            int       `json:"score"`
	Total            int       `json:"total"`
	CorrectAnswers   int       `json:"correct_answers"`
	IncorrectAnswers int       `json:"incorrect_answers"`
	TimeSpent        int       `json:"time_spent"`
	Message          string    `json:"message"`
	CompletedAt      time.Time `json:"completed_at"`
}

func (s *Service) ListTests(ctx context.Context, viewerID uint, isStaff bool, filter repository.TestFilter) ([]TestView, error) {
	filter.ActiveOnly = !isStaff
	tests, err := s.repos.Tests.List(ctx, nil, filter)
	if err != nil {
		return nil, apperr.Internal("list tests", err)
	}
	out := make([]TestView, 0, len(tests))
	for _, t := range tests {
		v, err := s.testView(ctx, viewerID, t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *Service) testView(ctx context.Context, viewerID uint, t models.Test) (TestView, error) {
	count, err := s.repos.Questions.CountByTest(ctx, nil, t.ID)
	if err != nil {
		return TestView{}, apperr.Internal("count questions", err)
	}
	v := TestView{
		ID:             t.ID,
		Title:          t.Title,
		Category:       t.Category,
		Description:    t.Description,
		TimeLimit:      t.TimeLimit,
		IsActive:       t.IsActive,
		CreatedAt:      t.CreatedAt,
		QuestionsCount: count,
	}
	if viewerID != 0 {
		r, err := s.repos.Results.GetByUserTest(ctx, nil, viewerID, t.ID)
		if err != nil {
			return TestView{}, apperr.Internal("load result", err)
		}
		v.IsCompleted = r != nil
	}
	return v, nil
}

func (s *Service) loadTest(ctx context.Context, id uint, isStaff bool) (*models.Test, error) {
	t, err := s.repos.Tests.GetByID(ctx, nil, id)
	if err != nil {
		return nil, apperr.Internal("load test", err)
	}
	if t == nil || (!t.IsActive && !isStaff) {
		return nil, apperr.NotFound("Test not found")
	}
	return t, nil
}

// GetTest shuffles the questions on every call. The answer key is only
// included for staff.
func (s *Service) GetTest(ctx context.Context, viewerID uint, isStaff bool, id uint) (*TestDetail, error) {
	t, err := s.loadTest(ctx, id, isStaff)
	if err != nil {
		return nil, err
	}
	v, err := s.testView(ctx, viewerID, *t)
	if err != nil {
		return nil, err
	}
	questions, err := s.repos.Questions.ListByTest(ctx, nil, t.ID)
	if err != nil {
		return nil, apperr.Internal("list questions", err)
	}
	s.shuffle(len(questions), func(i, j int) { questions[i], questions[j] = questions[j], questions[i] })

	detail := &TestDetail{TestView: v, Questions: make([]QuestionView, 0, len(questions))}
	for _, q := range questions {
		qv := QuestionView{
			ID:      q.ID,
			Text:    q.Text,
			OptionA: q.OptionA,
			OptionB: q.OptionB,
			OptionC: q.OptionC,
			OptionD: q.OptionD,
		}
		if isStaff {
			qv.CorrectOption = q.CorrectOption
		}
		detail.Questions = append(detail.Questions, qv)
	}
	return detail, nil
}

type TestInput struct {
	Title       string
	Category    string
	Description string
	TimeLimit   int
	IsActive    bool
}

func (s *Service) CreateTest(ctx context.Context, staffID uint, in TestInput) (*models.Test, error) {
	t := &models.Test{
		Title:       strings.TrimSpace(in.Title),
		Category:    in.Category,
		Description: in.Description,
		TimeLimit:   in.TimeLimit,
		CreatedByID: staffID,
		IsActive:    in.IsActive,
	}
	if err := s.repos.Tests.Create(ctx, nil, t); err != nil {
		return nil, apperr.Internal("create test", err)
	}
	return t, nil
}

type TestUpdate struct {
	Title       *string
	Category    *string
	Description *string
	TimeLimit   *int
	IsActive    *bool
}

func (s *Service) UpdateTest(ctx context.Context, id uint, in TestUpdate) (*models.Test, error) {
	if _, err := s.loadTest(ctx, id, true); err != nil {
		return nil, err
	}
	fields := map[string]interface{}{}
	if in.Title != nil {
		fields["title"] = strings.TrimSpace(*in.Title)
	}
	if in.Category != nil {
		fields["category"] = *in.Category
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.TimeLimit != nil {
		fields["time_limit"] = *in.TimeLimit
	}
	if in.IsActive != nil {
		fields["is_active"] = *in.IsActive
	}
	if len(fields) > 0 {
		if err := s.repos.Tests.Update(ctx, nil, id, fields); err != nil {
			return nil, apperr.Internal("update test", err)
		}
	}
	return s.loadTest(ctx, id, true)
}

func (s *Service) DeleteTest(ctx context.Context, id uint) error {
	if _, err := s.loadTest(ctx, id, true); err != nil {
		return err
	}
	if err := s.repos.Tests.Delete(ctx, nil, id); err != nil {
		return apperr.Internal("delete test", err)
	}
	return nil
}

type QuestionInput struct {
	TestID        uint
	Text          string
	OptionA       string
	OptionB       string
	OptionC       string
	OptionD       string
	CorrectOption string
}

func (s *Service) CreateQuestion(ctx context.Context, in QuestionInput) (*models.Question, error) {
	if _, err := s.loadTest(ctx, in.TestID, true); err != nil {
		return nil, err
	}
	letter, ok := NormalizeOption(in.CorrectOption)
	if !ok {
		return nil, apperr.ValidationFields("Validation failed!", map[string]string{"correct_option": "must be one of A, B, C, D"})
	}
	q := &models.Question{
		TestID:        in.TestID,
		Text:          strings.TrimSpace(in.Text),
		OptionA:       in.OptionA,
		OptionB:       in.OptionB,
		OptionC:       in.OptionC,
		OptionD:       in.OptionD,
		CorrectOption: letter,
	}
	if err := s.repos.Questions.Create(ctx, nil, q); err != nil {
		return nil, apperr.Internal("create question", err)
	}
	return q, nil
}

// NormalizeOption upper-cases and validates an option letter.
func NormalizeOption(letter string) (string, bool) {
	l := strings.ToUpper(strings.TrimSpace(letter))
	switch l {
	case models.OptionA, models.OptionB, models.OptionC, models.OptionD:
		return l, true
	}
	return "", false
}

// FeedbackMessage maps a score to the message shown after submission.
func FeedbackMessage(score int) string {
	switch {
	case score >= 90:
		return "Excellent result!"
	case score >= 80:
		return "Very good result!"
	case score >= 70:
		return "Good!"
	case score >= 60:
		return "Satisfactory!"
	default:
		return "Keep practicing and try again!"
	}
}

func toResultView(r models.TestResult, title string) ResultView {
	return ResultView{
		ID:               r.ID,
		TestID:           r.TestID,
		TestTitle:        title,
		Score:            r.Score,
		Total:            r.CorrectAnswers + r.IncorrectAnswers,
		CorrectAnswers:   r.CorrectAnswers,
		IncorrectAnswers: r.IncorrectAnswers,
		TimeSpent:        r.TimeSpent,
		Message:          r.Feedback,
		CompletedAt:      r.CompletedAt,
	}
}

func (s *Service) GetResult(ctx context.Context, userID, testID uint) (*ResultView, error) {
	t, err := s.loadTest(ctx, testID, true)
	if err != nil {
		return nil, err
	}
	r, err := s.repos.Results.GetByUserTest(ctx, nil, userID, testID)
	if err != nil {
		return nil, apperr.Internal("load result", err)
	}
	if r == nil {
		return nil, apperr.NotFound("Test result not found")
	}
	v := toResultView(*r, t.Title)
	return &v, nil
}

func (s *Service) ListResults(ctx context.Context, userID uint) ([]ResultView, error) {
	rows, err := s.repos.Results.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, apperr.Internal("list results", err)
	}
	out := make([]ResultView, 0, len(rows))
	for _, r := range rows {
		title := ""
		if t, err := s.repos.Tests.GetByID(ctx, nil, r.TestID); err == nil && t != nil {
			title = t.Title
		} else if err != nil {
			return nil, apperr.Internal("load test", err)
		}
		out = append(out, toResultView(r, title))
	}
	return out, nil
}

func activityText(title string, score int) string {
	return fmt.Sprintf("You completed %s with a score of %d%%", title, score)
}
