package assessment

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"shams/apperr"
	"shams/models"
	"shams/repository"
	"shams/services/notification"
)

type Answer struct {
	QuestionID     uint
	SelectedOption string
}

type Submission struct {
	Answers   []Answer
	TimeSpent int // seconds, optional
}

// Score counts answers whose letter matches the question's correct option.
// Answers for questions outside the set are ignored and only the first answer
// per question counts. The percentage is taken over all questions.
func Score(questions []models.Question, answers []Answer) (correct int, score int) {
	byID := make(map[uint]models.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	seen := map[uint]bool{}
	for _, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok || seen[a.QuestionID] {
			continue
		}
		seen[a.QuestionID] = true
		if letter, ok := NormalizeOption(a.SelectedOption); ok && letter == q.CorrectOption {
			correct++
		}
	}
	if len(questions) == 0 {
		return correct, 0
	}
	return correct, correct * 100 / len(questions)
}

// Submit stores the single allowed attempt for (user, test).
func (s *Service) Submit(ctx context.Context, userID, testID uint, sub Submission) (*ResultView, error) {
	t, err := s.loadTest(ctx, testID, false)
	if err != nil {
		return nil, err
	}
	// the unique index on (user, test) stays authoritative inside the tx
	prior, err := s.repos.Results.GetByUserTest(ctx, nil, userID, t.ID)
	if err != nil {
		return nil, apperr.Internal("load result", err)
	}
	if prior != nil {
		return nil, apperr.Conflict("You have already taken this test")
	}
	if len(sub.Answers) == 0 {
		return nil, apperr.Validation("No answers were submitted")
	}
	if sub.TimeSpent < 0 {
		return nil, apperr.ValidationFields("Validation failed!", map[string]string{"time_spent": "must be >= 0"})
	}
	for _, a := range sub.Answers {
		if _, ok := NormalizeOption(a.SelectedOption); !ok {
			return nil, apperr.ValidationFields("Validation failed!", map[string]string{
				"answers": fmt.Sprintf("question %d: option must be one of A, B, C, D", a.QuestionID),
			})
		}
	}

	var result *models.TestResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		questions, err := s.repos.Questions.ListByTest(ctx, tx, t.ID)
		if err != nil {
			return apperr.Internal("list questions", err)
		}
		correct, score := Score(questions, sub.Answers)

		result = &models.TestResult{
			UserID:           userID,
			TestID:           t.ID,
			Score:            score,
			CorrectAnswers:   correct,
			IncorrectAnswers: len(questions) - correct,
			TimeSpent:        sub.TimeSpent,
			Feedback:         FeedbackMessage(score),
			CompletedAt:      s.now(),
		}
		if err := s.repos.Results.Create(ctx, tx, result); err != nil {
			if repository.IsDuplicate(err) {
				return apperr.Conflict("You have already taken this test")
			}
			return apperr.Internal("create result", err)
		}

		if err := s.repos.Results.CreateAnswers(ctx, tx, userAnswers(result.ID, questions, sub.Answers)); err != nil {
			return apperr.Internal("save answers", err)
		}
		if err := s.activity.Record(ctx, tx, userID, models.ActivityTest, "Test completed: "+t.Title, activityText(t.Title, score)); err != nil {
			return apperr.Internal("record activity", err)
		}
		return s.notify.Enqueue(ctx, tx, notification.Event{
			UserID:  userID,
			Type:    models.NotificationTest,
			Title:   "Test result",
			Message: fmt.Sprintf("%s: %d%%. %s", t.Title, score, FeedbackMessage(score)),
			Notify:  true,
			Payload: map[string]interface{}{"test_id": t.ID, "score": score},
		})
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Test submitted", "user_id", userID, "test_id", t.ID, "score", result.Score)
	v := toResultView(*result, t.Title)
	return &v, nil
}

func userAnswers(resultID uint, questions []models.Question, answers []Answer) []models.UserAnswer {
	byID := make(map[uint]models.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	out := make([]models.UserAnswer, 0, len(answers))
	seen := map[uint]bool{}
	for _, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok || seen[a.QuestionID] {
			continue
		}
		seen[a.QuestionID] = true
		letter, _ := NormalizeOption(a.SelectedOption)
		out = append(out, models.UserAnswer{
			ResultID:       resultID,
			QuestionID:     q.ID,
			SelectedOption: letter,
			IsCorrect:      letter == q.CorrectOption,
		})
	}
	return out
}
