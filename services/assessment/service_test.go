package assessment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func answersFor(qs []models.Question, correct int) []Answer {
	out := make([]Answer, 0, len(qs))
	for i, q := range qs {
		letter := models.OptionB
		if i < correct {
			letter = models.OptionA
		}
		out = append(out, Answer{QuestionID: q.ID, SelectedOption: letter})
	}
	return out
}

func TestSubmitScoresOnceThenConflict(t *testing.T) {
	ctx := context.Background()
	s, repos := newService(t)
	u := repotest.SeedUser(t, repos.DB, "alice")
	test, qs := repotest.SeedTest(t, repos.DB, 5)

	res, err := s.Submit(ctx, u.ID, test.ID, Submission{Answers: answersFor(qs, 3), TimeSpent: 120})
	require.NoError(t, err)
	assert.Equal(t, 60, res.Score)
	assert.Equal(t, 3, res.CorrectAnswers)
	assert.Equal(t, 2, res.IncorrectAnswers)
	assert.Equal(t, 5, res.Total)
	assert.Equal(t, "Satisfactory!", res.Message)

	_, err = s.Submit(ctx, u.ID, test.ID, Submission{Answers: answersFor(qs, 5)})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	_, err = s.Submit(ctx, u.ID, test.ID, Submission{})
	assert.True(t, apperr.Is(err, apperr.KindConflict), "a repeat attempt is a conflict even with an empty body")
	_, err = s.Submit(ctx, u.ID, test.ID, Submission{Answers: []Answer{{QuestionID: qs[0].ID, SelectedOption: "E"}}})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	var n int64
	require.NoError(t, repos.DB.Model(&models.TestResult{}).Where("user_id = ? AND test_id = ?", u.ID, test.ID).Count(&n).Error)
	assert.EqualValues(t, 1, n)

	answers, err := repos.Results.ListAnswers(ctx, nil, res.ID)
	require.NoError(t, err)
	assert.Len(t, answers, 5)

	var events int64
	require.NoError(t, repos.DB.Model(&models.OutboxEvent{}).Where("user_id = ? AND type = ?", u.ID, models.NotificationTest).Count(&events).Error)
	assert.EqualValues(t, 1, events)
}

func TestSubmitUnansweredQuestionsCountAsIncorrect(t *testing.T) {
	ctx := context.Background()
	s, repos := newService(t)
	u := repotest.SeedUser(t, repos.DB, "bob")
	test, qs := repotest.SeedTest(t, repos.DB, 4)

	res, err := s.Submit(ctx, u.ID, test.ID, Submission{Answers: []Answer{
		{QuestionID: qs[0].ID, SelectedOption: "a"},
		{QuestionID: qs[0].ID, SelectedOption: "A"},
		{QuestionID: 9999, SelectedOption: "A"},
	}})
	require.NoError(t, err)
	assert.Equal(t, 25, res.Score)
	assert.Equal(t, 1, res.CorrectAnswers)
	assert.Equal(t, 3, res.IncorrectAnswers)
}

func TestSubmitRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	s, repos := newService(t)
	u := repotest.SeedUser(t, repos.DB, "carol")
	test, qs := repotest.SeedTest(t, repos.DB, 2)

	_, err := s.Submit(ctx, u.ID, test.ID, Submission{})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = s.Submit(ctx, u.ID, test.ID, Submission{Answers: []Answer{{QuestionID: qs[0].ID, SelectedOption: "E"}}})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = s.Submit(ctx, u.ID, test.ID+100, Submission{Answers: answersFor(qs, 1)})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	var n int64
	require.NoError(t, repos.DB.Model(&models.TestResult{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestGetTestHidesAnswerKeyFromNonStaff(t *testing.T) {
	ctx := context.Background()
	s, repos := newService(t)
	u := repotest.SeedUser(t, repos.DB, "dave")
	test, qs := repotest.SeedTest(t, repos.DB, 3)

	detail, err := s.GetTest(ctx, u.ID, false, test.ID)
	require.NoError(t, err)
	require.Len(t, detail.Questions, len(qs))
	assert.EqualValues(t, 3, detail.QuestionsCount)
	assert.False(t, detail.IsCompleted)
	for _, q := range detail.Questions {
		assert.Empty(t, q.CorrectOption)
	}

	staff, err := s.GetTest(ctx, 0, true, test.ID)
	require.NoError(t, err)
	for _, q := range staff.Questions {
		assert.Equal(t, models.OptionA, q.CorrectOption)
	}

	_, err = s.Submit(ctx, u.ID, test.ID, Submission{Answers: answersFor(qs, 3)})
	require.NoError(t, err)
	detail, err = s.GetTest(ctx, u.ID, false, test.ID)
	require.NoError(t, err)
	assert.True(t, detail.IsCompleted)
}

func TestGetTestShufflesQuestions(t *testing.T) {
	ctx := context.Background()
	s, repos := newService(t)
	test, qs := repotest.SeedTest(t, repos.DB, 3)
	s.shuffle = func(n int, swap func(i, j int)) { swap(0, n-1) }

	detail, err := s.GetTest(ctx, 0, false, test.ID)
	require.NoError(t, err)
	assert.Equal(t, qs[2].ID, detail.Questions[0].ID)
	assert.Equal(t, qs[0].ID, detail.Questions[2].ID)
}

func TestInactiveTestHiddenFromUsers(t *testing.T) {
	ctx := context.Background()
	s, repos := newService(t)
	test, _ := repotest.SeedTest(t, repos.DB, 1)
	_, err := s.UpdateTest(ctx, test.ID, TestUpdate{IsActive: func() *bool { b := false; return &b }()})
	require.NoError(t, err)

	_, err = s.GetTest(ctx, 0, false, test.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	list, err := s.ListTests(ctx, 0, false, repository.TestFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = s.ListTests(ctx, 0, true, repository.TestFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestResults(t *testing.T) {
	ctx := context.Background()
	s, repos := newService(t)
	u := repotest.SeedUser(t, repos.DB, "erin")
	test, qs := repotest.SeedTest(t, repos.DB, 2)

	_, err := s.GetResult(ctx, u.ID, test.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = s.Submit(ctx, u.ID, test.ID, Submission{Answers: answersFor(qs, 2)})
	require.NoError(t, err)

	r, err := s.GetResult(ctx, u.ID, test.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, r.Score)
	assert.Equal(t, "Excellent result!", r.Message)
	assert.Equal(t, test.Title, r.TestTitle)

	all, err := s.ListResults(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCreateQuestionValidatesLetter(t *testing.T) {
	ctx := context.Background()
	s, repos := newService(t)
	staff := repotest.SeedStaff(t, repos.DB, "admin")
	test, err := s.CreateTest(ctx, staff.ID, TestInput{Title: "Robotics", Category: models.CategoryRobotics, TimeLimit: 10, IsActive: true})
	require.NoError(t, err)

	_, err = s.CreateQuestion(ctx, QuestionInput{TestID: test.ID, Text: "?", CorrectOption: "x"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	q, err := s.CreateQuestion(ctx, QuestionInput{TestID: test.ID, Text: "?", OptionA: "1", OptionB: "2", OptionC: "3", OptionD: "4", CorrectOption: "c"})
	require.NoError(t, err)
	assert.Equal(t, models.OptionC, q.CorrectOption)
}

func TestFeedbackMessage(t *testing.T) {
	cases := map[int]string{
		100: "Excellent result!",
		90:  "Excellent result!",
		85:  "Very good result!",
		70:  "Good!",
		60:  "Satisfactory!",
		59:  "Keep practicing and try again!",
		0:   "Keep practicing and try again!",
	}
	for score, want := range cases {
		assert.Equal(t, want, FeedbackMessage(score), "score %d", score)
	}
}
