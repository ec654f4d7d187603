package services_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vytor/vocabflash/internal/errors"
	"github.com/vytor/vocabflash/internal/models"
	"github.com/vytor/vocabflash/internal/repository"
	"github.com/vytor/vocabflash/internal/services"
	"github.com/vytor/vocabflash/internal/testutil/mocks"
)

func newDailyService(e *env) services.DailyQuizService {
	return services.NewDailyQuizService(e.store, e.kv, e.quizGen, services.NewSessionRegistry(time.Hour, clock),
		services.NewRequestTracker(), clock)
}

func putState(t *testing.T, kv repository.KVStore, state models.DailyQuizState) {
	t.Helper()
	raw, err := json.Marshal(state)
	require.NoError(t, err)
	require.NoError(t, kv.Set(context.Background(), repository.KeyDailyQuizState, string(raw)))
}

// answerAll answers every question, the first correctly and the rest by
// self-assessment as known.
func answerAll(t *testing.T, svc services.DailyQuizService, s models.QuizSession) {
	t.Helper()
	for i, q := range s.Questions {
		sub := models.AnswerSubmission{QuestionIndex: i, Known: boolPtr(true)}
		if i == 0 {
			sub = models.AnswerSubmission{QuestionIndex: i, OptionIndex: intPtr(q.CorrectIndex)}
		}
		_, err := svc.Answer(context.Background(), s.ID, sub)
		require.NoError(t, err)
	}
}

func TestDailyQuizService_OverviewNeverStarted(t *testing.T) {
	e := newEnv(t)
	ov, err := newDailyService(e).Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.StreakNeverStarted, ov.Status)
	assert.False(t, ov.CompletedToday)
	assert.Equal(t, "2024-03-10", ov.Today)
	assert.Empty(t, ov.State.History)
}

func TestDailyQuizService_FinishContinuesStreak(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.addCards(t, "cat", "قطة", "dog", "كلب", "bird", "طائر")
	putState(t, e.kv, models.DailyQuizState{LastQuizDate: "2024-03-09", Completed: true, Streak: 4, LongestStreak: 4})
	svc := newDailyService(e)

	s, err := svc.Start(ctx, services.StartDailyRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.QuizTypeStandard, s.QuizType)
	assert.Len(t, s.Questions, 3)
	answerAll(t, svc, s)

	res, err := svc.Finish(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, res.Summary.Score)
	assert.True(t, res.Summary.Excellent)
	assert.Equal(t, 5, res.Overview.State.Streak)
	assert.Equal(t, 5, res.Overview.State.LongestStreak)
	assert.True(t, res.Overview.CompletedToday)
	assert.Equal(t, models.StreakActive, res.Overview.Status)

	stored, err := services.LoadDailyState(ctx, e.kv)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-10", stored.LastQuizDate)
	require.Len(t, stored.History, 1)
	assert.Equal(t, models.HistoryEntry{Date: "2024-03-10", Score: 100, TotalCards: 3, QuizType: models.QuizTypeStandard}, stored.History[0])

	for _, c := range e.store.List() {
		assert.Equal(t, 1, c.ReviewCount)
	}
}

func TestDailyQuizService_BrokenStreakRestartsAtOne(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.addCards(t, "cat", "قطة", "dog", "كلب", "bird", "طائر")
	putState(t, e.kv, models.DailyQuizState{LastQuizDate: "2024-03-01", Streak: 7, LongestStreak: 9})
	svc := newDailyService(e)

	ov, err := svc.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StreakBroken, ov.Status)
	assert.Equal(t, 0, ov.State.Streak)

	s, err := svc.Start(ctx, services.StartDailyRequest{Type: models.QuizTypeCustom, Difficulty: models.DifficultyHard})
	require.NoError(t, err)
	assert.Equal(t, 15, s.TimeLimitSecs)
	_, err = svc.Answer(ctx, s.ID, models.AnswerSubmission{QuestionIndex: 0, TimedOut: true})
	require.NoError(t, err)

	res, err := svc.Finish(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Summary.Score)
	assert.Equal(t, 1, res.Overview.State.Streak)
	assert.Equal(t, 9, res.Overview.State.LongestStreak)
	assert.Equal(t, models.QuizTypeCustom, res.Overview.State.History[0].QuizType)
}

func TestDailyQuizService_UnreadableStateStartsFresh(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	require.NoError(t, e.kv.Set(ctx, repository.KeyDailyQuizState, "{not json"))

	ov, err := newDailyService(e).Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StreakNeverStarted, ov.Status)
}

func TestDailyQuizService_ReadFailureIsInternal(t *testing.T) {
	e := newEnv(t)
	kv := &mocks.MockKVStore{}
	kv.On("Get", mock.Anything, repository.KeyDailyQuizState).Return("", false, assert.AnError)

	svc := services.NewDailyQuizService(e.store, kv, e.quizGen, services.NewSessionRegistry(time.Hour, clock), nil, clock)
	_, err := svc.Overview(context.Background())
	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeInternal, appErr.Code)
	kv.AssertExpectations(t)
}

func TestDailyQuizService_RejectsUnknownType(t *testing.T) {
	e := newEnv(t)
	e.addCards(t, "cat", "قطة", "dog", "كلب", "bird", "طائر")
	_, err := newDailyService(e).Start(context.Background(), services.StartDailyRequest{Type: "weekly"})
	assert.Error(t, err)
}
