package services_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vytor/vocabflash/internal/ai"
	"github.com/vytor/vocabflash/internal/errors"
	"github.com/vytor/vocabflash/internal/models"
	"github.com/vytor/vocabflash/internal/services"
	"github.com/vytor/vocabflash/internal/testutil/mocks"
)

func newParagraphService(e *env, tracker *services.RequestTracker) services.ParagraphService {
	return services.NewParagraphService(e.store, e.paragraphs, e.tasks, tracker, clock)
}

func promptContaining(s string) any {
	return mock.MatchedBy(func(p ai.Prompt) bool { return strings.Contains(p.Text, s) })
}

func TestParagraphService_GenerateNeedsThreeWords(t *testing.T) {
	e := newEnv(t)
	_, err := newParagraphService(e, nil).Generate(context.Background(), services.GenerateParagraphRequest{
		Words: []string{"cat", " CAT ", "dog", ""},
	})
	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeValidation, appErr.Code)
	e.gen.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestParagraphService_GenerateUsesCardMeanings(t *testing.T) {
	e := newEnv(t)
	e.addCards(t, "cat", "قطة")
	e.gen.On("Complete", mock.Anything, promptContaining("cat (قطة)")).Return("القطة تنام بجانب الكلب والطائر.", nil).Once()

	p, err := newParagraphService(e, nil).Generate(context.Background(), services.GenerateParagraphRequest{
		Words:      []string{"cat", "dog", "bird"},
		Difficulty: models.DifficultyEasy,
	})
	require.NoError(t, err)
	assert.False(t, p.Fallback)
	assert.Equal(t, "القطة تنام بجانب الكلب والطائر.", p.Paragraph)
	assert.Equal(t, []string{"cat", "dog", "bird"}, p.UsedWords)
	e.gen.AssertExpectations(t)
}

func TestParagraphService_GenerateFallsBack(t *testing.T) {
	e := newEnv(t)
	e.gen.On("Complete", mock.Anything, mock.Anything).Return("", assert.AnError).Once()

	p, err := newParagraphService(e, nil).Generate(context.Background(), services.GenerateParagraphRequest{
		Words: []string{"cat", "dog", "bird"},
	})
	require.NoError(t, err)
	assert.True(t, p.Fallback)
	assert.Equal(t, services.ParagraphFallbackNotice, p.Notice)
	assert.Contains(t, p.Paragraph, "cat")
}

func TestParagraphService_GenerateRejectsCustomDifficulty(t *testing.T) {
	e := newEnv(t)
	_, err := newParagraphService(e, nil).Generate(context.Background(), services.GenerateParagraphRequest{
		Words:      []string{"cat", "dog", "bird"},
		Difficulty: models.DifficultyCustom,
	})
	assert.Error(t, err)
}

func TestParagraphService_GenerateRandom(t *testing.T) {
	e := newEnv(t)
	e.gen.On("Complete", mock.Anything, promptContaining("Avoid these words: cat")).
		Return(`{"paragraph": "ذهبت إلى السوق", "usedWords": ["go", "market"]}`, nil).Once()

	p, err := newParagraphService(e, nil).GenerateRandom(context.Background(), services.RandomParagraphRequest{Exclude: []string{"cat", "Cat"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "market"}, p.UsedWords)
	e.gen.AssertExpectations(t)
}

func TestParagraphService_GenerateRandomFailureIsRecoverableError(t *testing.T) {
	e := newEnv(t)
	e.gen.On("Complete", mock.Anything, mock.Anything).Return("I'd rather not", nil).Once()

	_, err := newParagraphService(e, nil).GenerateRandom(context.Background(), services.RandomParagraphRequest{})
	assert.ErrorIs(t, err, errors.ErrGenerationFailed)
}

func TestParagraphService_EvaluateStoresScore(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	svc := newParagraphService(e, nil)

	saved, err := svc.SaveParagraph(ctx, models.SavedParagraph{ArabicText: " القطة نائمة ", Words: []string{"cat", "sleep"}})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "القطة نائمة", saved.ArabicText)
	assert.Equal(t, fixedNow.UnixMilli(), saved.CreatedAt)

	e.gen.On("Complete", mock.Anything, mock.Anything).
		Return(`{"score": 85, "corrections": [], "suggestions": ["nice"], "modelParagraph": "The cat is asleep."}`, nil).Once()
	fb, err := svc.Evaluate(ctx, services.EvaluateRequest{
		ParagraphID: saved.ID,
		Arabic:      saved.ArabicText,
		Translation: "The cat sleeps.",
		Words:       saved.Words,
	})
	require.NoError(t, err)
	assert.Equal(t, 85, fb.Score)

	list, err := svc.ListParagraphs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Score)
	assert.Equal(t, 85, *list[0].Score)
}

func TestParagraphService_EvaluateFallbackDoesNotStoreScore(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	repo := &mocks.MockParagraphRepository{}
	repo.On("Get", mock.Anything, "p1").Return(&models.SavedParagraph{ID: "p1"}, nil)
	e.gen.On("Complete", mock.Anything, mock.Anything).Return("", assert.AnError).Once()

	svc := services.NewParagraphService(e.store, repo, e.tasks, nil, clock)
	fb, err := svc.Evaluate(ctx, services.EvaluateRequest{ParagraphID: "p1", Arabic: "نص", Translation: "text", Words: []string{"text"}})
	require.NoError(t, err)
	assert.True(t, fb.Fallback)
	assert.Equal(t, ai.FallbackScore, fb.Score)
	assert.Equal(t, services.EvaluationFallbackNotice, fb.Notice)
	repo.AssertNotCalled(t, "UpdateScore", mock.Anything, mock.Anything, mock.Anything)
}

func TestParagraphService_EvaluateValidation(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	svc := newParagraphService(e, nil)

	_, err := svc.Evaluate(ctx, services.EvaluateRequest{Arabic: "نص"})
	assert.Error(t, err)
	_, err = svc.Evaluate(ctx, services.EvaluateRequest{Translation: "text"})
	assert.Error(t, err)
	_, err = svc.Evaluate(ctx, services.EvaluateRequest{ParagraphID: "missing", Arabic: "نص", Translation: "text"})
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestParagraphService_SaveWordsAndDelete(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.addCards(t, "cat", "قطة")
	svc := newParagraphService(e, nil)

	res, err := svc.SaveWords(ctx, []string{"Cat", "market", " market "})
	require.NoError(t, err)
	require.Len(t, res.Added, 1)
	assert.Equal(t, "market", res.Added[0].Word)
	assert.Equal(t, []string{"Cat"}, res.Skipped)

	_, err = svc.SaveWords(ctx, []string{" "})
	assert.Error(t, err)

	_, err = svc.SaveParagraph(ctx, models.SavedParagraph{ArabicText: "  "})
	assert.Error(t, err)
	saved, err := svc.SaveParagraph(ctx, models.SavedParagraph{ArabicText: "نص"})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteParagraph(ctx, saved.ID))
	require.NoError(t, svc.DeleteParagraph(ctx, saved.ID))
	list, err := svc.ListParagraphs(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestParagraphService_NewerRequestMakesOlderStale(t *testing.T) {
	e := newEnv(t)
	tracker := services.NewRequestTracker()
	svc := newParagraphService(e, tracker)

	started := make(chan struct{})
	e.gen.On("Complete", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		close(started)
		<-args.Get(0).(context.Context).Done()
	}).Return("", context.Canceled).Once()
	e.gen.On("Complete", mock.Anything, mock.Anything).Return("فقرة جديدة", nil).Once()

	req := services.GenerateParagraphRequest{Words: []string{"cat", "dog", "bird"}, ClientID: "tab-1"}
	var (
		wg     sync.WaitGroup
		oldErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, oldErr = svc.Generate(context.Background(), req)
	}()
	<-started

	p, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "فقرة جديدة", p.Paragraph)

	wg.Wait()
	assert.ErrorIs(t, oldErr, errors.ErrStaleRequest)
	assert.Equal(t, 0, tracker.Pending())
}
