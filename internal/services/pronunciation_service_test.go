package services_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vytor/vocabflash/internal/ai"
	"github.com/vytor/vocabflash/internal/cache"
	"github.com/vytor/vocabflash/internal/models"
	"github.com/vytor/vocabflash/internal/services"
)

const waterJSON = `{"word":"water","ipa":"/ˈwɔːtər/","syllables":"wa-ter","stress":"first","tips":"soft t","similar":["waiter"]}`

func newPronunciationService(e *env) (services.PronunciationService, *cache.LRU[string, models.PronunciationDetails]) {
	c := cache.NewLRU[string, models.PronunciationDetails](8, time.Hour)
	return services.NewPronunciationService(e.tasks, c, services.NewRequestTracker()), c
}

func TestPronunciationService_CachesSuccess(t *testing.T) {
	e := newEnv(t)
	e.gen.On("Complete", mock.Anything, mock.Anything).Return(waterJSON, nil).Once()
	svc, c := newPronunciationService(e)

	first, err := svc.Lookup(context.Background(), "Water", "", "c1")
	require.NoError(t, err)
	assert.Equal(t, "/ˈwɔːtər/", first.IPA)
	assert.False(t, first.Fallback)

	second, err := svc.Lookup(context.Background(), "water", ai.VoiceDefault, "c1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, c.Len())
	e.gen.AssertNumberOfCalls(t, "Complete", 1)

	_, ok := c.Get(services.PronunciationKey("WATER", ai.VoiceDefault))
	assert.True(t, ok)
}

func TestPronunciationService_VoicesAreCachedSeparately(t *testing.T) {
	e := newEnv(t)
	e.gen.On("Complete", mock.Anything, mock.Anything).Return(waterJSON, nil).Twice()
	svc, c := newPronunciationService(e)

	_, err := svc.Lookup(context.Background(), "water", ai.VoiceBritish, "")
	require.NoError(t, err)
	_, err = svc.Lookup(context.Background(), "water", ai.VoiceSlow, "")
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
}

func TestPronunciationService_FallbackIsNotCached(t *testing.T) {
	e := newEnv(t)
	e.gen.On("Complete", mock.Anything, mock.Anything).Return("", assert.AnError).Twice()
	svc, c := newPronunciationService(e)

	for i := 0; i < 2; i++ {
		d, err := svc.Lookup(context.Background(), "water", "", "")
		require.NoError(t, err)
		assert.True(t, d.Fallback)
		assert.Equal(t, ai.NotAvailable, d.IPA)
	}
	assert.Equal(t, 0, c.Len())
	e.gen.AssertNumberOfCalls(t, "Complete", 2)
}

func TestPronunciationService_Validation(t *testing.T) {
	e := newEnv(t)
	svc, _ := newPronunciationService(e)

	_, err := svc.Lookup(context.Background(), " ", "", "")
	assert.Error(t, err)
	_, err = svc.Lookup(context.Background(), "water", "robot", "")
	assert.Error(t, err)
	e.gen.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestPronunciationService_LengthCountsCharacters(t *testing.T) {
	e := newEnv(t)
	e.gen.On("Complete", mock.Anything, mock.Anything).Return("", assert.AnError).Once()
	svc, _ := newPronunciationService(e)

	arabic := strings.Repeat("ب", 40)
	require.Greater(t, len(arabic), services.MaxPronunciationWordLength)
	d, err := svc.Lookup(context.Background(), arabic, "", "")
	require.NoError(t, err)
	assert.True(t, d.Fallback)

	_, err = svc.Lookup(context.Background(), strings.Repeat("é", services.MaxPronunciationWordLength+1), "", "")
	assert.Error(t, err)
	e.gen.AssertNumberOfCalls(t, "Complete", 1)
}

func TestPronunciationService_ConcurrentLookupsShareOneCall(t *testing.T) {
	e := newEnv(t)
	release := make(chan struct{})
	e.gen.On("Complete", mock.Anything, mock.Anything).Run(func(mock.Arguments) { <-release }).Return(waterJSON, nil)
	svc, _ := newPronunciationService(e)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := svc.Lookup(context.Background(), "water", "", "")
			assert.NoError(t, err)
			assert.Equal(t, "/ˈwɔːtər/", d.IPA)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	e.gen.AssertNumberOfCalls(t, "Complete", 1)
}

func TestPronunciationService_Warm(t *testing.T) {
	e := newEnv(t)
	e.gen.On("Complete", mock.Anything, mock.Anything).Return(waterJSON, nil).Once()
	e.gen.On("Complete", mock.Anything, mock.Anything).Return("", assert.AnError).Once()
	svc, c := newPronunciationService(e)

	require.NoError(t, svc.Warm(context.Background(), "water", ""))
	assert.Equal(t, 1, c.Len())
	require.NoError(t, svc.Warm(context.Background(), "water", ""), "cached words are not fetched again")
	assert.Error(t, svc.Warm(context.Background(), "fire", ""))
	e.gen.AssertNumberOfCalls(t, "Complete", 2)
}
