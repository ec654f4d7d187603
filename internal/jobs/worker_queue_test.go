package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/vocabflash/internal/worker"
)

type chanWarmer chan string

func (c chanWarmer) Warm(_ context.Context, word, voice string) error {
	c <- word + "-" + voice
	return nil
}

func TestWorkerQueue_EnqueuePronunciation(t *testing.T) {
	pool := worker.NewPool(1, 2)
	pool.Start(context.Background())
	defer pool.Stop()

	warmed := make(chanWarmer, 1)
	q := NewWorkerQueue(pool, warmed)
	require.NoError(t, q.EnqueuePronunciation("water", "british"))

	select {
	case got := <-warmed:
		assert.Equal(t, "water-british", got)
	case <-time.After(2 * time.Second):
		t.Fatal("prefetch job did not run")
	}
}

func TestWorkerQueue_StoppedPool(t *testing.T) {
	pool := worker.NewPool(1, 1)
	pool.Stop()

	q := NewWorkerQueue(pool, make(chanWarmer, 1))
	assert.ErrorIs(t, q.EnqueuePronunciation("water", "default"), worker.ErrStopped)
}

func TestWorkerQueue_Pending(t *testing.T) {
	pool := worker.NewPool(1, 2)
	defer pool.Stop()

	q := NewWorkerQueue(pool, make(chanWarmer, 2))
	assert.Equal(t, 0, q.Pending())
	require.NoError(t, q.EnqueuePronunciation("water", "default"))
	require.NoError(t, q.EnqueuePronunciation("stone", "default"))
	assert.Equal(t, 2, q.Pending())
	assert.ErrorIs(t, q.EnqueuePronunciation("fire", "default"), worker.ErrQueueFull)
}
