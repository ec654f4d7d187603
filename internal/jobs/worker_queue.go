package jobs

import (
	"github.com/vytor/vocabflash/internal/worker"
)

// WorkerQueue backs JobQueue with a worker.Pool.
type WorkerQueue struct {
	pool   *worker.Pool
	warmer worker.PronunciationWarmer
}

// NewWorkerQueue returns a JobQueue that warms pronunciations on pool.
func NewWorkerQueue(pool *worker.Pool, warmer worker.PronunciationWarmer) JobQueue {
	return &WorkerQueue{pool: pool, warmer: warmer}
}

func (q *WorkerQueue) EnqueuePronunciation(word, voice string) error {
	return q.pool.Submit(&worker.PrefetchPronunciationJob{
		Warmer: q.warmer,
		Word:   word,
		Voice:  voice,
	})
}

func (q *WorkerQueue) Pending() int {
	return q.pool.QueueSize()
}
