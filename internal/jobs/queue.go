package jobs

// JobQueue hands background work to the prefetch pool.
type JobQueue interface {
	// EnqueuePronunciation schedules a cache warm for word. It never blocks;
	// a full or stopped queue is reported as an error.
	EnqueuePronunciation(word, voice string) error
	// Pending reports how many jobs are waiting to run.
	Pending() int
}
