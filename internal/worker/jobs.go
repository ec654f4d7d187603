package worker

import (
	"context"
	"fmt"
)

// PronunciationWarmer fills the pronunciation cache for a word.
// This avoids import cycles by not importing the services package
type PronunciationWarmer interface {
	Warm(ctx context.Context, word, voice string) error
}

// PrefetchPronunciationJob looks up a word ahead of time so the first
// request for it is served from cache.
type PrefetchPronunciationJob struct {
	Warmer PronunciationWarmer
	Word   string
	Voice  string
}

func (j *PrefetchPronunciationJob) Name() string {
	return fmt.Sprintf("prefetch_pronunciation:%s", j.Word)
}

func (j *PrefetchPronunciationJob) Run(ctx context.Context) error {
	return j.Warmer.Warm(ctx, j.Word, j.Voice)
}
