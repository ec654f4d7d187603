package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/vytor/vocabflash/internal/ai"
	"github.com/vytor/vocabflash/internal/cache"
	"github.com/vytor/vocabflash/internal/errors"
	"github.com/vytor/vocabflash/internal/logger"
	"github.com/vytor/vocabflash/internal/models"
	"github.com/vytor/vocabflash/internal/textutil"
	"golang.org/x/sync/singleflight"
)

// MaxPronunciationWordLength bounds the looked up word, in characters.
const MaxPronunciationWordLength = 64

// PronunciationService looks up how to say words. Successful lookups are
// cached; fallbacks are not, so a later lookup can still succeed.
type PronunciationService interface {
	Lookup(ctx context.Context, word, voice, clientID string) (models.PronunciationDetails, error)
	// Warm fills the cache for word without tracking a client.
	Warm(ctx context.Context, word, voice string) error
}

type pronunciationService struct {
	tasks   *ai.Tasks
	cache   cache.Cache[string, models.PronunciationDetails]
	tracker *RequestTracker
	group   singleflight.Group
}

// NewPronunciationService creates a new PronunciationService
func NewPronunciationService(tasks *ai.Tasks, c cache.Cache[string, models.PronunciationDetails], tracker *RequestTracker) PronunciationService {
	return &pronunciationService{tasks: tasks, cache: c, tracker: tracker}
}

// PronunciationKey is the cache key for a word and voice.
func PronunciationKey(word, voice string) string {
	return textutil.Key(word) + "-" + voice
}

func normalizePronunciation(word, voice string) (string, string, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return "", "", errors.NewValidationError("word", "cannot be empty")
	}
	if utf8.RuneCountInString(word) > MaxPronunciationWordLength {
		return "", "", errors.NewValidationError("word", "is too long")
	}
	if !ai.ValidVoice(voice) {
		return "", "", errors.NewValidationError("voice", "must be default, american, british or slow")
	}
	if voice == "" {
		voice = ai.VoiceDefault
	}
	return word, voice, nil
}

// fetch runs one lookup per key at a time. Concurrent callers share the
// result; the lookup itself is detached from any single caller's
// cancellation.
func (s *pronunciationService) fetch(ctx context.Context, word, voice string) ai.Outcome[models.PronunciationDetails] {
	key := PronunciationKey(word, voice)
	v, _, _ := s.group.Do(key, func() (any, error) {
		if d, ok := s.cache.Get(key); ok {
			return ai.Ok(d), nil
		}
		out := s.tasks.Pronounce(context.WithoutCancel(ctx), word, voice)
		if !out.Fallback {
			s.cache.Set(key, out.Value)
		}
		return out, nil
	})
	return v.(ai.Outcome[models.PronunciationDetails])
}

func (s *pronunciationService) Lookup(ctx context.Context, word, voice, clientID string) (models.PronunciationDetails, error) {
	log := logger.FromContext(ctx).WithPrefix("pronunciation")

	word, voice, err := normalizePronunciation(word, voice)
	if err != nil {
		return models.PronunciationDetails{}, err
	}
	if d, ok := s.cache.Get(PronunciationKey(word, voice)); ok {
		log.Debug("cache hit: word=%s, voice=%s", word, voice)
		return d, nil
	}

	ctx, ticket := s.tracker.Begin(ctx, clientID, KindPronunciation)
	defer ticket.Done()

	out := s.fetch(ctx, word, voice)
	if err := ticket.Check(); err != nil {
		return models.PronunciationDetails{}, err
	}
	d := out.Value
	if out.Fallback {
		log.Warn("using fallback pronunciation for %q: %s", word, out.Reason)
		d.Fallback = true
	}
	return d, nil
}

func (s *pronunciationService) Warm(ctx context.Context, word, voice string) error {
	word, voice, err := normalizePronunciation(word, voice)
	if err != nil {
		return err
	}
	if _, ok := s.cache.Get(PronunciationKey(word, voice)); ok {
		return nil
	}
	if out := s.fetch(ctx, word, voice); out.Fallback {
		return fmt.Errorf("warm pronunciation for %q: %s", word, out.Reason)
	}
	return nil
}
