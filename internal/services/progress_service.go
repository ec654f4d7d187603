package services

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/vytor/vocabflash/internal/cardstore"
	"github.com/vytor/vocabflash/internal/errors"
	"github.com/vytor/vocabflash/internal/flashcard"
	"github.com/vytor/vocabflash/internal/logger"
	"github.com/vytor/vocabflash/internal/models"
	"github.com/vytor/vocabflash/internal/repository"
	"github.com/vytor/vocabflash/internal/streak"
)

// ProgressTopN is the length of each highlighted card list.
const ProgressTopN = 5

// ProgressService summarises learning progress.
type ProgressService interface {
	Overview(ctx context.Context) (models.ProgressOverview, error)
}

type progressService struct {
	store *cardstore.Store
	kv    repository.KVStore
	now   func() time.Time
}

// NewProgressService creates a new ProgressService
func NewProgressService(store *cardstore.Store, kv repository.KVStore, now func() time.Time) ProgressService {
	if now == nil {
		now = time.Now
	}
	return &progressService{store: store, kv: kv, now: now}
}

func (s *progressService) Overview(ctx context.Context) (models.ProgressOverview, error) {
	log := logger.FromContext(ctx).WithPrefix("progress")
	log.Debug("building progress overview")

	cards := s.store.List()
	out := models.ProgressOverview{
		TotalCards: len(cards),
		Buckets: map[models.Mastery]int{
			models.MasteryNew:         0,
			models.MasteryLearning:    0,
			models.MasteryMastered:    0,
			models.MasteryNeedsReview: 0,
		},
		Categories: s.store.CategoryCounts(),
	}

	var reviewed []models.Flashcard
	for _, c := range cards {
		out.Buckets[flashcard.Classify(c)]++
		out.TotalReviews += c.ReviewCount
		out.TotalCorrect += c.CorrectCount
		if c.ReviewCount > 0 {
			reviewed = append(reviewed, c)
		}
	}
	out.ReviewedCards = len(reviewed)
	rate := flashcard.OverallRate(cards)
	out.SuccessRate = math.Round(rate*1000) / 10
	out.Level = flashcard.ProgressLevel(rate)

	most := append([]models.Flashcard(nil), reviewed...)
	cardstore.SortCards(most, models.SortMostReviewed)
	out.MostReviewed = top(most)

	needs := append([]models.Flashcard(nil), reviewed...)
	sort.SliceStable(needs, func(i, j int) bool {
		return flashcard.SuccessRate(needs[i]) < flashcard.SuccessRate(needs[j])
	})
	out.NeedsReview = top(needs)

	cardstore.SortCards(cards, models.SortNewest)
	out.RecentlyAdded = top(cards)

	state, err := LoadDailyState(ctx, s.kv)
	if err != nil {
		log.Error("failed to load daily quiz state: %v", err)
		return models.ProgressOverview{}, errors.NewInternalError(err)
	}
	daily := streak.Overview(state, streak.Today(s.now()))
	out.Streak = daily.State.Streak
	out.LongestStreak = daily.State.LongestStreak
	out.QuizzesTaken = len(state.History)
	if n := len(state.History); n > 0 {
		sum := 0
		for _, h := range state.History {
			sum += h.Score
		}
		out.AverageQuizScore = math.Round(float64(sum)/float64(n)*10) / 10
	}
	return out, nil
}

func top(cards []models.Flashcard) []models.Flashcard {
	if len(cards) > ProgressTopN {
		cards = cards[:ProgressTopN]
	}
	if cards == nil {
		return []models.Flashcard{}
	}
	return cards
}
