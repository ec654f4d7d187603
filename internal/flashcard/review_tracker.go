// Package flashcard holds the review bookkeeping for cards: mastery buckets,
// success rates and answer recording. Every consumer that needs a threshold
// calls into this package instead of repeating the ratios.
package flashcard

import (
	"time"

	"github.com/vytor/vocabflash/internal/models"
)

const (
	// MasteredThreshold is the lowest success rate counted as mastered.
	MasteredThreshold = 0.9
	// LearningThreshold is the lowest success rate counted as learning.
	LearningThreshold = 0.4
)

// SuccessRate returns correctCount/reviewCount, or 0 for an unreviewed card.
func SuccessRate(card models.Flashcard) float64 {
	if card.ReviewCount <= 0 {
		return 0
	}
	return float64(card.CorrectCount) / float64(card.ReviewCount)
}

// Classify buckets a card. An unreviewed card is always new.
func Classify(card models.Flashcard) models.Mastery {
	if card.ReviewCount <= 0 {
		return models.MasteryNew
	}
	r := SuccessRate(card)
	switch {
	case r >= MasteredThreshold:
		return models.MasteryMastered
	case r >= LearningThreshold:
		return models.MasteryLearning
	default:
		return models.MasteryNeedsReview
	}
}

// RecordAnswer applies one quiz exposure and returns the updated card.
// The input card is not modified.
func RecordAnswer(card models.Flashcard, wasCorrect bool, now time.Time) models.Flashcard {
	updated := card
	if updated.ReviewCount < 0 {
		updated.ReviewCount = 0
	}
	if updated.CorrectCount < 0 {
		updated.CorrectCount = 0
	}
	if updated.CorrectCount > updated.ReviewCount {
		updated.CorrectCount = updated.ReviewCount
	}

	updated.ReviewCount++
	if wasCorrect {
		updated.CorrectCount++
	}
	ts := now.UnixMilli()
	updated.LastReviewed = &ts
	return updated
}

// Progress levels by overall success rate.
const (
	LevelMaster       = "Master"
	LevelAdvanced     = "Advanced"
	LevelIntermediate = "Intermediate"
	LevelBeginner     = "Beginner"
	LevelNovice       = "Novice"
)

// ProgressLevel names the learner's level for an overall success rate in [0,1].
func ProgressLevel(rate float64) string {
	switch {
	case rate >= 0.9:
		return LevelMaster
	case rate >= 0.75:
		return LevelAdvanced
	case rate >= 0.6:
		return LevelIntermediate
	case rate >= 0.4:
		return LevelBeginner
	default:
		return LevelNovice
	}
}

// OverallRate is total correct over total reviews across cards.
func OverallRate(cards []models.Flashcard) float64 {
	var reviews, correct int
	for _, c := range cards {
		reviews += c.ReviewCount
		correct += c.CorrectCount
	}
	if reviews == 0 {
		return 0
	}
	return float64(correct) / float64(reviews)
}
