// Package streak tracks consecutive days with a completed quiz.
package streak

import (
	"fmt"
	"time"

	"github.com/vytor/vocabflash/internal/models"
)

// DateLayout is the ISO calendar date stored in DailyQuizState.
const DateLayout = "2006-01-02"

// HistoryCap is the number of history entries kept; older ones are evicted first.
const HistoryCap = 30

// Today formats t as a calendar date in t's location.
func Today(t time.Time) string {
	return t.Format(DateLayout)
}

// PreviousDay returns the calendar day before date.
func PreviousDay(date string) (string, error) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", fmt.Errorf("parse date %q: %w", date, err)
	}
	return d.AddDate(0, 0, -1).Format(DateLayout), nil
}

// Complete applies one quiz completion on today and returns the new state.
//
// The streak comparison uses LastQuizDate as stored before this completion.
// A second completion on the same day leaves the streak as it is.
func Complete(state models.DailyQuizState, today string, score, totalCards int, quizType models.QuizType) (models.DailyQuizState, error) {
	yesterday, err := PreviousDay(today)
	if err != nil {
		return state, err
	}

	next := state
	switch state.LastQuizDate {
	case today:
		if next.Streak < 1 {
			next.Streak = 1
		}
	case yesterday:
		next.Streak = state.Streak + 1
	default:
		next.Streak = 1
	}
	if next.Streak > next.LongestStreak {
		next.LongestStreak = next.Streak
	}

	next.LastQuizDate = today
	next.Completed = true
	next.History = appendCapped(state.History, models.HistoryEntry{
		Date:       today,
		Score:      score,
		TotalCards: totalCards,
		QuizType:   quizType,
	})
	return next, nil
}

func appendCapped(history []models.HistoryEntry, entry models.HistoryEntry) []models.HistoryEntry {
	start := 0
	if len(history)+1 > HistoryCap {
		start = len(history) + 1 - HistoryCap
	}
	out := make([]models.HistoryEntry, 0, min(len(history)+1, HistoryCap))
	out = append(out, history[start:]...)
	return append(out, entry)
}

// Status derives the streak status as seen on today without mutating state.
func Status(state models.DailyQuizState, today string) (models.StreakStatus, bool) {
	if state.LastQuizDate == "" {
		return models.StreakNeverStarted, false
	}
	if state.LastQuizDate == today {
		return models.StreakActive, true
	}
	yesterday, err := PreviousDay(today)
	if err == nil && state.LastQuizDate == yesterday {
		return models.StreakActive, false
	}
	return models.StreakBroken, false
}

// Overview normalises a loaded state for display on today. The Completed
// flag only holds for the day it was set.
func Overview(state models.DailyQuizState, today string) models.DailyOverview {
	status, completedToday := Status(state, today)
	state.Completed = completedToday
	if status == models.StreakBroken {
		state.Streak = 0
	}
	if state.History == nil {
		state.History = []models.HistoryEntry{}
	}
	return models.DailyOverview{
		State:          state,
		Status:         status,
		CompletedToday: completedToday,
		Today:          today,
	}
}
