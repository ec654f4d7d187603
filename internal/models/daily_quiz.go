package models

type QuizType string

const (
	QuizTypeStandard QuizType = "standard"
	QuizTypeSentence QuizType = "sentence"
	QuizTypeCustom   QuizType = "custom"
)

// HistoryEntry records one completed quiz.
type HistoryEntry struct {
	Date       string   `json:"date"`
	Score      int      `json:"score"`
	TotalCards int      `json:"totalCards"`
	QuizType   QuizType `json:"quizType"`
}

// DailyQuizState is persisted as a single JSON document.
type DailyQuizState struct {
	LastQuizDate  string         `json:"lastQuizDate"`
	Completed     bool           `json:"completed"`
	Streak        int            `json:"streak"`
	LongestStreak int            `json:"longestStreak"`
	History       []HistoryEntry `json:"history"`
}

// StreakStatus is derived from the state for a given day.
type StreakStatus string

const (
	StreakNeverStarted StreakStatus = "neverStarted"
	StreakActive       StreakStatus = "active"
	StreakBroken       StreakStatus = "broken"
)

// DailyOverview is what the daily quiz screen needs.
type DailyOverview struct {
	State          DailyQuizState `json:"state"`
	Status         StreakStatus   `json:"status"`
	CompletedToday bool           `json:"completedToday"`
	Today          string         `json:"today"`
}
