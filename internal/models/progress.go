package models

// ProgressOverview summarises the whole collection.
type ProgressOverview struct {
	TotalCards       int             `json:"totalCards"`
	ReviewedCards    int             `json:"reviewedCards"`
	TotalReviews     int             `json:"totalReviews"`
	TotalCorrect     int             `json:"totalCorrect"`
	SuccessRate      float64         `json:"successRate"` // percent, one decimal
	Level            string          `json:"level"`
	Buckets          map[Mastery]int `json:"buckets"`
	MostReviewed     []Flashcard     `json:"mostReviewed"`
	NeedsReview      []Flashcard     `json:"needsReview"`
	RecentlyAdded    []Flashcard     `json:"recentlyAdded"`
	Categories       []CategoryCount `json:"categories"`
	Streak           int             `json:"streak"`
	LongestStreak    int             `json:"longestStreak"`
	QuizzesTaken     int             `json:"quizzesTaken"`
	AverageQuizScore float64         `json:"averageQuizScore"`
}
