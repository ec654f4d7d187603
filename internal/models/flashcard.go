package models

// Flashcard is a word/meaning pair tracked for learning. Timestamps are epoch
// milliseconds so stored collections stay compatible with the browser format.
type Flashcard struct {
	ID           string  `json:"id"`
	Word         string  `json:"word"`
	Meaning      string  `json:"meaning"`
	CategoryID   *string `json:"categoryId,omitempty"`
	CreatedAt    int64   `json:"createdAt"`
	ReviewCount  int     `json:"reviewCount"`
	CorrectCount int     `json:"correctCount"`
	LastReviewed *int64  `json:"lastReviewed,omitempty"`
}

// InCategory reports whether the card references categoryID.
func (c Flashcard) InCategory(categoryID string) bool {
	return c.CategoryID != nil && *c.CategoryID == categoryID
}

// FlashcardPatch carries the editable fields of a card. Nil means unchanged.
// ClearCategory removes the category reference and wins over CategoryID.
type FlashcardPatch struct {
	Word          *string `json:"word,omitempty"`
	Meaning       *string `json:"meaning,omitempty"`
	CategoryID    *string `json:"categoryId,omitempty"`
	ClearCategory bool    `json:"clearCategory,omitempty"`
}

// Mastery is the bucket a card falls into based on its review statistics.
type Mastery string

const (
	MasteryNew         Mastery = "new"
	MasteryLearning    Mastery = "learning"
	MasteryMastered    Mastery = "mastered"
	MasteryNeedsReview Mastery = "needsReview"
)

// Valid reports whether m is one of the four buckets.
func (m Mastery) Valid() bool {
	switch m {
	case MasteryNew, MasteryLearning, MasteryMastered, MasteryNeedsReview:
		return true
	}
	return false
}

// Category filter sentinels.
const (
	CategoryAll           = "all"
	CategoryUncategorized = "uncategorized"
)

type SortOrder string

const (
	SortNewest        SortOrder = "newest"
	SortOldest        SortOrder = "oldest"
	SortAlphabetical  SortOrder = "alphabetical"
	SortMostReviewed  SortOrder = "mostReviewed"
	SortLeastReviewed SortOrder = "leastReviewed"
	SortSuccessRate   SortOrder = "successRate"
)

// FlashcardFilter selects a subset of the collection. Zero values match everything.
type FlashcardFilter struct {
	CategoryID string    // "", "all", "uncategorized" or a category id
	Search     string    // case-insensitive substring of word or meaning
	Mastery    Mastery   // empty matches every bucket
	Sort       SortOrder // defaults to newest first
}

// ImportResult reports the outcome of a bulk import.
type ImportResult struct {
	Added             []Flashcard `json:"added"`
	SkippedDuplicates []string    `json:"skippedDuplicates"`
	Malformed         int         `json:"malformed"`
}

// SaveWordsResult reports the outcome of saving paragraph words as cards.
type SaveWordsResult struct {
	Added   []Flashcard `json:"added"`
	Skipped []string    `json:"skipped"`
}
