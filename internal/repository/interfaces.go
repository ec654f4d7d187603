package repository

import (
	"context"

	"github.com/vytor/vocabflash/internal/models"
)

// Keys used by the core components.
const (
	KeyFlashcards      = "flashcards"
	KeyCategories      = "flashcardCategories"
	KeyDailyQuizState  = "dailyQuizState"
	KeySavedParagraphs = "savedParagraphs"
)

// KVStore is the string key/value persistence collaborator. Values are
// JSON documents; writes to different keys are independent.
type KVStore interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// Snapshot returns every key and value.
	Snapshot(ctx context.Context) (map[string]string, error)
	// Restore replaces the listed keys in a single transaction.
	Restore(ctx context.Context, values map[string]string) error
}

// ParagraphRepository stores saved paragraph exercises.
type ParagraphRepository interface {
	Insert(ctx context.Context, p models.SavedParagraph) error
	Get(ctx context.Context, id string) (*models.SavedParagraph, error)
	List(ctx context.Context, limit int) ([]models.SavedParagraph, error)
	UpdateScore(ctx context.Context, id string, score int) error
	Delete(ctx context.Context, id string) error
}
