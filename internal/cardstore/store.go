// Package cardstore owns the flashcard and category collections. Every
// mutation goes through a Store, which enforces case-insensitive word and
// category-name uniqueness and writes the full collection back to the
// key-value store afterwards.
package cardstore

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vytor/vocabflash/internal/errors"
	"github.com/vytor/vocabflash/internal/flashcard"
	"github.com/vytor/vocabflash/internal/logger"
	"github.com/vytor/vocabflash/internal/models"
	"github.com/vytor/vocabflash/internal/repository"
	"github.com/vytor/vocabflash/internal/textutil"
)

// Store is safe for concurrent use. Reads return copies.
type Store struct {
	mu         sync.RWMutex
	kv         repository.KVStore
	cards      []models.Flashcard
	categories []models.Category
	now        func() time.Time
	newID      func() string
}

type Option func(*Store)

// WithClock overrides the time source used for createdAt and lastReviewed.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides how card and category ids are assigned.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// Open loads both collections from kv. A stored value that fails to parse is
// logged and treated as empty; only a failing read is an error.
func Open(ctx context.Context, kv repository.KVStore, opts ...Option) (*Store, error) {
	log := logger.FromContext(ctx).WithPrefix("cardstore")
	s := &Store{
		kv:    kv,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := load(ctx, kv, repository.KeyFlashcards, &s.cards); err != nil {
		return nil, err
	}
	if err := load(ctx, kv, repository.KeyCategories, &s.categories); err != nil {
		return nil, err
	}
	s.cards = sanitizeCards(s.cards)
	if s.categories == nil {
		s.categories = []models.Category{}
	}
	if n := s.clearDanglingCategories(); n > 0 {
		log.Warn("%d cards pointed at a missing category, treating them as uncategorized", n)
	}
	log.Info("loaded %d cards and %d categories", len(s.cards), len(s.categories))
	return s, nil
}

func load[T any](ctx context.Context, kv repository.KVStore, key string, dst *[]T) error {
	log := logger.FromContext(ctx).WithPrefix("cardstore")
	raw, ok, err := kv.Get(ctx, key)
	if err != nil {
		log.Error("failed to read %s: %v", key, err)
		return errors.NewInternalError(err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		*dst = []T{}
		return nil
	}
	var parsed []T
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		log.Warn("stored %s is not valid JSON, starting empty: %v", key, err)
		*dst = []T{}
		return nil
	}
	if parsed == nil {
		parsed = []T{}
	}
	*dst = parsed
	return nil
}

// sanitizeCards drops entries that cannot be used and repairs counters so the
// collection satisfies 0 <= correctCount <= reviewCount.
func sanitizeCards(cards []models.Flashcard) []models.Flashcard {
	out := make([]models.Flashcard, 0, len(cards))
	for _, c := range cards {
		if c.ID == "" || strings.TrimSpace(c.Word) == "" {
			continue
		}
		if c.ReviewCount < 0 {
			c.ReviewCount = 0
		}
		if c.CorrectCount < 0 {
			c.CorrectCount = 0
		}
		if c.CorrectCount > c.ReviewCount {
			c.CorrectCount = c.ReviewCount
		}
		out = append(out, c)
	}
	return out
}

func (s *Store) persistCards(ctx context.Context) error {
	return s.persist(ctx, repository.KeyFlashcards, s.cards)
}

func (s *Store) persistCategories(ctx context.Context) error {
	return s.persist(ctx, repository.KeyCategories, s.categories)
}

func (s *Store) persist(ctx context.Context, key string, v any) error {
	log := logger.FromContext(ctx).WithPrefix("cardstore")
	data, err := json.Marshal(v)
	if err != nil {
		return errors.NewInternalError(err)
	}
	if err := s.kv.Set(ctx, key, string(data)); err != nil {
		log.Error("failed to persist %s: %v", key, err)
		return errors.NewInternalError(err)
	}
	return nil
}

func (s *Store) indexOf(id string) int {
	for i := range s.cards {
		if s.cards[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) wordIndex() map[string]struct{} {
	idx := make(map[string]struct{}, len(s.cards))
	for _, c := range s.cards {
		idx[textutil.Key(c.Word)] = struct{}{}
	}
	return idx
}

func (s *Store) hasCategory(id string) bool {
	for _, c := range s.categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

// clearDanglingCategories unsets category references that no longer resolve.
// The fix is in memory only; the next card write persists it.
func (s *Store) clearDanglingCategories() int {
	n := 0
	for i := range s.cards {
		if id := s.cards[i].CategoryID; id != nil && !s.hasCategory(*id) {
			s.cards[i].CategoryID = nil
			n++
		}
	}
	return n
}

func (s *Store) newCard(word, meaning string, categoryID *string) models.Flashcard {
	return models.Flashcard{
		ID:         s.newID(),
		Word:       word,
		Meaning:    meaning,
		CategoryID: categoryID,
		CreatedAt:  s.now().UnixMilli(),
	}
}

// categoryRef validates an optional category reference. Empty means none.
func (s *Store) categoryRef(categoryID string) (*string, error) {
	categoryID = strings.TrimSpace(categoryID)
	if categoryID == "" {
		return nil, nil
	}
	if !s.hasCategory(categoryID) {
		return nil, errors.NewNotFoundError("category", categoryID)
	}
	return &categoryID, nil
}

// Add inserts a single card. The word must not match an existing card
// case-insensitively.
func (s *Store) Add(ctx context.Context, word, meaning, categoryID string) (models.Flashcard, error) {
	log := logger.FromContext(ctx).WithPrefix("cardstore")
	word = strings.TrimSpace(word)
	meaning = strings.TrimSpace(meaning)
	if word == "" {
		return models.Flashcard{}, errors.NewValidationError("word", "cannot be empty")
	}
	if meaning == "" {
		return models.Flashcard{}, errors.NewValidationError("meaning", "cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.wordIndex()[textutil.Key(word)]; dup {
		log.Debug("rejecting duplicate word: %s", word)
		return models.Flashcard{}, errors.NewDuplicateWordError(word)
	}
	ref, err := s.categoryRef(categoryID)
	if err != nil {
		return models.Flashcard{}, err
	}

	card := s.newCard(word, meaning, ref)
	s.cards = append(s.cards, card)
	if err := s.persistCards(ctx); err != nil {
		s.cards = s.cards[:len(s.cards)-1]
		return models.Flashcard{}, err
	}
	log.Info("added card: id=%s, word=%s", card.ID, card.Word)
	return card, nil
}

// ParseLine splits an import line on "::" or, failing that, a tab. ok is
// false unless there are exactly two non-empty parts.
func ParseLine(line string) (word, meaning string, ok bool) {
	var parts []string
	switch {
	case strings.Contains(line, "::"):
		parts = strings.Split(line, "::")
	case strings.Contains(line, "\t"):
		parts = strings.Split(line, "\t")
	default:
		return "", "", false
	}
	if len(parts) != 2 {
		return "", "", false
	}
	word = strings.TrimSpace(parts[0])
	meaning = strings.TrimSpace(parts[1])
	if word == "" || meaning == "" {
		return "", "", false
	}
	return word, meaning, true
}

// BulkImport adds one card per well-formed line of text. Duplicates against
// the collection or earlier lines in the same batch are skipped and reported.
func (s *Store) BulkImport(ctx context.Context, text, categoryID string) (models.ImportResult, error) {
	log := logger.FromContext(ctx).WithPrefix("cardstore")
	result := models.ImportResult{Added: []models.Flashcard{}, SkippedDuplicates: []string{}}

	s.mu.Lock()
	defer s.mu.Unlock()

	ref, err := s.categoryRef(categoryID)
	if err != nil {
		return result, err
	}

	seen := s.wordIndex()
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		word, meaning, ok := ParseLine(line)
		if !ok {
			result.Malformed++
			continue
		}
		key := textutil.Key(word)
		if _, dup := seen[key]; dup {
			result.SkippedDuplicates = append(result.SkippedDuplicates, word)
			continue
		}
		seen[key] = struct{}{}
		result.Added = append(result.Added, s.newCard(word, meaning, ref))
	}

	if len(result.Added) == 0 {
		log.Debug("bulk import added nothing: skipped=%d, malformed=%d", len(result.SkippedDuplicates), result.Malformed)
		return result, nil
	}
	s.cards = append(s.cards, result.Added...)
	if err := s.persistCards(ctx); err != nil {
		s.cards = s.cards[:len(s.cards)-len(result.Added)]
		return models.ImportResult{}, err
	}
	log.Info("bulk import: added=%d, skipped=%d, malformed=%d",
		len(result.Added), len(result.SkippedDuplicates), result.Malformed)
	return result, nil
}

// Update applies patch to the card with id.
func (s *Store) Update(ctx context.Context, id string, patch models.FlashcardPatch) (models.Flashcard, error) {
	log := logger.FromContext(ctx).WithPrefix("cardstore")

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.Flashcard{}, errors.NewNotFoundError("flashcard", id)
	}
	card := s.cards[i]

	if patch.Word != nil {
		word := strings.TrimSpace(*patch.Word)
		if word == "" {
			return models.Flashcard{}, errors.NewValidationError("word", "cannot be empty")
		}
		if !textutil.Equal(word, card.Word) {
			for _, other := range s.cards {
				if other.ID != id && textutil.Equal(other.Word, word) {
					return models.Flashcard{}, errors.NewDuplicateWordError(word)
				}
			}
		}
		card.Word = word
	}
	if patch.Meaning != nil {
		meaning := strings.TrimSpace(*patch.Meaning)
		if meaning == "" {
			return models.Flashcard{}, errors.NewValidationError("meaning", "cannot be empty")
		}
		card.Meaning = meaning
	}
	switch {
	case patch.ClearCategory:
		card.CategoryID = nil
	case patch.CategoryID != nil:
		ref, err := s.categoryRef(*patch.CategoryID)
		if err != nil {
			return models.Flashcard{}, err
		}
		card.CategoryID = ref
	}

	prev := s.cards[i]
	s.cards[i] = card
	if err := s.persistCards(ctx); err != nil {
		s.cards[i] = prev
		return models.Flashcard{}, err
	}
	log.Debug("updated card: id=%s", id)
	return card, nil
}

// Remove deletes the card with id. Removing a missing card is a no-op.
func (s *Store) Remove(ctx context.Context, id string) error {
	log := logger.FromContext(ctx).WithPrefix("cardstore")

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		log.Debug("remove of missing card ignored: id=%s", id)
		return nil
	}
	prev := s.cards
	removed := s.cards[i]
	// The full slice expression forces a copy so prev stays intact.
	s.cards = append(s.cards[:i:i], s.cards[i+1:]...)
	if err := s.persistCards(ctx); err != nil {
		s.cards = prev
		return err
	}
	log.Info("removed card: id=%s, word=%s", id, removed.Word)
	return nil
}

// Get returns the card with id.
func (s *Store) Get(id string) (models.Flashcard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return models.Flashcard{}, errors.NewNotFoundError("flashcard", id)
	}
	return s.cards[i], nil
}

// List returns every card in insertion order.
func (s *Store) List() []models.Flashcard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Flashcard(nil), s.cards...)
}

// Len returns the number of cards.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cards)
}

// Filter returns the cards matching f, sorted by f.Sort.
func (s *Store) Filter(f models.FlashcardFilter) []models.Flashcard {
	s.mu.RLock()
	out := make([]models.Flashcard, 0, len(s.cards))
	search := textutil.Key(f.Search)
	for _, c := range s.cards {
		if !s.matchesCategory(c, f.CategoryID) {
			continue
		}
		if search != "" && !strings.Contains(textutil.Key(c.Word), search) && !strings.Contains(textutil.Key(c.Meaning), search) {
			continue
		}
		if f.Mastery != "" && flashcard.Classify(c) != f.Mastery {
			continue
		}
		out = append(out, c)
	}
	s.mu.RUnlock()

	SortCards(out, f.Sort)
	return out
}

// matchesCategory counts a card pointing at a missing category as
// uncategorized, the same as CategoryCounts. Callers hold mu.
func (s *Store) matchesCategory(c models.Flashcard, categoryID string) bool {
	switch categoryID {
	case "", models.CategoryAll:
		return true
	case models.CategoryUncategorized:
		return c.CategoryID == nil || !s.hasCategory(*c.CategoryID)
	default:
		return c.InCategory(categoryID)
	}
}

// SortCards orders cards in place. Ties keep their existing order.
func SortCards(cards []models.Flashcard, order models.SortOrder) {
	var less func(a, b models.Flashcard) bool
	switch order {
	case models.SortOldest:
		less = func(a, b models.Flashcard) bool { return a.CreatedAt < b.CreatedAt }
	case models.SortAlphabetical:
		less = func(a, b models.Flashcard) bool { return textutil.Key(a.Word) < textutil.Key(b.Word) }
	case models.SortMostReviewed:
		less = func(a, b models.Flashcard) bool { return a.ReviewCount > b.ReviewCount }
	case models.SortLeastReviewed:
		less = func(a, b models.Flashcard) bool { return a.ReviewCount < b.ReviewCount }
	case models.SortSuccessRate:
		less = func(a, b models.Flashcard) bool { return flashcard.SuccessRate(a) > flashcard.SuccessRate(b) }
	default:
		less = func(a, b models.Flashcard) bool { return a.CreatedAt > b.CreatedAt }
	}
	sort.SliceStable(cards, func(i, j int) bool { return less(cards[i], cards[j]) })
}

// Export renders the matching cards as "word :: meaning" lines, the same
// format BulkImport accepts.
func (s *Store) Export(f models.FlashcardFilter) string {
	cards := s.Filter(f)
	var b strings.Builder
	for _, c := range cards {
		b.WriteString(c.Word)
		b.WriteString(" :: ")
		b.WriteString(strings.ReplaceAll(c.Meaning, "\n", " "))
		b.WriteByte('\n')
	}
	return b.String()
}

// SaveWords adds each word as a card with an empty meaning, to be filled in
// later. Words already in the collection are reported as skipped.
func (s *Store) SaveWords(ctx context.Context, words []string) (models.SaveWordsResult, error) {
	log := logger.FromContext(ctx).WithPrefix("cardstore")
	result := models.SaveWordsResult{Added: []models.Flashcard{}, Skipped: []string{}}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := s.wordIndex()
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		key := textutil.Key(w)
		if _, dup := seen[key]; dup {
			result.Skipped = append(result.Skipped, w)
			continue
		}
		seen[key] = struct{}{}
		result.Added = append(result.Added, s.newCard(w, "", nil))
	}
	if len(result.Added) == 0 {
		return result, nil
	}
	s.cards = append(s.cards, result.Added...)
	if err := s.persistCards(ctx); err != nil {
		s.cards = s.cards[:len(s.cards)-len(result.Added)]
		return models.SaveWordsResult{}, err
	}
	log.Info("saved %d words from exercise, skipped %d", len(result.Added), len(result.Skipped))
	return result, nil
}

// ApplyResults records every answer against its card and persists once.
// Results for cards that no longer exist are ignored.
func (s *Store) ApplyResults(ctx context.Context, results []models.AnswerResult) ([]models.Flashcard, error) {
	log := logger.FromContext(ctx).WithPrefix("cardstore")

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := append([]models.Flashcard(nil), s.cards...)
	now := s.now()
	updated := make([]models.Flashcard, 0, len(results))
	for _, r := range results {
		i := s.indexOf(r.CardID)
		if i < 0 {
			log.Debug("skipping result for missing card: id=%s", r.CardID)
			continue
		}
		s.cards[i] = flashcard.RecordAnswer(s.cards[i], r.Correct, now)
		updated = append(updated, s.cards[i])
	}
	if len(updated) == 0 {
		return updated, nil
	}
	if err := s.persistCards(ctx); err != nil {
		s.cards = prev
		return nil, err
	}
	log.Debug("recorded %d answers", len(updated))
	return updated, nil
}
