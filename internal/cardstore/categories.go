package cardstore

import (
	"context"
	"strings"

	"github.com/vytor/vocabflash/internal/errors"
	"github.com/vytor/vocabflash/internal/logger"
	"github.com/vytor/vocabflash/internal/models"
	"github.com/vytor/vocabflash/internal/textutil"
)

// Categories returns every category in creation order.
func (s *Store) Categories() []models.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Category(nil), s.categories...)
}

func (s *Store) nameTaken(name, exceptID string) bool {
	for _, c := range s.categories {
		if c.ID != exceptID && textutil.Equal(c.Name, name) {
			return true
		}
	}
	return false
}

// AddCategory creates a category. An empty color picks the default.
func (s *Store) AddCategory(ctx context.Context, name, color string) (models.Category, error) {
	log := logger.FromContext(ctx).WithPrefix("cardstore")
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Category{}, errors.NewValidationError("name", "cannot be empty")
	}
	if color == "" {
		color = models.DefaultCategoryColor
	}
	if !models.ValidCategoryColor(color) {
		return models.Category{}, errors.NewValidationError("color", "must be one of the palette colors")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nameTaken(name, "") {
		return models.Category{}, errors.NewDuplicateCategoryError(name)
	}
	cat := models.Category{ID: s.newID(), Name: name, Color: color}
	s.categories = append(s.categories, cat)
	if err := s.persistCategories(ctx); err != nil {
		s.categories = s.categories[:len(s.categories)-1]
		return models.Category{}, err
	}
	log.Info("added category: id=%s, name=%s", cat.ID, cat.Name)
	return cat, nil
}

// UpdateCategory renames or recolors a category.
func (s *Store) UpdateCategory(ctx context.Context, id string, patch models.CategoryPatch) (models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, c := range s.categories {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.Category{}, errors.NewNotFoundError("category", id)
	}
	cat := s.categories[idx]
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return models.Category{}, errors.NewValidationError("name", "cannot be empty")
		}
		if s.nameTaken(name, id) {
			return models.Category{}, errors.NewDuplicateCategoryError(name)
		}
		cat.Name = name
	}
	if patch.Color != nil {
		if !models.ValidCategoryColor(*patch.Color) {
			return models.Category{}, errors.NewValidationError("color", "must be one of the palette colors")
		}
		cat.Color = *patch.Color
	}

	prev := s.categories[idx]
	s.categories[idx] = cat
	if err := s.persistCategories(ctx); err != nil {
		s.categories[idx] = prev
		return models.Category{}, err
	}
	return cat, nil
}

// RemoveCategory deletes a category and clears the reference on its cards.
// The cards themselves are kept. Removing a missing category is a no-op.
//
// Categories and cards are written as two separate keys, so a failure
// between the writes can leave cards pointing at a deleted category.
// CategoryCounts reports those cards as uncategorized.
func (s *Store) RemoveCategory(ctx context.Context, id string) error {
	log := logger.FromContext(ctx).WithPrefix("cardstore")

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, c := range s.categories {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	prev := s.categories
	s.categories = append(s.categories[:idx:idx], s.categories[idx+1:]...)
	if err := s.persistCategories(ctx); err != nil {
		s.categories = prev
		return err
	}

	cleared := 0
	for i := range s.cards {
		if s.cards[i].InCategory(id) {
			s.cards[i].CategoryID = nil
			cleared++
		}
	}
	if cleared > 0 {
		if err := s.persistCards(ctx); err != nil {
			return err
		}
	}
	log.Info("removed category %s, cleared %d cards", id, cleared)
	return nil
}

// CategoryCounts returns the number of cards per category followed by an
// entry with an empty ID for uncategorized cards. Cards pointing at a
// category that no longer exists count as uncategorized.
func (s *Store) CategoryCounts() []models.CategoryCount {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int, len(s.categories))
	uncategorized := 0
	for _, c := range s.cards {
		if c.CategoryID == nil || !s.hasCategory(*c.CategoryID) {
			uncategorized++
			continue
		}
		counts[*c.CategoryID]++
	}

	out := make([]models.CategoryCount, 0, len(s.categories)+1)
	for _, cat := range s.categories {
		out = append(out, models.CategoryCount{ID: cat.ID, Name: cat.Name, Count: counts[cat.ID]})
	}
	out = append(out, models.CategoryCount{Name: "Uncategorized", Count: uncategorized})
	return out
}
