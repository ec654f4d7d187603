package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vytor/vocabflash/internal/ai"
	"github.com/vytor/vocabflash/internal/cardstore"
	"github.com/vytor/vocabflash/internal/errors"
	"github.com/vytor/vocabflash/internal/logger"
	"github.com/vytor/vocabflash/internal/models"
	"github.com/vytor/vocabflash/internal/repository"
	"github.com/vytor/vocabflash/internal/textutil"
)

// Notices shown next to canned content.
const (
	ParagraphFallbackNotice  = "The paragraph could not be generated, a practice paragraph was used instead."
	EvaluationFallbackNotice = "Your translation could not be evaluated automatically, general feedback is shown instead."
)

// Paragraph list page sizes.
const (
	DefaultParagraphLimit = 50
	MaxParagraphLimit     = 200
)

type GenerateParagraphRequest struct {
	Words      []string
	Difficulty models.Difficulty
	ClientID   string
}

type RandomParagraphRequest struct {
	Difficulty models.Difficulty
	Exclude    []string
	ClientID   string
}

// EvaluateRequest grades a translation. When ParagraphID names a saved
// paragraph the score is stored on it.
type EvaluateRequest struct {
	ParagraphID string
	Arabic      string
	Translation string
	Words       []string
	ClientID    string
}

// ParagraphService handles the paragraph translation exercise.
type ParagraphService interface {
	Generate(ctx context.Context, req GenerateParagraphRequest) (models.GeneratedParagraph, error)
	GenerateRandom(ctx context.Context, req RandomParagraphRequest) (models.GeneratedParagraph, error)
	Evaluate(ctx context.Context, req EvaluateRequest) (models.TranslationFeedback, error)
	SaveWords(ctx context.Context, words []string) (models.SaveWordsResult, error)
	SaveParagraph(ctx context.Context, p models.SavedParagraph) (models.SavedParagraph, error)
	ListParagraphs(ctx context.Context, limit int) ([]models.SavedParagraph, error)
	DeleteParagraph(ctx context.Context, id string) error
}

type paragraphService struct {
	store      *cardstore.Store
	paragraphs repository.ParagraphRepository
	tasks      *ai.Tasks
	tracker    *RequestTracker
	now        func() time.Time
}

// NewParagraphService creates a new ParagraphService
func NewParagraphService(store *cardstore.Store, paragraphs repository.ParagraphRepository, tasks *ai.Tasks,
	tracker *RequestTracker, now func() time.Time) ParagraphService {
	if now == nil {
		now = time.Now
	}
	return &paragraphService{store: store, paragraphs: paragraphs, tasks: tasks, tracker: tracker, now: now}
}

// cleanWords trims, drops empties and removes case-insensitive repeats.
func cleanWords(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		k := textutil.Key(w)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, w)
	}
	return out
}

func paragraphDifficulty(d models.Difficulty) (models.Difficulty, error) {
	switch d {
	case "":
		return models.DifficultyMedium, nil
	case models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard:
		return d, nil
	default:
		return "", errors.NewValidationError("difficulty", "must be easy, medium or hard")
	}
}

func (s *paragraphService) hints(words []string) []ai.WordHint {
	meanings := make(map[string]string)
	for _, c := range s.store.List() {
		if c.Meaning != "" {
			meanings[textutil.Key(c.Word)] = c.Meaning
		}
	}
	out := make([]ai.WordHint, len(words))
	for i, w := range words {
		out[i] = ai.WordHint{Word: w, Translation: meanings[textutil.Key(w)]}
	}
	return out
}

func (s *paragraphService) Generate(ctx context.Context, req GenerateParagraphRequest) (models.GeneratedParagraph, error) {
	log := logger.FromContext(ctx).WithPrefix("paragraph")

	words := cleanWords(req.Words)
	if len(words) < ai.MinParagraphWords {
		return models.GeneratedParagraph{}, errors.NewValidationError("words",
			fmt.Sprintf("at least %d words are required", ai.MinParagraphWords))
	}
	d, err := paragraphDifficulty(req.Difficulty)
	if err != nil {
		return models.GeneratedParagraph{}, err
	}

	ctx, ticket := s.tracker.Begin(ctx, req.ClientID, KindParagraph)
	defer ticket.Done()

	out := s.tasks.GenerateParagraph(ctx, s.hints(words), d)
	if err := ticket.Check(); err != nil {
		return models.GeneratedParagraph{}, err
	}
	p := out.Value
	if out.Fallback {
		log.Warn("using fallback paragraph: %s", out.Reason)
		p.Fallback = true
		p.Notice = ParagraphFallbackNotice
	}
	return p, nil
}

func (s *paragraphService) GenerateRandom(ctx context.Context, req RandomParagraphRequest) (models.GeneratedParagraph, error) {
	log := logger.FromContext(ctx).WithPrefix("paragraph")

	d, err := paragraphDifficulty(req.Difficulty)
	if err != nil {
		return models.GeneratedParagraph{}, err
	}

	ctx, ticket := s.tracker.Begin(ctx, req.ClientID, KindRandomParagraph)
	defer ticket.Done()

	out := s.tasks.GenerateRandomParagraph(ctx, d, cleanWords(req.Exclude))
	if err := ticket.Check(); err != nil {
		return models.GeneratedParagraph{}, err
	}
	if out.Fallback {
		log.Warn("random paragraph generation failed: %s", out.Reason)
		return models.GeneratedParagraph{}, errors.NewGenerationError("paragraph", fmt.Errorf("%s", out.Reason))
	}
	return out.Value, nil
}

func (s *paragraphService) Evaluate(ctx context.Context, req EvaluateRequest) (models.TranslationFeedback, error) {
	log := logger.FromContext(ctx).WithPrefix("paragraph")

	if strings.TrimSpace(req.Arabic) == "" {
		return models.TranslationFeedback{}, errors.NewValidationError("arabic", "cannot be empty")
	}
	if strings.TrimSpace(req.Translation) == "" {
		return models.TranslationFeedback{}, errors.NewValidationError("translation", "cannot be empty")
	}
	if req.ParagraphID != "" {
		saved, err := s.paragraphs.Get(ctx, req.ParagraphID)
		if err != nil {
			log.Error("failed to load paragraph %s: %v", req.ParagraphID, err)
			return models.TranslationFeedback{}, errors.NewInternalError(err)
		}
		if saved == nil {
			return models.TranslationFeedback{}, errors.NewNotFoundError("paragraph", req.ParagraphID)
		}
	}

	ctx, ticket := s.tracker.Begin(ctx, req.ClientID, KindEvaluation)
	defer ticket.Done()

	out := s.tasks.EvaluateTranslation(ctx, req.Arabic, req.Translation, cleanWords(req.Words))
	if err := ticket.Check(); err != nil {
		return models.TranslationFeedback{}, err
	}
	feedback := out.Value
	if out.Fallback {
		log.Warn("using fallback feedback: %s", out.Reason)
		feedback.Fallback = true
		feedback.Notice = EvaluationFallbackNotice
		return feedback, nil
	}

	if req.ParagraphID != "" {
		if err := s.paragraphs.UpdateScore(ctx, req.ParagraphID, feedback.Score); err != nil {
			log.Error("failed to store score for paragraph %s: %v", req.ParagraphID, err)
			return models.TranslationFeedback{}, errors.NewInternalError(err)
		}
	}
	return feedback, nil
}

func (s *paragraphService) SaveWords(ctx context.Context, words []string) (models.SaveWordsResult, error) {
	words = cleanWords(words)
	if len(words) == 0 {
		return models.SaveWordsResult{}, errors.NewValidationError("words", "cannot be empty")
	}
	return s.store.SaveWords(ctx, words)
}

func (s *paragraphService) SaveParagraph(ctx context.Context, p models.SavedParagraph) (models.SavedParagraph, error) {
	log := logger.FromContext(ctx).WithPrefix("paragraph")

	p.ArabicText = strings.TrimSpace(p.ArabicText)
	if p.ArabicText == "" {
		return models.SavedParagraph{}, errors.NewValidationError("arabicText", "cannot be empty")
	}
	p.EnglishTranslation = strings.TrimSpace(p.EnglishTranslation)
	p.Words = cleanWords(p.Words)
	p.ID = uuid.NewString()
	p.CreatedAt = s.now().UnixMilli()
	if p.Score != nil && (*p.Score < 0 || *p.Score > 100) {
		return models.SavedParagraph{}, errors.NewValidationError("score", "must be between 0 and 100")
	}

	if err := s.paragraphs.Insert(ctx, p); err != nil {
		log.Error("failed to save paragraph: %v", err)
		return models.SavedParagraph{}, errors.NewInternalError(err)
	}
	log.Info("saved paragraph: id=%s, words=%d", p.ID, len(p.Words))
	return p, nil
}

func (s *paragraphService) ListParagraphs(ctx context.Context, limit int) ([]models.SavedParagraph, error) {
	if limit <= 0 {
		limit = DefaultParagraphLimit
	}
	limit = min(limit, MaxParagraphLimit)

	out, err := s.paragraphs.List(ctx, limit)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list paragraphs: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return out, nil
}

func (s *paragraphService) DeleteParagraph(ctx context.Context, id string) error {
	if err := s.paragraphs.Delete(ctx, id); err != nil {
		logger.FromContext(ctx).Error("failed to delete paragraph %s: %v", id, err)
		return errors.NewInternalError(err)
	}
	return nil
}
