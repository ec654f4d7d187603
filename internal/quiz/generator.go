// Package quiz builds multiple-choice quizzes from a card pool.
package quiz

import (
	"context"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vytor/vocabflash/internal/errors"
	"github.com/vytor/vocabflash/internal/flashcard"
	"github.com/vytor/vocabflash/internal/logger"
	"github.com/vytor/vocabflash/internal/models"
	"github.com/vytor/vocabflash/internal/textutil"
)

const (
	// MinPoolSize is the smallest pool a quiz can be built from.
	MinPoolSize = 3
	// Distractors is the number of wrong options per question.
	Distractors = 3
	// MaxSentenceBatch caps the words sent in one sentence request.
	MaxSentenceBatch = 10
)

const fallbackNotice = "Some example sentences could not be generated, practice sentences were used instead."

// Sentence is one generated example sentence for a word.
type Sentence struct {
	Word     string `json:"word"`
	Sentence string `json:"sentence"`
}

// SentenceSource produces example sentences. Any error, or a sentence that
// does not contain its word, is replaced by FallbackSentence.
type SentenceSource interface {
	Sentences(ctx context.Context, words []string) ([]Sentence, error)
}

// Request describes the quiz to build.
type Request struct {
	Size          int
	Difficulty    models.Difficulty
	CustomSeconds int
}

// Generator builds quizzes. It is safe for concurrent use.
type Generator struct {
	mu        sync.Mutex
	rng       *rand.Rand
	sentences SentenceSource
}

// NewGenerator returns a Generator drawing randomness from rng. A nil rng is
// seeded from the clock; a nil source makes every sentence quiz use fallbacks.
func NewGenerator(rng *rand.Rand, sentences SentenceSource) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{rng: rng, sentences: sentences}
}

func (g *Generator) prepare(pool []models.Flashcard, req Request) ([]models.Flashcard, time.Duration, error) {
	if len(pool) < MinPoolSize {
		return nil, 0, errors.NewInsufficientCardsError(len(pool), MinPoolSize)
	}
	if req.Size <= 0 {
		return nil, 0, errors.NewValidationError("size", "must be at least 1")
	}
	limit, err := TimeLimit(req.Difficulty, req.CustomSeconds)
	if err != nil {
		return nil, 0, errors.NewValidationError("difficulty", err.Error())
	}
	g.mu.Lock()
	selected := g.selectCards(pool, req.Size, req.Difficulty)
	g.mu.Unlock()
	return selected, limit, nil
}

// BuildMeaningQuiz builds a word-to-meaning quiz over pool. Distractor
// meanings are drawn from all, the full collection; when all is empty the
// pool is used.
func (g *Generator) BuildMeaningQuiz(all, pool []models.Flashcard, req Request) (models.Quiz, error) {
	selected, limit, err := g.prepare(pool, req)
	if err != nil {
		return models.Quiz{}, err
	}
	if len(all) == 0 {
		all = pool
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	questions := make([]models.QuizQuestion, 0, len(selected))
	for _, card := range selected {
		var candidates []string
		for _, other := range all {
			if other.ID == card.ID {
				continue
			}
			candidates = append(candidates, other.Meaning)
		}
		options, correct := g.buildOptions(card.Meaning, candidates)
		questions = append(questions, models.QuizQuestion{
			ID:           card.ID,
			Word:         card.Word,
			Meaning:      card.Meaning,
			Options:      options,
			CorrectIndex: correct,
		})
	}

	return models.Quiz{
		Mode:            models.QuizModeMeaning,
		Difficulty:      difficultyOrDefault(req.Difficulty),
		QuestionTimeout: limit,
		TimeLimitSecs:   int(limit / time.Second),
		Questions:       questions,
	}, nil
}

// BuildSentenceQuiz builds a fill-in-the-blank quiz. Generation problems never
// fail the quiz: affected questions use FallbackSentence and the quiz is
// flagged so the caller can show a notice.
func (g *Generator) BuildSentenceQuiz(ctx context.Context, pool []models.Flashcard, req Request) (models.Quiz, error) {
	log := logger.FromContext(ctx).WithPrefix("quiz")

	selected, limit, err := g.prepare(pool, req)
	if err != nil {
		return models.Quiz{}, err
	}

	generated := g.fetchSentences(ctx, selected)

	g.mu.Lock()
	defer g.mu.Unlock()

	fallbacks := 0
	questions := make([]models.QuizQuestion, 0, len(selected))
	for _, card := range selected {
		sentence, ok := generated[textutil.Key(card.Word)]
		masked := ""
		if ok {
			masked, ok = MaskWord(sentence, card.Word)
		}
		if !ok {
			masked = FallbackSentence
			fallbacks++
		}

		candidates := make([]string, 0, len(pool))
		for _, other := range selected {
			if other.ID != card.ID {
				candidates = append(candidates, other.Word)
			}
		}
		options, correct := g.buildOptions(card.Word, candidates)
		if len(options) < Distractors+1 {
			// Top up from the rest of the pool when the selection is small.
			var extra []string
			for _, other := range pool {
				if other.ID != card.ID {
					extra = append(extra, other.Word)
				}
			}
			options, correct = g.buildOptions(card.Word, append(candidates, extra...))
		}

		questions = append(questions, models.QuizQuestion{
			ID:           card.ID,
			Word:         card.Word,
			Meaning:      card.Meaning,
			Sentence:     masked,
			Options:      options,
			CorrectIndex: correct,
		})
	}

	quiz := models.Quiz{
		Mode:            models.QuizModeSentence,
		Difficulty:      difficultyOrDefault(req.Difficulty),
		QuestionTimeout: limit,
		TimeLimitSecs:   int(limit / time.Second),
		Questions:       questions,
	}
	if fallbacks > 0 {
		log.Warn("using fallback sentences for %d of %d questions", fallbacks, len(questions))
		quiz.Fallback = true
		quiz.Notice = fallbackNotice
	}
	return quiz, nil
}

// fetchSentences asks the source for sentences in batches, keyed by folded word.
func (g *Generator) fetchSentences(ctx context.Context, cards []models.Flashcard) map[string]string {
	log := logger.FromContext(ctx).WithPrefix("quiz")
	out := make(map[string]string, len(cards))
	if g.sentences == nil {
		return out
	}

	words := make([]string, len(cards))
	for i, c := range cards {
		words[i] = c.Word
	}

	for start := 0; start < len(words); start += MaxSentenceBatch {
		end := min(start+MaxSentenceBatch, len(words))
		batch := words[start:end]
		sentences, err := g.sentences.Sentences(ctx, batch)
		if err != nil {
			log.Warn("sentence generation failed for %d words: %v", len(batch), err)
			continue
		}
		for _, s := range sentences {
			key := textutil.Key(s.Word)
			if key == "" || strings.TrimSpace(s.Sentence) == "" {
				continue
			}
			if _, seen := out[key]; !seen {
				out[key] = s.Sentence
			}
		}
	}
	return out
}

// buildOptions picks up to Distractors unique candidates different from
// correct, shuffles them with correct and returns the correct index.
// Callers hold g.mu.
func (g *Generator) buildOptions(correct string, candidates []string) ([]string, int) {
	seen := map[string]bool{textutil.Key(correct): true}
	unique := make([]string, 0, len(candidates))
	for _, c := range candidates {
		key := textutil.Key(c)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, c)
	}
	g.rng.Shuffle(len(unique), func(i, j int) { unique[i], unique[j] = unique[j], unique[i] })
	if len(unique) > Distractors {
		unique = unique[:Distractors]
	}

	options := append(unique, correct)
	g.rng.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })
	for i, o := range options {
		if o == correct {
			return options, i
		}
	}
	return options, len(options) - 1
}

// selectCards picks min(size, len(pool)) distinct cards. Hard quizzes take
// reviewed cards with the lowest success rate first and fill the rest at
// random. Callers hold g.mu.
func (g *Generator) selectCards(pool []models.Flashcard, size int, d models.Difficulty) []models.Flashcard {
	n := min(size, len(pool))
	shuffled := make([]models.Flashcard, len(pool))
	copy(shuffled, pool)
	g.rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	if d != models.DifficultyHard {
		return shuffled[:n]
	}

	var reviewed, rest []models.Flashcard
	for _, c := range shuffled {
		if c.ReviewCount > 0 {
			reviewed = append(reviewed, c)
		} else {
			rest = append(rest, c)
		}
	}
	sort.SliceStable(reviewed, func(i, j int) bool {
		return flashcard.SuccessRate(reviewed[i]) < flashcard.SuccessRate(reviewed[j])
	})

	selected := make([]models.Flashcard, 0, n)
	take := min(n, len(reviewed))
	selected = append(selected, reviewed[:take]...)
	remaining := append(rest, reviewed[take:]...)
	g.rng.Shuffle(len(remaining), func(i, j int) { remaining[i], remaining[j] = remaining[j], remaining[i] })
	selected = append(selected, remaining[:n-len(selected)]...)

	// Shuffle so the hardest card is not always first.
	g.rng.Shuffle(len(selected), func(i, j int) { selected[i], selected[j] = selected[j], selected[i] })
	return selected
}

func difficultyOrDefault(d models.Difficulty) models.Difficulty {
	if d == "" {
		return models.DifficultyMedium
	}
	return d
}
