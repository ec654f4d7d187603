package services

import (
	"context"

	"github.com/vytor/vocabflash/internal/cardstore"
	"github.com/vytor/vocabflash/internal/errors"
	"github.com/vytor/vocabflash/internal/logger"
	"github.com/vytor/vocabflash/internal/models"
	"github.com/vytor/vocabflash/internal/quiz"
	"github.com/vytor/vocabflash/internal/scoring"
)

// DefaultQuizSize is used when a request leaves the size out.
const DefaultQuizSize = 10

// MaxQuizSize bounds a single session.
const MaxQuizSize = 50

// StartQuizRequest describes a practice quiz.
type StartQuizRequest struct {
	Mode          models.QuizMode
	Size          int
	Difficulty    models.Difficulty
	CustomSeconds int
	CategoryID    string
	ClientID      string
}

// QuizService runs practice quiz sessions over the card collection.
type QuizService interface {
	Start(ctx context.Context, req StartQuizRequest) (models.QuizSession, error)
	Answer(ctx context.Context, sessionID string, sub models.AnswerSubmission) (models.AnswerResult, error)
	Finish(ctx context.Context, sessionID string) (models.SessionSummary, error)
}

type quizService struct {
	store    *cardstore.Store
	gen      *quiz.Generator
	sessions *SessionRegistry
	tracker  *RequestTracker
}

// NewQuizService creates a new QuizService
func NewQuizService(store *cardstore.Store, gen *quiz.Generator, sessions *SessionRegistry, tracker *RequestTracker) QuizService {
	return &quizService{store: store, gen: gen, sessions: sessions, tracker: tracker}
}

func normalizeSize(size int) (int, error) {
	if size == 0 {
		return DefaultQuizSize, nil
	}
	if size < 0 || size > MaxQuizSize {
		return 0, errors.NewValidationError("size", "must be between 1 and 50")
	}
	return size, nil
}

func (s *quizService) Start(ctx context.Context, req StartQuizRequest) (models.QuizSession, error) {
	log := logger.FromContext(ctx).WithPrefix("quiz-service")
	log.Debug("starting quiz: mode=%s, size=%d, difficulty=%s, category=%q", req.Mode, req.Size, req.Difficulty, req.CategoryID)

	size, err := normalizeSize(req.Size)
	if err != nil {
		return models.QuizSession{}, err
	}
	q, err := buildQuiz(ctx, s.store, s.gen, s.tracker, req.Mode, quiz.Request{
		Size:          size,
		Difficulty:    req.Difficulty,
		CustomSeconds: req.CustomSeconds,
	}, req.CategoryID, req.ClientID)
	if err != nil {
		return models.QuizSession{}, err
	}

	session, err := s.sessions.create(models.SessionStandard, "", q)
	if err != nil {
		log.Error("failed to create session: %v", err)
		return models.QuizSession{}, errors.NewInternalError(err)
	}
	log.Info("quiz session started: id=%s, questions=%d, fallback=%v", session.ID, len(q.Questions), q.Fallback)
	return session, nil
}

// buildQuiz selects the pool for categoryID and builds a quiz in mode.
// Sentence quizzes are tracked so a newer request from the same client
// supersedes an older one still waiting on generation.
func buildQuiz(ctx context.Context, store *cardstore.Store, gen *quiz.Generator, tracker *RequestTracker,
	mode models.QuizMode, req quiz.Request, categoryID, clientID string) (models.Quiz, error) {
	pool := store.Filter(models.FlashcardFilter{CategoryID: categoryID})

	switch mode {
	case models.QuizModeMeaning, "":
		return gen.BuildMeaningQuiz(store.List(), pool, req)
	case models.QuizModeSentence:
		ctx, ticket := tracker.Begin(ctx, clientID, KindSentenceQuiz)
		defer ticket.Done()
		q, err := gen.BuildSentenceQuiz(ctx, pool, req)
		if err != nil {
			return models.Quiz{}, err
		}
		if err := ticket.Check(); err != nil {
			return models.Quiz{}, err
		}
		return q, nil
	default:
		return models.Quiz{}, errors.NewValidationError("mode", "must be meaning or sentence")
	}
}

func (s *quizService) Answer(ctx context.Context, sessionID string, sub models.AnswerSubmission) (models.AnswerResult, error) {
	log := logger.FromContext(ctx)
	log.Debug("answering quiz: session=%s, question=%d", sessionID, sub.QuestionIndex)
	return s.sessions.answer(sessionID, models.SessionStandard, sub)
}

func (s *quizService) Finish(ctx context.Context, sessionID string) (models.SessionSummary, error) {
	log := logger.FromContext(ctx).WithPrefix("quiz-service")

	session, err := s.sessions.begin(sessionID, models.SessionStandard)
	if err != nil {
		return models.SessionSummary{}, err
	}
	summary, err := summarize(session, models.SessionStandard)
	if err == nil {
		err = recordResults(ctx, s.store, session, log)
	}
	if err != nil {
		s.sessions.release(sessionID)
		return models.SessionSummary{}, err
	}
	s.sessions.complete(sessionID)
	log.Info("session finished: id=%s, score=%d, correct=%d/%d", sessionID, summary.Score, summary.Correct, summary.Total)
	return summary, nil
}

func summarize(session *quizSession, kind models.SessionKind) (models.SessionSummary, error) {
	summary, err := scoring.Summarize(session.results(), kind)
	if err != nil {
		return models.SessionSummary{}, errors.NewValidationError("answers", err.Error())
	}
	return summary, nil
}

// recordResults writes every answer back to the card collection once per
// session.
func recordResults(ctx context.Context, store *cardstore.Store, session *quizSession, log *logger.Logger) error {
	if session.recorded {
		return nil
	}
	if _, err := store.ApplyResults(ctx, session.results()); err != nil {
		log.Error("failed to record results for session %s: %v", session.view.ID, err)
		return err
	}
	session.recorded = true
	return nil
}
