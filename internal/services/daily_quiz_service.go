package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/vytor/vocabflash/internal/cardstore"
	"github.com/vytor/vocabflash/internal/errors"
	"github.com/vytor/vocabflash/internal/logger"
	"github.com/vytor/vocabflash/internal/models"
	"github.com/vytor/vocabflash/internal/quiz"
	"github.com/vytor/vocabflash/internal/repository"
	"github.com/vytor/vocabflash/internal/streak"
)

// StartDailyRequest describes a daily quiz. Standard and custom quizzes ask
// for meanings; custom ones honour the requested difficulty.
type StartDailyRequest struct {
	Type          models.QuizType
	Size          int
	CategoryID    string
	Difficulty    models.Difficulty
	CustomSeconds int
	ClientID      string
}

// DailyQuizService runs the once-a-day quiz and keeps the streak.
type DailyQuizService interface {
	Overview(ctx context.Context) (models.DailyOverview, error)
	Start(ctx context.Context, req StartDailyRequest) (models.QuizSession, error)
	Answer(ctx context.Context, sessionID string, sub models.AnswerSubmission) (models.AnswerResult, error)
	Finish(ctx context.Context, sessionID string) (models.DailyResult, error)
}

type dailyQuizService struct {
	store    *cardstore.Store
	kv       repository.KVStore
	gen      *quiz.Generator
	sessions *SessionRegistry
	tracker  *RequestTracker
	now      func() time.Time

	// serialises read-modify-write of the persisted state
	mu sync.Mutex
}

// NewDailyQuizService creates a new DailyQuizService. A nil clock uses
// time.Now; the calendar day is taken in the clock's location.
func NewDailyQuizService(store *cardstore.Store, kv repository.KVStore, gen *quiz.Generator, sessions *SessionRegistry,
	tracker *RequestTracker, now func() time.Time) DailyQuizService {
	if now == nil {
		now = time.Now
	}
	return &dailyQuizService{store: store, kv: kv, gen: gen, sessions: sessions, tracker: tracker, now: now}
}

// LoadDailyState reads the persisted state. A missing or unreadable
// document yields the zero state; only a failing read is an error.
func LoadDailyState(ctx context.Context, kv repository.KVStore) (models.DailyQuizState, error) {
	log := logger.FromContext(ctx)

	var state models.DailyQuizState
	raw, ok, err := kv.Get(ctx, repository.KeyDailyQuizState)
	if err != nil {
		return state, fmt.Errorf("load daily quiz state: %w", err)
	}
	if !ok || raw == "" {
		return state, nil
	}
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		log.Warn("discarding unreadable daily quiz state: %v", err)
		return models.DailyQuizState{}, nil
	}
	return state, nil
}

func (s *dailyQuizService) Overview(ctx context.Context) (models.DailyOverview, error) {
	log := logger.FromContext(ctx)
	state, err := LoadDailyState(ctx, s.kv)
	if err != nil {
		log.Error("failed to load daily quiz state: %v", err)
		return models.DailyOverview{}, errors.NewInternalError(err)
	}
	return streak.Overview(state, streak.Today(s.now())), nil
}

func (s *dailyQuizService) Start(ctx context.Context, req StartDailyRequest) (models.QuizSession, error) {
	log := logger.FromContext(ctx).WithPrefix("daily-quiz")
	log.Debug("starting daily quiz: type=%s, size=%d, category=%q", req.Type, req.Size, req.CategoryID)

	size, err := normalizeSize(req.Size)
	if err != nil {
		return models.QuizSession{}, err
	}

	quizType := req.Type
	if quizType == "" {
		quizType = models.QuizTypeStandard
	}
	qr := quiz.Request{Size: size, Difficulty: models.DifficultyMedium}
	mode := models.QuizModeMeaning
	switch quizType {
	case models.QuizTypeStandard:
	case models.QuizTypeSentence:
		mode = models.QuizModeSentence
	case models.QuizTypeCustom:
		if req.Difficulty != "" {
			qr.Difficulty = req.Difficulty
		}
		qr.CustomSeconds = req.CustomSeconds
	default:
		return models.QuizSession{}, errors.NewValidationError("type", "must be standard, sentence or custom")
	}

	q, err := buildQuiz(ctx, s.store, s.gen, s.tracker, mode, qr, req.CategoryID, req.ClientID)
	if err != nil {
		return models.QuizSession{}, err
	}
	session, err := s.sessions.create(models.SessionDaily, quizType, q)
	if err != nil {
		log.Error("failed to create session: %v", err)
		return models.QuizSession{}, errors.NewInternalError(err)
	}
	log.Info("daily quiz started: id=%s, type=%s, questions=%d", session.ID, quizType, len(q.Questions))
	return session, nil
}

func (s *dailyQuizService) Answer(ctx context.Context, sessionID string, sub models.AnswerSubmission) (models.AnswerResult, error) {
	logger.FromContext(ctx).Debug("answering daily quiz: session=%s, question=%d", sessionID, sub.QuestionIndex)
	return s.sessions.answer(sessionID, models.SessionDaily, sub)
}

func (s *dailyQuizService) Finish(ctx context.Context, sessionID string) (models.DailyResult, error) {
	log := logger.FromContext(ctx).WithPrefix("daily-quiz")

	session, err := s.sessions.begin(sessionID, models.SessionDaily)
	if err != nil {
		return models.DailyResult{}, err
	}
	res, err := s.finish(ctx, session, log)
	if err != nil {
		s.sessions.release(sessionID)
		return models.DailyResult{}, err
	}
	s.sessions.complete(sessionID)
	log.Info("daily quiz completed: streak=%d, longest=%d, score=%d",
		res.Overview.State.Streak, res.Overview.State.LongestStreak, res.Summary.Score)
	return res, nil
}

// finish saves the streak before the card write-back. Each step is skipped
// on retry once it has succeeded.
func (s *dailyQuizService) finish(ctx context.Context, session *quizSession, log *logger.Logger) (models.DailyResult, error) {
	summary, err := summarize(session, models.SessionDaily)
	if err != nil {
		return models.DailyResult{}, err
	}
	today := streak.Today(s.now())
	if session.streak == nil {
		next, err := s.recordStreak(ctx, session, summary.Score, today, log)
		if err != nil {
			return models.DailyResult{}, err
		}
		session.streak = &next
	}
	if err := recordResults(ctx, s.store, session, log); err != nil {
		return models.DailyResult{}, err
	}
	return models.DailyResult{Summary: summary, Overview: streak.Overview(*session.streak, today)}, nil
}

func (s *dailyQuizService) recordStreak(ctx context.Context, session *quizSession, score int, today string, log *logger.Logger) (models.DailyQuizState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := LoadDailyState(ctx, s.kv)
	if err != nil {
		log.Error("failed to load daily quiz state: %v", err)
		return models.DailyQuizState{}, errors.NewInternalError(err)
	}
	next, err := streak.Complete(state, today, score, len(session.view.Questions), session.view.QuizType)
	if err != nil {
		return models.DailyQuizState{}, errors.NewInternalError(err)
	}
	raw, err := json.Marshal(next)
	if err != nil {
		return models.DailyQuizState{}, errors.NewInternalError(err)
	}
	if err := s.kv.Set(ctx, repository.KeyDailyQuizState, string(raw)); err != nil {
		log.Error("failed to persist daily quiz state: %v", err)
		return models.DailyQuizState{}, errors.NewInternalError(err)
	}
	return next, nil
}
