package services

import (
	"fmt"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/vytor/vocabflash/internal/errors"
	"github.com/vytor/vocabflash/internal/models"
)

// DefaultSessionTTL is how long an unfinished quiz session is kept.
const DefaultSessionTTL = time.Hour

type quizSession struct {
	view    models.QuizSession
	answers map[int]models.AnswerResult
	expires time.Time

	// Set while one caller finishes the session. The fields below are
	// only touched by that caller.
	finishing bool
	recorded  bool
	streak    *models.DailyQuizState
}

// results returns the recorded answers in question order.
func (s *quizSession) results() []models.AnswerResult {
	out := make([]models.AnswerResult, 0, len(s.answers))
	for i := range s.view.Questions {
		if r, ok := s.answers[i]; ok {
			out = append(out, r)
		}
	}
	return out
}

// SessionRegistry holds started quizzes in memory until they are finished
// or expire.
type SessionRegistry struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]*quizSession
}

// NewSessionRegistry creates a registry. A nil clock uses time.Now.
func NewSessionRegistry(ttl time.Duration, now func() time.Time) *SessionRegistry {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if now == nil {
		now = time.Now
	}
	return &SessionRegistry{ttl: ttl, now: now, sessions: make(map[string]*quizSession)}
}

func (r *SessionRegistry) create(kind models.SessionKind, quizType models.QuizType, q models.Quiz) (models.QuizSession, error) {
	id, err := gonanoid.New()
	if err != nil {
		return models.QuizSession{}, fmt.Errorf("generate session id: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	r.sweep(now)

	expires := now.Add(r.ttl)
	s := &quizSession{
		view: models.QuizSession{
			ID:        id,
			Kind:      kind,
			QuizType:  quizType,
			ExpiresAt: expires.UnixMilli(),
			Quiz:      q,
		},
		answers: make(map[int]models.AnswerResult),
		expires: expires,
	}
	r.sessions[id] = s
	return s.view, nil
}

// sweep drops expired sessions. Callers hold mu.
func (r *SessionRegistry) sweep(now time.Time) {
	for id, s := range r.sessions {
		if now.After(s.expires) {
			delete(r.sessions, id)
		}
	}
}

func (r *SessionRegistry) lookup(id string, kind models.SessionKind) (*quizSession, error) {
	s, ok := r.sessions[id]
	if !ok || s.view.Kind != kind {
		return nil, errors.NewNotFoundError("quiz session", id)
	}
	if r.now().After(s.expires) {
		delete(r.sessions, id)
		return nil, errors.NewNotFoundError("quiz session", id)
	}
	return s, nil
}

func (r *SessionRegistry) answer(id string, kind models.SessionKind, sub models.AnswerSubmission) (models.AnswerResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.lookup(id, kind)
	if err != nil {
		return models.AnswerResult{}, err
	}
	if sub.QuestionIndex < 0 || sub.QuestionIndex >= len(s.view.Questions) {
		return models.AnswerResult{}, errors.NewValidationError("questionIndex",
			fmt.Sprintf("must be between 0 and %d", len(s.view.Questions)-1))
	}
	if s.finishing {
		return models.AnswerResult{}, errors.NewBadRequestError("quiz session is being finished")
	}
	if _, done := s.answers[sub.QuestionIndex]; done {
		return models.AnswerResult{}, errors.NewValidationError("questionIndex", "question already answered")
	}

	result, err := grade(s.view.Questions[sub.QuestionIndex], sub)
	if err != nil {
		return models.AnswerResult{}, err
	}
	s.answers[sub.QuestionIndex] = result
	return result, nil
}

// begin claims the session for finishing. The session stays registered
// until complete is called, so a failed write-back can be retried after
// release.
func (r *SessionRegistry) begin(id string, kind models.SessionKind) (*quizSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.lookup(id, kind)
	if err != nil {
		return nil, err
	}
	if s.finishing {
		return nil, errors.NewBadRequestError("quiz session is already being finished")
	}
	if len(s.answers) == 0 {
		return nil, errors.NewValidationError("answers", "answer at least one question before finishing")
	}
	s.finishing = true
	return s, nil
}

// release hands a claimed session back after a failed finish.
func (r *SessionRegistry) release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.finishing = false
	}
}

// complete drops a finished session.
func (r *SessionRegistry) complete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Len returns the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweep(r.now())
	return len(r.sessions)
}

func grade(q models.QuizQuestion, sub models.AnswerSubmission) (models.AnswerResult, error) {
	set := 0
	if sub.OptionIndex != nil {
		set++
	}
	if sub.Known != nil {
		set++
	}
	if sub.TimedOut {
		set++
	}
	if set != 1 {
		return models.AnswerResult{}, errors.NewValidationError("answer", "exactly one of optionIndex, known or timedOut is required")
	}

	result := models.AnswerResult{
		CardID:   q.ID,
		Word:     q.Word,
		Expected: q.CorrectAnswer(),
	}
	switch {
	case sub.TimedOut:
		result.TimedOut = true
	case sub.Known != nil:
		result.Correct = *sub.Known
	default:
		idx := *sub.OptionIndex
		if idx < 0 || idx >= len(q.Options) {
			return models.AnswerResult{}, errors.NewValidationError("optionIndex",
				fmt.Sprintf("must be between 0 and %d", len(q.Options)-1))
		}
		result.Chosen = q.Options[idx]
		result.Correct = idx == q.CorrectIndex
	}
	return result, nil
}
