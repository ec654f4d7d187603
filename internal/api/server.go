package api

import (
	"context"

	"github.com/vytor/vocabflash/internal/archaic"
	"github.com/vytor/vocabflash/internal/cardstore"
	"github.com/vytor/vocabflash/internal/jobs"
	"github.com/vytor/vocabflash/internal/services"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	Store                *cardstore.Store
	QuizService          services.QuizService
	DailyQuizService     services.DailyQuizService
	ParagraphService     services.ParagraphService
	AssistantService     services.AssistantService
	PronunciationService services.PronunciationService
	ProgressService      services.ProgressService
	Archaic              *archaic.Dictionary
	JobQueue             jobs.JobQueue
	DB                   Pinger
	AllowedOrigins       []string
	// ClientLimiter throttles generation routes per client. Nil disables it.
	ClientLimiter *ClientLimiter
}
