package services

import (
	"bytes"
	"context"
	"strings"

	"github.com/vytor/vocabflash/internal/ai"
	"github.com/vytor/vocabflash/internal/cardstore"
	"github.com/vytor/vocabflash/internal/errors"
	"github.com/vytor/vocabflash/internal/logger"
	"github.com/vytor/vocabflash/internal/models"
	"github.com/yuin/goldmark"
)

// AssistantFallbackReply is sent when the assistant cannot answer.
const AssistantFallbackReply = "Sorry, I can't answer right now. Please try again in a moment."

// MaxChatMessageLength bounds a single message.
const MaxChatMessageLength = 4000

type ChatRequest struct {
	Messages []models.ChatMessage
	ClientID string
}

// AssistantService answers questions about English with the learner's
// recent cards as context.
type AssistantService interface {
	Reply(ctx context.Context, req ChatRequest) (models.ChatReply, error)
	// Stream sends the reply through onToken as it is generated.
	Stream(ctx context.Context, req ChatRequest, onToken func(string) error) error
}

type assistantService struct {
	store    *cardstore.Store
	tasks    *ai.Tasks
	tracker  *RequestTracker
	markdown goldmark.Markdown
}

// NewAssistantService creates a new AssistantService
func NewAssistantService(store *cardstore.Store, tasks *ai.Tasks, tracker *RequestTracker) AssistantService {
	return &assistantService{store: store, tasks: tasks, tracker: tracker, markdown: goldmark.New()}
}

func validateChat(msgs []models.ChatMessage) error {
	if len(msgs) == 0 {
		return errors.NewValidationError("messages", "cannot be empty")
	}
	for _, m := range msgs {
		if m.Role != ai.RoleUser && m.Role != ai.RoleAssistant {
			return errors.NewValidationError("messages", "role must be user or assistant")
		}
		if strings.TrimSpace(m.Content) == "" {
			return errors.NewValidationError("messages", "content cannot be empty")
		}
		if len(m.Content) > MaxChatMessageLength {
			return errors.NewValidationError("messages", "content is too long")
		}
	}
	if msgs[len(msgs)-1].Role != ai.RoleUser {
		return errors.NewValidationError("messages", "last message must come from the user")
	}
	return nil
}

// contextCards returns the newest cards first so the prompt limit keeps the
// most recent ones.
func (s *assistantService) contextCards() []models.Flashcard {
	return s.store.Filter(models.FlashcardFilter{Sort: models.SortNewest})
}

func (s *assistantService) render(text string) string {
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(text), &buf); err != nil {
		return ""
	}
	return buf.String()
}

func (s *assistantService) Reply(ctx context.Context, req ChatRequest) (models.ChatReply, error) {
	log := logger.FromContext(ctx).WithPrefix("assistant")
	if err := validateChat(req.Messages); err != nil {
		return models.ChatReply{}, err
	}

	ctx, ticket := s.tracker.Begin(ctx, req.ClientID, KindAssistant)
	defer ticket.Done()

	text, err := s.tasks.Chat(ctx, req.Messages, s.contextCards())
	if staleErr := ticket.Check(); staleErr != nil {
		return models.ChatReply{}, staleErr
	}
	reply := models.ChatReply{Content: strings.TrimSpace(text)}
	if err != nil || reply.Content == "" {
		log.Warn("assistant reply failed, using fallback: %v", err)
		reply = models.ChatReply{Content: AssistantFallbackReply, Fallback: true}
	}
	reply.HTML = s.render(reply.Content)
	return reply, nil
}

func (s *assistantService) Stream(ctx context.Context, req ChatRequest, onToken func(string) error) error {
	log := logger.FromContext(ctx).WithPrefix("assistant")
	if err := validateChat(req.Messages); err != nil {
		return err
	}

	ctx, ticket := s.tracker.Begin(ctx, req.ClientID, KindAssistant)
	defer ticket.Done()

	sent := 0
	err := s.tasks.StreamChat(ctx, req.Messages, s.contextCards(), func(tok string) error {
		sent++
		return onToken(tok)
	})
	if staleErr := ticket.Check(); staleErr != nil {
		return staleErr
	}
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		log.Debug("assistant stream cancelled after %d tokens", sent)
		return err
	}
	log.Warn("assistant stream failed after %d tokens: %v", sent, err)
	if sent == 0 {
		// Nothing reached the client yet, so the canned reply can still go out whole.
		return onToken(AssistantFallbackReply)
	}
	return errors.NewGenerationError("reply", err)
}
