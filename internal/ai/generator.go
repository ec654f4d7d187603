// Package ai talks to an OpenAI-compatible text generation service and turns
// its free-form answers into typed results. Every task returns an Outcome:
// either parsed data or deterministic fallback content with a reason.
package ai

import (
	"context"
	"errors"
)

// ErrUnavailable is returned by generators that cannot reach a provider.
var ErrUnavailable = errors.New("text generation unavailable")

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Prompt is a single generation request. When Messages is empty, Text is
// sent as one user message after System.
type Prompt struct {
	Model       string
	System      string
	Text        string
	Messages    []Message
	Temperature float32
	MaxTokens   int
}

// messages flattens the prompt into the chat form sent to the provider.
func (p Prompt) messages() []Message {
	out := make([]Message, 0, len(p.Messages)+2)
	if p.System != "" {
		out = append(out, Message{Role: RoleSystem, Content: p.System})
	}
	if len(p.Messages) > 0 {
		return append(out, p.Messages...)
	}
	return append(out, Message{Role: RoleUser, Content: p.Text})
}

// Generator produces text for a prompt.
type Generator interface {
	Complete(ctx context.Context, p Prompt) (string, error)
	// Stream calls onToken for every received chunk. An error from onToken
	// aborts the stream and is returned.
	Stream(ctx context.Context, p Prompt, onToken func(string) error) error
}

// Unavailable is the Generator used when no provider is configured. Every
// task falls back immediately.
type Unavailable struct{}

func (Unavailable) Complete(context.Context, Prompt) (string, error) {
	return "", ErrUnavailable
}

func (Unavailable) Stream(context.Context, Prompt, func(string) error) error {
	return ErrUnavailable
}
