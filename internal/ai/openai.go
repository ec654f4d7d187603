package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/vytor/vocabflash/internal/logger"
	"golang.org/x/time/rate"
)

// Config holds the provider configuration.
type Config struct {
	BaseURL       string
	APIKey        string
	Model         string // short structured tasks
	ChatModel     string // paragraphs, evaluation and chat
	MaxRetries    int
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:       "https://api.groq.com/openai/v1",
		Model:         "llama-3.1-8b-instant",
		ChatModel:     "llama3-70b-8192",
		MaxRetries:    3,
		Timeout:       30 * time.Second,
		RatePerSecond: 2,
		Burst:         4,
	}
}

// OpenAIGenerator implements Generator with the go-openai client. Requests
// are throttled by a token bucket and retried with exponential backoff.
type OpenAIGenerator struct {
	client  *openai.Client
	config  *Config
	limiter *rate.Limiter
	backoff func(attempt int) time.Duration
	log     *logger.Logger
}

// NewOpenAIGenerator creates a generator for cfg. Unset fields take their
// defaults.
func NewOpenAIGenerator(cfg *Config) (*OpenAIGenerator, error) {
	def := DefaultConfig()
	if cfg == nil {
		cfg = def
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required, set AI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = def.ChatModel
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = def.RatePerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = cfg.BaseURL

	return &OpenAIGenerator{
		client:  openai.NewClientWithConfig(clientConfig),
		config:  cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		backoff: func(attempt int) time.Duration {
			return time.Duration(math.Pow(2, float64(attempt))) * time.Second
		},
		log: logger.Default().WithPrefix("ai"),
	}, nil
}

// Config returns the effective configuration.
func (g *OpenAIGenerator) Config() Config {
	return *g.config
}

func (g *OpenAIGenerator) request(p Prompt, stream bool) openai.ChatCompletionRequest {
	model := p.Model
	if model == "" {
		model = g.config.Model
	}
	msgs := p.messages()
	llmMessages := make([]openai.ChatCompletionMessage, len(msgs))
	for i, m := range msgs {
		llmMessages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return openai.ChatCompletionRequest{
		Model:       model,
		Messages:    llmMessages,
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
		Stream:      stream,
	}
}

// Complete performs a chat completion and returns the first choice.
func (g *OpenAIGenerator) Complete(ctx context.Context, p Prompt) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	req := g.request(p, false)
	var result string
	err := g.doWithRetry(ctx, func() error {
		if err := g.limiter.Wait(ctx); err != nil {
			return err
		}
		resp, err := g.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("empty chat response")
		}
		result = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to complete chat: %w", err)
	}
	return result, nil
}

// Stream performs a streaming chat completion. Only opening the stream is
// retried; once tokens have been delivered a failure is returned as is.
func (g *OpenAIGenerator) Stream(ctx context.Context, p Prompt, onToken func(string) error) error {
	ctx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	req := g.request(p, true)
	var stream *openai.ChatCompletionStream
	err := g.doWithRetry(ctx, func() error {
		if err := g.limiter.Wait(ctx); err != nil {
			return err
		}
		s, err := g.client.CreateChatCompletionStream(ctx, req)
		if err != nil {
			return err
		}
		stream = s
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to open chat stream: %w", err)
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("chat stream: %w", err)
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
			continue
		}
		if err := onToken(resp.Choices[0].Delta.Content); err != nil {
			return err
		}
	}
}

// doWithRetry executes fn with exponential backoff. Context errors are not
// retried.
func (g *OpenAIGenerator) doWithRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < g.config.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt < g.config.MaxRetries-1 {
			waitTime := g.backoff(attempt)
			g.log.Debug("AI request failed, retrying: attempt=%d, wait=%v, error=%v", attempt+1, waitTime, err)
			select {
			case <-time.After(waitTime):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return lastErr
}
