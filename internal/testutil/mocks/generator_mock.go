package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/vocabflash/internal/ai"
)

// MockGenerator is a mock implementation of ai.Generator. Stream feeds the
// []string in the first return value to onToken before returning the error.
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Complete(ctx context.Context, p ai.Prompt) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}

func (m *MockGenerator) Stream(ctx context.Context, p ai.Prompt, onToken func(string) error) error {
	args := m.Called(ctx, p)
	if tokens, ok := args.Get(0).([]string); ok {
		for _, tok := range tokens {
			if err := onToken(tok); err != nil {
				return err
			}
		}
	}
	return args.Error(1)
}
