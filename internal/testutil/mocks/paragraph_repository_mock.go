package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/vocabflash/internal/models"
)

// MockParagraphRepository is a mock implementation of repository.ParagraphRepository
type MockParagraphRepository struct {
	mock.Mock
}

func (m *MockParagraphRepository) Insert(ctx context.Context, p models.SavedParagraph) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockParagraphRepository) Get(ctx context.Context, id string) (*models.SavedParagraph, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SavedParagraph), args.Error(1)
}

func (m *MockParagraphRepository) List(ctx context.Context, limit int) ([]models.SavedParagraph, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SavedParagraph), args.Error(1)
}

func (m *MockParagraphRepository) UpdateScore(ctx context.Context, id string, score int) error {
	args := m.Called(ctx, id, score)
	return args.Error(0)
}

func (m *MockParagraphRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
