package mocks

import (
	"github.com/stretchr/testify/mock"
)

// MockJobQueue records prefetch submissions.
type MockJobQueue struct {
	mock.Mock
}

func (m *MockJobQueue) EnqueuePronunciation(word, voice string) error {
	return m.Called(word, voice).Error(0)
}

func (m *MockJobQueue) Pending() int {
	return m.Called().Int(0)
}
