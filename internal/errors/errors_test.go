package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/vocabflash/internal/errors"
)

func TestConstructorsWrapSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      *errors.AppError
		sentinel error
		code     string
		status   int
	}{
		{"not found", errors.NewNotFoundError("flashcard", "abc"), errors.ErrNotFound, errors.ErrCodeNotFound, http.StatusNotFound},
		{"duplicate word", errors.NewDuplicateWordError("Cat"), errors.ErrDuplicateWord, errors.ErrCodeDuplicateWord, http.StatusConflict},
		{"duplicate category", errors.NewDuplicateCategoryError("Verbs"), errors.ErrDuplicateCategory, errors.ErrCodeDuplicateCategory, http.StatusConflict},
		{"insufficient", errors.NewInsufficientCardsError(2, 3), errors.ErrInsufficientCards, errors.ErrCodeInsufficientCards, http.StatusUnprocessableEntity},
		{"stale", errors.NewStaleRequestError("paragraph"), errors.ErrStaleRequest, errors.ErrCodeStaleRequest, http.StatusConflict},
		{"generation", errors.NewGenerationError("paragraph", fmt.Errorf("boom")), errors.ErrGenerationFailed, errors.ErrCodeGenerationFailed, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, stderrors.Is(tt.err, tt.sentinel))
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.Status)
		})
	}
}

func TestAs_FindsWrappedAppError(t *testing.T) {
	wrapped := fmt.Errorf("start quiz: %w", errors.NewInsufficientCardsError(1, 3))

	appErr, ok := errors.As(wrapped)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeInsufficientCards, appErr.Code)
	assert.Contains(t, appErr.Message, "have 1")

	_, ok = errors.As(fmt.Errorf("plain"))
	assert.False(t, ok)
}

func TestAppError_ErrorString(t *testing.T) {
	assert.Equal(t, "BAD_REQUEST: nope", errors.NewBadRequestError("nope").Error())
	assert.Contains(t, errors.NewInternalError(fmt.Errorf("disk full")).Error(), "disk full")
}
