package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeInternal          = "INTERNAL_ERROR"
	ErrCodeBadRequest        = "BAD_REQUEST"
	ErrCodeDuplicateWord     = "DUPLICATE_WORD"
	ErrCodeDuplicateCategory = "DUPLICATE_CATEGORY"
	ErrCodeInsufficientCards = "INSUFFICIENT_CARDS"
	ErrCodeStaleRequest      = "STALE_REQUEST"
	ErrCodeGenerationFailed  = "GENERATION_FAILED"
	ErrCodeRateLimited       = "RATE_LIMITED"
)

// Sentinels for errors.Is checks. AppErrors built by the constructors below
// wrap the matching sentinel.
var (
	ErrNotFound          = stderrors.New("not found")
	ErrDuplicateWord     = stderrors.New("duplicate word")
	ErrDuplicateCategory = stderrors.New("duplicate category")
	ErrInsufficientCards = stderrors.New("insufficient cards")
	ErrStaleRequest      = stderrors.New("stale request")
	ErrGenerationFailed  = stderrors.New("generation failed")
)

// AppError represents an application error with HTTP status code and error code
type AppError struct {
	Code    string // Error code (e.g., "NOT_FOUND", "VALIDATION_ERROR")
	Message string // Human-readable error message
	Status  int    // HTTP status code
	Err     error  // Wrapped underlying error (optional)
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error wrapping support
func (e *AppError) Unwrap() error {
	return e.Err
}

// As extracts an *AppError from err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is is errors.Is, re-exported so callers importing this package under the
// name "errors" keep access to it.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// NewNotFoundError creates a new NOT_FOUND error
func NewNotFoundError(resource string, id any) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %v", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// NewValidationError creates a new VALIDATION_ERROR
func NewValidationError(field string, reason string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf("validation failed for %s: %s", field, reason),
		Status:  http.StatusBadRequest,
	}
}

// NewInternalError creates a new INTERNAL_ERROR
func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: "internal server error",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// NewBadRequestError creates a new BAD_REQUEST error
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeBadRequest,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

// NewDuplicateWordError reports an insert rejected by a case-insensitive match.
func NewDuplicateWordError(word string) *AppError {
	return &AppError{
		Code:    ErrCodeDuplicateWord,
		Message: fmt.Sprintf("word already exists: %s", word),
		Status:  http.StatusConflict,
		Err:     ErrDuplicateWord,
	}
}

// NewDuplicateCategoryError reports a category name clash.
func NewDuplicateCategoryError(name string) *AppError {
	return &AppError{
		Code:    ErrCodeDuplicateCategory,
		Message: fmt.Sprintf("category already exists: %s", name),
		Status:  http.StatusConflict,
		Err:     ErrDuplicateCategory,
	}
}

// NewInsufficientCardsError reports a quiz that cannot start.
func NewInsufficientCardsError(have, need int) *AppError {
	return &AppError{
		Code:    ErrCodeInsufficientCards,
		Message: fmt.Sprintf("need at least %d cards to start a quiz, have %d", need, have),
		Status:  http.StatusUnprocessableEntity,
		Err:     ErrInsufficientCards,
	}
}

// NewStaleRequestError reports a result discarded because a newer request
// of the same kind superseded it.
func NewStaleRequestError(kind string) *AppError {
	return &AppError{
		Code:    ErrCodeStaleRequest,
		Message: fmt.Sprintf("%s request superseded by a newer one", kind),
		Status:  http.StatusConflict,
		Err:     ErrStaleRequest,
	}
}

// NewGenerationError is used only where no fallback content exists.
func NewGenerationError(task string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeGenerationFailed,
		Message: fmt.Sprintf("could not generate %s, please try again", task),
		Status:  http.StatusBadGateway,
		Err:     fmt.Errorf("%w: %w", ErrGenerationFailed, err),
	}
}

// NewRateLimitedError creates a RATE_LIMITED error.
func NewRateLimitedError() *AppError {
	return &AppError{
		Code:    ErrCodeRateLimited,
		Message: "too many requests, slow down",
		Status:  http.StatusTooManyRequests,
	}
}
