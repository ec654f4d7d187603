package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSON is returned when a response holds no JSON value of the wanted kind.
var ErrNoJSON = errors.New("no JSON found in response")

// Outcome is the result of an AI task. Value is always usable: when
// Fallback is set it holds deterministic canned content and Reason says why.
type Outcome[T any] struct {
	Value    T
	Fallback bool
	Reason   string
}

// Ok wraps parsed data.
func Ok[T any](v T) Outcome[T] {
	return Outcome[T]{Value: v}
}

// Fallback wraps canned content used because of err.
func Fallback[T any](v T, err error) Outcome[T] {
	reason := "unknown"
	if err != nil {
		reason = err.Error()
	}
	return Outcome[T]{Value: v, Fallback: true, Reason: reason}
}

// ExtractJSON returns the JSON value in text that starts at the first open
// bracket ('[' or '{') and ends at the last matching close bracket. Markdown
// code fences and surrounding prose are ignored.
func ExtractJSON(text string, open byte) (string, error) {
	var closer byte
	switch open {
	case '[':
		closer = ']'
	case '{':
		closer = '}'
	default:
		return "", fmt.Errorf("unsupported JSON opener %q", open)
	}
	text = stripFences(strings.TrimSpace(text))
	start := strings.IndexByte(text, open)
	end := strings.LastIndexByte(text, closer)
	if start < 0 || end <= start {
		return "", ErrNoJSON
	}
	return text[start : end+1], nil
}

func stripFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		// drop the language tag line, e.g. ```json
		text = text[nl+1:]
	}
	return strings.TrimSuffix(strings.TrimSpace(text), "```")
}

// decode extracts and unmarshals the JSON value in text into T.
func decode[T any](text string, open byte) (T, error) {
	var v T
	raw, err := ExtractJSON(text, open)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return v, fmt.Errorf("malformed JSON: %w", err)
	}
	return v, nil
}
