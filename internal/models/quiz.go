package models

import "time"

type QuizMode string

const (
	QuizModeMeaning  QuizMode = "meaning"
	QuizModeSentence QuizMode = "sentence"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyCustom Difficulty = "custom"
)

// QuizQuestion is one generated question. In meaning mode the options are
// meanings; in sentence mode Sentence holds the cloze text and the options
// are words.
type QuizQuestion struct {
	ID           string   `json:"id"`
	Word         string   `json:"word"`
	Meaning      string   `json:"meaning"`
	Sentence     string   `json:"sentence,omitempty"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

// CorrectAnswer returns the option at CorrectIndex.
func (q QuizQuestion) CorrectAnswer() string {
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return ""
	}
	return q.Options[q.CorrectIndex]
}

// Quiz is a generated question set plus its timing policy.
type Quiz struct {
	Mode            QuizMode       `json:"mode"`
	Difficulty      Difficulty     `json:"difficulty"`
	QuestionTimeout time.Duration  `json:"-"`
	TimeLimitSecs   int            `json:"timeLimitSeconds"`
	Questions       []QuizQuestion `json:"questions"`
	Fallback        bool           `json:"fallback"`
	Notice          string         `json:"notice,omitempty"`
}

// AnswerResult is the outcome of one answered or timed-out question.
type AnswerResult struct {
	CardID   string `json:"cardId"`
	Word     string `json:"word"`
	Expected string `json:"expected"`
	Chosen   string `json:"chosen,omitempty"`
	Correct  bool   `json:"correct"`
	TimedOut bool   `json:"timedOut,omitempty"`
}

// SessionKind selects the "excellent" threshold.
type SessionKind string

const (
	SessionStandard SessionKind = "standard"
	SessionDaily    SessionKind = "daily"
)

// SessionSummary is the scored outcome of a finished session.
type SessionSummary struct {
	Score     int            `json:"score"`
	Correct   int            `json:"correct"`
	Total     int            `json:"total"`
	Excellent bool           `json:"excellent"`
	Mistakes  []AnswerResult `json:"mistakes"`
}

// QuizSession is a started quiz awaiting answers.
type QuizSession struct {
	ID        string      `json:"id"`
	Kind      SessionKind `json:"kind"`
	QuizType  QuizType    `json:"quizType,omitempty"`
	ExpiresAt int64       `json:"expiresAt"`
	Quiz
}

// AnswerSubmission answers one question. Exactly one of OptionIndex, Known
// and TimedOut must be set; Known is a self-assessment for flip-card style
// answering.
type AnswerSubmission struct {
	QuestionIndex int   `json:"questionIndex"`
	OptionIndex   *int  `json:"optionIndex,omitempty"`
	Known         *bool `json:"known,omitempty"`
	TimedOut      bool  `json:"timedOut,omitempty"`
}

// DailyResult is the outcome of finishing a daily quiz.
type DailyResult struct {
	Summary  SessionSummary `json:"summary"`
	Overview DailyOverview  `json:"overview"`
}
