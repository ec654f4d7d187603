package scoring

import (
	"errors"
	"math"

	"github.com/vytor/vocabflash/internal/models"
)

// ErrNoAnswers is returned when a score is requested before any answer.
var ErrNoAnswers = errors.New("no answers to score")

// Thresholds above which a session counts as excellent.
const (
	ExcellentDaily    = 80
	ExcellentStandard = 90
)

// Percentage returns round(100*correct/total).
func Percentage(correct, total int) (int, error) {
	if total <= 0 {
		return 0, ErrNoAnswers
	}
	return int(math.Round(100 * float64(correct) / float64(total))), nil
}

// Score computes the percentage score of a result list.
func Score(results []models.AnswerResult) (int, error) {
	return Percentage(countCorrect(results), len(results))
}

// IsExcellent applies the per-kind celebration threshold. Daily sessions
// compare the rounded score; standard sessions compare the exact ratio, so
// 43/48 (89.6%) is not excellent.
func IsExcellent(correct, total int, kind models.SessionKind) bool {
	if kind == models.SessionDaily {
		score, err := Percentage(correct, total)
		return err == nil && score >= ExcellentDaily
	}
	return total > 0 && 100*correct >= ExcellentStandard*total
}

// Summarize scores results and lists the mistakes in question order.
func Summarize(results []models.AnswerResult, kind models.SessionKind) (models.SessionSummary, error) {
	score, err := Score(results)
	if err != nil {
		return models.SessionSummary{}, err
	}
	mistakes := make([]models.AnswerResult, 0)
	for _, r := range results {
		if !r.Correct {
			mistakes = append(mistakes, r)
		}
	}
	return models.SessionSummary{
		Score:     score,
		Correct:   countCorrect(results),
		Total:     len(results),
		Excellent: IsExcellent(countCorrect(results), len(results), kind),
		Mistakes:  mistakes,
	}, nil
}

func countCorrect(results []models.AnswerResult) int {
	n := 0
	for _, r := range results {
		if r.Correct {
			n++
		}
	}
	return n
}
