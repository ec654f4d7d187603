package quiz

import (
	"fmt"
	"time"

	"github.com/vytor/vocabflash/internal/models"
)

// Custom time limits are clamped to this range, in seconds.
const (
	MinCustomSeconds = 5
	MaxCustomSeconds = 300
)

// TimeLimit returns the per-question time limit for a difficulty.
func TimeLimit(d models.Difficulty, customSeconds int) (time.Duration, error) {
	switch d {
	case models.DifficultyEasy:
		return 45 * time.Second, nil
	case models.DifficultyMedium, "":
		return 30 * time.Second, nil
	case models.DifficultyHard:
		return 15 * time.Second, nil
	case models.DifficultyCustom:
		if customSeconds < MinCustomSeconds || customSeconds > MaxCustomSeconds {
			return 0, fmt.Errorf("custom time limit must be between %d and %d seconds, got %d",
				MinCustomSeconds, MaxCustomSeconds, customSeconds)
		}
		return time.Duration(customSeconds) * time.Second, nil
	default:
		return 0, fmt.Errorf("unknown difficulty %q", d)
	}
}
