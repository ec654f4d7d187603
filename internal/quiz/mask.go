package quiz

import (
	"fmt"
	"regexp"
	"strings"
)

// Placeholder replaces the target word in cloze sentences.
const Placeholder = "______"

// FallbackSentence is used when no generated sentence is usable.
var FallbackSentence = fmt.Sprintf("This is a %s that you need to learn.", Placeholder)

// MaskWord replaces every whole-word, case-insensitive occurrence of word in
// sentence with Placeholder. It reports whether anything was replaced.
func MaskWord(sentence, word string) (string, bool) {
	word = strings.TrimSpace(word)
	if word == "" {
		return sentence, false
	}
	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
	if err != nil {
		return sentence, false
	}
	if !re.MatchString(sentence) {
		return sentence, false
	}
	return re.ReplaceAllLiteralString(sentence, Placeholder), true
}
