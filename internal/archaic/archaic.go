// Package archaic flags Old English and archaic words.
package archaic

import (
	"bufio"
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"github.com/vytor/vocabflash/internal/models"
	"github.com/vytor/vocabflash/internal/textutil"
)

const (
	KindOldEnglish = "Old English"
	KindArchaic    = "Archaic"
)

//go:embed words.tsv
var wordsTSV string

type entry struct {
	meaning string
	kind    string
}

// Dictionary answers lookups against a fixed word list.
type Dictionary struct {
	words map[string]entry
}

var wordRe = regexp.MustCompile(`\w+`)

// Default is built from the embedded list.
var Default = mustParse(wordsTSV)

func mustParse(data string) *Dictionary {
	d, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return d
}

// Parse reads tab-separated "kind word meaning" lines. Lines starting with
// '#' are comments. A word listed twice keeps its first entry.
func Parse(data string) (*Dictionary, error) {
	d := &Dictionary{words: make(map[string]entry)}
	sc := bufio.NewScanner(strings.NewReader(data))
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "\t", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("line %d: want 3 tab-separated fields, got %d", lineNo, len(parts))
		}
		var kind string
		switch parts[0] {
		case "old-english":
			kind = KindOldEnglish
		case "archaic":
			kind = KindArchaic
		default:
			return nil, fmt.Errorf("line %d: unknown kind %q", lineNo, parts[0])
		}
		key := textutil.Key(parts[1])
		if _, dup := d.words[key]; dup {
			continue
		}
		d.words[key] = entry{meaning: parts[2], kind: kind}
	}
	return d, sc.Err()
}

// Check looks up a word or phrase. For a phrase the first listed word wins.
func (d *Dictionary) Check(word string) (models.ArchaicMatch, bool) {
	key := textutil.Key(word)
	if e, ok := d.words[key]; ok {
		return models.ArchaicMatch{Word: key, Meaning: e.meaning, Kind: e.kind}, true
	}
	for _, part := range strings.Fields(key) {
		if e, ok := d.words[part]; ok {
			return models.ArchaicMatch{Word: part, Meaning: e.meaning, Kind: e.kind}, true
		}
	}
	return models.ArchaicMatch{}, false
}

// Find returns every listed word in text, once each, in order of first use.
func (d *Dictionary) Find(text string) []models.ArchaicMatch {
	matches := make([]models.ArchaicMatch, 0)
	seen := make(map[string]bool)
	for _, w := range wordRe.FindAllString(text, -1) {
		key := textutil.Key(w)
		if seen[key] {
			continue
		}
		seen[key] = true
		if e, ok := d.words[key]; ok {
			matches = append(matches, models.ArchaicMatch{Word: key, Meaning: e.meaning, Kind: e.kind})
		}
	}
	return matches
}

// Len is the number of distinct words known.
func (d *Dictionary) Len() int {
	return len(d.words)
}
