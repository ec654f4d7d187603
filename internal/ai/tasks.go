package ai

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strings"

	"github.com/vytor/vocabflash/internal/logger"
	"github.com/vytor/vocabflash/internal/models"
	"github.com/vytor/vocabflash/internal/quiz"
)

// Sampling parameters per task.
const (
	sentenceTemperature   = 0.7
	sentenceMaxTokens     = 1000
	paragraphTemperature  = 0.7
	paragraphMaxTokens    = 800
	evaluationTemperature = 0.3
	evaluationMaxTokens   = 1000
	pronounceTemperature  = 0.2
	pronounceMaxTokens    = 500
	chatTemperature       = 0.7
	chatMaxTokens         = 500
)

const (
	// ChatHistoryLimit is how many recent messages are sent to the assistant.
	ChatHistoryLimit = 5
	// ChatCardLimit caps the flashcards included as assistant context.
	ChatCardLimit = 20
	// MinParagraphWords is the fewest words a paragraph can be built from.
	MinParagraphWords = 3
	// NotAvailable fills pronunciation fields the provider did not return.
	NotAvailable = "not available"
	// FallbackScore is the grade given when a translation cannot be evaluated.
	FallbackScore = 70
)

// Tasks runs the application's generation tasks over a Generator.
type Tasks struct {
	gen       Generator
	model     string
	chatModel string
	intn      func(n int) int
}

// NewTasks creates Tasks. model is used for short structured answers and
// chatModel for paragraphs, evaluation and chat; empty means the
// generator's default.
func NewTasks(gen Generator, model, chatModel string) *Tasks {
	if gen == nil {
		gen = Unavailable{}
	}
	if chatModel == "" {
		chatModel = model
	}
	return &Tasks{gen: gen, model: model, chatModel: chatModel, intn: rand.Intn}
}

// Sentences implements quiz.SentenceSource. Any failure is returned as an
// error so the quiz substitutes its own fallback sentence.
func (t *Tasks) Sentences(ctx context.Context, words []string) ([]quiz.Sentence, error) {
	out := t.GenerateSentences(ctx, words)
	if out.Fallback {
		return nil, fmt.Errorf("sentence generation: %s", out.Reason)
	}
	return out.Value, nil
}

// GenerateSentences asks for one example sentence per word, at most
// quiz.MaxSentenceBatch words per call.
func (t *Tasks) GenerateSentences(ctx context.Context, words []string) Outcome[[]quiz.Sentence] {
	log := logger.FromContext(ctx).WithPrefix("ai")
	if len(words) > quiz.MaxSentenceBatch {
		words = words[:quiz.MaxSentenceBatch]
	}
	prompt := Prompt{
		Model: t.model,
		Text: "Write one clear, simple English sentence for each of the following words. " +
			"Each sentence must use the word in a realistic context that shows its meaning.\n" +
			"Answer with JSON only, no text before or after it, in this shape:\n" +
			`[{"word": "the word", "sentence": "a sentence using the word"}]` + "\n\n" +
			"Words: " + strings.Join(words, ", "),
		Temperature: sentenceTemperature,
		MaxTokens:   sentenceMaxTokens,
	}
	text, err := t.gen.Complete(ctx, prompt)
	if err != nil {
		log.Warn("sentence generation failed: %v", err)
		return Fallback[[]quiz.Sentence](nil, err)
	}
	sentences, err := decode[[]quiz.Sentence](text, '[')
	if err != nil {
		log.Warn("unusable sentence response: %v", err)
		return Fallback[[]quiz.Sentence](nil, err)
	}
	return Ok(sentences)
}

// WordHint is a word offered to the paragraph generator with its meaning.
type WordHint struct {
	Word        string `json:"word"`
	Translation string `json:"translation"`
}

func (h WordHint) String() string {
	if h.Translation == "" || h.Translation == h.Word {
		return h.Word
	}
	return fmt.Sprintf("%s (%s)", h.Word, h.Translation)
}

func complexity(d models.Difficulty) string {
	switch d {
	case models.DifficultyEasy:
		return "very simple and suitable for beginners"
	case models.DifficultyHard:
		return "advanced and relatively complex"
	default:
		return "of medium difficulty"
	}
}

func sentenceRange(d models.Difficulty) string {
	switch d {
	case models.DifficultyEasy:
		return "2-3"
	case models.DifficultyHard:
		return "4-6"
	default:
		return "3-4"
	}
}

// RandomWordCount returns how many new words a random paragraph uses:
// 3-5 for easy, 5-7 for medium and 8-10 for hard.
func (t *Tasks) RandomWordCount(d models.Difficulty) int {
	switch d {
	case models.DifficultyEasy:
		return 3 + t.intn(3)
	case models.DifficultyHard:
		return 8 + t.intn(3)
	default:
		return 5 + t.intn(3)
	}
}

var (
	bracketed = regexp.MustCompile(`\[.*?\]|\(.*?\)`)
	latin     = regexp.MustCompile(`[a-zA-Z]+`)
	spaces    = regexp.MustCompile(`\s+`)
)

// cleanArabic strips wrapping quotes, bracketed asides, any Latin words and
// repeated whitespace, so the learner only sees the Arabic text.
func cleanArabic(text string) string {
	text = strings.Trim(strings.TrimSpace(text), `"'`)
	text = bracketed.ReplaceAllString(text, "")
	text = latin.ReplaceAllString(text, "")
	return strings.TrimSpace(spaces.ReplaceAllString(text, " "))
}

// FallbackParagraph is the practice paragraph used when none can be
// generated. It lists the meanings of the words to translate.
func FallbackParagraph(words []WordHint) string {
	meanings := make([]string, len(words))
	for i, w := range words {
		meanings[i] = w.Translation
		if meanings[i] == "" {
			meanings[i] = w.Word
		}
	}
	return "في هذا التمرين، سنتعلم استخدام الكلمات التالية: " + strings.Join(meanings, "، ") +
		". حاول كتابة فقرة باللغة الإنجليزية تستخدم هذه الكلمات بشكل صحيح في سياق مناسب."
}

// GenerateParagraph writes an Arabic paragraph using the meanings of words.
func (t *Tasks) GenerateParagraph(ctx context.Context, words []WordHint, d models.Difficulty) Outcome[models.GeneratedParagraph] {
	log := logger.FromContext(ctx).WithPrefix("ai")
	used := make([]string, len(words))
	list := make([]string, len(words))
	for i, w := range words {
		used[i] = w.Word
		list[i] = w.String()
	}
	fallback := models.GeneratedParagraph{Paragraph: FallbackParagraph(words), UsedWords: used}

	prompt := Prompt{
		Model: t.chatModel,
		Text: "You write short educational paragraphs for Arabic speakers learning English.\n" +
			"Write a paragraph in Arabic that naturally uses the meanings of all of these words: " + strings.Join(list, ", ") + "\n" +
			"Rules:\n" +
			"1. Use the meaning of every word listed above.\n" +
			"2. The paragraph must be coherent and meaningful.\n" +
			"3. The level must be " + complexity(d) + ".\n" +
			"4. Write " + sentenceRange(d) + " sentences.\n" +
			"5. Write entirely in Arabic and never include English words.\n" +
			"6. Return only the paragraph with no introduction or comments.",
		Temperature: paragraphTemperature,
		MaxTokens:   paragraphMaxTokens,
	}
	text, err := t.gen.Complete(ctx, prompt)
	if err != nil {
		log.Warn("paragraph generation failed: %v", err)
		return Fallback(fallback, err)
	}
	paragraph := cleanArabic(text)
	if paragraph == "" {
		log.Warn("paragraph response was empty after cleanup")
		return Fallback(fallback, fmt.Errorf("empty paragraph"))
	}
	return Ok(models.GeneratedParagraph{Paragraph: paragraph, UsedWords: used})
}

type randomParagraph struct {
	Paragraph string   `json:"paragraph"`
	UsedWords []string `json:"usedWords"`
}

// GenerateRandomParagraph asks the provider to pick new English words and
// write an Arabic paragraph around them. There is no canned equivalent, so
// a fallback Outcome carries an empty value.
func (t *Tasks) GenerateRandomParagraph(ctx context.Context, d models.Difficulty, exclude []string) Outcome[models.GeneratedParagraph] {
	log := logger.FromContext(ctx).WithPrefix("ai")
	count := t.RandomWordCount(d)
	prompt := Prompt{
		Model: t.chatModel,
		Text: fmt.Sprintf("You are a language assistant teaching English to Arabic speakers.\n"+
			"Write a paragraph in Arabic that uses the meanings of %d useful, common English words.\n"+
			"Rules:\n"+
			"1. Write the paragraph entirely in Arabic, using the Arabic meaning of each English word.\n"+
			"2. Do not write any English word in the paragraph.\n"+
			"3. Pick varied words (verbs, nouns, adjectives) at a level that is %s.\n"+
			"4. The paragraph must be coherent and meaningful.\n"+
			"5. Write %s sentences.\n"+
			"6. Answer with JSON only in this shape:\n"+
			`{"paragraph": "the Arabic text", "usedWords": ["word1", "word2"]}`+"\n"+
			"Avoid these words: %s",
			count, complexity(d), sentenceRange(d), strings.Join(exclude, ", ")),
		Temperature: paragraphTemperature,
		MaxTokens:   paragraphMaxTokens,
	}
	text, err := t.gen.Complete(ctx, prompt)
	if err != nil {
		log.Warn("random paragraph generation failed: %v", err)
		return Fallback(models.GeneratedParagraph{}, err)
	}
	parsed, err := decode[randomParagraph](text, '{')
	if err != nil {
		log.Warn("unusable random paragraph response: %v", err)
		return Fallback(models.GeneratedParagraph{}, err)
	}
	paragraph := cleanArabic(parsed.Paragraph)
	usedWords := make([]string, 0, len(parsed.UsedWords))
	for _, w := range parsed.UsedWords {
		if w = strings.TrimSpace(w); w != "" {
			usedWords = append(usedWords, w)
		}
	}
	if paragraph == "" || len(usedWords) == 0 {
		return Fallback(models.GeneratedParagraph{}, fmt.Errorf("response missing paragraph or words"))
	}
	return Ok(models.GeneratedParagraph{Paragraph: paragraph, UsedWords: usedWords})
}

// FallbackFeedback is the canned evaluation used when the provider cannot
// grade a translation.
func FallbackFeedback(words []string) models.TranslationFeedback {
	return models.TranslationFeedback{
		Score:       FallbackScore,
		Corrections: []string{"Make sure you used every required word in your translation."},
		Suggestions: []string{
			"Try to vary your sentence structure.",
			"Check that your grammar is correct.",
			"Pay attention to English word order.",
		},
		ModelParagraph: "In this exercise, we are learning to use the following words: " + strings.Join(words, ", ") +
			". These words are important for expanding our vocabulary and improving our language skills.",
	}
}

type feedbackResponse struct {
	Score          *float64 `json:"score"`
	Corrections    []string `json:"corrections"`
	Suggestions    []string `json:"suggestions"`
	ModelParagraph string   `json:"modelParagraph"`
}

// EvaluateTranslation grades an English translation of an Arabic paragraph.
func (t *Tasks) EvaluateTranslation(ctx context.Context, arabic, translation string, words []string) Outcome[models.TranslationFeedback] {
	log := logger.FromContext(ctx).WithPrefix("ai")
	required := "no specific words"
	if len(words) > 0 {
		required = strings.Join(words, ", ")
	}
	prompt := Prompt{
		Model: t.chatModel,
		Text: "You evaluate translations from Arabic to English.\n\n" +
			"Arabic text:\n" + arabic + "\n\n" +
			"Submitted English translation:\n" + translation + "\n\n" +
			"English words that must be used: " + required + "\n\n" +
			"Evaluate the translation for accuracy, grammar, vocabulary and style, and answer with JSON only:\n" +
			`{"score": <0-100>, "corrections": ["..."], "suggestions": ["..."], "modelParagraph": "a model translation using the required words"}`,
		Temperature: evaluationTemperature,
		MaxTokens:   evaluationMaxTokens,
	}
	fallback := FallbackFeedback(words)
	text, err := t.gen.Complete(ctx, prompt)
	if err != nil {
		log.Warn("translation evaluation failed: %v", err)
		return Fallback(fallback, err)
	}
	parsed, err := decode[feedbackResponse](text, '{')
	if err == nil && parsed.Score == nil {
		err = fmt.Errorf("response missing score")
	}
	if err != nil {
		log.Warn("unusable evaluation response: %v", err)
		return Fallback(fallback, err)
	}
	score := int(*parsed.Score + 0.5)
	score = max(0, min(100, score))
	if parsed.Corrections == nil {
		parsed.Corrections = []string{}
	}
	if parsed.Suggestions == nil {
		parsed.Suggestions = []string{}
	}
	return Ok(models.TranslationFeedback{
		Score:          score,
		Corrections:    parsed.Corrections,
		Suggestions:    parsed.Suggestions,
		ModelParagraph: parsed.ModelParagraph,
	})
}

// Pronunciation voices.
const (
	VoiceDefault  = "default"
	VoiceAmerican = "american"
	VoiceBritish  = "british"
	VoiceSlow     = "slow"
)

// ValidVoice reports whether v is a supported voice. Empty means default.
func ValidVoice(v string) bool {
	switch v {
	case "", VoiceDefault, VoiceAmerican, VoiceBritish, VoiceSlow:
		return true
	}
	return false
}

func voicePersona(v string) string {
	switch v {
	case VoiceAmerican:
		return "You are a native American English speaker with clear, ideal pronunciation."
	case VoiceBritish:
		return "You are a native British English speaker with clear, ideal pronunciation."
	case VoiceSlow:
		return "You are an English teacher who speaks slowly and clearly to help learners."
	default:
		return "You are a native English speaker with clear, ideal pronunciation."
	}
}

// FallbackPronunciation is returned when no details could be obtained.
func FallbackPronunciation(word string) models.PronunciationDetails {
	return models.PronunciationDetails{
		Word:      word,
		IPA:       NotAvailable,
		Syllables: NotAvailable,
		Stress:    NotAvailable,
		Tips:      NotAvailable,
		Similar:   []string{},
	}
}

var (
	fieldPatterns = map[string]*regexp.Regexp{
		"word":      regexp.MustCompile(`"word"\s*:\s*"([^"]+)"`),
		"ipa":       regexp.MustCompile(`"ipa"\s*:\s*"([^"]+)"`),
		"syllables": regexp.MustCompile(`"syllables"\s*:\s*"([^"]+)"`),
		"stress":    regexp.MustCompile(`"stress"\s*:\s*"([^"]+)"`),
		"tips":      regexp.MustCompile(`"tips"\s*:\s*"([^"]*)"`),
	}
	similarPattern = regexp.MustCompile(`(?s)"similar"\s*:\s*\[(.*?)\]`)
	quotedPattern  = regexp.MustCompile(`"([^"]*)"`)
)

// extractPronunciation pulls fields one by one out of a response that is not
// valid JSON, typically because the model put quotes inside values.
func extractPronunciation(text, word string) (models.PronunciationDetails, bool) {
	d := FallbackPronunciation(word)
	found := false
	field := func(name string, dst *string) {
		if m := fieldPatterns[name].FindStringSubmatch(text); m != nil && m[1] != "" {
			*dst = m[1]
			if name != "word" {
				found = true
			}
		}
	}
	field("word", &d.Word)
	field("ipa", &d.IPA)
	field("syllables", &d.Syllables)
	field("stress", &d.Stress)
	field("tips", &d.Tips)
	if m := similarPattern.FindStringSubmatch(text); m != nil {
		for _, q := range quotedPattern.FindAllStringSubmatch(m[1], -1) {
			if s := strings.TrimSpace(q[1]); s != "" {
				d.Similar = append(d.Similar, s)
			}
		}
	}
	return d, found
}

// Pronounce looks up pronunciation details for word.
func (t *Tasks) Pronounce(ctx context.Context, word, voice string) Outcome[models.PronunciationDetails] {
	log := logger.FromContext(ctx).WithPrefix("ai")
	prompt := Prompt{
		Model: t.model,
		Text: voicePersona(voice) + "\n\n" +
			`Give the following pronunciation details for "` + word + `":` + "\n" +
			"1. IPA transcription\n2. Syllable split\n3. Where the stress falls\n" +
			"4. Pronunciation tips separated by semicolons, without quotation marks inside the text\n" +
			"5. Words that sound similar\n\n" +
			"Answer with JSON only, without quotation marks inside values:\n" +
			`{"word": "", "ipa": "", "syllables": "syl-la-bles", "stress": "", "tips": "", "similar": ["", ""]}`,
		Temperature: pronounceTemperature,
		MaxTokens:   pronounceMaxTokens,
	}
	text, err := t.gen.Complete(ctx, prompt)
	if err != nil {
		log.Warn("pronunciation lookup failed for %q: %v", word, err)
		return Fallback(FallbackPronunciation(word), err)
	}

	if parsed, err := decode[models.PronunciationDetails](text, '{'); err == nil && parsed.IPA != "" {
		return Ok(fillPronunciation(parsed, word))
	}
	if d, ok := extractPronunciation(text, word); ok {
		return Ok(d)
	}
	log.Warn("unusable pronunciation response for %q", word)
	return Fallback(FallbackPronunciation(word), ErrNoJSON)
}

func fillPronunciation(d models.PronunciationDetails, word string) models.PronunciationDetails {
	if d.Word == "" {
		d.Word = word
	}
	for _, f := range []*string{&d.IPA, &d.Syllables, &d.Stress, &d.Tips} {
		if strings.TrimSpace(*f) == "" {
			*f = NotAvailable
		}
	}
	if d.Similar == nil {
		d.Similar = []string{}
	}
	d.Fallback = false
	return d
}

const assistantSystemPrompt = `You are an assistant that helps people learn English.

Provide:
- short explanations of words and phrases
- simple usage examples
- tips for learning and remembering

Answer in Arabic when the user writes in Arabic and in English when the user writes in English.
Be brief and direct.`

// ChatPrompt builds the assistant prompt from the recent history and the
// learner's cards.
func (t *Tasks) ChatPrompt(history []models.ChatMessage, cards []models.Flashcard) Prompt {
	system := assistantSystemPrompt
	if len(cards) > 0 {
		if len(cards) > ChatCardLimit {
			cards = cards[:ChatCardLimit]
		}
		var b strings.Builder
		b.WriteString("\n\nThe user has these flashcards in their collection:")
		for _, c := range cards {
			fmt.Fprintf(&b, "\n- %s: %s", c.Word, c.Meaning)
		}
		system += b.String()
	}
	if len(history) > ChatHistoryLimit {
		history = history[len(history)-ChatHistoryLimit:]
	}
	msgs := make([]Message, 0, len(history))
	for _, m := range history {
		msgs = append(msgs, Message{Role: m.Role, Content: m.Content})
	}
	return Prompt{
		Model:       t.chatModel,
		System:      system,
		Messages:    msgs,
		Temperature: chatTemperature,
		MaxTokens:   chatMaxTokens,
	}
}

// Chat returns the assistant's full reply.
func (t *Tasks) Chat(ctx context.Context, history []models.ChatMessage, cards []models.Flashcard) (string, error) {
	return t.gen.Complete(ctx, t.ChatPrompt(history, cards))
}

// StreamChat streams the assistant's reply through onToken.
func (t *Tasks) StreamChat(ctx context.Context, history []models.ChatMessage, cards []models.Flashcard, onToken func(string) error) error {
	return t.gen.Stream(ctx, t.ChatPrompt(history, cards), onToken)
}
