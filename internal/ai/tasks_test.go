package ai_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/vocabflash/internal/ai"
	"github.com/vytor/vocabflash/internal/models"
)

// scriptedGenerator answers every Complete with the same text or error and
// records the prompts it saw.
type scriptedGenerator struct {
	text    string
	err     error
	prompts []ai.Prompt
}

func (g *scriptedGenerator) Complete(_ context.Context, p ai.Prompt) (string, error) {
	g.prompts = append(g.prompts, p)
	return g.text, g.err
}

func (g *scriptedGenerator) Stream(_ context.Context, p ai.Prompt, onToken func(string) error) error {
	g.prompts = append(g.prompts, p)
	if g.err != nil {
		return g.err
	}
	for _, f := range strings.Fields(g.text) {
		if err := onToken(f); err != nil {
			return err
		}
	}
	return nil
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		text string
		open byte
		want string
		err  bool
	}{
		{"array with prose", `Sure! Here you go: [{"a":1}] hope it helps`, '[', `[{"a":1}]`, false},
		{"fenced object", "```json\n{\"score\": 80}\n```", '{', `{"score": 80}`, false},
		{"no json", "I cannot help", '{', "", true},
		{"unsupported opener", "x", '(', "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ai.ExtractJSON(tt.text, tt.open)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerateSentences(t *testing.T) {
	gen := &scriptedGenerator{text: `Here: [{"word":"cat","sentence":"The cat sleeps."}]`}
	tasks := ai.NewTasks(gen, "small", "big")

	out := tasks.GenerateSentences(context.Background(), []string{"cat"})
	require.False(t, out.Fallback)
	require.Len(t, out.Value, 1)
	assert.Equal(t, "The cat sleeps.", out.Value[0].Sentence)
	assert.Equal(t, "small", gen.prompts[0].Model)
	assert.Contains(t, gen.prompts[0].Text, "cat")
}

func TestGenerateSentences_CapsBatch(t *testing.T) {
	gen := &scriptedGenerator{text: `[]`}
	words := make([]string, 15)
	for i := range words {
		words[i] = "w" + string(rune('a'+i))
	}
	ai.NewTasks(gen, "", "").GenerateSentences(context.Background(), words)
	assert.NotContains(t, gen.prompts[0].Text, "wk")
	assert.Contains(t, gen.prompts[0].Text, "wj")
}

func TestSentences_ReturnsErrorOnFallback(t *testing.T) {
	tasks := ai.NewTasks(&scriptedGenerator{text: "no json here"}, "", "")
	_, err := tasks.Sentences(context.Background(), []string{"cat"})
	assert.Error(t, err)

	tasks = ai.NewTasks(nil, "", "")
	_, err = tasks.Sentences(context.Background(), []string{"cat"})
	assert.Error(t, err)
}

func TestGenerateParagraph_CleansLatinText(t *testing.T) {
	gen := &scriptedGenerator{text: `"ذهبت (went) إلى السوق [market] اليوم today."`}
	tasks := ai.NewTasks(gen, "small", "big")

	out := tasks.GenerateParagraph(context.Background(), []ai.WordHint{{Word: "went", Translation: "ذهب"}}, models.DifficultyEasy)
	require.False(t, out.Fallback)
	assert.Equal(t, "ذهبت إلى السوق اليوم .", out.Value.Paragraph)
	assert.Equal(t, []string{"went"}, out.Value.UsedWords)
	assert.Equal(t, "big", gen.prompts[0].Model)
	assert.Contains(t, gen.prompts[0].Text, "2-3")
	assert.Contains(t, gen.prompts[0].Text, "went (ذهب)")
}

func TestGenerateParagraph_FallbackListsMeanings(t *testing.T) {
	tasks := ai.NewTasks(&scriptedGenerator{err: errors.New("offline")}, "", "")
	words := []ai.WordHint{{Word: "cat", Translation: "قطة"}, {Word: "dog"}}

	out := tasks.GenerateParagraph(context.Background(), words, models.DifficultyMedium)
	assert.True(t, out.Fallback)
	assert.Equal(t, "offline", out.Reason)
	assert.Contains(t, out.Value.Paragraph, "قطة، dog")
	assert.Equal(t, []string{"cat", "dog"}, out.Value.UsedWords)
}

func TestGenerateRandomParagraph(t *testing.T) {
	gen := &scriptedGenerator{text: "Result:\n{\"paragraph\": \"القطة نائمة\", \"usedWords\": [\"cat\", \" sleep \", \"\"]}"}
	out := ai.NewTasks(gen, "", "").GenerateRandomParagraph(context.Background(), models.DifficultyHard, []string{"dog"})
	require.False(t, out.Fallback)
	assert.Equal(t, "القطة نائمة", out.Value.Paragraph)
	assert.Equal(t, []string{"cat", "sleep"}, out.Value.UsedWords)
	assert.Contains(t, gen.prompts[0].Text, "Avoid these words: dog")

	out = ai.NewTasks(&scriptedGenerator{text: `{"paragraph": ""}`}, "", "").GenerateRandomParagraph(context.Background(), models.DifficultyHard, nil)
	assert.True(t, out.Fallback)
	assert.Empty(t, out.Value.Paragraph)
}

func TestRandomWordCountRanges(t *testing.T) {
	tasks := ai.NewTasks(nil, "", "")
	for i := 0; i < 50; i++ {
		assert.InDelta(t, 4, tasks.RandomWordCount(models.DifficultyEasy), 1)
		assert.InDelta(t, 6, tasks.RandomWordCount(models.DifficultyMedium), 1)
		assert.InDelta(t, 9, tasks.RandomWordCount(models.DifficultyHard), 1)
	}
}

func TestEvaluateTranslation(t *testing.T) {
	gen := &scriptedGenerator{text: `{"score": 104, "corrections": ["a"], "suggestions": [], "modelParagraph": "model"}`}
	out := ai.NewTasks(gen, "", "").EvaluateTranslation(context.Background(), "نص", "text", []string{"text"})
	require.False(t, out.Fallback)
	assert.Equal(t, 100, out.Value.Score)
	assert.Equal(t, []string{"a"}, out.Value.Corrections)
	assert.Equal(t, "model", out.Value.ModelParagraph)
}

func TestEvaluateTranslation_Fallback(t *testing.T) {
	for _, gen := range []*scriptedGenerator{
		{err: errors.New("boom")},
		{text: "great job!"},
		{text: `{"corrections": []}`},
	} {
		out := ai.NewTasks(gen, "", "").EvaluateTranslation(context.Background(), "نص", "text", []string{"alpha", "beta"})
		assert.True(t, out.Fallback)
		assert.Equal(t, ai.FallbackScore, out.Value.Score)
		assert.Contains(t, out.Value.ModelParagraph, "alpha, beta")
		assert.Len(t, out.Value.Suggestions, 3)
	}
}

func TestPronounce_ValidJSON(t *testing.T) {
	gen := &scriptedGenerator{text: "```json\n{\"word\":\"water\",\"ipa\":\"/ˈwɔːtər/\",\"syllables\":\"wa-ter\",\"stress\":\"first\",\"similar\":[\"waiter\"]}\n```"}
	out := ai.NewTasks(gen, "", "").Pronounce(context.Background(), "water", ai.VoiceBritish)
	require.False(t, out.Fallback)
	assert.Equal(t, "/ˈwɔːtər/", out.Value.IPA)
	assert.Equal(t, ai.NotAvailable, out.Value.Tips)
	assert.Equal(t, []string{"waiter"}, out.Value.Similar)
	assert.Contains(t, gen.prompts[0].Text, "British")
}

func TestPronounce_FieldExtractionFromBrokenJSON(t *testing.T) {
	// The unescaped quotes inside tips make this invalid JSON.
	gen := &scriptedGenerator{text: `{"word": "water", "ipa": "/ˈwɔːtər/", "tips": "", "stress": "say "WA" loudly", "similar": ["waiter", "daughter"]`}
	out := ai.NewTasks(gen, "", "").Pronounce(context.Background(), "water", "")
	require.False(t, out.Fallback)
	assert.Equal(t, "/ˈwɔːtər/", out.Value.IPA)
	assert.Equal(t, "say ", out.Value.Stress)
	assert.Equal(t, ai.NotAvailable, out.Value.Syllables)
	assert.Equal(t, []string{"waiter", "daughter"}, out.Value.Similar)
}

func TestPronounce_Fallback(t *testing.T) {
	out := ai.NewTasks(&scriptedGenerator{text: "sorry"}, "", "").Pronounce(context.Background(), "water", "")
	assert.True(t, out.Fallback)
	assert.Equal(t, ai.FallbackPronunciation("water"), out.Value)
}

func TestValidVoice(t *testing.T) {
	assert.True(t, ai.ValidVoice(""))
	assert.True(t, ai.ValidVoice(ai.VoiceSlow))
	assert.False(t, ai.ValidVoice("robot"))
}

func TestChatPrompt_LimitsHistoryAndCards(t *testing.T) {
	history := make([]models.ChatMessage, 8)
	for i := range history {
		history[i] = models.ChatMessage{Role: ai.RoleUser, Content: string(rune('a' + i))}
	}
	cards := make([]models.Flashcard, 25)
	for i := range cards {
		cards[i] = models.Flashcard{Word: "word" + string(rune('A'+i)), Meaning: "m"}
	}

	p := ai.NewTasks(nil, "", "").ChatPrompt(history, cards)
	require.Len(t, p.Messages, ai.ChatHistoryLimit)
	assert.Equal(t, "d", p.Messages[0].Content)
	assert.Contains(t, p.System, "wordT: m")
	assert.NotContains(t, p.System, "wordU")
}

func TestStreamChat(t *testing.T) {
	gen := &scriptedGenerator{text: "hi there"}
	var got []string
	err := ai.NewTasks(gen, "", "").StreamChat(context.Background(), []models.ChatMessage{{Role: ai.RoleUser, Content: "hello"}}, nil,
		func(tok string) error {
			got = append(got, tok)
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, []string{"hi", "there"}, got)
}
