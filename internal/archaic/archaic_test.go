package archaic_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/vocabflash/internal/archaic"
)

func TestCheck(t *testing.T) {
	m, ok := archaic.Default.Check("  Thou ")
	require.True(t, ok)
	assert.Equal(t, "thou", m.Word)
	assert.Equal(t, archaic.KindOldEnglish, m.Kind)
	assert.Equal(t, "you (singular)", m.Meaning)

	m, ok = archaic.Default.Check("fortnight")
	require.True(t, ok)
	assert.Equal(t, archaic.KindArchaic, m.Kind)

	m, ok = archaic.Default.Check("fain")
	require.True(t, ok)
	assert.Equal(t, archaic.KindOldEnglish, m.Kind, "first listing wins")

	m, ok = archaic.Default.Check("a bygone era")
	require.True(t, ok)
	assert.Equal(t, "bygone", m.Word)

	_, ok = archaic.Default.Check("computer")
	assert.False(t, ok)
}

func TestFind(t *testing.T) {
	found := archaic.Default.Find("Hark! Whither goest thou, and whither thy brethren? Thou art nigh.")

	var words []string
	for _, m := range found {
		words = append(words, m.Word)
	}
	assert.Equal(t, []string{"hark", "whither", "thou", "thy", "brethren", "nigh"}, words)

	assert.Empty(t, archaic.Default.Find("A perfectly modern sentence."))
}

func TestParse(t *testing.T) {
	d, err := archaic.Parse("# comment\nold-english\tere\tbefore\n\narchaic\tlo\tlook\n")
	require.NoError(t, err)
	assert.Equal(t, 2, d.Len())

	_, err = archaic.Parse("modern\tcool\tnice\n")
	assert.Error(t, err)

	_, err = archaic.Parse("archaic\tlo\n")
	assert.Error(t, err)

	assert.Greater(t, archaic.Default.Len(), 70)
}
