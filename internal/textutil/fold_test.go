package textutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vytor/vocabflash/internal/textutil"
)

func TestKey(t *testing.T) {
	assert.Equal(t, textutil.Key("Cat"), textutil.Key("  cAT "))
	assert.Equal(t, textutil.Key("STRASSE"), textutil.Key("straße"))
	assert.NotEqual(t, textutil.Key("cat"), textutil.Key("cats"))
}

func TestContains(t *testing.T) {
	assert.True(t, textutil.Contains("Ephemeral beauty", "BEAUTY"))
	assert.True(t, textutil.Contains("anything", ""))
	assert.False(t, textutil.Contains("serene", "calm"))
}
