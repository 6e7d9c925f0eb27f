package history

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateID(t *testing.T) {
	t.Parallel()

	id, err := GenerateID()
	require.NoError(t, err)

	m := regexp.MustCompile(`^([a-z]+)_([a-z]+)_\d{8}_\d{6}$`).FindStringSubmatch(id)
	require.Len(t, m, 3, "unexpected ID format %q", id)
	assert.Contains(t, adjectives, m[1])
	assert.Contains(t, nouns, m[2])
}

func TestWordLists(t *testing.T) {
	t.Parallel()

	for name, words := range map[string][]string{"adjectives": adjectives, "nouns": nouns} {
		seen := make(map[string]bool)
		for _, w := range words {
			assert.Regexp(t, `^[a-z]+$`, w, "%s: %q", name, w)
			assert.False(t, seen[w], "%s: duplicate %q", name, w)
			seen[w] = true
		}
	}
}

func TestRandomWord(t *testing.T) {
	t.Parallel()

	_, err := randomWord(nil)
	assert.EqualError(t, err, "word list is empty")

	w, err := randomWord([]string{"only"})
	require.NoError(t, err)
	assert.Equal(t, "only", w)
}
