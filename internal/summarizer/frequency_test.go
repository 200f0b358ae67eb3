package summarizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeSelectsFrequentTopic(t *testing.T) {
	s := NewFrequency()
	text := "Vectors power retrieval. Vectors encode meaning. Vectors rank passages. Weather was nice today."
	out, err := s.Summarize(text, 2)
	require.NoError(t, err)
	assert.Contains(t, out, "Vectors")
	assert.NotContains(t, out, "Weather")
	// Selected sentences keep their original order.
	assert.Less(t, strings.Index(text, strings.Split(out, ". ")[0]), len(text))
}

func TestSummarizeShortText(t *testing.T) {
	s := NewFrequency()
	out, err := s.Summarize("  no sentence punctuation here  ", 3)
	require.NoError(t, err)
	assert.Equal(t, "no sentence punctuation here", out)
}

func TestSummarizeDeterministic(t *testing.T) {
	s := NewFrequency()
	text := "Alpha leads. Beta follows. Alpha repeats. Gamma ends."
	a, err := s.Summarize(text, 2)
	require.NoError(t, err)
	b, err := s.Summarize(text, 2)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
