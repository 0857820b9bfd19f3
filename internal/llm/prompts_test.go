package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeancds29/gutenberg-back/internal/library"
)

func TestEveryKindHasATask(t *testing.T) {
	t.Parallel()

	for _, kind := range library.Kinds() {
		task, ok := tasks[kind]
		require.True(t, ok, kind)
		require.Positive(t, task.sampleChars)
		require.Positive(t, task.maxTokens)
		require.Contains(t, task.system, "Always respond with valid JSON only")
	}
	require.Equal(t, 15000, tasks[library.KindCharacters].sampleChars)
	require.Equal(t, 150, tasks[library.KindLanguage].maxTokens)
	require.InDelta(t, 0.3, tasks[library.KindPlot].temperature, 1e-9)
}

func TestPromptsEmbedBookAndSample(t *testing.T) {
	t.Parallel()

	book := library.Book{Title: "Frankenstein", Author: "Mary Shelley"}

	chars := charactersPrompt(book, "SAMPLE")
	require.True(t, strings.HasPrefix(chars, `Book: "Frankenstein" by Mary Shelley`))
	require.Contains(t, chars, `"importance": "protagonist|main|secondary"`)
	require.True(t, strings.HasSuffix(chars, "Sample text:\nSAMPLE"))

	lang := languagePrompt(book, "SAMPLE")
	require.NotContains(t, lang, "Frankenstein")
	require.Contains(t, lang, jsonOnly)

	plot := plotPrompt(book, "SAMPLE")
	require.Contains(t, plot, "up to 500 words")
	require.Contains(t, plot, `"key_events"`)
}

func TestSample(t *testing.T) {
	t.Parallel()

	require.Equal(t, "abc", sample("abcdef", 3))
	require.Equal(t, "çã", sample("çãõ", 2))
	require.Equal(t, "short", sample("short", 100))
}
