package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_WhitespaceOnlyContentFallsBackToSingleFragment(t *testing.T) {
	frags := Split("   \n\t  ", Options{ChunkSizeTokens: 64, ChunkOverlapTokens: 8})
	require.Len(t, frags, 1)
	assert.Equal(t, "", frags[0].Content)
}

func TestSplit_ShortContentProducesOneFragment(t *testing.T) {
	frags := Split("package main\n\nfunc main() {}\n", Options{ChunkSizeTokens: 64, ChunkOverlapTokens: 8})
	require.Len(t, frags, 1)
	assert.Equal(t, "package main\n\nfunc main() {}", frags[0].Content)
	assert.Equal(t, 1, frags[0].LineStart)
}

func TestSplit_SingleCharacterProducesSingleFragment(t *testing.T) {
	frags := Split("x", Options{ChunkSizeTokens: 1, ChunkOverlapTokens: 0})
	require.Len(t, frags, 1)
	assert.Equal(t, "x", frags[0].Content)
}

func TestSplit_LongContentProducesMultipleOverlappingFragments(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 500; i++ {
		b.WriteString("line number content here\n")
	}
	content := b.String()

	frags := Split(content, Options{ChunkSizeTokens: 64, ChunkOverlapTokens: 16})
	require.Greater(t, len(frags), 1)

	for _, f := range frags {
		assert.NotEmpty(t, f.Content)
		assert.LessOrEqual(t, f.ByteStart, f.ByteEnd)
		assert.LessOrEqual(t, f.LineStart, f.LineEnd)
	}
}

func TestSplit_FragmentsAreStableAcrossRuns(t *testing.T) {
	content := strings.Repeat("alpha beta gamma delta\n", 200)
	opts := Options{ChunkSizeTokens: 32, ChunkOverlapTokens: 8}

	first := Split(content, opts)
	second := Split(content, opts)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i], second[i])
	}
}

func TestSplit_ByteOffsetsSliceOriginalTrimmedContent(t *testing.T) {
	content := "  hello world, this has leading and trailing space  "
	frags := Split(content, Options{ChunkSizeTokens: 64, ChunkOverlapTokens: 0})
	require.Len(t, frags, 1)

	trimmed := strings.TrimSpace(content)
	assert.Equal(t, trimmed, frags[0].Content)
	assert.Equal(t, 0, frags[0].ByteStart)
}

func TestSplit_NeverRegressesWindowStart(t *testing.T) {
	content := strings.Repeat("a", 10000)
	frags := Split(content, Options{ChunkSizeTokens: 64, ChunkOverlapTokens: 1000})
	require.NotEmpty(t, frags)

	lastStart := -1
	for _, f := range frags {
		assert.Greater(t, f.ByteStart, lastStart)
		lastStart = f.ByteStart
	}
}
