package bundle

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeindex-mcp/codeindex/internal/embed"
	"github.com/codeindex-mcp/codeindex/internal/errors"
	"github.com/codeindex-mcp/codeindex/internal/ingest"
	"github.com/codeindex-mcp/codeindex/internal/store"
)

func ingestFixture(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	coordinator := ingest.New(embed.NewPool())
	_, err := coordinator.Ingest(context.Background(), ingest.Options{
		Root:               dir,
		DatabaseName:       ".mcp-index.sqlite",
		StoreFileContent:   true,
		EmbeddingEnabled:   true,
		ChunkSizeTokens:    64,
		ChunkOverlapTokens: 8,
	})
	require.NoError(t, err)
}

const sampleSource = `// greet prints a friendly message.
function greet(name) {
	return "hello " + name;
}

class Greeter {
	public sayHi(name) {
		return greet(name);
	}
}
`

func TestAssemble_E6_MissingFileReturnsNotFound(t *testing.T) {
	dir := t.TempDir()
	ingestFixture(t, dir, map[string]string{"a.js": sampleSource})

	_, err := Assemble(context.Background(), Options{
		Root:         dir,
		DatabaseName: ".mcp-index.sqlite",
		Path:         "does-not-exist.js",
	})
	require.Error(t, err)
	kind, ok := errors.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, errors.KindNotFound, kind)
}

func TestAssemble_LoadsDefinitionsAndSnippets(t *testing.T) {
	dir := t.TempDir()
	ingestFixture(t, dir, map[string]string{"a.js": sampleSource})

	b, err := Assemble(context.Background(), Options{
		Root:         dir,
		DatabaseName: ".mcp-index.sqlite",
		Path:         "a.js",
	})
	require.NoError(t, err)
	assert.True(t, b.ContentAvailable)
	assert.NotEmpty(t, b.Definitions)
	assert.NotEmpty(t, b.Snippets)
	assert.NotEmpty(t, b.QuickLinks)
	assert.LessOrEqual(t, len(b.QuickLinks), maxQuickLinks)
}

func TestAssemble_FocusSelectorMarksMatchingDefinition(t *testing.T) {
	dir := t.TempDir()
	ingestFixture(t, dir, map[string]string{"a.js": sampleSource})

	b, err := Assemble(context.Background(), Options{
		Root:         dir,
		DatabaseName: ".mcp-index.sqlite",
		Path:         "a.js",
		Symbol:       "greet",
	})
	require.NoError(t, err)
	require.NotNil(t, b.FocusDefinition)
	assert.Equal(t, "greet", b.FocusDefinition.Name)
	assert.True(t, b.FocusDefinition.IsFocus)
}

func TestBuildSnippets_TruncatesOverBudgetSnippet(t *testing.T) {
	longContent := strings.Repeat("x", 2000)
	chunks := []store.Chunk{
		{ID: "a:0", Content: longContent, ByteStart: 0, ByteEnd: len(longContent), LineStart: 1, LineEnd: 1},
	}

	snippets := buildSnippets(chunks, nil, defaultMaxSnippets, 200)
	require.Len(t, snippets, 1)
	assert.True(t, snippets[0].Truncated)
	assert.True(t, strings.HasSuffix(snippets[0].Content, truncationSuffix))
}
