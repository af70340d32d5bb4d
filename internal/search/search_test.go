package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeindex-mcp/codeindex/internal/embed"
	"github.com/codeindex-mcp/codeindex/internal/ingest"
)

func ingestFixture(t *testing.T, dir string, files map[string]string) *embed.Pool {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	pool := embed.NewPool()
	coordinator := ingest.New(pool)
	_, err := coordinator.Ingest(context.Background(), ingest.Options{
		Root:               dir,
		DatabaseName:       ".mcp-index.sqlite",
		StoreFileContent:   true,
		ChunkSizeTokens:    64,
		ChunkOverlapTokens: 8,
		EmbeddingEnabled:   true,
		EmbeddingModel:     embed.DefaultModel,
		BatchSize:          16,
	})
	require.NoError(t, err)
	return pool
}

// TestSearch_E5_TopMatchIsMostSimilar exercises spec.md's search scenario
// E5: the highest-ranked match is the chunk whose own text is the query.
func TestSearch_E5_TopMatchIsMostSimilar(t *testing.T) {
	dir := t.TempDir()
	pool := ingestFixture(t, dir, map[string]string{
		"auth.go":    "func AuthenticateUser(token string) (bool, error) {\n\treturn validateToken(token), nil\n}\n",
		"weather.go": "func GetWeatherForecast(city string) (string, error) {\n\treturn fetchForecast(city), nil\n}\n",
	})

	resp, err := Search(context.Background(), pool, Options{
		Root:         dir,
		DatabaseName: ".mcp-index.sqlite",
		Query:        "func AuthenticateUser(token string) (bool, error) {\n\treturn validateToken(token), nil\n}\n",
		Limit:        5,
		Model:        embed.DefaultModel,
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Matches)
	assert.Equal(t, "auth.go", resp.Matches[0].Path)
}

// TestSearch_ReturnsMatchesInDescendingScoreOrder covers testable property
// #6: matches are always ordered from most to least similar.
func TestSearch_ReturnsMatchesInDescendingScoreOrder(t *testing.T) {
	dir := t.TempDir()
	pool := ingestFixture(t, dir, map[string]string{
		"a.go": "package a\n\nfunc Add(x, y int) int {\n\treturn x + y\n}\n",
		"b.go": "package b\n\nfunc Subtract(x, y int) int {\n\treturn x - y\n}\n",
		"c.go": "package c\n\nfunc Multiply(x, y int) int {\n\treturn x * y\n}\n",
	})

	resp, err := Search(context.Background(), pool, Options{
		Root:         dir,
		DatabaseName: ".mcp-index.sqlite",
		Query:        "arithmetic addition of two integers",
		Limit:        10,
		Model:        embed.DefaultModel,
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Matches)

	for i := 1; i < len(resp.Matches); i++ {
		assert.GreaterOrEqual(t, resp.Matches[i-1].Score, resp.Matches[i].Score)
	}
}

func TestSearch_EmptyQueryReturnsNoMatches(t *testing.T) {
	dir := t.TempDir()
	pool := ingestFixture(t, dir, map[string]string{"a.go": "package a\n"})

	resp, err := Search(context.Background(), pool, Options{
		Root:         dir,
		DatabaseName: ".mcp-index.sqlite",
		Query:        "   ",
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Matches)
}

func TestSearch_NoDatabaseReturnsEmptyResponse(t *testing.T) {
	dir := t.TempDir()

	resp, err := Search(context.Background(), embed.NewPool(), Options{
		Root:         dir,
		DatabaseName: ".mcp-index.sqlite",
		Query:        "anything",
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Matches)
	assert.Zero(t, resp.TotalChunks)
}

func TestSearch_UnknownModelIsRejected(t *testing.T) {
	dir := t.TempDir()
	pool := ingestFixture(t, dir, map[string]string{"a.go": "package a\n\nfunc F() {}\n"})

	_, err := Search(context.Background(), pool, Options{
		Root:         dir,
		DatabaseName: ".mcp-index.sqlite",
		Query:        "something",
		Model:        "static-384",
	})
	require.Error(t, err)
}
