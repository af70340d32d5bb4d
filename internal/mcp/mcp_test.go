package mcp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeindex-mcp/codeindex/internal/embed"
	codeerrors "github.com/codeindex-mcp/codeindex/internal/errors"
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
		Root: dir, DatabaseName: ".mcp-index.sqlite", StoreFileContent: true,
		EmbeddingEnabled: true, EmbeddingModel: "static-768",
		ChunkSizeTokens: 64, ChunkOverlapTokens: 8,
	})
	require.NoError(t, err)
	return pool
}

func TestIndexStatus_NoDatabaseReportsNotExists(t *testing.T) {
	dir := t.TempDir()
	out, err := IndexStatus(context.Background(), dir, "", 0)
	require.NoError(t, err)
	assert.False(t, out.Exists)
}

func TestIndexStatus_ReportsCountsAfterIngest(t *testing.T) {
	dir := t.TempDir()
	ingestFixture(t, dir, map[string]string{"a.txt": "hello world\n"})

	out, err := IndexStatus(context.Background(), dir, "", 0)
	require.NoError(t, err)
	assert.True(t, out.Exists)
	assert.Equal(t, 1, out.FileCount)
	assert.NotZero(t, out.ChunkCount)
	require.NotNil(t, out.LatestIngestion)
	assert.Equal(t, 1, out.LatestIngestion.FileCount)
}

func TestRunSemanticSearch_FindsIngestedContent(t *testing.T) {
	dir := t.TempDir()
	pool := ingestFixture(t, dir, map[string]string{"a.txt": "a distinctive phrase about wombats\n"})

	out, err := runSemanticSearch(context.Background(), pool, SemanticSearchInput{
		Root: dir, Query: "a distinctive phrase about wombats",
	})
	require.NoError(t, err)
	require.NotEmpty(t, out.Matches)
	assert.Equal(t, "a.txt", out.Matches[0].Path)
}

func TestRunContextBundle_MissingFileReturnsNotFound(t *testing.T) {
	dir := t.TempDir()
	ingestFixture(t, dir, map[string]string{"a.txt": "hello\n"})

	_, err := runContextBundle(context.Background(), ContextBundleInput{Root: dir, File: "missing.txt"})
	require.Error(t, err)
	kind, ok := codeerrors.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, codeerrors.KindNotFound, kind)
}

func TestCodeLookupHandler_UnknownModeIsInvalidParams(t *testing.T) {
	s := &Server{}
	_, _, err := s.codeLookupHandler(context.Background(), nil, CodeLookupInput{Mode: "not-a-mode"})
	require.Error(t, err)
	mcpErr, ok := err.(*MCPError)
	require.True(t, ok)
	assert.Equal(t, -32602, mcpErr.Code)
}

func TestMapError_UsesKindJSONRPCCode(t *testing.T) {
	err := codeerrors.NotFound("thing")
	mapped := MapError(err)
	require.NotNil(t, mapped)
	assert.Equal(t, -32602, mapped.Code)
}

func TestMapError_NilReturnsNil(t *testing.T) {
	assert.Nil(t, MapError(nil))
}

func TestRepositoryTimeline_NoDatabaseReturnsNotFound(t *testing.T) {
	dir := t.TempDir()
	_, err := repositoryTimeline(context.Background(), RepositoryTimelineInput{Root: dir})
	require.Error(t, err)
	kind, ok := codeerrors.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, codeerrors.KindNotFound, kind)
}
