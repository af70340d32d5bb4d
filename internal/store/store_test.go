package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.sqlite")
	s, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_CreatesSchema(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	n, err := CountFiles(ctx, s.DB())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUpsertFile_RoundTrips(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	content := "hello world\n"

	require.NoError(t, UpsertFile(ctx, s.DB(), File{
		Path: "hello.txt", Size: int64(len(content)), ModifiedMS: 1, Hash: "abc", LastIndexedMS: 2, Content: &content,
	}))

	f, err := GetFile(ctx, s.DB(), "hello.txt")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, "abc", f.Hash)
	require.NotNil(t, f.Content)
	assert.Equal(t, content, *f.Content)
}

func TestDeleteFiles_CascadesChunksAndNodes(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, UpsertFile(ctx, s.DB(), File{Path: "a.go", Size: 1, Hash: "h"}))
	require.NoError(t, InsertChunks(ctx, s.DB(), []Chunk{
		{ID: "a.go:0", Path: "a.go", ChunkIndex: 0, Content: "x", EmbeddingModel: "static-768"},
	}))
	require.NoError(t, InsertGraphNodes(ctx, s.DB(), []GraphNode{
		{ID: "n1", Path: strPtr("a.go"), Kind: "file", Name: "a.go"},
	}))

	require.NoError(t, DeleteFiles(ctx, s.DB(), []string{"a.go"}))

	nChunks, err := CountChunks(ctx, s.DB())
	require.NoError(t, err)
	assert.Zero(t, nChunks)

	nNodes, err := CountGraphNodes(ctx, s.DB())
	require.NoError(t, err)
	assert.Zero(t, nNodes)
}

func TestEvict_NoOpUnderLimit(t *testing.T) {
	s := openTestStore(t)
	report, err := s.Evict(context.Background(), 0)
	require.NoError(t, err)
	assert.Zero(t, report.EvictedChunks)
	assert.Zero(t, report.EvictedNodes)
}

func strPtr(s string) *string { return &s }
