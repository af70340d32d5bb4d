package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ProducesValidDefaults(t *testing.T) {
	cfg := New()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultDatabaseName, cfg.Server.DatabaseName)
	assert.Equal(t, "static-768", cfg.Embed.Model)
}

func TestLoad_NoFilePresent_ReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 512, cfg.Ingest.ChunkSizeTokens)
}

func TestLoad_MergesProjectFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	yaml := `
ingest:
  chunk_size_tokens: 1024
embedding:
  model: minilm-l6v2
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".codeindex.yaml"), []byte(yaml), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 1024, cfg.Ingest.ChunkSizeTokens)
	assert.Equal(t, "minilm-l6v2", cfg.Embed.Model)
	assert.Equal(t, 64, cfg.Ingest.ChunkOverlapTokens, "unset fields keep defaults")
}

func TestLoad_EnvOverridesDatabaseName(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("INDEX_MCP_DATABASE_NAME", "custom.sqlite")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "custom.sqlite", cfg.Server.DatabaseName)
}

func TestValidate_RejectsNonPositiveChunkSize(t *testing.T) {
	cfg := New()
	cfg.Ingest.ChunkSizeTokens = 0
	require.Error(t, cfg.Validate())
}

func TestValidate_RejectsNegativeOverlap(t *testing.T) {
	cfg := New()
	cfg.Ingest.ChunkOverlapTokens = -1
	require.Error(t, cfg.Validate())
}

func TestValidate_RejectsEmptyDatabaseName(t *testing.T) {
	cfg := New()
	cfg.Server.DatabaseName = ""
	require.Error(t, cfg.Validate())
}
