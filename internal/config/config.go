// Package config loads workspace configuration for the indexing server
// from <root>/.codeindex.yaml, layered over hardcoded defaults and a small
// set of environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"

	codeerrors "github.com/codeindex-mcp/codeindex/internal/errors"
)

// DefaultDatabaseName is the index database filename created at the
// workspace root when no override is configured.
const DefaultDatabaseName = ".mcp-index.sqlite"

// Config is the complete configuration for one workspace.
type Config struct {
	Version  int            `yaml:"version" json:"version"`
	Paths    PathsConfig    `yaml:"paths" json:"paths"`
	Ingest   IngestConfig   `yaml:"ingest" json:"ingest"`
	Embed    EmbedConfig    `yaml:"embedding" json:"embedding"`
	Watch    WatchConfig    `yaml:"watch" json:"watch"`
	Server   ServerConfig   `yaml:"server" json:"server"`
}

// PathsConfig configures which workspace-relative paths are indexed.
type PathsConfig struct {
	Include []string `yaml:"include" json:"include"`
	Exclude []string `yaml:"exclude" json:"exclude"`
}

// IngestConfig configures the chunker and the ingest coordinator's limits.
type IngestConfig struct {
	ChunkSizeTokens      int   `yaml:"chunk_size_tokens" json:"chunk_size_tokens"`
	ChunkOverlapTokens   int   `yaml:"chunk_overlap_tokens" json:"chunk_overlap_tokens"`
	MaxFileSizeBytes     int64 `yaml:"max_file_size_bytes" json:"max_file_size_bytes"`
	StoreFileContent     bool  `yaml:"store_file_content" json:"store_file_content"`
	AutoEvict            bool  `yaml:"auto_evict" json:"auto_evict"`
	MaxDatabaseSizeBytes int64 `yaml:"max_database_size_bytes" json:"max_database_size_bytes"`
	Workers              int   `yaml:"workers" json:"workers"`
}

// EmbedConfig configures the embedding pipeline.
type EmbedConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Model     string `yaml:"model" json:"model"`
	BatchSize int    `yaml:"batch_size" json:"batch_size"`
}

// WatchConfig configures the filesystem watcher.
type WatchConfig struct {
	Debounce         time.Duration `yaml:"debounce" json:"debounce"`
	InitialIngest    bool          `yaml:"initial_ingest" json:"initial_ingest"`
}

// ServerConfig configures the MCP server surface.
type ServerConfig struct {
	DatabaseName string `yaml:"database_name" json:"database_name"`
}

// New returns the hardcoded defaults.
func New() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			Include: []string{},
			Exclude: []string{},
		},
		Ingest: IngestConfig{
			ChunkSizeTokens:      512,
			ChunkOverlapTokens:   64,
			MaxFileSizeBytes:     5 * 1024 * 1024,
			StoreFileContent:     true,
			AutoEvict:            false,
			MaxDatabaseSizeBytes: 0,
			Workers:              runtime.NumCPU(),
		},
		Embed: EmbedConfig{
			Enabled:   true,
			Model:     "static-768",
			BatchSize: 32,
		},
		Watch: WatchConfig{
			Debounce:      500 * time.Millisecond,
			InitialIngest: true,
		},
		Server: ServerConfig{
			DatabaseName: DefaultDatabaseName,
		},
	}
}

// Load builds a Config for dir: hardcoded defaults, then
// <dir>/.codeindex.yaml if present, then environment overrides.
func Load(dir string) (*Config, error) {
	cfg := New()

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFromFile(dir string) error {
	path := filepath.Join(dir, ".codeindex.yaml")
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return codeerrors.IO(path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	c.mergeWith(&parsed)
	return nil
}

// mergeWith overlays non-zero values from other onto c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if len(other.Paths.Include) > 0 {
		c.Paths.Include = other.Paths.Include
	}
	if len(other.Paths.Exclude) > 0 {
		c.Paths.Exclude = other.Paths.Exclude
	}
	if other.Ingest.ChunkSizeTokens != 0 {
		c.Ingest.ChunkSizeTokens = other.Ingest.ChunkSizeTokens
	}
	if other.Ingest.ChunkOverlapTokens != 0 {
		c.Ingest.ChunkOverlapTokens = other.Ingest.ChunkOverlapTokens
	}
	if other.Ingest.MaxFileSizeBytes != 0 {
		c.Ingest.MaxFileSizeBytes = other.Ingest.MaxFileSizeBytes
	}
	c.Ingest.StoreFileContent = other.Ingest.StoreFileContent || c.Ingest.StoreFileContent
	c.Ingest.AutoEvict = other.Ingest.AutoEvict || c.Ingest.AutoEvict
	if other.Ingest.MaxDatabaseSizeBytes != 0 {
		c.Ingest.MaxDatabaseSizeBytes = other.Ingest.MaxDatabaseSizeBytes
	}
	if other.Ingest.Workers != 0 {
		c.Ingest.Workers = other.Ingest.Workers
	}
	if other.Embed.Model != "" {
		c.Embed.Model = other.Embed.Model
	}
	if other.Embed.BatchSize != 0 {
		c.Embed.BatchSize = other.Embed.BatchSize
	}
	if other.Watch.Debounce != 0 {
		c.Watch.Debounce = other.Watch.Debounce
	}
	if other.Server.DatabaseName != "" {
		c.Server.DatabaseName = other.Server.DatabaseName
	}
}

// applyEnvOverrides applies the small set of environment variables that
// take precedence over file and defaults: INDEX_MCP_DATABASE_NAME.
func (c *Config) applyEnvOverrides() {
	if name := os.Getenv("INDEX_MCP_DATABASE_NAME"); name != "" {
		c.Server.DatabaseName = name
	}
}

// Validate rejects configurations that would produce nonsensical behavior
// downstream (the chunker and store assume these hold).
func (c *Config) Validate() error {
	if c.Ingest.ChunkSizeTokens <= 0 {
		return fmt.Errorf("ingest.chunk_size_tokens must be positive, got %d", c.Ingest.ChunkSizeTokens)
	}
	if c.Ingest.ChunkOverlapTokens < 0 {
		return fmt.Errorf("ingest.chunk_overlap_tokens must not be negative, got %d", c.Ingest.ChunkOverlapTokens)
	}
	if c.Embed.BatchSize <= 0 {
		return fmt.Errorf("embedding.batch_size must be positive, got %d", c.Embed.BatchSize)
	}
	if c.Server.DatabaseName == "" {
		return fmt.Errorf("server.database_name must not be empty")
	}
	return nil
}
