package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeindex-mcp/codeindex/internal/globs"
)

func newScanner(t *testing.T, dir string, includes, excludes []string) *Scanner {
	t.Helper()
	r, err := globs.New(dir, includes, excludes, "")
	require.NoError(t, err)
	return New(r)
}

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestScan_FindsAllTextFilesSortedByPath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.go", "package b\n")
	writeFile(t, dir, "a.go", "package a\n")

	s := newScanner(t, dir, nil, nil)
	res, err := s.Scan(context.Background(), Options{StoreContent: true})
	require.NoError(t, err)
	require.Len(t, res.Files, 2)
	assert.Equal(t, "a.go", res.Files[0].Path)
	assert.Equal(t, "b.go", res.Files[1].Path)
	assert.Equal(t, "package a\n", res.Files[0].Content)
}

func TestScan_ExcludesVendorAndNodeModules(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "vendor/pkg/a.go", "x")
	writeFile(t, dir, "node_modules/pkg/index.js", "x")
	writeFile(t, dir, "main.go", "package main\n")

	s := newScanner(t, dir, nil, nil)
	res, err := s.Scan(context.Background(), Options{})
	require.NoError(t, err)
	require.Len(t, res.Files, 1)
	assert.Equal(t, "main.go", res.Files[0].Path)
}

func TestScan_SkipsFilesOverMaxSize(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "big.txt", "0123456789")

	s := newScanner(t, dir, nil, nil)
	res, err := s.Scan(context.Background(), Options{MaxFileSizeBytes: 5})
	require.NoError(t, err)
	require.Empty(t, res.Files)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, ReasonMaxFileSize, res.Skipped[0].Reason)
}

func TestScan_DetectsBinaryContent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blob.bin"), []byte{0x00, 0x01, 0x02}, 0o644))

	s := newScanner(t, dir, nil, nil)
	res, err := s.Scan(context.Background(), Options{StoreContent: true})
	require.NoError(t, err)
	require.Len(t, res.Files, 1)
	assert.True(t, res.Files[0].IsBinary)
	assert.Empty(t, res.Files[0].Content)
}

func TestScan_ComputesStableHash(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "hello world")

	s := newScanner(t, dir, nil, nil)
	res, err := s.Scan(context.Background(), Options{})
	require.NoError(t, err)
	require.Len(t, res.Files, 1)
	assert.Len(t, res.Files[0].Hash, 64)
}

func TestScan_TargetedMode_MissingPathIsSkipped(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "present.go", "package present\n")

	s := newScanner(t, dir, nil, nil)
	res, err := s.Scan(context.Background(), Options{TargetPaths: []string{"present.go", "missing.go"}})
	require.NoError(t, err)
	require.Len(t, res.Files, 1)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, ReasonTargetPathMissing, res.Skipped[0].Reason)
	assert.Equal(t, "missing.go", res.Skipped[0].Path)
}

func TestScan_TargetedMode_DirectoryIsWalked(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pkg/a.go", "package pkg\n")
	writeFile(t, dir, "pkg/b.go", "package pkg\n")
	writeFile(t, dir, "other.go", "package other\n")

	s := newScanner(t, dir, nil, nil)
	res, err := s.Scan(context.Background(), Options{TargetPaths: []string{"pkg"}})
	require.NoError(t, err)
	require.Len(t, res.Files, 2)
	assert.Equal(t, "pkg/a.go", res.Files[0].Path)
	assert.Equal(t, "pkg/b.go", res.Files[1].Path)
}

func TestScan_HonorsGitignore(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".gitignore", "*.secret\n")
	writeFile(t, dir, "creds.secret", "shh")
	writeFile(t, dir, "creds.txt", "ok")

	s := newScanner(t, dir, nil, nil)
	res, err := s.Scan(context.Background(), Options{})
	require.NoError(t, err)
	require.Len(t, res.Files, 1)
	assert.Equal(t, "creds.txt", res.Files[0].Path)
}

func TestScan_NeverFollowsSymlinks(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "real/a.go", "package real\n")
	require.NoError(t, os.Symlink(filepath.Join(dir, "real"), filepath.Join(dir, "link")))

	s := newScanner(t, dir, nil, nil)
	res, err := s.Scan(context.Background(), Options{})
	require.NoError(t, err)
	for _, f := range res.Files {
		assert.NotContains(t, f.Path, "link")
	}
}
