package globs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsMissingRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "does-not-exist"), nil, nil, "")
	require.Error(t, err)
}

func TestNew_RejectsMalformedPattern(t *testing.T) {
	dir := t.TempDir()
	_, err := New(dir, []string{"["}, nil, "")
	require.Error(t, err)
}

func TestMatch_DefaultIncludesEverything(t *testing.T) {
	dir := t.TempDir()
	r, err := New(dir, nil, nil, "")
	require.NoError(t, err)

	ok, err := r.Match("src/a.go", false)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMatch_DefaultExcludesVCSAndBuildDirs(t *testing.T) {
	dir := t.TempDir()
	r, err := New(dir, nil, nil, "")
	require.NoError(t, err)

	for _, path := range []string{".git/HEAD", "node_modules/pkg/index.js", "dist/out.js", "vendor/lib.go"} {
		ok, err := r.Match(path, false)
		require.NoError(t, err)
		assert.False(t, ok, "expected %s to be excluded", path)
	}
}

func TestMatch_DatabaseNameAndSidecarsExcluded(t *testing.T) {
	dir := t.TempDir()
	r, err := New(dir, nil, nil, ".mcp-index.sqlite")
	require.NoError(t, err)

	for _, path := range []string{".mcp-index.sqlite", ".mcp-index.sqlite-wal", ".mcp-index.sqlite-shm", ".mcp-index.sqlite-journal"} {
		ok, err := r.Match(path, false)
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestMatch_CustomExcludeGlob(t *testing.T) {
	dir := t.TempDir()
	r, err := New(dir, nil, []string{"**/*.log"}, "")
	require.NoError(t, err)

	ok, err := r.Match("logs/app.log", false)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMatch_IncludeRestrictsToPattern(t *testing.T) {
	dir := t.TempDir()
	r, err := New(dir, []string{"**/*.go"}, nil, "")
	require.NoError(t, err)

	ok, err := r.Match("src/a.go", false)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.Match("src/a.txt", false)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMatch_HonorsGitignore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("*.secret\n"), 0o644))

	r, err := New(dir, nil, nil, "")
	require.NoError(t, err)

	ok, err := r.Match("creds.secret", false)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.Match("creds.txt", false)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMatch_HonorsNestedGitignore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", ".gitignore"), []byte("ignored.txt\n"), 0o644))

	r, err := New(dir, nil, nil, "")
	require.NoError(t, err)

	ok, err := r.Match("sub/ignored.txt", false)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.Match("other/ignored.txt", false)
	require.NoError(t, err)
	assert.True(t, ok)
}
