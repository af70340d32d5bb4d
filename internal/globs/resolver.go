package globs

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	lru "github.com/hashicorp/golang-lru/v2"

	codeerrors "github.com/codeindex-mcp/codeindex/internal/errors"
	"github.com/codeindex-mcp/codeindex/internal/gitignore"
)

// gitignoreCacheSize bounds the number of per-directory ignore matchers
// kept in memory at once.
const gitignoreCacheSize = 4096

// defaultExcludes are applied in addition to any caller-supplied excludes:
// VCS metadata and the usual dependency/build-artifact directories.
var defaultExcludes = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/dist/**",
	"**/build/**",
	"**/vendor/**",
}

// Resolver answers whether a workspace-relative path belongs in the index,
// given a root, include/exclude patterns, and VCS-ignore files discovered
// while walking.
type Resolver struct {
	root     string
	includes []string
	excludes []string

	mu             sync.Mutex
	gitignoreCache *lru.Cache[string, *gitignore.Matcher]
}

// New resolves root to an absolute directory and compiles includes and
// excludes. databaseName, when non-empty, and its -wal/-shm/-journal
// sidecars are added to the exclude set so the index never indexes itself.
// Returns a GlobPattern error naming the first invalid pattern, or
// InvalidRoot if root cannot be resolved.
func New(root string, includes, excludes []string, databaseName string) (*Resolver, error) {
	resolved, err := resolveRoot(root)
	if err != nil {
		return nil, err
	}

	for _, p := range includes {
		if !doublestar.ValidatePattern(p) {
			return nil, codeerrors.GlobPattern(p, nil)
		}
	}

	all := make([]string, 0, len(defaultExcludes)+len(excludes)+4)
	all = append(all, defaultExcludes...)
	all = append(all, excludes...)
	if databaseName != "" {
		all = append(all, databaseName,
			databaseName+"-wal", databaseName+"-shm", databaseName+"-journal")
	}
	for _, p := range all {
		if !doublestar.ValidatePattern(p) {
			return nil, codeerrors.GlobPattern(p, nil)
		}
	}

	cache, err := lru.New[string, *gitignore.Matcher](gitignoreCacheSize)
	if err != nil {
		return nil, codeerrors.GlobSet(err)
	}

	return &Resolver{
		root:           resolved,
		includes:       includes,
		excludes:       all,
		gitignoreCache: cache,
	}, nil
}

// ResolveRoot resolves root to an absolute directory, the same validation
// New applies, for callers (search, bundle, watcher) that need a
// workspace root without a full Resolver.
func ResolveRoot(root string) (string, error) {
	return resolveRoot(root)
}

func resolveRoot(root string) (string, error) {
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", codeerrors.InvalidRoot(root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", codeerrors.InvalidRoot(root, err)
	}
	if !info.IsDir() {
		return "", codeerrors.InvalidRoot(root, nil)
	}
	return abs, nil
}

// Root returns the resolved absolute workspace root.
func (r *Resolver) Root() string {
	return r.root
}

// Match reports whether the workspace-relative POSIX path relPath (forward
// slashes) should be included. isDir distinguishes directory-only ignore
// rules from file rules.
func (r *Resolver) Match(relPath string, isDir bool) (bool, error) {
	relPath = filepath.ToSlash(relPath)

	if len(r.includes) > 0 && !matchesAny(r.includes, relPath) {
		return false, nil
	}
	if matchesAny(r.excludes, relPath) {
		return false, nil
	}

	dir := filepath.ToSlash(filepath.Dir(filepath.Join(r.root, relPath)))
	m, err := r.matcherForDir(filepath.FromSlash(dir))
	if err != nil {
		return false, err
	}
	if m.Match(relPath, isDir) {
		return false, nil
	}
	return true, nil
}

func matchesAny(patterns []string, path string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, path); ok {
			return true
		}
	}
	return false
}

// matcherForDir returns the accumulated ignore matcher for dir: its
// parent's rules plus its own .gitignore, if present. Results are cached
// by absolute directory path.
func (r *Resolver) matcherForDir(dir string) (*gitignore.Matcher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.matcherForDirLocked(dir)
}

func (r *Resolver) matcherForDirLocked(dir string) (*gitignore.Matcher, error) {
	if cached, ok := r.gitignoreCache.Get(dir); ok {
		return cached, nil
	}

	var m *gitignore.Matcher
	if dir == r.root || len(dir) < len(r.root) {
		m = gitignore.New()
	} else {
		parent, err := r.matcherForDirLocked(filepath.Dir(dir))
		if err != nil {
			return nil, err
		}
		m = parent.Clone()
	}

	giPath := filepath.Join(dir, ".gitignore")
	if _, err := os.Stat(giPath); err == nil {
		relDir, _ := filepath.Rel(r.root, dir)
		relDir = filepath.ToSlash(relDir)
		if relDir == "." {
			relDir = ""
		}
		if err := m.AddFromFile(giPath, relDir); err != nil {
			return nil, codeerrors.IO(giPath, err)
		}
	}

	r.gitignoreCache.Add(dir, m)
	return m, nil
}
