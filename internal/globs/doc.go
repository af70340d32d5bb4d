// Package globs resolves a workspace root and a set of include/exclude
// glob patterns into a single predicate: does this workspace-relative
// POSIX path belong in the index? It layers three checks — include
// patterns, exclude patterns (caller-supplied plus a fixed default set),
// and VCS-ignore rules loaded per directory — and normalizes all path
// separators to forward slashes before matching.
package globs
