// Package bundle assembles a context bundle for one file: metadata,
// definitions with derived visibility/docstring/TODO annotations, related
// graph neighbors, and token-budgeted source snippets. Field names follow
// the original Rust bundle.rs naming (BundleDefinition, BundleEdgeNeighbor,
// NeighborNode, BundleSnippet, ContextBundleQuickLink).
package bundle

import "github.com/codeindex-mcp/codeindex/internal/store"

const (
	defaultMaxSnippets  = 3
	maxMaxSnippets      = 10
	defaultMaxNeighbors = 12
	maxMaxNeighbors     = 50
	defaultTokenBudget  = 3000
)

// Options configures one bundle assembly call.
type Options struct {
	Root         string
	DatabaseName string
	Path         string
	Symbol       string // optional focus selector, case-insensitive name match
	SymbolKind   string // optional, narrows the focus match by kind

	MaxSnippets  int
	MaxNeighbors int
	TokenBudget  int
}

func clamp(n, def, max int) int {
	if n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

// BundleDefinition is one graph node belonging to the target file, enriched
// with attributes derived from the surrounding source text.
type BundleDefinition struct {
	ID         string
	Kind       string
	Name       string
	Signature  string
	RangeStart *int
	RangeEnd   *int
	Visibility string
	Docstring  string
	TODOCount  int
	IsFocus    bool
}

// NeighborNode is the node summary attached to a BundleEdgeNeighbor.
type NeighborNode struct {
	ID   string
	Path string
	Kind string
	Name string
}

// BundleEdgeNeighbor is one related graph node reached via an edge from (or
// to) a definition in this bundle.
type BundleEdgeNeighbor struct {
	EdgeID     string
	Direction  store.EdgeDirection
	EdgeType   string
	Definition string // id of the BundleDefinition this neighbor was found from
	Node       NeighborNode
}

// BundleSnippet is one file chunk included in the bundle, possibly
// truncated to respect the token budget.
type BundleSnippet struct {
	ChunkID   string
	Content   string
	ByteStart int
	ByteEnd   int
	LineStart int
	LineEnd   int
	Truncated bool
}

// ContextBundleQuickLink is one entry in the capped navigation list: the
// file itself, the focus definition, remaining definitions, and neighbors.
type ContextBundleQuickLink struct {
	Label string
	Kind  string // "file", "definition", "neighbor"
	ID    string
}

// Bundle is the full assembled result of one context bundle call.
type Bundle struct {
	Path             string
	ContentAvailable bool
	Definitions      []BundleDefinition
	FocusDefinition  *BundleDefinition
	Neighbors        []BundleEdgeNeighbor
	Snippets         []BundleSnippet
	LatestIngestion  *store.Ingestion
	QuickLinks       []ContextBundleQuickLink
	Warnings         []string
}
