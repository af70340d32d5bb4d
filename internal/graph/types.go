// Package graph extracts a best-effort call graph from JavaScript/
// TypeScript source: a node per function-like declaration plus file and
// synthesized-symbol nodes, and "calls" edges between the scope a call
// occurs in and the symbol it names.
package graph

// NodeKind identifies what a Node represents.
type NodeKind string

const (
	NodeFile        NodeKind = "file"
	NodeFunction    NodeKind = "function"
	NodeMethod      NodeKind = "method"
	NodeConstructor NodeKind = "constructor"
	NodeLambda      NodeKind = "lambda"
	NodeSymbol      NodeKind = "symbol"
)

// Node is one vertex in the extracted graph.
type Node struct {
	ID         string
	Path       string // empty for synthesized symbol nodes
	Kind       NodeKind
	Name       string
	Signature  string // "name(N params)", empty where not applicable
	RangeStart int
	RangeEnd   int
	HasRange   bool
	Async      bool
	Generator  bool
}

// EdgeKind identifies the relationship an Edge represents.
type EdgeKind string

// EdgeCalls is the only edge kind this extractor currently emits.
const EdgeCalls EdgeKind = "calls"

// Edge is one directed relationship between two Nodes, by ID.
type Edge struct {
	ID       string
	SourceID string
	TargetID string
	Kind     EdgeKind
}

// Extraction is one file's complete graph output.
type Extraction struct {
	Nodes []Node
	Edges []Edge
}
