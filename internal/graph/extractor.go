package graph

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// Extract parses source as path's language and walks the tree for
// function-like declarations and call expressions. A parse failure, or an
// unsupported extension, yields a zero-value Extraction (no nodes, no
// edges) rather than an error — the graph is best-effort and must never
// abort an ingestion run over it.
func Extract(ctx context.Context, path string, source []byte) Extraction {
	lang, ok := languageFor(path)
	if !ok {
		return Extraction{}
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil || tree == nil {
		return Extraction{}
	}
	root := tree.RootNode()
	if root == nil {
		return Extraction{}
	}

	e := newExtractor(path, source)
	e.walk(root)
	return Extraction{Nodes: e.nodes, Edges: e.edges}
}

// extractor accumulates nodes and edges for one file. scopeStack tracks
// the enclosing function-like node id at each point in the walk; it is
// maintained by an explicit stack of work items in walk, not by Go call
// recursion, so scope push/pop stays correct regardless of tree depth.
type extractor struct {
	path        string
	source      []byte
	nodes       []Node
	edges       []Edge
	scopeStack  []string
	symbolIndex map[string]string
}

func newExtractor(path string, source []byte) *extractor {
	fileID := stableID("file", path)
	e := &extractor{
		path:        path,
		source:      source,
		symbolIndex: make(map[string]string),
	}
	e.nodes = append(e.nodes, Node{ID: fileID, Path: path, Kind: NodeFile, Name: path})
	e.scopeStack = append(e.scopeStack, fileID)
	return e
}

// walk is an iterative preorder/postorder traversal driven by an explicit
// stack, rather than recursive descent: each node produces an optional
// "exit" marker pushed ahead of its children, so popping a pushed scope
// happens exactly when that subtree is fully visited.
func (e *extractor) walk(root *sitter.Node) {
	type frame struct {
		node *sitter.Node
		exit bool
	}

	stack := []frame{{node: root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.exit {
			e.popScope()
			continue
		}

		n := f.node
		if e.visit(n) {
			stack = append(stack, frame{exit: true})
		}

		for i := int(n.ChildCount()) - 1; i >= 0; i-- {
			if child := n.Child(i); child != nil {
				stack = append(stack, frame{node: child})
			}
		}
	}
}

// visit processes one node and reports whether it pushed a new scope that
// the caller must later pop.
func (e *extractor) visit(n *sitter.Node) bool {
	switch n.Type() {
	case "function_declaration", "function":
		name := fieldText(n, "name", e.source)
		if name == "" {
			return false
		}
		e.pushFunction(name, NodeFunction, n)
		return true

	case "method_definition":
		name := fieldText(n, "name", e.source)
		if name == "" {
			return false
		}
		kind := NodeMethod
		if name == "constructor" {
			kind = NodeConstructor
		}
		e.pushFunction(name, kind, n)
		return true

	case "arrow_function":
		name := fmt.Sprintf("lambda_%d", len(e.nodes))
		e.pushFunction(name, NodeLambda, n)
		return true

	case "call_expression":
		e.recordCall(n)
		return false

	default:
		return false
	}
}

func (e *extractor) pushFunction(name string, kind NodeKind, n *sitter.Node) {
	start, end := int(n.StartByte()), int(n.EndByte())
	id := stableID(string(kind), e.path, name, fmt.Sprintf("%d", start))

	e.nodes = append(e.nodes, Node{
		ID:         id,
		Path:       e.path,
		Kind:       kind,
		Name:       name,
		Signature:  fmt.Sprintf("%s(%d params)", name, countParams(n)),
		RangeStart: start,
		RangeEnd:   end,
		HasRange:   true,
		Async:      hasChildOfType(n, "async"),
		Generator:  hasChildOfType(n, "*"),
	})
	if _, exists := e.symbolIndex[name]; !exists {
		e.symbolIndex[name] = id
	}
	e.scopeStack = append(e.scopeStack, id)
}

func (e *extractor) popScope() {
	if len(e.scopeStack) > 0 {
		e.scopeStack = e.scopeStack[:len(e.scopeStack)-1]
	}
}

func (e *extractor) currentScope() string {
	if len(e.scopeStack) == 0 {
		return ""
	}
	return e.scopeStack[len(e.scopeStack)-1]
}

func (e *extractor) ensureSymbol(name string) string {
	if id, ok := e.symbolIndex[name]; ok {
		return id
	}
	id := stableID("symbol", name)
	e.nodes = append(e.nodes, Node{ID: id, Kind: NodeSymbol, Name: name})
	e.symbolIndex[name] = id
	return id
}

// recordCall emits a calls edge from the current scope to the callee's
// symbol node, when the callee is a plain identifier or a member access
// (`a.b()`); any other callee shape (computed member access, an
// immediately-invoked expression, etc.) produces no edge.
func (e *extractor) recordCall(n *sitter.Node) {
	callee := n.ChildByFieldName("function")
	if callee == nil {
		return
	}

	var name string
	switch callee.Type() {
	case "identifier":
		name = nodeText(callee, e.source)
	case "member_expression":
		prop := callee.ChildByFieldName("property")
		if prop == nil {
			return
		}
		name = nodeText(prop, e.source)
	default:
		return
	}
	if name == "" {
		return
	}

	scopeID := e.currentScope()
	if scopeID == "" {
		return
	}
	targetID := e.ensureSymbol(name)
	edgeID := stableID("edge", "calls", scopeID, targetID, fmt.Sprintf("%d", n.StartByte()))
	e.edges = append(e.edges, Edge{ID: edgeID, SourceID: scopeID, TargetID: targetID, Kind: EdgeCalls})
}

func fieldText(n *sitter.Node, field string, source []byte) string {
	child := n.ChildByFieldName(field)
	if child == nil {
		return ""
	}
	return nodeText(child, source)
}

func nodeText(n *sitter.Node, source []byte) string {
	start, end := n.StartByte(), n.EndByte()
	if end > uint32(len(source)) || start > end {
		return ""
	}
	return string(source[start:end])
}

func countParams(n *sitter.Node) int {
	params := n.ChildByFieldName("parameters")
	if params == nil {
		// Arrow functions with a single bare identifier parameter, e.g.
		// `x => x * 2`, have no "parameters" node at all.
		if n.Type() == "arrow_function" {
			return 1
		}
		return 0
	}
	count := 0
	for i := 0; i < int(params.NamedChildCount()); i++ {
		if params.NamedChild(i) != nil {
			count++
		}
	}
	return count
}

func hasChildOfType(n *sitter.Node, typ string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if child := n.Child(i); child != nil && child.Type() == typ {
			return true
		}
	}
	return false
}

// stableID hashes the given parts, joined with a 0xff separator byte, so
// two runs over identical input always produce identical ids.
func stableID(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0xff})
	}
	return hex.EncodeToString(h.Sum(nil))
}
