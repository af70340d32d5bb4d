package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_UnsupportedExtensionYieldsEmptyExtraction(t *testing.T) {
	ext := Extract(context.Background(), "notes.txt", []byte("hello"))
	assert.Empty(t, ext.Nodes)
	assert.Empty(t, ext.Edges)
}

func TestExtract_EmitsFileNode(t *testing.T) {
	src := `function greet() { return 1; }`
	ext := Extract(context.Background(), "greet.ts", []byte(src))
	require.NotEmpty(t, ext.Nodes)
	assert.Equal(t, NodeFile, ext.Nodes[0].Kind)
	assert.Equal(t, "greet.ts", ext.Nodes[0].Path)
}

func TestExtract_FunctionDeclarationBecomesFunctionNode(t *testing.T) {
	src := `function add(a, b) { return a + b; }`
	ext := Extract(context.Background(), "math.ts", []byte(src))

	var found *Node
	for i := range ext.Nodes {
		if ext.Nodes[i].Kind == NodeFunction {
			found = &ext.Nodes[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, "add", found.Name)
	assert.Equal(t, "add(2 params)", found.Signature)
}

func TestExtract_CallInsideFunctionProducesCallsEdge(t *testing.T) {
	src := `
function outer() {
	helper();
}
`
	ext := Extract(context.Background(), "outer.ts", []byte(src))
	require.NotEmpty(t, ext.Edges)
	assert.Equal(t, EdgeCalls, ext.Edges[0].Kind)

	var symbolNode *Node
	for i := range ext.Nodes {
		if ext.Nodes[i].Kind == NodeSymbol && ext.Nodes[i].Name == "helper" {
			symbolNode = &ext.Nodes[i]
		}
	}
	require.NotNil(t, symbolNode)
	assert.Equal(t, symbolNode.ID, ext.Edges[0].TargetID)
}

func TestExtract_MemberCallUsesPropertyName(t *testing.T) {
	src := `
function outer() {
	console.log("hi");
}
`
	ext := Extract(context.Background(), "outer.ts", []byte(src))
	var symbolNode *Node
	for i := range ext.Nodes {
		if ext.Nodes[i].Kind == NodeSymbol {
			symbolNode = &ext.Nodes[i]
		}
	}
	require.NotNil(t, symbolNode)
	assert.Equal(t, "log", symbolNode.Name)
}

func TestExtract_ConstructorBecomesConstructorNode(t *testing.T) {
	src := `
class Widget {
	constructor(id) {
		this.id = id;
	}
}
`
	ext := Extract(context.Background(), "widget.ts", []byte(src))
	var found *Node
	for i := range ext.Nodes {
		if ext.Nodes[i].Kind == NodeConstructor {
			found = &ext.Nodes[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, "constructor", found.Name)
}

func TestExtract_ArrowFunctionBecomesLambdaNode(t *testing.T) {
	src := `const double = (x) => x * 2;`
	ext := Extract(context.Background(), "arrow.ts", []byte(src))
	var found *Node
	for i := range ext.Nodes {
		if ext.Nodes[i].Kind == NodeLambda {
			found = &ext.Nodes[i]
		}
	}
	require.NotNil(t, found)
}

func TestExtract_NodeIDsAreStableAcrossRuns(t *testing.T) {
	src := `function add(a, b) { return a + b; }`
	first := Extract(context.Background(), "math.ts", []byte(src))
	second := Extract(context.Background(), "math.ts", []byte(src))

	require.Equal(t, len(first.Nodes), len(second.Nodes))
	for i := range first.Nodes {
		assert.Equal(t, first.Nodes[i].ID, second.Nodes[i].ID)
	}
}

func TestExtract_TsxSourceParsesViaTsxGrammar(t *testing.T) {
	src := `
function Button() {
	return render();
}
`
	ext := Extract(context.Background(), "Button.tsx", []byte(src))
	assert.NotEmpty(t, ext.Nodes)
}
