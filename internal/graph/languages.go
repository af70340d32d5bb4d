package graph

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// languageFor returns the tree-sitter grammar for path's extension. JSX/TSX
// files use the tsx grammar (a superset that also parses plain .ts/.js);
// everything else uses the plain typescript grammar. Unsupported
// extensions return ok=false.
func languageFor(path string) (*sitter.Language, bool) {
	switch strings.ToLower(extOf(path)) {
	case ".ts", ".js", ".mjs", ".cjs":
		return typescript.GetLanguage(), true
	case ".tsx", ".jsx":
		return tsx.GetLanguage(), true
	default:
		return nil, false
	}
}

func extOf(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return ""
	}
	return path[i:]
}
