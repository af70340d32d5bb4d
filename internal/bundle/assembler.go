// Package bundle assembles the context bundle: one file's metadata,
// definitions, related neighbors, and token-budgeted snippets, behind a
// single read-only database connection. See spec.md §4.9 for the
// nine-step contract this mirrors.
package bundle

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	codeerrors "github.com/codeindex-mcp/codeindex/internal/errors"
	"github.com/codeindex-mcp/codeindex/internal/globs"
	"github.com/codeindex-mcp/codeindex/internal/store"
)

const maxQuickLinks = 16

// Assemble builds one context bundle per Options.
func Assemble(ctx context.Context, opts Options) (*Bundle, error) {
	databaseName := opts.DatabaseName
	if databaseName == "" {
		databaseName = ".mcp-index.sqlite"
	}
	root, err := globs.ResolveRoot(opts.Root)
	if err != nil {
		return nil, err
	}
	path := filepath.ToSlash(opts.Path)
	dbPath := filepath.Join(root, databaseName)
	if !store.Exists(dbPath) {
		return nil, codeerrors.NotFound(path)
	}

	db, err := store.OpenReader(ctx, dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	// Step 1: file metadata.
	f, err := store.GetFile(ctx, db, path)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, codeerrors.NotFound(path)
	}

	b := &Bundle{Path: path}

	// Step 2: stored or disk content, best-effort.
	content := ""
	if f.Content != nil {
		content = *f.Content
		b.ContentAvailable = true
	} else if data, readErr := os.ReadFile(filepath.Join(root, filepath.FromSlash(path))); readErr == nil {
		content = string(data)
		b.ContentAvailable = true
	} else {
		b.Warnings = append(b.Warnings, "file content is unavailable")
	}

	// Step 3: definitions, sorted by range_start ascending (already the
	// order NodesForPath returns).
	nodes, err := store.NodesForPath(ctx, db, path)
	if err != nil {
		return nil, err
	}
	definitions := make([]BundleDefinition, 0, len(nodes))
	for _, n := range nodes {
		definitions = append(definitions, BundleDefinition{
			ID:         n.ID,
			Kind:       n.Kind,
			Name:       n.Name,
			Signature:  derefStr(n.Signature),
			RangeStart: n.RangeStart,
			RangeEnd:   n.RangeEnd,
			Visibility: deriveVisibility(content, n.RangeStart, n.Metadata),
			Docstring:  deriveDocstring(content, n.RangeStart),
			TODOCount:  countTODOs(content, n.RangeStart, n.RangeEnd),
		})
	}
	if len(definitions) == 0 {
		b.Warnings = append(b.Warnings, "no graph metadata exists for this file")
	}

	// Step 4: resolve focus definition.
	var focusIdx = -1
	if opts.Symbol != "" {
		want := strings.ToLower(opts.Symbol)
		for i, d := range definitions {
			if strings.ToLower(d.Name) != want {
				continue
			}
			if opts.SymbolKind != "" && !strings.EqualFold(d.Kind, opts.SymbolKind) {
				continue
			}
			focusIdx = i
			break
		}
	}
	if focusIdx >= 0 {
		definitions[focusIdx].IsFocus = true
		b.FocusDefinition = &definitions[focusIdx]
	}
	b.Definitions = definitions

	// Step 5: related neighbors, capped across all definitions.
	maxNeighbors := clamp(opts.MaxNeighbors, defaultMaxNeighbors, maxMaxNeighbors)
	var neighbors []BundleEdgeNeighbor
	for _, d := range definitions {
		if len(neighbors) >= maxNeighbors {
			break
		}
		edges, err := store.EdgesForNode(ctx, db, d.ID, maxNeighbors-len(neighbors))
		if err != nil {
			return nil, err
		}
		for _, de := range edges {
			neighborID := de.Edge.TargetID
			if de.Direction == store.DirectionIncoming {
				neighborID = de.Edge.SourceID
			}
			nn := NeighborNode{ID: neighborID}
			if node, err := store.NodeByID(ctx, db, neighborID); err == nil && node != nil {
				nn.Path = derefStr(node.Path)
				nn.Kind = node.Kind
				nn.Name = node.Name
			}
			neighbors = append(neighbors, BundleEdgeNeighbor{
				EdgeID: de.Edge.ID, Direction: de.Direction, EdgeType: de.Edge.Type,
				Definition: d.ID, Node: nn,
			})
			if len(neighbors) >= maxNeighbors {
				break
			}
		}
	}
	b.Neighbors = neighbors

	// Step 6: snippets trimmed to the token budget.
	maxSnippets := clamp(opts.MaxSnippets, defaultMaxSnippets, maxMaxSnippets)
	tokenBudget := opts.TokenBudget
	if tokenBudget <= 0 {
		tokenBudget = defaultTokenBudget
	}
	chunks, err := store.ChunksForPath(ctx, db, path, maxSnippets)
	if err != nil {
		return nil, err
	}
	b.Snippets = buildSnippets(chunks, definitions, maxSnippets, tokenBudget)

	// Step 7: most recent ingestion.
	ingestion, err := store.LatestIngestion(ctx, db)
	if err != nil {
		return nil, err
	}
	b.LatestIngestion = ingestion

	// Step 8: capped quick links.
	b.QuickLinks = buildQuickLinks(path, b.FocusDefinition, definitions, neighbors)

	// Bundle reads increment hits the same as search does (§3): the
	// definitions and chunks returned here count as read.
	if err := bumpReadHits(ctx, dbPath, definitions, b.Snippets); err != nil {
		return nil, err
	}

	return b, nil
}

// bumpReadHits increments the hits counters for the definitions and chunks
// a bundle call returns, over a short-lived writer connection: the bundle's
// own db handle above is opened read-only per §5.
func bumpReadHits(ctx context.Context, dbPath string, definitions []BundleDefinition, snippets []BundleSnippet) error {
	if len(definitions) == 0 && len(snippets) == 0 {
		return nil
	}
	writer, err := store.OpenWriter(ctx, dbPath)
	if err != nil {
		return err
	}
	defer writer.Close()

	if len(definitions) > 0 {
		nodeIDs := make([]string, len(definitions))
		for i, d := range definitions {
			nodeIDs[i] = d.ID
		}
		if err := store.IncrementNodeHits(ctx, writer, nodeIDs); err != nil {
			return err
		}
	}
	if len(snippets) > 0 {
		chunkIDs := make([]string, len(snippets))
		for i, s := range snippets {
			chunkIDs[i] = s.ChunkID
		}
		if err := store.IncrementChunkHits(ctx, writer, chunkIDs); err != nil {
			return err
		}
	}
	return nil
}

func buildQuickLinks(path string, focus *BundleDefinition, definitions []BundleDefinition, neighbors []BundleEdgeNeighbor) []ContextBundleQuickLink {
	links := make([]ContextBundleQuickLink, 0, maxQuickLinks)
	links = append(links, ContextBundleQuickLink{Label: path, Kind: "file", ID: path})

	if focus != nil {
		links = append(links, ContextBundleQuickLink{Label: focus.Name, Kind: "definition", ID: focus.ID})
	}
	for _, d := range definitions {
		if len(links) >= maxQuickLinks {
			return links
		}
		if focus != nil && d.ID == focus.ID {
			continue
		}
		links = append(links, ContextBundleQuickLink{Label: d.Name, Kind: "definition", ID: d.ID})
	}
	for _, n := range neighbors {
		if len(links) >= maxQuickLinks {
			return links
		}
		links = append(links, ContextBundleQuickLink{Label: n.Node.Name, Kind: "neighbor", ID: n.Node.ID})
	}
	return links
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
