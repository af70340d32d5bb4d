package bundle

import "github.com/codeindex-mcp/codeindex/internal/store"

const truncationSuffix = "… (truncated due to budget)"

// estimateTokens approximates token count as spec.md §4.3/§4.9 do
// throughout: ceil(len/4).
func estimateTokens(s string) int {
	if s == "" {
		return 0
	}
	return (len(s) + 3) / 4
}

// definitionTokenCost is the token contribution a definition makes against
// the snippet budget: its name, signature, and docstring.
func definitionTokenCost(d BundleDefinition) int {
	return estimateTokens(d.Name) + estimateTokens(d.Signature) + estimateTokens(d.Docstring)
}

// buildSnippets implements spec.md §4.9 step 6: load up to maxSnippets
// chunks in chunk_index order, then trim against tokenBudget after
// subtracting the definitions' token cost, truncating the first
// over-budget snippet when at least 100 tokens remain.
func buildSnippets(chunks []store.Chunk, definitions []BundleDefinition, maxSnippets, tokenBudget int) []BundleSnippet {
	if len(chunks) > maxSnippets {
		chunks = chunks[:maxSnippets]
	}

	budget := tokenBudget
	for _, d := range definitions {
		budget -= definitionTokenCost(d)
	}

	out := make([]BundleSnippet, 0, len(chunks))
	total := 0
	for _, c := range chunks {
		t := estimateTokens(c.Content)
		if total+t <= budget {
			out = append(out, BundleSnippet{
				ChunkID: c.ID, Content: c.Content,
				ByteStart: c.ByteStart, ByteEnd: c.ByteEnd,
				LineStart: c.LineStart, LineEnd: c.LineEnd,
			})
			total += t
			continue
		}

		remaining := budget - total
		if remaining >= 100 {
			maxChars := remaining*4 - len(truncationSuffix)
			if maxChars < 0 {
				maxChars = 0
			}
			if maxChars > len(c.Content) {
				maxChars = len(c.Content)
			}
			out = append(out, BundleSnippet{
				ChunkID: c.ID, Content: c.Content[:maxChars] + truncationSuffix,
				ByteStart: c.ByteStart, ByteEnd: c.ByteEnd,
				LineStart: c.LineStart, LineEnd: c.LineEnd,
				Truncated: true,
			})
		}
		break
	}
	return out
}
