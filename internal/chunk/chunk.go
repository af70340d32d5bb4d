// Package chunk splits file content into overlapping fragments for
// embedding and storage, sized in approximate tokens (4 characters per
// token) rather than by syntax.
package chunk

import (
	"sort"
	"strings"
)

// minChunkChars is the floor on the character window regardless of how
// small chunk_size_tokens is configured.
const minChunkChars = 256

// charsPerToken approximates one token as 4 characters.
const charsPerToken = 4

// minBreakLookahead is how far past the window start a newline must lie
// before it's accepted as a break point.
const minBreakLookahead = 200

// Fragment is one emitted slice of the input content.
type Fragment struct {
	Content   string
	ByteStart int
	ByteEnd   int
	LineStart int // 1-based, inclusive
	LineEnd   int // 1-based, inclusive
}

// Options configures Split.
type Options struct {
	ChunkSizeTokens    int
	ChunkOverlapTokens int
}

// Split slides a character window over content's trimmed text, snapping
// window ends to nearby newlines where possible, and returns one or more
// Fragments. Fragments are stable for identical inputs: the same content
// and Options always produce the same output.
func Split(content string, opts Options) []Fragment {
	trimmed := strings.TrimSpace(content)

	windowChars := opts.ChunkSizeTokens * charsPerToken
	if windowChars < minChunkChars {
		windowChars = minChunkChars
	}
	overlapChars := opts.ChunkOverlapTokens * charsPerToken
	if overlapChars > windowChars {
		overlapChars = windowChars
	}

	idx := buildIndex(trimmed)

	var fragments []Fragment
	start := 0
	for start < idx.totalChars {
		end := start + windowChars
		if end > idx.totalChars {
			end = idx.totalChars
		}

		if end < idx.totalChars {
			if brk, ok := idx.breakAfter(end, start+minBreakLookahead); ok {
				end = brk + 1
			}
		}

		startByte := idx.charToByte(start)
		endByte := idx.charToByte(end)
		if endByte < startByte {
			endByte = startByte
		}

		snippet := strings.TrimRight(trimmed[startByte:endByte], " \t\r\n\v\f")
		if snippet == "" {
			if end <= start {
				break
			}
			start = end
			continue
		}

		snippetCharLen := countChars(snippet)
		effectiveEnd := start + snippetCharLen
		effectiveEndByte := idx.charToByte(effectiveEnd)

		fragments = append(fragments, Fragment{
			Content:   snippet,
			ByteStart: startByte,
			ByteEnd:   effectiveEndByte,
			LineStart: idx.lineForChar(start),
			LineEnd:   idx.lineForChar(effectiveEnd - 1),
		})

		if effectiveEnd >= idx.totalChars {
			break
		}

		overlapStart := effectiveEnd
		if overlapChars > 0 {
			overlapStart = effectiveEnd - overlapChars
		}
		if overlapStart > start {
			start = overlapStart
		} else {
			start = effectiveEnd
		}
	}

	if len(fragments) == 0 {
		return []Fragment{fallbackFragment(trimmed)}
	}
	return fragments
}

func fallbackFragment(trimmed string) Fragment {
	lineCount := strings.Count(trimmed, "\n") + 1
	return Fragment{
		Content:   trimmed,
		ByteStart: 0,
		ByteEnd:   len(trimmed),
		LineStart: 1,
		LineEnd:   lineCount,
	}
}

func countChars(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}

// charIndex precomputes, for a string, the byte offset of each character
// and the char offsets of newlines and line starts, so offset conversions
// and line-number lookups during Split are O(log n) instead of O(n).
type charIndex struct {
	charByteOffsets []int // charByteOffsets[i] = byte offset of i-th char
	newlineChars    []int // char offsets of '\n' runes, ascending
	lineStartChars  []int // char offset where each line begins, ascending
	totalChars      int
	totalBytes      int
}

func buildIndex(s string) *charIndex {
	idx := &charIndex{lineStartChars: []int{0}, totalBytes: len(s)}
	charN := 0
	for byteOffset, r := range s {
		idx.charByteOffsets = append(idx.charByteOffsets, byteOffset)
		if r == '\n' {
			idx.newlineChars = append(idx.newlineChars, charN)
			idx.lineStartChars = append(idx.lineStartChars, charN+1)
		}
		charN++
	}
	idx.totalChars = charN
	return idx
}

func (idx *charIndex) charToByte(charOffset int) int {
	if charOffset >= len(idx.charByteOffsets) {
		return idx.totalBytes
	}
	if charOffset < 0 {
		return 0
	}
	return idx.charByteOffsets[charOffset]
}

// breakAfter returns the rightmost newline char offset that is < end and
// >= minBreak, via binary search over the ascending newline index.
func (idx *charIndex) breakAfter(end, minBreak int) (int, bool) {
	lo, hi := 0, len(idx.newlineChars)-1
	candidate := -1
	for lo <= hi {
		mid := (lo + hi) / 2
		if idx.newlineChars[mid] < end {
			candidate = idx.newlineChars[mid]
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	if candidate >= 0 && candidate >= minBreak {
		return candidate, true
	}
	return 0, false
}

// lineForChar returns the 1-based line number containing char offset
// target, via binary search over ascending line-start offsets.
func (idx *charIndex) lineForChar(target int) int {
	starts := idx.lineStartChars
	i := sort.Search(len(starts), func(i int) bool { return starts[i] > target })
	return i // i is the count of line starts <= target, i.e. the 1-based line number
}
