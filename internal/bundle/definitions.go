package bundle

import (
	"encoding/json"
	"strings"
)

// visibilityKeywords are matched against the line immediately preceding a
// node's byte range, in priority order.
var visibilityKeywords = []string{"private", "protected", "public", "export"}

// deriveVisibility implements spec.md §4.9 step 3's visibility rule:
// inspect the line immediately preceding the node for a visibility
// keyword; fall back to "public" for class methods with a className in
// their metadata, otherwise "internal".
func deriveVisibility(content string, rangeStart *int, metadata []byte) string {
	if content != "" && rangeStart != nil {
		if line := linePreceding(content, *rangeStart); line != "" {
			lower := strings.ToLower(line)
			for _, kw := range visibilityKeywords {
				if strings.Contains(lower, kw) {
					return kw
				}
			}
		}
	}
	if hasClassName(metadata) {
		return "public"
	}
	return "internal"
}

func hasClassName(metadata []byte) bool {
	if len(metadata) == 0 {
		return false
	}
	var m map[string]any
	if err := json.Unmarshal(metadata, &m); err != nil {
		return false
	}
	v, ok := m["className"]
	if !ok {
		return false
	}
	s, ok := v.(string)
	return ok && s != ""
}

// linePreceding returns the trimmed text of the line immediately before the
// line containing byte offset pos in content, or "" if there is none.
func linePreceding(content string, pos int) string {
	if pos < 0 || pos > len(content) {
		return ""
	}
	lineStart := strings.LastIndexByte(content[:pos], '\n')
	if lineStart < 0 {
		return "" // node starts on the first line; no preceding line
	}
	prevEnd := lineStart
	prevStart := strings.LastIndexByte(content[:prevEnd], '\n') + 1
	return strings.TrimSpace(content[prevStart:prevEnd])
}

// docCommentPrefixes recognizes a line as a single-line comment for the
// purposes of accumulating a preceding docstring.
var docCommentPrefixes = []string{"///", "//", "#"}

// deriveDocstring implements spec.md §4.9 step 3's docstring rule: scan the
// characters preceding the node for either a trailing /** ... */ block or a
// contiguous run of single-line comments terminated just before the node,
// stripping leading comment markers.
func deriveDocstring(content string, rangeStart *int) string {
	if content == "" || rangeStart == nil {
		return ""
	}
	pos := *rangeStart
	if pos < 0 || pos > len(content) {
		return ""
	}

	before := strings.TrimRight(content[:pos], " \t\r\n")
	if strings.HasSuffix(before, "*/") {
		open := strings.LastIndex(before, "/**")
		if open < 0 {
			open = strings.LastIndex(before, "/*")
		}
		if open >= 0 {
			block := before[open : len(before)-2]
			block = strings.TrimPrefix(block, "/**")
			block = strings.TrimPrefix(block, "/*")
			return cleanDocLines(block)
		}
	}

	lines := strings.Split(before, "\n")
	var collected []string
	for i := len(lines) - 1; i >= 0; i-- {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			if len(collected) > 0 {
				break
			}
			continue
		}
		if !startsWithAny(trimmed, docCommentPrefixes) {
			break
		}
		collected = append([]string{stripCommentMarker(trimmed)}, collected...)
	}
	return strings.TrimSpace(strings.Join(collected, "\n"))
}

func startsWithAny(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func stripCommentMarker(line string) string {
	for _, p := range docCommentPrefixes {
		if strings.HasPrefix(line, p) {
			return strings.TrimSpace(strings.TrimPrefix(line, p))
		}
	}
	return line
}

func cleanDocLines(block string) string {
	lines := strings.Split(block, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimSpace(l)
		l = strings.TrimPrefix(l, "*")
		out = append(out, strings.TrimSpace(l))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// countTODOs counts case-insensitive occurrences of TODO/FIXME within
// content[start:end].
func countTODOs(content string, start, end *int) int {
	if content == "" || start == nil || end == nil {
		return 0
	}
	s, e := *start, *end
	if s < 0 {
		s = 0
	}
	if e > len(content) {
		e = len(content)
	}
	if s >= e {
		return 0
	}
	region := strings.ToUpper(content[s:e])
	return strings.Count(region, "TODO") + strings.Count(region, "FIXME")
}
