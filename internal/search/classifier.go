package search

import "strings"

// commentPrefixes recognizes a line as a comment across the language
// families this index supports.
var commentPrefixes = []string{"//", "#", "*", "/*", "--"}

// functionMarkers recognizes a chunk as primarily a function/method
// definition by its most distinctive keyword.
var functionMarkers = []string{"class ", "def ", "fn ", "function ", "=>"}

// Classify assigns a heuristic content type to chunk text: comment when
// every non-blank line looks like a comment, function when a definition
// keyword appears, otherwise plain code.
func Classify(content string) Classification {
	lines := strings.Split(content, "\n")
	nonBlank := 0
	allComments := true
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		nonBlank++
		if !isCommentLine(trimmed) {
			allComments = false
		}
	}
	if nonBlank > 0 && allComments {
		return ClassComment
	}
	for _, marker := range functionMarkers {
		if strings.Contains(content, marker) {
			return ClassFunction
		}
	}
	return ClassCode
}

func isCommentLine(line string) bool {
	for _, prefix := range commentPrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}
