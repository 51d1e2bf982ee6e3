package chunker

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxChars fits comfortably in the context window of current models.
const DefaultMaxChars = 35000

// Chunk splits text into pieces no longer than maxChars bytes. Each cut prefers
// the last newline or period of the window when it lies past the window's
// midpoint, so chunks tend to end on line or sentence boundaries.
func Chunk(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	if len(text) <= maxChars {
		return []string{text}
	}

	var chunks []string

	for start := 0; start < len(text); {
		end := min(start+maxChars, len(text))

		window := text[start:end]
		lastBreak := max(strings.LastIndexByte(window, '\n'), strings.LastIndexByte(window, '.'))

		if lastBreak > maxChars/2 {
			end = start + lastBreak + 1
		} else {
			end = alignToRune(text, start, end)
		}

		chunks = append(chunks, text[start:end])
		start = end
	}

	return chunks
}

// alignToRune moves a hard cut back so it never lands inside a UTF-8 sequence.
func alignToRune(text string, start, end int) int {
	if end >= len(text) {
		return end
	}

	for i := end; i > start; i-- {
		if utf8.RuneStart(text[i]) {
			return i
		}
	}

	return end
}
