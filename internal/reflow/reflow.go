package reflow

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Wrap fills text into lines of at most width runes, every line prefixed by
// indent spaces. Words are never split, so a word longer than the available
// width occupies a line of its own. Whitespace between words on the same line
// is kept as that many spaces; whitespace at a line break is dropped.
func Wrap(text string, width int, indent int) string {
	words := splitWords(text)
	if len(words) == 0 {
		return ""
	}

	indent = max(indent, 0)
	prefix := strings.Repeat(" ", indent)

	var b strings.Builder
	b.Grow(len(text) + len(text)/max(width, 1)*(indent+1))

	lineLen := 0

	for _, w := range words {
		wordLen := utf8.RuneCountInString(w.text)

		switch {
		case lineLen == 0:
			b.WriteString(prefix)
			lineLen = indent
		case lineLen+w.gap+wordLen > width:
			b.WriteByte('\n')
			b.WriteString(prefix)
			lineLen = indent
		default:
			b.WriteString(strings.Repeat(" ", w.gap))
			lineLen += w.gap
		}

		b.WriteString(w.text)
		lineLen += wordLen
	}

	return b.String()
}

type word struct {
	text string
	// gap is the number of whitespace runes before the word.
	gap int
}

func splitWords(text string) []word {
	var words []word

	start, gap, wordGap := -1, 0, 0

	for i, r := range text {
		if !unicode.IsSpace(r) {
			if start < 0 {
				start, wordGap, gap = i, gap, 0
			}
			continue
		}

		if start >= 0 {
			words = append(words, word{text: text[start:i], gap: wordGap})
			start = -1
		}
		gap++
	}

	if start >= 0 {
		words = append(words, word{text: text[start:], gap: wordGap})
	}

	return words
}

// WrapParagraphs treats every input line as a paragraph, drops the blank ones,
// wraps the rest independently and separates them with an empty line.
func WrapParagraphs(text string, width int, indent int) string {
	var paragraphs []string

	for _, line := range strings.Split(text, "\n") {
		if wrapped := Wrap(line, width, indent); wrapped != "" {
			paragraphs = append(paragraphs, wrapped)
		}
	}

	return strings.Join(paragraphs, "\n\n")
}
