package markdown

import "strings"

// Taken from https://core.telegram.org/bots/api#markdownv2-style.
const (
	mdV2SpecialChars = `\._[](){}#|!+-=*~>` + "`"
	codeSpecialChars = `\` + "`"
)

//nolint:gochecknoglobals // Lookup tables meant to be immutable.
var (
	mdV2Lookup = lookupTable(mdV2SpecialChars)
	codeLookup = lookupTable(codeSpecialChars)
)

// EscapeV2 escapes plain text for a MarkdownV2 message.
func EscapeV2(input string) string {
	return escape(input, &mdV2Lookup)
}

// EscapeCode escapes text placed inside a pre or code entity.
func EscapeCode(input string) string {
	return escape(input, &codeLookup)
}

// Truncate cuts s to at most limit runes, marking the cut with an ellipsis.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}

	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	if limit == 1 {
		return "…"
	}

	return strings.TrimRight(string(runes[:limit-1]), " \n") + "…"
}

func escape(input string, lookup *[256]bool) string {
	charsToEscape := 0

	for i := range len(input) {
		if lookup[input[i]] {
			charsToEscape++
		}
	}
	if charsToEscape == 0 {
		return input
	}

	var b strings.Builder
	b.Grow(len(input) + charsToEscape)

	for i := range len(input) {
		c := input[i]
		if lookup[c] {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}

	return b.String()
}

func lookupTable(chars string) [256]bool {
	var m [256]bool
	for i := range len(chars) {
		m[chars[i]] = true
	}
	return m
}
