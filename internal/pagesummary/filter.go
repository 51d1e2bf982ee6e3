package pagesummary

import "strings"

// BlankFilter decides whether an image should be dropped based on the model's
// own description of it.
type BlankFilter interface {
	IsBlank(description string) bool
}

// PhraseFilter rejects descriptions containing any of its phrases, compared
// case-insensitively. It is a wording heuristic rather than a pixel check: a
// model that words a black image differently slips through, and an honest
// description that happens to mention "solid black" text is dropped.
type PhraseFilter struct {
	phrases []string
}

// DefaultBlankPhrases are phrases vision models use for empty or solid-color images.
//
//nolint:gochecknoglobals // Immutable phrase list.
var DefaultBlankPhrases = []string{
	"completely black",
	"filled black rectangle",
	"solid black",
	"uniformly dark",
	"entirely black",
	"pure black",
	"devoid of",
	"no discernible",
	"uniform expanse of darkness",
	"uniformly black",
	"solid, uniform expanse",
}

func NewPhraseFilter(phrases ...string) *PhraseFilter {
	if len(phrases) == 0 {
		phrases = DefaultBlankPhrases
	}

	normalized := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			normalized = append(normalized, p)
		}
	}

	return &PhraseFilter{phrases: normalized}
}

func (f *PhraseFilter) IsBlank(description string) bool {
	lower := strings.ToLower(strings.TrimSpace(description))

	for _, phrase := range f.phrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}

	return false
}

// FilterFunc adapts a plain function to BlankFilter.
type FilterFunc func(description string) bool

func (f FilterFunc) IsBlank(description string) bool {
	return f(description)
}
