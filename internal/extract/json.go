package extract

import (
	"encoding/json"
	"fmt"
	"pdfdigest/internal/domain"
	"strings"
)

// JSONDocument is the body accepted by the JSON input: content to summarize
// plus optional descriptive metadata.
type JSONDocument struct {
	Content  string       `json:"content"`
	Metadata JSONMetadata `json:"metadata"`
}

type JSONMetadata struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Source string `json:"source"`
}

func ParseJSON(raw []byte) (JSONDocument, error) {
	var doc JSONDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return JSONDocument{}, fmt.Errorf("%w: decode json: %w", domain.ErrInvalidInput, err)
	}

	if strings.TrimSpace(doc.Content) == "" {
		return JSONDocument{}, fmt.Errorf("%w: content is empty", domain.ErrInvalidInput)
	}

	doc.Metadata.Title = strings.TrimSpace(doc.Metadata.Title)
	doc.Metadata.Author = strings.TrimSpace(doc.Metadata.Author)
	doc.Metadata.Source = strings.TrimSpace(doc.Metadata.Source)

	return doc, nil
}
