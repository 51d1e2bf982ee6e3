package summarizer

import (
	"context"
)

// Input describes the payload for a text summary request.
type Input struct {
	// Text contains one chunk of the original plain text.
	Text string
	// SourceName is optional metadata that helps the model reference the origin.
	SourceName string
}

// ImageInput describes the payload for an image description request.
type ImageInput struct {
	Data []byte
	// MIMEType is sniffed from Data when empty.
	MIMEType string
}

// Summarizer produces a summary for a chunk of text and a description for an image.
type Summarizer interface {
	Summarize(ctx context.Context, input Input) (string, error)
	Describe(ctx context.Context, input ImageInput) (string, error)
}
