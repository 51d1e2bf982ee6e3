package pagesummary

import (
	"context"
	"fmt"
	"log/slog"
	"pdfdigest/internal/chunker"
	"pdfdigest/internal/domain"
	"pdfdigest/internal/summarizer"
	"strings"

	"golang.org/x/sync/errgroup"
)

const (
	shortTextMaxChars  = 100
	shortImageMaxChars = 50
	shortImageSep      = " | Image: "
	shortImagePrefix   = "Image: "

	chunkSummarySep = "\n\n"
)

// Builder turns extracted pages into page summaries using a remote summarizer.
type Builder struct {
	summarizer  summarizer.Summarizer
	filter      BlankFilter
	maxChars    int
	parallelism int
	sourceName  string
	log         *slog.Logger
}

type Option func(*Builder)

// WithFilter replaces the default phrase-based blank image filter.
func WithFilter(f BlankFilter) Option {
	return func(b *Builder) {
		if f != nil {
			b.filter = f
		}
	}
}

// WithMaxChars sets the chunk size handed to the summarizer.
func WithMaxChars(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.maxChars = n
		}
	}
}

// WithParallelism allows up to n pages to be summarized at once.
func WithParallelism(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.parallelism = n
		}
	}
}

// WithSourceName passes the document name to the summarizer as context.
func WithSourceName(name string) Option {
	return func(b *Builder) {
		b.sourceName = strings.TrimSpace(name)
	}
}

func New(s summarizer.Summarizer, log *slog.Logger, opts ...Option) *Builder {
	b := &Builder{
		summarizer:  s,
		filter:      NewPhraseFilter(),
		maxChars:    chunker.DefaultMaxChars,
		parallelism: 1,
		log:         log,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Build summarizes one page. Any remote failure aborts the page.
func (b *Builder) Build(
	ctx context.Context,
	rec domain.PageRecord,
	fallbackTitle string,
) (domain.PageSummary, error) {
	textSummary, err := b.summarizeText(ctx, rec.Text)
	if err != nil {
		return domain.PageSummary{}, err
	}

	imageSummaries, err := b.describeImages(ctx, rec)
	if err != nil {
		return domain.PageSummary{}, err
	}

	b.log.DebugContext(ctx, "Page is summarized",
		"pageNo", rec.PageNo,
		"textLen", len(rec.Text),
		"summaryLen", len(textSummary),
		"images", len(rec.Images),
		"keptImages", len(imageSummaries),
		"scanned", rec.Scanned)

	return domain.PageSummary{
		PageNo:         rec.PageNo,
		TextSummary:    textSummary,
		ImageSummaries: imageSummaries,
		CombinedShort:  CombinedShort(textSummary, imageSummaries, fallbackTitle),
	}, nil
}

// BuildAll summarizes pages keeping their order. The first failure cancels
// the remaining work and no partial result is returned.
func (b *Builder) BuildAll(
	ctx context.Context,
	recs []domain.PageRecord,
	fallbackTitle string,
) ([]domain.PageSummary, error) {
	summaries := make([]domain.PageSummary, len(recs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.parallelism)

	for i, rec := range recs {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}

			summary, err := b.Build(gctx, rec, fallbackTitle)
			if err != nil {
				return fmt.Errorf("build page %d: %w", rec.PageNo, err)
			}

			summaries[i] = summary

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("build pages: %w", err)
	}

	return summaries, nil
}

func (b *Builder) summarizeText(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	chunks := chunker.Chunk(text, b.maxChars)
	chunkSummaries := make([]string, 0, len(chunks))

	for i, chunk := range chunks {
		// Long whitespace runs produce blank chunks.
		if strings.TrimSpace(chunk) == "" {
			continue
		}

		summary, err := b.summarizer.Summarize(ctx, summarizer.Input{
			Text:       chunk,
			SourceName: b.sourceName,
		})
		if err != nil {
			return "", fmt.Errorf("summarize chunk %d of %d: %w", i+1, len(chunks), err)
		}

		chunkSummaries = append(chunkSummaries, strings.TrimSpace(summary))
	}

	return strings.Join(chunkSummaries, chunkSummarySep), nil
}

func (b *Builder) describeImages(
	ctx context.Context,
	rec domain.PageRecord,
) ([]domain.ImageSummary, error) {
	var imageSummaries []domain.ImageSummary

	for i, img := range rec.Images {
		meta := ResolveImageMeta(img.Data, img.Meta)

		desc, err := b.summarizer.Describe(ctx, summarizer.ImageInput{Data: img.Data})
		if err != nil {
			return nil, fmt.Errorf("describe image %d: %w", i+1, err)
		}

		desc = strings.TrimSpace(desc)
		if b.filter.IsBlank(desc) {
			b.log.DebugContext(ctx, "Blank image is skipped",
				"pageNo", rec.PageNo,
				"imageIndex", i,
				"width", meta.Width,
				"height", meta.Height)

			continue
		}

		imageSummaries = append(imageSummaries, domain.ImageSummary{
			Meta:        meta,
			Description: desc,
		})
	}

	return imageSummaries, nil
}

// CombinedShort builds the one-line table of contents entry for a page.
func CombinedShort(
	textSummary string,
	imageSummaries []domain.ImageSummary,
	fallbackTitle string,
) string {
	short := truncateRunes(firstLine(textSummary), shortTextMaxChars)
	if short == "" {
		short = truncateRunes(firstLine(strings.TrimSpace(fallbackTitle)), shortTextMaxChars)
	}

	if len(imageSummaries) == 0 {
		return short
	}

	imageLine := truncateRunes(firstLine(imageSummaries[0].Description), shortImageMaxChars)
	if imageLine == "" {
		return short
	}

	if short == "" {
		return shortImagePrefix + imageLine
	}

	return short + shortImageSep + imageLine
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")

	return line
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}

	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:n])
}
