package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"pdfdigest/internal/domain"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/unicode/norm"
)

const (
	DefaultMinTextChars = 30

	pdfMagic = "%PDF-"
)

type PDFExtractor struct {
	rasterizer   Rasterizer
	images       ImageSource
	minTextChars int
	ocr          bool
	log          *slog.Logger
}

type Option func(*PDFExtractor)

// WithOCR sets whether pages with little text get a rendered raster of the
// whole page as their first image.
func WithOCR(enabled bool) Option {
	return func(e *PDFExtractor) {
		e.ocr = enabled
	}
}

// WithMinTextChars sets the text length below which a page counts as scanned.
func WithMinTextChars(n int) Option {
	return func(e *PDFExtractor) {
		if n > 0 {
			e.minTextChars = n
		}
	}
}

func WithRasterizer(r Rasterizer) Option {
	return func(e *PDFExtractor) {
		if r != nil {
			e.rasterizer = r
		}
	}
}

func WithImageSource(s ImageSource) Option {
	return func(e *PDFExtractor) {
		if s != nil {
			e.images = s
		}
	}
}

func NewPDFExtractor(log *slog.Logger, opts ...Option) *PDFExtractor {
	e := &PDFExtractor{
		rasterizer:   NewPDFToPPM(""),
		images:       NewEmbeddedImages(log),
		minTextChars: DefaultMinTextChars,
		ocr:          true,
		log:          log,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Extract reads every page of a PDF into a PageRecord: normalized text, the
// embedded images and, for scanned pages, a raster of the page itself.
func (e *PDFExtractor) Extract(ctx context.Context, data []byte) ([]domain.PageRecord, error) {
	if !looksLikePDF(data) {
		return nil, fmt.Errorf("%w: not a PDF document", domain.ErrInvalidInput)
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: open pdf: %w", domain.ErrInvalidInput, err)
	}

	pageCount := r.NumPage()
	if pageCount == 0 {
		return nil, fmt.Errorf("%w: pdf has no pages", domain.ErrInvalidInput)
	}

	images, err := e.images.Images(ctx, data)
	if err != nil {
		e.log.WarnContext(ctx, "Failed to extract embedded images, continuing without them",
			"error", err)

		images = nil
	}

	raster := &lazyRaster{rasterizer: e.rasterizer, data: data}
	defer raster.close()

	recs := make([]domain.PageRecord, 0, pageCount)

	for pageNo := 1; pageNo <= pageCount; pageNo++ {
		if err = ctx.Err(); err != nil {
			return nil, fmt.Errorf("extract pages: %w", err)
		}

		text, textErr := pageText(r.Page(pageNo))
		if textErr != nil {
			e.log.WarnContext(ctx, "Failed to extract page text",
				"pageNo", pageNo,
				"error", textErr)
		}

		rec := domain.PageRecord{
			PageNo: pageNo,
			Text:   text,
			Images: images[pageNo],
		}

		if e.ocr && utf8.RuneCountInString(text) < e.minTextChars {
			e.addPageRaster(ctx, raster, &rec)
		}

		recs = append(recs, rec)
	}

	e.log.DebugContext(ctx, "PDF is extracted",
		"pages", pageCount,
		"pagesWithImages", len(images))

	return recs, nil
}

func (e *PDFExtractor) addPageRaster(ctx context.Context, raster *lazyRaster, rec *domain.PageRecord) {
	pageImage, err := raster.page(ctx, rec.PageNo)
	if err != nil {
		e.log.WarnContext(ctx, "Failed to rasterize scanned page",
			"pageNo", rec.PageNo,
			"error", err)

		return
	}

	rec.Images = append([]domain.Image{{Data: pageImage, Meta: domain.ImageMeta{Format: "PNG"}}}, rec.Images...)
	rec.Scanned = true
}

func pageText(page pdf.Page) (text string, err error) {
	if page.V.IsNull() {
		return "", nil
	}

	// The reader panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("read page content: %v", r)
		}
	}()

	raw, err := page.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("get plain text: %w", err)
	}

	return norm.NFC.String(strings.TrimSpace(raw)), nil
}

func looksLikePDF(data []byte) bool {
	head := data[:min(len(data), 1024)]

	return bytes.Contains(head, []byte(pdfMagic))
}

// lazyRaster writes the document to disk only once a page actually needs to
// be rendered.
type lazyRaster struct {
	rasterizer Rasterizer
	data       []byte
	path       string
	writeErr   error
}

func (l *lazyRaster) page(ctx context.Context, pageNo int) ([]byte, error) {
	if l.path == "" && l.writeErr == nil {
		l.path, l.writeErr = writeTemp(l.data)
	}

	if l.writeErr != nil {
		return nil, l.writeErr
	}

	return l.rasterizer.Rasterize(ctx, l.path, pageNo)
}

func (l *lazyRaster) close() {
	if l.path != "" {
		_ = os.Remove(l.path)
	}
}

func writeTemp(data []byte) (string, error) {
	f, err := os.CreateTemp("", "pdfdigest-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	_, writeErr := f.Write(data)
	closeErr := f.Close()

	if err = errors.Join(writeErr, closeErr); err != nil {
		_ = os.Remove(f.Name())

		return "", fmt.Errorf("write temp file: %w", err)
	}

	return f.Name(), nil
}
