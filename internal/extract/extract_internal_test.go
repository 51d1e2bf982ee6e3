package extract

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"pdfdigest/internal/domain"
	"strings"
	"sync"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/image/tiff"
)

type stubRasterizer struct {
	mu    sync.Mutex
	pages []int
	err   error
}

func (r *stubRasterizer) Rasterize(_ context.Context, pdfPath string, pageNo int) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if pdfPath == "" {
		return nil, errors.New("empty path")
	}

	r.pages = append(r.pages, pageNo)
	if r.err != nil {
		return nil, r.err
	}

	return []byte("raster"), nil
}

type stubImages struct {
	images map[int][]domain.Image
	err    error
}

func (s stubImages) Images(context.Context, []byte) (map[int][]domain.Image, error) {
	return s.images, s.err
}

func samplePDF(t *testing.T) []byte {
	t.Helper()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(false)
	pdf.SetFont("Helvetica", "", 12)

	pdf.AddPage()
	pdf.Text(20, 30, "Quarterly revenue grew strongly across every region this year")

	pdf.AddPage()

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("write sample pdf: %v", err)
	}

	return buf.Bytes()
}

func TestExtractRejectsNonPDF(t *testing.T) {
	e := NewPDFExtractor(slog.Default())

	if _, err := e.Extract(context.Background(), []byte("plain text")); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestExtractPagesWithOCRFallback(t *testing.T) {
	rasterizer := &stubRasterizer{}
	embedded := domain.Image{Data: []byte("embedded"), Meta: domain.ImageMeta{Width: 10, Height: 10}}

	e := NewPDFExtractor(slog.Default(),
		WithRasterizer(rasterizer),
		WithImageSource(stubImages{images: map[int][]domain.Image{2: {embedded}}}))

	recs, err := e.Extract(context.Background(), samplePDF(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(recs) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(recs))
	}

	if recs[0].PageNo != 1 || !strings.Contains(recs[0].Text, "Quarterly") {
		t.Fatalf("unexpected first page: %+v", recs[0])
	}

	if recs[0].Scanned || len(recs[0].Images) != 0 {
		t.Fatalf("expected text page to skip rasterization: %+v", recs[0])
	}

	second := recs[1]
	if !second.Scanned || len(second.Images) != 2 {
		t.Fatalf("expected raster and embedded image on page 2: %+v", second)
	}

	if string(second.Images[0].Data) != "raster" || string(second.Images[1].Data) != "embedded" {
		t.Fatalf("expected raster to come first")
	}

	if len(rasterizer.pages) != 1 || rasterizer.pages[0] != 2 {
		t.Fatalf("unexpected rasterized pages: %v", rasterizer.pages)
	}
}

func TestExtractContinuesWhenRasterizerFails(t *testing.T) {
	rasterizer := &stubRasterizer{err: errors.New("pdftoppm missing")}

	e := NewPDFExtractor(slog.Default(),
		WithRasterizer(rasterizer),
		WithImageSource(stubImages{err: errors.New("broken xref")}))

	recs, err := e.Extract(context.Background(), samplePDF(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if recs[1].Scanned || len(recs[1].Images) != 0 {
		t.Fatalf("expected page without raster: %+v", recs[1])
	}
}

func TestExtractWithoutOCR(t *testing.T) {
	rasterizer := &stubRasterizer{}

	e := NewPDFExtractor(slog.Default(),
		WithOCR(false),
		WithRasterizer(rasterizer),
		WithImageSource(stubImages{}))

	if _, err := e.Extract(context.Background(), samplePDF(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(rasterizer.pages) != 0 {
		t.Fatalf("expected no rasterization, got %v", rasterizer.pages)
	}
}

func TestVisionPayloadConvertsTIFF(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})

	var buf bytes.Buffer
	if err := tiff.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode tiff: %v", err)
	}

	payload, ok := visionPayload(buf.Bytes())
	if !ok {
		t.Fatalf("expected tiff to be converted")
	}

	if got := http.DetectContentType(payload); got != "image/png" {
		t.Fatalf("expected png payload, got %s", got)
	}

	if _, ok = visionPayload([]byte("garbage")); ok {
		t.Fatalf("expected garbage to be rejected")
	}
}

func TestFormatAndModeNames(t *testing.T) {
	if formatName("jpg") != "JPEG" || formatName("png") != "PNG" || formatName("") != "" {
		t.Fatalf("unexpected format names")
	}

	if modeName("DeviceRGB") != "RGB" || modeName("DeviceGray") != "L" || modeName("ICCBased") != "" {
		t.Fatalf("unexpected mode names")
	}
}

func TestFindPDFLinks(t *testing.T) {
	text := "read https://example.com/docs/Report.PDF and https://example.com/docs/Report.PDF, " +
		"skip http://example.com/a.pdf and https://example.com/page"

	links, err := FindPDFLinks(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(links) != 1 || links[0] != "https://example.com/docs/Report.PDF" {
		t.Fatalf("unexpected links: %v", links)
	}
}

func TestFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/doc.pdf":
			_, _ = w.Write([]byte("%PDF-1.4 small"))
		case "/big.pdf":
			_, _ = w.Write(bytes.Repeat([]byte("x"), 64))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewFetcher(slog.Default())
	f.client = srv.Client()
	f.maxBytes = 32

	d, err := f.Fetch(context.Background(), srv.URL+"/doc.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if d.Name != "doc.pdf" || string(d.Data) != "%PDF-1.4 small" {
		t.Fatalf("unexpected download: %+v", d)
	}

	if _, err = f.Fetch(context.Background(), srv.URL+"/big.pdf"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected size limit error, got %v", err)
	}

	downloads, err := f.FetchAll(context.Background(), []string{srv.URL + "/missing.pdf", srv.URL + "/doc.pdf"})
	if err == nil {
		t.Fatalf("expected error for missing file")
	}

	if len(downloads) != 1 {
		t.Fatalf("expected successful download to be kept, got %d", len(downloads))
	}
}

func TestHTML(t *testing.T) {
	page := `<html><head><title>Fallback</title><meta property="og:title" content=" Article "></head>
<body><script>var x = 1;</script><h1>Heading</h1><p>First   paragraph
with a <b>bold</b> word.</p><ul><li>One</li><li>Two</li></ul><style>p{}</style></body></html>`

	doc, err := HTML(strings.NewReader(page))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Title != "Article" {
		t.Fatalf("unexpected title: %q", doc.Title)
	}

	want := "Heading\nFirst paragraph with a bold word.\nOne\nTwo"
	if doc.Text != want {
		t.Fatalf("unexpected text: %q", doc.Text)
	}
}

func TestParseJSON(t *testing.T) {
	doc, err := ParseJSON([]byte(`{"content": "Hello world.", "metadata": {"title": " T ", "author": "A"}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Content != "Hello world." || doc.Metadata.Title != "T" || doc.Metadata.Author != "A" {
		t.Fatalf("unexpected document: %+v", doc)
	}

	for _, raw := range []string{`{"content": "  "}`, `{}`, `not json`} {
		if _, err = ParseJSON([]byte(raw)); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("expected invalid input for %s, got %v", raw, err)
		}
	}
}
