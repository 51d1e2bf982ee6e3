package report

import (
	"bytes"
	"fmt"
	"pdfdigest/internal/domain"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const (
	pageHeightMM = 297.0
	marginMM     = 20.0

	// Courier glyphs are 0.6 em wide, so 8 pt fits a full report line
	// between the margins.
	fontFamily        = "Courier"
	fontSizePt        = 8.0
	defaultLineHeight = 3.6
)

type pdfConfig struct {
	lineHeight float64
}

type PDFOption func(*pdfConfig)

// WithLineHeight sets the vertical advance per line in millimeters.
func WithLineHeight(mm float64) PDFOption {
	return func(c *pdfConfig) {
		if mm > 0 {
			c.lineHeight = mm
		}
	}
}

// RenderPDF draws doc on A4 pages. The header, metadata and table of contents
// come first, then every page section starts on a fresh page.
//
// Text is drawn with the core Helvetica font through a cp1252 translator, so
// characters outside that code page are lost in the PDF. The text report keeps
// them.
func RenderPDF(doc Document, opts ...PDFOption) ([]byte, error) {
	pdf, err := layoutPDF(doc, opts...)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err = pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: write pdf: %w", domain.ErrRender, err)
	}

	return buf.Bytes(), nil
}

type pdfWriter struct {
	pdf        *gofpdf.Fpdf
	translate  func(string) string
	lineHeight float64
	y          float64
}

func layoutPDF(doc Document, opts ...PDFOption) (*gofpdf.Fpdf, error) {
	cfg := pdfConfig{lineHeight: defaultLineHeight}
	for _, opt := range opts {
		opt(&cfg)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginMM, marginMM, marginMM)
	pdf.SetAutoPageBreak(false, marginMM)
	pdf.SetCreationDate(doc.Header.Generated)
	pdf.SetTitle(title+": "+doc.Header.SourceName, true)
	pdf.SetFont(fontFamily, "", fontSizePt)

	w := &pdfWriter{
		pdf:        pdf,
		translate:  pdf.UnicodeTranslatorFromDescriptor(""),
		lineHeight: cfg.lineHeight,
	}

	w.newPage()
	w.writeLines(doc.leadLines())

	for _, section := range doc.Sections {
		w.newPage()
		w.writeLines(section.lines())
	}

	w.writeLines(footerLines())

	if pdf.Err() {
		return nil, fmt.Errorf("%w: draw pdf: %w", domain.ErrRender, pdf.Error())
	}

	return pdf, nil
}

func (w *pdfWriter) newPage() {
	w.pdf.AddPage()
	w.y = marginMM + w.lineHeight
}

// writeLines draws lines top to bottom, moving to a new page whenever the
// cursor would cross the bottom margin. Embedded newlines start new lines and
// lines wider than the report are cut at the column limit.
func (w *pdfWriter) writeLines(lines []string) {
	for _, line := range lines {
		for _, row := range strings.Split(line, "\n") {
			for _, piece := range splitColumns(row, Width) {
				if w.y > pageHeightMM-marginMM {
					w.newPage()
				}

				if piece != "" {
					w.pdf.Text(marginMM, w.y, w.translate(piece))
				}

				w.y += w.lineHeight
			}
		}
	}
}

func splitColumns(s string, width int) []string {
	runes := []rune(strings.TrimRight(s, " "))
	if len(runes) <= width {
		return []string{string(runes)}
	}

	var parts []string
	for len(runes) > width {
		parts = append(parts, string(runes[:width]))
		runes = runes[width:]
	}

	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}

	return parts
}
