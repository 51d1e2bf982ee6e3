package report

import (
	"fmt"
	"pdfdigest/internal/domain"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	Width = 100

	imageDescWidth  = 96
	imageDescIndent = 4

	tocMaxChars     = 85
	tocKeepChars    = 82
	tocEllipsis     = "..."
	generatedLayout = "2006-01-02 15:04 UTC"

	title       = "PDF SUMMARY REPORT"
	footerTitle = "END OF REPORT"
)

//nolint:gochecknoglobals // Fixed separators.
var (
	separator    = strings.Repeat("=", Width)
	subseparator = strings.Repeat("-", Width)
)

// Document is the renderer-neutral report tree. Both the text and the PDF
// renderers draw from it, so they always agree on content.
type Document struct {
	Header   Header
	Metadata []string
	TOC      []string
	Sections []Section
}

type Header struct {
	SourceName string
	Generated  time.Time
	PageCount  int
}

// Section is the detail block of one summarized page.
type Section struct {
	PageNo int
	Text   string
	Images []ImageBlock
}

type ImageBlock struct {
	Dimensions  string
	Format      string
	Mode        string
	Description string
}

// Build turns summaries into a document. Summaries are kept in the given
// order and never resequenced.
func Build(summaries []domain.PageSummary, header domain.ReportHeader) Document {
	doc := Document{
		Header: Header{
			SourceName: header.SourceName,
			Generated:  header.Generated.UTC(),
			PageCount:  len(summaries),
		},
		Metadata: metadataLines(header.Metadata),
		TOC:      make([]string, 0, len(summaries)),
		Sections: make([]Section, 0, len(summaries)),
	}

	for _, s := range summaries {
		doc.TOC = append(doc.TOC, tocLine(s.PageNo, s.CombinedShort))
		doc.Sections = append(doc.Sections, buildSection(s))
	}

	return doc
}

func metadataLines(meta *domain.Metadata) []string {
	if meta == nil {
		return nil
	}

	var lines []string

	if t := strings.TrimSpace(meta.Title); t != "" {
		lines = append(lines, "Title: "+t)
	}

	if a := strings.TrimSpace(meta.Author); a != "" {
		lines = append(lines, "Author: "+a)
	}

	return lines
}

func tocLine(pageNo int, short string) string {
	if utf8.RuneCountInString(short) > tocMaxChars {
		short = string([]rune(short)[:tocKeepChars]) + tocEllipsis
	}

	return fmt.Sprintf("Page %3d: %s", pageNo, short)
}

func buildSection(s domain.PageSummary) Section {
	section := Section{
		PageNo: s.PageNo,
		Text:   s.TextSummary,
		Images: make([]ImageBlock, 0, len(s.ImageSummaries)),
	}

	for _, img := range s.ImageSummaries {
		section.Images = append(section.Images, ImageBlock{
			Dimensions:  dimensions(img.Meta),
			Format:      orUnknown(img.Meta.Format),
			Mode:        orUnknown(img.Meta.Mode),
			Description: img.Description,
		})
	}

	return section
}

func dimensions(meta domain.ImageMeta) string {
	if meta.Width <= 0 || meta.Height <= 0 {
		return domain.UnknownValue + " x " + domain.UnknownValue
	}

	return fmt.Sprintf("%d x %d", meta.Width, meta.Height)
}

func orUnknown(v string) string {
	if strings.TrimSpace(v) == "" {
		return domain.UnknownValue
	}

	return v
}

// center pads s to width. An odd slack puts the extra space on the right
// unless width itself is odd.
func center(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}

	slack := width - n
	left := slack / 2
	if slack%2 == 1 && width%2 == 1 {
		left++
	}

	return strings.Repeat(" ", left) + s + strings.Repeat(" ", slack-left)
}
