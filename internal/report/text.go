package report

import (
	"fmt"
	"pdfdigest/internal/domain"
	"pdfdigest/internal/reflow"
	"strings"
)

// AssembleText renders summaries as the plain-text report.
func AssembleText(summaries []domain.PageSummary, header domain.ReportHeader) string {
	return RenderText(Build(summaries, header))
}

func RenderText(doc Document) string {
	lines := doc.leadLines()

	for _, section := range doc.Sections {
		lines = append(lines, section.lines()...)
	}

	lines = append(lines, footerLines()...)

	return strings.Join(lines, "\n")
}

// leadLines holds everything printed before the first page section: the
// header block, the optional metadata block and the table of contents.
func (d Document) leadLines() []string {
	lines := []string{
		separator,
		center(title, Width),
		separator,
		"Source File: " + d.Header.SourceName,
		"Generated: " + d.Header.Generated.Format(generatedLayout),
		fmt.Sprintf("Total Pages: %d", d.Header.PageCount),
		separator,
	}

	if len(d.Metadata) > 0 {
		lines = append(lines, "", "METADATA:", subseparator)
		lines = append(lines, d.Metadata...)
		lines = append(lines, subseparator)
	}

	lines = append(lines, "", "", "TABLE OF CONTENTS", subseparator, "")
	lines = append(lines, d.TOC...)
	lines = append(lines, "", separator, "", "")

	return lines
}

func (s Section) lines() []string {
	lines := []string{
		"",
		separator,
		center(fmt.Sprintf("PAGE %d", s.PageNo), Width),
		separator,
		"",
	}

	if s.Text != "" {
		lines = append(lines, "TEXT CONTENT:", subseparator, "")
		lines = append(lines, reflow.WrapParagraphs(s.Text, Width, 0))
		lines = append(lines, "", "")
	}

	if len(s.Images) > 0 {
		lines = append(lines, "IMAGE ANALYSIS:", subseparator, "")

		for i, img := range s.Images {
			lines = append(lines,
				fmt.Sprintf("Image %d:", i+1),
				"",
				"  Dimensions: "+img.Dimensions+" pixels",
				"  Format: "+img.Format,
				"  Mode: "+img.Mode,
				"",
				"  Description:",
				"",
				reflow.WrapParagraphs(img.Description, imageDescWidth, imageDescIndent),
				"",
				"",
			)
		}
	}

	return append(lines, "")
}

func footerLines() []string {
	return []string{separator, center(footerTitle, Width), separator}
}
