package extract

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
)

//nolint:gochecknoglobals // Immutable lookup table.
var blockTags = map[string]struct{}{
	"address": {}, "article": {}, "aside": {}, "blockquote": {}, "br": {}, "dd": {}, "div": {},
	"dl": {}, "dt": {}, "figcaption": {}, "footer": {}, "h1": {}, "h2": {}, "h3": {}, "h4": {},
	"h5": {}, "h6": {}, "header": {}, "hr": {}, "li": {}, "main": {}, "nav": {}, "ol": {},
	"p": {}, "pre": {}, "section": {}, "table": {}, "td": {}, "th": {}, "tr": {}, "ul": {},
}

//nolint:gochecknoglobals // Stateless replacer.
var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// HTMLDocument is the readable content of an HTML page.
type HTMLDocument struct {
	Title string
	Text  string
}

// HTML extracts the visible text of a page, one line per block element.
func HTML(r io.Reader) (HTMLDocument, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return HTMLDocument{}, fmt.Errorf("create document from reader: %w", err)
	}

	title := doc.Find("title").First().Text()
	if content, ok := doc.Find("meta[property='og:title']").Attr("content"); ok {
		title = content
	}

	doc.Find("script, style, noscript, template, head").Remove()

	var b strings.Builder
	writeText(&b, doc.Selection)

	return HTMLDocument{
		Title: strings.TrimSpace(title),
		Text:  norm.NFC.String(collapseLines(b.String())),
	}, nil
}

func writeText(b *strings.Builder, s *goquery.Selection) {
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		name := goquery.NodeName(c)
		if name == "#text" {
			b.WriteString(lineBreaks.Replace(c.Text()))

			return
		}

		writeText(b, c)

		if _, ok := blockTags[name]; ok {
			b.WriteByte('\n')
		}
	})
}

func collapseLines(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]

	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			kept = append(kept, line)
		}
	}

	return strings.Join(kept, "\n")
}
