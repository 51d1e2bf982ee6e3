package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"pdfdigest/internal/domain"
	"pdfdigest/internal/extract"
	"pdfdigest/internal/pagesummary"
	"pdfdigest/internal/report"
	"pdfdigest/internal/summarizer"
	"strings"
	"time"
)

const (
	DefaultPDFSourceName  = "document.pdf"
	DefaultHTMLSourceName = "page.html"
	TextSourceName        = "text_input.txt"
	DefaultJSONSourceName = "json_data.json"

	TextFallbackTitle = "Text Summary"
	JSONFallbackTitle = "JSON Input"
	HTMLFallbackTitle = "HTML Summary"
)

// PDFSource turns raw PDF bytes into page records.
type PDFSource interface {
	Extract(ctx context.Context, data []byte) ([]domain.PageRecord, error)
}

// Store persists generated reports. It is optional.
type Store interface {
	SaveReport(ctx context.Context, r domain.Report) (string, error)
}

// Result is everything one summarization run produces.
type Result struct {
	ReportID  string
	Summaries []domain.PageSummary
	Text      string
	PDF       []byte
}

type Service struct {
	pdfs        PDFSource
	summarizer  summarizer.Summarizer
	store       Store
	filter      pagesummary.BlankFilter
	maxChars    int
	parallelism int
	now         func() time.Time
	log         *slog.Logger
}

type Option func(*Service)

func WithStore(store Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

func WithChunkMaxChars(n int) Option {
	return func(s *Service) {
		s.maxChars = n
	}
}

func WithParallelism(n int) Option {
	return func(s *Service) {
		s.parallelism = n
	}
}

func WithBlankFilter(f pagesummary.BlankFilter) Option {
	return func(s *Service) {
		s.filter = f
	}
}

// WithClock replaces the clock used for the report timestamp.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func New(
	pdfs PDFSource,
	s summarizer.Summarizer,
	log *slog.Logger,
	opts ...Option,
) *Service {
	svc := &Service{
		pdfs:       pdfs,
		summarizer: s,
		now:        time.Now,
		log:        log,
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc
}

type job struct {
	userID        int64
	records       []domain.PageRecord
	sourceName    string
	title         string
	fallbackTitle string
	metadata      *domain.Metadata
}

// SummarizePDF summarizes every page of a PDF document.
func (s *Service) SummarizePDF(
	ctx context.Context,
	userID int64,
	data []byte,
	sourceName string,
) (Result, error) {
	sourceName = strings.TrimSpace(sourceName)
	if sourceName == "" {
		sourceName = DefaultPDFSourceName
	}

	recs, err := s.pdfs.Extract(ctx, data)
	if err != nil {
		return Result{}, fmt.Errorf("extract pdf: %w", err)
	}

	return s.run(ctx, job{
		userID:     userID,
		records:    recs,
		sourceName: sourceName,
		title:      sourceName,
	})
}

// SummarizeText summarizes free text as a single page.
func (s *Service) SummarizeText(ctx context.Context, userID int64, text string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{}, fmt.Errorf("%w: text is empty", domain.ErrInvalidInput)
	}

	return s.run(ctx, job{
		userID:        userID,
		records:       []domain.PageRecord{{PageNo: 1, Text: text}},
		sourceName:    TextSourceName,
		title:         TextFallbackTitle,
		fallbackTitle: TextFallbackTitle,
	})
}

// SummarizeJSON summarizes the content field of a JSON document. A title
// other than the default or an author puts a metadata block in the report.
func (s *Service) SummarizeJSON(ctx context.Context, userID int64, raw []byte) (Result, error) {
	doc, err := extract.ParseJSON(raw)
	if err != nil {
		return Result{}, fmt.Errorf("parse json input: %w", err)
	}

	title := doc.Metadata.Title
	if title == "" {
		title = JSONFallbackTitle
	}

	sourceName := doc.Metadata.Source
	if sourceName == "" {
		sourceName = DefaultJSONSourceName
	}

	var meta *domain.Metadata
	if doc.Metadata.Author != "" || title != JSONFallbackTitle {
		meta = &domain.Metadata{Author: doc.Metadata.Author}
		if title != JSONFallbackTitle {
			meta.Title = title
		}
	}

	return s.run(ctx, job{
		userID:        userID,
		records:       []domain.PageRecord{{PageNo: 1, Text: doc.Content}},
		sourceName:    sourceName,
		title:         title,
		fallbackTitle: title,
		metadata:      meta,
	})
}

// SummarizeHTML summarizes the visible text of an HTML page.
func (s *Service) SummarizeHTML(
	ctx context.Context,
	userID int64,
	html []byte,
	sourceName string,
) (Result, error) {
	doc, err := extract.HTML(bytes.NewReader(html))
	if err != nil {
		return Result{}, fmt.Errorf("%w: parse html: %w", domain.ErrInvalidInput, err)
	}

	if doc.Text == "" {
		return Result{}, fmt.Errorf("%w: page has no visible text", domain.ErrInvalidInput)
	}

	sourceName = strings.TrimSpace(sourceName)
	if sourceName == "" {
		sourceName = DefaultHTMLSourceName
	}

	title := doc.Title
	var meta *domain.Metadata
	if title != "" {
		meta = &domain.Metadata{Title: title}
	} else {
		title = HTMLFallbackTitle
	}

	return s.run(ctx, job{
		userID:        userID,
		records:       []domain.PageRecord{{PageNo: 1, Text: doc.Text}},
		sourceName:    sourceName,
		title:         title,
		fallbackTitle: title,
		metadata:      meta,
	})
}

func (s *Service) run(ctx context.Context, j job) (Result, error) {
	if len(j.records) == 0 {
		return Result{}, fmt.Errorf("%w: document has no pages", domain.ErrInvalidInput)
	}

	builder := pagesummary.New(s.summarizer, s.log,
		pagesummary.WithFilter(s.filter),
		pagesummary.WithMaxChars(s.maxChars),
		pagesummary.WithParallelism(s.parallelism),
		pagesummary.WithSourceName(j.sourceName))

	summaries, err := builder.BuildAll(ctx, j.records, j.fallbackTitle)
	if err != nil {
		return Result{}, fmt.Errorf("build page summaries: %w", err)
	}

	doc := report.Build(summaries, domain.ReportHeader{
		SourceName: j.sourceName,
		Generated:  s.now().UTC(),
		PageCount:  len(summaries),
		Metadata:   j.metadata,
	})

	text := report.RenderText(doc)

	pdf, err := report.RenderPDF(doc)
	if err != nil {
		return Result{}, fmt.Errorf("render pdf: %w", err)
	}

	result := Result{
		Summaries: summaries,
		Text:      text,
		PDF:       pdf,
	}

	if s.store != nil {
		result.ReportID, err = s.store.SaveReport(ctx, domain.Report{
			UserID:     j.userID,
			SourceName: j.sourceName,
			Title:      j.title,
			PageCount:  len(summaries),
			Text:       text,
			PDF:        pdf,
			CreatedAt:  doc.Header.Generated,
		})
		if err != nil {
			return Result{}, fmt.Errorf("save report: %w", err)
		}
	}

	s.log.InfoContext(ctx, "Report is generated",
		"userID", j.userID,
		"reportID", result.ReportID,
		"sourceName", j.sourceName,
		"pages", len(summaries),
		"textLen", len(text),
		"pdfLen", len(pdf))

	return result, nil
}
