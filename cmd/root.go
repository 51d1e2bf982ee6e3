package main

import (
	"context"
	"log/slog"
	"pdfdigest/internal/config"
	"pdfdigest/internal/extract"
	"pdfdigest/internal/pipeline"
	"pdfdigest/internal/summarizer"

	"github.com/spf13/cobra"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "pdfdigest",
	Short: "Page-by-page summary reports for PDF documents and text",
	Long: `pdfdigest extracts the text and images of every page of a document,
summarizes them with an OpenAI model and renders a text report and a PDF report
with a table of contents.

Inputs:
  - PDF documents, with OCR of scanned pages through the vision model
  - Plain text, HTML pages and JSON documents with metadata`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional env file to load before the environment")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(summarizeCmd)
}

// newPipeline wires the summarizer chain and the PDF extractor from cfg.
func newPipeline(
	ctx context.Context,
	cfg config.Config,
	log *slog.Logger,
	opts ...pipeline.Option,
) (*pipeline.Service, error) {
	openAI, err := summarizer.NewOpenAISummarizer(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	if err != nil {
		return nil, err
	}

	s := summarizer.NewCached(
		summarizer.NewRetrying(openAI, cfg.RemoteRetryAttempts, log),
		cfg.SummaryCacheSize,
		cfg.SummaryCacheTTL)

	log.InfoContext(ctx, "OpenAI summarizer is initialized",
		"model", cfg.OpenAIModel,
		"retryAttempts", cfg.RemoteRetryAttempts,
		"cacheSize", cfg.SummaryCacheSize)

	extractor := extract.NewPDFExtractor(log,
		extract.WithOCR(cfg.OCREnabled),
		extract.WithMinTextChars(cfg.OCRMinTextChars),
		extract.WithRasterizer(extract.NewPDFToPPM(cfg.PDFToPPMPath)))

	opts = append([]pipeline.Option{
		pipeline.WithChunkMaxChars(cfg.ChunkMaxChars),
		pipeline.WithParallelism(cfg.SummarizeParallelism),
	}, opts...)

	return pipeline.New(extractor, s, log, opts...), nil
}
