package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"pdfdigest/internal/config"
	"pdfdigest/internal/pipeline"

	"github.com/spf13/cobra"
)

const defaultOutPath = "pdf_summary_report.pdf"

var (
	summarizePDFPath  string
	summarizeJSONPath string
	summarizeTextPath string
	summarizeHTMLPath string
	summarizeOutPath  string
	summarizeTextOut  string
	summarizePrintTOC bool
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Summarize one document and write the reports to disk",
	Long: `Summarize one document without storing it.

Exactly one input is required. The PDF report is written to --out and the
text report to --text when it is set.

Examples:
  pdfdigest summarize --pdf paper.pdf --out paper_summary.pdf
  pdfdigest summarize --json input.json --text report.txt
  pdfdigest summarize --text-input notes.txt`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		log := slog.Default()

		inputs := 0
		for _, p := range []string{summarizePDFPath, summarizeJSONPath, summarizeTextPath, summarizeHTMLPath} {
			if p != "" {
				inputs++
			}
		}
		if inputs != 1 {
			return errors.New("exactly one of --pdf, --json, --text-input or --html is required")
		}

		cfg, err := config.Load(envFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		svc, err := newPipeline(ctx, cfg, log)
		if err != nil {
			return fmt.Errorf("initialize pipeline: %w", err)
		}

		var result pipeline.Result

		switch {
		case summarizePDFPath != "":
			data, readErr := os.ReadFile(summarizePDFPath)
			if readErr != nil {
				return fmt.Errorf("read pdf: %w", readErr)
			}
			result, err = svc.SummarizePDF(ctx, 0, data, filepath.Base(summarizePDFPath))

		case summarizeJSONPath != "":
			data, readErr := os.ReadFile(summarizeJSONPath)
			if readErr != nil {
				return fmt.Errorf("read json: %w", readErr)
			}
			result, err = svc.SummarizeJSON(ctx, 0, data)

		case summarizeTextPath != "":
			data, readErr := os.ReadFile(summarizeTextPath)
			if readErr != nil {
				return fmt.Errorf("read text: %w", readErr)
			}
			result, err = svc.SummarizeText(ctx, 0, string(data))

		default:
			data, readErr := os.ReadFile(summarizeHTMLPath)
			if readErr != nil {
				return fmt.Errorf("read html: %w", readErr)
			}
			result, err = svc.SummarizeHTML(ctx, 0, data, filepath.Base(summarizeHTMLPath))
		}
		if err != nil {
			return fmt.Errorf("summarize: %w", err)
		}

		if err = os.WriteFile(summarizeOutPath, result.PDF, 0o644); err != nil { //nolint:gosec // Report is meant to be shared
			return fmt.Errorf("write pdf report: %w", err)
		}

		if summarizeTextOut != "" {
			if err = os.WriteFile(summarizeTextOut, []byte(result.Text), 0o644); err != nil { //nolint:gosec // Report is meant to be shared
				return fmt.Errorf("write text report: %w", err)
			}
		}

		if summarizePrintTOC {
			for _, s := range result.Summaries {
				fmt.Fprintf(cmd.OutOrStdout(), "Page %d: %s\n", s.PageNo, s.CombinedShort)
			}
		}

		log.InfoContext(ctx, "Reports are written",
			"pdfPath", summarizeOutPath,
			"textPath", summarizeTextOut,
			"pages", len(result.Summaries))

		return nil
	},
}

func init() {
	summarizeCmd.Flags().StringVar(&summarizePDFPath, "pdf", "", "PDF document to summarize")
	summarizeCmd.Flags().StringVar(&summarizeJSONPath, "json", "", "JSON document with content and metadata")
	summarizeCmd.Flags().StringVar(&summarizeTextPath, "text-input", "", "plain text file to summarize")
	summarizeCmd.Flags().StringVar(&summarizeHTMLPath, "html", "", "HTML page to summarize")
	summarizeCmd.Flags().StringVar(&summarizeOutPath, "out", defaultOutPath, "path of the PDF report")
	summarizeCmd.Flags().StringVar(&summarizeTextOut, "text", "", "path of the text report (optional)")
	summarizeCmd.Flags().BoolVar(&summarizePrintTOC, "toc", false, "print the table of contents to stdout")
}
