package bot

import (
	"context"
	"errors"
	"fmt"
	"path"
	"pdfdigest/internal/domain"
	"pdfdigest/internal/extract"
	"pdfdigest/internal/markdown"
	"pdfdigest/internal/pipeline"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const (
	// Bot API refuses to serve files above 20 MB.
	maxTelegramFileSize = 20 << 20

	previewMaxRunes = 2000
	pdfMIMEType     = "application/pdf"
)

func (b *Bot) handleMessage(ctx context.Context, message *models.Message) error {
	return b.withSpinner(ctx, message.Chat.ID, func() error {
		chatID := message.Chat.ID
		userID := message.From.ID

		if message.Document != nil {
			return b.handleDocument(ctx, message.Document, chatID, userID)
		}

		text := strings.TrimSpace(message.Text)

		switch {
		case strings.HasPrefix(text, "/start"):
			return b.handleStartCommand(ctx, chatID)
		case strings.HasPrefix(text, "/menu"):
			return b.handleMenuCommand(ctx, chatID)
		case strings.HasPrefix(text, "/history"):
			return b.handleHistoryCommand(ctx, chatID, userID)
		case strings.HasPrefix(text, "/report"):
			return b.handleReportCommand(ctx, text, chatID, userID)
		default:
			return b.handleRandomText(ctx, text, chatID, userID)
		}
	})
}

func (b *Bot) handleDocument(
	ctx context.Context,
	doc *models.Document,
	chatID int64,
	userID int64,
) error {
	if !isPDFDocument(doc) {
		return b.sendMessageWithKeyboard(ctx, chatID, "✖️ Only PDF documents are supported\\.", b.returnKeyboard)
	}

	if doc.FileSize > maxTelegramFileSize {
		return b.sendMessageWithKeyboard(ctx, chatID, "✖️ Document is larger than 20 MB\\.", b.returnKeyboard)
	}

	file, err := b.api.GetFile(ctx, &bot.GetFileParams{FileID: doc.FileID})
	if err != nil {
		return b.replyError(ctx, chatID, fmt.Errorf("get file: %w", err))
	}

	download, err := b.downloader.Fetch(ctx, b.api.FileDownloadLink(file))
	if err != nil {
		return b.replyError(ctx, chatID, fmt.Errorf("download document: %w", redactedError{err: err, secret: b.token}))
	}

	name := strings.TrimSpace(doc.FileName)
	if name == "" {
		name = pipeline.DefaultPDFSourceName
	}

	result, err := b.summarizer.SummarizePDF(ctx, userID, download.Data, name)
	if err != nil {
		return b.replyError(ctx, chatID, fmt.Errorf("summarize pdf: %w", err))
	}

	return b.sendResult(ctx, chatID, name, result)
}

// handleRandomText summarizes PDFs linked in text, or the text itself when it
// has no PDF links.
func (b *Bot) handleRandomText(ctx context.Context, text string, chatID int64, userID int64) error {
	if text == "" {
		return b.sendMessageWithKeyboard(ctx, chatID, "✖️ Message has no text to summarize\\.", b.returnKeyboard)
	}

	links, err := extract.FindPDFLinks(text)
	if err != nil {
		return b.replyError(ctx, chatID, fmt.Errorf("find pdf links: %w", err))
	}

	if len(links) == 0 {
		result, sumErr := b.summarizer.SummarizeText(ctx, userID, text)
		if sumErr != nil {
			return b.replyError(ctx, chatID, fmt.Errorf("summarize text: %w", sumErr))
		}

		return b.sendResult(ctx, chatID, pipeline.TextSourceName, result)
	}

	downloads, err := b.downloader.FetchAll(ctx, links)

	var errs []error
	if err != nil {
		errs = append(errs, fmt.Errorf("fetch pdf links: %w", err))
	}

	sent := 0
	for _, d := range downloads {
		result, sumErr := b.summarizer.SummarizePDF(ctx, userID, d.Data, d.Name)
		if sumErr != nil {
			errs = append(errs, fmt.Errorf("summarize %s: %w", d.URL, sumErr))

			continue
		}

		if sendErr := b.sendResult(ctx, chatID, d.Name, result); sendErr != nil {
			errs = append(errs, fmt.Errorf("send result: %w", sendErr))

			continue
		}

		sent++
	}

	if sent == 0 {
		return b.replyError(ctx, chatID, errors.Join(errs...))
	}

	if len(errs) > 0 {
		if err = b.sendMessageWithKeyboard(
			ctx,
			chatID,
			fmt.Sprintf("⚠️ Partial success \\(%d of %d links\\)\\.", sent, len(links)),
			b.returnKeyboard,
		); err != nil {
			errs = append(errs, fmt.Errorf("send message with keyboard: %w", err))
		}
	}

	return errors.Join(errs...)
}

// sendResult replies with the PDF report followed by a preview of the text
// report.
func (b *Bot) sendResult(ctx context.Context, chatID int64, sourceName string, result pipeline.Result) error {
	caption := fmt.Sprintf("📄 *%s*\n%d pages", markdown.EscapeV2(sourceName), len(result.Summaries))
	if result.ReportID != "" {
		caption += fmt.Sprintf("\nID: `%s`", markdown.EscapeCode(result.ReportID))
	}

	if err := b.sendDocument(ctx, chatID, reportFilename(sourceName), result.PDF, caption); err != nil {
		return fmt.Errorf("send document: %w", err)
	}

	preview := "```\n" + markdown.EscapeCode(markdown.Truncate(result.Text, previewMaxRunes)) + "\n```"

	if err := b.sendMessageWithKeyboard(ctx, chatID, preview, b.returnKeyboard); err != nil {
		return fmt.Errorf("send message with keyboard: %w", err)
	}

	return nil
}

func isPDFDocument(doc *models.Document) bool {
	if strings.EqualFold(doc.MimeType, pdfMIMEType) {
		return true
	}

	return strings.EqualFold(path.Ext(doc.FileName), ".pdf")
}

// reportFilename names the report after its source: "paper.pdf" becomes
// "paper_summary.pdf".
func reportFilename(sourceName string) string {
	base := strings.TrimSuffix(sourceName, path.Ext(sourceName))
	if base == "" {
		base = "report"
	}

	return base + "_summary.pdf"
}

func isUserError(err error) bool {
	return errors.Is(err, domain.ErrInvalidInput)
}
