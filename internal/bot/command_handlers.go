package bot

import (
	"context"
	"errors"
	"fmt"
	"pdfdigest/internal/database"
	"pdfdigest/internal/markdown"
	"strings"
)

const welcomeText = `🤖 *Welcome to PDF Digest\!*

I turn documents into page\-by\-page summary reports\. You can:

– Send me a PDF document
– Send me links to PDF files \(https only\)
– Send me any other text to get it summarized
– See your recent reports with /history
– Get a stored report again with /report <id\>`

const historyDateLayout = "2006-01-02 15:04"

func (b *Bot) handleStartCommand(ctx context.Context, chatID int64) error {
	return b.sendMessageWithKeyboard(ctx, chatID, welcomeText, b.menuKeyboard)
}

func (b *Bot) handleMenuCommand(ctx context.Context, chatID int64) error {
	return b.sendMessageWithKeyboard(ctx, chatID, "❔ *Choose an option:*", b.menuKeyboard)
}

func (b *Bot) handleHistoryCommand(ctx context.Context, chatID int64, userID int64) error {
	if b.reports == nil {
		return b.sendMessageWithKeyboard(ctx, chatID, "✖️ Report history is disabled\\.", b.returnKeyboard)
	}

	reports, err := b.reports.ListUserReports(ctx, userID, database.DefaultHistoryLimit)
	if err != nil {
		return b.replyError(ctx, chatID, fmt.Errorf("list user reports: %w", err))
	}

	if len(reports) == 0 {
		return b.sendMessageWithKeyboard(ctx, chatID, "✖️ Report history is empty\\.", b.returnKeyboard)
	}

	var message strings.Builder
	message.WriteString(fmt.Sprintf("📚 *Found %d reports:*\n\n", len(reports)))

	for i, r := range reports {
		message.WriteString(fmt.Sprintf(
			"%d\\. %s \\(%d pages, %s UTC\\)\n`%s`\n",
			i+1,
			markdown.EscapeV2(r.Title),
			r.PageCount,
			markdown.EscapeV2(r.CreatedAt.UTC().Format(historyDateLayout)),
			markdown.EscapeCode(r.ID),
		))
	}

	return b.sendMessageWithKeyboard(ctx, chatID, message.String(), getHistoryKeyboard(reports))
}

func (b *Bot) handleReportCommand(ctx context.Context, text string, chatID int64, userID int64) error {
	id := strings.TrimSpace(strings.TrimPrefix(text, "/report"))
	if id == "" {
		return b.sendMessageWithKeyboard(ctx, chatID, "✖️ Usage: /report <id\\>", b.returnKeyboard)
	}

	return b.sendStoredReport(ctx, id, chatID, userID)
}

func (b *Bot) sendStoredReport(ctx context.Context, id string, chatID int64, userID int64) error {
	if b.reports == nil {
		return b.sendMessageWithKeyboard(ctx, chatID, "✖️ Report history is disabled\\.", b.returnKeyboard)
	}

	r, err := b.reports.GetReport(ctx, id)

	// Reports of other users are reported as missing.
	if errors.Is(err, database.ErrReportNotFound) || (err == nil && r.UserID != userID) {
		return b.sendMessageWithKeyboard(ctx, chatID, "✖️ Report is not found\\.", b.returnKeyboard)
	}

	if err != nil {
		return b.replyError(ctx, chatID, fmt.Errorf("get report: %w", err))
	}

	caption := fmt.Sprintf("📄 *%s*\n%d pages", markdown.EscapeV2(r.Title), r.PageCount)

	if err = b.sendDocument(ctx, chatID, reportFilename(r.SourceName), r.PDF, caption); err != nil {
		return fmt.Errorf("send document: %w", err)
	}

	return nil
}
