package bot

import (
	"context"
	"errors"
	"log/slog"
	"pdfdigest/internal/domain"
	"pdfdigest/internal/extract"
	"pdfdigest/internal/pipeline"
	"pdfdigest/internal/ratelimiter"
	"slices"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const updateProcessingTimeout = 10 * time.Minute

// Summarizer runs the summarization pipeline on behalf of a user.
type Summarizer interface {
	SummarizePDF(ctx context.Context, userID int64, data []byte, sourceName string) (pipeline.Result, error)
	SummarizeText(ctx context.Context, userID int64, text string) (pipeline.Result, error)
}

// ReportStore gives access to reports generated earlier.
type ReportStore interface {
	ListUserReports(ctx context.Context, userID int64, limit int) ([]domain.Report, error)
	GetReport(ctx context.Context, id string) (*domain.Report, error)
}

// Downloader fetches PDFs from Telegram file links and from links in messages.
type Downloader interface {
	Fetch(ctx context.Context, link string) (extract.Download, error)
	FetchAll(ctx context.Context, links []string) ([]extract.Download, error)
}

// sender is the part of the Bot API client the handlers use.
type sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendDocument(ctx context.Context, params *bot.SendDocumentParams) (*models.Message, error)
	SendChatAction(ctx context.Context, params *bot.SendChatActionParams) (bool, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
	GetFile(ctx context.Context, params *bot.GetFileParams) (*models.File, error)
	FileDownloadLink(f *models.File) string
}

type Bot struct {
	client         *bot.Bot
	api            sender
	token          string
	rateLimiter    *ratelimiter.RateLimiter
	summarizer     Summarizer
	reports        ReportStore
	downloader     Downloader
	allowedUsers   []int64
	returnKeyboard models.InlineKeyboardMarkup
	menuKeyboard   models.InlineKeyboardMarkup
	log            *slog.Logger
}

// New creates the bot. reports may be nil, then history commands reply that
// history is disabled.
func New(
	token string,
	summarizer Summarizer,
	reports ReportStore,
	downloader Downloader,
	allowedUsers []int64,
	log *slog.Logger,
) (*Bot, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("token is empty")
	}

	b := newBot(nil, ratelimiter.New(log), summarizer, reports, downloader, allowedUsers, log)
	b.token = token

	client, err := bot.New(token, bot.WithDefaultHandler(b.handleUpdate))
	if err != nil {
		return nil, err
	}

	b.client = client
	b.api = client

	return b, nil
}

func newBot(
	api sender,
	rateLimiter *ratelimiter.RateLimiter,
	summarizer Summarizer,
	reports ReportStore,
	downloader Downloader,
	allowedUsers []int64,
	log *slog.Logger,
) *Bot {
	return &Bot{
		api:            api,
		rateLimiter:    rateLimiter,
		summarizer:     summarizer,
		reports:        reports,
		downloader:     downloader,
		allowedUsers:   allowedUsers,
		returnKeyboard: getReturnKeyboard(),
		menuKeyboard:   getMenuKeyboard(),
		log:            log,
	}
}

// Start polls for updates until ctx is done.
func (b *Bot) Start(ctx context.Context) {
	b.log.InfoContext(ctx, "Bot is started")

	b.client.Start(ctx)

	b.log.InfoContext(ctx, "Bot context is done",
		"error", ctx.Err())
}

func (b *Bot) Stop() {
	if b.rateLimiter != nil {
		b.rateLimiter.Stop()
	}
}

func (b *Bot) handleUpdate(ctx context.Context, _ *bot.Bot, update *models.Update) {
	updateCtx, cancel := context.WithTimeout(ctx, updateProcessingTimeout)
	defer cancel()

	switch {
	case update.Message != nil:
		message := update.Message
		chatID := message.Chat.ID

		if message.From == nil || !b.userAllowed(message.From.ID) {
			var userID int64
			var username string
			if message.From != nil {
				userID, username = message.From.ID, message.From.Username
			}

			b.log.DebugContext(updateCtx, "User is not allowed",
				"userID", userID,
				"chatID", chatID,
				"username", username,
				"chatType", message.Chat.Type)

			return
		}

		if err := b.handleMessage(updateCtx, message); err != nil {
			b.log.ErrorContext(updateCtx, "Failed to handle message",
				"error", err,
				"chatID", chatID,
				"userID", message.From.ID,
				"chatType", message.Chat.Type,
				"messageID", message.ID)
		}

	case update.CallbackQuery != nil:
		callback := update.CallbackQuery
		chatID := callbackChatID(callback)

		if !b.userAllowed(callback.From.ID) {
			b.log.DebugContext(updateCtx, "User is not allowed",
				"userID", callback.From.ID,
				"chatID", chatID,
				"username", callback.From.Username,
				"data", callback.Data)

			return
		}

		if err := b.handleCallbackQuery(updateCtx, callback); err != nil {
			b.log.ErrorContext(updateCtx, "Failed to handle callback query",
				"error", err,
				"chatID", chatID,
				"userID", callback.From.ID,
				"data", callback.Data,
				"messageID", callbackMessageID(callback))
		}
	}
}

// userAllowed reports whether userID may use the bot. An empty list allows
// everyone.
func (b *Bot) userAllowed(userID int64) bool {
	return len(b.allowedUsers) == 0 || slices.Contains(b.allowedUsers, userID)
}

func callbackChatID(cb *models.CallbackQuery) int64 {
	switch {
	case cb == nil:
		return 0
	case cb.Message.Message != nil:
		return cb.Message.Message.Chat.ID
	case cb.Message.InaccessibleMessage != nil:
		return cb.Message.InaccessibleMessage.Chat.ID
	}

	return 0
}

func callbackMessageID(cb *models.CallbackQuery) int {
	switch {
	case cb == nil:
		return 0
	case cb.Message.Message != nil:
		return cb.Message.Message.ID
	case cb.Message.InaccessibleMessage != nil:
		return cb.Message.InaccessibleMessage.MessageID
	}

	return 0
}

// redactedError hides the bot token that Telegram file links carry.
type redactedError struct {
	err    error
	secret string
}

func (e redactedError) Error() string {
	if e.secret == "" {
		return e.err.Error()
	}
	return strings.ReplaceAll(e.err.Error(), e.secret, "<token>")
}

func (e redactedError) Unwrap() error {
	return e.err
}
