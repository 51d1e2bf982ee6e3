package bot

import (
	"fmt"
	"pdfdigest/internal/domain"
	"pdfdigest/internal/markdown"

	"github.com/go-telegram/bot/models"
)

const (
	reportCallbackPrefix = "report_"
	maxButtonLabel       = 40
)

func getReturnKeyboard() models.InlineKeyboardMarkup {
	return models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "⬅️ Return to menu", CallbackData: "menu"}},
		},
	}
}

func getMenuKeyboard() models.InlineKeyboardMarkup {
	return models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "📄 Report history", CallbackData: "menu_history"}},
		},
	}
}

// getHistoryKeyboard has one button per report re-sending its PDF. Callback
// data stays under Telegram's 64 byte limit since report IDs are UUIDs.
func getHistoryKeyboard(reports []domain.Report) models.InlineKeyboardMarkup {
	keyboard := make([][]models.InlineKeyboardButton, 0, len(reports)+1)

	for i, r := range reports {
		keyboard = append(keyboard, []models.InlineKeyboardButton{{
			Text:         fmt.Sprintf("%d. %s", i+1, markdown.Truncate(r.Title, maxButtonLabel)),
			CallbackData: reportCallbackPrefix + r.ID,
		}})
	}

	keyboard = append(keyboard, getReturnKeyboard().InlineKeyboard...)

	return models.InlineKeyboardMarkup{InlineKeyboard: keyboard}
}
