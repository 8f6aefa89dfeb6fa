package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mroshb/receipt_bot/internal/handlers"
)

// MainMenuKeyboard creates the main menu keyboard
func MainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton

	// Row 1 - New invoice
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(handlers.BtnNewInvoice),
	))

	// Row 2 - Last saved - Saved list
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(handlers.BtnLoadLast),
		tgbotapi.NewKeyboardButton(handlers.BtnSavedInvoices),
	))

	// Row 3 - Import - Help
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(handlers.BtnImport),
		tgbotapi.NewKeyboardButton(handlers.BtnHelp),
	))

	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	return kb
}

