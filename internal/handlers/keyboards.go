package handlers

import (
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mroshb/receipt_bot/internal/models"
	"github.com/mroshb/receipt_bot/pkg/numerals"
)

// Callback data prefixes
const (
	CallbackButton  = "btn:"
	CallbackInvoice = "inv:"
	CallbackTax     = "tax:"
	CallbackSaved   = "saved:"
)

// Summary actions carried after CallbackInvoice
const (
	ActionAddItem    = "add"
	ActionRemoveLast = "remove"
	ActionSave       = "save"
	ActionPDF        = "pdf"
	ActionXLSX       = "xlsx"
	ActionLink       = "link"
	ActionDelete     = "delete"
	ActionCancel     = "cancel"
)

// SkipKeyboard creates skip/cancel inline keyboard for optional steps
func SkipKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(BtnSkip, CallbackButton+BtnSkip),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(BtnCancel, CallbackButton+BtnCancel),
		),
	)
}

func CancelKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(BtnCancel, CallbackButton+BtnCancel),
		),
	)
}

func TaxKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(BtnYes, CallbackTax+"yes"),
			tgbotapi.NewInlineKeyboardButtonData(BtnNo, CallbackTax+"no"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(BtnCancel, CallbackButton+BtnCancel),
		),
	)
}

// SummaryKeyboard lists what can be done with the draft. The link button is
// shown only when the receipt server is reachable.
func SummaryKeyboard(itemCount int, withLink bool) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	var edit []tgbotapi.InlineKeyboardButton
	if itemCount < models.MaxItems {
		edit = append(edit, tgbotapi.NewInlineKeyboardButtonData(BtnAddItem, CallbackInvoice+ActionAddItem))
	}
	if itemCount > 1 {
		edit = append(edit, tgbotapi.NewInlineKeyboardButtonData(BtnRemoveLast, CallbackInvoice+ActionRemoveLast))
	}
	if len(edit) > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(edit...))
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(BtnSave, CallbackInvoice+ActionSave),
		tgbotapi.NewInlineKeyboardButtonData(BtnPDF, CallbackInvoice+ActionPDF),
		tgbotapi.NewInlineKeyboardButtonData(BtnXLSX, CallbackInvoice+ActionXLSX),
	))

	if withLink {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(BtnLink, CallbackInvoice+ActionLink),
		))
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(BtnDelete, CallbackInvoice+ActionDelete),
		tgbotapi.NewInlineKeyboardButtonData(BtnCancel, CallbackInvoice+ActionCancel),
	))

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// SavedListKeyboard creates one load/delete row per saved invoice. The load
// button shows the key label, the total and the number of items.
func SavedListKeyboard(snaps []models.InvoiceSnapshot, locale numerals.Locale) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(snaps))
	for _, snap := range snaps {
		label := fmt.Sprintf("%s %s · %s (%s)", BtnLoad, models.KeyLabel(snap.Key),
			locale.FormatAmount(snap.TotalAmount), locale.Digits(strconv.Itoa(snap.ItemCount)))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, CallbackSaved+"load:"+snap.Key),
			tgbotapi.NewInlineKeyboardButtonData("🗑", CallbackSaved+"del:"+snap.Key),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
