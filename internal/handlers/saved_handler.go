package handlers

import (
	"bytes"
	"fmt"
	"html"
	"path/filepath"
	"strings"

	"github.com/mroshb/receipt_bot/internal/models"
	"github.com/mroshb/receipt_bot/internal/pricing"
	"github.com/mroshb/receipt_bot/internal/receipt"
	"github.com/mroshb/receipt_bot/internal/security"
	"github.com/mroshb/receipt_bot/pkg/errors"
	"github.com/mroshb/receipt_bot/pkg/logger"
)

// maxListed caps the saved-invoice keyboard; Telegram rejects very large
// inline keyboards.
const maxListed = 30

// LoadLast opens the operator's most recently saved invoice.
func (h *HandlerManager) LoadLast(userID int64, session *UserSession, bot BotInterface) {
	key, inv, err := h.Invoices.LoadLatest(userID)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeNotFound) {
			bot.SendMainMenu(userID, MsgNoSaved)
			return
		}
		logger.Error("Failed to load latest invoice", "user_id", userID, "error", err)
		bot.SendMessage(userID, MsgError, nil)
		return
	}
	bot.SendMessage(userID, fmt.Sprintf(MsgLoaded, html.EscapeString(models.KeyLabel(key))), nil)
	h.OpenDraft(userID, key, inv, session, bot)
}

// ShowSaved lists the operator's saved invoices, most recently saved first,
// with their totals. The super admin sees every operator's invoices.
func (h *HandlerManager) ShowSaved(userID int64, bot BotInterface) {
	owner := userID
	if h.Config.SuperAdminTgID != 0 && userID == h.Config.SuperAdminTgID {
		owner = 0
	}
	snaps, err := h.Invoices.Summaries(owner, 0)
	if err != nil {
		logger.Error("Failed to list invoices", "user_id", userID, "error", err)
		bot.SendMessage(userID, MsgError, nil)
		return
	}
	if len(snaps) == 0 {
		bot.SendMainMenu(userID, MsgNoSaved)
		return
	}
	total := len(snaps)
	if total > maxListed {
		snaps = snaps[:maxListed]
	}
	bot.SendMessage(userID, fmt.Sprintf(MsgSavedList, total), SavedListKeyboard(snaps, h.Config.DisplayLocale))
}

// HandleSavedCallback loads or deletes a saved invoice picked from the list.
func (h *HandlerManager) HandleSavedCallback(userID int64, messageID int, data string, session *UserSession, bot BotInterface) {
	action, key, ok := strings.Cut(strings.TrimPrefix(data, CallbackSaved), ":")
	if !ok || !strings.HasPrefix(key, models.KeyPrefix) {
		logger.Warn("Malformed saved-invoice callback", "user_id", userID, "data", data)
		return
	}
	if !h.ownsInvoice(userID, key) {
		bot.SendMessage(userID, MsgNotFound, nil)
		return
	}

	switch action {
	case "load":
		inv, err := h.Invoices.Load(key)
		if err != nil {
			if errors.HasCode(err, errors.ErrCodeNotFound) {
				bot.SendMessage(userID, MsgNotFound, nil)
				return
			}
			logger.Error("Failed to load invoice", "user_id", userID, "key", key, "error", err)
			bot.SendMessage(userID, MsgError, nil)
			return
		}
		bot.DeleteMessage(userID, messageID)
		bot.SendMessage(userID, fmt.Sprintf(MsgLoaded, html.EscapeString(models.KeyLabel(key))), nil)
		h.OpenDraft(userID, key, inv, session, bot)

	case "del":
		if err := h.Invoices.Delete(key); err != nil {
			logger.Error("Failed to delete invoice", "user_id", userID, "key", key, "error", err)
			bot.SendMessage(userID, MsgError, nil)
			return
		}
		if saved, _ := session.Data[dataSaved].(string); saved == key {
			delete(session.Data, dataSaved)
		}
		bot.DeleteMessage(userID, messageID)
		bot.SendMessage(userID, fmt.Sprintf(MsgDeleted, html.EscapeString(models.KeyLabel(key))), nil)
		h.ShowSaved(userID, bot)

	default:
		logger.Warn("Unknown saved-invoice action", "user_id", userID, "action", action)
	}
}

// ownsInvoice reports whether userID saved key. The super admin may open
// every invoice.
func (h *HandlerManager) ownsInvoice(userID int64, key string) bool {
	ok, err := h.Invoices.CanAccess(userID, key)
	if err != nil {
		logger.Error("Failed to look up invoice owner", "user_id", userID, "key", key, "error", err)
		return false
	}
	return ok
}

// SendPDF renders the draft on the paper template and sends it as a file.
func (h *HandlerManager) SendPDF(userID int64, inv *models.Invoice, bot BotInterface) {
	if !h.checkComplete(userID, inv, bot) {
		return
	}
	data, err := receipt.PDF(inv, h.Config.ReceiptOptions())
	if err != nil {
		logger.Error("Failed to render PDF", "user_id", userID, "error", err)
		bot.SendMessage(userID, MsgError, nil)
		return
	}
	key := documentName(inv)
	bot.SendDocument(userID, key+".pdf", data, fmt.Sprintf(MsgReceiptCaption, html.EscapeString(models.KeyLabel(key))))
}

// SendXLSX exports the draft as a workbook that can be imported again.
func (h *HandlerManager) SendXLSX(userID int64, inv *models.Invoice, bot BotInterface) {
	if !h.checkComplete(userID, inv, bot) {
		return
	}
	var buf bytes.Buffer
	if err := receipt.RenderXLSX(&buf, inv, h.Config.DisplayLocale); err != nil {
		logger.Error("Failed to render XLSX", "user_id", userID, "error", err)
		bot.SendMessage(userID, MsgError, nil)
		return
	}
	key := documentName(inv)
	bot.SendDocument(userID, key+".xlsx", buf.Bytes(), fmt.Sprintf(MsgReceiptCaption, html.EscapeString(models.KeyLabel(key))))
}

func documentName(inv *models.Invoice) string {
	return inv.Key(timeNow())
}

// AwaitImport asks for a workbook upload.
func (h *HandlerManager) AwaitImport(userID int64, session *UserSession, bot BotInterface) {
	session.Reset()
	session.State = StateAwaitingImport
	bot.SendMessage(userID, MsgAskImport, CancelKeyboard())
}

// ImportWorkbook turns an uploaded receipt workbook into a new draft.
func (h *HandlerManager) ImportWorkbook(userID int64, filename string, data []byte, session *UserSession, bot BotInterface) {
	maxSize := h.Config.UploadMaxSize
	if !security.ValidateFileType(filename, []string{".xlsx"}) || !security.ValidateFileSize(int64(len(data)), maxSize) {
		bot.SendMessage(userID, fmt.Sprintf(MsgBadFile, maxSize/(1<<20)), CancelKeyboard())
		return
	}

	header, items, err := receipt.ReadXLSX(bytes.NewReader(data))
	if err != nil {
		logger.Warn("Rejected workbook", "user_id", userID, "file", filepath.Base(filename), "error", err)
		bot.SendMessage(userID, fmt.Sprintf(MsgImportFailed, html.EscapeString(err.Error())), CancelKeyboard())
		return
	}

	inv, err := h.Invoices.Import(h.importPolicy(header.Policy), header, items)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeLimitExceeded) {
			bot.SendMessage(userID, MsgMaxItems, CancelKeyboard())
			return
		}
		bot.SendMessage(userID, fmt.Sprintf(MsgImportFailed, html.EscapeString(err.Error())), CancelKeyboard())
		return
	}

	logger.Info("Workbook imported", "user_id", userID, "items", len(items))
	bot.SendMessage(userID, fmt.Sprintf(MsgImported, len(inv.FilledItems())), nil)
	h.OpenDraft(userID, "", inv, session, bot)
}

// importPolicy keeps the policy recorded in the workbook when it names a
// known one, otherwise the deployment default applies.
func (h *HandlerManager) importPolicy(recorded string) pricing.Kind {
	if kind, err := pricing.ParseKind(recorded); err == nil {
		return kind
	}
	return ""
}
