package handlers

import (
	"github.com/mroshb/receipt_bot/internal/config"
	"github.com/mroshb/receipt_bot/internal/middleware"
	"github.com/mroshb/receipt_bot/internal/services"
)

// ReceiptLinker hands out signed receipt links.
type ReceiptLinker interface {
	Enabled() bool
	ReceiptURL(key string, telegramID int64) (string, error)
}

type HandlerManager struct {
	Config   *config.Config
	Invoices *services.InvoiceService
	Links    ReceiptLinker
	Limiter  *middleware.RateLimiter
}

func NewHandlerManager(
	cfg *config.Config,
	invoices *services.InvoiceService,
	links ReceiptLinker,
	limiter *middleware.RateLimiter,
) *HandlerManager {
	return &HandlerManager{
		Config:   cfg,
		Invoices: invoices,
		Links:    links,
		Limiter:  limiter,
	}
}

// Admit reports whether tgID may use the bot right now, telling the user
// why not when it may not.
func (h *HandlerManager) Admit(tgID int64, bot BotInterface) bool {
	if !h.Config.IsOperator(tgID) {
		bot.SendMessage(tgID, MsgUnauthorized, nil)
		return false
	}
	if h.Limiter != nil && !h.Limiter.AllowOperator(tgID) {
		bot.SendMessage(tgID, MsgRateLimited, nil)
		return false
	}
	return true
}

func (h *HandlerManager) linksEnabled() bool {
	return h.Links != nil && h.Links.Enabled()
}
