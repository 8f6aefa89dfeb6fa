package handlers

import (
	"github.com/mroshb/receipt_bot/internal/models"
)

// Bot interface to avoid circular dependency
type BotInterface interface {
	SendMessage(chatID int64, text string, keyboard interface{}) int
	EditMessage(chatID int64, messageID int, text string, keyboard interface{})
	DeleteMessage(chatID int64, messageID int)
	SendDocument(chatID int64, filename string, data []byte, caption string) int
	SendMainMenu(chatID int64, text string)
	AnswerCallbackQuery(queryID string, text string, showAlert bool)
}

type UserSession struct {
	State string
	Data  map[string]interface{}
}

const (
	StateNone = ""

	StateHeaderMobile = "header_mobile"
	StateHeaderName   = "header_name"
	StateHeaderDate   = "header_date"
	StateHeaderSeller = "header_seller"

	StateItemDescription  = "item_description"
	StateItemGrams        = "item_grams"
	StateItemMilligrams   = "item_milligrams"
	StateItemKarat        = "item_karat"
	StateItemPricePound   = "item_price_pound"
	StateItemPricePiaster = "item_price_piaster"
	StateItemValuePound   = "item_value_pound"
	StateItemValuePiaster = "item_value_piaster"
	StateItemHasTax       = "item_has_tax"
	StateItemTaxAmount    = "item_tax_amount"
	StateItemTaxNote      = "item_tax_note"

	StateSummary        = "summary"
	StateAwaitingImport = "awaiting_import"
)

// session data keys
const (
	dataInvoice = "invoice"
	dataItemID  = "item_id"
	dataSaved   = "saved_key"
)

func NewSession() *UserSession {
	return &UserSession{State: StateNone, Data: make(map[string]interface{})}
}

// Draft returns the invoice being edited in this session, if any.
func (s *UserSession) Draft() *models.Invoice {
	inv, _ := s.Data[dataInvoice].(*models.Invoice)
	return inv
}

func (s *UserSession) setDraft(inv *models.Invoice) {
	s.Data[dataInvoice] = inv
	delete(s.Data, dataItemID)
	delete(s.Data, dataSaved)
}

func (s *UserSession) itemID() string {
	id, _ := s.Data[dataItemID].(string)
	return id
}

// InForm reports whether the session is inside the invoice form.
func (s *UserSession) InForm() bool {
	return s.State != StateNone && s.Draft() != nil
}

// Reset drops the draft and returns to the main menu state.
func (s *UserSession) Reset() {
	s.State = StateNone
	s.Data = make(map[string]interface{})
}
