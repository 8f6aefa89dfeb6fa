package handlers

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/mroshb/receipt_bot/internal/models"
	"github.com/mroshb/receipt_bot/internal/pricing"
	"github.com/mroshb/receipt_bot/internal/receipt"
	"github.com/mroshb/receipt_bot/internal/services"
	"github.com/mroshb/receipt_bot/internal/validation"
	"github.com/mroshb/receipt_bot/pkg/errors"
	"github.com/mroshb/receipt_bot/pkg/logger"
	"github.com/mroshb/receipt_bot/pkg/numerals"
)

var timeNow = time.Now

type formStep struct {
	field    string
	prompt   string
	numeric  bool
	optional bool
}

var formSteps = map[string]formStep{
	StateHeaderMobile: {field: services.FieldMobileNumber, prompt: MsgAskMobile},
	StateHeaderName:   {field: services.FieldCustomerName, prompt: MsgAskName},
	StateHeaderDate:   {field: services.FieldDate, prompt: MsgAskDate, optional: true},
	StateHeaderSeller: {field: services.FieldSellerName, prompt: MsgAskSeller, optional: true},

	StateItemDescription:  {field: services.FieldDescription, prompt: MsgAskDescription},
	StateItemGrams:        {field: services.FieldGrams, prompt: MsgAskGrams, numeric: true},
	StateItemMilligrams:   {field: services.FieldMilligrams, prompt: MsgAskMilligrams, numeric: true, optional: true},
	StateItemKarat:        {field: services.FieldKarat, prompt: MsgAskKarat, numeric: true},
	StateItemPricePound:   {field: services.FieldPricePound, prompt: MsgAskPricePound, numeric: true},
	StateItemPricePiaster: {field: services.FieldPricePiaster, prompt: MsgAskPricePiaster, numeric: true, optional: true},
	StateItemValuePound:   {field: services.FieldValuePound, prompt: MsgAskValuePound, numeric: true},
	StateItemValuePiaster: {field: services.FieldValuePiaster, prompt: MsgAskValuePiaster, numeric: true, optional: true},
	StateItemHasTax:       {field: services.FieldHasTax, prompt: MsgAskHasTax},
	StateItemTaxAmount:    {field: services.FieldTaxAmount, prompt: MsgAskTaxAmount, numeric: true},
	StateItemTaxNote:      {field: services.FieldTaxNote, prompt: MsgAskTaxNote, optional: true},
}

var headerOrder = []string{StateHeaderMobile, StateHeaderName, StateHeaderDate, StateHeaderSeller}

var weightPricedOrder = []string{
	StateItemDescription, StateItemGrams, StateItemMilligrams, StateItemKarat,
	StateItemPricePound, StateItemPricePiaster,
}

var preValuedOrder = []string{
	StateItemDescription, StateItemGrams, StateItemMilligrams, StateItemKarat,
	StateItemValuePound, StateItemValuePiaster,
	StateItemHasTax, StateItemTaxAmount, StateItemTaxNote,
}

func itemOrder(kind pricing.Kind) []string {
	if kind == pricing.KindPreValued {
		return preValuedOrder
	}
	return weightPricedOrder
}

// nextItemState returns the step after current, or StateSummary when the
// row is complete. Tax amount and note are asked only for taxed rows.
func nextItemState(kind pricing.Kind, current string, item *models.LineItem) string {
	order := itemOrder(kind)
	for i, state := range order {
		if state != current {
			continue
		}
		if i+1 == len(order) || (current == StateItemHasTax && !item.HasTax) {
			return StateSummary
		}
		return order[i+1]
	}
	return StateSummary
}

func nextHeaderState(current string) string {
	for i, state := range headerOrder {
		if state == current && i+1 < len(headerOrder) {
			return headerOrder[i+1]
		}
	}
	return StateItemDescription
}

// StartInvoice opens a fresh draft under the deployment's pricing policy
// and asks for the first header field.
func (h *HandlerManager) StartInvoice(userID int64, session *UserSession, bot BotInterface) {
	inv, err := h.Invoices.NewInvoice("")
	if err != nil {
		logger.Error("Failed to create invoice", "user_id", userID, "error", err)
		bot.SendMessage(userID, MsgError, nil)
		return
	}
	session.setDraft(inv)
	h.enterState(userID, StateHeaderMobile, session, bot)
}

// OpenDraft makes inv the session's draft and shows its summary.
func (h *HandlerManager) OpenDraft(userID int64, key string, inv *models.Invoice, session *UserSession, bot BotInterface) {
	session.setDraft(inv)
	if key != "" {
		session.Data[dataSaved] = key
	}
	session.State = StateSummary
	h.ShowSummary(userID, session, bot)
}

// HandleFormInput applies one typed answer to the current form step.
func (h *HandlerManager) HandleFormInput(userID int64, text string, session *UserSession, bot BotInterface) {
	inv := session.Draft()
	if inv == nil {
		session.Reset()
		bot.SendMainMenu(userID, MsgNoDraft)
		return
	}

	if session.State == StateSummary {
		h.ShowSummary(userID, session, bot)
		return
	}

	step, ok := formSteps[session.State]
	if !ok {
		logger.Warn("Unknown form state", "user_id", userID, "state", session.State)
		session.Reset()
		bot.SendMainMenu(userID, MsgMainMenu)
		return
	}

	skipped := text == BtnSkip
	switch {
	case skipped && !step.optional:
		bot.SendMessage(userID, MsgNeedText, h.stepKeyboard(session.State))
		return
	case skipped:
		// optional fields keep their current value
	case strings.TrimSpace(text) == "":
		bot.SendMessage(userID, MsgNeedText, h.stepKeyboard(session.State))
		return
	case step.numeric && numerals.DigitsOnly(text, 0) == "":
		bot.SendMessage(userID, MsgNeedNumber, h.stepKeyboard(session.State))
		return
	default:
		if err := h.applyField(inv, session, step.field, text); err != nil {
			h.sendFieldError(userID, session.State, err, bot)
			return
		}
	}

	if strings.HasPrefix(session.State, "header_") {
		h.enterState(userID, nextHeaderState(session.State), session, bot)
		return
	}

	item, _ := inv.FindItem(session.itemID())
	if item == nil {
		session.State = StateSummary
		h.ShowSummary(userID, session, bot)
		return
	}
	h.enterState(userID, nextItemState(h.Invoices.PolicyOf(inv).Kind(), session.State, item), session, bot)
}

func (h *HandlerManager) applyField(inv *models.Invoice, session *UserSession, field, text string) error {
	switch field {
	case services.FieldMobileNumber:
		if !validation.IsValidMobile(numerals.DigitsOnly(text, 0)) {
			return errors.New(errors.ErrCodeValidationFailed, "invalid mobile number")
		}
		return h.Invoices.SetHeaderField(inv, field, text)
	case services.FieldCustomerName, services.FieldDate, services.FieldSellerName:
		return h.Invoices.SetHeaderField(inv, field, text)
	}
	return h.Invoices.SetItemField(inv, session.itemID(), field, text)
}

func (h *HandlerManager) sendFieldError(userID int64, state string, err error, bot BotInterface) {
	msg := MsgError
	switch {
	case state == StateHeaderMobile:
		msg = MsgBadMobile
	case state == StateHeaderDate:
		msg = MsgBadDate
	case state == StateItemHasTax:
		msg = MsgNeedYesNo
	case errors.HasCode(err, errors.ErrCodeValidationFailed):
		msg = MsgNeedText
	default:
		logger.Error("Failed to update invoice field", "user_id", userID, "state", state, "error", err)
	}
	bot.SendMessage(userID, msg, h.stepKeyboard(state))
}

// enterState moves the session to state and sends its prompt.
func (h *HandlerManager) enterState(userID int64, state string, session *UserSession, bot BotInterface) {
	session.State = state
	inv := session.Draft()

	if state == StateSummary {
		h.ShowSummary(userID, session, bot)
		return
	}

	if state == StateItemDescription {
		if session.itemID() == "" {
			session.Data[dataItemID] = inv.Items[len(inv.Items)-1].ID
		}
		_, idx := inv.FindItem(session.itemID())
		heading := fmt.Sprintf(MsgItemHeading, idx+1)
		bot.SendMessage(userID, heading+"\n\n"+formSteps[state].prompt, h.stepKeyboard(state))
		return
	}

	prompt := formSteps[state].prompt
	if state == StateHeaderDate {
		prompt = fmt.Sprintf(prompt, inv.Date)
	}
	bot.SendMessage(userID, prompt, h.stepKeyboard(state))
}

func (h *HandlerManager) stepKeyboard(state string) interface{} {
	if state == StateItemHasTax {
		return TaxKeyboard()
	}
	if formSteps[state].optional {
		return SkipKeyboard()
	}
	return CancelKeyboard()
}

// ShowSummary sends the draft formatted in the configured locale along with
// the summary actions.
func (h *HandlerManager) ShowSummary(userID int64, session *UserSession, bot BotInterface) {
	inv := session.Draft()
	if inv == nil {
		bot.SendMainMenu(userID, MsgNoDraft)
		return
	}
	d := receipt.Prepare(inv, h.Config.DisplayLocale)
	text := "<pre>" + html.EscapeString(d.Summary()) + "</pre>\n" + MsgSummaryActions
	bot.SendMessage(userID, text, SummaryKeyboard(len(inv.Items), h.linksEnabled()))
}

// HandleInvoiceCallback runs a summary action or a tax choice.
func (h *HandlerManager) HandleInvoiceCallback(userID int64, data string, session *UserSession, bot BotInterface) {
	if strings.HasPrefix(data, CallbackTax) {
		if session.State != StateItemHasTax {
			return
		}
		h.HandleFormInput(userID, strings.TrimPrefix(data, CallbackTax), session, bot)
		return
	}

	inv := session.Draft()
	if inv == nil {
		bot.SendMainMenu(userID, MsgNoDraft)
		return
	}

	switch strings.TrimPrefix(data, CallbackInvoice) {
	case ActionAddItem:
		h.addItem(userID, inv, session, bot)
	case ActionRemoveLast:
		h.removeLastItem(userID, inv, session, bot)
	case ActionSave:
		if _, ok := h.saveDraft(userID, inv, session, bot); ok {
			h.ShowSummary(userID, session, bot)
		}
	case ActionPDF:
		h.SendPDF(userID, inv, bot)
	case ActionXLSX:
		h.SendXLSX(userID, inv, bot)
	case ActionLink:
		h.sendLink(userID, inv, session, bot)
	case ActionDelete:
		h.deleteDraft(userID, inv, session, bot)
	case ActionCancel:
		session.Reset()
		bot.SendMainMenu(userID, MsgCancel)
	default:
		logger.Warn("Unknown invoice action", "user_id", userID, "data", data)
	}
}

func (h *HandlerManager) addItem(userID int64, inv *models.Invoice, session *UserSession, bot BotInterface) {
	item, err := h.Invoices.AddItem(inv)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeLimitExceeded) {
			bot.SendMessage(userID, MsgMaxItems, nil)
			return
		}
		logger.Error("Failed to add item", "user_id", userID, "error", err)
		bot.SendMessage(userID, MsgError, nil)
		return
	}
	session.Data[dataItemID] = item.ID
	h.enterState(userID, StateItemDescription, session, bot)
}

func (h *HandlerManager) removeLastItem(userID int64, inv *models.Invoice, session *UserSession, bot BotInterface) {
	last := inv.Items[len(inv.Items)-1].ID
	if err := h.Invoices.RemoveItem(inv, last); err != nil {
		if errors.HasCode(err, errors.ErrCodeLimitExceeded) {
			bot.SendMessage(userID, MsgMinItems, nil)
			return
		}
		logger.Error("Failed to remove item", "user_id", userID, "error", err)
		bot.SendMessage(userID, MsgError, nil)
		return
	}
	if session.itemID() == last {
		delete(session.Data, dataItemID)
	}
	session.State = StateSummary
	h.ShowSummary(userID, session, bot)
}

// checkComplete reports incomplete fields to the user. Saving and printing
// both require a complete invoice.
func (h *HandlerManager) checkComplete(userID int64, inv *models.Invoice, bot BotInterface) bool {
	res := validation.Check(inv, h.Invoices.PolicyOf(inv).Kind())
	if res.OK() {
		return true
	}
	bot.SendMessage(userID, fmt.Sprintf(MsgIncomplete, describeIssues(res)), nil)
	return false
}

func (h *HandlerManager) saveDraft(userID int64, inv *models.Invoice, session *UserSession, bot BotInterface) (string, bool) {
	if !h.checkComplete(userID, inv, bot) {
		return "", false
	}
	key, err := h.Invoices.Save(userID, inv)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeForbidden) {
			logger.Warn("Refused to overwrite another operator's invoice", "user_id", userID, "error", err)
			bot.SendMessage(userID, MsgNotOwner, nil)
			return "", false
		}
		logger.Error("Failed to save invoice", "user_id", userID, "error", err)
		bot.SendMessage(userID, MsgError, nil)
		return "", false
	}
	session.Data[dataSaved] = key
	bot.SendMessage(userID, fmt.Sprintf(MsgSaved, html.EscapeString(models.KeyLabel(key))), nil)
	return key, true
}

func (h *HandlerManager) deleteDraft(userID int64, inv *models.Invoice, session *UserSession, bot BotInterface) {
	key, _ := session.Data[dataSaved].(string)
	if key == "" && numerals.DigitsOnly(inv.MobileNumber, 0) != "" {
		key = inv.Key(timeNow())
	}
	if key != "" {
		owner, err := h.Invoices.OwnerOf(key)
		if err != nil {
			logger.Error("Failed to look up invoice owner", "user_id", userID, "key", key, "error", err)
			bot.SendMessage(userID, MsgError, nil)
			return
		}
		if owner != 0 && !h.Invoices.Permits(userID, owner) {
			logger.Warn("Refused to delete another operator's invoice", "user_id", userID, "key", key)
			bot.SendMessage(userID, MsgNotOwner, nil)
			return
		}
		if owner != 0 {
			if err := h.Invoices.Delete(key); err != nil {
				logger.Error("Failed to delete invoice", "user_id", userID, "key", key, "error", err)
				bot.SendMessage(userID, MsgError, nil)
				return
			}
		}
	}
	session.Reset()
	bot.SendMainMenu(userID, fmt.Sprintf(MsgDeleted, html.EscapeString(models.KeyLabel(key))))
}

func (h *HandlerManager) sendLink(userID int64, inv *models.Invoice, session *UserSession, bot BotInterface) {
	if !h.linksEnabled() {
		bot.SendMessage(userID, MsgLinksDisabled, nil)
		return
	}
	key, _ := session.Data[dataSaved].(string)
	if key == "" {
		var ok bool
		if key, ok = h.saveDraft(userID, inv, session, bot); !ok {
			return
		}
	}
	link, err := h.Links.ReceiptURL(key, userID)
	if err != nil {
		logger.Error("Failed to sign receipt link", "user_id", userID, "key", key, "error", err)
		bot.SendMessage(userID, MsgError, nil)
		return
	}
	bot.SendMessage(userID, fmt.Sprintf(MsgLink, html.EscapeString(link)), nil)
}

var fieldLabels = map[string]string{
	"mobileNumber":      "رقم الموبايل",
	"customerName":      "اسم العميل",
	"date":              "التاريخ",
	"items":             "الأصناف",
	"description":       "الوصف",
	"weight.grams":      "الجرام",
	"weight.milligrams": "المليجرام",
	"karat":             "العيار",
	"price.pound":       "السعر",
	"value.pound":       "القيمة",
	"tax.amount":        "الضريبة",
}

// describeIssues lists validation issues with Arabic field names, one per
// line, e.g. "الصنف 2: العيار".
func describeIssues(res *validation.Result) string {
	lines := make([]string, 0, len(res.Issues))
	for _, issue := range res.Issues {
		field := issue.Field
		prefix := ""
		if strings.HasPrefix(field, "items[") {
			if end := strings.Index(field, "]."); end > 0 {
				if n, err := strconv.Atoi(field[len("items["):end]); err == nil {
					prefix = "الصنف " + strconv.Itoa(n+1) + ": "
				}
				field = field[end+2:]
			}
		}
		label, ok := fieldLabels[field]
		if !ok {
			label = field
		}
		lines = append(lines, "• "+prefix+html.EscapeString(label))
	}
	return strings.Join(lines, "\n")
}
