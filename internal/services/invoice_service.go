package services

import (
	"strconv"
	"strings"
	"time"

	"github.com/mroshb/receipt_bot/internal/models"
	"github.com/mroshb/receipt_bot/internal/pricing"
	"github.com/mroshb/receipt_bot/internal/security"
	"github.com/mroshb/receipt_bot/pkg/errors"
	"github.com/mroshb/receipt_bot/pkg/logger"
	"github.com/mroshb/receipt_bot/pkg/numerals"
)

// Header field names accepted by SetHeaderField.
const (
	FieldMobileNumber = "mobileNumber"
	FieldCustomerName = "customerName"
	FieldDate         = "date"
	FieldSellerName   = "sellerName"
)

// Item field paths accepted by SetItemField.
const (
	FieldDescription  = "description"
	FieldGrams        = "weight.grams"
	FieldMilligrams   = "weight.milligrams"
	FieldKarat        = "karat"
	FieldPricePound   = "price.pound"
	FieldPricePiaster = "price.piaster"
	FieldValuePound   = "value.pound"
	FieldValuePiaster = "value.piaster"
	FieldHasTax       = "hasTax"
	FieldTaxAmount    = "tax.amount"
	FieldTaxNote      = "tax.note"
)

// Input limits, in digits.
const (
	maxWholeDigits  = 6
	maxSubDigits    = 2
	maxMgDigits     = 3
	maxMobileDigits = 11
)

// InvoiceStore is the persistence contract the service needs.
type InvoiceStore interface {
	Save(key string, ownerTgID int64, inv *models.Invoice) error
	List() ([]string, error)
	ListByOwner(ownerTgID int64) ([]string, error)
	Load(key string) (*models.Invoice, error)
	LoadLatest(ownerTgID int64) (string, *models.Invoice, error)
	OwnerOf(key string) (int64, error)
	Summaries(ownerTgID int64, limit int) ([]models.InvoiceSnapshot, error)
	Delete(key string) error
}

type InvoiceService struct {
	store         InvoiceStore
	defaultPolicy pricing.Kind
	superAdmin    int64
	now           func() time.Time
}

func NewInvoiceService(store InvoiceStore, defaultPolicy pricing.Kind) *InvoiceService {
	return &InvoiceService{
		store:         store,
		defaultPolicy: defaultPolicy,
		now:           time.Now,
	}
}

// WithSuperAdmin lets tgID open, overwrite and delete every operator's
// invoices. Ownership of an invoice the super admin saves stays unchanged.
func (s *InvoiceService) WithSuperAdmin(tgID int64) *InvoiceService {
	s.superAdmin = tgID
	return s
}

// DefaultPolicy is the policy new invoices get when none is requested.
func (s *InvoiceService) DefaultPolicy() pricing.Kind {
	return s.defaultPolicy
}

// PolicyOf returns the pricing policy that governs inv.
func (s *InvoiceService) PolicyOf(inv *models.Invoice) pricing.Policy {
	return pricing.ForInvoice(inv, s.defaultPolicy)
}

// NewInvoice returns an empty draft dated today with one blank row. An empty
// kind selects the service default.
func (s *InvoiceService) NewInvoice(kind pricing.Kind) (*models.Invoice, error) {
	if kind == "" {
		kind = s.defaultPolicy
	}
	policy, err := pricing.ForKind(kind)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidPolicy, "unknown pricing policy")
	}

	inv := &models.Invoice{
		Date:  s.now().Format(models.DateLayout),
		Items: []models.LineItem{models.NewLineItem()},
	}
	pricing.Recalculate(inv, policy)
	return inv, nil
}

// SetHeaderField updates one customer field.
func (s *InvoiceService) SetHeaderField(inv *models.Invoice, field, value string) error {
	switch field {
	case FieldMobileNumber:
		inv.MobileNumber = mobileInput(value)
	case FieldCustomerName:
		inv.CustomerName = security.SanitizeField(value)
	case FieldSellerName:
		inv.SellerName = security.SanitizeField(value)
	case FieldDate:
		date := strings.TrimSpace(numerals.ToCanonicalDigits(value))
		if _, err := time.Parse(models.DateLayout, date); err != nil {
			return errors.New(errors.ErrCodeValidationFailed, "date must be YYYY-MM-DD")
		}
		inv.Date = date
	default:
		return errors.New(errors.ErrCodeValidationFailed, "unknown field "+field)
	}
	return nil
}

// SetItemField updates one field of the row with the given id and recomputes
// the row and invoice totals.
func (s *InvoiceService) SetItemField(inv *models.Invoice, itemID, field, value string) error {
	item, _ := inv.FindItem(itemID)
	if item == nil {
		return errors.New(errors.ErrCodeNotFound, "item not found")
	}

	switch field {
	case FieldDescription:
		item.Description = security.SanitizeField(value)
	case FieldGrams:
		item.Weight.Grams = numericInput(value, maxWholeDigits)
	case FieldMilligrams:
		item.Weight.Milligrams = numericInput(value, maxMgDigits)
	case FieldKarat:
		item.Karat = numericInput(value, maxWholeDigits)
	case FieldPricePound:
		item.Price.Pound = numericInput(value, maxWholeDigits)
	case FieldPricePiaster:
		item.Price.Piaster = numericInput(value, maxSubDigits)
	case FieldValuePound:
		item.Value.Pound = numericInput(value, maxWholeDigits)
	case FieldValuePiaster:
		item.Value.Piaster = numericInput(value, maxSubDigits)
	case FieldTaxAmount:
		item.Tax.Amount = numericInput(value, maxWholeDigits)
	case FieldTaxNote:
		item.Tax.Note = security.SanitizeField(value)
	case FieldHasTax:
		on, err := parseFlag(value)
		if err != nil {
			return err
		}
		item.HasTax = on
	default:
		return errors.New(errors.ErrCodeValidationFailed, "unknown field "+field)
	}

	pricing.Recalculate(inv, s.PolicyOf(inv))
	return nil
}

// AddItem appends a blank row, refusing past MaxItems.
func (s *InvoiceService) AddItem(inv *models.Invoice) (*models.LineItem, error) {
	if len(inv.Items) >= models.MaxItems {
		return nil, errors.New(errors.ErrCodeLimitExceeded, "an invoice holds at most "+strconv.Itoa(models.MaxItems)+" items")
	}
	inv.Items = append(inv.Items, models.NewLineItem())
	pricing.Recalculate(inv, s.PolicyOf(inv))
	return &inv.Items[len(inv.Items)-1], nil
}

// RemoveItem drops the row with the given id. The last remaining row is kept.
func (s *InvoiceService) RemoveItem(inv *models.Invoice, itemID string) error {
	if len(inv.Items) <= 1 {
		return errors.New(errors.ErrCodeLimitExceeded, "an invoice needs at least one item")
	}
	_, idx := inv.FindItem(itemID)
	if idx < 0 {
		return errors.New(errors.ErrCodeNotFound, "item not found")
	}
	inv.Items = append(inv.Items[:idx], inv.Items[idx+1:]...)
	pricing.Recalculate(inv, s.PolicyOf(inv))
	return nil
}

// Save persists a snapshot of inv and returns its key.
func (s *InvoiceService) Save(ownerTgID int64, inv *models.Invoice) (string, error) {
	snapshot := inv.Clone()
	pricing.Recalculate(snapshot, s.PolicyOf(snapshot))

	key := snapshot.Key(s.now())
	owner, err := s.store.OwnerOf(key)
	if err != nil {
		return "", err
	}
	switch {
	case owner == 0:
		owner = ownerTgID
	case !s.Permits(ownerTgID, owner):
		return "", errors.New(errors.ErrCodeForbidden, "invoice "+key+" belongs to another operator")
	}

	if err := s.store.Save(key, owner, snapshot); err != nil {
		return "", err
	}

	logger.Info("Invoice saved", "key", key, "owner", ownerTgID, "items", len(snapshot.FilledItems()))
	return key, nil
}

// Load returns the invoice stored under key with totals recomputed.
func (s *InvoiceService) Load(key string) (*models.Invoice, error) {
	inv, err := s.store.Load(key)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, errors.New(errors.ErrCodeNotFound, "invoice not found")
	}
	s.normalize(inv)
	return inv, nil
}

// LoadLatest returns the operator's most recently saved invoice.
func (s *InvoiceService) LoadLatest(ownerTgID int64) (string, *models.Invoice, error) {
	key, inv, err := s.store.LoadLatest(ownerTgID)
	if err != nil {
		return "", nil, err
	}
	if inv == nil {
		return "", nil, errors.New(errors.ErrCodeNotFound, "no saved invoices")
	}
	s.normalize(inv)
	return key, inv, nil
}

// OwnerOf returns the operator who owns the stored invoice key, or 0 when
// nothing is stored under it.
func (s *InvoiceService) OwnerOf(key string) (int64, error) {
	return s.store.OwnerOf(key)
}

// Permits reports whether tgID may overwrite or delete an invoice owned by
// owner.
func (s *InvoiceService) Permits(tgID, owner int64) bool {
	return owner == tgID || (s.superAdmin != 0 && tgID == s.superAdmin)
}

// CanAccess reports whether tgID may open or delete the stored invoice key.
// Missing invoices are accessible to nobody.
func (s *InvoiceService) CanAccess(tgID int64, key string) (bool, error) {
	owner, err := s.store.OwnerOf(key)
	if err != nil {
		return false, err
	}
	return owner != 0 && s.Permits(tgID, owner), nil
}

// Summaries lists saved invoices newest first without decrypting them.
// ownerTgID 0 lists every operator's invoices.
func (s *InvoiceService) Summaries(ownerTgID int64, limit int) ([]models.InvoiceSnapshot, error) {
	return s.store.Summaries(ownerTgID, limit)
}

func (s *InvoiceService) List() ([]string, error) {
	return s.store.List()
}

func (s *InvoiceService) ListForOwner(ownerTgID int64) ([]string, error) {
	return s.store.ListByOwner(ownerTgID)
}

func (s *InvoiceService) Delete(key string) error {
	if err := s.store.Delete(key); err != nil {
		return err
	}
	logger.Info("Invoice deleted", "key", key)
	return nil
}

// Import builds a draft from externally supplied rows, such as a receipt
// spreadsheet.
func (s *InvoiceService) Import(kind pricing.Kind, header models.Invoice, items []models.LineItem) (*models.Invoice, error) {
	if len(items) > models.MaxItems {
		return nil, errors.New(errors.ErrCodeLimitExceeded, "an invoice holds at most "+strconv.Itoa(models.MaxItems)+" items")
	}

	inv, err := s.NewInvoice(kind)
	if err != nil {
		return nil, err
	}
	inv.MobileNumber = mobileInput(header.MobileNumber)
	inv.CustomerName = security.SanitizeField(header.CustomerName)
	inv.SellerName = security.SanitizeField(header.SellerName)
	if header.Date != "" {
		if err := s.SetHeaderField(inv, FieldDate, header.Date); err != nil {
			return nil, err
		}
	}

	if len(items) > 0 {
		inv.Items = make([]models.LineItem, len(items))
		for i, li := range items {
			if li.ID == "" {
				li.ID = models.NewLineItem().ID
			}
			li.Description = security.SanitizeField(li.Description)
			li.Tax.Note = security.SanitizeField(li.Tax.Note)
			inv.Items[i] = li
		}
	}
	pricing.Recalculate(inv, s.PolicyOf(inv))
	return inv, nil
}

// normalize restores invariants on snapshots written by older versions.
func (s *InvoiceService) normalize(inv *models.Invoice) {
	if len(inv.Items) == 0 {
		inv.Items = []models.LineItem{models.NewLineItem()}
	}
	for i := range inv.Items {
		if inv.Items[i].ID == "" {
			inv.Items[i].ID = models.NewLineItem().ID
		}
	}
	pricing.Recalculate(inv, s.PolicyOf(inv))
}

func numericInput(value string, max int) models.RawNumber {
	return models.RawNumber(numerals.DigitsOnly(value, max))
}

// mobileInput keeps up to 11 digits in the script the operator typed them.
func mobileInput(value string) string {
	var sb strings.Builder
	count := 0
	for _, r := range value {
		if count == maxMobileDigits {
			break
		}
		if numerals.IsDigit(r) {
			sb.WriteRune(r)
			count++
		}
	}
	return sb.String()
}

func parseFlag(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "yes", "y", "1", "on", "نعم":
		return true, nil
	case "false", "no", "n", "0", "off", "لا", "":
		return false, nil
	}
	return false, errors.New(errors.ErrCodeValidationFailed, "expected yes or no")
}
