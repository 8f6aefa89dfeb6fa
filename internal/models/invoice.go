package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/mroshb/receipt_bot/pkg/numerals"
	"github.com/mroshb/receipt_bot/pkg/utils"
)

const (
	// MaxItems is the number of rows the paper template can hold.
	MaxItems = 13
	// KeyPrefix prefixes every persisted invoice key.
	KeyPrefix = "invoice-"
	// DateLayout is the layout of Invoice.Date.
	DateLayout = "2006-01-02"
)

// RawNumber is numeric text exactly as the operator typed it. It may hold
// Arabic-Indic digits, separators or a trailing decimal point. Its numeric
// value is computed on demand and never stored.
type RawNumber string

func (r RawNumber) String() string {
	return string(r)
}

// Canonical returns the text with Western digits and no separators.
func (r RawNumber) Canonical() string {
	return numerals.Canonicalize(string(r))
}

func (r RawNumber) IsEmpty() bool {
	return strings.TrimSpace(string(r)) == ""
}

type Weight struct {
	Grams      RawNumber `json:"grams"`
	Milligrams RawNumber `json:"milligrams"`
}

// Money is an amount split into pounds and piasters (100 piasters = 1 pound).
type Money struct {
	Pound   RawNumber `json:"pound"`
	Piaster RawNumber `json:"piaster"`
}

type Tax struct {
	Amount RawNumber `json:"amount"`
	Note   string    `json:"note"`
}

// LineItem is one row of the receipt. Total is derived by the pricing
// policy and must never be set by hand.
type LineItem struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Weight      Weight    `json:"weight"`
	Karat       RawNumber `json:"karat"`
	Price       Money     `json:"price"`
	Value       Money     `json:"value"`
	Total       float64   `json:"total"`
	HasTax      bool      `json:"hasTax,omitempty"`
	Tax         Tax       `json:"tax"`
}

// NewLineItem returns a blank row with a fresh id.
func NewLineItem() LineItem {
	return LineItem{ID: utils.NewItemID(8)}
}

// IsBlank reports whether the operator has not typed anything in the row.
func (li *LineItem) IsBlank() bool {
	return strings.TrimSpace(li.Description) == "" &&
		li.Weight.Grams.IsEmpty() &&
		li.Weight.Milligrams.IsEmpty() &&
		li.Karat.IsEmpty() &&
		li.Value.Pound.IsEmpty() &&
		li.Value.Piaster.IsEmpty() &&
		li.Price.Pound.IsEmpty() &&
		li.Price.Piaster.IsEmpty() &&
		!li.HasTax
}

// Invoice is the whole receipt. TotalAmount is derived from Items by the
// policy named in Policy.
type Invoice struct {
	MobileNumber string     `json:"mobileNumber"`
	Date         string     `json:"date"`
	CustomerName string     `json:"customerName"`
	SellerName   string     `json:"sellerName,omitempty"`
	Items        []LineItem `json:"items"`
	TotalAmount  float64    `json:"totalAmount"`
	Policy       string     `json:"policy,omitempty"`
}

// Key derives the storage key: the canonical mobile number when present,
// otherwise the save time in unix milliseconds.
func (inv *Invoice) Key(now time.Time) string {
	if mobile := numerals.DigitsOnly(inv.MobileNumber, 0); mobile != "" {
		return KeyPrefix + mobile
	}
	return KeyPrefix + strconv.FormatInt(now.UnixMilli(), 10)
}

// FindItem returns the row with the given id and its index, or nil and -1.
func (inv *Invoice) FindItem(id string) (*LineItem, int) {
	for i := range inv.Items {
		if inv.Items[i].ID == id {
			return &inv.Items[i], i
		}
	}
	return nil, -1
}

// FilledItems returns the rows that are not blank.
func (inv *Invoice) FilledItems() []LineItem {
	filled := make([]LineItem, 0, len(inv.Items))
	for i := range inv.Items {
		if !inv.Items[i].IsBlank() {
			filled = append(filled, inv.Items[i])
		}
	}
	return filled
}

// Clone returns a deep copy so callers can render or persist a snapshot
// while the draft keeps changing.
func (inv *Invoice) Clone() *Invoice {
	c := *inv
	c.Items = append([]LineItem(nil), inv.Items...)
	return &c
}

// KeyLabel turns a storage key into a short label for menus.
func KeyLabel(key string) string {
	label := strings.TrimPrefix(key, KeyPrefix)
	if len(label) != 11 {
		if _, err := strconv.ParseInt(label, 10, 64); err == nil {
			return "Untitled invoice"
		}
	}
	return label
}
