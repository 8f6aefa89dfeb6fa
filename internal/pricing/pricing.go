// Package pricing turns invoice rows into monetary totals.
//
// Two policies exist and must not be merged: WeightPriced multiplies the
// unit price by the weight, PreValued trusts the value the operator typed
// and adds any per-row tax. A deployment picks one; every invoice records
// the policy it was created with.
package pricing

import (
	"fmt"
	"strings"

	"github.com/mroshb/receipt_bot/internal/models"
	"github.com/mroshb/receipt_bot/pkg/numerals"
	"github.com/shopspring/decimal"
)

// Kind tags a pricing policy.
type Kind string

const (
	KindWeightPriced Kind = "weight_priced"
	KindPreValued    Kind = "pre_valued"
)

// DefaultKind is used when neither configuration nor a snapshot names one.
const DefaultKind = KindWeightPriced

const (
	piasterScale    = 2 // 100 piasters = 1 pound
	milligramScale  = 3 // 1000 mg = 1 g
	roundingDecimal = 2
)

// Policy computes row and invoice totals. Implementations are pure.
type Policy interface {
	Kind() Kind
	RowTotal(item *models.LineItem) float64
	InvoiceTotal(items []models.LineItem) float64
}

// ParseKind accepts the tag names plus the short aliases "a"/"b".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(KindWeightPriced), "weight", "a":
		return KindWeightPriced, nil
	case string(KindPreValued), "value", "b":
		return KindPreValued, nil
	}
	return "", fmt.Errorf("unknown pricing policy %q", s)
}

// ForKind returns the policy for a tag.
func ForKind(k Kind) (Policy, error) {
	switch k {
	case KindWeightPriced:
		return WeightPriced{}, nil
	case KindPreValued:
		return PreValued{}, nil
	}
	return nil, fmt.Errorf("unknown pricing policy %q", k)
}

// ForInvoice returns the policy recorded on inv, or fallback when the
// invoice predates policy tagging or names an unknown one.
func ForInvoice(inv *models.Invoice, fallback Kind) Policy {
	if p, err := ForKind(Kind(inv.Policy)); err == nil {
		return p
	}
	if p, err := ForKind(fallback); err == nil {
		return p
	}
	return WeightPriced{}
}

// Recalculate stores every row total and the invoice total computed by p.
func Recalculate(inv *models.Invoice, p Policy) {
	inv.Policy = string(p.Kind())
	for i := range inv.Items {
		inv.Items[i].Total = p.RowTotal(&inv.Items[i])
	}
	inv.TotalAmount = p.InvoiceTotal(inv.Items)
}

// SafeParse reads raw operator text as a number. Digits may be Arabic-Indic
// and may carry separators; anything without a numeric prefix is zero.
func SafeParse(raw models.RawNumber) decimal.Decimal {
	lit := numerals.LeadingNumber(string(raw))
	if lit == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(lit)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Combine joins a whole unit and its sub-unit: whole + sub / 10^scale.
func Combine(whole, sub models.RawNumber, scale int32) decimal.Decimal {
	return SafeParse(whole).Add(SafeParse(sub).Shift(-scale))
}

// PriceOf returns pound + piaster/100.
func PriceOf(m models.Money) decimal.Decimal {
	return Combine(m.Pound, m.Piaster, piasterScale)
}

// WeightOf returns grams + milligrams/1000.
func WeightOf(w models.Weight) decimal.Decimal {
	return Combine(w.Grams, w.Milligrams, milligramScale)
}

// RoundHalfUp rounds to two decimals, halves going up (toward +inf).
func RoundHalfUp(d decimal.Decimal) decimal.Decimal {
	return d.Shift(roundingDecimal).Add(decimal.New(5, -1)).Floor().Shift(-roundingDecimal)
}
