// Package receipt turns an invoice into display strings and lays them out
// on the pre-printed paper template as PDF, or as a spreadsheet.
package receipt

import (
	"strconv"
	"strings"
	"time"

	"github.com/mroshb/receipt_bot/internal/models"
	"github.com/mroshb/receipt_bot/internal/pricing"
	"github.com/mroshb/receipt_bot/pkg/numerals"
)

// Currency is printed after the invoice total.
const Currency = "ج.م"

// Placeholder fills empty header fields.
const Placeholder = "---"

// Line is one printed row. Every field is ready to draw.
type Line struct {
	Description  string
	Grams        string
	Milligrams   string
	Karat        string
	PricePound   string
	PricePiaster string
	Value        string
	Total        string
	HasTax       bool
	TaxAmount    string
	TaxNote      string
}

// Display is an invoice rendered to strings in one locale.
type Display struct {
	Locale       numerals.Locale
	Policy       pricing.Kind
	Date         string
	Day          string
	Month        string
	Year         string
	MobileNumber string
	CustomerName string
	SellerName   string
	Lines        []Line
	Total        string
	TotalAmount  float64
}

// Prepare formats inv for printing. Blank rows are skipped and totals are
// recomputed, so the display never disagrees with the items.
func Prepare(inv *models.Invoice, locale numerals.Locale) Display {
	policy := pricing.ForInvoice(inv, pricing.DefaultKind)
	snapshot := inv.Clone()
	pricing.Recalculate(snapshot, policy)

	d := Display{
		Locale:       locale,
		Policy:       policy.Kind(),
		Date:         locale.Digits(snapshot.Date),
		MobileNumber: orPlaceholder(locale.Digits(snapshot.MobileNumber)),
		CustomerName: orPlaceholder(snapshot.CustomerName),
		SellerName:   orPlaceholder(snapshot.SellerName),
		TotalAmount:  snapshot.TotalAmount,
		Total:        locale.Format(strconv.FormatFloat(snapshot.TotalAmount, 'f', -1, 64)),
	}
	d.Day, d.Month, d.Year = dateParts(snapshot.Date, locale)

	for _, item := range snapshot.FilledItems() {
		line := Line{
			Description:  item.Description,
			Grams:        formatRaw(item.Weight.Grams, locale),
			Milligrams:   formatRaw(item.Weight.Milligrams, locale),
			Karat:        formatRaw(item.Karat, locale),
			PricePound:   formatRaw(item.Price.Pound, locale),
			PricePiaster: formatRaw(item.Price.Piaster, locale),
			Value:        formatValue(item.Value, locale),
			Total:        locale.FormatAmount(item.Total),
		}
		if item.HasTax && policy.Kind() == pricing.KindPreValued {
			line.HasTax = true
			line.TaxAmount = formatRaw(item.Tax.Amount, locale)
			line.TaxNote = item.Tax.Note
		}
		d.Lines = append(d.Lines, line)
	}
	return d
}

// RowCount returns the number of printed rows, tax rows included.
func (d Display) RowCount() int {
	n := 0
	for _, l := range d.Lines {
		n += l.rows()
	}
	return n
}

func (l Line) rows() int {
	if l.HasTax {
		return 2
	}
	return 1
}

// Summary renders the display as a short plain-text receipt for chat.
func (d Display) Summary() string {
	var sb strings.Builder
	sb.WriteString("📅 " + d.Date + "\n")
	sb.WriteString("👤 " + d.CustomerName + "\n")
	sb.WriteString("📞 " + d.MobileNumber + "\n")
	for i, l := range d.Lines {
		sb.WriteString("\n" + d.Locale.Digits(strconv.Itoa(i+1)) + ". " + l.Description + "\n")
		sb.WriteString("   " + l.Grams)
		if l.Milligrams != "" {
			sb.WriteString(" g " + l.Milligrams + " mg")
		} else {
			sb.WriteString(" g")
		}
		sb.WriteString(" | " + l.Karat + "K")
		if d.Policy == pricing.KindPreValued {
			sb.WriteString(" | " + l.Value)
		} else {
			sb.WriteString(" | " + l.PricePound)
			if l.PricePiaster != "" {
				sb.WriteString("." + l.PricePiaster)
			}
			sb.WriteString(" = " + l.Total)
		}
		sb.WriteString("\n")
		if l.HasTax {
			sb.WriteString("   + " + l.TaxAmount + " " + l.TaxNote + "\n")
		}
	}
	sb.WriteString("\n💰 " + d.Total + " " + Currency)
	return sb.String()
}

func formatRaw(raw models.RawNumber, locale numerals.Locale) string {
	if raw.IsEmpty() {
		return ""
	}
	return locale.Format(string(raw))
}

// formatValue shows pound.piaster, dropping a zero piaster part.
func formatValue(m models.Money, locale numerals.Locale) string {
	value := formatRaw(m.Pound, locale)
	if pricing.SafeParse(m.Piaster).IsPositive() {
		value += "." + formatRaw(m.Piaster, locale)
	}
	return value
}

func dateParts(date string, locale numerals.Locale) (day, month, year string) {
	t, err := time.Parse(models.DateLayout, strings.TrimSpace(numerals.ToCanonicalDigits(date)))
	if err != nil {
		return "--", "--", "----"
	}
	return locale.Digits(strconv.Itoa(t.Day())),
		locale.Digits(strconv.Itoa(int(t.Month()))),
		locale.Digits(strconv.Itoa(t.Year()))
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}
