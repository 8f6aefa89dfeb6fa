package receipt

import (
	"fmt"
	"io"
	"strings"

	"github.com/mroshb/receipt_bot/internal/models"
	"github.com/mroshb/receipt_bot/pkg/numerals"
	"github.com/xuri/excelize/v2"
)

// Sheet names in exported workbooks.
const (
	ReceiptSheet = "Receipt"
	ItemsSheet   = "Items"
)

var receiptHeader = []interface{}{"الوصف", "جنيه", "قرش", "عيار", "جرام", "مجم", "القيمة"}

var itemsHeader = []interface{}{
	"description", "grams", "milligrams", "karat",
	"price_pound", "price_piaster", "value_pound", "value_piaster",
	"has_tax", "tax_amount", "tax_note",
}

// header field rows at the top of the Items sheet
var itemsFields = []string{"mobileNumber", "customerName", "date", "sellerName", "policy"}

// RenderXLSX writes a workbook with a formatted Receipt sheet, laid out like
// the paper, and a raw Items sheet that ReadXLSX can import again.
func RenderXLSX(w io.Writer, inv *models.Invoice, locale numerals.Locale) error {
	d := Prepare(inv, locale)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ReceiptSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if _, err := f.NewSheet(ItemsSheet); err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}

	if err := writeReceiptSheet(f, d); err != nil {
		return err
	}
	if err := writeItemsSheet(f, inv); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeReceiptSheet(f *excelize.File, d Display) error {
	rtl := true
	if err := f.SetSheetView(ReceiptSheet, 0, &excelize.ViewOptions{RightToLeft: &rtl}); err != nil {
		return fmt.Errorf("failed to set sheet view: %w", err)
	}

	rows := [][]interface{}{
		{"التاريخ", d.Day + "/" + d.Month + "/" + d.Year},
		{"العميل", d.CustomerName},
		{"الموبايل", d.MobileNumber},
		{},
		receiptHeader,
	}
	for _, l := range d.Lines {
		value := l.Value
		if value == "" {
			value = l.Total
		}
		rows = append(rows, []interface{}{l.Description, l.PricePound, l.PricePiaster, l.Karat, l.Grams, l.Milligrams, value})
		if l.HasTax {
			rows = append(rows, []interface{}{"", l.TaxAmount, l.TaxNote})
		}
	}
	rows = append(rows, []interface{}{}, []interface{}{"الإجمالي", d.Total + " " + Currency}, []interface{}{"البائع", d.SellerName})

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(ReceiptSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write receipt row %d: %w", i+1, err)
		}
	}
	return f.SetColWidth(ReceiptSheet, "A", "A", 30)
}

func writeItemsSheet(f *excelize.File, inv *models.Invoice) error {
	values := []string{inv.MobileNumber, inv.CustomerName, inv.Date, inv.SellerName, inv.Policy}
	for i, field := range itemsFields {
		row := []interface{}{field, values[i]}
		if err := f.SetSheetRow(ItemsSheet, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return fmt.Errorf("failed to write %s: %w", field, err)
		}
	}

	top := len(itemsFields) + 2
	if err := f.SetSheetRow(ItemsSheet, fmt.Sprintf("A%d", top), &itemsHeader); err != nil {
		return fmt.Errorf("failed to write items header: %w", err)
	}

	for i, li := range inv.FilledItems() {
		hasTax := ""
		if li.HasTax {
			hasTax = "yes"
		}
		row := []interface{}{
			li.Description,
			li.Weight.Grams.String(), li.Weight.Milligrams.String(), li.Karat.String(),
			li.Price.Pound.String(), li.Price.Piaster.String(),
			li.Value.Pound.String(), li.Value.Piaster.String(),
			hasTax, li.Tax.Amount.String(), li.Tax.Note,
		}
		if err := f.SetSheetRow(ItemsSheet, fmt.Sprintf("A%d", top+1+i), &row); err != nil {
			return fmt.Errorf("failed to write item %d: %w", i+1, err)
		}
	}
	return nil
}

// ReadXLSX reads the header fields and line items back from a workbook
// written by RenderXLSX. Rows without a description are skipped.
func ReadXLSX(r io.Reader) (models.Invoice, []models.LineItem, error) {
	var header models.Invoice

	f, err := excelize.OpenReader(r)
	if err != nil {
		return header, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(ItemsSheet)
	if err != nil {
		return header, nil, fmt.Errorf("workbook has no %s sheet: %w", ItemsSheet, err)
	}

	var items []models.LineItem
	inItems := false
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		if !inItems {
			if strings.EqualFold(strings.TrimSpace(row[0]), "description") {
				inItems = true
				continue
			}
			if len(row) < 2 {
				continue
			}
			switch strings.TrimSpace(row[0]) {
			case "mobileNumber":
				header.MobileNumber = row[1]
			case "customerName":
				header.CustomerName = row[1]
			case "date":
				header.Date = row[1]
			case "sellerName":
				header.SellerName = row[1]
			case "policy":
				header.Policy = row[1]
			}
			continue
		}

		if strings.TrimSpace(row[0]) == "" {
			continue
		}
		items = append(items, itemFromRow(row))
	}

	if !inItems {
		return header, nil, fmt.Errorf("no item table found in %s sheet", ItemsSheet)
	}
	return header, items, nil
}

func itemFromRow(row []string) models.LineItem {
	col := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}
	raw := func(i int) models.RawNumber {
		return models.RawNumber(col(i))
	}

	hasTax := strings.ToLower(col(8))
	return models.LineItem{
		Description: col(0),
		Weight:      models.Weight{Grams: raw(1), Milligrams: raw(2)},
		Karat:       raw(3),
		Price:       models.Money{Pound: raw(4), Piaster: raw(5)},
		Value:       models.Money{Pound: raw(6), Piaster: raw(7)},
		HasTax:      hasTax == "yes" || hasTax == "true" || hasTax == "1",
		Tax:         models.Tax{Amount: raw(9), Note: col(10)},
	}
}
