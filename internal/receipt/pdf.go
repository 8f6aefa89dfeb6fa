package receipt

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/mroshb/receipt_bot/internal/models"
	"github.com/mroshb/receipt_bot/internal/pricing"
	"github.com/mroshb/receipt_bot/pkg/numerals"
)

// PageSize is the physical size of the pre-printed receipt paper in mm.
type PageSize struct {
	Name   string
	Width  float64
	Height float64
}

var (
	PageA5     = PageSize{Name: "a5", Width: 148, Height: 210}
	PageCustom = PageSize{Name: "custom", Width: 160, Height: 200}
)

func ParsePageSize(s string) (PageSize, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case PageA5.Name, "148x210":
		return PageA5, nil
	case PageCustom.Name, "160x200":
		return PageCustom, nil
	}
	return PageSize{}, fmt.Errorf("unknown receipt page %q", s)
}

// Options controls PDF rendering. Without FontPath the core Helvetica font
// is used, which cannot draw Arabic, so digits fall back to Western.
type Options struct {
	Locale   numerals.Locale
	Page     PageSize
	FontPath string
}

const (
	fontFamily = "receipt"
	fontSize   = 13
	noteSize   = 10

	headerTop  = 35.0
	dateTop    = headerTop + 4
	nameTop    = headerTop + 11
	fieldH     = 6.0
	tableTop   = 73.0
	tableRight = 8.5
	rowH       = 6.5
	footerGap  = 32.0
	footerH    = 7.0
)

// column is one table cell, positioned by its distance from the right edge.
type column struct {
	right float64
	width float64
}

// Table columns, right to left.
var (
	colValue       = column{right: tableRight, width: 23}
	colMilligrams  = column{right: colValue.right + 23, width: 11}
	colGrams       = column{right: colMilligrams.right + 11, width: 16}
	colKarat       = column{right: colGrams.right + 16, width: 11}
	colPiaster     = column{right: colKarat.right + 11, width: 11}
	colPound       = column{right: colPiaster.right + 11, width: 15}
	colDescription = column{right: colPound.right + 15, width: 50}
	// the tax note spans milligrams through piaster
	colTaxNote = column{right: colMilligrams.right, width: 49}
)

type pdfRenderer struct {
	pdf      *gofpdf.Fpdf
	page     PageSize
	tr       func(string) string
	currency string
}

// MaxRows is the number of table rows that fit between the table top and
// the footer.
func (p PageSize) MaxRows() int {
	return int((p.Height - footerGap - footerH - tableTop) / rowH)
}

// paginate splits the lines into sheets of at most maxRows printed rows. An
// item is never separated from its tax row.
func paginate(d Display, maxRows int) [][]Line {
	if d.RowCount() <= maxRows {
		return [][]Line{d.Lines}
	}

	var pages [][]Line
	var current []Line
	used := 0
	for _, l := range d.Lines {
		n := l.rows()
		if used+n > maxRows && len(current) > 0 {
			pages = append(pages, current)
			current, used = nil, 0
		}
		current = append(current, l)
		used += n
	}
	return append(pages, current)
}

// RenderPDF draws d onto pages sized for the receipt paper. Every sheet
// repeats the customer header; the total is printed on the last one.
func RenderPDF(w io.Writer, d Display, opts Options) error {
	page := opts.Page
	if page.Width == 0 {
		page = PageA5
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: page.Width, Ht: page.Height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle("Receipt", true)

	r := &pdfRenderer{pdf: pdf, page: page, currency: Currency}
	if opts.FontPath != "" {
		pdf.AddUTF8Font(fontFamily, "", opts.FontPath)
		r.tr = func(s string) string { return s }
	} else {
		d = westernize(d)
		r.tr = pdf.UnicodeTranslatorFromDescriptor("")
		r.currency = "EGP"
	}
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to load receipt font: %w", err)
	}

	utf8 := opts.FontPath != ""
	pages := paginate(d, page.MaxRows())
	for i, lines := range pages {
		pdf.AddPage()
		r.setFont(utf8, fontSize)
		r.header(d)
		r.items(d.Policy, lines, utf8)
		if i == len(pages)-1 {
			r.footer(d)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write receipt: %w", err)
	}
	return nil
}

// PDF prepares inv and renders it into memory.
func PDF(inv *models.Invoice, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := RenderPDF(&buf, Prepare(inv, opts.Locale), opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *pdfRenderer) setFont(utf8 bool, size float64) {
	if utf8 {
		r.pdf.SetFont(fontFamily, "", size)
		return
	}
	r.pdf.SetFont("Helvetica", "B", size)
}

// cell draws text centred in a box positioned from the right edge.
func (r *pdfRenderer) cell(right, top, width, height float64, text string) {
	if text == "" {
		return
	}
	r.pdf.SetXY(r.page.Width-right-width, top)
	r.pdf.CellFormat(width, height, r.tr(text), "", 0, "C", false, 0, "")
}

func (r *pdfRenderer) header(d Display) {
	r.cell(22, dateTop, 10, fieldH, d.Day)
	r.cell(37.5, dateTop, 10, fieldH, d.Month)
	r.cell(51, dateTop, 10, fieldH, d.Year)

	r.cell(30, nameTop, 48, fieldH, d.CustomerName)
	r.cell(96, nameTop, 30, fieldH, d.MobileNumber)
}

func (r *pdfRenderer) items(policy pricing.Kind, lines []Line, utf8 bool) {
	y := tableTop
	for _, l := range lines {
		value := l.Value
		if policy == pricing.KindWeightPriced {
			value = l.Total
		}
		r.col(colValue, y, value)
		r.col(colMilligrams, y, l.Milligrams)
		r.col(colGrams, y, l.Grams)
		r.col(colKarat, y, l.Karat)
		r.col(colPiaster, y, l.PricePiaster)
		r.col(colPound, y, l.PricePound)
		r.col(colDescription, y, l.Description)
		y += rowH

		if l.HasTax {
			r.setFont(utf8, noteSize)
			r.col(colTaxNote, y, l.TaxNote)
			r.setFont(utf8, fontSize)
			r.col(colPound, y, l.TaxAmount)
			y += rowH
		}
	}
}

func (r *pdfRenderer) col(c column, top float64, text string) {
	r.cell(c.right, top, c.width, rowH, text)
}

func (r *pdfRenderer) footer(d Display) {
	top := r.page.Height - footerGap - footerH
	r.cell(tableRight, top, colValue.width, footerH, d.Total+" "+r.currency)

	// seller is positioned from the left edge
	r.pdf.SetXY(10, top)
	r.pdf.CellFormat(48, footerH, r.tr(d.SellerName), "", 0, "C", false, 0, "")
}

// westernize prepares a display for the core font, which only covers
// Latin-1: digits become Western.
func westernize(d Display) Display {
	conv := numerals.Western.Digits
	out := d
	out.Locale = numerals.Western
	out.Day, out.Month, out.Year = conv(d.Day), conv(d.Month), conv(d.Year)
	out.Date = conv(d.Date)
	out.MobileNumber = conv(d.MobileNumber)
	out.Total = westernNumber(d.Total)
	out.Lines = make([]Line, len(d.Lines))
	for i, l := range d.Lines {
		l.Grams = westernNumber(l.Grams)
		l.Milligrams = westernNumber(l.Milligrams)
		l.Karat = westernNumber(l.Karat)
		l.PricePound = westernNumber(l.PricePound)
		l.PricePiaster = westernNumber(l.PricePiaster)
		l.Value = westernNumber(l.Value)
		l.Total = westernNumber(l.Total)
		l.TaxAmount = westernNumber(l.TaxAmount)
		out.Lines[i] = l
	}
	return out
}

func westernNumber(s string) string {
	return numerals.Western.Digits(strings.ReplaceAll(s, string(numerals.ArabicSeparator), string(numerals.WesternSeparator)))
}
