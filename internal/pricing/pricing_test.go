package pricing

import (
	"testing"

	"github.com/mroshb/receipt_bot/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weightItem(grams, mg, pound, piaster string) models.LineItem {
	return models.LineItem{
		Weight: models.Weight{Grams: models.RawNumber(grams), Milligrams: models.RawNumber(mg)},
		Price:  models.Money{Pound: models.RawNumber(pound), Piaster: models.RawNumber(piaster)},
	}
}

func valueItem(pound, piaster string) models.LineItem {
	return models.LineItem{
		Value: models.Money{Pound: models.RawNumber(pound), Piaster: models.RawNumber(piaster)},
	}
}

func TestSafeParse(t *testing.T) {
	tests := []struct {
		raw  models.RawNumber
		want string
	}{
		{raw: "", want: "0"},
		{raw: "abc", want: "0"},
		{raw: "12", want: "12"},
		{raw: "١٢٫", want: "12"},
		{raw: "1,250.5", want: "1250.5"},
		{raw: "١،٢٥٠", want: "1250"},
		{raw: "12abc", want: "12"},
		{raw: ".75", want: "0.75"},
	}

	for _, tt := range tests {
		t.Run(string(tt.raw), func(t *testing.T) {
			assert.True(t, SafeParse(tt.raw).Equal(decimal.RequireFromString(tt.want)),
				"SafeParse(%q) = %s, want %s", tt.raw, SafeParse(tt.raw), tt.want)
		})
	}
}

func TestWeightPriced_RowTotal(t *testing.T) {
	p := WeightPriced{}

	tests := []struct {
		name string
		item models.LineItem
		want float64
	}{
		{name: "Sub-units", item: weightItem("10", "500", "100", "50"), want: 1055.25},
		{name: "Arabic digits", item: weightItem("١٠", "٥٠٠", "١٠٠", "٥٠"), want: 1055.25},
		{name: "Separators", item: weightItem("2", "", "3,500", ""), want: 7000},
		{name: "Rounds half up", item: weightItem("0", "5", "1", ""), want: 0.01},
		{name: "Rounds down below half", item: weightItem("0", "4", "1", ""), want: 0},
		{name: "No price", item: weightItem("10", "", "", ""), want: 0},
		{name: "All empty", item: models.LineItem{}, want: 0},
		{name: "Garbage", item: weightItem("x", "y", "z", "w"), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.RowTotal(&tt.item))
		})
	}
}

func TestWeightPriced_InvoiceTotal(t *testing.T) {
	p := WeightPriced{}

	items := []models.LineItem{
		weightItem("10", "500", "100", "50"),
		weightItem("1", "", "0", "33"),
		weightItem("0", "5", "1", ""),
	}
	assert.Equal(t, 1055.59, p.InvoiceTotal(items))
	assert.Equal(t, 0.0, p.InvoiceTotal(nil))
}

func TestPreValued_RowTotal(t *testing.T) {
	p := PreValued{}

	item := valueItem("200", "25")
	assert.Equal(t, 200.25, p.RowTotal(&item))

	// weight and price are ignored
	item = weightItem("10", "500", "100", "50")
	assert.Equal(t, 0.0, p.RowTotal(&item))

	empty := models.LineItem{}
	assert.Equal(t, 0.0, p.RowTotal(&empty))
}

func TestPreValued_InvoiceTotal(t *testing.T) {
	p := PreValued{}

	taxed := valueItem("1000", "")
	taxed.HasTax = true
	taxed.Tax = models.Tax{Amount: "140", Note: "ضريبة"}

	untaxed := valueItem("200", "25")
	untaxed.Tax = models.Tax{Amount: "999"}

	items := []models.LineItem{taxed, untaxed}
	assert.Equal(t, 1340.25, p.InvoiceTotal(items))
	assert.Equal(t, 0.0, p.InvoiceTotal([]models.LineItem{}))
}

func TestInvoiceTotalIsSumOfRows(t *testing.T) {
	items := []models.LineItem{
		weightItem("3", "250", "2450", "75"),
		weightItem("7", "125", "2450", "75"),
		valueItem("100", "10"),
	}

	for _, p := range []Policy{WeightPriced{}, PreValued{}} {
		sum := decimal.Zero
		for i := range items {
			sum = sum.Add(decimal.NewFromFloat(p.RowTotal(&items[i])))
		}
		assert.InDelta(t, sum.InexactFloat64(), p.InvoiceTotal(items), 0.005, "policy %s", p.Kind())
	}
}

func TestRecalculate(t *testing.T) {
	inv := &models.Invoice{Items: []models.LineItem{
		weightItem("10", "500", "100", "50"),
		valueItem("200", "25"),
	}}

	Recalculate(inv, WeightPriced{})
	assert.Equal(t, string(KindWeightPriced), inv.Policy)
	assert.Equal(t, 1055.25, inv.Items[0].Total)
	assert.Equal(t, 0.0, inv.Items[1].Total)
	assert.Equal(t, 1055.25, inv.TotalAmount)

	Recalculate(inv, PreValued{})
	assert.Equal(t, string(KindPreValued), inv.Policy)
	assert.Equal(t, 0.0, inv.Items[0].Total)
	assert.Equal(t, 200.25, inv.Items[1].Total)
	assert.Equal(t, 200.25, inv.TotalAmount)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("weight_priced")
	require.NoError(t, err)
	assert.Equal(t, KindWeightPriced, k)

	k, err = ParseKind(" B ")
	require.NoError(t, err)
	assert.Equal(t, KindPreValued, k)

	_, err = ParseKind("mystery")
	assert.Error(t, err)
}

func TestForInvoice(t *testing.T) {
	assert.Equal(t, KindPreValued, ForInvoice(&models.Invoice{Policy: "pre_valued"}, KindWeightPriced).Kind())
	assert.Equal(t, KindPreValued, ForInvoice(&models.Invoice{}, KindPreValued).Kind())
	assert.Equal(t, KindWeightPriced, ForInvoice(&models.Invoice{Policy: "junk"}, "also junk").Kind())
}

func TestRoundHalfUp(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "1.005", want: "1.01"},
		{in: "1.004", want: "1"},
		{in: "2.5", want: "2.5"},
		{in: "-1.005", want: "-1"},
		{in: "1055.25", want: "1055.25"},
	}

	for _, tt := range tests {
		got := RoundHalfUp(decimal.RequireFromString(tt.in))
		assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "RoundHalfUp(%s) = %s, want %s", tt.in, got, tt.want)
	}
}
