package pricing

import (
	"github.com/mroshb/receipt_bot/internal/models"
	"github.com/shopspring/decimal"
)

// WeightPriced prices a row as unit price times weight, rounded to the
// piaster. The invoice total is the rounded sum of the rows.
type WeightPriced struct{}

func (WeightPriced) Kind() Kind {
	return KindWeightPriced
}

func (p WeightPriced) RowTotal(item *models.LineItem) float64 {
	return p.row(item).InexactFloat64()
}

func (p WeightPriced) InvoiceTotal(items []models.LineItem) float64 {
	sum := decimal.Zero
	for i := range items {
		sum = sum.Add(p.row(&items[i]))
	}
	return RoundHalfUp(sum).InexactFloat64()
}

func (WeightPriced) row(item *models.LineItem) decimal.Decimal {
	return RoundHalfUp(PriceOf(item.Price).Mul(WeightOf(item.Weight)))
}

// PreValued takes the typed value of each row as authoritative. The invoice
// total adds the tax amount of every taxed row. Nothing is rounded.
type PreValued struct{}

func (PreValued) Kind() Kind {
	return KindPreValued
}

func (p PreValued) RowTotal(item *models.LineItem) float64 {
	return PriceOf(item.Value).InexactFloat64()
}

func (PreValued) InvoiceTotal(items []models.LineItem) float64 {
	sum := decimal.Zero
	for i := range items {
		sum = sum.Add(PriceOf(items[i].Value))
		if items[i].HasTax {
			sum = sum.Add(SafeParse(items[i].Tax.Amount))
		}
	}
	return sum.InexactFloat64()
}
