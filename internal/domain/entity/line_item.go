package entity

import "github.com/shopspring/decimal"

// Categorías de IVA del ítem (derivadas de TaxRate).
const (
	TaxCategoryTaxed    = "taxed"
	TaxCategoryExempt   = "exempt"
	TaxCategoryNotTaxed = "not_taxed"
)

// Sentinels de TaxRate.
var (
	TaxRateExempt   = decimal.NewFromInt(-1)
	TaxRateNotTaxed = decimal.NewFromInt(-2)
)

// LineItem representa una línea de un comprobante.
type LineItem struct {
	ID                 string
	DocumentID         string
	Description        string
	Quantity           decimal.Decimal // 3 decimales, > 0
	UnitPrice          decimal.Decimal // 2 decimales, >= 0
	DiscountPercentage decimal.Decimal // 0..100
	TaxRate            decimal.Decimal // 0..100, -1 exento, -2 no gravado
	TaxCategory        string
	TaxAmount          decimal.Decimal
	LineSubtotal       decimal.Decimal
	OrderIndex         int
}
