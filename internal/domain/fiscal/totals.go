package fiscal

import (
	"errors"
	"fmt"

	"github.com/jhoicas/facturacion-arg/internal/domain"
	"github.com/jhoicas/facturacion-arg/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Totals importes agregados de un comprobante.
type Totals struct {
	Subtotal         decimal.Decimal
	TotalTaxes       decimal.Decimal
	TotalPerceptions decimal.Decimal
	Total            decimal.Decimal
}

// ClassifyTaxRate interpreta la alícuota del ítem: -1 exento, -2 no gravado, 0..100 gravado.
// Devuelve la categoría y la alícuota efectiva.
func ClassifyTaxRate(rate decimal.Decimal) (string, decimal.Decimal, error) {
	switch {
	case rate.Equal(entity.TaxRateExempt):
		return entity.TaxCategoryExempt, decimal.Zero, nil
	case rate.Equal(entity.TaxRateNotTaxed):
		return entity.TaxCategoryNotTaxed, decimal.Zero, nil
	case rate.IsNegative() || rate.GreaterThan(hundred):
		return "", decimal.Zero, domain.NewValidationError("tax_rate", rate.String(),
			"debe estar entre 0 y 100, o ser -1 (exento) / -2 (no gravado)", domain.ErrInvalidTaxRate)
	}
	return entity.TaxCategoryTaxed, rate, nil
}

// ComputeLine calcula subtotal, categoría e IVA de un ítem y completa sus campos derivados.
// El redondeo es por línea (half-up a 2 decimales); los agregados suman valores ya redondeados.
func ComputeLine(item *entity.LineItem) error {
	if item == nil {
		return domain.ErrInvalidInput
	}
	qty := Round3(item.Quantity)
	if !qty.IsPositive() {
		return domain.NewValidationError("quantity", item.Quantity.String(), "debe ser mayor a cero", nil)
	}
	price := Round2(item.UnitPrice)
	if price.IsNegative() {
		return domain.NewValidationError("unit_price", item.UnitPrice.String(), "no puede ser negativo", nil)
	}
	if item.DiscountPercentage.IsNegative() || item.DiscountPercentage.GreaterThan(hundred) {
		return domain.NewValidationError("discount_percentage", item.DiscountPercentage.String(), "debe estar entre 0 y 100", nil)
	}
	category, effective, err := ClassifyTaxRate(item.TaxRate)
	if err != nil {
		return err
	}

	lineBase := qty.Mul(price)
	discount := lineBase.Mul(item.DiscountPercentage).Div(hundred)
	lineSubtotal := Round2(lineBase.Sub(discount))

	taxAmount := decimal.Zero
	if category == entity.TaxCategoryTaxed && effective.IsPositive() {
		taxAmount = Percent(lineSubtotal, effective)
	}

	item.Quantity = qty
	item.UnitPrice = price
	item.TaxCategory = category
	item.LineSubtotal = lineSubtotal
	item.TaxAmount = taxAmount
	return nil
}

// ResolvePerceptionBase devuelve la base imponible según BaseType.
func ResolvePerceptionBase(baseType string, subtotal, totalTaxes decimal.Decimal) (decimal.Decimal, error) {
	switch baseType {
	case entity.PerceptionBaseNet:
		return subtotal, nil
	case entity.PerceptionBaseTotal:
		return subtotal.Add(totalTaxes), nil
	case entity.PerceptionBaseVAT:
		return totalTaxes, nil
	}
	return decimal.Zero, domain.NewValidationError("base_type", baseType, "debe ser net, total o vat", nil)
}

// ComputePerception completa BaseAmount y Amount de una percepción.
func ComputePerception(p *entity.Perception, subtotal, totalTaxes decimal.Decimal) error {
	if p == nil {
		return domain.ErrInvalidInput
	}
	base, err := ResolvePerceptionBase(p.BaseType, subtotal, totalTaxes)
	if err != nil {
		return err
	}
	p.BaseAmount = Round2(base)
	if p.Rate != nil {
		if p.Rate.IsNegative() || p.Rate.GreaterThan(hundred) {
			return domain.NewValidationError("perception_rate", p.Rate.String(), "debe estar entre 0 y 100", nil)
		}
		p.Amount = Percent(base, *p.Rate)
		return nil
	}
	if p.Amount.IsNegative() {
		return domain.NewValidationError("perception_amount", p.Amount.String(), "no puede ser negativo", nil)
	}
	p.Amount = Round2(p.Amount)
	return nil
}

// ComputeTotals motor de IVA y totales: calcula cada ítem, luego cada percepción y los agregados.
// requireItems=false permite comprobantes sin ítems (recibos).
func ComputeTotals(items []*entity.LineItem, perceptions []*entity.Perception, requireItems bool) (Totals, error) {
	if requireItems && len(items) == 0 {
		return Totals{}, domain.ErrEmptyItemSet
	}
	var t Totals
	for i, item := range items {
		if err := ComputeLine(item); err != nil {
			return Totals{}, fmt.Errorf("ítem %d: %w", i+1, err)
		}
		t.Subtotal = t.Subtotal.Add(item.LineSubtotal)
		t.TotalTaxes = t.TotalTaxes.Add(item.TaxAmount)
	}
	for i, p := range perceptions {
		if err := ComputePerception(p, t.Subtotal, t.TotalTaxes); err != nil {
			return Totals{}, fmt.Errorf("percepción %d: %w", i+1, err)
		}
		t.TotalPerceptions = t.TotalPerceptions.Add(p.Amount)
	}
	t.Subtotal = Round2(t.Subtotal)
	t.TotalTaxes = Round2(t.TotalTaxes)
	t.TotalPerceptions = Round2(t.TotalPerceptions)
	t.Total = Round2(t.Subtotal.Add(t.TotalTaxes).Add(t.TotalPerceptions))
	return t, nil
}

// ValidateTotals verifica que la cabecera coincida con la suma de ítems y percepciones.
// Se usa al leer comprobantes cargados manualmente o importados.
func ValidateTotals(doc *entity.FiscalDocument, items []*entity.LineItem, perceptions []*entity.Perception) error {
	if doc == nil {
		return fmt.Errorf("%w: comprobante nulo", domain.ErrInvalidInput)
	}
	var errs []error
	var sumSubtotal, sumTax, sumPerc decimal.Decimal
	for _, it := range items {
		sumSubtotal = sumSubtotal.Add(it.LineSubtotal)
		sumTax = sumTax.Add(it.TaxAmount)
	}
	for _, p := range perceptions {
		sumPerc = sumPerc.Add(p.Amount)
	}
	if !doc.Subtotal.Equal(Round2(sumSubtotal)) {
		errs = append(errs, fmt.Errorf("subtotal (%s) no coincide con la suma de ítems (%s)", doc.Subtotal, Round2(sumSubtotal)))
	}
	if !doc.TotalTaxes.Equal(Round2(sumTax)) {
		errs = append(errs, fmt.Errorf("IVA (%s) no coincide con la suma de ítems (%s)", doc.TotalTaxes, Round2(sumTax)))
	}
	if !doc.TotalPerceptions.Equal(Round2(sumPerc)) {
		errs = append(errs, fmt.Errorf("percepciones (%s) no coinciden con el detalle (%s)", doc.TotalPerceptions, Round2(sumPerc)))
	}
	expected := Round2(doc.Subtotal.Add(doc.TotalTaxes).Add(doc.TotalPerceptions))
	if !doc.Total.Equal(expected) {
		errs = append(errs, fmt.Errorf("total (%s) no coincide con subtotal + IVA + percepciones (%s)", doc.Total, expected))
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{domain.ErrInvalidInput}, errs...)...)
	}
	return nil
}
