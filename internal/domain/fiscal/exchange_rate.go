package fiscal

import (
	"strings"

	"github.com/jhoicas/facturacion-arg/internal/domain"
	"github.com/shopspring/decimal"
)

// LocalCurrency código AFIP de pesos argentinos.
const LocalCurrency = "PES"

// DefaultMaxExchangeRate tope de cordura para cotizaciones (pesos por unidad de moneda extranjera).
var DefaultMaxExchangeRate = decimal.NewFromInt(100000)

// NormalizeExchangeRate valida la cotización y la devuelve a 4 decimales.
// Se guarda como multiplicador simple: una cotización sincronizada dividida o multiplicada
// por 10000 cae fuera de (0, max) y se rechaza en la carga.
// Cero se interpreta como "no informada" y vale 1. Para moneda local la cotización es siempre 1.
func NormalizeExchangeRate(currency string, rate, max decimal.Decimal) (decimal.Decimal, error) {
	if max.IsZero() {
		max = DefaultMaxExchangeRate
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if rate.IsZero() {
		return decimal.NewFromInt(1), nil
	}
	if currency == "" || currency == LocalCurrency {
		if !rate.Equal(decimal.NewFromInt(1)) {
			return decimal.Zero, domain.NewValidationError("exchange_rate", rate.String(),
				"la moneda local debe tener cotización 1", domain.ErrInvalidExchangeRate)
		}
		return decimal.NewFromInt(1), nil
	}
	rounded := Round4(rate)
	if !rounded.IsPositive() || !rounded.LessThan(max) {
		return decimal.Zero, domain.NewValidationError("exchange_rate", rate.String(),
			"debe ser mayor a 0 y menor a "+max.String(), domain.ErrInvalidExchangeRate)
	}
	return rounded, nil
}
