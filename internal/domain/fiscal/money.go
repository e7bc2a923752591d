// Package fiscal contiene las reglas puras del núcleo fiscal: redondeos, cálculo de IVA y
// percepciones, máquina de estados del comprobante y propagación de saldos. No hace I/O.
package fiscal

import "github.com/shopspring/decimal"

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.New(5, -1)
)

// Escalas de redondeo.
const (
	CurrencyPlaces     = 2
	QuantityPlaces     = 3
	RatePlaces         = 2
	ExchangeRatePlaces = 4
)

// RoundHalfUp redondea hacia +∞ cuando la parte descartada es exactamente la mitad.
// decimal.Round redondea "half away from zero", que difiere para montos negativos.
func RoundHalfUp(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Shift(places).Add(half).Floor().Shift(-places)
}

// Round2 redondeo monetario (2 decimales).
func Round2(d decimal.Decimal) decimal.Decimal { return RoundHalfUp(d, CurrencyPlaces) }

// Round3 redondeo de cantidades (3 decimales).
func Round3(d decimal.Decimal) decimal.Decimal { return RoundHalfUp(d, QuantityPlaces) }

// Round4 redondeo de cotizaciones (4 decimales).
func Round4(d decimal.Decimal) decimal.Decimal { return RoundHalfUp(d, ExchangeRatePlaces) }

// Percent devuelve base * rate / 100 redondeado a 2 decimales.
func Percent(base, rate decimal.Decimal) decimal.Decimal {
	return Round2(base.Mul(rate).Div(hundred))
}

// ClampZero devuelve max(0, d).
func ClampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
