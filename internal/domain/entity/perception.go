package entity

import "github.com/shopspring/decimal"

// Clases de percepción/retención.
const (
	PerceptionKindPerception = "perception"
	PerceptionKindRetention  = "retention"
)

// Bases de cálculo.
const (
	PerceptionBaseNet   = "net"   // subtotal
	PerceptionBaseTotal = "total" // subtotal + IVA
	PerceptionBaseVAT   = "vat"   // IVA
)

// Perception percepción o retención aplicada sobre el comprobante (IIBB, IVA, Ganancias...).
type Perception struct {
	ID           string
	DocumentID   string
	Kind         string
	Name         string
	Jurisdiction string
	BaseType     string
	Rate         *decimal.Decimal // nil si Amount viene informado directamente
	BaseAmount   decimal.Decimal
	Amount       decimal.Decimal
}
