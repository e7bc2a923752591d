package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un pago/cobro.
const (
	SettlementStatusDeclared  = "declared"
	SettlementStatusConfirmed = "confirmed"
	SettlementStatusRejected  = "rejected"
)

// Medios de pago habituales.
const (
	SettlementMethodCash     = "cash"
	SettlementMethodTransfer = "transfer"
	SettlementMethodCheck    = "check"
	SettlementMethodECheq    = "echeq"
	SettlementMethodCard     = "card"
)

// Retention retención sufrida/practicada sobre un pago (Ganancias, IVA, IIBB, SUSS).
type Retention struct {
	Type       string
	Rate       decimal.Decimal
	BaseAmount decimal.Decimal
	Amount     decimal.Decimal
}

// Settlement unifica pagos y cobros aplicados contra el saldo de un comprobante.
// Una vez confirmado es inmutable.
type Settlement struct {
	ID              string
	DocumentID      string
	Amount          decimal.Decimal // bruto
	Retentions      []Retention
	NetAmount       decimal.Decimal // Amount - Σ Retentions.Amount
	Method          string
	Status          string
	RejectionReason string
	RegisteredBy    string
	RegisteredAt    time.Time
	ConfirmedBy     string
	ConfirmedAt     *time.Time
	UpdatedAt       time.Time
}

// IsConfirmed indica si el pago/cobro ya impactó el saldo.
func (s *Settlement) IsConfirmed() bool {
	return s.Status == SettlementStatusConfirmed
}
