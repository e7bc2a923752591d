package fiscal

import (
	"fmt"
	"time"

	"github.com/jhoicas/facturacion-arg/internal/domain"
	"github.com/jhoicas/facturacion-arg/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// NoteOutcome resultado de aplicar una NC/ND sobre el comprobante original.
type NoteOutcome struct {
	PreviousBalance decimal.Decimal
	NewBalance      decimal.Decimal
	Delta           decimal.Decimal // negativo para NC, positivo para ND
	Excess          decimal.Decimal // monto de NC que no pudo aplicarse (saldo ya en cero)
	NeedsReview     bool
}

// Warning devuelve ErrExcessiveCreditNote cuando la NC superó el saldo; nil si no.
func (o NoteOutcome) Warning() error {
	if o.NeedsReview {
		return fmt.Errorf("%w: excedente %s", domain.ErrExcessiveCreditNote, o.Excess.StringFixed(2))
	}
	return nil
}

// ApplyNote ajusta el saldo pendiente del original: la NC lo reduce y la ND lo aumenta.
// Si la NC supera el saldo, el saldo queda en cero y el original se marca para revisión.
func ApplyNote(parent *entity.FiscalDocument, noteType entity.DocumentType, noteTotal decimal.Decimal, now time.Time) (NoteOutcome, error) {
	if parent == nil {
		return NoteOutcome{}, domain.ErrRelatedDocumentNotFound
	}
	if !noteType.IsNote() {
		return NoteOutcome{}, domain.NewValidationError("type", string(noteType), "no es nota de crédito/débito", nil)
	}
	if noteTotal.IsNegative() {
		return NoteOutcome{}, domain.NewValidationError("total", noteTotal.String(), "no puede ser negativo", nil)
	}
	out := NoteOutcome{PreviousBalance: parent.BalancePending}
	if noteType.IsDebitNote() {
		out.Delta = Round2(noteTotal)
		out.NewBalance = Round2(parent.BalancePending.Add(noteTotal))
	} else {
		out.Delta = Round2(noteTotal).Neg()
		raw := Round2(parent.BalancePending.Sub(noteTotal))
		if raw.IsNegative() {
			out.Excess = raw.Neg()
			out.NeedsReview = true
		}
		out.NewBalance = ClampZero(raw)
	}
	parent.BalancePending = out.NewBalance
	if out.NeedsReview {
		parent.NeedsReview = true
	}
	parent.UpdatedAt = now
	return out, nil
}

// MirrorParentStatus copia los estados del original en la NC/ND. Devuelve true si hubo cambio.
// Las NC/ND siguen el destino fiscal del comprobante al que ajustan. El authorization_status
// copiado no implica CAE propio: para la nota vale IsAuthorized, que exige código vigente.
func MirrorParentStatus(note, parent *entity.FiscalDocument, now time.Time) bool {
	if note.BusinessStatus == parent.BusinessStatus && note.AuthorizationStatus == parent.AuthorizationStatus {
		return false
	}
	note.BusinessStatus = parent.BusinessStatus
	note.AuthorizationStatus = parent.AuthorizationStatus
	note.UpdatedAt = now
	return true
}

// StatusDrifted indica si la NC/ND quedó desalineada respecto del original.
func StatusDrifted(note, parent *entity.FiscalDocument) bool {
	return note.BusinessStatus != parent.BusinessStatus || note.AuthorizationStatus != parent.AuthorizationStatus
}

// ComputeNetAmount valida las retenciones y devuelve Amount - Σ retenciones.
// Una retención con Amount cero y Rate informado se calcula como BaseAmount * Rate / 100
// (BaseAmount cero toma el bruto).
func ComputeNetAmount(amount decimal.Decimal, retentions []entity.Retention) (decimal.Decimal, []entity.Retention, error) {
	gross := Round2(amount)
	if !gross.IsPositive() {
		return decimal.Zero, nil, domain.NewValidationError("amount", amount.String(), "debe ser mayor a cero", nil)
	}
	out := make([]entity.Retention, len(retentions))
	total := decimal.Zero
	for i, r := range retentions {
		if r.Amount.IsNegative() || r.Rate.IsNegative() || r.Rate.GreaterThan(hundred) || r.BaseAmount.IsNegative() {
			return decimal.Zero, nil, domain.NewValidationError(fmt.Sprintf("retentions[%d]", i), r.Amount.String(), "valores fuera de rango", nil)
		}
		if r.Amount.IsZero() && r.Rate.IsPositive() {
			if r.BaseAmount.IsZero() {
				r.BaseAmount = gross
			}
			r.Amount = Percent(r.BaseAmount, r.Rate)
		}
		r.Amount = Round2(r.Amount)
		r.BaseAmount = Round2(r.BaseAmount)
		total = total.Add(r.Amount)
		out[i] = r
	}
	if total.GreaterThan(gross) {
		return decimal.Zero, nil, domain.NewValidationError("retentions", total.String(), "las retenciones superan el importe bruto", nil)
	}
	return Round2(gross.Sub(total)), out, nil
}

// SettlementOutcome resultado de imputar un pago/cobro neto contra el saldo.
type SettlementOutcome struct {
	PreviousBalance decimal.Decimal
	NewBalance      decimal.Decimal
	Applied         decimal.Decimal
	Excess          decimal.Decimal
	NeedsReview     bool
	TargetStatus    entity.BusinessStatus // vacío si no corresponde transición
}

// ApplySettlement descuenta net del saldo (nunca por debajo de cero) y calcula el estado destino.
// No transiciona: el caller decide con Transition dentro de la misma transacción.
func ApplySettlement(doc *entity.FiscalDocument, net decimal.Decimal, now time.Time) SettlementOutcome {
	out := SettlementOutcome{PreviousBalance: doc.BalancePending}
	raw := Round2(doc.BalancePending.Sub(net))
	if raw.IsNegative() {
		out.Excess = raw.Neg()
		out.NeedsReview = true
		doc.NeedsReview = true
	}
	out.NewBalance = ClampZero(raw)
	out.Applied = out.PreviousBalance.Sub(out.NewBalance)
	doc.BalancePending = out.NewBalance
	doc.UpdatedAt = now
	out.TargetStatus = SettlementTargetStatus(doc)
	return out
}
