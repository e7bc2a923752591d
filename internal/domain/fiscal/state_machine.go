package fiscal

import (
	"strings"
	"time"

	"github.com/jhoicas/facturacion-arg/internal/domain"
	"github.com/jhoicas/facturacion-arg/internal/domain/entity"
)

// Ejes de estado, usados en TransitionError.
const (
	AxisBusiness      = "business"
	AxisAuthorization = "authorization"
)

// businessTransitions transiciones de negocio permitidas (origen -> destinos).
// Las guardas de saldo, autorización y tipo se validan aparte en checkGuards.
var businessTransitions = map[entity.BusinessStatus][]entity.BusinessStatus{
	entity.StatusPendingApproval: {entity.StatusApproved, entity.StatusRejected, entity.StatusCancelled},
	entity.StatusApproved:        {entity.StatusIssued, entity.StatusRejected, entity.StatusCorrecting, entity.StatusCancelled},
	entity.StatusIssued: {
		entity.StatusPaid, entity.StatusCollected, entity.StatusPartiallyCancelled, entity.StatusOverdue,
		entity.StatusRejected, entity.StatusInDispute, entity.StatusPendingAcceptance,
		entity.StatusCancelled, entity.StatusArchived,
	},
	entity.StatusPartiallyCancelled: {
		entity.StatusPaid, entity.StatusCollected, entity.StatusOverdue, entity.StatusInDispute, entity.StatusCancelled,
	},
	entity.StatusOverdue: {
		entity.StatusPaid, entity.StatusCollected, entity.StatusPartiallyCancelled,
		entity.StatusInDispute, entity.StatusCancelled, entity.StatusArchived,
	},
	entity.StatusPaid:              {entity.StatusOverdue, entity.StatusInDispute, entity.StatusArchived},
	entity.StatusCollected:         {entity.StatusInDispute, entity.StatusArchived},
	entity.StatusPendingAcceptance: {entity.StatusIssued, entity.StatusRejected, entity.StatusInDispute},
	entity.StatusInDispute:         {entity.StatusIssued, entity.StatusCorrecting, entity.StatusCancelled},
	entity.StatusRejected:          {entity.StatusCorrecting},
	entity.StatusCorrecting:        {entity.StatusPendingApproval},
	entity.StatusCancelled:         {entity.StatusArchived},
	entity.StatusArchived:          {},
}

// CanTransition indica si la tabla admite from -> to (sin evaluar guardas).
func CanTransition(from, to entity.BusinessStatus) bool {
	for _, s := range businessTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition aplica una transición de negocio validando tabla y guardas.
func Transition(doc *entity.FiscalDocument, to entity.BusinessStatus, now time.Time) error {
	from := doc.BusinessStatus
	if !CanTransition(from, to) {
		return &domain.TransitionError{Axis: AxisBusiness, From: string(from), To: string(to)}
	}
	if err := checkGuards(doc, to, now); err != nil {
		return &domain.TransitionError{Axis: AxisBusiness, From: string(from), To: string(to), Err: err}
	}
	doc.BusinessStatus = to
	doc.UpdatedAt = now
	return nil
}

func checkGuards(doc *entity.FiscalDocument, to entity.BusinessStatus, now time.Time) error {
	switch to {
	case entity.StatusApproved:
		if doc.BusinessStatus == entity.StatusPendingApproval && doc.ApprovalsReceived < doc.ApprovalsRequired {
			return domain.ErrInvalidTransition
		}
	case entity.StatusIssued:
		if doc.BusinessStatus == entity.StatusApproved && !authorizationAllowsIssue(doc, now) {
			return domain.ErrAuthorizationFailed
		}
	case entity.StatusPaid, entity.StatusCollected:
		if doc.BalancePending.IsPositive() {
			return domain.ErrInvalidTransition
		}
	case entity.StatusPartiallyCancelled:
		if !doc.BalancePending.IsPositive() || !doc.BalancePending.LessThan(doc.Total) {
			return domain.ErrInvalidTransition
		}
	case entity.StatusRejected:
		if strings.TrimSpace(doc.RejectionReason) == "" {
			return domain.ErrMissingReason
		}
	case entity.StatusCorrecting:
		if doc.BusinessStatus == entity.StatusApproved && doc.AuthorizationStatus != entity.AuthStatusRejected {
			return domain.ErrInvalidTransition
		}
		if strings.TrimSpace(doc.CorrectionNotes) == "" {
			return domain.ErrMissingReason
		}
	case entity.StatusPendingApproval:
		if doc.BusinessStatus == entity.StatusCorrecting && strings.TrimSpace(doc.CorrectionNotes) == "" {
			return domain.ErrMissingReason
		}
	case entity.StatusPendingAcceptance:
		if !doc.Type.IsFCE() && !doc.Type.IsNote() {
			return domain.ErrInvalidTransition
		}
	}
	return nil
}

// authorizationAllowsIssue los manuales no pasan por AFIP; el resto necesita CAE vigente.
func authorizationAllowsIssue(doc *entity.FiscalDocument, now time.Time) bool {
	return doc.AuthorizationStatus == entity.AuthStatusManual || doc.IsAuthorized(now)
}

// InitialStatuses estados con los que nace un comprobante propio o recibido.
// approvalsRequired == 0 arranca directamente en approved.
func InitialStatuses(manual bool, approvalsRequired int) (entity.BusinessStatus, entity.AuthorizationStatus) {
	business := entity.StatusPendingApproval
	if approvalsRequired <= 0 {
		business = entity.StatusApproved
	}
	if manual {
		return business, entity.AuthStatusManual
	}
	return business, entity.AuthStatusDraft
}

// RegisterApproval suma una aprobación y evalúa el umbral.
// Devuelve true solo en la llamada que provoca pending_approval -> approved.
func RegisterApproval(doc *entity.FiscalDocument, now time.Time) (bool, error) {
	if doc.BusinessStatus != entity.StatusPendingApproval || doc.ApprovalsReceived >= doc.ApprovalsRequired {
		return false, domain.ErrAlreadyApproved
	}
	doc.ApprovalsReceived++
	doc.UpdatedAt = now
	return EvaluateApprovalThreshold(doc, now), nil
}

// EvaluateApprovalThreshold pasa a approved si se alcanzó el umbral. Idempotente.
func EvaluateApprovalThreshold(doc *entity.FiscalDocument, now time.Time) bool {
	if doc.BusinessStatus != entity.StatusPendingApproval || doc.ApprovalsReceived < doc.ApprovalsRequired {
		return false
	}
	doc.BusinessStatus = entity.StatusApproved
	doc.UpdatedAt = now
	return true
}

// Reject rechazo explícito con motivo obligatorio.
func Reject(doc *entity.FiscalDocument, reason string, now time.Time) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return domain.NewValidationError("rejection_reason", reason, "obligatorio", domain.ErrMissingReason)
	}
	prev := doc.RejectionReason
	doc.RejectionReason = reason
	if err := Transition(doc, entity.StatusRejected, now); err != nil {
		doc.RejectionReason = prev
		return err
	}
	return nil
}

// StartCorrection rejected -> correcting con notas obligatorias. Desde approved solo se admite
// cuando AFIP rechazó la autorización.
func StartCorrection(doc *entity.FiscalDocument, notes string, now time.Time) error {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return domain.NewValidationError("correction_notes", notes, "obligatorio", domain.ErrMissingReason)
	}
	prev := doc.CorrectionNotes
	doc.CorrectionNotes = notes
	if err := Transition(doc, entity.StatusCorrecting, now); err != nil {
		doc.CorrectionNotes = prev
		return err
	}
	return nil
}

// Resubmit correcting -> pending_approval. Reabre la autorización si AFIP la había rechazado
// y reevalúa el umbral de aprobaciones (las aprobaciones previas siguen vigentes).
func Resubmit(doc *entity.FiscalDocument, now time.Time) (approvedNow bool, err error) {
	if err := Transition(doc, entity.StatusPendingApproval, now); err != nil {
		return false, err
	}
	doc.RejectionReason = ""
	if doc.AuthorizationStatus == entity.AuthStatusRejected {
		if err := ReopenAuthorization(doc, now); err != nil {
			return false, err
		}
	}
	return EvaluateApprovalThreshold(doc, now), nil
}

// ── Eje de autorización ──────────────────────────────────────────────────────

var authorizationTransitions = map[entity.AuthorizationStatus][]entity.AuthorizationStatus{
	entity.AuthStatusDraft:      {entity.AuthStatusAuthorized, entity.AuthStatusRejected},
	entity.AuthStatusRejected:   {entity.AuthStatusDraft},
	entity.AuthStatusAuthorized: {},
	entity.AuthStatusManual:     {},
}

// CanTransitionAuthorization indica si el eje de autorización admite from -> to.
func CanTransitionAuthorization(from, to entity.AuthorizationStatus) bool {
	for _, s := range authorizationTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ApplyAuthorizationSuccess registra el CAE. El vencimiento debe ser estrictamente futuro.
func ApplyAuthorizationSuccess(doc *entity.FiscalDocument, code string, expiry time.Time, now time.Time) error {
	from := doc.AuthorizationStatus
	if !CanTransitionAuthorization(from, entity.AuthStatusAuthorized) {
		return &domain.TransitionError{Axis: AxisAuthorization, From: string(from), To: string(entity.AuthStatusAuthorized)}
	}
	if strings.TrimSpace(code) == "" || !expiry.After(now) {
		return &domain.TransitionError{
			Axis: AxisAuthorization, From: string(from), To: string(entity.AuthStatusAuthorized),
			Err: domain.ErrAuthorizationFailed,
		}
	}
	exp := expiry
	doc.AuthorizationStatus = entity.AuthStatusAuthorized
	doc.AuthorizationCode = strings.TrimSpace(code)
	doc.AuthorizationExpiry = &exp
	doc.AuthorizationError = ""
	doc.UpdatedAt = now
	return nil
}

// ApplyAuthorizationFailure registra el rechazo de AFIP. El estado de negocio no cambia.
func ApplyAuthorizationFailure(doc *entity.FiscalDocument, message string, now time.Time) error {
	from := doc.AuthorizationStatus
	if !CanTransitionAuthorization(from, entity.AuthStatusRejected) {
		return &domain.TransitionError{Axis: AxisAuthorization, From: string(from), To: string(entity.AuthStatusRejected)}
	}
	doc.AuthorizationStatus = entity.AuthStatusRejected
	doc.AuthorizationError = message
	doc.UpdatedAt = now
	return nil
}

// RecordNoteAuthorization guarda el CAE propio de una NC/ND. Sus estados copian los del original,
// así que solo se registran código y vencimiento.
func RecordNoteAuthorization(note *entity.FiscalDocument, code string, expiry time.Time, now time.Time) error {
	if !note.Type.IsNote() {
		return domain.NewValidationError("type", string(note.Type), "no es nota de crédito/débito", nil)
	}
	if note.AuthorizationCode != "" || strings.TrimSpace(code) == "" || !expiry.After(now) {
		return &domain.TransitionError{
			Axis: AxisAuthorization, From: string(note.AuthorizationStatus), To: string(entity.AuthStatusAuthorized),
			Err: domain.ErrAuthorizationFailed,
		}
	}
	exp := expiry
	note.AuthorizationCode = strings.TrimSpace(code)
	note.AuthorizationExpiry = &exp
	note.AuthorizationError = ""
	note.UpdatedAt = now
	return nil
}

// ReopenAuthorization rejected -> draft para volver a solicitar CAE.
func ReopenAuthorization(doc *entity.FiscalDocument, now time.Time) error {
	from := doc.AuthorizationStatus
	if !CanTransitionAuthorization(from, entity.AuthStatusDraft) {
		return &domain.TransitionError{Axis: AxisAuthorization, From: string(from), To: string(entity.AuthStatusDraft)}
	}
	doc.AuthorizationStatus = entity.AuthStatusDraft
	doc.UpdatedAt = now
	return nil
}

// SettlementTargetStatus estado al que debe ir el comprobante tras aplicar un pago/cobro.
// Vacío si no corresponde transición.
func SettlementTargetStatus(doc *entity.FiscalDocument) entity.BusinessStatus {
	switch {
	case !doc.BalancePending.IsPositive():
		if doc.Direction == entity.DirectionReceived {
			return entity.StatusCollected
		}
		return entity.StatusPaid
	case doc.BalancePending.LessThan(doc.Total):
		if doc.BusinessStatus == entity.StatusPartiallyCancelled {
			return ""
		}
		return entity.StatusPartiallyCancelled
	}
	return ""
}
