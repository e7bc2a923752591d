package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/facturacion-arg/internal/application/dto"
	"github.com/jhoicas/facturacion-arg/internal/domain"
	"github.com/jhoicas/facturacion-arg/internal/domain/entity"
	"github.com/jhoicas/facturacion-arg/internal/domain/fiscal"
)

// StatusUseCase transiciones explícitas del estado de negocio.
// Cada operación bloquea el comprobante y alinea sus NC/ND en la misma transacción.
type StatusUseCase struct {
	txRunner FiscalTxRunner
	events   EventPublisher
	log      zerolog.Logger
	now      func() time.Time
}

// NewStatusUseCase construye el caso de uso.
func NewStatusUseCase(txRunner FiscalTxRunner, events EventPublisher, log zerolog.Logger) *StatusUseCase {
	return &StatusUseCase{
		txRunner: txRunner,
		events:   publisherOrNoop(events),
		log:      log.With().Str("component", "status").Logger(),
		now:      time.Now,
	}
}

// Reject rechazo con motivo obligatorio.
func (uc *StatusUseCase) Reject(ctx context.Context, companyID, id, reason string) (*dto.DocumentResponse, error) {
	doc, err := uc.mutate(ctx, companyID, id, func(doc *entity.FiscalDocument, now time.Time) error {
		return fiscal.Reject(doc, reason, now)
	})
	if err != nil {
		return nil, err
	}
	ev := documentEvent(entity.EventDocumentRejected, doc, doc.UpdatedAt)
	ev.Attributes["reason"] = doc.RejectionReason
	uc.events.Publish(ctx, ev)
	return toDocumentResponse(doc, nil, nil, nil), nil
}

// StartCorrection rejected (o approved con autorización rechazada) -> correcting.
func (uc *StatusUseCase) StartCorrection(ctx context.Context, companyID, id, notes string) (*dto.DocumentResponse, error) {
	doc, err := uc.mutate(ctx, companyID, id, func(doc *entity.FiscalDocument, now time.Time) error {
		return fiscal.StartCorrection(doc, notes, now)
	})
	if err != nil {
		return nil, err
	}
	return toDocumentResponse(doc, nil, nil, nil), nil
}

// Resubmit correcting -> pending_approval; pasa a approved si las aprobaciones previas alcanzan.
func (uc *StatusUseCase) Resubmit(ctx context.Context, companyID, id string) (*dto.DocumentResponse, error) {
	var approvedNow bool
	doc, err := uc.mutate(ctx, companyID, id, func(doc *entity.FiscalDocument, now time.Time) error {
		var err error
		approvedNow, err = fiscal.Resubmit(doc, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	if approvedNow {
		uc.events.Publish(ctx, documentEvent(entity.EventDocumentApproved, doc, doc.UpdatedAt))
	}
	return toDocumentResponse(doc, nil, nil, nil), nil
}

// Issue approved -> issued para comprobantes manuales (o con CAE vigente registrado por otra vía).
func (uc *StatusUseCase) Issue(ctx context.Context, companyID, id string) (*dto.DocumentResponse, error) {
	return uc.transition(ctx, companyID, id, entity.StatusIssued)
}

// MarkOverdue pasa a overdue un comprobante con saldo y vencido a asOf.
func (uc *StatusUseCase) MarkOverdue(ctx context.Context, companyID, id string, asOf time.Time) (*dto.DocumentResponse, error) {
	doc, err := uc.mutate(ctx, companyID, id, func(doc *entity.FiscalDocument, now time.Time) error {
		return markOverdue(doc, asOf, now)
	})
	if err != nil {
		return nil, err
	}
	return toDocumentResponse(doc, nil, nil, nil), nil
}

// MarkPendingAcceptance issued -> pending_acceptance (FCE y sus notas).
func (uc *StatusUseCase) MarkPendingAcceptance(ctx context.Context, companyID, id string) (*dto.DocumentResponse, error) {
	return uc.transition(ctx, companyID, id, entity.StatusPendingAcceptance)
}

// RecordAcceptance la contraparte aceptó la FCE: pending_acceptance -> issued.
func (uc *StatusUseCase) RecordAcceptance(ctx context.Context, companyID, id string) (*dto.DocumentResponse, error) {
	doc, err := uc.mutate(ctx, companyID, id, func(doc *entity.FiscalDocument, now time.Time) error {
		if doc.BusinessStatus != entity.StatusPendingAcceptance {
			return &domain.TransitionError{Axis: fiscal.AxisBusiness, From: string(doc.BusinessStatus), To: string(entity.StatusIssued)}
		}
		return fiscal.Transition(doc, entity.StatusIssued, now)
	})
	if err != nil {
		return nil, err
	}
	return toDocumentResponse(doc, nil, nil, nil), nil
}

// Cancel anula el comprobante.
func (uc *StatusUseCase) Cancel(ctx context.Context, companyID, id string) (*dto.DocumentResponse, error) {
	return uc.transition(ctx, companyID, id, entity.StatusCancelled)
}

// Archive archiva el comprobante (terminal).
func (uc *StatusUseCase) Archive(ctx context.Context, companyID, id string) (*dto.DocumentResponse, error) {
	return uc.transition(ctx, companyID, id, entity.StatusArchived)
}

func (uc *StatusUseCase) transition(ctx context.Context, companyID, id string, to entity.BusinessStatus) (*dto.DocumentResponse, error) {
	doc, err := uc.mutate(ctx, companyID, id, func(doc *entity.FiscalDocument, now time.Time) error {
		return fiscal.Transition(doc, to, now)
	})
	if err != nil {
		return nil, err
	}
	return toDocumentResponse(doc, nil, nil, nil), nil
}

// mutate bloquea el comprobante, aplica fn, persiste y alinea las NC/ND.
// companyID vacío omite el control de empresa (barridos batch).
func (uc *StatusUseCase) mutate(ctx context.Context, companyID, id string, fn func(doc *entity.FiscalDocument, now time.Time) error) (*entity.FiscalDocument, error) {
	now := uc.now()
	var (
		doc   *entity.FiscalDocument
		from  entity.BusinessStatus
		notes int
	)
	err := uc.txRunner.RunFiscal(ctx, func(repos FiscalRepos) error {
		d, err := repos.Documents.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if d == nil || (companyID != "" && d.IssuerCompanyID != companyID) {
			return domain.ErrNotFound
		}
		if d.Type.IsNote() {
			return domain.NewValidationError("id", id,
				"el estado de una NC/ND sigue al del comprobante original", domain.ErrInvalidTransition)
		}
		from = d.BusinessStatus
		if err := fn(d, now); err != nil {
			return err
		}
		if err := repos.Documents.Update(ctx, d); err != nil {
			return fmt.Errorf("actualizar comprobante: %w", err)
		}
		notes, err = propagateStatusToNotes(ctx, repos, d, now)
		if err != nil {
			return err
		}
		doc = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("document_id", id).
		Str("from", string(from)).
		Str("to", string(doc.BusinessStatus)).
		Int("notes_updated", notes).
		Msg("transición de estado")
	return doc, nil
}

func markOverdue(doc *entity.FiscalDocument, asOf, now time.Time) error {
	if doc.DueDate == nil || !doc.DueDate.Before(asOf) {
		return domain.NewValidationError("due_date", formatTime(doc.DueDate, dateLayout), "el comprobante no está vencido", domain.ErrInvalidTransition)
	}
	if !doc.BalancePending.IsPositive() {
		return domain.NewValidationError("balance_pending", doc.BalancePending.String(), "sin saldo pendiente", domain.ErrInvalidTransition)
	}
	return fiscal.Transition(doc, entity.StatusOverdue, now)
}
