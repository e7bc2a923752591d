package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/facturacion-arg/internal/application/dto"
	"github.com/jhoicas/facturacion-arg/internal/domain"
	"github.com/jhoicas/facturacion-arg/internal/domain/entity"
	"github.com/jhoicas/facturacion-arg/internal/domain/fiscal"
)

// AxisSettlement eje de estado de los pagos/cobros en TransitionError.
const AxisSettlement = "settlement"

var settlementMethods = map[string]bool{
	entity.SettlementMethodCash:     true,
	entity.SettlementMethodTransfer: true,
	entity.SettlementMethodCheck:    true,
	entity.SettlementMethodECheq:    true,
	entity.SettlementMethodCard:     true,
}

// estados en los que no se admiten nuevos pagos/cobros
var closedStatuses = map[entity.BusinessStatus]bool{
	entity.StatusCancelled: true,
	entity.StatusArchived:  true,
	entity.StatusRejected:  true,
}

// SettlementUseCase libro de pagos y cobros.
type SettlementUseCase struct {
	txRunner FiscalTxRunner
	repos    FiscalRepos
	events   EventPublisher
	log      zerolog.Logger
	now      func() time.Time
}

// NewSettlementUseCase construye el caso de uso.
func NewSettlementUseCase(txRunner FiscalTxRunner, repos FiscalRepos, events EventPublisher, log zerolog.Logger) *SettlementUseCase {
	return &SettlementUseCase{
		txRunner: txRunner,
		repos:    repos,
		events:   publisherOrNoop(events),
		log:      log.With().Str("component", "settlements").Logger(),
		now:      time.Now,
	}
}

// Declare registra un pago/cobro en estado declared. No toca el saldo.
func (uc *SettlementUseCase) Declare(ctx context.Context, companyID, userID, documentID string, in dto.DeclareSettlementRequest) (*dto.SettlementResponse, error) {
	method := strings.ToLower(strings.TrimSpace(in.Method))
	if !settlementMethods[method] {
		return nil, domain.NewValidationError("method", in.Method, "medio de pago desconocido", nil)
	}
	retentions := make([]entity.Retention, len(in.Retentions))
	for i, r := range in.Retentions {
		retentions[i] = entity.Retention{Type: strings.TrimSpace(r.Type), Rate: r.Rate, BaseAmount: r.BaseAmount, Amount: r.Amount}
	}
	net, retentions, err := fiscal.ComputeNetAmount(in.Amount, retentions)
	if err != nil {
		return nil, err
	}

	doc, err := uc.repos.Documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil || doc.IssuerCompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	if doc.Type.IsNote() {
		return nil, domain.NewValidationError("document_id", documentID, "los pagos se imputan al comprobante original", nil)
	}
	if closedStatuses[doc.BusinessStatus] {
		return nil, domain.NewValidationError("document_id", documentID,
			fmt.Sprintf("el comprobante está %s", doc.BusinessStatus), domain.ErrInvalidTransition)
	}

	now := uc.now()
	s := &entity.Settlement{
		ID:           uuid.New().String(),
		DocumentID:   documentID,
		Amount:       fiscal.Round2(in.Amount),
		Retentions:   retentions,
		NetAmount:    net,
		Method:       method,
		Status:       entity.SettlementStatusDeclared,
		RegisteredBy: userID,
		RegisteredAt: now,
		UpdatedAt:    now,
	}
	if err := uc.repos.Settlements.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("crear pago: %w", err)
	}
	uc.log.Info().Str("settlement_id", s.ID).Str("document_id", documentID).
		Str("amount", s.Amount.StringFixed(2)).Str("net", s.NetAmount.StringFixed(2)).Msg("pago declarado")
	return toSettlementResponse(s, doc, nil), nil
}

// Confirm imputa el neto contra el saldo del comprobante y lo transiciona según corresponda,
// todo bajo el bloqueo del comprobante. Un neto mayor al saldo deja el saldo en cero y marca revisión.
func (uc *SettlementUseCase) Confirm(ctx context.Context, companyID, userID, settlementID string) (*dto.SettlementResponse, error) {
	now := uc.now()
	var (
		s        *entity.Settlement
		doc      *entity.FiscalDocument
		out      fiscal.SettlementOutcome
		from     entity.BusinessStatus
		warnings []error
	)
	err := uc.txRunner.RunFiscal(ctx, func(repos FiscalRepos) error {
		st, err := repos.Settlements.GetForUpdate(ctx, settlementID)
		if err != nil {
			return err
		}
		if st == nil {
			return domain.ErrNotFound
		}
		switch st.Status {
		case entity.SettlementStatusConfirmed:
			return domain.ErrImmutableSettlement
		case entity.SettlementStatusRejected:
			return &domain.TransitionError{Axis: AxisSettlement, From: st.Status, To: entity.SettlementStatusConfirmed}
		}

		d, err := repos.Documents.GetForUpdate(ctx, st.DocumentID)
		if err != nil {
			return err
		}
		if d == nil || d.IssuerCompanyID != companyID {
			return domain.ErrNotFound
		}

		net, retentions, err := fiscal.ComputeNetAmount(st.Amount, st.Retentions)
		if err != nil {
			return err
		}
		st.NetAmount = net
		st.Retentions = retentions

		from = d.BusinessStatus
		out = fiscal.ApplySettlement(d, net, now)
		if out.TargetStatus != "" {
			if fiscal.CanTransition(d.BusinessStatus, out.TargetStatus) {
				if err := fiscal.Transition(d, out.TargetStatus, now); err != nil {
					return err
				}
			} else {
				uc.log.Warn().Str("document_id", d.ID).Str("from", string(d.BusinessStatus)).
					Str("to", string(out.TargetStatus)).Msg("saldo actualizado sin transición de estado")
			}
		}

		st.Status = entity.SettlementStatusConfirmed
		st.ConfirmedBy = userID
		st.ConfirmedAt = &now
		st.UpdatedAt = now
		if err := repos.Settlements.Update(ctx, st); err != nil {
			return fmt.Errorf("confirmar pago: %w", err)
		}
		if err := repos.Documents.Update(ctx, d); err != nil {
			return fmt.Errorf("actualizar saldo: %w", err)
		}
		if d.BusinessStatus != from {
			if _, err := propagateStatusToNotes(ctx, repos, d, now); err != nil {
				return err
			}
		}
		s, doc = st, d
		return nil
	})
	if err != nil {
		return nil, err
	}

	if out.NeedsReview {
		warnings = append(warnings, fmt.Errorf("%w: excedente %s", domain.ErrNegativeBalance, out.Excess.StringFixed(2)))
		uc.log.Warn().Str("settlement_id", s.ID).Str("document_id", doc.ID).
			Str("excess", out.Excess.StringFixed(2)).Msg("pago supera el saldo; marcado para revisión")
	}
	uc.log.Info().
		Str("settlement_id", s.ID).
		Str("document_id", doc.ID).
		Str("net", s.NetAmount.StringFixed(2)).
		Str("balance", doc.BalancePending.StringFixed(2)).
		Str("from", string(from)).
		Str("to", string(doc.BusinessStatus)).
		Msg("pago confirmado")

	ev := documentEvent(entity.EventSettlementConfirmed, doc, now)
	ev.Amounts["gross"] = s.Amount
	ev.Amounts["net"] = s.NetAmount
	ev.Amounts["applied"] = out.Applied
	ev.Attributes["settlement_id"] = s.ID
	uc.events.Publish(ctx, ev)

	return toSettlementResponse(s, doc, warnings), nil
}

// Reject marca el pago como rechazado; el saldo no cambia.
func (uc *SettlementUseCase) Reject(ctx context.Context, companyID, settlementID, reason string) (*dto.SettlementResponse, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.NewValidationError("reason", reason, "obligatorio", domain.ErrMissingReason)
	}
	now := uc.now()
	var s *entity.Settlement
	err := uc.txRunner.RunFiscal(ctx, func(repos FiscalRepos) error {
		st, err := uc.lockOwned(ctx, repos, companyID, settlementID)
		if err != nil {
			return err
		}
		switch st.Status {
		case entity.SettlementStatusConfirmed:
			return domain.ErrImmutableSettlement
		case entity.SettlementStatusRejected:
			return &domain.TransitionError{Axis: AxisSettlement, From: st.Status, To: entity.SettlementStatusRejected}
		}
		st.Status = entity.SettlementStatusRejected
		st.RejectionReason = reason
		st.UpdatedAt = now
		if err := repos.Settlements.Update(ctx, st); err != nil {
			return fmt.Errorf("rechazar pago: %w", err)
		}
		s = st
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("settlement_id", s.ID).Str("reason", reason).Msg("pago rechazado")
	return toSettlementResponse(s, nil, nil), nil
}

// Delete elimina un pago declared o rejected. Los confirmados son inmutables.
func (uc *SettlementUseCase) Delete(ctx context.Context, companyID, settlementID string) error {
	err := uc.txRunner.RunFiscal(ctx, func(repos FiscalRepos) error {
		st, err := uc.lockOwned(ctx, repos, companyID, settlementID)
		if err != nil {
			return err
		}
		if st.IsConfirmed() {
			return domain.ErrImmutableSettlement
		}
		return repos.Settlements.Delete(ctx, settlementID)
	})
	if err != nil {
		return err
	}
	uc.log.Info().Str("settlement_id", settlementID).Msg("pago eliminado")
	return nil
}

// ListByDocument pagos/cobros de un comprobante.
func (uc *SettlementUseCase) ListByDocument(ctx context.Context, companyID, documentID string) ([]*dto.SettlementResponse, error) {
	doc, err := uc.repos.Documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil || doc.IssuerCompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	list, err := uc.repos.Settlements.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.SettlementResponse, 0, len(list))
	for _, s := range list {
		out = append(out, toSettlementResponse(s, doc, nil))
	}
	return out, nil
}

func (uc *SettlementUseCase) lockOwned(ctx context.Context, repos FiscalRepos, companyID, settlementID string) (*entity.Settlement, error) {
	st, err := repos.Settlements.GetForUpdate(ctx, settlementID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, domain.ErrNotFound
	}
	doc, err := repos.Documents.GetByID(ctx, st.DocumentID)
	if err != nil {
		return nil, err
	}
	if doc == nil || doc.IssuerCompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	return st, nil
}
