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

// ApprovalUseCase registro de aprobaciones y umbral pending_approval -> approved.
type ApprovalUseCase struct {
	txRunner FiscalTxRunner
	events   EventPublisher
	log      zerolog.Logger
	now      func() time.Time
}

// NewApprovalUseCase construye el caso de uso.
func NewApprovalUseCase(txRunner FiscalTxRunner, events EventPublisher, log zerolog.Logger) *ApprovalUseCase {
	return &ApprovalUseCase{
		txRunner: txRunner,
		events:   publisherOrNoop(events),
		log:      log.With().Str("component", "approvals").Logger(),
		now:      time.Now,
	}
}

// RecordApproval registra la aprobación de userID. El comprobante queda bloqueado durante toda la
// operación, así dos aprobaciones simultáneas no disparan la transición dos veces.
func (uc *ApprovalUseCase) RecordApproval(ctx context.Context, companyID, documentID, userID, note string) (*dto.ApprovalResponse, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.NewValidationError("user_id", userID, "obligatorio", nil)
	}
	now := uc.now()
	var (
		doc         *entity.FiscalDocument
		approvedNow bool
	)
	err := uc.txRunner.RunFiscal(ctx, func(repos FiscalRepos) error {
		d, err := repos.Documents.GetForUpdate(ctx, documentID)
		if err != nil {
			return err
		}
		if d == nil || d.IssuerCompanyID != companyID {
			return domain.ErrNotFound
		}
		if d.Type.IsNote() {
			return domain.NewValidationError("id", documentID,
				"el estado de una NC/ND sigue al del comprobante original", domain.ErrInvalidTransition)
		}
		exists, err := repos.Approvals.Exists(ctx, documentID, userID)
		if err != nil {
			return fmt.Errorf("verificar aprobación: %w", err)
		}
		if exists {
			return domain.ErrDuplicateApproval
		}

		approvedNow, err = fiscal.RegisterApproval(d, now)
		if err != nil {
			return err
		}
		rec := &entity.ApprovalRecord{
			ID:             uuid.New().String(),
			DocumentID:     documentID,
			ApproverUserID: userID,
			ApprovedAt:     now,
			Note:           strings.TrimSpace(note),
		}
		if err := repos.Approvals.Create(ctx, rec); err != nil {
			return err
		}
		if err := repos.Documents.Update(ctx, d); err != nil {
			return fmt.Errorf("actualizar comprobante: %w", err)
		}
		if approvedNow {
			if _, err := propagateStatusToNotes(ctx, repos, d, now); err != nil {
				return err
			}
		}
		doc = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("document_id", documentID).
		Str("user_id", userID).
		Int("received", doc.ApprovalsReceived).
		Int("required", doc.ApprovalsRequired).
		Bool("approved", approvedNow).
		Msg("aprobación registrada")
	if approvedNow {
		uc.events.Publish(ctx, documentEvent(entity.EventDocumentApproved, doc, now))
	}

	return &dto.ApprovalResponse{
		DocumentID:        doc.ID,
		ApprovalsRequired: doc.ApprovalsRequired,
		ApprovalsReceived: doc.ApprovalsReceived,
		BusinessStatus:    string(doc.BusinessStatus),
		Approved:          approvedNow,
	}, nil
}
