package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/facturacion-arg/internal/domain"
	"github.com/jhoicas/facturacion-arg/internal/domain/entity"
	"github.com/jhoicas/facturacion-arg/internal/domain/fiscal"
)

// lockParent bloquea el comprobante original de una NC/ND dentro de la transacción.
// Un original de otra empresa se trata como inexistente.
func lockParent(ctx context.Context, repos FiscalRepos, companyID, parentID string) (*entity.FiscalDocument, error) {
	parent, err := repos.Documents.GetForUpdate(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("bloquear original %s: %w", parentID, err)
	}
	if parent == nil || parent.IssuerCompanyID != companyID {
		return nil, fmt.Errorf("%w: %s", domain.ErrRelatedDocumentNotFound, parentID)
	}
	if parent.Type.IsNote() {
		return nil, domain.NewValidationError("related_document_id", parentID,
			"una NC/ND debe asociarse al comprobante original, no a otra nota", domain.ErrRelatedDocumentRequired)
	}
	return parent, nil
}

// applyNoteToParent impacta la NC/ND en el saldo del original (ya bloqueado) y alinea los estados
// de la nota con los del original. La nota aún no está persistida.
func applyNoteToParent(ctx context.Context, repos FiscalRepos, note, parent *entity.FiscalDocument, now time.Time) (fiscal.NoteOutcome, error) {
	out, err := fiscal.ApplyNote(parent, note.Type, note.Total, now)
	if err != nil {
		return out, err
	}
	fiscal.MirrorParentStatus(note, parent, now)
	if err := repos.Documents.Update(ctx, parent); err != nil {
		return out, fmt.Errorf("actualizar saldo del original %s: %w", parent.ID, err)
	}
	return out, nil
}

// propagateStatusToNotes copia los estados del original en sus NC/ND. Se llama en la misma
// transacción que cambia el estado del original; devuelve cuántas notas se actualizaron.
func propagateStatusToNotes(ctx context.Context, repos FiscalRepos, parent *entity.FiscalDocument, now time.Time) (int, error) {
	if parent.Type.IsNote() {
		return 0, nil
	}
	notes, err := repos.Documents.ListNotesByRelated(ctx, parent.ID)
	if err != nil {
		return 0, fmt.Errorf("listar notas de %s: %w", parent.ID, err)
	}
	updated := 0
	for _, note := range notes {
		if !fiscal.MirrorParentStatus(note, parent, now) {
			continue
		}
		if err := repos.Documents.Update(ctx, note); err != nil {
			return updated, fmt.Errorf("alinear nota %s: %w", note.ID, err)
		}
		updated++
	}
	return updated, nil
}
