package repository

import (
	"context"

	"github.com/jhoicas/facturacion-arg/internal/domain/entity"
)

// ApprovalRepository registro append-only de aprobaciones.
type ApprovalRepository interface {
	// Create devuelve ErrDuplicateApproval si el usuario ya aprobó el comprobante.
	Create(ctx context.Context, rec *entity.ApprovalRecord) error
	Exists(ctx context.Context, documentID, userID string) (bool, error)
	Count(ctx context.Context, documentID string) (int, error)
	ListByDocument(ctx context.Context, documentID string) ([]*entity.ApprovalRecord, error)
}
