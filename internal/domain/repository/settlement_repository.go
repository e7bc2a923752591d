package repository

import (
	"context"

	"github.com/jhoicas/facturacion-arg/internal/domain/entity"
)

// SettlementRepository pagos y cobros imputados a comprobantes.
type SettlementRepository interface {
	Create(ctx context.Context, s *entity.Settlement) error
	GetByID(ctx context.Context, id string) (*entity.Settlement, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Settlement, error)
	Update(ctx context.Context, s *entity.Settlement) error
	Delete(ctx context.Context, id string) error
	ListByDocument(ctx context.Context, documentID string) ([]*entity.Settlement, error)
}
